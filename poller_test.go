package teahaz

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/teahaz/teahaz-go/message"
)

// queueFetcher hands out one batch per poll.
type queueFetcher struct {
	batches [][]message.Message
}

func (f *queueFetcher) FetchSince(since time.Time) ([]message.Message, error) {
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

type dispatched struct {
	event Event
	uid   string
}

func TestSubscribeStartsLoopOnce(t *testing.T) {
	room := OpenChatroom("http://tea.invalid", "c1")
	room.Interval = time.Hour
	defer room.Close()

	if room.IsPolling() {
		t.Error("Polling before any subscription")
	}

	room.OnMessage(EventMsgNew, func(msg *message.Message, room *Chatroom) {})
	if !room.IsPolling() {
		t.Fatal("Not polling after first subscription")
	}
	first := room.Poller()

	room.OnMessage(EventMsgNew, func(msg *message.Message, room *Chatroom) {})
	room.OnMessage(EventMsgSys, func(msg *message.Message, room *Chatroom) {})
	if room.Poller() != first {
		t.Error("A later subscription restarted the poller")
	}
}

func TestPollerDispatch(t *testing.T) {
	room := OpenChatroom("http://tea.invalid", "c1")
	// Leave room for all subscriptions to land before the first tick.
	room.Interval = time.Millisecond * 100
	room.SetFetcher(&queueFetcher{batches: [][]message.Message{{
		{UID: "m1", Type: message.TypeNormal},
		{UID: "m2", Type: message.TypeDelete},
		{UID: "m3", Type: message.TypeSystem},
		{UID: "m4", Type: message.TypeSystemSilent},
		{UID: "m5", Type: "mystery"},
	}}})
	defer room.Close()

	got := make(chan dispatched, 8)
	record := func(event Event) MessageHandler {
		return func(msg *message.Message, from *Chatroom) {
			if from != room {
				t.Error("Handler invoked with the wrong chatroom")
			}
			got <- dispatched{event, msg.UID}
		}
	}

	room.OnMessage(EventMsgDel, record(EventMsgDel))
	room.OnMessage(EventMsgSys, record(EventMsgSys))
	room.OnMessage(EventMsgSysSilent, record(EventMsgSysSilent))
	room.OnMessage(EventMsgNew, record(EventMsgNew))

	expected := []dispatched{
		{EventMsgNew, "m1"},
		{EventMsgDel, "m2"},
		{EventMsgSys, "m3"},
		{EventMsgSysSilent, "m4"},
		{EventMsgNew, "m5"}, // unknown tags default to new
	}
	for _, want := range expected {
		select {
		case have := <-got:
			if have != want {
				t.Errorf("Got: %v; Expected: %v", have, want)
			}
		case <-time.After(time.Second * 5):
			t.Fatalf("Timed out waiting for %v", want)
		}
	}
}

func TestPollerStop(t *testing.T) {
	room := OpenChatroom("http://tea.invalid", "c1")
	room.Interval = time.Millisecond
	room.SetFetcher(&queueFetcher{})

	room.OnMessage(EventMsgNew, func(msg *message.Message, room *Chatroom) {})
	poller := room.Poller()

	poller.Stop()
	poller.Stop() // idempotent

	select {
	case <-poller.Done():
	case <-time.After(time.Second * 5):
		t.Fatal("Poller did not exit after Stop")
	}
}

func TestMessageFetcherNoChannel(t *testing.T) {
	room := OpenChatroom("http://tea.invalid", "c1")
	fetcher := newMessageFetcher(room)

	// Without an active channel there is nothing to poll.
	msgs, err := fetcher.FetchSince(time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("Got %d messages with no active channel; expected 0", len(msgs))
	}
}

func TestMessageFetcherDedup(t *testing.T) {
	// The server re-delivers m2 around the time cutoff.
	responses := []string{
		`[{"messageID": "m1", "type": "normal", "userID": "u2", "data": "a"},
		  {"messageID": "m2", "type": "normal", "userID": "u2", "data": "b"}]`,
		`[{"messageID": "m2", "type": "normal", "userID": "u2", "data": "b"},
		  {"messageID": "m3", "type": "normal", "userID": "u2", "data": "c"}]`,
	}
	i := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v0/messages/c1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(responses[i]))
		i++
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	room := OpenChatroom(ts.URL, "c1")
	room.userID = "u1"
	room.mergeChannels([]message.Channel{{UID: "ch1"}})
	fetcher := newMessageFetcher(room)

	first, err := fetcher.FetchSince(time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 2 {
		t.Fatalf("Got %d messages; expected 2", len(first))
	}

	second, err := fetcher.FetchSince(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 1 || second[0].UID != "m3" {
		t.Errorf("Got: %v; Expected only m3 on the second fetch", second)
	}
}
