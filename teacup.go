package teahaz

import (
	"fmt"
	"sync"
	"time"
)

// Teacup is a registry over multiple chatrooms. Event subscriptions made
// through SubscribeAll, OnErrorAll and OnNetworkExceptionAll apply to every
// chatroom it holds, and are inherited by chatrooms it creates or logs into
// afterwards.
type Teacup struct {
	// Interval overrides the poll interval of chatrooms created or logged
	// into through this registry, when positive.
	Interval time.Duration

	mu        sync.Mutex
	chatrooms []*Chatroom

	globalMessage   map[Event]MessageHandler
	globalError     ErrorHandler
	globalException ExceptionHandler
}

// NewTeacup creates an empty registry.
func NewTeacup() *Teacup {
	return &Teacup{
		globalMessage: map[Event]MessageHandler{},
	}
}

// Chatrooms lists the registered chatrooms.
func (t *Teacup) Chatrooms() []*Chatroom {
	t.mu.Lock()
	defer t.mu.Unlock()
	chatrooms := make([]*Chatroom, len(t.chatrooms))
	copy(chatrooms, t.chatrooms)
	return chatrooms
}

// GetChatroom returns the first registered chatroom with the given name, or
// nil.
func (t *Teacup) GetChatroom(name string) *Chatroom {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, chatroom := range t.chatrooms {
		if chatroom.Name() == name {
			return chatroom
		}
	}
	return nil
}

// Create makes a new chatroom on the server at url with username as its
// owner, and registers it. A creation failure that was captured by a global
// handler returns (nil, nil).
func (t *Teacup) Create(url, name, username, password string) (*Chatroom, error) {
	chatroom := NewChatroom(url, name)
	t.propagate(chatroom)

	if err := chatroom.Create(username, password); err != nil {
		return nil, err
	}
	if chatroom.UID() == "" {
		// Creation failed, but the error was captured.
		return nil, nil
	}

	t.register(chatroom)
	return chatroom, nil
}

// Login binds to an existing chatroom, logs in, and registers it. A login
// failure that was captured by a global handler still returns the chatroom,
// logged out.
func (t *Teacup) Login(url, chatroomID, userID, password string) (*Chatroom, error) {
	chatroom := OpenChatroom(url, chatroomID)
	t.propagate(chatroom)

	if err := chatroom.Login(userID, password); err != nil {
		return nil, err
	}

	t.register(chatroom)
	return chatroom, nil
}

// SubscribeAll binds fn for a message event on every current chatroom and on
// every chatroom created or logged into later.
func (t *Teacup) SubscribeAll(event Event, fn MessageHandler) error {
	if event == EventError || event == EventNetworkException {
		return ConfigError{Reason: string(event) + " does not take a message handler"}
	}

	t.mu.Lock()
	t.globalMessage[event] = fn
	chatrooms := make([]*Chatroom, len(t.chatrooms))
	copy(chatrooms, t.chatrooms)
	t.mu.Unlock()

	for _, chatroom := range chatrooms {
		if err := chatroom.OnMessage(event, fn); err != nil {
			return err
		}
	}
	return nil
}

// OnErrorAll binds fn as the failed-request handler on every current and
// future chatroom.
func (t *Teacup) OnErrorAll(fn ErrorHandler) {
	t.mu.Lock()
	t.globalError = fn
	chatrooms := make([]*Chatroom, len(t.chatrooms))
	copy(chatrooms, t.chatrooms)
	t.mu.Unlock()

	for _, chatroom := range chatrooms {
		chatroom.OnError(fn)
	}
}

// OnNetworkExceptionAll binds fn as the transport-failure handler on every
// current and future chatroom.
func (t *Teacup) OnNetworkExceptionAll(fn ExceptionHandler) {
	t.mu.Lock()
	t.globalException = fn
	chatrooms := make([]*Chatroom, len(t.chatrooms))
	copy(chatrooms, t.chatrooms)
	t.mu.Unlock()

	for _, chatroom := range chatrooms {
		chatroom.OnNetworkException(fn)
	}
}

// propagate copies the listeners registered so far onto a new chatroom.
// Listeners registered later reach it through the registry, once the
// chatroom is registered.
func (t *Teacup) propagate(chatroom *Chatroom) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Apply before any subscription can start the poller.
	if t.Interval > 0 {
		chatroom.Interval = t.Interval
	}

	for event, fn := range t.globalMessage {
		chatroom.OnMessage(event, fn)
	}
	if t.globalError != nil {
		chatroom.OnError(t.globalError)
	}
	if t.globalException != nil {
		chatroom.OnNetworkException(t.globalException)
	}
}

func (t *Teacup) register(chatroom *Chatroom) {
	t.mu.Lock()
	t.chatrooms = append(t.chatrooms, chatroom)
	t.mu.Unlock()
}

// Close stops every registered chatroom's poller.
func (t *Teacup) Close() {
	for _, chatroom := range t.Chatrooms() {
		chatroom.Close()
	}
}

// Task is a handle on a background helper started with Go. Unlike a bare
// goroutine it surfaces the target's failure: the callback receives both the
// result and the error, and both stay readable after Done closes.
type Task struct {
	done   chan struct{}
	result interface{}
	err    error
}

// Done is closed once the target has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the target has returned and reports its outcome.
func (t *Task) Wait() (interface{}, error) {
	<-t.done
	return t.result, t.err
}

// Go runs target on its own goroutine and, when it finishes, calls callback
// with its result and error. A panicking target is reported as an error
// rather than crashing the process. callback may be nil.
func (t *Teacup) Go(target func() (interface{}, error), callback func(result interface{}, err error)) *Task {
	task := &Task{done: make(chan struct{})}

	go func() {
		defer close(task.done)
		defer func() {
			if r := recover(); r != nil {
				task.err = fmt.Errorf("task panicked: %v", r)
				if callback != nil {
					callback(nil, task.err)
				}
			}
		}()

		task.result, task.err = target()
		if callback != nil {
			callback(task.result, task.err)
		}
	}()

	return task
}
