package teahaz

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/shazow/rateio"
	"github.com/teahaz/teahaz-go/message"
)

// DefaultInterval is the poll interval used when none is set.
const DefaultInterval = time.Second

// sendAmount/sendFrequency bound how fast a client may send before messages
// are rejected with rateio.ErrRateExceeded.
const sendAmount = 3
const sendFrequency = time.Second * 3

// Chatroom is a client for a single remote conversation space. The zero
// value is not usable; construct with NewChatroom or OpenChatroom.
type Chatroom struct {
	// Interval is the poll frequency of the background loop. Set it before
	// the first message subscription.
	Interval time.Duration

	url       string
	client    *http.Client
	endpoints *Endpoints
	listeners *listeners

	mu            sync.RWMutex
	uid           string
	name          string
	userID        string
	channels      []message.Channel
	channelSeen   *Set
	activeChannel *message.Channel
	poller        *Poller
	fetcher       Fetcher

	limiter rateio.Limiter
}

func newChatroom(url string) *Chatroom {
	c := &Chatroom{
		Interval:    DefaultInterval,
		url:         url,
		client:      &http.Client{},
		listeners:   newListeners(),
		channelSeen: NewSet(),
		limiter:     rateio.NewSimpleLimiter(sendAmount, sendFrequency),
	}
	c.endpoints = NewEndpoints(url, "")
	return c
}

// NewChatroom prepares a client for a chatroom that does not exist remotely
// yet. Create registers it with the service at url and fills in its
// identifiers.
func NewChatroom(url, name string) *Chatroom {
	c := newChatroom(url)
	c.name = name
	return c
}

// OpenChatroom binds a client to a chatroom that already exists remotely.
// Login makes it usable.
func OpenChatroom(url, uid string) *Chatroom {
	c := newChatroom(url)
	c.uid = uid
	c.endpoints.Set("uid", uid)
	return c
}

// UID of the chatroom, empty until created or opened.
func (c *Chatroom) UID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.uid
}

// Name of the chatroom, if known.
func (c *Chatroom) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// UserID of the logged-in user, empty until login or creation succeeds.
func (c *Chatroom) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// URL of the server this chatroom lives on.
func (c *Chatroom) URL() string {
	return c.url
}

// Channels lists the channels known to the client, in discovery order.
func (c *Chatroom) Channels() []message.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	channels := make([]message.Channel, len(c.channels))
	copy(channels, c.channels)
	return channels
}

// ActiveChannel returns the channel operations default to, or nil.
func (c *Chatroom) ActiveChannel() *message.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.activeChannel
}

// SetChannel activates a channel by UID. The channel must already be in the
// chatroom's channel list.
func (c *Chatroom) SetChannel(uid string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, channel := range c.channels {
		if channel.UID == uid {
			channel := channel
			c.activeChannel = &channel
			return nil
		}
	}
	return ErrUnknownChannel
}

// OnMessage binds fn as the sole handler for a message-carrying event,
// replacing any prior binding. The first such binding starts the chatroom's
// background poller. EventError and EventNetworkException are rejected; use
// OnError and OnNetworkException.
func (c *Chatroom) OnMessage(event Event, fn MessageHandler) error {
	if event == EventError || event == EventNetworkException {
		return ConfigError{Reason: string(event) + " does not take a message handler"}
	}

	c.listeners.setMessage(event, fn)
	c.startPolling()
	return nil
}

// OnError binds fn as the sole handler for failed requests. While bound,
// non-200 responses are reported to fn instead of being returned as errors.
func (c *Chatroom) OnError(fn ErrorHandler) {
	c.listeners.setError(fn)
}

// OnNetworkException binds fn as the sole handler for transport failures.
func (c *Chatroom) OnNetworkException(fn ExceptionHandler) {
	c.listeners.setException(fn)
}

// Create registers the chatroom with the service, with username as its owner.
// On success the chatroom's identifiers and channel list are filled in and
// the owner is logged in. A failure that was delivered to a subscribed
// handler returns nil with the chatroom left unjoined.
func (c *Chatroom) Create(username, password string) error {
	raw, err := c.execute(http.MethodPost, c.endpoints.Chatroom(), nil, map[string]interface{}{
		"chatroom_name": c.Name(),
		"username":      username,
		"password":      password,
	})
	if err != nil {
		return err
	}
	if raw == nil {
		// Creation failed, but the error was captured.
		return nil
	}

	var payload struct {
		Name     string            `json:"chatroom_name"`
		UID      string            `json:"chatroomID"`
		UserID   string            `json:"userID"`
		Channels []message.Channel `json:"channels"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}

	c.mu.Lock()
	c.name = payload.Name
	c.uid = payload.UID
	c.userID = payload.UserID
	c.mu.Unlock()

	c.endpoints.Set("uid", payload.UID)
	c.mergeChannels(payload.Channels)

	logger.Infof("created chatroom %q (%s)", payload.Name, payload.UID)
	return nil
}

// Login authenticates against the bound chatroom and syncs its channel list.
// The user ID is committed only once the server confirms the login.
func (c *Chatroom) Login(userID, password string) error {
	raw, err := c.execute(http.MethodPost, c.endpoints.Login(), nil, map[string]interface{}{
		"userID":   userID,
		"password": password,
	})
	if err != nil {
		return err
	}
	if raw == nil {
		// Login failed, but the error was captured. Don't commit the
		// user ID: the server never validated it.
		return nil
	}

	c.mu.Lock()
	c.userID = userID
	c.mu.Unlock()

	logger.Infof("logged into chatroom %s as %s", c.UID(), userID)
	return c.updateChannels()
}

// CreateChannel creates a channel and merges it into the channel list. A
// failure that was delivered to a subscribed handler returns (nil, nil).
func (c *Chatroom) CreateChannel(name string) (*message.Channel, error) {
	userID := c.UserID()
	if userID == "" {
		return nil, ErrNotLoggedIn
	}

	raw, err := c.execute(http.MethodPost, c.endpoints.Channels(), nil, map[string]interface{}{
		"userID":       userID,
		"channel_name": name,
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var channel message.Channel
	if err := json.Unmarshal(raw, &channel); err != nil {
		return nil, err
	}

	c.mergeChannels([]message.Channel{channel})
	return &channel, nil
}

// GetMessages fetches messages from a channel. A non-nil channel becomes the
// active channel; otherwise the current active channel is used. count and
// since are optional as their zero values.
func (c *Chatroom) GetMessages(channel *message.Channel, count int, since time.Time) ([]message.Message, error) {
	if c.UserID() == "" {
		return nil, ErrNotLoggedIn
	}

	channel, err := c.activate(channel)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{"channelID": channel.UID}
	if count > 0 {
		headers["count"] = strconv.Itoa(count)
	}
	if !since.IsZero() {
		headers["time"] = strconv.FormatInt(since.Unix(), 10)
	}

	raw, err := c.execute(http.MethodGet, c.endpoints.Messages(), headers, nil)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	return message.ParseList(raw)
}

// Send posts a text message to a channel, defaulting to the active one.
// replyID may be empty. Sends beyond the anti-flood rate fail with
// rateio.ErrRateExceeded.
func (c *Chatroom) Send(content string, channel *message.Channel, replyID string) error {
	return c.send(c.endpoints.Messages(), content, channel, replyID)
}

// SendFile posts binary content to a channel through the files endpoint.
func (c *Chatroom) SendFile(data []byte, channel *message.Channel, replyID string) error {
	return c.send(c.endpoints.Files(), data, channel, replyID)
}

func (c *Chatroom) send(endpoint string, content interface{}, channel *message.Channel, replyID string) error {
	userID := c.UserID()
	if userID == "" {
		return ErrNotLoggedIn
	}

	channel, err := c.activate(channel)
	if err != nil {
		return err
	}

	if err := c.limiter.Count(1); err != nil {
		return err
	}

	_, err = c.execute(http.MethodPost, endpoint, nil, map[string]interface{}{
		"userID":    userID,
		"channelID": channel.UID,
		"replyID":   replyID,
		"data":      content,
	})
	return err
}

// activate resolves the channel an operation should use: an explicit channel
// becomes the active one, otherwise the current active channel is used.
func (c *Chatroom) activate(channel *message.Channel) (*message.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if channel != nil {
		c.activeChannel = channel
		return channel, nil
	}
	if c.activeChannel == nil {
		return nil, ErrMissingChannel
	}
	return c.activeChannel, nil
}

// updateChannels fetches the current channel list and merges it.
func (c *Chatroom) updateChannels() error {
	userID := c.UserID()
	if userID == "" {
		return ErrNotLoggedIn
	}

	raw, err := c.execute(http.MethodGet, c.endpoints.Channels(), map[string]string{"userID": userID}, nil)
	if err != nil {
		return err
	}
	if raw == nil {
		// Getting channels failed, but the error was captured.
		return nil
	}

	var channels []message.Channel
	if err := json.Unmarshal(raw, &channels); err != nil {
		return err
	}

	c.mergeChannels(channels)
	return nil
}

// mergeChannels appends unseen channels, keeping order and identity unique,
// and falls back the active channel to the first one known.
func (c *Chatroom) mergeChannels(channels []message.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, channel := range channels {
		if c.channelSeen.In(channel.UID) {
			continue
		}
		c.channelSeen.Add(channel.UID)
		c.channels = append(c.channels, channel)
	}

	if c.activeChannel == nil && len(c.channels) > 0 {
		first := c.channels[0]
		c.activeChannel = &first
	}
}

// notify dispatches an event to its bound handler, if any.
func (c *Chatroom) notify(event Event, msg *message.Message) {
	c.listeners.notify(event, msg, c)
}

// dispatch routes a polled message to its event kind by type tag.
func (c *Chatroom) dispatch(msg *message.Message) {
	switch msg.Kind() {
	case message.TypeDelete:
		c.notify(EventMsgDel, msg)
	case message.TypeSystem:
		c.notify(EventMsgSys, msg)
	case message.TypeSystemSilent:
		c.notify(EventMsgSysSilent, msg)
	default:
		c.notify(EventMsgNew, msg)
	}
}
