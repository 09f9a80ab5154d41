package teahaz

import (
	"fmt"
	"sync"
)

// Endpoint names of the Teahaz API.
const (
	EndpointBase     = "base"
	EndpointLogin    = "login"
	EndpointChatroom = "chatroom"
	EndpointFiles    = "files"
	EndpointMessages = "messages"
	EndpointChannels = "channels"
)

// endpointFuncs maps each endpoint name to a pure formatting function over
// the server URL and the chatroom ID.
var endpointFuncs = map[string]func(url, chatroomID string) string{
	EndpointBase:     func(url, _ string) string { return url + "/api/v0" },
	EndpointLogin:    func(url, id string) string { return url + "/api/v0/login/" + id },
	EndpointChatroom: func(url, _ string) string { return url + "/api/v0/chatroom" },
	EndpointFiles:    func(url, id string) string { return url + "/api/v0/files/" + id },
	EndpointMessages: func(url, id string) string { return url + "/api/v0/messages/" + id },
	EndpointChannels: func(url, id string) string { return url + "/api/v0/channels/" + id },
}

// Endpoints resolves absolute URLs for the Teahaz API from a server URL and a
// chatroom ID. Chatroom-scoped endpoints resolved before the ID is known
// contain an empty ID segment; callers gate on chatroom state.
type Endpoints struct {
	mu  sync.RWMutex
	url string
	uid string
}

// NewEndpoints creates a resolver. uid may be empty until the chatroom is
// created or joined.
func NewEndpoints(url, uid string) *Endpoints {
	return &Endpoints{url: url, uid: uid}
}

// Set updates a resolver value. Only "url" and "uid" are recognized keys;
// anything else fails with a ConfigError.
func (e *Endpoints) Set(key, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch key {
	case "url":
		e.url = value
	case "uid":
		e.uid = value
	default:
		return ConfigError{Reason: fmt.Sprintf("invalid setter key %q", key)}
	}
	return nil
}

// Resolve returns the absolute URL for a named endpoint. Unknown names fail
// with a ConfigError.
func (e *Endpoints) Resolve(name string) (string, error) {
	format, ok := endpointFuncs[name]
	if !ok {
		return "", ConfigError{Reason: fmt.Sprintf("invalid endpoint %q", name)}
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return format(e.url, e.uid), nil
}

// resolve is Resolve for the fixed names the package itself uses.
func (e *Endpoints) resolve(name string) string {
	url, err := e.Resolve(name)
	if err != nil {
		panic(err) // unreachable for enumerated names
	}
	return url
}

// Base endpoint of the API.
func (e *Endpoints) Base() string { return e.resolve(EndpointBase) }

// Login endpoint of the bound chatroom.
func (e *Endpoints) Login() string { return e.resolve(EndpointLogin) }

// Chatroom creation endpoint.
func (e *Endpoints) Chatroom() string { return e.resolve(EndpointChatroom) }

// Files endpoint of the bound chatroom.
func (e *Endpoints) Files() string { return e.resolve(EndpointFiles) }

// Messages endpoint of the bound chatroom.
func (e *Endpoints) Messages() string { return e.resolve(EndpointMessages) }

// Channels endpoint of the bound chatroom.
func (e *Endpoints) Channels() string { return e.resolve(EndpointChannels) }
