package teahaz

import (
	"sync"

	"github.com/teahaz/teahaz-go/message"
)

// Event identifies a category of asynchronous occurrence a caller may
// subscribe to.
type Event string

const (
	// EventError fires when a request gets a non-200 response.
	EventError Event = "error"

	// EventNetworkException fires when a request fails at the transport
	// level (DNS, refused connection, timeout).
	EventNetworkException Event = "network_exception"

	// EventMsgNew fires for every new normal message seen by the poller.
	EventMsgNew Event = "msg_new"

	// EventMsgDel fires when a message deletion is seen by the poller.
	EventMsgDel Event = "msg_del"

	// EventMsgSys fires for system messages.
	EventMsgSys Event = "msg_sys"

	// EventMsgSysSilent fires for system messages meant to be handled
	// without display.
	EventMsgSysSilent Event = "msg_sys_silent"

	// Reserved hooks, not yet driven by the poller.
	EventMsgSent    Event = "msg_sent"
	EventUserJoin   Event = "user_join"
	EventUserLeave  Event = "user_leave"
	EventServerInfo Event = "server_info"
)

// MessageHandler is the callback kind for message-carrying events.
type MessageHandler func(msg *message.Message, room *Chatroom)

// ErrorHandler is the callback kind for EventError. It receives the failed
// request's details instead of an error return.
type ErrorHandler func(failure *RequestFailedError)

// ExceptionHandler is the callback kind for EventNetworkException.
type ExceptionHandler func(err error, method string, url string)

// listeners maps event kinds to their single bound callback. Registration is
// last-write-wins; dispatch without a binding is a no-op.
type listeners struct {
	sync.RWMutex
	message     map[Event]MessageHandler
	onError     ErrorHandler
	onException ExceptionHandler
}

func newListeners() *listeners {
	return &listeners{
		message: map[Event]MessageHandler{},
	}
}

func (l *listeners) setMessage(event Event, fn MessageHandler) {
	l.Lock()
	l.message[event] = fn
	l.Unlock()
}

func (l *listeners) setError(fn ErrorHandler) {
	l.Lock()
	l.onError = fn
	l.Unlock()
}

func (l *listeners) setException(fn ExceptionHandler) {
	l.Lock()
	l.onException = fn
	l.Unlock()
}

func (l *listeners) errorHandler() ErrorHandler {
	l.RLock()
	defer l.RUnlock()
	return l.onError
}

func (l *listeners) exceptionHandler() ExceptionHandler {
	l.RLock()
	defer l.RUnlock()
	return l.onException
}

// notify invokes the callback bound to event, synchronously on the calling
// goroutine.
func (l *listeners) notify(event Event, msg *message.Message, room *Chatroom) {
	l.RLock()
	fn := l.message[event]
	l.RUnlock()

	if fn == nil {
		return
	}
	fn(msg, room)
}
