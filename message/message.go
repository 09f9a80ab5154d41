package message

import (
	"encoding/json"
	"time"
)

// Type is the tag carried by every message on the wire.
type Type string

const (
	TypeNormal       Type = "normal"
	TypeDelete       Type = "delete"
	TypeSystem       Type = "system"
	TypeSystemSilent Type = "system-silent"
)

// Message is a single entry in a channel's history.
type Message struct {
	UID     string  `json:"messageID"`
	Type    Type    `json:"type"`
	Sender  string  `json:"userID"`
	Content string  `json:"data"`
	ReplyTo string  `json:"replyID,omitempty"`
	Time    float64 `json:"time,omitempty"`
}

// Kind returns the message's type tag. Unknown tags count as normal
// messages.
func (m *Message) Kind() Type {
	switch m.Type {
	case TypeDelete, TypeSystem, TypeSystemSilent:
		return m.Type
	case TypeNormal, "":
		return TypeNormal
	}

	logger.Printf("unknown message type %q, treating as normal", m.Type)
	return TypeNormal
}

// Timestamp converts the server's epoch-seconds clock to a time.Time.
func (m *Message) Timestamp() time.Time {
	sec := int64(m.Time)
	nsec := int64((m.Time - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}

// ParseList decodes a message list as returned by the messages endpoint.
func ParseList(data []byte) ([]Message, error) {
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
