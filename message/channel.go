package message

// Channel is a named sub-space of a chatroom with its own permission set.
// Identity is the UID; the rest is display data.
type Channel struct {
	UID         string          `json:"channelID"`
	Name        string          `json:"channel_name"`
	Public      bool            `json:"public"`
	Permissions map[string]bool `json:"permissions"`
}
