package message

import (
	"sort"
	"strconv"
	"strings"
)

// User is a member of a chatroom.
type User struct {
	UID      string `json:"userID"`
	Username string `json:"username"`

	// ColorComponents holds the user's display color as named numeric
	// components, e.g. {"r": 200, "g": 120, "b": 0}.
	ColorComponents map[string]int `json:"color"`
}

// Color joins the user's color components into a markup tag value, r;g;b
// first and any extra components after, by name.
func (u *User) Color() string {
	parts := make([]string, 0, len(u.ColorComponents))
	taken := map[string]bool{}

	for _, key := range []string{"r", "g", "b"} {
		if value, ok := u.ColorComponents[key]; ok {
			parts = append(parts, strconv.Itoa(value))
			taken[key] = true
		}
	}

	rest := make([]string, 0, len(u.ColorComponents))
	for key := range u.ColorComponents {
		if !taken[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		parts = append(parts, strconv.Itoa(u.ColorComponents[key]))
	}

	return strings.Join(parts, ";")
}
