package message

import (
	"encoding/json"
	"testing"
)

func TestUserColor(t *testing.T) {
	u := User{
		UID:             "u1",
		Username:        "alice",
		ColorComponents: map[string]int{"b": 30, "g": 20, "r": 10},
	}

	actual := u.Color()
	expected := "10;20;30"
	if actual != expected {
		t.Errorf("Got: `%s`; Expected: `%s`", actual, expected)
	}
}

func TestUserColorEmpty(t *testing.T) {
	u := User{UID: "u1", Username: "bob"}
	if u.Color() != "" {
		t.Errorf("Got: `%s`; Expected empty", u.Color())
	}
}

func TestUserDecode(t *testing.T) {
	data := []byte(`{"userID": "u1", "username": "alice", "color": {"r": 1, "g": 2, "b": 3}}`)

	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		t.Fatal(err)
	}
	if u.UID != "u1" || u.Username != "alice" {
		t.Errorf("Got: %+v", u)
	}
	if u.Color() != "1;2;3" {
		t.Errorf("Got: `%s`; Expected: `1;2;3`", u.Color())
	}
}
