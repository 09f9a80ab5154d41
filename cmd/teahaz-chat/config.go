package main

import (
	"os"
	"os/user"
	"strings"

	"gopkg.in/yaml.v3"
)

// profile carries connection defaults loaded from a YAML file. Flags given
// on the command line win over the profile.
type profile struct {
	URL      string `yaml:"url"`
	Chatroom string `yaml:"chatroom"`
	User     string `yaml:"user"`
	Channel  string `yaml:"channel"`
	Interval int    `yaml:"interval"`
}

// loadProfile reads a profile file. A missing file is not an error; it
// yields an empty profile.
func loadProfile(path string) (*profile, error) {
	p := &profile{}
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return p, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, err
	}
	return p, nil
}

// merge fills empty options from the profile.
func (p *profile) merge(options *Options) {
	if options.URL == "" {
		options.URL = p.URL
	}
	if options.Chatroom == "" {
		options.Chatroom = p.Chatroom
	}
	if options.User == "" {
		options.User = p.User
	}
	if options.Channel == "" {
		options.Channel = p.Channel
	}
	if options.Interval <= 1 && p.Interval > 0 {
		options.Interval = p.Interval
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	u, err := user.Current()
	if err != nil {
		return path
	}
	return strings.Replace(path, "~", u.HomeDir, 1)
}
