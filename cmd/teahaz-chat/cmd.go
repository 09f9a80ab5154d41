package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/alexcesaro/log"
	"github.com/alexcesaro/log/golog"
	"github.com/dustin/go-humanize"
	"github.com/howeyc/gopass"
	flags "github.com/jessevdk/go-flags"

	teahaz "github.com/teahaz/teahaz-go"
	"github.com/teahaz/teahaz-go/message"
)

// Version of the binary, assigned during build.
var Version string = "dev"

// Options contains the flag options
type Options struct {
	Verbose  []bool `short:"v" long:"verbose" description:"Show verbose logging."`
	Version  bool   `long:"version" description:"Print version and exit."`
	Config   string `long:"config" description:"YAML profile with connection defaults." default:"~/.config/teahaz/config.yml"`
	URL      string `long:"url" description:"Base URL of the teahaz server."`
	Chatroom string `long:"chatroom" description:"ID of the chatroom to log into."`
	User     string `long:"user" description:"User ID to log in as."`
	Create   string `long:"create" description:"Create a new chatroom with this name instead of logging in."`
	Channel  string `long:"channel" description:"Channel name to activate after joining."`
	Interval int    `long:"interval" description:"Poll interval in seconds." default:"1"`
}

var logLevels = []log.Level{
	log.Warning,
	log.Info,
	log.Debug,
}

func fail(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(code)
}

func main() {
	options := Options{}
	parser := flags.NewParser(&options, flags.Default)
	p, err := parser.Parse()
	if err != nil {
		if p == nil {
			fmt.Print(err)
		}
		return
	}

	if options.Version {
		fmt.Println(Version)
		return
	}

	// Figure out the log level
	numVerbose := len(options.Verbose)
	if numVerbose >= len(logLevels) {
		numVerbose = len(logLevels) - 1
	}

	logLevel := logLevels[numVerbose]
	logger := golog.New(os.Stderr, logLevel)
	teahaz.SetLogger(logger)

	if logLevel == log.Debug {
		// Enable logging from submodules
		message.SetLogger(os.Stderr)
	}

	profile, err := loadProfile(expandHome(options.Config))
	if err != nil {
		fail(2, "Couldn't read config: %v\n", err)
	}
	profile.merge(&options)

	if options.URL == "" {
		fail(3, "No server URL given; use --url or a config file.\n")
	}
	if options.Create == "" && (options.Chatroom == "" || options.User == "") {
		fail(3, "Need --chatroom and --user to log in, or --create to make a new chatroom.\n")
	}

	fmt.Print("Password: ")
	password, err := gopass.GetPasswd()
	if err != nil {
		fail(4, "Couldn't read password: %v\n", err)
	}

	cup := teahaz.NewTeacup()
	if options.Interval > 0 {
		cup.Interval = time.Duration(options.Interval) * time.Second
	}
	cup.SubscribeAll(teahaz.EventMsgNew, printMessage)
	cup.SubscribeAll(teahaz.EventMsgSys, printSystem)
	cup.SubscribeAll(teahaz.EventMsgDel, printDeleted)
	cup.OnErrorAll(func(failure *teahaz.RequestFailedError) {
		logger.Errorf("request failed: %s", failure)
	})
	cup.OnNetworkExceptionAll(func(err error, method, url string) {
		logger.Errorf("%s %s: %s", method, url, err)
	})

	var room *teahaz.Chatroom
	if options.Create != "" {
		if options.User == "" {
			fail(3, "Need --user to own the new chatroom.\n")
		}
		room, err = cup.Create(options.URL, options.Create, options.User, string(password))
	} else {
		room, err = cup.Login(options.URL, options.Chatroom, options.User, string(password))
	}
	if err != nil {
		fail(5, "Couldn't join chatroom: %v\n", err)
	}
	if room == nil || room.UserID() == "" {
		fail(5, "Chatroom rejected the credentials.\n")
	}
	defer cup.Close()

	if options.Channel != "" {
		if err := activateByName(room, options.Channel); err != nil {
			fail(6, "Couldn't activate channel %q: %v\n", options.Channel, err)
		}
	}

	active := "none"
	if channel := room.ActiveChannel(); channel != nil {
		active = channel.Name
	}
	fmt.Printf("Joined %q as %s, channel: %s\n", room.Name(), options.User, active)

	// Construct interrupt handler
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-sig:
			fmt.Fprintln(os.Stderr, "Interrupt signal detected, shutting down.")
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				// Silently ignore empty lines.
				continue
			}
			if err := room.Send(line, nil, ""); err != nil {
				logger.Warningf("Message rejected: %s", err)
			}
		}
	}
}

func printMessage(msg *message.Message, room *teahaz.Chatroom) {
	fmt.Printf("[%s] %s: %s\n", humanize.Time(msg.Timestamp()), msg.Sender, msg.Content)
}

func printSystem(msg *message.Message, room *teahaz.Chatroom) {
	fmt.Printf(" * %s\n", msg.Content)
}

func printDeleted(msg *message.Message, room *teahaz.Chatroom) {
	fmt.Printf(" * %s deleted a message.\n", msg.Sender)
}

func activateByName(room *teahaz.Chatroom, name string) error {
	for _, channel := range room.Channels() {
		if channel.Name == name {
			return room.SetChannel(channel.UID)
		}
	}
	return fmt.Errorf("no channel named %q", name)
}
