// Command banreplay replays a raw IRC log through the list-mode tracker
// and reports the resulting channel state. It is useful for auditing what
// a channel's lists looked like at the end of a session, for debugging
// desyncs offline, and for feeding the admind API from captured traffic.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/presbrey/ircstate"
	"github.com/presbrey/ircstate/admind"
	"github.com/presbrey/ircstate/audit"
	"github.com/presbrey/ircstate/config"
)

func main() {
	// Define command-line flags
	configPath := flag.String("config", "", "Config file (yaml/toml/json); empty for defaults")
	input := flag.String("input", "-", "Raw IRC log to replay; - for stdin")
	asJSON := flag.Bool("json", false, "Dump final state as JSON instead of text")
	serve := flag.Bool("serve", false, "Serve the admind API and stay up after the replay")
	flag.Parse()

	// Load configuration
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	} else {
		cfg = config.Default()
	}

	log.Printf("Replaying %s", *input)

	// Outbound traffic has nowhere to go in a replay; log it so refresh
	// queries and scheduled joins are visible
	sender := ircstate.SenderFunc(func(command string, params ...string) {
		log.Printf("outbound: %s %s", command, strings.Join(params, " "))
	})

	opts := []ircstate.Option{ircstate.WithSender(sender)}
	if replies := cfg.ListReplies(); replies != nil {
		opts = append(opts, ircstate.WithListReplies(replies))
	}
	if len(cfg.AutoJoin.Channels) > 0 {
		aj := ircstate.AutoJoinConfig{
			WaitStart: time.Duration(cfg.AutoJoin.WaitStartMS) * time.Millisecond,
			Interval:  time.Duration(cfg.AutoJoin.IntervalMS) * time.Millisecond,
		}
		for _, target := range cfg.AutoJoin.Channels {
			aj.Targets = append(aj.Targets, ircstate.JoinTarget{Channel: target.Name, Key: target.Key})
		}
		opts = append(opts, ircstate.WithAutoJoin(aj))
	}

	var recorder *audit.Recorder
	if cfg.Audit.Enabled {
		recorder, err = audit.Open(cfg.Audit.Path)
		if err != nil {
			log.Fatalf("Failed to open audit journal: %v", err)
		}
		defer recorder.Close()
		opts = append(opts, ircstate.WithChangeListener(recorder))
		log.Printf("Journaling changes to %s", cfg.Audit.Path)
	}

	client := ircstate.New(opts...)

	// Start the API before replaying when asked to serve, so a slow
	// replay can be watched live
	var api *admind.API
	if *serve || cfg.API.Enabled {
		api = admind.NewAPI(client, cfg)
		go func() {
			if err := api.Start(); err != nil && err != http.ErrServerClosed {
				log.Printf("admind: %v", err)
			}
		}()
		log.Printf("Serving admind on %s", cfg.GetAPIListenAddress())
	}

	in, closeIn, err := openInput(*input)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}

	client.Connected()
	lines := 0
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		client.HandleLine(scanner.Text())
		lines++
	}
	if err := scanner.Err(); err != nil {
		log.Printf("Warning: input ended early: %v", err)
	}
	closeIn()
	log.Printf("Replayed %d lines", lines)

	if *asJSON {
		dumpJSON(client)
	} else {
		dumpText(client)
	}

	if api != nil {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		log.Println("Press Ctrl+C to stop.")
		<-sigChan

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := api.Stop(ctx); err != nil {
			log.Printf("Error stopping admind: %v", err)
		}
		cancel()
	}
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func dumpText(client *ircstate.Client) {
	channels := client.State().Channels()
	if len(channels) == 0 {
		fmt.Println("no channels tracked")
		return
	}

	for _, name := range channels {
		ch := client.State().Lookup(name)
		if ch == nil {
			continue
		}
		fmt.Printf("%s\n", ch.GetName())

		letters := ch.ListModeLetters()
		if len(letters) == 0 {
			fmt.Println("  (no list entries)")
			continue
		}
		for _, mode := range letters {
			for _, e := range ch.ListEntries(mode) {
				fmt.Printf("  +%c %-40s set by %-30s at %s\n",
					mode, e.Mask, e.Setter.String(),
					time.Unix(e.Timestamp, 0).UTC().Format(time.RFC3339))
			}
		}
	}
}

func dumpJSON(client *ircstate.Client) {
	out := make(map[string]map[string][]ircstate.ListEntry)
	for _, name := range client.State().Channels() {
		ch := client.State().Lookup(name)
		if ch == nil {
			continue
		}
		out[ch.GetName()] = ch.ListSnapshot()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Printf("Failed to encode state: %v", err)
	}
}
