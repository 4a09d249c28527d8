package sim

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"kiwoom/internal/logger"
	"kiwoom/internal/openapi"

	"gopkg.in/yaml.v3"
)

// Script drives a simulated session from a YAML file:
//
//	results:
//	  GetLoginInfo: "5550001234;"
//	events:
//	  - event: OnReceiveRealData
//	    after: 250ms
//	    args: ["6EH25", "해외선물시세", "..."]
type Script struct {
	Results map[string]any `yaml:"results"`
	Events  []ScriptEvent  `yaml:"events"`
}

// ScriptEvent is one event queued after a delay relative to the previous one.
type ScriptEvent struct {
	Event string        `yaml:"event"`
	After time.Duration `yaml:"after"`
	Args  []any         `yaml:"args"`
}

// LoadScript reads and validates a script file. Unknown fields are rejected.
func LoadScript(path string) (*Script, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sim script failed: %w", err)
	}
	return ParseScript(raw)
}

func ParseScript(raw []byte) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse sim script failed: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) validate() error {
	known := make(map[openapi.Method]bool)
	for _, m := range openapi.Methods() {
		known[m] = true
	}
	for name := range s.Results {
		if !known[openapi.Method(name)] {
			return fmt.Errorf("sim script: unknown method %q in results", name)
		}
	}
	for i, ev := range s.Events {
		if !openapi.EventName(strings.TrimSpace(ev.Event)).Valid() {
			return fmt.Errorf("sim script: events[%d]: unknown event %q", i, ev.Event)
		}
		if ev.After < 0 {
			return fmt.Errorf("sim script: events[%d]: negative delay", i)
		}
	}
	return nil
}

// Apply installs the script results on c.
func (s *Script) Apply(c *Control) {
	for name, v := range s.Results {
		c.SetResult(openapi.Method(name), v)
	}
}

// Play applies the results then queues each event after its delay.
// It returns when every event is queued or ctx is done.
func (s *Script) Play(ctx context.Context, c *Control) error {
	s.Apply(c)
	for _, ev := range s.Events {
		if ev.After > 0 {
			timer := time.NewTimer(ev.After)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err := c.Enqueue(openapi.EventName(strings.TrimSpace(ev.Event)), ev.Args...); err != nil {
			return err
		}
	}
	logger.Debugf("sim: script queued %d events", len(s.Events))
	return nil
}
