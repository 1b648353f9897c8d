// Package recording reads and writes event recordings: newline-delimited
// JSON files of raw hook events produced by an external hook adapter.
//
// The first line is a header; every following line is one event:
//
//	{"type":"header","version":1,"caps_lock":false}
//	{"type":"event","message":"keydown","vk":72,"time":"2024-01-02T15:04:05.123Z","title":"Notepad"}
//	{"type":"event","message":"lbuttondown","x":640,"y":360,"time":"2024-01-02T15:04:06Z","frame":"frames/0001.png"}
//
// Every line is validated against an embedded JSON schema before use.
package recording

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"keyjournal/internal/hook"
	"keyjournal/internal/keystroke"
)

// Version is the recording format version.
const Version = 1

//go:embed schema/recording-v1.schema.json
var schemaJSON []byte

const schemaURL = "https://keyjournal.local/schema/recording-v1.schema.json"

var (
	// ErrInvalidLine wraps every schema or decode failure.
	ErrInvalidLine = errors.New("recording: invalid line")
	// ErrMissingHeader is returned when the first line is not a header.
	ErrMissingHeader = errors.New("recording: missing header")
)

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	return compiler.Compile(schemaURL)
})

// Header opens a recording.
type Header struct {
	Type      string    `json:"type"`
	Version   int       `json:"version"`
	CapsLock  bool      `json:"caps_lock"`
	StartedAt time.Time `json:"started_at,omitzero"`
	Source    string    `json:"source,omitempty"`
}

// Event is one recorded hook event with the context the adapter captured
// alongside it.
type Event struct {
	Type    string    `json:"type"`
	Code    int       `json:"code,omitempty"`
	Message string    `json:"message"`
	VK      int       `json:"vk,omitempty"`
	X       int       `json:"x,omitempty"`
	Y       int       `json:"y,omitempty"`
	Time    time.Time `json:"time"`
	Title   string    `json:"title,omitempty"`
	Frame   string    `json:"frame,omitempty"`
}

// HookEvent converts e for delivery through a hook chain.
func (e Event) HookEvent() (hook.Event, error) {
	msg, err := hook.ParseMessage(e.Message)
	if err != nil {
		return hook.Event{}, err
	}
	return hook.Event{
		Code:    e.Code,
		Message: msg,
		VK:      keystroke.VK(e.VK),
		X:       e.X,
		Y:       e.Y,
		Time:    e.Time,
	}, nil
}

// Entry is one decoded line: exactly one of Header and Event is set.
type Entry struct {
	Header *Header
	Event  *Event
}

// DecodeLine validates and decodes one recording line.
func DecodeLine(line []byte) (Entry, error) {
	schema, err := compiledSchema()
	if err != nil {
		return Entry{}, fmt.Errorf("compile recording schema: %w", err)
	}

	var raw any
	if err := json.Unmarshal(line, &raw); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrInvalidLine, err)
	}
	if err := schema.Validate(raw); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrInvalidLine, err)
	}

	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrInvalidLine, err)
	}

	switch probe.Type {
	case "header":
		var h Header
		if err := json.Unmarshal(line, &h); err != nil {
			return Entry{}, fmt.Errorf("%w: %v", ErrInvalidLine, err)
		}
		return Entry{Header: &h}, nil
	default:
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			return Entry{}, fmt.Errorf("%w: %v", ErrInvalidLine, err)
		}
		return Entry{Event: &e}, nil
	}
}
