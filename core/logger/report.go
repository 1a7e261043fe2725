package logger

import (
	"encoding/json"
	"io"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// LogEntry is a single decoded event.
type LogEntry struct {
	*structpb.Struct
}

func (le *LogEntry) str(key string) string {
	return le.GetFields()[key].GetStringValue()
}

// Type gets the event's type.
func (le *LogEntry) Type() EventType {
	return EventType(le.str(FieldType))
}

// SessionID gets the ID of the session that produced the event.
func (le *LogEntry) SessionID() string {
	return le.str(FieldSessionID)
}

// Argv gets the "argv" field, if any.
func (le *LogEntry) Argv() []string {
	var out []string
	for _, v := range le.GetFields()["argv"].GetListValue().GetValues() {
		out = append(out, v.GetStringValue())
	}
	return out
}

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var rawEntry json.RawMessage
		if err := decoder.Decode(&rawEntry); err != nil {
			return err
		}

		var entry structpb.Struct
		if err := protojson.Unmarshal(rawEntry, &entry); err != nil {
			return err
		}

		handler(&LogEntry{&entry})
	}
	return nil
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries int        `json:"log_entries"`
	Sessions   int        `json:"sessions"`
	Events     StrCounter `json:"events"`

	// Names of commands that were launched.
	CommandNames StrCounter `json:"command_names"`
	// Names of commands that couldn't be resolved.
	UnknownCommands StrCounter `json:"unknown_commands"`

	seenSessions map[string]bool
}

func (r *Report) Update(le *LogEntry) {
	r.LogEntries++

	if id := le.SessionID(); id != "" {
		if r.seenSessions == nil {
			r.seenSessions = make(map[string]bool)
		}
		if !r.seenSessions[id] {
			r.seenSessions[id] = true
			r.Sessions++
		}
	}

	r.Events.Increment(string(le.Type()))

	switch le.Type() {
	case Command:
		if argv := le.Argv(); len(argv) > 0 {
			r.CommandNames.Increment(argv[0])
		}
	case CommandNotFound:
		if argv := le.Argv(); len(argv) > 0 {
			r.UnknownCommands.Increment(argv[0])
		}
	}
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Count gets the number of times key was seen.
func (s *StrCounter) Count(key string) int {
	return s.internal[key]
}

// MarshalJSON implemnts custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	if s.internal == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.internal)
}
