package logger

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// EventType names a kind of shell event.
type EventType string

const (
	SessionStart    EventType = "session_start"
	SessionEnd      EventType = "session_end"
	Command         EventType = "command"
	CommandNotFound EventType = "command_not_found"
	LaunchError     EventType = "launch_error"
	JobStopped      EventType = "job_stopped"
	JobExited       EventType = "job_exited"
	JobResumed      EventType = "job_resumed"
	JobContinued    EventType = "job_continued"
	Interrupt       EventType = "interrupt"
)

const (
	FieldTimestampMicros = "timestamp_micros"
	FieldSessionID       = "session_id"
	FieldType            = "type"
)

// Fields holds event specific values. Values must be representable by
// structpb: nil, bool, ints, floats, strings, []interface{} and
// map[string]interface{}.
type Fields map[string]interface{}

// LogRecorder is a callback that stores events in an external datastore.
type LogRecorder func(le *structpb.Struct) error

// Logger captures shell events.
type Logger struct {
	Record LogRecorder
}

// NewJsonLinesLogRecorder creates a Logger that exports logs in newline
// delimited JSON object format.
func NewJsonLinesLogRecorder(w io.Writer) *Logger {
	var mu sync.Mutex
	return &Logger{
		Record: func(le *structpb.Struct) error {
			entry, err := protojson.Marshal(le)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
	}
}

// NewNopLogger creates a Logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{
		Record: func(*structpb.Struct) error {
			return nil
		},
	}
}

func (l *Logger) recordEvent(sessionID string, now time.Time, eventType EventType, fields Fields) error {
	values := make(map[string]interface{}, len(fields)+3)
	for k, v := range fields {
		values[k] = v
	}
	values[FieldTimestampMicros] = now.UnixMicro()
	values[FieldSessionID] = sessionID
	values[FieldType] = string(eventType)

	le, err := structpb.NewStruct(values)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", eventType, err)
	}

	return l.Record(le)
}

// NewSession creates a logger with attached session ID.
func (l *Logger) NewSession() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: uuid.NewString(), now: time.Now}
}

// SessionLogger logs messages with a shared session ID.
type SessionLogger struct {
	*Logger
	sessionID string
	now       func() time.Time
}

// SessionID gets the ID attached to every event of the session.
func (l *SessionLogger) SessionID() string {
	return l.sessionID
}

func (l *SessionLogger) Record(eventType EventType, fields Fields) error {
	return l.recordEvent(l.sessionID, l.now(), eventType, fields)
}

// Strings converts a string slice into a structpb compatible list.
func Strings(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// QuietRecorder records session events, failures are written to Log the first
// time they happen and dropped afterwards.
type QuietRecorder struct {
	Session *SessionLogger
	Log     *log.Logger

	once sync.Once
}

func (q *QuietRecorder) Record(eventType EventType, fields Fields) error {
	if q.Session == nil {
		return nil
	}
	if err := q.Session.Record(eventType, fields); err != nil {
		q.once.Do(func() {
			if q.Log != nil {
				q.Log.Printf("event log disabled after error: %v", err)
			}
		})
	}
	return nil
}
