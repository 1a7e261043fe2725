package logger

import (
	"bytes"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
	"sigs.k8s.io/yaml"
)

func TestSessionLogger_Record(t *testing.T) {
	buf := &bytes.Buffer{}
	session := NewJsonLinesLogRecorder(buf).NewSession()
	session.now = func() time.Time {
		return time.Date(2006, 1, 2, 3, 4, 5, 0, time.UTC)
	}

	require.Nil(t, session.Record(Command, Fields{"argv": Strings([]string{"ls", "-l"})}))
	require.Nil(t, session.Record(JobStopped, Fields{"pid": 42, "command": "sleep"}))

	var entries []*LogEntry
	require.Nil(t, ReadJSONLinesLog(buf, func(le *LogEntry) {
		entries = append(entries, le)
	}))

	require.Len(t, entries, 2)
	assert.Equal(t, Command, entries[0].Type())
	assert.Equal(t, []string{"ls", "-l"}, entries[0].Argv())
	assert.Equal(t, session.SessionID(), entries[0].SessionID())
	assert.NotEmpty(t, session.SessionID())

	ts := entries[0].GetFields()[FieldTimestampMicros].GetNumberValue()
	assert.Equal(t, float64(time.Date(2006, 1, 2, 3, 4, 5, 0, time.UTC).UnixMicro()), ts)

	assert.Equal(t, JobStopped, entries[1].Type())
	assert.Equal(t, float64(42), entries[1].GetFields()["pid"].GetNumberValue())
}

func TestSessionLogger_unencodable(t *testing.T) {
	session := NewNopLogger().NewSession()
	err := session.Record(Command, Fields{"bad": struct{}{}})
	assert.NotNil(t, err)
}

func TestSessionLogger_recorderError(t *testing.T) {
	want := errors.New("disk full")
	l := &Logger{Record: func(*structpb.Struct) error { return want }}

	err := l.NewSession().Record(Interrupt, nil)
	assert.True(t, errors.Is(err, want))
}

func TestReport(t *testing.T) {
	buf := &bytes.Buffer{}
	recorder := NewJsonLinesLogRecorder(buf)
	first := recorder.NewSession()
	second := recorder.NewSession()

	first.Record(SessionStart, nil)
	first.Record(Command, Fields{"argv": Strings([]string{"ls"})})
	first.Record(Command, Fields{"argv": Strings([]string{"ls", "-a"})})
	second.Record(CommandNotFound, Fields{"argv": Strings([]string{"nope"})})

	var report Report
	require.Nil(t, ReadJSONLinesLog(buf, report.Update))

	assert.Equal(t, 4, report.LogEntries)
	assert.Equal(t, 2, report.Sessions)
	assert.Equal(t, 2, report.Events.Count(string(Command)))
	assert.Equal(t, 2, report.CommandNames.Count("ls"))
	assert.Equal(t, 1, report.UnknownCommands.Count("nope"))

	out, err := yaml.Marshal(report)
	require.Nil(t, err)
	assert.Contains(t, string(out), "log_entries: 4")
	assert.Contains(t, string(out), "nope: 1")
}

func TestReadJSONLinesLog_malformed(t *testing.T) {
	err := ReadJSONLinesLog(bytes.NewBufferString(`{"type": 1}{`), func(*LogEntry) {})
	assert.NotNil(t, err)
}

func TestQuietRecorder(t *testing.T) {
	diagnostics := &bytes.Buffer{}
	failing := &Logger{Record: func(*structpb.Struct) error { return errors.New("disk full") }}
	q := &QuietRecorder{Session: failing.NewSession(), Log: log.New(diagnostics, "", 0)}

	assert.Nil(t, q.Record(Command, nil))
	assert.Nil(t, q.Record(Command, nil))
	assert.Equal(t, "event log disabled after error: disk full\n", diagnostics.String())
}

func TestQuietRecorder_noSession(t *testing.T) {
	q := &QuietRecorder{}
	assert.Nil(t, q.Record(Command, nil))
}
