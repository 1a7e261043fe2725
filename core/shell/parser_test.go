package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	cases := map[string]struct {
		in   string
		want Stage
	}{
		"whitespace runs":  {"echo  a   b\tc", Stage{"echo", "a", "b", "c"}},
		"leading trailing": {"  ls -l  ", Stage{"ls", "-l"}},
		"newline":          {"a\nb", Stage{"a", "b"}},
		"form feed kept":   {"a\vb\fc d", Stage{"a\vb\fc", "d"}},
		"nbsp kept":        {"a\u00a0b c", Stage{"a\u00a0b", "c"}},
		"no quoting":       {`echo "a b"`, Stage{"echo", `"a`, `b"`}},
		"no expansion":     {"echo $HOME *", Stage{"echo", "$HOME", "*"}},
		"empty":            {"", nil},
		"blank":            {" \t ", nil},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			got := Tokenize(tc.in)
			if tc.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParse(t *testing.T) {
	cases := map[string]struct {
		in   string
		want Pipeline
	}{
		"three stages": {"a | b | c", Pipeline{{"a"}, {"b"}, {"c"}}},
		"simple":       {"a", Pipeline{{"a"}}},
		"no spaces":    {"cat|wc -l", Pipeline{{"cat"}, {"wc", "-l"}}},
		"args kept":    {"ls -la /tmp | grep x", Pipeline{{"ls", "-la", "/tmp"}, {"grep", "x"}}},
		"empty stages": {"a || b |", Pipeline{{"a"}, {"b"}}},
		"blank line":   {"   ", nil},
		"empty line":   {"", nil},
		"only pipes":   {"| |", nil},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			got := Parse(tc.in)
			assert.Equal(t, len(tc.want), len(got))
			for i := range tc.want {
				assert.Equal(t, tc.want[i], got[i])
			}
		})
	}
}

func TestPipeline_Predicates(t *testing.T) {
	assert.True(t, Parse("").IsEmpty())
	assert.True(t, Parse("ls -l").IsSimple())
	assert.False(t, Parse("ls | wc").IsSimple())
	assert.Equal(t, "ls -l | wc", Parse("ls   -l|wc").String())
	assert.Equal(t, "", Stage(nil).Name())
	assert.Equal(t, "ls", Stage{"ls", "-l"}.Name())
}
