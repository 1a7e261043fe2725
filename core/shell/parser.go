// Package shell turns input lines into pipelines of argument vectors.
//
// The grammar is deliberately small: stages are separated by '|' and
// arguments by runs of whitespace. There is no quoting, escaping, expansion or
// redirection.
package shell

import "strings"

// StageDelimiter separates the stages of a pipeline.
const StageDelimiter = "|"

// Stage is the argument vector of one command, Stage[0] is the executable.
type Stage []string

// Name gets the executable name of the stage.
func (s Stage) Name() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// Pipeline is an ordered list of stages, output flows left to right.
type Pipeline []Stage

// IsEmpty reports whether the line had nothing to run.
func (p Pipeline) IsEmpty() bool {
	return len(p) == 0
}

// IsSimple reports whether the pipeline is a single command.
func (p Pipeline) IsSimple() bool {
	return len(p) == 1
}

// String renders the pipeline in canonical form.
func (p Pipeline) String() string {
	stages := make([]string, len(p))
	for i, s := range p {
		stages[i] = strings.Join(s, " ")
	}
	return strings.Join(stages, " "+StageDelimiter+" ")
}

// Separators are the bytes that split arguments. Other whitespace, like
// vertical tabs or non-breaking spaces, is part of an argument.
const Separators = " \t\n"

func isSeparator(r rune) bool {
	return strings.ContainsRune(Separators, r)
}

// Tokenize splits a stage on runs of separators. Tokens are taken literally.
func Tokenize(stage string) Stage {
	return Stage(strings.FieldsFunc(stage, isSeparator))
}

// Parse splits line into stages. Stages without any tokens are dropped, so a
// blank line yields an empty pipeline and every stage has an executable name.
func Parse(line string) Pipeline {
	var out Pipeline
	for _, part := range strings.Split(line, StageDelimiter) {
		stage := Tokenize(part)
		if len(stage) == 0 {
			continue
		}
		out = append(out, stage)
	}
	return out
}
