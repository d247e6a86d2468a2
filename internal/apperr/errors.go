// Package apperr defines the error taxonomy shared by the build pipeline.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrMalformedFrontMatter = errors.New("malformed front matter")
	ErrInvalidFilename      = errors.New("invalid post filename")
	ErrLayoutCycle          = errors.New("layout chain cycle")
	ErrUnknownMarkup        = errors.New("unknown markup processor")
	ErrIncludeDepth         = errors.New("include nesting too deep")
	ErrInvalidLabel         = errors.New("invalid tag or category")
)

// Phase names the pipeline step that failed.
type Phase string

const (
	PhaseRead        Phase = "read"
	PhaseFrontMatter Phase = "front-matter"
	PhaseMarkup      Phase = "markup"
	PhaseTemplate    Phase = "template"
	PhaseLayout      Phase = "layout"
	PhaseWrite       Phase = "write"
)

// BuildError reports which source file failed and in which phase.
type BuildError struct {
	Phase Phase
	Path  string
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Phase, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Wrap attaches a phase and source path to err. A nil err stays nil, and an
// error that already carries a BuildError is returned unchanged so the
// innermost phase wins.
func Wrap(phase Phase, path string, err error) error {
	if err == nil {
		return nil
	}
	var be *BuildError
	if errors.As(err, &be) {
		return err
	}
	return &BuildError{Phase: phase, Path: path, Err: err}
}

// PhaseOf returns the phase recorded in err, or "" when err carries none.
func PhaseOf(err error) Phase {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Phase
	}
	return ""
}
