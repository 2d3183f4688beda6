package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification; every typed error below matches
// its sentinel through errors.Is.
var (
	ErrDataFormat     = errors.New("data format error")
	ErrFitConvergence = errors.New("fit did not converge")
	ErrRender         = errors.New("render error")
)

// Error kinds used as metric labels.
const (
	KindDataFormat     = "data_format"
	KindFitConvergence = "fit_convergence"
	KindRender         = "render"
	KindUnknown        = "unknown"
)

// DataFormatError reports malformed input: a required column missing, or a
// cell that should be numeric but is not.
type DataFormatError struct {
	Path   string
	Line   int // 0 when the problem is not tied to a row
	Column string
	Err    error
}

func (e *DataFormatError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := "data format"
	if e.Path != "" {
		msg += fmt.Sprintf(" (path=%s", e.Path)
		if e.Line > 0 {
			msg += fmt.Sprintf(" line=%d", e.Line)
		}
		msg += ")"
	} else if e.Line > 0 {
		msg += fmt.Sprintf(" (line=%d)", e.Line)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(" column %q", e.Column)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataFormatError) Unwrap() error { return e.Err }

func (e *DataFormatError) Is(target error) bool { return target == ErrDataFormat }

// FitConvergenceError reports that the autocorrelated regression did not
// produce a usable estimate.
type FitConvergenceError struct {
	Op  string
	N   int
	Err error
}

func (e *FitConvergenceError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: fit did not converge (n=%d)", e.Op, e.N)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FitConvergenceError) Unwrap() error { return e.Err }

func (e *FitConvergenceError) Is(target error) bool { return target == ErrFitConvergence }

// RenderError reports a failure to draw or write an output image.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := "render"
	if e.Path != "" {
		msg += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RenderError) Unwrap() error { return e.Err }

func (e *RenderError) Is(target error) bool { return target == ErrRender }

// ErrorKind classifies err for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrDataFormat):
		return KindDataFormat
	case errors.Is(err, ErrFitConvergence):
		return KindFitConvergence
	case errors.Is(err, ErrRender):
		return KindRender
	default:
		return KindUnknown
	}
}
