package config

import (
	"errors"
	"fmt"
)

// Kind classifies the failures the pipeline reports to its caller.
type Kind int

const (
	KindSchema Kind = iota + 1
	KindMissingDefaultsFile
	KindNoRevisionControl
	KindUnknownFormat
	KindMalformedEnv
	KindOutputIO
	KindProject
)

// Code is the stable prefix printed in front of the message.
func (k Kind) Code() string {
	switch k {
	case KindSchema:
		return "CFG_SCHEMA"
	case KindMissingDefaultsFile:
		return "CFG_DEFAULTS_MISSING"
	case KindNoRevisionControl:
		return "VCS_NO_REVISION"
	case KindUnknownFormat:
		return "OUT_FORMAT_UNKNOWN"
	case KindMalformedEnv:
		return "ENV_MALFORMED"
	case KindOutputIO:
		return "OUT_IO"
	case KindProject:
		return "CFG_PROJECT"
	default:
		return "UNKNOWN"
	}
}

// Error is a classified failure. Path names the file involved, if any.
type Error struct {
	Kind Kind
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Path != "" && msg != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind.Code(), e.Path, msg)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Path)
	default:
		return fmt.Sprintf("%s: %s", e.Kind.Code(), msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err wraps an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
