package media

import (
	"errors"
	"fmt"
)

// Pre-flight failures. All of them are non-retryable and are reported to the
// user verbatim.
var (
	ErrFileNotFound      = errors.New("audio file not found")
	ErrNotRegularFile    = errors.New("path is not a file")
	ErrLargeFile         = errors.New("audio file too large")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrUnsupportedCodec  = errors.New("unsupported audio codec")
	ErrCorruptAudio      = errors.New("corrupt audio")
)

// AudioError pairs one of the sentinel kinds with a user-facing detail.
type AudioError struct {
	Kind   error
	Detail string
	Err    error
}

func (e *AudioError) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return e.Detail
}

// Unwrap exposes both the kind and the underlying cause to errors.Is / errors.As.
func (e *AudioError) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newAudioError(kind error, cause error, format string, args ...any) *AudioError {
	return &AudioError{Kind: kind, Detail: fmt.Sprintf(format, args...), Err: cause}
}

// IsValidationError reports whether err is one of the pre-flight kinds.
func IsValidationError(err error) bool {
	for _, kind := range []error{ErrFileNotFound, ErrNotRegularFile, ErrLargeFile, ErrUnsupportedFormat, ErrUnsupportedCodec, ErrCorruptAudio} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
