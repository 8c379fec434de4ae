package errs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrTimeout     = errors.New("script execution timed out")
	ErrUnavailable = errors.New("worker pool is not accepting evaluations")
)

// Kind classifies where a failure originated.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindBindAddress   Kind = "bind_address"
	KindTransport     Kind = "transport"
	KindPayload       Kind = "payload"
	KindInjection     Kind = "injection"
	KindCompile       Kind = "compile"
	KindRuntime       Kind = "runtime"
	KindSerialization Kind = "serialization"
)

// Error is a tagged error. The message is the cause's message so that
// wrapping stays transparent to whoever prints it.
type Error struct {
	Kind Kind
	Err  error
}

func New(kind Kind, err error) *Error {
	return &Error{
		Kind: kind,
		Err:  err,
	}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Errorf(format, args...))
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether any error in err's chain is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// KindOf returns the kind of the outermost *Error in err's chain, or an
// empty Kind if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Fatal reports whether an error of this kind must stop the process.
func (k Kind) Fatal() bool {
	return k == KindConfiguration || k == KindBindAddress
}

// ValidateError reports struct validation failures per field.
type ValidateError struct {
	err     error
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields"`
}

func NewValidateError(err error) *ValidateError {
	return &ValidateError{
		err:     err,
		Message: err.Error(),
		Fields:  make(map[string]interface{}),
	}
}

func (e *ValidateError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, formatFields("", e.Fields))
}

func (e *ValidateError) Unwrap() error {
	return e.err
}

func formatFields(prefix string, fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := fields[k].(type) {
		case map[string]interface{}:
			parts = append(parts, formatFields(prefix+k+".", v))
		default:
			parts = append(parts, fmt.Sprintf("%s%s: %v", prefix, k, v))
		}
	}
	return strings.Join(parts, ", ")
}
