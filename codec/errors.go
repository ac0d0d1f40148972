package codec

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"serialcompat/fields"
)

// ErrInvalidInstance is returned when the instance is not a non-nil pointer to a struct.
var ErrInvalidInstance = errors.New("serialcompat: instance must be a non-nil pointer to a struct")

// MalformedPayloadError reports a restore payload that is not a mapping of
// names to values.
type MalformedPayloadError struct {
	Reason string
}

func (e *MalformedPayloadError) Error() string {
	return "serialcompat: malformed payload: " + e.Reason
}

func malformed(format string, args ...any) error {
	return &MalformedPayloadError{Reason: fmt.Sprintf(format, args...)}
}

// FieldAccessError reports a field that could not be read or written. It
// aborts the whole snapshot or restore.
type FieldAccessError struct {
	Op        string // "read" or "write"
	Field     string
	Declaring fields.TypeID
	Err       error
}

func (e *FieldAccessError) Error() string {
	return fmt.Sprintf("serialcompat: %s field %s of %s: %v", e.Op, e.Field, e.Declaring, e.Err)
}

func (e *FieldAccessError) Unwrap() error {
	return e.Err
}

// NewFieldAccessError builds the error for field d. Persistence layers that
// place values themselves use it to report failures the same way the codec does.
func NewFieldAccessError(op string, d fields.Descriptor, err error) *FieldAccessError {
	return &FieldAccessError{
		Op:        op,
		Field:     d.Name,
		Declaring: d.Declaring,
		Err:       err,
	}
}
