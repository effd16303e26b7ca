package apps

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ArgumentError reports invalid command line input.
// Fields holds one "field: reason" entry per invalid flag, when the input was validated field by field.
type ArgumentError struct {
	Fields []string
	msg    string
}

func NewArgumentError(msg string) *ArgumentError {
	return &ArgumentError{msg: msg}
}

// NewFieldsError lists the invalid fields in sorted order.
func NewFieldsError(fields ...string) *ArgumentError {
	sorted := append([]string(nil), fields...)
	sort.Strings(sorted)
	return &ArgumentError{Fields: sorted, msg: strings.Join(sorted, "; ")}
}

func (err *ArgumentError) Error() string {
	return err.msg
}

// IsArgumentError reports whether err was caused by an ArgumentError.
func IsArgumentError(err error) bool {
	_, ok := errors.Cause(err).(*ArgumentError)
	return ok
}
