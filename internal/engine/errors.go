package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/matchdag/internal/compiler"
)

// InvalidConstructError reports a construct rejected by validation before
// any graph was built.
type InvalidConstructError struct {
	Construct string
	Errors    []compiler.ValidationError
}

// Error implements the error interface.
func (e *InvalidConstructError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("construct %s is invalid: %s", e.Construct, strings.Join(msgs, "; "))
}

// IsInvalidConstruct reports whether err is, or wraps, an
// *InvalidConstructError.
func IsInvalidConstruct(err error) bool {
	var ie *InvalidConstructError
	return errors.As(err, &ie)
}
