package tracks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/sung/internal/shared"
)

// NotFoundError lists every requested key that is absent from a collection.
//
// It matches [shared.ErrTrackNotFound] with [errors.Is].
type NotFoundError struct {
	Keys []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%v: %s", shared.ErrTrackNotFound, strings.Join(e.Keys, ", "))
}

func (e *NotFoundError) Unwrap() error {
	return shared.ErrTrackNotFound
}
