package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingResource is returned when the dataset source does not exist.
var ErrMissingResource = errors.New("dataset not found")

// SchemaError reports required columns absent from the source header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("dataset is missing required columns: %s", strings.Join(e.Missing, ", "))
}
