package tabular

import (
	"errors"
	"fmt"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
)

var (
	// ErrFileNotFound is returned when the source path does not exist
	ErrFileNotFound = errors.New("file not found")

	// ErrUnsupportedKind is returned for a kind no decoder handles
	ErrUnsupportedKind = errors.New("unsupported file kind")

	// ErrEmptyFile is returned when the file has no content at all
	ErrEmptyFile = errors.New("file is empty")

	// ErrInvalidEncoding is returned when delimited text is not UTF-8
	ErrInvalidEncoding = errors.New("invalid file encoding, expected UTF-8")

	// ErrMissingHeader is returned when there is no header row
	ErrMissingHeader = errors.New("missing header row")
)

// DecodeError reports content that is malformed for the declared kind.
type DecodeError struct {
	Kind mapping.Kind
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid %s file: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeError(kind mapping.Kind, err error) error {
	return &DecodeError{Kind: kind, Err: err}
}

// IsDecodeError reports whether err is or wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
