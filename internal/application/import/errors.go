package importapp

import (
	"errors"
	"fmt"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/tabular"
)

// BatchFailedError is returned when a batch fails at file level. The batch
// has already been recorded in the failed state under BatchID.
type BatchFailedError struct {
	BatchID string
	Err     error
}

func (e *BatchFailedError) Error() string {
	return fmt.Sprintf("import batch %s failed: %v", e.BatchID, e.Err)
}

func (e *BatchFailedError) Unwrap() error {
	return e.Err
}

var errNoRecords = shared.NewDomainError(shared.CodeDecodeError, "file contains no records")

// fileFailure maps a decoder error onto the import error taxonomy.
func fileFailure(err error) *shared.DomainError {
	var de *shared.DomainError
	switch {
	case errors.As(err, &de):
		return de
	case errors.Is(err, tabular.ErrFileNotFound):
		return shared.NewDomainError(shared.CodeNotFound, "file not found")
	case errors.Is(err, tabular.ErrUnsupportedKind):
		return shared.NewDomainError(shared.CodeUnsupportedKind, err.Error())
	default:
		return shared.NewDomainError(shared.CodeDecodeError, err.Error())
	}
}

// recordFailure turns a persistence error into the message stored on the
// batch. Storage internals never reach the caller.
func recordFailure(orderNumber string, err error) error {
	if errors.Is(err, shared.ErrAlreadyExists) {
		return shared.NewDomainError(shared.CodeAlreadyExists,
			fmt.Sprintf("order_number %q already exists", orderNumber))
	}
	return shared.NewDomainError(shared.CodePersistence, "failed to save order")
}
