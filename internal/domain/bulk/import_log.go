package bulk

import (
	"fmt"
	"time"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
)

// ImportStatus represents the lifecycle status of an import batch
type ImportStatus string

const (
	ImportStatusProcessing          ImportStatus = "processing"
	ImportStatusCompleted           ImportStatus = "completed"
	ImportStatusCompletedWithErrors ImportStatus = "completed_with_errors"
	ImportStatusFailed              ImportStatus = "failed"
)

// IsValid checks if the status is valid
func (s ImportStatus) IsValid() bool {
	switch s {
	case ImportStatusProcessing, ImportStatusCompleted, ImportStatusCompletedWithErrors, ImportStatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s ImportStatus) IsTerminal() bool {
	return s == ImportStatusCompleted || s == ImportStatusCompletedWithErrors || s == ImportStatusFailed
}

// ImportMode tells which record transform a batch used.
type ImportMode string

const (
	ImportModeAuto    ImportMode = "auto"
	ImportModeMapping ImportMode = "mapping"
)

// ErrorDetail describes why one record failed. Row is 1-based; a file-level
// failure is reported with Row 0 and no Raw record.
type ErrorDetail struct {
	Row     int                `json:"row"`
	Message string             `json:"message"`
	Raw     *mapping.RawRecord `json:"raw,omitempty"`
}

// ImportLog is the durable record of one import batch.
type ImportLog struct {
	shared.BaseAggregateRoot
	BatchID      string
	FileName     string
	Kind         mapping.Kind
	Mode         ImportMode
	TotalRecords int
	SuccessCount int
	ErrorCount   int
	Status       ImportStatus
	ErrorDetails []ErrorDetail
	CompletedAt  *time.Time
}

// NewImportLog starts a batch in the processing state.
func NewImportLog(batchID, fileName string, kind mapping.Kind, mode ImportMode, totalRecords int) (*ImportLog, error) {
	if batchID == "" {
		return nil, shared.NewValidationError("batch id cannot be empty")
	}
	if fileName == "" {
		return nil, shared.NewValidationError("file name cannot be empty")
	}
	if totalRecords < 0 {
		return nil, shared.NewValidationError("total records cannot be negative")
	}
	return &ImportLog{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BatchID:           batchID,
		FileName:          fileName,
		Kind:              kind,
		Mode:              mode,
		TotalRecords:      totalRecords,
		Status:            ImportStatusProcessing,
	}, nil
}

// NewFailedImportLog records a batch that failed before any record was
// processed. It starts and ends in the failed state.
func NewFailedImportLog(batchID, fileName string, kind mapping.Kind, mode ImportMode, reason string) (*ImportLog, error) {
	l, err := NewImportLog(batchID, fileName, kind, mode, 0)
	if err != nil {
		return nil, err
	}
	l.terminate(ImportStatusFailed, []ErrorDetail{{Row: 0, Message: reason}})
	return l, nil
}

// Finish closes a processing batch with its final counters. The status is
// completed without errors and completed_with_errors otherwise, even when no
// record succeeded; failed is reserved for file-level errors. details may be
// a truncated view of the errorCount failures.
func (l *ImportLog) Finish(successCount, errorCount int, details []ErrorDetail) error {
	if l.Status != ImportStatusProcessing {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("cannot finish batch from state: %s", l.Status))
	}
	if successCount < 0 || errorCount < 0 {
		return shared.NewValidationError("counters cannot be negative")
	}
	if successCount+errorCount != l.TotalRecords {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("batch accounted for %d of %d records", successCount+errorCount, l.TotalRecords))
	}

	status := ImportStatusCompleted
	if errorCount > 0 {
		status = ImportStatusCompletedWithErrors
	}
	l.SuccessCount = successCount
	l.ErrorCount = errorCount
	l.terminate(status, details)
	return nil
}

// Fail closes a processing batch after a file-level error.
func (l *ImportLog) Fail(reason string) error {
	if l.Status.IsTerminal() {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("cannot fail from terminal state: %s", l.Status))
	}
	l.terminate(ImportStatusFailed, append(l.ErrorDetails, ErrorDetail{Row: 0, Message: reason}))
	return nil
}

func (l *ImportLog) terminate(status ImportStatus, details []ErrorDetail) {
	now := time.Now()
	l.Status = status
	if len(details) > 0 {
		l.ErrorDetails = details
	} else {
		l.ErrorDetails = nil
	}
	l.CompletedAt = &now
	l.UpdatedAt = now
	l.AddDomainEvent(NewImportBatchFinishedEvent(l))
}
