package bulk

import "github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"

const (
	AggregateType = "ImportLog"

	EventTypeImportBatchFinished = "import.batch.finished"
)

// ImportBatchFinishedEvent is raised once a batch reaches a terminal state.
type ImportBatchFinishedEvent struct {
	shared.BaseDomainEvent
	BatchID      string       `json:"batch_id"`
	FileName     string       `json:"file_name"`
	Status       ImportStatus `json:"status"`
	TotalRecords int          `json:"total_records"`
	SuccessCount int          `json:"success_count"`
	ErrorCount   int          `json:"error_count"`
}

// NewImportBatchFinishedEvent snapshots the log's outcome.
func NewImportBatchFinishedEvent(l *ImportLog) *ImportBatchFinishedEvent {
	return &ImportBatchFinishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeImportBatchFinished, AggregateType, l.ID, l.BatchID),
		BatchID:         l.BatchID,
		FileName:        l.FileName,
		Status:          l.Status,
		TotalRecords:    l.TotalRecords,
		SuccessCount:    l.SuccessCount,
		ErrorCount:      l.ErrorCount,
	}
}
