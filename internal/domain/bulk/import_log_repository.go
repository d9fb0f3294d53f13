package bulk

import (
	"context"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
)

// ImportLogRepository persists import logs. Logs are never deleted.
type ImportLogRepository interface {
	Create(ctx context.Context, log *ImportLog) error
	// Update writes counters, status, error details and completion time.
	Update(ctx context.Context, log *ImportLog) error
	FindByBatchID(ctx context.Context, batchID string) (*ImportLog, error)
	// FindAll returns a page of logs, newest first, and the total count.
	FindAll(ctx context.Context, page shared.PageRequest) ([]*ImportLog, int64, error)
}
