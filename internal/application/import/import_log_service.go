package importapp

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"time"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/bulk"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
)

// SourceLinker hands out download links to archived source files.
type SourceLinker interface {
	DownloadURL(ctx context.Context, batchID, fileName string) (string, time.Time, error)
}

// SourceLink is a time-limited link to the archived source of a batch.
type SourceLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ImportLogService answers queries about past batches.
type ImportLogService struct {
	repo    bulk.ImportLogRepository
	sources SourceLinker
}

// NewImportLogService creates an ImportLogService. sources is nil when
// source archiving is disabled.
func NewImportLogService(repo bulk.ImportLogRepository, sources SourceLinker) *ImportLogService {
	return &ImportLogService{repo: repo, sources: sources}
}

// List returns a page of batches, newest first.
func (s *ImportLogService) List(ctx context.Context, page shared.PageRequest) (shared.Paginated[*bulk.ImportLog], error) {
	page = page.Normalize()
	logs, total, err := s.repo.FindAll(ctx, page)
	if err != nil {
		return shared.Paginated[*bulk.ImportLog]{}, err
	}
	return shared.NewPaginated(logs, total, page), nil
}

// Get returns one batch by its batch id
func (s *ImportLogService) Get(ctx context.Context, batchID string) (*bulk.ImportLog, error) {
	return s.repo.FindByBatchID(ctx, batchID)
}

// ErrorsCSV exports the recorded errors of a batch as row,message,raw where
// raw is the offending record as JSON.
func (s *ImportLogService) ErrorsCSV(ctx context.Context, batchID string) ([]byte, error) {
	l, err := s.repo.FindByBatchID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"row", "message", "raw"}); err != nil {
		return nil, err
	}
	for _, d := range l.ErrorDetails {
		raw := ""
		if d.Raw != nil {
			b, err := json.Marshal(d.Raw)
			if err != nil {
				return nil, err
			}
			raw = string(b)
		}
		if err := w.Write([]string{strconv.Itoa(d.Row), d.Message, raw}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SourceURL returns a download link to the archived source of a batch.
func (s *ImportLogService) SourceURL(ctx context.Context, batchID string) (*SourceLink, error) {
	if s.sources == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "source archiving is disabled")
	}
	l, err := s.repo.FindByBatchID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	url, expires, err := s.sources.DownloadURL(ctx, l.BatchID, l.FileName)
	if err != nil {
		return nil, err
	}
	return &SourceLink{URL: url, ExpiresAt: expires}, nil
}
