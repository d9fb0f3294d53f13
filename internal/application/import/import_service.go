// Package importapp runs bulk order imports and the preview, template and
// import log operations around them.
package importapp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/bulk"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/order"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/logger"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecordDecoder reads every record of a source file.
type RecordDecoder interface {
	Decode(ctx context.Context, path string, kind mapping.Kind) ([]*mapping.RawRecord, error)
}

// FileRemover deletes the temporary copy of an upload.
type FileRemover interface {
	Remove(path string) error
}

// Archiver keeps the raw source of a batch in long-term storage.
type Archiver interface {
	Archive(ctx context.Context, batchID, fileName, localPath string) error
}

type osRemover struct{}

func (osRemover) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// ImportRequest names the uploaded file to import.
type ImportRequest struct {
	Path     string
	FileName string
	Kind     mapping.Kind
}

// ImportResult summarizes a finished batch.
type ImportResult struct {
	BatchID      string             `json:"batch_id"`
	TotalRecords int                `json:"total_records"`
	SuccessCount int                `json:"success_count"`
	ErrorCount   int                `json:"error_count"`
	Status       bulk.ImportStatus  `json:"status"`
	Errors       []bulk.ErrorDetail `json:"errors"`
	// IsTruncated is set when Errors holds fewer entries than ErrorCount.
	IsTruncated bool `json:"is_truncated,omitempty"`
}

// ImportService is the batch import orchestrator. Records of one batch are
// processed in file order; each order is written in its own transaction.
type ImportService struct {
	decoder  RecordDecoder
	orders   order.Repository
	logs     bulk.ImportLogRepository
	events   shared.EventPublisher
	remover  FileRemover
	archiver Archiver
	metrics  *telemetry.ImportMetrics
	logger   *zap.Logger

	maxReportedErrors int
	closeRetryDelay   time.Duration
	newBatchID        func() string
	newOrderNumber    func() string
}

// ImportServiceOption configures an ImportService
type ImportServiceOption func(*ImportService)

// WithImportLogger sets the logger used for batch logs
func WithImportLogger(l *zap.Logger) ImportServiceOption {
	return func(s *ImportService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithArchiver uploads every source file before it is removed.
func WithArchiver(a Archiver) ImportServiceOption {
	return func(s *ImportService) {
		s.archiver = a
	}
}

// WithFileRemover replaces the default os.Remove based cleanup.
func WithFileRemover(r FileRemover) ImportServiceOption {
	return func(s *ImportService) {
		if r != nil {
			s.remover = r
		}
	}
}

// WithMetrics records batch counters and durations.
func WithMetrics(m *telemetry.ImportMetrics) ImportServiceOption {
	return func(s *ImportService) {
		s.metrics = m
	}
}

// WithMaxReportedErrors caps the per-record errors kept on a batch. The
// error count is never capped. 0 keeps every error.
func WithMaxReportedErrors(n int) ImportServiceOption {
	return func(s *ImportService) {
		if n >= 0 {
			s.maxReportedErrors = n
		}
	}
}

// WithCloseRetryDelay sets the pause before the terminal batch update is
// retried.
func WithCloseRetryDelay(d time.Duration) ImportServiceOption {
	return func(s *ImportService) {
		if d >= 0 {
			s.closeRetryDelay = d
		}
	}
}

// WithBatchIDGenerator overrides the uuid batch ids.
func WithBatchIDGenerator(fn func() string) ImportServiceOption {
	return func(s *ImportService) {
		if fn != nil {
			s.newBatchID = fn
		}
	}
}

// WithOrderNumberGenerator overrides the order numbers given to records
// that carry none in auto-normalize mode.
func WithOrderNumberGenerator(fn func() string) ImportServiceOption {
	return func(s *ImportService) {
		if fn != nil {
			s.newOrderNumber = fn
		}
	}
}

// NewImportService creates an ImportService. events may be nil.
func NewImportService(
	decoder RecordDecoder,
	orders order.Repository,
	logs bulk.ImportLogRepository,
	events shared.EventPublisher,
	opts ...ImportServiceOption,
) *ImportService {
	s := &ImportService{
		decoder:         decoder,
		orders:          orders,
		logs:            logs,
		events:          events,
		remover:         osRemover{},
		logger:          zap.NewNop(),
		closeRetryDelay: 250 * time.Millisecond,
		newBatchID:      uuid.NewString,
		newOrderNumber:  order.NewOrderNumber,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImportFile imports a file in auto-normalize mode: well-known header
// spellings are read directly and no mapping is involved.
func (s *ImportService) ImportFile(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	return s.run(ctx, req, bulk.ImportModeAuto, mapping.NewAutoNormalizeStrategy(s.newOrderNumber))
}

// ImportFileWithMapping imports a file through an explicit header mapping.
// An invalid mapping is rejected before a batch is created.
func (s *ImportService) ImportFileWithMapping(ctx context.Context, req ImportRequest, m mapping.FieldMapping) (*ImportResult, error) {
	strategy, err := mapping.NewTemplateStrategy(m)
	if err != nil {
		s.remove(ctx, req.Path)
		return nil, err
	}
	return s.run(ctx, req, bulk.ImportModeMapping, strategy)
}

// Discard removes an upload that will not be imported.
func (s *ImportService) Discard(ctx context.Context, path string) {
	s.remove(ctx, path)
}

func (s *ImportService) run(ctx context.Context, req ImportRequest, mode bulk.ImportMode, transform mapping.RecordTransform) (*ImportResult, error) {
	if !req.Kind.IsValid() {
		s.remove(ctx, req.Path)
		return nil, shared.NewDomainError(shared.CodeUnsupportedKind, fmt.Sprintf("unsupported file kind: %q", req.Kind))
	}
	if req.FileName == "" {
		req.FileName = filepath.Base(req.Path)
	}

	// A batch runs to completion once started.
	ctx = context.WithoutCancel(ctx)
	batchID := s.newBatchID()
	ctx, _ = logger.WithBatchID(ctx, s.logger, batchID)
	ctx, span := telemetry.StartServiceSpan(ctx, "import", "batch",
		telemetry.WithAttribute(telemetry.SpanAttrBatchID, batchID),
		telemetry.WithAttribute(telemetry.SpanAttrFileName, req.FileName),
		telemetry.WithAttribute(telemetry.SpanAttrFileKind, string(req.Kind)),
		telemetry.WithAttribute(telemetry.SpanAttrImportMode, string(mode)),
	)
	defer span.End()

	started := time.Now()
	defer s.cleanup(ctx, batchID, req)

	log := logger.L(ctx).With(
		zap.String("file_name", req.FileName),
		zap.String("kind", string(req.Kind)),
		zap.String("mode", string(mode)),
		zap.String("strategy", transform.Name()),
	)
	log.Info("Import batch started")

	records, err := s.decoder.Decode(ctx, req.Path, req.Kind)
	if err == nil && len(records) == 0 {
		err = errNoRecords
	}
	if err != nil {
		failure := s.failBatch(ctx, batchID, req, mode, err, started)
		telemetry.RecordError(span, failure)
		log.Warn("Import batch failed", zap.String("reason", failure.Err.Error()))
		return nil, failure
	}

	importLog, err := bulk.NewImportLog(batchID, req.FileName, req.Kind, mode, len(records))
	if err != nil {
		return nil, err
	}
	if err := s.logs.Create(ctx, importLog); err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.NewPersistenceError(err)
	}

	errs := newErrorCollector(s.maxReportedErrors)
	success := 0
	for i, raw := range records {
		row := i + 1
		if err := s.importRecord(ctx, transform, raw, batchID); err != nil {
			errs.add(bulk.ErrorDetail{Row: row, Message: err.Error(), Raw: raw})
			log.Debug("Record rejected", zap.Int("row", row), zap.Error(err))
			continue
		}
		success++
	}

	if err := importLog.Finish(success, errs.total, errs.details); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.closeBatch(ctx, importLog, log); err != nil {
		telemetry.RecordError(span, err)
		log.Error("Failed to close import batch",
			zap.String("status", string(importLog.Status)),
			zap.Int("success_count", success),
			zap.Int("error_count", errs.total),
			zap.Error(err),
		)
		return nil, shared.NewPersistenceError(err)
	}
	s.publish(ctx, importLog)
	s.metrics.RecordBatch(ctx, string(req.Kind), string(mode), string(importLog.Status), success, errs.total, time.Since(started))

	telemetry.SetAttributes(span,
		telemetry.SpanAttrRecordCount, len(records),
		telemetry.SpanAttrSuccessCount, success,
		telemetry.SpanAttrErrorCount, errs.total,
	)
	telemetry.SetOK(span)
	log.Info("Import batch finished",
		zap.String("status", string(importLog.Status)),
		zap.Int("total_records", len(records)),
		zap.Int("success_count", success),
		zap.Int("error_count", errs.total),
		zap.Duration("elapsed", time.Since(started)),
	)

	details := errs.details
	if details == nil {
		details = []bulk.ErrorDetail{}
	}
	return &ImportResult{
		BatchID:      batchID,
		TotalRecords: len(records),
		SuccessCount: success,
		ErrorCount:   errs.total,
		Status:       importLog.Status,
		Errors:       details,
		IsTruncated:  len(details) < errs.total,
	}, nil
}

// closeBatch writes the terminal state of a batch. A failed write is retried
// once; the orders of the batch are already stored at this point.
func (s *ImportService) closeBatch(ctx context.Context, l *bulk.ImportLog, log *zap.Logger) error {
	err := s.logs.Update(ctx, l)
	if err == nil {
		return nil
	}
	log.Warn("Retrying import batch close", zap.Error(err))
	if s.closeRetryDelay > 0 {
		time.Sleep(s.closeRetryDelay)
	}
	return s.logs.Update(ctx, l)
}

// importRecord runs one record through transform, validation and storage.
// The returned error message is what the batch reports for the row.
func (s *ImportService) importRecord(ctx context.Context, transform mapping.RecordTransform, raw *mapping.RawRecord, batchID string) error {
	rec, err := safeTransform(transform, raw)
	if err != nil {
		return err
	}
	if err := mapping.ValidateRequired(rec); err != nil {
		return err
	}
	o, err := order.New(draftFromRecord(rec, batchID))
	if err != nil {
		return err
	}
	if err := s.orders.CreateWithItems(ctx, o); err != nil {
		logger.L(ctx).Debug("Order write failed", zap.String("order_number", o.OrderNumber), zap.Error(err))
		return recordFailure(o.OrderNumber, err)
	}
	s.publish(ctx, o)
	return nil
}

func safeTransform(transform mapping.RecordTransform, raw *mapping.RawRecord) (rec mapping.CanonicalRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transform failed: %v", r)
		}
	}()
	return transform.Transform(raw)
}

// failBatch records a batch that failed before any record was processed.
func (s *ImportService) failBatch(ctx context.Context, batchID string, req ImportRequest, mode bulk.ImportMode, cause error, started time.Time) *BatchFailedError {
	failure := fileFailure(cause)

	l, err := bulk.NewFailedImportLog(batchID, req.FileName, req.Kind, mode, failure.Message)
	if err == nil {
		err = s.logs.Create(ctx, l)
	}
	if err != nil {
		logger.L(ctx).Error("Failed to record failed import batch", zap.Error(err))
	} else {
		s.publish(ctx, l)
	}

	s.metrics.RecordBatch(ctx, string(req.Kind), string(mode), string(bulk.ImportStatusFailed), 0, 0, time.Since(started))
	return &BatchFailedError{BatchID: batchID, Err: failure}
}

func (s *ImportService) publish(ctx context.Context, agg shared.AggregateRoot) {
	events := agg.GetDomainEvents()
	agg.ClearDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("Failed to publish domain events", zap.Int("count", len(events)), zap.Error(err))
	}
}

// cleanup archives then removes the upload. It runs exactly once per batch.
func (s *ImportService) cleanup(ctx context.Context, batchID string, req ImportRequest) {
	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, batchID, req.FileName, req.Path); err != nil {
			logger.L(ctx).Warn("Failed to archive import source", zap.Error(err))
		}
	}
	s.remove(ctx, req.Path)
}

func (s *ImportService) remove(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := s.remover.Remove(path); err != nil {
		logger.WithLogger(ctx, s.logger).Warn("Failed to remove uploaded file", zap.String("path", path), zap.Error(err))
	}
}

// errorCollector keeps at most limit details while counting every error.
type errorCollector struct {
	limit   int
	total   int
	details []bulk.ErrorDetail
}

func newErrorCollector(limit int) *errorCollector {
	return &errorCollector{limit: limit}
}

func (c *errorCollector) add(d bulk.ErrorDetail) {
	c.total++
	if c.limit == 0 || len(c.details) < c.limit {
		c.details = append(c.details, d)
	}
}
