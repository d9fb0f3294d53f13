package importapp

import (
	"context"
	"sync"
	"time"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/bulk"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/order"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/tabular"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateWithItems(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter order.Filter) ([]*order.Order, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*order.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderRepository) Statistics(ctx context.Context) (*order.Statistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Statistics), args.Error(1)
}

// MockImportLogRepository is a mock implementation of bulk.ImportLogRepository
type MockImportLogRepository struct {
	mock.Mock
}

func (m *MockImportLogRepository) Create(ctx context.Context, l *bulk.ImportLog) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockImportLogRepository) Update(ctx context.Context, l *bulk.ImportLog) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockImportLogRepository) FindByBatchID(ctx context.Context, batchID string) (*bulk.ImportLog, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bulk.ImportLog), args.Error(1)
}

func (m *MockImportLogRepository) FindAll(ctx context.Context, page shared.PageRequest) ([]*bulk.ImportLog, int64, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]*bulk.ImportLog), args.Get(1).(int64), args.Error(2)
}

// MockTemplateRepository is a mock implementation of mapping.TemplateRepository
type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) Create(ctx context.Context, t *mapping.MappingTemplate) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTemplateRepository) FindAll(ctx context.Context, kind mapping.Kind) ([]*mapping.MappingTemplate, error) {
	args := m.Called(ctx, kind)
	return args.Get(0).([]*mapping.MappingTemplate), args.Error(1)
}

func (m *MockTemplateRepository) FindByID(ctx context.Context, id uuid.UUID) (*mapping.MappingTemplate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mapping.MappingTemplate), args.Error(1)
}

func (m *MockTemplateRepository) FindByName(ctx context.Context, name string) (*mapping.MappingTemplate, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mapping.MappingTemplate), args.Error(1)
}

func (m *MockTemplateRepository) FindDefaultByKind(ctx context.Context, kind mapping.Kind) (*mapping.MappingTemplate, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mapping.MappingTemplate), args.Error(1)
}

func (m *MockTemplateRepository) Update(ctx context.Context, t *mapping.MappingTemplate) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTemplateRepository) SetDefault(ctx context.Context, id uuid.UUID, kind mapping.Kind) (*mapping.MappingTemplate, error) {
	args := m.Called(ctx, id, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mapping.MappingTemplate), args.Error(1)
}

// MockTemplateCache is a mock implementation of mapping.TemplateCache
type MockTemplateCache struct {
	mock.Mock
}

func (m *MockTemplateCache) GetDefault(ctx context.Context, kind mapping.Kind) (*mapping.MappingTemplate, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mapping.MappingTemplate), args.Error(1)
}

func (m *MockTemplateCache) SetDefault(ctx context.Context, kind mapping.Kind, t *mapping.MappingTemplate) error {
	args := m.Called(ctx, kind, t)
	return args.Error(0)
}

func (m *MockTemplateCache) Invalidate(ctx context.Context, kinds ...mapping.Kind) error {
	args := m.Called(ctx, kinds)
	return args.Error(0)
}

// stubDecoder returns canned records for any path.
type stubDecoder struct {
	records []*mapping.RawRecord
	sample  *tabular.Sample
	err     error
	calls   int
	lastN   int
}

func (d *stubDecoder) Decode(_ context.Context, _ string, _ mapping.Kind) ([]*mapping.RawRecord, error) {
	d.calls++
	return d.records, d.err
}

func (d *stubDecoder) DecodeSample(_ context.Context, _ string, _ mapping.Kind, n int) (*tabular.Sample, error) {
	d.calls++
	d.lastN = n
	return d.sample, d.err
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

// stepRecorder logs archive and remove calls in the order they happen.
type stepRecorder struct {
	steps      []string
	archiveErr error
}

func (r *stepRecorder) Archive(_ context.Context, batchID, fileName, localPath string) error {
	r.steps = append(r.steps, "archive:"+batchID+":"+fileName+":"+localPath)
	return r.archiveErr
}

func (r *stepRecorder) Remove(path string) error {
	r.steps = append(r.steps, "remove:"+path)
	return nil
}

// stubLinker hands out a fixed link.
type stubLinker struct {
	url string
	err error
}

func (l stubLinker) DownloadURL(_ context.Context, batchID, fileName string) (string, time.Time, error) {
	if l.err != nil {
		return "", time.Time{}, l.err
	}
	return l.url + "/" + batchID + "/" + fileName, time.Now().Add(15 * time.Minute), nil
}

func rawRecord(kv ...any) *mapping.RawRecord {
	r := mapping.NewRawRecord(len(kv) / 2)
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i].(string), kv[i+1])
	}
	return r
}
