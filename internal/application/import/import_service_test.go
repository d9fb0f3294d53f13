package importapp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/bulk"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/order"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/tabular"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type importFixture struct {
	decoder   *stubDecoder
	orders    *MockOrderRepository
	logs      *MockImportLogRepository
	publisher *recordingPublisher
	steps     *stepRecorder
	service   *ImportService
}

func newImportFixture(t *testing.T, records []*mapping.RawRecord, opts ...ImportServiceOption) *importFixture {
	t.Helper()
	f := &importFixture{
		decoder:   &stubDecoder{records: records},
		orders:    new(MockOrderRepository),
		logs:      new(MockImportLogRepository),
		publisher: &recordingPublisher{},
		steps:     &stepRecorder{},
	}
	seq := 0
	base := []ImportServiceOption{
		WithFileRemover(f.steps),
		WithBatchIDGenerator(func() string { return "batch-1" }),
		WithOrderNumberGenerator(func() string {
			seq++
			return fmt.Sprintf("ORD-GEN-%d", seq)
		}),
	}
	f.service = NewImportService(f.decoder, f.orders, f.logs, f.publisher, append(base, opts...)...)
	return f
}

func (f *importFixture) expectBatch(total int) {
	f.logs.On("Create", mock.Anything, mock.MatchedBy(func(l *bulk.ImportLog) bool {
		return l.BatchID == "batch-1" && l.Status == bulk.ImportStatusProcessing && l.TotalRecords == total
	})).Return(nil).Once()
	f.logs.On("Update", mock.Anything, mock.MatchedBy(func(l *bulk.ImportLog) bool {
		return l.BatchID == "batch-1" && l.Status.IsTerminal() && l.CompletedAt != nil
	})).Return(nil).Once()
}

var csvRequest = ImportRequest{Path: "/tmp/uploads/abc.csv", FileName: "orders.csv", Kind: mapping.KindCSV}

func legacyRow(number, customer, product, qty, price string) *mapping.RawRecord {
	return rawRecord(
		"order_number", number,
		"customer_name", customer,
		"product_name", product,
		"quantity", qty,
		"unit_price", price,
	)
}

func TestImportFile_NegativeQuantityFailsOnlyThatRow(t *testing.T) {
	f := newImportFixture(t, []*mapping.RawRecord{
		legacyRow("ORD-1", "Alice", "Widget", "2", "100"),
		legacyRow("ORD-2", "Bob", "Widget", "-1", "100"),
		legacyRow("ORD-3", "Carol", "Gadget", "1", "50"),
	})
	f.expectBatch(3)
	f.orders.On("CreateWithItems", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil).Twice()

	result, err := f.service.ImportFile(context.Background(), csvRequest)
	require.NoError(t, err)

	assert.Equal(t, "batch-1", result.BatchID)
	assert.Equal(t, 3, result.TotalRecords)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, bulk.ImportStatusCompletedWithErrors, result.Status)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Message, "quantity must be greater than 0")
	require.NotNil(t, result.Errors[0].Raw)
	v, _ := result.Errors[0].Raw.Get("customer_name")
	assert.Equal(t, "Bob", v)
	assert.False(t, result.IsTruncated)

	assert.Equal(t, []string{order.EventTypeOrderImported, order.EventTypeOrderImported, bulk.EventTypeImportBatchFinished},
		f.publisher.types())
	assert.Equal(t, []string{"remove:/tmp/uploads/abc.csv"}, f.steps.steps)
	f.orders.AssertExpectations(t)
	f.logs.AssertExpectations(t)
}

func TestImportFile_PersistsImportedOrders(t *testing.T) {
	f := newImportFixture(t, []*mapping.RawRecord{
		rawRecord(
			"客戶名稱", "王小明",
			"items", `[{"product_name":"A","quantity":1,"unit_price":750},{"商品名稱":"B","數量":3,"單價":250}]`,
		),
	})
	f.expectBatch(1)

	var saved *order.Order
	f.orders.On("CreateWithItems", mock.Anything, mock.AnythingOfType("*order.Order")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*order.Order) }).
		Return(nil).Once()

	result, err := f.service.ImportFile(context.Background(), csvRequest)
	require.NoError(t, err)
	assert.Equal(t, bulk.ImportStatusCompleted, result.Status)
	assert.NotNil(t, result.Errors)
	assert.Empty(t, result.Errors)

	require.NotNil(t, saved)
	assert.Equal(t, "ORD-GEN-1", saved.OrderNumber)
	assert.Equal(t, "王小明", saved.CustomerName)
	assert.Equal(t, order.SourceImport, saved.Source)
	assert.Equal(t, "batch-1", saved.ImportBatchID)
	assert.Equal(t, order.StatusPending, saved.Status)
	assert.Equal(t, "TWD", saved.Currency)
	require.Len(t, saved.Items, 2)
	assert.True(t, decimal.NewFromInt(750).Equal(saved.Items[0].Subtotal))
	assert.True(t, decimal.NewFromInt(750).Equal(saved.Items[1].Subtotal))
	assert.True(t, decimal.NewFromInt(1500).Equal(saved.TotalAmount), "total is the sum of item subtotals")
}

func TestImportFile_ExplicitZeroTotalIsKept(t *testing.T) {
	row := legacyRow("ORD-1", "Alice", "Widget", "2", "100")
	row.Set("total_amount", "0")
	f := newImportFixture(t, []*mapping.RawRecord{row})
	f.expectBatch(1)

	var saved *order.Order
	f.orders.On("CreateWithItems", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*order.Order) }).
		Return(nil)

	_, err := f.service.ImportFile(context.Background(), csvRequest)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.True(t, saved.TotalAmount.IsZero())
}

func TestImportFile_RecordWithoutItemsIsRejected(t *testing.T) {
	f := newImportFixture(t, []*mapping.RawRecord{rawRecord("customer_name", "Alice")})
	f.expectBatch(1)

	result, err := f.service.ImportFile(context.Background(), csvRequest)
	require.NoError(t, err)

	assert.Equal(t, bulk.ImportStatusCompletedWithErrors, result.Status, "record failures never fail the batch")
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "at least one item is required")
	f.orders.AssertNotCalled(t, "CreateWithItems", mock.Anything, mock.Anything)
}

func TestImportFile_PersistenceErrors(t *testing.T) {
	tests := []struct {
		name        string
		repoErr     error
		wantMessage string
		hidden      string
	}{
		{"duplicate order number", shared.ErrAlreadyExists, `order_number "ORD-1" already exists`, ""},
		{"storage failure", errors.New("pq: connection reset by peer"), "failed to save order", "connection reset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newImportFixture(t, []*mapping.RawRecord{legacyRow("ORD-1", "Alice", "Widget", "1", "10")})
			f.expectBatch(1)
			f.orders.On("CreateWithItems", mock.Anything, mock.Anything).Return(tt.repoErr)

			result, err := f.service.ImportFile(context.Background(), csvRequest)
			require.NoError(t, err, "record failures never fail the call")
			require.Len(t, result.Errors, 1)
			assert.Equal(t, tt.wantMessage, result.Errors[0].Message)
			if tt.hidden != "" {
				assert.NotContains(t, result.Errors[0].Message, tt.hidden)
			}
			assert.Equal(t, []string{bulk.EventTypeImportBatchFinished}, f.publisher.types())
		})
	}
}

func TestImportFile_FileLevelFailures(t *testing.T) {
	tests := []struct {
		name       string
		records    []*mapping.RawRecord
		decodeErr  error
		wantCode   string
		wantReason string
	}{
		{"missing file", nil, fmt.Errorf("%w: /tmp/uploads/abc.csv", tabular.ErrFileNotFound), shared.CodeNotFound, "file not found"},
		{"malformed content", nil, &tabular.DecodeError{Kind: mapping.KindCSV, Err: errors.New("bare quote in field")}, shared.CodeDecodeError, "bare quote"},
		{"no records", []*mapping.RawRecord{}, nil, shared.CodeDecodeError, "file contains no records"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newImportFixture(t, tt.records)
			f.decoder.err = tt.decodeErr

			var failed *bulk.ImportLog
			f.logs.On("Create", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { failed = args.Get(1).(*bulk.ImportLog) }).
				Return(nil).Once()

			result, err := f.service.ImportFile(context.Background(), csvRequest)
			assert.Nil(t, result)
			require.Error(t, err)

			var batchErr *BatchFailedError
			require.ErrorAs(t, err, &batchErr)
			assert.Equal(t, "batch-1", batchErr.BatchID)
			assert.Equal(t, tt.wantCode, shared.ErrorCode(err))
			assert.Contains(t, err.Error(), tt.wantReason)

			require.NotNil(t, failed)
			assert.Equal(t, bulk.ImportStatusFailed, failed.Status)
			assert.Equal(t, 0, failed.TotalRecords)
			require.Len(t, failed.ErrorDetails, 1)
			assert.Equal(t, 0, failed.ErrorDetails[0].Row)
			assert.Contains(t, failed.ErrorDetails[0].Message, tt.wantReason)

			f.logs.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			f.orders.AssertNotCalled(t, "CreateWithItems", mock.Anything, mock.Anything)
			assert.Equal(t, []string{"remove:/tmp/uploads/abc.csv"}, f.steps.steps)
			assert.Equal(t, []string{bulk.EventTypeImportBatchFinished}, f.publisher.types())
		})
	}
}

func TestImportFile_UnsupportedKindIsRejectedBeforeDecoding(t *testing.T) {
	f := newImportFixture(t, nil)

	_, err := f.service.ImportFile(context.Background(), ImportRequest{Path: "/tmp/x.txt", FileName: "x.txt", Kind: "txt"})
	require.Error(t, err)
	assert.Equal(t, shared.CodeUnsupportedKind, shared.ErrorCode(err))
	assert.Equal(t, 0, f.decoder.calls)
	assert.Equal(t, []string{"remove:/tmp/x.txt"}, f.steps.steps)
	f.logs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestImportFile_LogCreateFailure(t *testing.T) {
	f := newImportFixture(t, []*mapping.RawRecord{legacyRow("ORD-1", "Alice", "Widget", "1", "10")})
	f.logs.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := f.service.ImportFile(context.Background(), csvRequest)
	require.Error(t, err)
	assert.Equal(t, shared.CodePersistence, shared.ErrorCode(err))
	f.orders.AssertNotCalled(t, "CreateWithItems", mock.Anything, mock.Anything)
	assert.Equal(t, []string{"remove:/tmp/uploads/abc.csv"}, f.steps.steps, "the file is removed even when the batch cannot start")
}

func TestImportFile_ArchivesBeforeRemoving(t *testing.T) {
	tests := []struct {
		name       string
		archiveErr error
	}{
		{"archive succeeds", nil},
		{"archive failure is not fatal", errors.New("bucket unreachable")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newImportFixture(t, []*mapping.RawRecord{legacyRow("ORD-1", "Alice", "Widget", "1", "10")})
			f.steps.archiveErr = tt.archiveErr
			f.service = NewImportService(f.decoder, f.orders, f.logs, f.publisher,
				WithFileRemover(f.steps),
				WithArchiver(f.steps),
				WithBatchIDGenerator(func() string { return "batch-1" }),
			)
			f.expectBatch(1)
			f.orders.On("CreateWithItems", mock.Anything, mock.Anything).Return(nil)

			result, err := f.service.ImportFile(context.Background(), csvRequest)
			require.NoError(t, err)
			assert.Equal(t, 1, result.SuccessCount)
			assert.Equal(t, []string{
				"archive:batch-1:orders.csv:/tmp/uploads/abc.csv",
				"remove:/tmp/uploads/abc.csv",
			}, f.steps.steps)
		})
	}
}

func TestImportFile_MaxReportedErrors(t *testing.T) {
	f := newImportFixture(t, []*mapping.RawRecord{
		rawRecord("customer_name", ""),
		rawRecord("customer_name", ""),
		rawRecord("customer_name", ""),
	}, WithMaxReportedErrors(2))
	f.expectBatch(3)

	result, err := f.service.ImportFile(context.Background(), csvRequest)
	require.NoError(t, err)
	assert.Equal(t, 3, result.ErrorCount)
	assert.Len(t, result.Errors, 2)
	assert.True(t, result.IsTruncated)
	assert.Equal(t, []int{1, 2}, []int{result.Errors[0].Row, result.Errors[1].Row})
}

func TestImportFile_DefaultsFileNameToPathBase(t *testing.T) {
	f := newImportFixture(t, []*mapping.RawRecord{legacyRow("ORD-1", "Alice", "Widget", "1", "10")})
	f.logs.On("Create", mock.Anything, mock.MatchedBy(func(l *bulk.ImportLog) bool {
		return l.FileName == "abc.csv"
	})).Return(nil)
	f.logs.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.orders.On("CreateWithItems", mock.Anything, mock.Anything).Return(nil)

	_, err := f.service.ImportFile(context.Background(), ImportRequest{Path: "/tmp/uploads/abc.csv", Kind: mapping.KindCSV})
	require.NoError(t, err)
	f.logs.AssertExpectations(t)
}

func TestImportFile_CanceledContextStillCompletes(t *testing.T) {
	f := newImportFixture(t, []*mapping.RawRecord{legacyRow("ORD-1", "Alice", "Widget", "1", "10")})
	f.expectBatch(1)
	f.orders.On("CreateWithItems", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.service.ImportFile(ctx, csvRequest)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
}

func TestImportFile_CloseBatchIsRetriedOnce(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		wantErr  bool
	}{
		{"second attempt succeeds", 1, false},
		{"both attempts fail", 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newImportFixture(t, []*mapping.RawRecord{legacyRow("ORD-1", "Alice", "Widget", "1", "10")},
				WithCloseRetryDelay(0))
			f.logs.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
			f.logs.On("Update", mock.Anything, mock.Anything).
				Return(errors.New("pq: connection reset by peer")).Times(tt.failures)
			if !tt.wantErr {
				f.logs.On("Update", mock.Anything, mock.Anything).Return(nil).Once()
			}
			f.orders.On("CreateWithItems", mock.Anything, mock.Anything).Return(nil)

			result, err := f.service.ImportFile(context.Background(), csvRequest)

			f.logs.AssertNumberOfCalls(t, "Update", 2)
			assert.Equal(t, []string{"remove:" + csvRequest.Path}, f.steps.steps)
			if tt.wantErr {
				assert.Nil(t, result)
				assert.Equal(t, shared.CodePersistence, shared.ErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, bulk.ImportStatusCompleted, result.Status)
		})
	}
}

func TestImportFileWithMapping(t *testing.T) {
	m := mapping.FieldMapping{
		"客戶":   mapping.MapTo(mapping.FieldCustomerName),
		"品名":   mapping.MapTo(mapping.FieldProductName),
		"數量":   mapping.MapTo(mapping.FieldQuantity),
		"價格":   mapping.MapTo(mapping.FieldUnitPrice),
		"內部備註": mapping.Unmapped(),
	}
	f := newImportFixture(t, []*mapping.RawRecord{
		rawRecord("客戶", "Alice", "品名", "Widget", "數量", "3", "價格", "$1,200.50", "內部備註", "ignore me"),
		rawRecord("客戶", "", "品名", "Widget", "數量", "1", "價格", "10"),
	})
	f.logs.On("Create", mock.Anything, mock.MatchedBy(func(l *bulk.ImportLog) bool {
		return l.Mode == bulk.ImportModeMapping && l.TotalRecords == 2
	})).Return(nil)
	f.logs.On("Update", mock.Anything, mock.Anything).Return(nil)

	var saved *order.Order
	f.orders.On("CreateWithItems", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*order.Order) }).
		Return(nil).Once()

	result, err := f.service.ImportFileWithMapping(context.Background(), csvRequest, m)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, 2, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Message, "customer_name")

	require.NotNil(t, saved)
	assert.Equal(t, "Alice", saved.CustomerName)
	assert.Equal(t, "", saved.Notes)
	require.Len(t, saved.Items, 1)
	assert.Equal(t, int64(3), saved.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("1200.50").Equal(saved.Items[0].UnitPrice))
	assert.True(t, decimal.RequireFromString("3601.50").Equal(saved.TotalAmount))
}

func TestImportFileWithMapping_InvalidMapping(t *testing.T) {
	tests := []struct {
		name string
		m    mapping.FieldMapping
	}{
		{"empty mapping", mapping.FieldMapping{}},
		{"unknown target", mapping.FieldMapping{"x": mapping.MapTo("favourite_colour")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newImportFixture(t, nil)

			_, err := f.service.ImportFileWithMapping(context.Background(), csvRequest, tt.m)
			require.Error(t, err)
			assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
			assert.Equal(t, 0, f.decoder.calls)
			assert.Equal(t, []string{"remove:/tmp/uploads/abc.csv"}, f.steps.steps)
			f.logs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

type panickingTransform struct{}

func (panickingTransform) Name() string { return "panicking" }

func (panickingTransform) Transform(*mapping.RawRecord) (mapping.CanonicalRecord, error) {
	panic("unexpected shape")
}

func TestImportService_TransformPanicIsARecordError(t *testing.T) {
	f := newImportFixture(t, []*mapping.RawRecord{rawRecord("a", "1"), rawRecord("a", "2")})
	f.expectBatch(2)

	result, err := f.service.run(context.Background(), csvRequest, bulk.ImportModeMapping, panickingTransform{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.ErrorCount)
	assert.Equal(t, bulk.ImportStatusCompletedWithErrors, result.Status)
	assert.Equal(t, "transform failed: unexpected shape", result.Errors[0].Message)
}

func TestImportService_Discard(t *testing.T) {
	f := newImportFixture(t, nil)
	f.service.Discard(context.Background(), "/tmp/uploads/preview.csv")
	f.service.Discard(context.Background(), "")
	assert.Equal(t, []string{"remove:/tmp/uploads/preview.csv"}, f.steps.steps)
}

func TestOSRemover_IgnoresMissingFiles(t *testing.T) {
	assert.NoError(t, osRemover{}.Remove(t.TempDir()+"/missing.csv"))
}
