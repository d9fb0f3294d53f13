package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	importapp "github.com/ChenZongYanLive/OrderManagementSystem/internal/application/import"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/bulk"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockImportService struct {
	mock.Mock
}

func (m *mockImportService) ImportFile(ctx context.Context, req importapp.ImportRequest) (*importapp.ImportResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*importapp.ImportResult), args.Error(1)
}

func (m *mockImportService) ImportFileWithMapping(ctx context.Context, req importapp.ImportRequest, fm mapping.FieldMapping) (*importapp.ImportResult, error) {
	args := m.Called(ctx, req, fm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*importapp.ImportResult), args.Error(1)
}

func (m *mockImportService) Discard(ctx context.Context, path string) {
	m.Called(ctx, path)
}

type mockPreviewService struct {
	mock.Mock
}

func (m *mockPreviewService) PreviewFile(ctx context.Context, path string, kind mapping.Kind, sampleSize int) (*importapp.PreviewResult, error) {
	args := m.Called(ctx, path, kind, sampleSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*importapp.PreviewResult), args.Error(1)
}

type mockMappingSource struct {
	mock.Mock
}

func (m *mockMappingSource) Get(ctx context.Context, id uuid.UUID) (*mapping.MappingTemplate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mapping.MappingTemplate), args.Error(1)
}

func (m *mockMappingSource) FindDefault(ctx context.Context, kind mapping.Kind) (*mapping.MappingTemplate, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mapping.MappingTemplate), args.Error(1)
}

type mockImportLogService struct {
	mock.Mock
}

func (m *mockImportLogService) List(ctx context.Context, page shared.PageRequest) (shared.Paginated[*bulk.ImportLog], error) {
	args := m.Called(ctx, page)
	return args.Get(0).(shared.Paginated[*bulk.ImportLog]), args.Error(1)
}

func (m *mockImportLogService) Get(ctx context.Context, batchID string) (*bulk.ImportLog, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bulk.ImportLog), args.Error(1)
}

func (m *mockImportLogService) ErrorsCSV(ctx context.Context, batchID string) ([]byte, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockImportLogService) SourceURL(ctx context.Context, batchID string) (*importapp.SourceLink, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*importapp.SourceLink), args.Error(1)
}

type importFixture struct {
	imports   *mockImportService
	previews  *mockPreviewService
	templates *mockMappingSource
	logs      *mockImportLogService
	dir       string
	router    *gin.Engine
}

func newImportFixture(t *testing.T, maxSize int64) *importFixture {
	t.Helper()
	f := &importFixture{
		imports:   new(mockImportService),
		previews:  new(mockPreviewService),
		templates: new(mockMappingSource),
		logs:      new(mockImportLogService),
		dir:       t.TempDir(),
	}
	h := NewImportHandler(f.imports, f.previews, f.templates, f.logs, UploadConfig{
		Dir:         f.dir,
		MaxFileSize: maxSize,
		PreviewRows: 5,
	})

	r := gin.New()
	g := r.Group("/api/v1/import")
	g.POST("/upload", h.Upload)
	g.POST("/upload-with-mapping", h.UploadWithMapping)
	g.POST("/preview", h.Preview)
	g.GET("/logs", h.ListLogs)
	g.GET("/logs/:batchId", h.GetLog)
	g.GET("/logs/:batchId/errors.csv", h.ErrorsCSV)
	g.GET("/logs/:batchId/source", h.Source)
	f.router = r
	return f
}

// multipartRequest builds a multipart POST with an optional file and extra fields.
func multipartRequest(t *testing.T, target, fileName, content string, fields map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func (f *importFixture) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func uploadedFiles(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return entries
}

const ordersCSV = "order_number,customer_name,product_name,quantity,unit_price\nORD-1,Alice,Widget,2,10\n"

func TestImportHandler_Upload(t *testing.T) {
	f := newImportFixture(t, 0)
	var savedPath string
	f.imports.On("ImportFile", mock.Anything, mock.MatchedBy(func(req importapp.ImportRequest) bool {
		content, err := os.ReadFile(req.Path)
		savedPath = req.Path
		return err == nil && string(content) == ordersCSV &&
			req.Kind == mapping.KindCSV && req.FileName == "orders.csv"
	})).Return(&importapp.ImportResult{
		BatchID:      "b-1",
		TotalRecords: 1,
		SuccessCount: 1,
		Status:       bulk.ImportStatusCompleted,
		Errors:       []bulk.ErrorDetail{},
	}, nil)

	w := f.serve(multipartRequest(t, "/api/v1/import/upload", "orders.csv", ordersCSV, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"batch_id":"b-1","total_records":1,"success_count":1,"error_count":0,"status":"completed","errors":[]}`,
		string(mustData(t, w)))
	assert.Contains(t, savedPath, f.dir)
	assert.NotContains(t, savedPath, "orders.csv", "uploads are stored under a random name")
	f.imports.AssertExpectations(t)
}

func TestImportHandler_UploadRejections(t *testing.T) {
	tests := []struct {
		name       string
		fileName   string
		content    string
		maxSize    int64
		wantStatus int
		wantCode   string
	}{
		{"missing file", "", "", 0, http.StatusBadRequest, dto.ErrCodeFileRequired},
		{"unsupported kind", "orders.txt", "a,b\n1,2\n", 0, http.StatusBadRequest, dto.ErrCodeUnsupportedKind},
		{"too large", "orders.csv", ordersCSV, 16, http.StatusRequestEntityTooLarge, dto.ErrCodeFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newImportFixture(t, tt.maxSize)

			w := f.serve(multipartRequest(t, "/api/v1/import/upload", tt.fileName, tt.content, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			f.imports.AssertNotCalled(t, "ImportFile", mock.Anything, mock.Anything)
			assert.Empty(t, uploadedFiles(t, f.dir))
		})
	}
}

func TestImportHandler_UploadBatchFailed(t *testing.T) {
	f := newImportFixture(t, 0)
	f.imports.On("ImportFile", mock.Anything, mock.Anything).Return(nil, &importapp.BatchFailedError{
		BatchID: "b-9",
		Err:     shared.NewDomainError(shared.CodeDecodeError, "file contains no records"),
	})

	w := f.serve(multipartRequest(t, "/api/v1/import/upload", "orders.csv", "order_number\n", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeDecode, resp.Error.Code)
	assert.Equal(t, "file contains no records", resp.Error.Message)
	assert.Equal(t, map[string]any{"batch_id": "b-9"}, resp.Data)
}

func TestImportHandler_UploadWithMapping(t *testing.T) {
	want := mapping.FieldMapping{
		"單號": mapping.MapTo(mapping.FieldOrderNumber),
		"備忘": mapping.Unmapped(),
	}

	t.Run("inline mapping", func(t *testing.T) {
		f := newImportFixture(t, 0)
		f.imports.On("ImportFileWithMapping", mock.Anything, mock.Anything, want).
			Return(&importapp.ImportResult{BatchID: "b-2", Errors: []bulk.ErrorDetail{}}, nil)

		w := f.serve(multipartRequest(t, "/api/v1/import/upload-with-mapping", "orders.json", `[{"單號":"A"}]`,
			map[string]string{"mapping": `{"單號":"order_number","備忘":null}`}))

		assert.Equal(t, http.StatusOK, w.Code)
		f.imports.AssertExpectations(t)
		f.templates.AssertNotCalled(t, "FindDefault", mock.Anything, mock.Anything)
	})

	t.Run("template id", func(t *testing.T) {
		f := newImportFixture(t, 0)
		tpl, err := mapping.NewMappingTemplate("shop", "", mapping.KindJSON, want, false)
		require.NoError(t, err)
		f.templates.On("Get", mock.Anything, tpl.ID).Return(tpl, nil)
		f.imports.On("ImportFileWithMapping", mock.Anything, mock.Anything, want).
			Return(&importapp.ImportResult{BatchID: "b-3", Errors: []bulk.ErrorDetail{}}, nil)

		w := f.serve(multipartRequest(t, "/api/v1/import/upload-with-mapping", "orders.json", `[]`,
			map[string]string{"template_id": tpl.ID.String()}))

		assert.Equal(t, http.StatusOK, w.Code)
		f.imports.AssertExpectations(t)
	})

	t.Run("default template", func(t *testing.T) {
		f := newImportFixture(t, 0)
		tpl, err := mapping.NewMappingTemplate("default csv", "", mapping.KindCSV, want, true)
		require.NoError(t, err)
		f.templates.On("FindDefault", mock.Anything, mapping.KindCSV).Return(tpl, nil)
		f.imports.On("ImportFileWithMapping", mock.Anything, mock.MatchedBy(func(req importapp.ImportRequest) bool {
			return req.Kind == mapping.KindCSV
		}), want).Return(&importapp.ImportResult{BatchID: "b-4", Errors: []bulk.ErrorDetail{}}, nil)

		w := f.serve(multipartRequest(t, "/api/v1/import/upload-with-mapping", "orders.csv", ordersCSV, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		f.imports.AssertExpectations(t)
	})
}

func TestImportHandler_UploadWithMappingUnresolved(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]string
		setup    func(*importFixture)
		wantHTTP int
		wantCode string
	}{
		{
			name:     "no default template",
			setup:    func(f *importFixture) { f.templates.On("FindDefault", mock.Anything, mapping.KindCSV).Return(nil, nil) },
			wantHTTP: http.StatusBadRequest,
			wantCode: dto.ErrCodeValidation,
		},
		{
			name:     "malformed mapping",
			fields:   map[string]string{"mapping": `["order_number"]`},
			setup:    func(*importFixture) {},
			wantHTTP: http.StatusBadRequest,
			wantCode: dto.ErrCodeValidation,
		},
		{
			name:     "malformed template id",
			fields:   map[string]string{"template_id": "nope"},
			setup:    func(*importFixture) {},
			wantHTTP: http.StatusBadRequest,
			wantCode: dto.ErrCodeValidation,
		},
		{
			name:   "unknown template",
			fields: map[string]string{"template_id": uuid.NewString()},
			setup: func(f *importFixture) {
				f.templates.On("Get", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)
			},
			wantHTTP: http.StatusNotFound,
			wantCode: dto.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newImportFixture(t, 0)
			tt.setup(f)

			w := f.serve(multipartRequest(t, "/api/v1/import/upload-with-mapping", "orders.csv", ordersCSV, tt.fields))

			assert.Equal(t, tt.wantHTTP, w.Code)
			assert.Equal(t, tt.wantCode, decodeResponse(t, w).Error.Code)
			f.imports.AssertNotCalled(t, "ImportFileWithMapping", mock.Anything, mock.Anything, mock.Anything)
			assert.Empty(t, uploadedFiles(t, f.dir), "nothing is stored when no batch starts")
		})
	}
}

func TestImportHandler_Preview(t *testing.T) {
	f := newImportFixture(t, 0)
	var previewPath string
	f.previews.On("PreviewFile", mock.Anything, mock.AnythingOfType("string"), mapping.KindCSV, 3).
		Run(func(args mock.Arguments) { previewPath = args.String(1) }).
		Return(&importapp.PreviewResult{
			Kind:             mapping.KindCSV,
			Headers:          []string{"order_number"},
			SampleRecords:    []*mapping.RawRecord{},
			InferredTypes:    map[string]mapping.FieldType{"order_number": mapping.TypeString},
			SuggestedMapping: mapping.FieldMapping{"order_number": mapping.MapTo(mapping.FieldOrderNumber)},
			TotalRecords:     1,
		}, nil)
	f.imports.On("Discard", mock.Anything, mock.AnythingOfType("string")).Return()

	w := f.serve(multipartRequest(t, "/api/v1/import/preview", "orders.csv", ordersCSV,
		map[string]string{"sample_size": "3"}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"file_type": "csv",
		"headers": ["order_number"],
		"sample_records": [],
		"inferred_types": {"order_number": "string"},
		"suggested_mapping": {"order_number": "order_number"},
		"default_template": null,
		"total_records": 1
	}`, string(mustData(t, w)))
	f.imports.AssertCalled(t, "Discard", mock.Anything, previewPath)
}

func TestImportHandler_PreviewDefaultsAndErrors(t *testing.T) {
	t.Run("configured sample size", func(t *testing.T) {
		f := newImportFixture(t, 0)
		f.previews.On("PreviewFile", mock.Anything, mock.Anything, mapping.KindCSV, 5).
			Return(nil, shared.NewDomainError(shared.CodeDecodeError, "invalid csv file: bare quote"))
		f.imports.On("Discard", mock.Anything, mock.Anything).Return()

		w := f.serve(multipartRequest(t, "/api/v1/import/preview", "orders.csv", `"a`, nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeDecode, decodeResponse(t, w).Error.Code)
		f.imports.AssertNumberOfCalls(t, "Discard", 1)
	})

	t.Run("bad sample size", func(t *testing.T) {
		f := newImportFixture(t, 0)

		w := f.serve(multipartRequest(t, "/api/v1/import/preview", "orders.csv", ordersCSV,
			map[string]string{"sample_size": "-2"}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeResponse(t, w).Error.Code)
		f.previews.AssertNotCalled(t, "PreviewFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestImportHandler_Logs(t *testing.T) {
	f := newImportFixture(t, 0)
	l, err := bulk.NewImportLog("b-1", "orders.csv", mapping.KindCSV, bulk.ImportModeAuto, 2)
	require.NoError(t, err)
	require.NoError(t, l.Finish(1, 1, []bulk.ErrorDetail{{Row: 2, Message: "customer_name is required"}}))

	f.logs.On("List", mock.Anything, shared.PageRequest{Page: 2, PageSize: 10}).
		Return(shared.NewPaginated([]*bulk.ImportLog{l}, 11, shared.PageRequest{Page: 2, PageSize: 10}), nil)
	f.logs.On("Get", mock.Anything, "b-1").Return(l, nil)
	f.logs.On("Get", mock.Anything, "missing").Return(nil, shared.ErrNotFound)

	t.Run("list", func(t *testing.T) {
		w := f.serve(httptest.NewRequest(http.MethodGet, "/api/v1/import/logs?page=2&page_size=10", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(11), resp.Meta.Total)
		assert.Equal(t, 2, resp.Meta.TotalPages)
		items := resp.Data.([]any)
		require.Len(t, items, 1)
		assert.Nil(t, items[0].(map[string]any)["error_details"], "list entries omit details")
	})

	t.Run("list rejects oversized pages", func(t *testing.T) {
		w := f.serve(httptest.NewRequest(http.MethodGet, "/api/v1/import/logs?page_size=500", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get", func(t *testing.T) {
		w := f.serve(httptest.NewRequest(http.MethodGet, "/api/v1/import/logs/b-1", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, "completed_with_errors", data["status"])
		assert.Len(t, data["error_details"], 1)
	})

	t.Run("get unknown", func(t *testing.T) {
		w := f.serve(httptest.NewRequest(http.MethodGet, "/api/v1/import/logs/missing", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestImportHandler_ErrorsCSV(t *testing.T) {
	f := newImportFixture(t, 0)
	f.logs.On("ErrorsCSV", mock.Anything, "b-1").Return([]byte("row,message,raw\n2,bad,{}\n"), nil)

	w := f.serve(httptest.NewRequest(http.MethodGet, "/api/v1/import/logs/b-1/errors.csv", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="import-errors-b-1.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "row,message,raw\n2,bad,{}\n", w.Body.String())
}

func TestImportHandler_Source(t *testing.T) {
	f := newImportFixture(t, 0)
	f.logs.On("SourceURL", mock.Anything, "b-1").Return(&importapp.SourceLink{
		URL:       "https://archive.example.com/imports/b-1/orders.csv?sig=abc",
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil)
	f.logs.On("SourceURL", mock.Anything, "b-2").Return(nil, shared.ErrNotFound)

	w := f.serve(httptest.NewRequest(http.MethodGet, "/api/v1/import/logs/b-1/source", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://archive.example.com/imports/b-1/orders.csv?sig=abc", w.Header().Get("Location"))

	w = f.serve(httptest.NewRequest(http.MethodGet, "/api/v1/import/logs/b-2/source", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
