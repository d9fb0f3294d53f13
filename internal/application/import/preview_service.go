package importapp

import (
	"context"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/logger"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/tabular"
	"go.uber.org/zap"
)

// DefaultPreviewRows is the sample size used when none is requested.
const DefaultPreviewRows = 5

// SampleDecoder reads the head of a source file.
type SampleDecoder interface {
	DecodeSample(ctx context.Context, path string, kind mapping.Kind, n int) (*tabular.Sample, error)
}

// DefaultTemplateFinder returns the default template of a kind, or nil.
type DefaultTemplateFinder interface {
	FindDefault(ctx context.Context, kind mapping.Kind) (*mapping.MappingTemplate, error)
}

// PreviewResult is what the mapping screen needs to start from.
type PreviewResult struct {
	Kind             mapping.Kind                 `json:"kind"`
	Headers          []string                     `json:"headers"`
	SampleRecords    []*mapping.RawRecord         `json:"sample_records"`
	InferredTypes    map[string]mapping.FieldType `json:"inferred_types"`
	SuggestedMapping mapping.FieldMapping         `json:"suggested_mapping"`
	DefaultTemplate  *mapping.MappingTemplate     `json:"default_template"`
	// TotalRecords is -1 when the file was not read to the end.
	TotalRecords int `json:"total_records"`
}

// PreviewService samples a file and seeds a mapping for it. It never
// removes the file.
type PreviewService struct {
	decoder   SampleDecoder
	templates DefaultTemplateFinder
	logger    *zap.Logger
}

// NewPreviewService creates a PreviewService. templates may be nil.
func NewPreviewService(decoder SampleDecoder, templates DefaultTemplateFinder, logger *zap.Logger) *PreviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreviewService{decoder: decoder, templates: templates, logger: logger}
}

// PreviewFile decodes at most sampleSize records and suggests types and a
// mapping for the headers. sampleSize <= 0 means DefaultPreviewRows.
func (s *PreviewService) PreviewFile(ctx context.Context, path string, kind mapping.Kind, sampleSize int) (*PreviewResult, error) {
	if sampleSize <= 0 {
		sampleSize = DefaultPreviewRows
	}

	sample, err := s.decoder.DecodeSample(ctx, path, kind, sampleSize)
	if err != nil {
		return nil, fileFailure(err)
	}

	records := sample.Records
	if records == nil {
		records = []*mapping.RawRecord{}
	}
	result := &PreviewResult{
		Kind:             kind,
		Headers:          sample.Headers,
		SampleRecords:    records,
		InferredTypes:    mapping.SuggestTypes(sample.Headers, records),
		SuggestedMapping: mapping.SuggestMapping(sample.Headers),
		TotalRecords:     sample.TotalRecords,
	}

	if s.templates != nil {
		t, err := s.templates.FindDefault(ctx, kind)
		if err != nil {
			logger.WithLogger(ctx, s.logger).Warn("Default template lookup failed", zap.String("kind", string(kind)), zap.Error(err))
		}
		result.DefaultTemplate = t
	}
	return result, nil
}
