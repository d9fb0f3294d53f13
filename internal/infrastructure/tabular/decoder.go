package tabular

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
)

// Sample is the head of a file used for previews.
type Sample struct {
	Headers []string
	Records []*mapping.RawRecord
	// TotalRecords is -1 when the decoder stopped before the end of the file.
	TotalRecords int
}

// Decoder turns a source file into raw records. The whole file is held in
// memory.
type Decoder struct{}

// NewDecoder creates a decoder
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode reads every record of the file at path.
func (d *Decoder) Decode(ctx context.Context, path string, kind mapping.Kind) ([]*mapping.RawRecord, error) {
	s, err := d.decode(ctx, path, kind, -1)
	if err != nil {
		return nil, err
	}
	return s.Records, nil
}

// DecodeSample returns the headers and at most n records. Delimited text is
// read no further than needed.
func (d *Decoder) DecodeSample(ctx context.Context, path string, kind mapping.Kind, n int) (*Sample, error) {
	if n < 0 {
		n = 0
	}
	return d.decode(ctx, path, kind, n)
}

func (d *Decoder) decode(ctx context.Context, path string, kind mapping.Kind, limit int) (*Sample, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, err
	}

	var (
		s   *Sample
		err error
	)
	switch kind {
	case mapping.KindCSV:
		s, err = decodeCSVFile(path, limit)
	case mapping.KindExcel:
		s, err = decodeXLSX(path)
	case mapping.KindJSON:
		s, err = decodeJSONFile(path)
	}
	if err != nil {
		return nil, decodeError(kind, err)
	}
	if limit >= 0 && len(s.Records) > limit {
		s.Records = s.Records[:limit]
	}
	return s, nil
}

func decodeCSVFile(path string, limit int) (*Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeCSV(f, limit)
}

// decodeCSV reads rows until EOF or until limit records are collected. A
// negative limit reads everything.
func decodeCSV(r io.Reader, limit int) (*Sample, error) {
	p, err := NewCSVParser(r)
	if err != nil {
		return nil, err
	}
	if err := p.ParseHeader(); err != nil {
		return nil, err
	}
	headers := p.Headers()
	s := &Sample{Headers: headers, TotalRecords: -1}
	for limit < 0 || len(s.Records) < limit {
		row, err := p.ReadRow()
		if err == io.EOF {
			s.TotalRecords = len(s.Records)
			return s, nil
		}
		if err != nil {
			return nil, err
		}
		if isBlankRow(row) {
			continue
		}
		rec := mapping.NewRawRecord(len(headers))
		for i, h := range headers {
			rec.Set(h, row[i])
		}
		s.Records = append(s.Records, rec)
	}
	return s, nil
}
