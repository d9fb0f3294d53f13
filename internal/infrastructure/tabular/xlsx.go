package tabular

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
	"github.com/xuri/excelize/v2"
)

// decodeXLSX reads the first sheet. Row one is the header row; empty cells
// are left out of the record and blank rows are skipped.
func decodeXLSX(path string) (*Sample, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrMissingHeader
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = headerName(h, i, true)
	}

	cells := newCellReader(f, sheet)
	s := &Sample{Headers: headers}
	for r, row := range rows[1:] {
		rec := mapping.NewRawRecord(len(headers))
		for c, raw := range row {
			if c >= len(headers) || strings.TrimSpace(raw) == "" {
				continue
			}
			// rows[0] is sheet row 1, so data row r sits on sheet row r+2
			rec.Set(headers[c], cells.value(c+1, r+2, raw))
		}
		if rec.Len() == 0 {
			continue
		}
		s.Records = append(s.Records, rec)
	}
	s.TotalRecords = len(s.Records)
	return s, nil
}

// cellReader converts stored cell values to native scalars. Date detection
// depends on the cell's number format, which is resolved once per style.
type cellReader struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	isDate   map[int]bool
}

func newCellReader(f *excelize.File, sheet string) *cellReader {
	cr := &cellReader{f: f, sheet: sheet, isDate: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		cr.date1904 = *props.Date1904
	}
	return cr
}

// value maps a raw cell to bool, float64 or time.Time by cell type. Anything
// else keeps its stored text.
func (cr *cellReader) value(col, row int, raw string) any {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	typ, err := cr.f.GetCellType(cr.sheet, name)
	if err != nil {
		return raw
	}
	switch typ {
	case excelize.CellTypeBool:
		if b, err := strconv.ParseBool(strings.TrimSpace(raw)); err == nil {
			return b
		}
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return raw
		}
		if cr.dateStyled(name) {
			if t, err := excelize.ExcelDateToTime(n, cr.date1904); err == nil {
				return t.UTC()
			}
		}
		return n
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw)); err == nil {
			return t.UTC()
		}
	}
	return raw
}

func (cr *cellReader) dateStyled(cell string) bool {
	idx, err := cr.f.GetCellStyle(cr.sheet, cell)
	if err != nil || idx == 0 {
		return false
	}
	if d, ok := cr.isDate[idx]; ok {
		return d
	}
	d := false
	if style, err := cr.f.GetStyle(idx); err == nil && style != nil {
		if style.CustomNumFmt != nil {
			d = isDateFormatCode(*style.CustomNumFmt)
		} else {
			d = isBuiltInDateFormat(style.NumFmt)
		}
	}
	cr.isDate[idx] = d
	return d
}

// isBuiltInDateFormat reports whether a built-in number format id renders a
// date or time, including the East Asian locale ids.
func isBuiltInDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22, id >= 45 && id <= 47:
		return true
	case id >= 27 && id <= 36, id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom format code contains date or
// time tokens outside quoted literals, escapes and bracketed sections.
func isDateFormatCode(code string) bool {
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case inQuote:
			inQuote = c != '"'
		case inBracket:
			inBracket = c != ']'
		case c == '"':
			inQuote = true
		case c == '[':
			inBracket = true
		case c == '\\' || c == '_' || c == '*':
			i++
		default:
			switch c | 0x20 {
			case 'y', 'm', 'd', 'h', 's':
				return true
			}
		}
	}
	return false
}
