package tabular

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
)

var mediaTypeKinds = map[string]mapping.Kind{
	"text/csv":                 mapping.KindCSV,
	"application/csv":          mapping.KindCSV,
	"application/json":         mapping.KindJSON,
	"application/vnd.ms-excel": mapping.KindExcel,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": mapping.KindExcel,
}

var extensionKinds = map[string]mapping.Kind{
	".csv":  mapping.KindCSV,
	".json": mapping.KindJSON,
	".xls":  mapping.KindExcel,
	".xlsx": mapping.KindExcel,
}

// DetectKind resolves the kind of an upload from its file extension. The
// media type is consulted only when the extension is not a known one, since
// browsers on Windows report .csv files as application/vnd.ms-excel.
func DetectKind(fileName, mediaType string) (mapping.Kind, error) {
	if k, ok := extensionKinds[strings.ToLower(filepath.Ext(fileName))]; ok {
		return k, nil
	}
	if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
		if k, ok := mediaTypeKinds[strings.ToLower(mt)]; ok {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedKind, fileName)
}
