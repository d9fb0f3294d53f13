package mapping

import (
	"fmt"
	"strings"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
)

// Kind is a supported source file encoding.
type Kind string

const (
	KindCSV   Kind = "csv"
	KindExcel Kind = "excel"
	KindJSON  Kind = "json"
)

// AllKinds lists the supported kinds.
var AllKinds = []Kind{KindCSV, KindExcel, KindJSON}

// ParseKind accepts the wire names of a kind; "xlsx" is an alias of excel.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return KindCSV, nil
	case "excel", "xlsx", "xls":
		return KindExcel, nil
	case "json":
		return KindJSON, nil
	}
	return "", shared.NewDomainError(shared.CodeUnsupportedKind, fmt.Sprintf("unsupported file kind: %q", s))
}

// IsValid reports whether k is one of the supported kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindCSV, KindExcel, KindJSON:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }
