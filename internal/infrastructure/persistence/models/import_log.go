package models

import (
	"encoding/json"
	"time"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/bulk"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
)

// ImportLogModel is the persistence model for an import batch.
type ImportLogModel struct {
	BaseModel
	BatchID      string     `gorm:"type:varchar(64);not null;uniqueIndex"`
	FileName     string     `gorm:"type:varchar(255);not null"`
	FileType     string     `gorm:"type:varchar(20);not null"`
	ImportMode   string     `gorm:"type:varchar(20);not null;default:'auto'"`
	TotalRecords int        `gorm:"not null;default:0"`
	SuccessCount int        `gorm:"not null;default:0"`
	ErrorCount   int        `gorm:"not null;default:0"`
	Status       string     `gorm:"type:varchar(30);not null;default:'processing';index"`
	ErrorDetails *string    `gorm:"type:jsonb"`
	CompletedAt  *time.Time
}

// TableName returns the table name for GORM
func (ImportLogModel) TableName() string {
	return "import_logs"
}

// ToDomain converts the persistence model to a domain ImportLog.
// Unreadable error details are dropped rather than failing the read.
func (m *ImportLogModel) ToDomain() *bulk.ImportLog {
	l := &bulk.ImportLog{
		BaseAggregateRoot: m.aggregateRoot(),
		BatchID:           m.BatchID,
		FileName:          m.FileName,
		Kind:              mapping.Kind(m.FileType),
		Mode:              bulk.ImportMode(m.ImportMode),
		TotalRecords:      m.TotalRecords,
		SuccessCount:      m.SuccessCount,
		ErrorCount:        m.ErrorCount,
		Status:            bulk.ImportStatus(m.Status),
		CompletedAt:       m.CompletedAt,
	}
	if m.ErrorDetails != nil && *m.ErrorDetails != "" {
		var details []bulk.ErrorDetail
		if err := json.Unmarshal([]byte(*m.ErrorDetails), &details); err == nil {
			l.ErrorDetails = details
		}
	}
	return l
}

// FromDomain populates the persistence model from a domain ImportLog.
func (m *ImportLogModel) FromDomain(l *bulk.ImportLog) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.BatchID = l.BatchID
	m.FileName = l.FileName
	m.FileType = string(l.Kind)
	m.ImportMode = string(l.Mode)
	m.TotalRecords = l.TotalRecords
	m.SuccessCount = l.SuccessCount
	m.ErrorCount = l.ErrorCount
	m.Status = string(l.Status)
	m.CompletedAt = l.CompletedAt
	m.ErrorDetails = nil
	if len(l.ErrorDetails) > 0 {
		if raw, err := json.Marshal(l.ErrorDetails); err == nil {
			s := string(raw)
			m.ErrorDetails = &s
		}
	}
}

// ImportLogModelFromDomain creates a new persistence model from a domain ImportLog.
func ImportLogModelFromDomain(l *bulk.ImportLog) *ImportLogModel {
	m := &ImportLogModel{}
	m.FromDomain(l)
	return m
}
