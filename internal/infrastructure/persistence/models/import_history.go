package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/bulk"
)

// ImportHistoryModel is the persistence model for one reconciliation import run
type ImportHistoryModel struct {
	TenantAggregateModel
	Profile             string                              `gorm:"type:varchar(50);not null;index"`
	FileName            string                              `gorm:"type:varchar(255);not null"`
	FileSize            int64                               `gorm:"not null;default:0"`
	Source              string                              `gorm:"type:varchar(20)"`
	ArchiveKey          string                              `gorm:"type:varchar(500)"`
	IdempotencyKey      string                              `gorm:"type:varchar(255);index"`
	BankAccountID       *uuid.UUID                          `gorm:"type:uuid"`
	Status              bulk.ImportStatus                   `gorm:"type:varchar(20);not null;default:'pending';index"`
	TotalRows           int                                 `gorm:"not null;default:0"`
	CreatedTransactions int                                 `gorm:"not null;default:0"`
	ReusedTransactions  int                                 `gorm:"not null;default:0"`
	CreatedExpenses     int                                 `gorm:"not null;default:0"`
	SkippedRows         int                                 `gorm:"not null;default:0"`
	TotalErrors         int                                 `gorm:"not null;default:0"`
	ErrorDetails        datatypes.JSONType[[]bulk.RowError] `gorm:"not null"`
	Note                string                              `gorm:"type:text"`
	FailureReason       string                              `gorm:"type:text"`
	StartedAt           *time.Time
	CompletedAt         *time.Time
}

// TableName returns the table name for GORM
func (ImportHistoryModel) TableName() string {
	return "import_histories"
}

// ToDomain converts the model to a domain ImportHistory
func (m *ImportHistoryModel) ToDomain() *bulk.ImportHistory {
	errs := m.ErrorDetails.Data()
	if errs == nil {
		errs = []bulk.RowError{}
	}
	return &bulk.ImportHistory{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Profile:             m.Profile,
		FileName:            m.FileName,
		FileSize:            m.FileSize,
		Source:              m.Source,
		ArchiveKey:          m.ArchiveKey,
		IdempotencyKey:      m.IdempotencyKey,
		BankAccountID:       m.BankAccountID,
		Status:              m.Status,
		Counts: bulk.ImportCounts{
			TotalRows:           m.TotalRows,
			CreatedTransactions: m.CreatedTransactions,
			ReusedTransactions:  m.ReusedTransactions,
			CreatedExpenses:     m.CreatedExpenses,
			SkippedRows:         m.SkippedRows,
			TotalErrors:         m.TotalErrors,
		},
		ErrorDetails:  errs,
		Note:          m.Note,
		FailureReason: m.FailureReason,
		StartedAt:     m.StartedAt,
		CompletedAt:   m.CompletedAt,
	}
}

// ImportHistoryModelFromDomain builds the model from a domain ImportHistory
func ImportHistoryModelFromDomain(h *bulk.ImportHistory) *ImportHistoryModel {
	m := &ImportHistoryModel{
		Profile:             h.Profile,
		FileName:            h.FileName,
		FileSize:            h.FileSize,
		Source:              h.Source,
		ArchiveKey:          h.ArchiveKey,
		IdempotencyKey:      h.IdempotencyKey,
		BankAccountID:       h.BankAccountID,
		Status:              h.Status,
		TotalRows:           h.Counts.TotalRows,
		CreatedTransactions: h.Counts.CreatedTransactions,
		ReusedTransactions:  h.Counts.ReusedTransactions,
		CreatedExpenses:     h.Counts.CreatedExpenses,
		SkippedRows:         h.Counts.SkippedRows,
		TotalErrors:         h.Counts.TotalErrors,
		ErrorDetails:        datatypes.NewJSONType(h.ErrorDetails),
		Note:                h.Note,
		FailureReason:       h.FailureReason,
		StartedAt:           h.StartedAt,
		CompletedAt:         h.CompletedAt,
	}
	m.FromDomainTenantAggregateRoot(h.TenantAggregateRoot)
	return m
}
