package importapp

import (
	"time"

	"github.com/google/uuid"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/bulk"
	csvimport "github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/import"
)

// Import sources
const (
	SourceUpload = "upload"
	SourceText   = "text"
	SourceURL    = "url"
)

// ImportRequest is an already-fetched feed plus its posting options
type ImportRequest struct {
	Profile  string
	FileName string
	Source   string
	Data     []byte
	// Records are rows already decoded from a workbook, header included.
	// When set they are used instead of parsing Data; Data is still archived.
	Records []csvimport.Record
	// BankAccountID receives new transactions; the tenant's first account
	// is used when nil
	BankAccountID *uuid.UUID
	// CategoryID overrides the profile's expense category
	CategoryID     *uuid.UUID
	IdempotencyKey string
}

// ImportResponse reports how much of a feed landed
type ImportResponse struct {
	ImportID            uuid.UUID       `json:"import_id"`
	Profile             string          `json:"profile"`
	TotalRows           int             `json:"total_rows"`
	CreatedTransactions int             `json:"created_transactions"`
	ReusedTransactions  int             `json:"reused_transactions"`
	CreatedExpenses     int             `json:"created_expenses"`
	SkippedRows         int             `json:"skipped_rows"`
	Errors              []bulk.RowError `json:"errors"`
	TotalErrors         int             `json:"total_errors"`
	Truncated           bool            `json:"truncated"`
	Note                string          `json:"note,omitempty"`
}

// HistoryListFilter narrows import history listings
type HistoryListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// HistoryResponse is one recorded import run
type HistoryResponse struct {
	ID            uuid.UUID         `json:"id"`
	Profile       string            `json:"profile"`
	FileName      string            `json:"file_name"`
	FileSize      int64             `json:"file_size"`
	Source        string            `json:"source"`
	ArchiveKey    string            `json:"archive_key,omitempty"`
	BankAccountID *uuid.UUID        `json:"bank_account_id,omitempty"`
	Status        bulk.ImportStatus `json:"status"`
	Counts        bulk.ImportCounts `json:"counts"`
	Errors        []bulk.RowError   `json:"errors"`
	Note          string            `json:"note,omitempty"`
	FailureReason string            `json:"failure_reason,omitempty"`
	ImportedBy    *uuid.UUID        `json:"imported_by,omitempty"`
	StartedAt     *time.Time        `json:"started_at,omitempty"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	DurationMs    int64             `json:"duration_ms"`
	CreatedAt     time.Time         `json:"created_at"`
}

// ToHistoryResponse converts a domain ImportHistory to HistoryResponse
func ToHistoryResponse(h *bulk.ImportHistory) HistoryResponse {
	errs := h.ErrorDetails
	if errs == nil {
		errs = []bulk.RowError{}
	}
	return HistoryResponse{
		ID:            h.ID,
		Profile:       h.Profile,
		FileName:      h.FileName,
		FileSize:      h.FileSize,
		Source:        h.Source,
		ArchiveKey:    h.ArchiveKey,
		BankAccountID: h.BankAccountID,
		Status:        h.Status,
		Counts:        h.Counts,
		Errors:        errs,
		Note:          h.Note,
		FailureReason: h.FailureReason,
		ImportedBy:    h.CreatedBy,
		StartedAt:     h.StartedAt,
		CompletedAt:   h.CompletedAt,
		DurationMs:    h.Duration().Milliseconds(),
		CreatedAt:     h.CreatedAt,
	}
}

func toImportResponse(h *bulk.ImportHistory, truncated bool) *ImportResponse {
	errs := h.ErrorDetails
	if errs == nil {
		errs = []bulk.RowError{}
	}
	return &ImportResponse{
		ImportID:            h.ID,
		Profile:             h.Profile,
		TotalRows:           h.Counts.TotalRows,
		CreatedTransactions: h.Counts.CreatedTransactions,
		ReusedTransactions:  h.Counts.ReusedTransactions,
		CreatedExpenses:     h.Counts.CreatedExpenses,
		SkippedRows:         h.Counts.SkippedRows,
		Errors:              errs,
		TotalErrors:         h.Counts.TotalErrors,
		Truncated:           truncated,
		Note:                h.Note,
	}
}
