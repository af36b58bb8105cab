package bulk

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

// ImportStatus represents the status of an import run
type ImportStatus string

const (
	ImportStatusPending    ImportStatus = "pending"
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusCompleted  ImportStatus = "completed"
	ImportStatusFailed     ImportStatus = "failed"
)

// IsTerminal returns true if this is a terminal state
func (s ImportStatus) IsTerminal() bool {
	return s == ImportStatusCompleted || s == ImportStatusFailed
}

// RowError is one reported problem with an input row
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// ImportCounts are the outcome counters of a reconciliation run
type ImportCounts struct {
	TotalRows           int `json:"total_rows"`
	CreatedTransactions int `json:"created_transactions"`
	ReusedTransactions  int `json:"reused_transactions"`
	CreatedExpenses     int `json:"created_expenses"`
	SkippedRows         int `json:"skipped_rows"`
	TotalErrors         int `json:"total_errors"`
}

// ImportHistory records one run of the reconciliation importer.
// Its ID doubles as the batch id stamped on created ledger transactions.
type ImportHistory struct {
	shared.TenantAggregateRoot
	Profile        string
	FileName       string
	FileSize       int64
	Source         string
	ArchiveKey     string
	IdempotencyKey string
	BankAccountID  *uuid.UUID
	Status         ImportStatus
	Counts         ImportCounts
	ErrorDetails   []RowError
	Note           string
	FailureReason  string
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

// NewImportHistory creates a pending run
func NewImportHistory(tenantID, importedBy uuid.UUID, profile, fileName string, fileSize int64) (*ImportHistory, error) {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return nil, shared.NewValidationError("feed profile is required")
	}
	if fileSize < 0 {
		return nil, shared.NewValidationError("file size cannot be negative")
	}
	if strings.TrimSpace(fileName) == "" {
		fileName = "upload.csv"
	}
	h := &ImportHistory{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Profile:             profile,
		FileName:            fileName,
		FileSize:            fileSize,
		Status:              ImportStatusPending,
		ErrorDetails:        []RowError{},
	}
	h.SetCreatedBy(importedBy)
	return h, nil
}

// StartProcessing marks the run as started
func (h *ImportHistory) StartProcessing() error {
	if h.Status != ImportStatusPending {
		return fmt.Errorf("%w: cannot start import from state %s", shared.ErrInvalidState, h.Status)
	}
	now := time.Now()
	h.Status = ImportStatusProcessing
	h.StartedAt = &now
	h.UpdatedAt = now
	return nil
}

// Complete stores the outcome of a committed batch
func (h *ImportHistory) Complete(counts ImportCounts, errors []RowError, note string) error {
	if h.Status != ImportStatusProcessing {
		return fmt.Errorf("%w: cannot complete import from state %s", shared.ErrInvalidState, h.Status)
	}
	if errors == nil {
		errors = []RowError{}
	}
	now := time.Now()
	h.Status = ImportStatusCompleted
	h.Counts = counts
	h.ErrorDetails = errors
	h.Note = note
	h.CompletedAt = &now
	h.UpdatedAt = now
	h.AddDomainEvent(NewImportCompletedEvent(h))
	return nil
}

// Fail records a run whose batch was rolled back
func (h *ImportHistory) Fail(reason string) error {
	if h.Status.IsTerminal() {
		return fmt.Errorf("%w: cannot fail import from terminal state %s", shared.ErrInvalidState, h.Status)
	}
	now := time.Now()
	h.Status = ImportStatusFailed
	h.FailureReason = reason
	h.CompletedAt = &now
	h.UpdatedAt = now
	return nil
}

// Duration returns how long processing took, zero while running
func (h *ImportHistory) Duration() time.Duration {
	if h.StartedAt == nil || h.CompletedAt == nil {
		return 0
	}
	return h.CompletedAt.Sub(*h.StartedAt)
}
