package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

const (
	EventTypeTransactionPosted     = "LedgerTransactionPosted"
	EventTypeTransactionRemoved    = "LedgerTransactionRemoved"
	EventTypeBalancesRecomputed    = "LedgerBalancesRecomputed"
	aggregateTypeLedgerTransaction = "LedgerTransaction"
	aggregateTypeBankAccount       = "BankAccount"
)

// TransactionPostedEvent is raised when a transaction is created
type TransactionPostedEvent struct {
	shared.BaseDomainEvent
	BankAccountID uuid.UUID       `json:"bank_account_id"`
	Date          time.Time       `json:"date"`
	Deposit       decimal.Decimal `json:"deposit"`
	Withdraw      decimal.Decimal `json:"withdraw"`
	Imported      bool            `json:"imported"`
}

// EventType returns the event type name
func (e *TransactionPostedEvent) EventType() string {
	return EventTypeTransactionPosted
}

// NewTransactionPostedEvent creates a TransactionPostedEvent
func NewTransactionPostedEvent(tx *LedgerTransaction) *TransactionPostedEvent {
	return &TransactionPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionPosted, aggregateTypeLedgerTransaction, tx.ID, tx.TenantID),
		BankAccountID:   tx.BankAccountID,
		Date:            tx.Date,
		Deposit:         tx.Deposit,
		Withdraw:        tx.Withdraw,
		Imported:        tx.ImportBatchID != nil,
	}
}

// TransactionRemovedEvent is raised when a transaction is deleted
type TransactionRemovedEvent struct {
	shared.BaseDomainEvent
	BankAccountID uuid.UUID `json:"bank_account_id"`
}

// EventType returns the event type name
func (e *TransactionRemovedEvent) EventType() string {
	return EventTypeTransactionRemoved
}

// NewTransactionRemovedEvent creates a TransactionRemovedEvent
func NewTransactionRemovedEvent(tx *LedgerTransaction) *TransactionRemovedEvent {
	return &TransactionRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionRemoved, aggregateTypeLedgerTransaction, tx.ID, tx.TenantID),
		BankAccountID:   tx.BankAccountID,
	}
}

// BalancesRecomputedEvent reports how many cached balances a walk rewrote
type BalancesRecomputedEvent struct {
	shared.BaseDomainEvent
	Rewritten int `json:"rewritten"`
}

// EventType returns the event type name
func (e *BalancesRecomputedEvent) EventType() string {
	return EventTypeBalancesRecomputed
}

// NewBalancesRecomputedEvent creates a BalancesRecomputedEvent
func NewBalancesRecomputedEvent(account *BankAccount, rewritten int) *BalancesRecomputedEvent {
	return &BalancesRecomputedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBalancesRecomputed, aggregateTypeBankAccount, account.ID, account.TenantID),
		Rewritten:       rewritten,
	}
}
