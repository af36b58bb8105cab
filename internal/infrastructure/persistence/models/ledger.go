package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/ledger"
)

// BankAccountModel is the persistence model for the BankAccount aggregate
type BankAccountModel struct {
	TenantAggregateModel
	BankName      string `gorm:"type:varchar(100);not null"`
	AccountNumber string `gorm:"type:varchar(100)"`
	BranchCode    string `gorm:"type:varchar(50)"`
	AccountHolder string `gorm:"type:varchar(200)"`
	SwiftCode     string `gorm:"type:varchar(20)"`
	LastSequence  int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (BankAccountModel) TableName() string {
	return "bank_accounts"
}

// ToDomain converts the model to a domain BankAccount
func (m *BankAccountModel) ToDomain() *ledger.BankAccount {
	return &ledger.BankAccount{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		BankName:            m.BankName,
		AccountNumber:       m.AccountNumber,
		BranchCode:          m.BranchCode,
		AccountHolder:       m.AccountHolder,
		SwiftCode:           m.SwiftCode,
		LastSequence:        m.LastSequence,
	}
}

// BankAccountModelFromDomain builds the model from a domain BankAccount
func BankAccountModelFromDomain(a *ledger.BankAccount) *BankAccountModel {
	m := &BankAccountModel{
		BankName:      a.BankName,
		AccountNumber: a.AccountNumber,
		BranchCode:    a.BranchCode,
		AccountHolder: a.AccountHolder,
		SwiftCode:     a.SwiftCode,
		LastSequence:  a.LastSequence,
	}
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	return m
}

// LedgerTransactionModel is the persistence model for LedgerTransaction.
// (bank_account_id, date, sequence) is the chain order and is unique.
type LedgerTransactionModel struct {
	TenantAggregateModel
	BankAccountID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_chain,priority:1"`
	Date          time.Time       `gorm:"type:date;not null;uniqueIndex:idx_ledger_chain,priority:2;index"`
	Sequence      int64           `gorm:"not null;uniqueIndex:idx_ledger_chain,priority:3"`
	ExternalID    string          `gorm:"type:varchar(500);index:idx_ledger_external"`
	Withdraw      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Deposit       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Balance       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Description   string          `gorm:"type:text"`
	Notes         string          `gorm:"type:text"`
	ImportBatchID *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (LedgerTransactionModel) TableName() string {
	return "ledger_transactions"
}

// ToDomain converts the model to a domain LedgerTransaction
func (m *LedgerTransactionModel) ToDomain() *ledger.LedgerTransaction {
	return &ledger.LedgerTransaction{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		BankAccountID:       m.BankAccountID,
		Date:                ledger.NormalizeDate(m.Date),
		Sequence:            m.Sequence,
		ExternalID:          m.ExternalID,
		Withdraw:            m.Withdraw,
		Deposit:             m.Deposit,
		Balance:             m.Balance,
		Description:         m.Description,
		Notes:               m.Notes,
		ImportBatchID:       m.ImportBatchID,
	}
}

// LedgerTransactionModelFromDomain builds the model from a domain LedgerTransaction
func LedgerTransactionModelFromDomain(t *ledger.LedgerTransaction) *LedgerTransactionModel {
	m := &LedgerTransactionModel{
		BankAccountID: t.BankAccountID,
		Date:          ledger.NormalizeDate(t.Date),
		Sequence:      t.Sequence,
		ExternalID:    t.ExternalID,
		Withdraw:      t.Withdraw,
		Deposit:       t.Deposit,
		Balance:       t.Balance,
		Description:   t.Description,
		Notes:         t.Notes,
		ImportBatchID: t.ImportBatchID,
	}
	m.FromDomainTenantAggregateRoot(t.TenantAggregateRoot)
	return m
}
