package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

// Position orders transactions within one account: date first, then insertion sequence.
type Position struct {
	Date     time.Time
	Sequence int64
}

// Before reports whether p sorts strictly before o
func (p Position) Before(o Position) bool {
	if !p.Date.Equal(o.Date) {
		return p.Date.Before(o.Date)
	}
	return p.Sequence < o.Sequence
}

// EarlierOf returns the earlier of two positions
func EarlierOf(a, b Position) Position {
	if b.Before(a) {
		return b
	}
	return a
}

// SortByPosition sorts transactions into chain order
func SortByPosition(txs []*LedgerTransaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Position().Before(txs[j].Position())
	})
}

// Rechain walks txs (already in chain order) from the opening balance and
// rewrites each cached balance. It returns only the transactions whose
// balance actually changed.
func Rechain(opening decimal.Decimal, txs []*LedgerTransaction) []*LedgerTransaction {
	running := opening
	var changed []*LedgerTransaction
	for _, tx := range txs {
		running = running.Add(tx.Delta())
		if !tx.Balance.Equal(running) {
			tx.Balance = running
			changed = append(changed, tx)
		}
	}
	return changed
}

// ChainBreak describes the first transaction whose cached balance is wrong
type ChainBreak struct {
	TransactionID uuid.UUID
	Position      Position
	Expected      decimal.Decimal
	Actual        decimal.Decimal
}

// Error implements error
func (b *ChainBreak) Error() string {
	return fmt.Sprintf("balance chain broken at transaction %s (%s #%d): expected %s, stored %s",
		b.TransactionID, b.Position.Date.Format("2006-01-02"), b.Position.Sequence,
		b.Expected.String(), b.Actual.String())
}

// Unwrap lets callers match the break as an integrity violation
func (b *ChainBreak) Unwrap() error {
	return shared.ErrIntegrity
}

// VerifyChain checks a full chain (in chain order) starting from zero.
// It does not modify anything.
func VerifyChain(txs []*LedgerTransaction) error {
	running := decimal.Zero
	for _, tx := range txs {
		running = running.Add(tx.Delta())
		if !tx.Balance.Equal(running) {
			return &ChainBreak{
				TransactionID: tx.ID,
				Position:      tx.Position(),
				Expected:      running,
				Actual:        tx.Balance,
			}
		}
	}
	return nil
}
