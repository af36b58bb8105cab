package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/huzaifanasir-fabtechsol/backend/internal/application/scope"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/ledger"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/logger"
)

// BalanceMaintainer keeps the cached running balances of an account's chain
// consistent. Every method runs inside the caller's transaction and expects
// the account row to be locked through Lock first.
type BalanceMaintainer struct {
	logger *zap.Logger
}

// NewBalanceMaintainer creates a new BalanceMaintainer
func NewBalanceMaintainer(logger *zap.Logger) *BalanceMaintainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalanceMaintainer{logger: logger}
}

// Lock loads the account of the tenant and holds its row lock until the
// surrounding transaction ends
func (m *BalanceMaintainer) Lock(ctx context.Context, repos scope.Repositories, tenantID, accountID uuid.UUID) (*ledger.BankAccount, error) {
	account, err := repos.BankAccounts().FindByIDForUpdate(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Post sequences and inserts txs on the locked account, then walks the chain
// once from the earliest inserted position. txs keep their input order for
// sequence allocation.
func (m *BalanceMaintainer) Post(ctx context.Context, repos scope.Repositories, account *ledger.BankAccount, txs []*ledger.LedgerTransaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}
	seq := account.ReserveSequences(len(txs))
	start := ledger.Position{}
	for i, tx := range txs {
		if tx.BankAccountID != account.ID || tx.TenantID != account.TenantID {
			return 0, fmt.Errorf("transaction %s does not belong to account %s", tx.ID, account.ID)
		}
		tx.Sequence = seq + int64(i)
		if i == 0 {
			start = tx.Position()
		} else {
			start = ledger.EarlierOf(start, tx.Position())
		}
	}
	if err := repos.BankAccounts().Save(ctx, account); err != nil {
		return 0, fmt.Errorf("reserve sequences: %w", err)
	}
	if err := repos.LedgerTransactions().CreateBatch(ctx, txs); err != nil {
		return 0, err
	}

	rewritten, err := m.walk(ctx, repos, account, start, uuid.Nil)
	if err != nil {
		return 0, err
	}
	byID := make(map[uuid.UUID]*ledger.LedgerTransaction, len(txs))
	for _, tx := range txs {
		byID[tx.ID] = tx
	}
	for _, changed := range rewritten {
		if tx, ok := byID[changed.ID]; ok {
			tx.Balance = changed.Balance
		}
	}
	for _, tx := range txs {
		tx.AddDomainEvent(ledger.NewTransactionPostedEvent(tx))
	}
	return len(rewritten), nil
}

// Move re-walks the chain after tx (already saved) changed amounts or date.
// The walk starts at the earlier of the old and new positions.
func (m *BalanceMaintainer) Move(ctx context.Context, repos scope.Repositories, account *ledger.BankAccount, tx *ledger.LedgerTransaction, old ledger.Position) (int, error) {
	from := ledger.EarlierOf(old, tx.Position())
	rewritten, err := m.walk(ctx, repos, account, from, tx.ID)
	if err != nil {
		return 0, err
	}
	for _, changed := range rewritten {
		if changed.ID == tx.ID {
			tx.Balance = changed.Balance
		}
	}
	return len(rewritten), nil
}

// Remove re-walks the chain after the transaction at pos was deleted
func (m *BalanceMaintainer) Remove(ctx context.Context, repos scope.Repositories, account *ledger.BankAccount, pos ledger.Position) (int, error) {
	rewritten, err := m.walk(ctx, repos, account, pos, uuid.Nil)
	if err != nil {
		return 0, err
	}
	return len(rewritten), nil
}

// Verify checks the whole chain of the account without modifying it.
// A break is logged at error level and returned as *ledger.ChainBreak.
func (m *BalanceMaintainer) Verify(ctx context.Context, repos scope.Repositories, account *ledger.BankAccount) ([]*ledger.LedgerTransaction, error) {
	chain, err := repos.LedgerTransactions().FindChain(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if err := ledger.VerifyChain(chain); err != nil {
		log := logger.For(ctx, m.logger)
		var brk *ledger.ChainBreak
		if errors.As(err, &brk) {
			log.Error("Ledger balance chain broken",
				zap.String("bank_account_id", account.ID.String()),
				zap.String("transaction_id", brk.TransactionID.String()),
				zap.Time("date", brk.Position.Date),
				zap.Int64("sequence", brk.Position.Sequence),
				zap.String("expected", brk.Expected.String()),
				zap.String("actual", brk.Actual.String()),
			)
		} else {
			log.Error("Ledger chain verification failed", zap.Error(err))
		}
		return nil, err
	}
	return chain, nil
}

// walk recomputes every balance at or after from, anchored on the last row
// strictly before it, and persists only the balances that changed
func (m *BalanceMaintainer) walk(ctx context.Context, repos scope.Repositories, account *ledger.BankAccount, from ledger.Position, exclude uuid.UUID) ([]*ledger.LedgerTransaction, error) {
	txRepo := repos.LedgerTransactions()

	opening := decimal.Zero
	anchor, err := txRepo.FindLatestBefore(ctx, account.ID, from, exclude)
	if err != nil {
		return nil, fmt.Errorf("load balance anchor: %w", err)
	}
	if anchor != nil {
		opening = anchor.Balance
	}

	rows, err := txRepo.FindFrom(ctx, account.ID, from)
	if err != nil {
		return nil, fmt.Errorf("load chain tail: %w", err)
	}
	changed := ledger.Rechain(opening, rows)
	if err := txRepo.UpdateBalances(ctx, changed); err != nil {
		return nil, fmt.Errorf("persist balances: %w", err)
	}

	if len(changed) > 0 {
		account.AddDomainEvent(ledger.NewBalancesRecomputedEvent(account, len(changed)))
		logger.For(ctx, m.logger).Debug("Ledger balances recomputed",
			zap.String("bank_account_id", account.ID.String()),
			zap.Time("from", from.Date),
			zap.Int("walked", len(rows)),
			zap.Int("rewritten", len(changed)),
		)
	}
	return changed, nil
}
