package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/expense"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/ledger"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/persistence"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/persistence/persistencetest"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

type fixture struct {
	db        *gorm.DB
	store     *persistence.GormStore
	svc       *Service
	logs      *observer.ObservedLogs
	publisher *recordingPublisher
	tenantID  uuid.UUID
	userID    uuid.UUID
	accountID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	db := persistencetest.NewDB(t)
	store := persistence.NewGormStore(db)
	svc := NewService(store, NewBalanceMaintainer(log), log)
	publisher := &recordingPublisher{}
	svc.SetEventPublisher(publisher)

	f := &fixture{
		db:        db,
		store:     store,
		svc:       svc,
		logs:      logs,
		publisher: publisher,
		tenantID:  uuid.New(),
		userID:    uuid.New(),
	}
	f.accountID = f.newAccount(t, f.tenantID, "MUFG")
	return f
}

func (f *fixture) newAccount(t *testing.T, tenantID uuid.UUID, bank string) uuid.UUID {
	t.Helper()
	account, err := f.svc.CreateAccount(context.Background(), tenantID, f.userID, CreateBankAccountRequest{
		BankName:      bank,
		AccountNumber: "1234567",
	})
	require.NoError(t, err)
	return account.ID
}

func (f *fixture) post(t *testing.T, accountID uuid.UUID, date string, deposit, withdraw int64) *TransactionResponse {
	t.Helper()
	d, err := shared.ParseDate(date)
	require.NoError(t, err)
	tx, err := f.svc.CreateTransaction(context.Background(), f.tenantID, f.userID, CreateTransactionRequest{
		BankAccountID: accountID,
		Date:          d,
		Deposit:       decimal.NewFromInt(deposit),
		Withdraw:      decimal.NewFromInt(withdraw),
	})
	require.NoError(t, err)
	return tx
}

func (f *fixture) balance(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	tx, err := f.svc.GetTransaction(context.Background(), f.tenantID, id)
	require.NoError(t, err)
	return tx.Balance
}

func assertBalance(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(decimal.NewFromInt(want)), "want %d, got %s", want, got)
}

func TestService_OutOfOrderInsertKeepsRunningBalance(t *testing.T) {
	f := newFixture(t)

	jan1 := f.post(t, f.accountID, "2024-01-01", 1000, 0)
	jan3 := f.post(t, f.accountID, "2024-01-03", 0, 200)
	jan2 := f.post(t, f.accountID, "2024-01-02", 50, 0)

	assertBalance(t, 1000, f.balance(t, jan1.ID))
	assertBalance(t, 1050, f.balance(t, jan2.ID))
	assertBalance(t, 850, f.balance(t, jan3.ID))
	assertBalance(t, 1050, jan2.Balance)

	report, err := f.svc.VerifyChain(context.Background(), f.tenantID, f.accountID)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Transactions)
	assertBalance(t, 850, report.ClosingBalance)

	assert.Equal(t, 3, f.publisher.count(ledger.EventTypeTransactionPosted))
	assert.Equal(t, 3, f.publisher.count(ledger.EventTypeBalancesRecomputed))
}

func TestService_SameDateOrdersByInsertion(t *testing.T) {
	f := newFixture(t)

	first := f.post(t, f.accountID, "2024-02-01", 100, 0)
	second := f.post(t, f.accountID, "2024-02-01", 0, 30)

	assert.Less(t, first.Sequence, second.Sequence)
	assertBalance(t, 100, f.balance(t, first.ID))
	assertBalance(t, 70, f.balance(t, second.ID))
}

func TestService_UpdateTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	jan1 := f.post(t, f.accountID, "2024-01-01", 1000, 0)
	jan2 := f.post(t, f.accountID, "2024-01-02", 50, 0)
	jan3 := f.post(t, f.accountID, "2024-01-03", 0, 200)

	t.Run("amount change walks forward", func(t *testing.T) {
		deposit := decimal.NewFromInt(80)
		updated, err := f.svc.UpdateTransaction(ctx, f.tenantID, jan2.ID, UpdateTransactionRequest{Deposit: &deposit})
		require.NoError(t, err)
		assertBalance(t, 1080, updated.Balance)
		assertBalance(t, 880, f.balance(t, jan3.ID))
	})

	t.Run("moving earlier walks from the new position", func(t *testing.T) {
		d, _ := shared.ParseDate("2023-12-31")
		updated, err := f.svc.UpdateTransaction(ctx, f.tenantID, jan3.ID, UpdateTransactionRequest{Date: &d})
		require.NoError(t, err)
		assertBalance(t, -200, updated.Balance)
		assertBalance(t, 800, f.balance(t, jan1.ID))
		assertBalance(t, 880, f.balance(t, jan2.ID))
	})

	t.Run("moving later walks from the old position", func(t *testing.T) {
		d, _ := shared.ParseDate("2024-01-05")
		updated, err := f.svc.UpdateTransaction(ctx, f.tenantID, jan1.ID, UpdateTransactionRequest{Date: &d})
		require.NoError(t, err)
		assertBalance(t, -200+80+1000, updated.Balance)
		assertBalance(t, -120, f.balance(t, jan2.ID))
	})

	t.Run("notes only leaves balances alone", func(t *testing.T) {
		notes := "reconciled"
		updated, err := f.svc.UpdateTransaction(ctx, f.tenantID, jan2.ID, UpdateTransactionRequest{Notes: &notes})
		require.NoError(t, err)
		assert.Equal(t, "reconciled", updated.Notes)
		assertBalance(t, -120, updated.Balance)
	})

	t.Run("negative amount is rejected", func(t *testing.T) {
		bad := decimal.NewFromInt(-1)
		_, err := f.svc.UpdateTransaction(ctx, f.tenantID, jan2.ID, UpdateTransactionRequest{Withdraw: &bad})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	_, err := f.svc.VerifyChain(ctx, f.tenantID, f.accountID)
	require.NoError(t, err)
}

func TestService_UpdateTransaction_MoveAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.newAccount(t, f.tenantID, "SMBC")

	a := f.post(t, f.accountID, "2024-01-01", 500, 0)
	b := f.post(t, f.accountID, "2024-01-02", 0, 100)
	c := f.post(t, other, "2024-01-03", 40, 0)

	moved, err := f.svc.UpdateTransaction(ctx, f.tenantID, a.ID, UpdateTransactionRequest{BankAccountID: &other})
	require.NoError(t, err)
	assert.Equal(t, other, moved.BankAccountID)
	assertBalance(t, 500, moved.Balance)
	assertBalance(t, -100, f.balance(t, b.ID))
	assertBalance(t, 540, f.balance(t, c.ID))

	for _, id := range []uuid.UUID{f.accountID, other} {
		_, err := f.svc.VerifyChain(ctx, f.tenantID, id)
		require.NoError(t, err)
	}
}

func TestService_DeleteTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.post(t, f.accountID, "2024-01-01", 1000, 0)
	jan2 := f.post(t, f.accountID, "2024-01-02", 50, 0)
	jan3 := f.post(t, f.accountID, "2024-01-03", 0, 200)

	linkID := jan2.ID
	exp, err := expense.NewExpense(f.tenantID, expense.Input{
		Title:               "Highway",
		Amount:              decimal.NewFromInt(50),
		Date:                time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		LedgerTransactionID: &linkID,
	})
	require.NoError(t, err)
	require.NoError(t, f.store.Expenses().Create(ctx, exp))

	require.NoError(t, f.svc.DeleteTransaction(ctx, f.tenantID, jan2.ID))

	assertBalance(t, 800, f.balance(t, jan3.ID))
	_, err = f.svc.GetTransaction(ctx, f.tenantID, jan2.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	stored, err := f.store.Expenses().FindByIDForTenant(ctx, f.tenantID, exp.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LedgerTransactionID)
	assert.Equal(t, 1, f.publisher.count(ledger.EventTypeTransactionRemoved))

	err = f.svc.DeleteTransaction(ctx, f.tenantID, jan2.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestService_CreateTransaction_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, _ := shared.ParseDate("2024-01-01")

	t.Run("missing account", func(t *testing.T) {
		_, err := f.svc.CreateTransaction(ctx, f.tenantID, f.userID, CreateTransactionRequest{Date: d})
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("missing date", func(t *testing.T) {
		_, err := f.svc.CreateTransaction(ctx, f.tenantID, f.userID, CreateTransactionRequest{BankAccountID: f.accountID})
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("foreign account behaves like a missing one", func(t *testing.T) {
		foreign := f.newAccount(t, uuid.New(), "Mizuho")
		_, err := f.svc.CreateTransaction(ctx, f.tenantID, f.userID, CreateTransactionRequest{
			BankAccountID: foreign,
			Date:          d,
			Deposit:       decimal.NewFromInt(1),
		})
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	txs, total, err := f.svc.ListTransactions(ctx, f.tenantID, TransactionListFilter{})
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Zero(t, total)
}

func TestService_DeleteAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx := f.post(t, f.accountID, "2024-01-01", 10, 0)
	err := f.svc.DeleteAccount(ctx, f.tenantID, f.accountID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConflict))

	require.NoError(t, f.svc.DeleteTransaction(ctx, f.tenantID, tx.ID))
	require.NoError(t, f.svc.DeleteAccount(ctx, f.tenantID, f.accountID))

	_, err = f.svc.GetAccount(ctx, f.tenantID, f.accountID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestService_UpdateAccountKeepsSequence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.post(t, f.accountID, "2024-01-01", 10, 0)
	updated, err := f.svc.UpdateAccount(ctx, f.tenantID, f.accountID, UpdateBankAccountRequest{BankName: "MUFG Bank", SwiftCode: "botkjpjt"})
	require.NoError(t, err)
	assert.Equal(t, "BOTKJPJT", updated.SwiftCode)

	next := f.post(t, f.accountID, "2024-01-01", 5, 0)
	assert.Equal(t, int64(2), next.Sequence)
}

func TestService_ConcurrentPostsStayConsistent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d := shared.NewDate(time.Date(2024, 3, 1+i%3, 0, 0, 0, 0, time.UTC))
			_, err := f.svc.CreateTransaction(ctx, f.tenantID, f.userID, CreateTransactionRequest{
				BankAccountID: f.accountID,
				Date:          d,
				Deposit:       decimal.NewFromInt(int64(10 * (i + 1))),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	report, err := f.svc.VerifyChain(ctx, f.tenantID, f.accountID)
	require.NoError(t, err)
	assert.Equal(t, workers, report.Transactions)
	assertBalance(t, 360, report.ClosingBalance)
}

func TestService_AccountStatement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.post(t, f.accountID, "2024-01-01", 1000, 0)
	f.post(t, f.accountID, "2024-01-05", 0, 300)
	f.post(t, f.accountID, "2024-01-10", 200, 0)
	f.post(t, f.accountID, "2024-01-20", 0, 50)

	from := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	statement, err := f.svc.AccountStatement(ctx, f.tenantID, f.accountID, &from, &to)
	require.NoError(t, err)

	assertBalance(t, 1000, statement.OpeningBalance)
	assertBalance(t, 900, statement.ClosingBalance)
	assertBalance(t, 200, statement.TotalDeposit)
	assertBalance(t, 300, statement.TotalWithdraw)
	require.Len(t, statement.Rows, 2)
	assert.Equal(t, "2024-01-05", statement.Rows[0].Date.String())
	assert.Equal(t, "2024-01-05", statement.From.String())

	full, err := f.svc.AccountStatement(ctx, f.tenantID, f.accountID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, full.Rows, 4)
	assertBalance(t, 850, full.ClosingBalance)
}

func TestService_VerifyChainReportsBreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.post(t, f.accountID, "2024-01-01", 100, 0)
	broken := f.post(t, f.accountID, "2024-01-02", 0, 30)
	require.NoError(t, f.db.Exec("UPDATE ledger_transactions SET balance = ? WHERE id = ?", "75", broken.ID).Error)

	_, err := f.svc.VerifyChain(ctx, f.tenantID, f.accountID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrIntegrity))

	var brk *ledger.ChainBreak
	require.True(t, errors.As(err, &brk))
	assert.Equal(t, broken.ID, brk.TransactionID)

	entries := f.logs.FilterMessage("Ledger balance chain broken").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)

	assertBalance(t, 75, f.balance(t, broken.ID))
}
