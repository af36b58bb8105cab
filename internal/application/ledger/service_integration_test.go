//go:build integration

package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/persistence"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/persistence/persistencetest"
)

func TestService_Postgres_ConcurrentBackdatedPosts(t *testing.T) {
	log := zap.NewNop()
	svc := NewService(persistence.NewGormStore(persistencetest.NewPostgresDB(t)), NewBalanceMaintainer(log), log)
	ctx := context.Background()
	tenantID, userID := uuid.New(), uuid.New()

	account, err := svc.CreateAccount(ctx, tenantID, userID, CreateBankAccountRequest{BankName: "MUFG"})
	require.NoError(t, err)

	const workers = 24
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// dates go backwards so most posts rewrite later balances
			day := shared.NewDate(time.Date(2024, 3, 28-i, 0, 0, 0, 0, time.UTC))
			req := CreateTransactionRequest{BankAccountID: account.ID, Date: day}
			if i%4 == 0 {
				req.Withdraw = decimal.NewFromInt(5)
			} else {
				req.Deposit = decimal.NewFromInt(20)
			}
			_, err := svc.CreateTransaction(ctx, tenantID, userID, req)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	report, err := svc.VerifyChain(ctx, tenantID, account.ID)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, workers, report.Transactions)
	assert.True(t, report.ClosingBalance.Equal(decimal.NewFromInt(18*20-6*5)), report.ClosingBalance.String())
}
