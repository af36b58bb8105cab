package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/huzaifanasir-fabtechsol/backend/internal/application/scope"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/ledger"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/logger"
)

// Service handles bank accounts and ledger transactions
type Service struct {
	store          scope.Store
	balances       *BalanceMaintainer
	logger         *zap.Logger
	eventPublisher shared.EventPublisher
}

// NewService creates a new ledger Service
func NewService(store scope.Store, balances *BalanceMaintainer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		balances: balances,
		logger:   logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *Service) publishEvents(ctx context.Context, aggregates ...shared.AggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	for _, agg := range aggregates {
		events := agg.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			logger.For(ctx, s.logger).Warn("Failed to publish ledger events", zap.Error(err))
		}
		agg.ClearDomainEvents()
	}
}

// ===================== Bank Accounts =====================

// CreateAccount creates a company bank account
func (s *Service) CreateAccount(ctx context.Context, tenantID, userID uuid.UUID, req CreateBankAccountRequest) (*BankAccountResponse, error) {
	account, err := ledger.NewBankAccount(tenantID, ledger.AccountDetails(req))
	if err != nil {
		return nil, err
	}
	account.SetCreatedBy(userID)
	if err := s.store.BankAccounts().Save(ctx, account); err != nil {
		return nil, err
	}
	response := ToBankAccountResponse(account)
	return &response, nil
}

// GetAccount retrieves a bank account of the tenant
func (s *Service) GetAccount(ctx context.Context, tenantID, id uuid.UUID) (*BankAccountResponse, error) {
	account, err := s.store.BankAccounts().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToBankAccountResponse(account)
	return &response, nil
}

// ListAccounts lists the tenant's bank accounts
func (s *Service) ListAccounts(ctx context.Context, tenantID uuid.UUID, filter BankAccountListFilter) ([]BankAccountResponse, int64, error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
	}
	accounts, err := s.store.BankAccounts().FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.BankAccounts().CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]BankAccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = ToBankAccountResponse(&accounts[i])
	}
	return responses, total, nil
}

// UpdateAccount replaces the descriptive fields of an account. The row is
// locked so a concurrent posting cannot lose its sequence reservation.
func (s *Service) UpdateAccount(ctx context.Context, tenantID, id uuid.UUID, req UpdateBankAccountRequest) (*BankAccountResponse, error) {
	var account *ledger.BankAccount
	err := s.store.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		account, err = s.balances.Lock(ctx, repos, tenantID, id)
		if err != nil {
			return err
		}
		if err := account.UpdateDetails(ledger.AccountDetails(req)); err != nil {
			return err
		}
		return repos.BankAccounts().Save(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	response := ToBankAccountResponse(account)
	return &response, nil
}

// DeleteAccount removes an account that no transaction references
func (s *Service) DeleteAccount(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.store.Execute(ctx, func(repos scope.Repositories) error {
		account, err := s.balances.Lock(ctx, repos, tenantID, id)
		if err != nil {
			return err
		}
		count, err := repos.LedgerTransactions().CountByAccount(ctx, account.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return shared.NewDomainError(shared.CodeConflict,
				fmt.Sprintf("bank account has %d transactions and cannot be deleted", count))
		}
		return repos.BankAccounts().Delete(ctx, tenantID, id)
	})
}

// ===================== Ledger Transactions =====================

// CreateTransaction posts a transaction and recomputes the balances after it
func (s *Service) CreateTransaction(ctx context.Context, tenantID, userID uuid.UUID, req CreateTransactionRequest) (*TransactionResponse, error) {
	tx, err := ledger.NewLedgerTransaction(tenantID, ledger.PostingInput{
		BankAccountID: req.BankAccountID,
		Date:          req.Date.Time,
		Withdraw:      req.Withdraw,
		Deposit:       req.Deposit,
		ExternalID:    req.ExternalID,
		Description:   req.Description,
		Notes:         req.Notes,
	})
	if err != nil {
		return nil, err
	}
	tx.SetCreatedBy(userID)

	var account *ledger.BankAccount
	err = s.store.Execute(ctx, func(repos scope.Repositories) error {
		account, err = s.balances.Lock(ctx, repos, tenantID, tx.BankAccountID)
		if err != nil {
			return err
		}
		_, err = s.balances.Post(ctx, repos, account, []*ledger.LedgerTransaction{tx})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, tx, account)

	response := ToTransactionResponse(tx)
	return &response, nil
}

// GetTransaction retrieves a transaction of the tenant
func (s *Service) GetTransaction(ctx context.Context, tenantID, id uuid.UUID) (*TransactionResponse, error) {
	tx, err := s.store.LedgerTransactions().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToTransactionResponse(tx)
	return &response, nil
}

// ListTransactions lists transactions with filtering and pagination
func (s *Service) ListTransactions(ctx context.Context, tenantID uuid.UUID, filter TransactionListFilter) ([]TransactionResponse, int64, error) {
	domainFilter := filter.toDomain()
	txs, err := s.store.LedgerTransactions().FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.LedgerTransactions().CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]TransactionResponse, len(txs))
	for i := range txs {
		responses[i] = ToTransactionResponse(&txs[i])
	}
	return responses, total, nil
}

// UpdateTransaction applies a partial update. Changing amounts or date
// re-walks the chain from the earlier of the old and new positions; moving
// to another account re-walks both chains.
func (s *Service) UpdateTransaction(ctx context.Context, tenantID, id uuid.UUID, req UpdateTransactionRequest) (*TransactionResponse, error) {
	var (
		tx       *ledger.LedgerTransaction
		touched  []shared.AggregateRoot
		response TransactionResponse
	)
	err := s.store.Execute(ctx, func(repos scope.Repositories) error {
		current, err := repos.LedgerTransactions().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}

		target := current.BankAccountID
		if req.BankAccountID != nil && *req.BankAccountID != uuid.Nil {
			target = *req.BankAccountID
		}
		accounts, err := s.lockAccounts(ctx, repos, tenantID, current.BankAccountID, target)
		if err != nil {
			return err
		}
		// reload under the lock so the balance we save is not stale
		tx, err = repos.LedgerTransactions().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}

		oldPos := tx.Position()
		affects, err := tx.Apply(req.patch())
		if err != nil {
			return err
		}

		source := accounts[tx.BankAccountID]
		if target != tx.BankAccountID {
			dest := accounts[target]
			tx.BankAccountID = target
			tx.Sequence = dest.ReserveSequences(1)
			if err := repos.BankAccounts().Save(ctx, dest); err != nil {
				return err
			}
			if err := repos.LedgerTransactions().Save(ctx, tx); err != nil {
				return err
			}
			if _, err := s.balances.Remove(ctx, repos, source, oldPos); err != nil {
				return err
			}
			if _, err := s.balances.Move(ctx, repos, dest, tx, tx.Position()); err != nil {
				return err
			}
			touched = append(touched, source, dest)
		} else {
			if err := repos.LedgerTransactions().Save(ctx, tx); err != nil {
				return err
			}
			if affects {
				if _, err := s.balances.Move(ctx, repos, source, tx, oldPos); err != nil {
					return err
				}
			}
			touched = append(touched, source)
		}

		stored, err := repos.LedgerTransactions().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		response = ToTransactionResponse(stored)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, touched...)
	return &response, nil
}

// DeleteTransaction removes a transaction, clears expense and order links
// to it and recomputes the balances after it
func (s *Service) DeleteTransaction(ctx context.Context, tenantID, id uuid.UUID) error {
	var (
		tx      *ledger.LedgerTransaction
		account *ledger.BankAccount
	)
	err := s.store.Execute(ctx, func(repos scope.Repositories) error {
		current, err := repos.LedgerTransactions().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		account, err = s.balances.Lock(ctx, repos, tenantID, current.BankAccountID)
		if err != nil {
			return err
		}
		tx, err = repos.LedgerTransactions().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := repos.Expenses().UnlinkTransaction(ctx, tenantID, tx.ID); err != nil {
			return err
		}
		if err := repos.Orders().UnlinkTransaction(ctx, tenantID, tx.ID); err != nil {
			return err
		}
		if err := repos.LedgerTransactions().Delete(ctx, tenantID, tx.ID); err != nil {
			return err
		}
		_, err = s.balances.Remove(ctx, repos, account, tx.Position())
		return err
	})
	if err != nil {
		return err
	}
	tx.AddDomainEvent(ledger.NewTransactionRemovedEvent(tx))
	s.publishEvents(ctx, tx, account)
	return nil
}

// lockAccounts locks one or two accounts in a fixed order so two requests
// moving transactions in opposite directions cannot deadlock
func (s *Service) lockAccounts(ctx context.Context, repos scope.Repositories, tenantID uuid.UUID, ids ...uuid.UUID) (map[uuid.UUID]*ledger.BankAccount, error) {
	ordered := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if len(ordered) == 1 && ordered[0] == id {
			continue
		}
		ordered = append(ordered, id)
	}
	if len(ordered) == 2 && ordered[1].String() < ordered[0].String() {
		ordered[0], ordered[1] = ordered[1], ordered[0]
	}

	accounts := make(map[uuid.UUID]*ledger.BankAccount, len(ordered))
	for _, id := range ordered {
		account, err := s.balances.Lock(ctx, repos, tenantID, id)
		if err != nil {
			return nil, err
		}
		accounts[id] = account
	}
	return accounts, nil
}

// ===================== Statements and verification =====================

// AccountStatement returns the rows of an account in [from, to] in chain
// order, with the balance carried in from before the period
func (s *Service) AccountStatement(ctx context.Context, tenantID, accountID uuid.UUID, from, to *time.Time) (*StatementResponse, error) {
	account, err := s.store.BankAccounts().FindByIDForTenant(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}
	txRepo := s.store.LedgerTransactions()

	statement := &StatementResponse{
		Account:        ToBankAccountResponse(account),
		OpeningBalance: decimal.Zero,
		TotalDeposit:   decimal.Zero,
		TotalWithdraw:  decimal.Zero,
		Rows:           []TransactionResponse{},
	}

	var rows []*ledger.LedgerTransaction
	if from != nil {
		start := ledger.Position{Date: ledger.NormalizeDate(*from)}
		anchor, err := txRepo.FindLatestBefore(ctx, account.ID, start, uuid.Nil)
		if err != nil {
			return nil, err
		}
		if anchor != nil {
			statement.OpeningBalance = anchor.Balance
		}
		rows, err = txRepo.FindFrom(ctx, account.ID, start)
		if err != nil {
			return nil, err
		}
		d := shared.NewDate(*from)
		statement.From = &d
	} else {
		rows, err = txRepo.FindChain(ctx, account.ID)
		if err != nil {
			return nil, err
		}
	}

	var end time.Time
	if to != nil {
		end = ledger.NormalizeDate(*to)
		d := shared.NewDate(end)
		statement.To = &d
	}

	statement.ClosingBalance = statement.OpeningBalance
	for _, tx := range rows {
		if to != nil && tx.Date.After(end) {
			break
		}
		statement.Rows = append(statement.Rows, ToTransactionResponse(tx))
		statement.TotalDeposit = statement.TotalDeposit.Add(tx.Deposit)
		statement.TotalWithdraw = statement.TotalWithdraw.Add(tx.Withdraw)
		statement.ClosingBalance = tx.Balance
	}
	return statement, nil
}

// VerifyChain walks the account's chain from zero. A broken chain is an
// integrity error; it is reported, never repaired here.
func (s *Service) VerifyChain(ctx context.Context, tenantID, accountID uuid.UUID) (*ChainReport, error) {
	account, err := s.store.BankAccounts().FindByIDForTenant(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}
	chain, err := s.balances.Verify(ctx, s.store, account)
	if err != nil {
		return nil, err
	}
	report := &ChainReport{
		BankAccountID:  account.ID,
		Transactions:   len(chain),
		ClosingBalance: decimal.Zero,
		Valid:          true,
	}
	if len(chain) > 0 {
		report.ClosingBalance = chain[len(chain)-1].Balance
	}
	return report, nil
}
