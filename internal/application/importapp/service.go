package importapp

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	ledgerapp "github.com/huzaifanasir-fabtechsol/backend/internal/application/ledger"
	"github.com/huzaifanasir-fabtechsol/backend/internal/application/scope"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/bulk"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/expense"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/ledger"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
	csvimport "github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/import"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/logger"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/telemetry"
)

const noAccountNote = "Provide bank_account_id in the request or create a bank account to allow creating new transactions."

// FeedArchive keeps a copy of every imported feed
type FeedArchive interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
}

// ArchiveLinker is implemented by archives that can hand out download links.
// A zero expiry selects the archive's default.
type ArchiveLinker interface {
	DownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// ServiceConfig carries import limits
type ServiceConfig struct {
	MaxFileSize    int64
	MaxErrors      int
	IdempotencyTTL time.Duration
}

// Service runs reconciliation imports: one feed, one profile, one
// storage transaction
type Service struct {
	store          scope.Store
	balances       *ledgerapp.BalanceMaintainer
	profiles       *ProfileRegistry
	cfg            ServiceConfig
	archive        FeedArchive
	idempotency    shared.IdempotencyStore
	logger         *zap.Logger
	eventPublisher shared.EventPublisher
}

// NewService creates a new import Service
func NewService(
	store scope.Store,
	balances *ledgerapp.BalanceMaintainer,
	profiles *ProfileRegistry,
	cfg ServiceConfig,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = 100
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}
	return &Service{
		store:    store,
		balances: balances,
		profiles: profiles,
		cfg:      cfg,
		logger:   logger,
	}
}

// SetArchive enables archiving of raw feeds
func (s *Service) SetArchive(archive FeedArchive) {
	s.archive = archive
}

// SetIdempotencyStore enables the Idempotency-Key guard
func (s *Service) SetIdempotencyStore(store shared.IdempotencyStore) {
	s.idempotency = store
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Profiles lists the selectable feed profiles
func (s *Service) Profiles() []string {
	return s.profiles.Names()
}

// Import parses data with the selected profile and posts every acceptable
// row atomically. Rejected rows are skipped and reported, they never abort
// the batch.
func (s *Service) Import(ctx context.Context, tenantID, userID uuid.UUID, req ImportRequest) (_ *ImportResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "import", "run",
		attribute.String("import.profile", req.Profile),
		attribute.String("import.source", req.Source),
	)
	defer func() { telemetry.EndSpan(span, err) }()
	log := logger.For(ctx, s.logger)

	profile, err := s.profiles.Get(req.Profile)
	if err != nil {
		return nil, err
	}
	if len(req.Data) == 0 {
		return nil, shared.NewValidationError("file is required")
	}
	if s.cfg.MaxFileSize > 0 && int64(len(req.Data)) > s.cfg.MaxFileSize {
		return nil, shared.NewValidationError("%v: %d bytes exceeds the %d byte limit", csvimport.ErrFileTooLarge, len(req.Data), s.cfg.MaxFileSize)
	}

	records, err := feedRecords(req, profile)
	if err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" && s.idempotency != nil {
		key := fmt.Sprintf("import:%s:%s", tenantID, req.IdempotencyKey)
		claimed, claimErr := s.idempotency.MarkProcessed(ctx, key, s.cfg.IdempotencyTTL)
		if claimErr != nil {
			return nil, fmt.Errorf("claim idempotency key: %w", claimErr)
		}
		if !claimed {
			return nil, shared.NewDomainError(shared.CodeConflict, "an import with this Idempotency-Key was already accepted")
		}
		defer func() {
			if err == nil {
				return
			}
			if relErr := s.idempotency.Release(ctx, key); relErr != nil {
				log.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
			}
		}()
	}

	history, err := bulk.NewImportHistory(tenantID, userID, profile.Name, req.FileName, int64(len(req.Data)))
	if err != nil {
		return nil, err
	}
	history.Source = req.Source
	history.IdempotencyKey = req.IdempotencyKey
	history.BankAccountID = req.BankAccountID
	if err := history.StartProcessing(); err != nil {
		return nil, err
	}
	s.archiveFeed(ctx, history, req.Data)

	var run *importRun
	err = s.store.Execute(ctx, func(repos scope.Repositories) error {
		run = &importRun{
			repos:    repos,
			balances: s.balances,
			tenantID: tenantID,
			userID:   userID,
			profile:  profile,
			batchID:  history.ID,
			errs:     csvimport.NewErrorCollection(s.cfg.MaxErrors),
			seen:     make(map[string]*ledger.LedgerTransaction),
			pending:  make(map[uuid.UUID][]*ledger.LedgerTransaction),
			accounts: make(map[string]*ledger.BankAccount),
		}
		if err := run.prepare(ctx, req); err != nil {
			return err
		}
		for i := range records {
			if err := run.process(ctx, records[i]); err != nil {
				return err
			}
		}
		if err := run.commit(ctx); err != nil {
			return err
		}
		if err := history.Complete(run.counts(len(records)), run.errs.Errors(), run.note()); err != nil {
			return err
		}
		return repos.Imports().Save(ctx, history)
	})
	if err != nil {
		s.recordFailure(ctx, history, err)
		return nil, err
	}

	log.Info("Feed imported",
		zap.String("import_id", history.ID.String()),
		zap.String("profile", profile.Name),
		zap.Int("total_rows", history.Counts.TotalRows),
		zap.Int("created_transactions", history.Counts.CreatedTransactions),
		zap.Int("reused_transactions", history.Counts.ReusedTransactions),
		zap.Int("created_expenses", history.Counts.CreatedExpenses),
		zap.Int("skipped_rows", history.Counts.SkippedRows),
	)
	s.publishEvents(ctx, run.aggregates(history)...)
	return toImportResponse(history, run.errs.IsTruncated()), nil
}

// ArchiveURL returns a time-limited download link for the archived feed of
// an import run
func (s *Service) ArchiveURL(ctx context.Context, tenantID, id uuid.UUID) (string, time.Time, error) {
	h, err := s.store.Imports().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return "", time.Time{}, err
	}
	linker, ok := s.archive.(ArchiveLinker)
	if !ok || h.ArchiveKey == "" {
		return "", time.Time{}, shared.NewDomainError(shared.CodeNotFound, "import feed was not archived")
	}
	return linker.DownloadURL(ctx, h.ArchiveKey, 0)
}

// GetHistory returns one import run of the tenant
func (s *Service) GetHistory(ctx context.Context, tenantID, id uuid.UUID) (*HistoryResponse, error) {
	h, err := s.store.Imports().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToHistoryResponse(h)
	return &response, nil
}

// ListHistory lists the tenant's import runs, newest first by default
func (s *Service) ListHistory(ctx context.Context, tenantID uuid.UUID, filter HistoryListFilter) ([]HistoryResponse, int64, error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
	}
	if domainFilter.OrderBy == "" {
		domainFilter.OrderBy = "created_at"
		domainFilter.OrderDir = "desc"
	}
	runs, err := s.store.Imports().FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.Imports().CountForTenant(ctx, tenantID)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]HistoryResponse, len(runs))
	for i := range runs {
		responses[i] = ToHistoryResponse(&runs[i])
	}
	return responses, total, nil
}

func feedRecords(req ImportRequest, profile bulk.FeedProfile) ([]csvimport.Record, error) {
	if req.Records == nil {
		return readFeed(req.Data, profile)
	}
	records := req.Records
	if profile.HasHeader && len(records) > 0 {
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, shared.NewValidationError("feed has no data rows")
	}
	return records, nil
}

func readFeed(data []byte, profile bulk.FeedProfile) ([]csvimport.Record, error) {
	delimiter := profile.Delimiter
	if delimiter == 0 {
		delimiter = ','
	}
	reader, err := csvimport.NewFeedReaderFromBytes(data,
		csvimport.WithDelimiter(delimiter),
		csvimport.WithHeader(profile.HasHeader),
	)
	if err != nil {
		return nil, feedError(err)
	}
	records, err := reader.ReadAll()
	if err != nil {
		return nil, feedError(err)
	}
	if len(records) == 0 {
		return nil, shared.NewValidationError("feed has no data rows")
	}
	return records, nil
}

func feedError(err error) error {
	switch {
	case errors.Is(err, csvimport.ErrEmptyFile),
		errors.Is(err, csvimport.ErrInvalidEncoding),
		errors.Is(err, csvimport.ErrMalformedFeed):
		return shared.NewValidationError("%s", err.Error())
	}
	return err
}

func (s *Service) archiveFeed(ctx context.Context, history *bulk.ImportHistory, data []byte) {
	if s.archive == nil {
		return
	}
	key := path.Join(history.TenantID.String(), history.ID.String(), path.Base(history.FileName))
	if err := s.archive.Upload(ctx, key, data, "text/csv"); err != nil {
		logger.For(ctx, s.logger).Warn("Failed to archive import feed",
			zap.String("import_id", history.ID.String()),
			zap.Error(err),
		)
		return
	}
	history.ArchiveKey = key
}

// recordFailure stores the failed run outside the rolled back transaction
func (s *Service) recordFailure(ctx context.Context, history *bulk.ImportHistory, cause error) {
	log := logger.For(ctx, s.logger)
	log.Warn("Feed import rolled back",
		zap.String("import_id", history.ID.String()),
		zap.String("profile", history.Profile),
		zap.Error(cause),
	)
	if err := history.Fail(cause.Error()); err != nil {
		return
	}
	if err := s.store.Imports().Save(ctx, history); err != nil {
		log.Error("Failed to record import failure", zap.Error(err))
	}
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
			logger.For(ctx, s.logger).Warn("Failed to publish import events", zap.Error(err))
		}
		agg.ClearDomainEvents()
	}
}

// importRun is the state of one import inside its storage transaction
type importRun struct {
	repos    scope.Repositories
	balances *ledgerapp.BalanceMaintainer
	tenantID uuid.UUID
	userID   uuid.UUID
	profile  bulk.FeedProfile
	batchID  uuid.UUID
	errs     *csvimport.ErrorCollection

	fallback   *ledger.BankAccount
	categoryID *uuid.UUID
	// accounts caches row account references, nil marks an unknown one
	accounts map[string]*ledger.BankAccount

	// seen maps external ids to the transaction rows with that id settle on
	seen     map[string]*ledger.LedgerTransaction
	pending  map[uuid.UUID][]*ledger.LedgerTransaction
	locked   []*ledger.BankAccount
	expenses []*expense.Expense

	created        int
	reused         int
	skipped        int
	missingAccount bool
}

// parsedRow is a feed row that passed parsing
type parsedRow struct {
	line        int
	date        time.Time
	withdraw    decimal.Decimal
	deposit     decimal.Decimal
	externalID  string
	description string
	accountRef  string
}

func (r *importRun) prepare(ctx context.Context, req ImportRequest) error {
	if req.BankAccountID != nil {
		account, err := r.repos.BankAccounts().FindByIDForTenant(ctx, r.tenantID, *req.BankAccountID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewValidationError("bank_account_id is invalid")
			}
			return err
		}
		r.fallback = account
	} else {
		account, err := r.repos.BankAccounts().FindFirstForTenant(ctx, r.tenantID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		r.fallback = account
	}

	if req.CategoryID != nil && r.profile.CreatesExpenses() {
		category, err := r.repos.ExpenseCategories().FindByIDForTenant(ctx, r.tenantID, *req.CategoryID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewValidationError("category_id is invalid")
			}
			return err
		}
		r.categoryID = &category.ID
	}
	return nil
}

func (r *importRun) skip(line int, column, code, message, value string) {
	r.skipped++
	r.errs.AddRowError(line, column, code, message, value)
}

// parse applies the profile's column mapping. Checks run in a fixed order:
// row length, external id, date, amounts.
func (r *importRun) parse(rec csvimport.Record) (*parsedRow, bool) {
	p := r.profile
	cols := p.Columns
	if need := p.RequiredColumns(); len(rec.Fields) < need {
		r.skip(rec.Line, "", csvimport.ErrCodeImportTooFewColumns,
			fmt.Sprintf("expected at least %d columns, got %d", need, len(rec.Fields)), "")
		return nil, false
	}

	row := &parsedRow{line: rec.Line}
	if cols.ExternalID != nil {
		v, _ := csvimport.Column(rec.Fields, *cols.ExternalID)
		row.externalID = ledger.TruncateExternalID(csvimport.Normalize(v))
	}
	if p.MatchExternalID && row.externalID == "" {
		r.skip(rec.Line, "external_id", csvimport.ErrCodeImportMissingExternal, "transaction id is empty", "")
		return nil, false
	}

	rawDate, _ := csvimport.Column(rec.Fields, cols.Date)
	date, err := csvimport.ParseDate(rawDate)
	if err != nil {
		r.skip(rec.Line, "date", csvimport.ErrCodeImportInvalidDate, fmt.Sprintf("invalid date \"%s\"", rawDate), rawDate)
		return nil, false
	}
	row.date = date

	if cols.Amount != nil {
		raw, _ := csvimport.Column(rec.Fields, *cols.Amount)
		amount, err := csvimport.ParseAmount(raw)
		if err != nil {
			r.skip(rec.Line, "amount", csvimport.ErrCodeImportInvalidAmount, fmt.Sprintf("invalid amount \"%s\"", raw), raw)
			return nil, false
		}
		row.withdraw = amount
	} else {
		for _, m := range []struct {
			column string
			index  *int
			target *decimal.Decimal
		}{
			{"deposit", cols.Deposit, &row.deposit},
			{"withdraw", cols.Withdraw, &row.withdraw},
		} {
			if m.index == nil {
				continue
			}
			raw, _ := csvimport.Column(rec.Fields, *m.index)
			amount, err := csvimport.ParseOptionalAmount(raw)
			if err != nil {
				r.skip(rec.Line, m.column, csvimport.ErrCodeImportInvalidAmount, fmt.Sprintf("invalid %s \"%s\"", m.column, raw), raw)
				return nil, false
			}
			*m.target = amount
		}
	}

	if cols.Description != nil {
		v, _ := csvimport.Column(rec.Fields, *cols.Description)
		row.description = csvimport.Normalize(v)
	}
	if row.description == "" {
		row.description = "Imported from " + strings.ReplaceAll(p.Name, "-", " ")
	}
	if cols.Account != nil {
		v, _ := csvimport.Column(rec.Fields, *cols.Account)
		row.accountRef = csvimport.Normalize(v)
	}
	return row, true
}

// process books one record. Row problems are skipped and reported; only
// storage failures are returned and abort the batch.
func (r *importRun) process(ctx context.Context, rec csvimport.Record) error {
	row, ok := r.parse(rec)
	if !ok {
		return nil
	}

	tx, err := r.match(ctx, row)
	if err != nil {
		return err
	}
	if tx != nil {
		r.reused++
	} else {
		account, err := r.accountFor(ctx, row)
		if err != nil || account == nil {
			return err
		}
		tx, err = ledger.NewLedgerTransaction(r.tenantID, ledger.PostingInput{
			BankAccountID: account.ID,
			Date:          row.date,
			Withdraw:      row.withdraw,
			Deposit:       row.deposit,
			ExternalID:    row.externalID,
			Description:   row.description,
		})
		if err != nil {
			r.skip(row.line, "", csvimport.ErrCodeImportRowRejected, err.Error(), "")
			return nil
		}
		tx.ImportBatchID = &r.batchID
		tx.SetCreatedBy(r.userID)
		r.pending[account.ID] = append(r.pending[account.ID], tx)
		r.created++
		if r.profile.MatchExternalID {
			r.seen[row.externalID] = tx
		}
	}

	if r.profile.CreatesExpenses() {
		return r.addExpense(ctx, row, tx)
	}
	return nil
}

// match finds the transaction an external id already settles on: the first
// one in this batch, else the tenant's earliest stored one
func (r *importRun) match(ctx context.Context, row *parsedRow) (*ledger.LedgerTransaction, error) {
	if !r.profile.MatchExternalID {
		return nil, nil
	}
	if tx, ok := r.seen[row.externalID]; ok {
		return tx, nil
	}
	tx, err := r.repos.LedgerTransactions().FindFirstByExternalID(ctx, r.tenantID, row.externalID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	r.seen[row.externalID] = tx
	return tx, nil
}

// accountFor picks the row's own account when the feed names one, else the
// requested or first account of the tenant. A nil account means the row was
// skipped.
func (r *importRun) accountFor(ctx context.Context, row *parsedRow) (*ledger.BankAccount, error) {
	if row.accountRef != "" {
		account, err := r.lookupAccount(ctx, row.accountRef)
		if err != nil {
			return nil, err
		}
		if account == nil {
			r.skip(row.line, "account", csvimport.ErrCodeImportUnknownAccount,
				fmt.Sprintf("bank account \"%s\" not found", row.accountRef), row.accountRef)
		}
		return account, nil
	}
	if r.fallback == nil {
		r.missingAccount = true
		msg := "no bank account available to create the transaction"
		if row.externalID != "" {
			msg = fmt.Sprintf("transaction \"%s\" not found and no bank account available to create it", row.externalID)
		}
		r.skip(row.line, "", csvimport.ErrCodeImportNoAccount, msg, row.externalID)
		return nil, nil
	}
	return r.fallback, nil
}

// lookupAccount resolves an account id or account number within the tenant
func (r *importRun) lookupAccount(ctx context.Context, ref string) (*ledger.BankAccount, error) {
	if account, ok := r.accounts[ref]; ok {
		return account, nil
	}
	var (
		found *ledger.BankAccount
		err   error
	)
	if id, perr := uuid.Parse(ref); perr == nil {
		found, err = r.repos.BankAccounts().FindByIDForTenant(ctx, r.tenantID, id)
	} else {
		found, err = r.repos.BankAccounts().FindByAccountNumber(ctx, r.tenantID, ref)
	}
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	r.accounts[ref] = found
	return found, nil
}

func (r *importRun) addExpense(ctx context.Context, row *parsedRow, tx *ledger.LedgerTransaction) error {
	categoryID, err := r.category(ctx)
	if err != nil {
		return err
	}
	amount := row.withdraw
	if amount.IsZero() {
		amount = row.deposit
	}
	e, err := expense.NewExpense(r.tenantID, expense.Input{
		Title:               r.profile.ExpenseTitle,
		Amount:              amount,
		Date:                row.date,
		CategoryID:          categoryID,
		LedgerTransactionID: &tx.ID,
	})
	if err != nil {
		return err
	}
	e.ImportBatchID = &r.batchID
	e.SetCreatedBy(r.userID)
	r.expenses = append(r.expenses, e)
	return nil
}

// category resolves the profile's expense category once, creating it on
// first use. A concurrent create is absorbed by retrying the lookup.
func (r *importRun) category(ctx context.Context) (*uuid.UUID, error) {
	if r.categoryID != nil || strings.TrimSpace(r.profile.ExpenseCategory) == "" {
		return r.categoryID, nil
	}
	repo := r.repos.ExpenseCategories()
	found, err := repo.FindByName(ctx, r.tenantID, r.profile.ExpenseCategory)
	if err == nil {
		r.categoryID = &found.ID
		return r.categoryID, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	category, err := expense.NewCategory(r.tenantID, r.profile.ExpenseCategory, "")
	if err != nil {
		return nil, err
	}
	category.SetCreatedBy(r.userID)
	err = r.repos.Savepoint(ctx, func(repos scope.Repositories) error {
		return repos.ExpenseCategories().Create(ctx, category)
	})
	if errors.Is(err, shared.ErrAlreadyExists) {
		found, err = repo.FindByName(ctx, r.tenantID, r.profile.ExpenseCategory)
		if err != nil {
			return nil, err
		}
		r.categoryID = &found.ID
		return r.categoryID, nil
	}
	if err != nil {
		return nil, err
	}
	r.categoryID = &category.ID
	return r.categoryID, nil
}

// commit posts pending transactions one account at a time, locking accounts
// in id order, then stores the expenses
func (r *importRun) commit(ctx context.Context) error {
	ids := make([]uuid.UUID, 0, len(r.pending))
	for id := range r.pending {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	for _, id := range ids {
		account, err := r.balances.Lock(ctx, r.repos, r.tenantID, id)
		if err != nil {
			return err
		}
		if _, err := r.balances.Post(ctx, r.repos, account, r.pending[id]); err != nil {
			return fmt.Errorf("post imported transactions: %w", err)
		}
		r.locked = append(r.locked, account)
	}
	if len(r.expenses) > 0 {
		if err := r.repos.Expenses().CreateBatch(ctx, r.expenses); err != nil {
			return fmt.Errorf("store imported expenses: %w", err)
		}
	}
	return nil
}

func (r *importRun) counts(totalRows int) bulk.ImportCounts {
	return bulk.ImportCounts{
		TotalRows:           totalRows,
		CreatedTransactions: r.created,
		ReusedTransactions:  r.reused,
		CreatedExpenses:     len(r.expenses),
		SkippedRows:         r.skipped,
		TotalErrors:         r.errs.TotalCount(),
	}
}

func (r *importRun) note() string {
	if r.missingAccount {
		return noAccountNote
	}
	return ""
}

func (r *importRun) aggregates(history *bulk.ImportHistory) []shared.AggregateRoot {
	out := []shared.AggregateRoot{history}
	for _, account := range r.locked {
		out = append(out, account)
		for _, tx := range r.pending[account.ID] {
			out = append(out, tx)
		}
	}
	return out
}
