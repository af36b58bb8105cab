package expense

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/huzaifanasir-fabtechsol/backend/internal/application/scope"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/expense"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/logger"
)

// Service handles expense categories and expenses
type Service struct {
	store  scope.Store
	logger *zap.Logger
}

// NewService creates a new expense Service
func NewService(store scope.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// ===================== Categories =====================

// CreateCategory creates an expense category; names are unique per tenant
func (s *Service) CreateCategory(ctx context.Context, tenantID, userID uuid.UUID, req CategoryRequest) (*CategoryResponse, error) {
	category, err := expense.NewCategory(tenantID, req.Name, req.Description)
	if err != nil {
		return nil, err
	}
	category.SetCreatedBy(userID)
	if err := s.store.ExpenseCategories().Create(ctx, category); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError(shared.CodeExists, fmt.Sprintf("expense category '%s' already exists", category.Name))
		}
		return nil, err
	}
	response := ToCategoryResponse(category)
	return &response, nil
}

// ListCategories lists the tenant's expense categories
func (s *Service) ListCategories(ctx context.Context, tenantID uuid.UUID, filter CategoryListFilter) ([]CategoryResponse, int64, error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
	}
	if domainFilter.OrderBy == "" {
		domainFilter.OrderBy, domainFilter.OrderDir = "name", "asc"
	}
	categories, err := s.store.ExpenseCategories().FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.ExpenseCategories().CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]CategoryResponse, len(categories))
	for i := range categories {
		responses[i] = ToCategoryResponse(&categories[i])
	}
	return responses, total, nil
}

// UpdateCategory renames a category
func (s *Service) UpdateCategory(ctx context.Context, tenantID, id uuid.UUID, req CategoryRequest) (*CategoryResponse, error) {
	category, err := s.store.ExpenseCategories().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := category.Update(req.Name, req.Description); err != nil {
		return nil, err
	}
	if err := s.store.ExpenseCategories().Save(ctx, category); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError(shared.CodeExists, fmt.Sprintf("expense category '%s' already exists", category.Name))
		}
		return nil, err
	}
	response := ToCategoryResponse(category)
	return &response, nil
}

// DeleteCategory removes a category; its expenses stay, uncategorised
func (s *Service) DeleteCategory(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.store.Execute(ctx, func(repos scope.Repositories) error {
		return repos.ExpenseCategories().Delete(ctx, tenantID, id)
	})
}

// ===================== Expenses =====================

// Create records an expense. Category and ledger links must exist in the tenant.
func (s *Service) Create(ctx context.Context, tenantID, userID uuid.UUID, req ExpenseRequest) (*ExpenseResponse, error) {
	e, err := expense.NewExpense(tenantID, req.input())
	if err != nil {
		return nil, err
	}
	e.SetCreatedBy(userID)

	var categoryName string
	err = s.store.Execute(ctx, func(repos scope.Repositories) error {
		categoryName, err = s.checkLinks(ctx, repos, e)
		if err != nil {
			return err
		}
		return repos.Expenses().Create(ctx, e)
	})
	if err != nil {
		return nil, err
	}

	logger.For(ctx, s.logger).Info("Expense recorded",
		zap.String("expense_id", e.ID.String()),
		zap.String("amount", e.Amount.String()),
	)
	response := ToExpenseResponse(e, categoryName)
	return &response, nil
}

// GetByID retrieves an expense of the tenant
func (s *Service) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*ExpenseResponse, error) {
	e, err := s.store.Expenses().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	names, err := s.categoryNames(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	response := ToExpenseResponse(e, names[categoryKey(e.CategoryID)])
	return &response, nil
}

// List lists expenses with filtering and pagination
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter ExpenseListFilter) ([]ExpenseResponse, int64, error) {
	domainFilter := filter.toDomain()
	expenses, err := s.store.Expenses().FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.Expenses().CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	names, err := s.categoryNames(ctx, tenantID)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		responses[i] = ToExpenseResponse(&expenses[i], names[categoryKey(expenses[i].CategoryID)])
	}
	return responses, total, nil
}

// Update replaces an expense's fields
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req ExpenseRequest) (*ExpenseResponse, error) {
	var (
		e            *expense.Expense
		categoryName string
	)
	err := s.store.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		e, err = repos.Expenses().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := e.Update(req.input()); err != nil {
			return err
		}
		categoryName, err = s.checkLinks(ctx, repos, e)
		if err != nil {
			return err
		}
		return repos.Expenses().Save(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	response := ToExpenseResponse(e, categoryName)
	return &response, nil
}

// Delete removes an expense
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.store.Expenses().Delete(ctx, tenantID, id)
}

// checkLinks verifies the category and ledger transaction belong to the
// expense's tenant and returns the category name
func (s *Service) checkLinks(ctx context.Context, repos scope.Repositories, e *expense.Expense) (string, error) {
	var name string
	if e.CategoryID != nil {
		category, err := repos.ExpenseCategories().FindByIDForTenant(ctx, e.TenantID, *e.CategoryID)
		if errors.Is(err, shared.ErrNotFound) {
			return "", shared.NewValidationError("expense category %s does not exist", *e.CategoryID)
		}
		if err != nil {
			return "", err
		}
		name = category.Name
	}
	if e.LedgerTransactionID != nil {
		_, err := repos.LedgerTransactions().FindByIDForTenant(ctx, e.TenantID, *e.LedgerTransactionID)
		if errors.Is(err, shared.ErrNotFound) {
			return "", shared.NewValidationError("transaction %s does not exist", *e.LedgerTransactionID)
		}
		if err != nil {
			return "", err
		}
	}
	return name, nil
}

func (s *Service) categoryNames(ctx context.Context, tenantID uuid.UUID) (map[string]string, error) {
	categories, err := s.store.ExpenseCategories().FindAllForTenant(ctx, tenantID, shared.Filter{Page: 1, PageSize: 200})
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID.String()] = c.Name
	}
	return names, nil
}

func categoryKey(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
