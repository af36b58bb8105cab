package bulk

import (
	"strings"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

// Built-in feed profile names
const (
	ProfileExpenseSheet = "expense-sheet"
	ProfileBankFeed     = "bank-feed"
)

// ColumnMap addresses feed fields by position. A negative index counts from
// the end of the row; nil means the feed has no such column.
type ColumnMap struct {
	Date        int
	Amount      *int
	Deposit     *int
	Withdraw    *int
	Balance     *int
	Account     *int
	Description *int
	ExternalID  *int
}

// FeedProfile describes one external feed layout and how its rows post.
//
// A profile with an Amount column books every row as a withdrawal of that
// amount; otherwise Deposit and Withdraw are read separately. The feed's own
// Balance column is informational only, running balances are always
// recomputed from the chain.
type FeedProfile struct {
	Name      string
	HasHeader bool
	Delimiter rune
	// MinColumns rejects shorter rows; zero derives it from the mapping
	MinColumns int
	Columns    ColumnMap
	// MatchExternalID reuses the tenant's first transaction carrying the
	// row's external id instead of posting a new one
	MatchExternalID bool
	// ExpenseTitle, when set, creates one expense per accepted row
	ExpenseTitle    string
	ExpenseCategory string
}

// Col returns a pointer to a column index, for building column maps
func Col(i int) *int {
	return &i
}

// ExpenseSheetProfile is the toll sheet export: date, amount, ..., transaction id
func ExpenseSheetProfile() FeedProfile {
	return FeedProfile{
		Name:      ProfileExpenseSheet,
		HasHeader: true,
		Delimiter: ',',
		Columns: ColumnMap{
			Date:       0,
			Amount:     Col(1),
			ExternalID: Col(-1),
		},
		MinColumns:      3,
		MatchExternalID: true,
		ExpenseTitle:    "Highway",
		ExpenseCategory: "Highway",
	}
}

// BankFeedProfile is the raw bank statement: date, deposit, withdraw, balance, account
func BankFeedProfile() FeedProfile {
	return FeedProfile{
		Name:      ProfileBankFeed,
		HasHeader: false,
		Delimiter: ',',
		Columns: ColumnMap{
			Date:     0,
			Deposit:  Col(1),
			Withdraw: Col(2),
			Balance:  Col(3),
			Account:  Col(4),
		},
	}
}

// Validate checks that the mapping can produce postings
func (p FeedProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return shared.NewValidationError("feed profile name is required")
	}
	c := p.Columns
	if c.Amount == nil && c.Deposit == nil && c.Withdraw == nil {
		return shared.NewValidationError("feed profile %s maps no amount, deposit or withdraw column", p.Name)
	}
	if c.Amount != nil && (c.Deposit != nil || c.Withdraw != nil) {
		return shared.NewValidationError("feed profile %s maps amount together with deposit/withdraw", p.Name)
	}
	if p.MatchExternalID && c.ExternalID == nil {
		return shared.NewValidationError("feed profile %s matches by external id but maps no external id column", p.Name)
	}
	if p.MinColumns < 0 {
		return shared.NewValidationError("feed profile %s has a negative minimum column count", p.Name)
	}
	return nil
}

// CreatesExpenses reports whether accepted rows also book an expense
func (p FeedProfile) CreatesExpenses() bool {
	return strings.TrimSpace(p.ExpenseTitle) != ""
}

// RequiredColumns is the shortest acceptable row length: MinColumns, or one
// past the highest non-negative index, or the count implied by negative ones
func (p FeedProfile) RequiredColumns() int {
	need := p.MinColumns
	for _, idx := range p.Columns.indexes() {
		n := idx + 1
		if idx < 0 {
			n = -idx
		}
		if n > need {
			need = n
		}
	}
	return need
}

func (c ColumnMap) indexes() []int {
	out := []int{c.Date}
	for _, p := range []*int{c.Amount, c.Deposit, c.Withdraw, c.Balance, c.Account, c.Description, c.ExternalID} {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}
