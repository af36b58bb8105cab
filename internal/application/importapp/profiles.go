package importapp

import (
	"sort"
	"strings"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/bulk"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

// ProfileRegistry holds the feed profiles an import can select
type ProfileRegistry struct {
	profiles map[string]bulk.FeedProfile
}

// NewProfileRegistry registers the built-in profiles followed by extra.
// An extra profile with a built-in name replaces it.
func NewProfileRegistry(extra ...bulk.FeedProfile) (*ProfileRegistry, error) {
	r := &ProfileRegistry{profiles: make(map[string]bulk.FeedProfile)}
	r.profiles[bulk.ProfileExpenseSheet] = bulk.ExpenseSheetProfile()
	r.profiles[bulk.ProfileBankFeed] = bulk.BankFeedProfile()

	seen := make(map[string]bool, len(extra))
	for _, p := range extra {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		key := strings.ToLower(strings.TrimSpace(p.Name))
		if seen[key] {
			return nil, shared.NewValidationError("feed profile %s is declared twice", p.Name)
		}
		seen[key] = true
		if p.Delimiter == 0 {
			p.Delimiter = ','
		}
		p.Name = key
		r.profiles[key] = p
	}
	return r, nil
}

// Get returns the named profile
func (r *ProfileRegistry) Get(name string) (bulk.FeedProfile, error) {
	p, ok := r.profiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return bulk.FeedProfile{}, shared.NewValidationError("unknown feed profile '%s'", name)
	}
	return p, nil
}

// Names lists the registered profiles alphabetically
func (r *ProfileRegistry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
