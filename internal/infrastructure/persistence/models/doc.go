// Package models holds the GORM persistence models. Each model maps one
// aggregate (or child entity) to a table and converts to and from the domain
// type with ToDomain / XModelFromDomain.
package models

// AllModels lists every model in dependency order, for AutoMigrate in tests
// and local sqlite runs
func AllModels() []any {
	return []any{
		&BankAccountModel{},
		&LedgerTransactionModel{},
		&CarCategoryModel{},
		&CarModel{},
		&CounterpartyModel{},
		&AuctionModel{},
		&OrderModel{},
		&OrderItemModel{},
		&OrderNumberSequenceModel{},
		&ExpenseCategoryModel{},
		&ExpenseModel{},
		&ImportHistoryModel{},
	}
}
