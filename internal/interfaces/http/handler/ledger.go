package handler

import (
	"github.com/gin-gonic/gin"

	ledgerapp "github.com/huzaifanasir-fabtechsol/backend/internal/application/ledger"
)

// LedgerHandler serves bank accounts and their transaction ledgers
type LedgerHandler struct {
	BaseHandler
	service *ledgerapp.Service
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(service *ledgerapp.Service) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// TransactionListQuery filters the transaction list
type TransactionListQuery struct {
	ListQuery
	BankAccount string `form:"bank_account"`
	Date        string `form:"date"`
	FromDate    string `form:"from_date"`
	ToDate      string `form:"to_date"`
}

// StatementQuery bounds an account statement
type StatementQuery struct {
	FromDate string `form:"from_date"`
	ToDate   string `form:"to_date"`
}

// CreateAccount godoc
// @ID           createBankAccount
// @Summary      Create a bank account
// @Description  Register a company bank account that ledger transactions post to
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        request body ledgerapp.CreateBankAccountRequest true "Bank account"
// @Success      201 {object} APIResponse[ledgerapp.BankAccountResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bank-accounts [post]
func (h *LedgerHandler) CreateAccount(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req ledgerapp.CreateBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	account, err := h.service.CreateAccount(c.Request.Context(), tenantID, userFrom(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// GetAccount godoc
// @ID           getBankAccount
// @Summary      Get a bank account
// @Tags         ledger
// @Produce      json
// @Param        id path string true "Bank account ID" format(uuid)
// @Success      200 {object} APIResponse[ledgerapp.BankAccountResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bank-accounts/{id} [get]
func (h *LedgerHandler) GetAccount(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "bank account")
	if !ok {
		return
	}

	account, err := h.service.GetAccount(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// ListAccounts godoc
// @ID           listBankAccounts
// @Summary      List bank accounts
// @Tags         ledger
// @Produce      json
// @Param        search query string false "Search bank name, number or holder"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Param        order_by query string false "Sort field"
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]ledgerapp.BankAccountResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bank-accounts [get]
func (h *LedgerHandler) ListAccounts(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	accounts, total, err := h.service.ListAccounts(c.Request.Context(), tenantID, ledgerapp.BankAccountListFilter{
		Search:   q.Search,
		Page:     q.page(),
		PageSize: q.pageSize(),
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, accounts, total, q.page(), q.pageSize())
}

// UpdateAccount godoc
// @ID           updateBankAccount
// @Summary      Update a bank account
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        id path string true "Bank account ID" format(uuid)
// @Param        request body ledgerapp.UpdateBankAccountRequest true "Bank account"
// @Success      200 {object} APIResponse[ledgerapp.BankAccountResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bank-accounts/{id} [put]
func (h *LedgerHandler) UpdateAccount(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "bank account")
	if !ok {
		return
	}

	var req ledgerapp.UpdateBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	account, err := h.service.UpdateAccount(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// DeleteAccount godoc
// @ID           deleteBankAccount
// @Summary      Delete a bank account
// @Description  Only accounts without ledger transactions can be deleted
// @Tags         ledger
// @Param        id path string true "Bank account ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bank-accounts/{id} [delete]
func (h *LedgerHandler) DeleteAccount(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "bank account")
	if !ok {
		return
	}

	if err := h.service.DeleteAccount(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Statement godoc
// @ID           getBankAccountStatement
// @Summary      Account statement
// @Description  Opening balance, every transaction in the period with its running balance, and period totals
// @Tags         ledger
// @Produce      json
// @Param        id path string true "Bank account ID" format(uuid)
// @Param        from_date query string false "First day (YYYY-MM-DD)"
// @Param        to_date query string false "Last day (YYYY-MM-DD)"
// @Success      200 {object} APIResponse[ledgerapp.StatementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bank-accounts/{id}/statement [get]
func (h *LedgerHandler) Statement(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "bank account")
	if !ok {
		return
	}

	var q StatementQuery
	_ = c.ShouldBindQuery(&q)
	from, err := optionalDate(q.FromDate)
	if err != nil {
		h.BadRequest(c, "Invalid from_date format, expected YYYY-MM-DD")
		return
	}
	to, err := optionalDate(q.ToDate)
	if err != nil {
		h.BadRequest(c, "Invalid to_date format, expected YYYY-MM-DD")
		return
	}

	statement, err := h.service.AccountStatement(c.Request.Context(), tenantID, id, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, statement)
}

// VerifyChain godoc
// @ID           verifyBankAccountChain
// @Summary      Verify the balance chain
// @Description  Recomputes every running balance of the account and reports the first mismatch as an integrity violation
// @Tags         ledger
// @Produce      json
// @Param        id path string true "Bank account ID" format(uuid)
// @Success      200 {object} APIResponse[ledgerapp.ChainReport]
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bank-accounts/{id}/verify [get]
func (h *LedgerHandler) VerifyChain(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "bank account")
	if !ok {
		return
	}

	report, err := h.service.VerifyChain(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// CreateTransaction godoc
// @ID           createLedgerTransaction
// @Summary      Post a ledger transaction
// @Description  Inserts a transaction at its date position; its balance and every later balance of the account are recomputed
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        request body ledgerapp.CreateTransactionRequest true "Transaction"
// @Success      201 {object} APIResponse[ledgerapp.TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /transactions [post]
func (h *LedgerHandler) CreateTransaction(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req ledgerapp.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	tx, err := h.service.CreateTransaction(c.Request.Context(), tenantID, userFrom(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tx)
}

// GetTransaction godoc
// @ID           getLedgerTransaction
// @Summary      Get a ledger transaction
// @Tags         ledger
// @Produce      json
// @Param        id path string true "Transaction ID" format(uuid)
// @Success      200 {object} APIResponse[ledgerapp.TransactionResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /transactions/{id} [get]
func (h *LedgerHandler) GetTransaction(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "transaction")
	if !ok {
		return
	}

	tx, err := h.service.GetTransaction(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// ListTransactions godoc
// @ID           listLedgerTransactions
// @Summary      List ledger transactions
// @Tags         ledger
// @Produce      json
// @Param        search query string false "Search description, notes or transaction id"
// @Param        bank_account query string false "Bank account ID" format(uuid)
// @Param        date query string false "Exact day (YYYY-MM-DD)"
// @Param        from_date query string false "First day (YYYY-MM-DD)"
// @Param        to_date query string false "Last day (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Param        order_by query string false "Sort field" default(date)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]ledgerapp.TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /transactions [get]
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var q TransactionListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	filter := ledgerapp.TransactionListFilter{
		Search:   q.Search,
		Page:     q.page(),
		PageSize: q.pageSize(),
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	}
	var err error
	if filter.BankAccountID, err = optionalUUID(q.BankAccount); err != nil {
		h.BadRequest(c, "Invalid bank_account format")
		return
	}
	if filter.Date, err = optionalDate(q.Date); err != nil {
		h.BadRequest(c, "Invalid date format, expected YYYY-MM-DD")
		return
	}
	if filter.FromDate, err = optionalDate(q.FromDate); err != nil {
		h.BadRequest(c, "Invalid from_date format, expected YYYY-MM-DD")
		return
	}
	if filter.ToDate, err = optionalDate(q.ToDate); err != nil {
		h.BadRequest(c, "Invalid to_date format, expected YYYY-MM-DD")
		return
	}

	txs, total, err := h.service.ListTransactions(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, txs, total, q.page(), q.pageSize())
}

// UpdateTransaction godoc
// @ID           updateLedgerTransaction
// @Summary      Update a ledger transaction
// @Description  Partial update. Moving the date or account or changing an amount recomputes the affected balance chains.
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        id path string true "Transaction ID" format(uuid)
// @Param        request body ledgerapp.UpdateTransactionRequest true "Fields to change"
// @Success      200 {object} APIResponse[ledgerapp.TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /transactions/{id} [patch]
func (h *LedgerHandler) UpdateTransaction(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "transaction")
	if !ok {
		return
	}

	var req ledgerapp.UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	tx, err := h.service.UpdateTransaction(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// DeleteTransaction godoc
// @ID           deleteLedgerTransaction
// @Summary      Delete a ledger transaction
// @Description  Later balances of the account are recomputed and order or expense links to it are cleared
// @Tags         ledger
// @Param        id path string true "Transaction ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /transactions/{id} [delete]
func (h *LedgerHandler) DeleteTransaction(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "transaction")
	if !ok {
		return
	}

	if err := h.service.DeleteTransaction(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
