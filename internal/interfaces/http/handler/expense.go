package handler

import (
	"github.com/gin-gonic/gin"

	expenseapp "github.com/huzaifanasir-fabtechsol/backend/internal/application/expense"
)

// ExpenseHandler serves expenses and their categories
type ExpenseHandler struct {
	BaseHandler
	service *expenseapp.Service
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(service *expenseapp.Service) *ExpenseHandler {
	return &ExpenseHandler{service: service}
}

// ExpenseListQuery filters the expense list
type ExpenseListQuery struct {
	ListQuery
	Category string `form:"category"`
	FromDate string `form:"from_date"`
	ToDate   string `form:"to_date"`
}

// CreateCategory godoc
// @ID           createExpenseCategory
// @Summary      Create an expense category
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        request body expenseapp.CategoryRequest true "Category"
// @Success      201 {object} APIResponse[expenseapp.CategoryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /expense-categories [post]
func (h *ExpenseHandler) CreateCategory(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req expenseapp.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	category, err := h.service.CreateCategory(c.Request.Context(), tenantID, userFrom(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, category)
}

// ListCategories godoc
// @ID           listExpenseCategories
// @Summary      List expense categories
// @Tags         expenses
// @Produce      json
// @Param        search query string false "Search name"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Success      200 {object} APIResponse[[]expenseapp.CategoryResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /expense-categories [get]
func (h *ExpenseHandler) ListCategories(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	categories, total, err := h.service.ListCategories(c.Request.Context(), tenantID, expenseapp.CategoryListFilter{
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
	h.SuccessWithMeta(c, categories, total, q.page(), q.pageSize())
}

// UpdateCategory godoc
// @ID           updateExpenseCategory
// @Summary      Rename an expense category
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path string true "Category ID" format(uuid)
// @Param        request body expenseapp.CategoryRequest true "Category"
// @Success      200 {object} APIResponse[expenseapp.CategoryResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /expense-categories/{id} [put]
func (h *ExpenseHandler) UpdateCategory(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "category")
	if !ok {
		return
	}

	var req expenseapp.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	category, err := h.service.UpdateCategory(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, category)
}

// DeleteCategory godoc
// @ID           deleteExpenseCategory
// @Summary      Delete an expense category
// @Tags         expenses
// @Param        id path string true "Category ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /expense-categories/{id} [delete]
func (h *ExpenseHandler) DeleteCategory(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "category")
	if !ok {
		return
	}

	if err := h.service.DeleteCategory(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Create godoc
// @ID           createExpense
// @Summary      Record an expense
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        request body expenseapp.ExpenseRequest true "Expense"
// @Success      201 {object} APIResponse[expenseapp.ExpenseResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req expenseapp.ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	exp, err := h.service.Create(c.Request.Context(), tenantID, userFrom(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, exp)
}

// GetByID godoc
// @ID           getExpense
// @Summary      Get an expense
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Success      200 {object} APIResponse[expenseapp.ExpenseResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /expenses/{id} [get]
func (h *ExpenseHandler) GetByID(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "expense")
	if !ok {
		return
	}

	exp, err := h.service.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, exp)
}

// List godoc
// @ID           listExpenses
// @Summary      List expenses
// @Tags         expenses
// @Produce      json
// @Param        search query string false "Search title or description"
// @Param        category query string false "Category ID" format(uuid)
// @Param        from_date query string false "First day (YYYY-MM-DD)"
// @Param        to_date query string false "Last day (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Param        order_by query string false "Sort field" default(date)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]expenseapp.ExpenseResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var q ExpenseListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	filter := expenseapp.ExpenseListFilter{
		Search:   q.Search,
		Page:     q.page(),
		PageSize: q.pageSize(),
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	}
	var err error
	if filter.CategoryID, err = optionalUUID(q.Category); err != nil {
		h.BadRequest(c, "Invalid category format")
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

	expenses, total, err := h.service.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, expenses, total, q.page(), q.pageSize())
}

// Update godoc
// @ID           updateExpense
// @Summary      Replace an expense
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Param        request body expenseapp.ExpenseRequest true "Expense"
// @Success      200 {object} APIResponse[expenseapp.ExpenseResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "expense")
	if !ok {
		return
	}

	var req expenseapp.ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	exp, err := h.service.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, exp)
}

// Delete godoc
// @ID           deleteExpense
// @Summary      Delete an expense
// @Tags         expenses
// @Param        id path string true "Expense ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "expense")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
