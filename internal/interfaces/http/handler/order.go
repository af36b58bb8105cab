package handler

import (
	"github.com/gin-gonic/gin"

	revenueapp "github.com/huzaifanasir-fabtechsol/backend/internal/application/revenue"
)

// OrderHandler serves vehicle trade orders
type OrderHandler struct {
	BaseHandler
	service *revenueapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(service *revenueapp.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// OrderListQuery filters the order list
type OrderListQuery struct {
	ListQuery
	PaymentStatus       string `form:"payment_status" binding:"omitempty,oneof=pending completed failed"`
	TransactionType     string `form:"transaction_type" binding:"omitempty,oneof=sale auction nagare purchase"`
	TransactionCategory string `form:"transaction_catagory" binding:"omitempty,oneof=local foreign"`
	FromDate            string `form:"from_date"`
	ToDate              string `form:"to_date"`
}

// Create godoc
// @ID           createOrder
// @Summary      Create an order with its items
// @Description  Resolves or creates the referenced cars and categories, prices every item with the order's fee schedule and allocates the next order number of the type
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body revenueapp.SaveOrderRequest true "Order with items"
// @Success      201 {object} APIResponse[revenueapp.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req revenueapp.SaveOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.service.CreateWithItems(c.Request.Context(), tenantID, userFrom(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// Update godoc
// @ID           updateOrder
// @Summary      Replace an order and its items
// @Description  Every item is replaced; the order number is kept. Send version to guard against concurrent edits.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body revenueapp.SaveOrderRequest true "Order with items"
// @Success      200 {object} APIResponse[revenueapp.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id} [put]
func (h *OrderHandler) Update(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "order")
	if !ok {
		return
	}

	var req revenueapp.SaveOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.service.UpdateWithItems(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// GetByID godoc
// @ID           getOrder
// @Summary      Get an order with its items
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[revenueapp.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetByID(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "order")
	if !ok {
		return
	}

	order, err := h.service.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// List godoc
// @ID           listOrders
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Param        search query string false "Search order number or customer"
// @Param        payment_status query string false "Payment status" Enums(pending, completed, failed)
// @Param        transaction_type query string false "Order type" Enums(sale, auction, nagare, purchase)
// @Param        transaction_catagory query string false "Order category" Enums(local, foreign)
// @Param        from_date query string false "First day (YYYY-MM-DD)"
// @Param        to_date query string false "Last day (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Param        order_by query string false "Sort field" default(transaction_date)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]revenueapp.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var q OrderListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	filter := revenueapp.OrderListFilter{
		Search:              q.Search,
		PaymentStatus:       q.PaymentStatus,
		TransactionType:     q.TransactionType,
		TransactionCategory: q.TransactionCategory,
		Page:                q.page(),
		PageSize:            q.pageSize(),
		OrderBy:             q.OrderBy,
		OrderDir:            q.OrderDir,
	}
	var err error
	if filter.FromDate, err = optionalDate(q.FromDate); err != nil {
		h.BadRequest(c, "Invalid from_date format, expected YYYY-MM-DD")
		return
	}
	if filter.ToDate, err = optionalDate(q.ToDate); err != nil {
		h.BadRequest(c, "Invalid to_date format, expected YYYY-MM-DD")
		return
	}

	orders, total, err := h.service.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, q.page(), q.pageSize())
}

// UpdatePaymentStatus godoc
// @ID           updateOrderPaymentStatus
// @Summary      Change an order's payment status
// @Description  Optionally links the ledger transaction that settled the order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body revenueapp.UpdatePaymentStatusRequest true "Payment status"
// @Success      200 {object} APIResponse[revenueapp.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/payment-status [patch]
func (h *OrderHandler) UpdatePaymentStatus(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "order")
	if !ok {
		return
	}

	var req revenueapp.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.service.UpdatePaymentStatus(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Delete godoc
// @ID           deleteOrder
// @Summary      Delete an order
// @Tags         orders
// @Param        id path string true "Order ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id} [delete]
func (h *OrderHandler) Delete(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "order")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Invoice godoc
// @ID           getOrderInvoice
// @Summary      Invoice data of an order
// @Description  The issuer, counterpart, payment details and priced lines a renderer needs
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[revenueapp.InvoiceDocument]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/invoice [get]
func (h *OrderHandler) Invoice(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "order")
	if !ok {
		return
	}

	doc, err := h.service.Invoice(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}
