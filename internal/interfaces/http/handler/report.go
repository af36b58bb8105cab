package handler

import (
	"github.com/gin-gonic/gin"

	revenueapp "github.com/huzaifanasir-fabtechsol/backend/internal/application/revenue"
)

// ReportHandler serves the dashboard and the period summary
type ReportHandler struct {
	BaseHandler
	service *revenueapp.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service *revenueapp.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// SummaryQuery selects the summary period
type SummaryQuery struct {
	Period    string `form:"period" binding:"omitempty,oneof=today month year"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// Dashboard godoc
// @ID           getDashboard
// @Summary      Dashboard figures
// @Description  Settled and pending sales, expense and purchase totals, order count and the latest orders
// @Tags         reports
// @Produce      json
// @Success      200 {object} APIResponse[revenueapp.DashboardResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	dashboard, err := h.service.Dashboard(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dashboard)
}

// FinancialSummary godoc
// @ID           getFinancialSummary
// @Summary      Profit and loss for a period
// @Description  An explicit start_date and end_date win over period
// @Tags         reports
// @Produce      json
// @Param        period query string false "Period" Enums(today, month, year) default(month)
// @Param        start_date query string false "First day (YYYY-MM-DD)"
// @Param        end_date query string false "Last day (YYYY-MM-DD)"
// @Success      200 {object} APIResponse[revenueapp.FinancialSummaryResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/summary [get]
func (h *ReportHandler) FinancialSummary(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var q SummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	query := revenueapp.SummaryQuery{Period: q.Period}
	var err error
	if query.StartDate, err = optionalDate(q.StartDate); err != nil {
		h.BadRequest(c, "Invalid start_date format, expected YYYY-MM-DD")
		return
	}
	if query.EndDate, err = optionalDate(q.EndDate); err != nil {
		h.BadRequest(c, "Invalid end_date format, expected YYYY-MM-DD")
		return
	}

	summary, err := h.service.FinancialSummary(c.Request.Context(), tenantID, query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
