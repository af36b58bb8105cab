package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	expenseapp "github.com/huzaifanasir-fabtechsol/backend/internal/application/expense"
	"github.com/huzaifanasir-fabtechsol/backend/internal/application/importapp"
	ledgerapp "github.com/huzaifanasir-fabtechsol/backend/internal/application/ledger"
	revenueapp "github.com/huzaifanasir-fabtechsol/backend/internal/application/revenue"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/revenue"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/cache"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/fetch"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/persistence"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/persistence/persistencetest"
	"github.com/huzaifanasir-fabtechsol/backend/internal/interfaces/http/dto"
	"github.com/huzaifanasir-fabtechsol/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubFetcher struct {
	doc *fetch.Document
	err error
	url string
}

func (f *stubFetcher) Fetch(_ context.Context, rawURL string) (*fetch.Document, error) {
	f.url = rawURL
	return f.doc, f.err
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

type testAPI struct {
	router   *gin.Engine
	tenantID uuid.UUID
	userID   uuid.UUID
	fetcher  *stubFetcher
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	middleware.SetupValidator()

	store := persistence.NewGormStore(persistencetest.NewDB(t))
	log := zap.NewNop()
	balances := ledgerapp.NewBalanceMaintainer(log)

	ledgerSvc := ledgerapp.NewService(store, balances, log)
	orders := revenueapp.NewOrderService(store, revenueapp.NewEntityResolver(log), revenue.NewFeeScheduleRegistry(),
		revenueapp.OrderServiceConfig{Location: time.UTC, Issuer: revenue.IssuingCompanyProfile{Name: "Fabtech Motors"}}, log)
	reports := revenueapp.NewReportService(store, time.UTC, log)
	expenses := expenseapp.NewService(store, log)
	profiles, err := importapp.NewProfileRegistry()
	require.NoError(t, err)
	imports := importapp.NewService(store, balances, profiles, importapp.ServiceConfig{MaxFileSize: 1 << 20, IdempotencyTTL: time.Hour}, log)
	imports.SetIdempotencyStore(cache.NewInMemoryIdempotencyStore())

	api := &testAPI{tenantID: uuid.New(), userID: uuid.New(), fetcher: &stubFetcher{}}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(func(c *gin.Context) {
		if c.GetHeader("X-Anonymous") == "" {
			c.Set(middleware.TenantIDKey, api.tenantID)
			c.Set(middleware.UserIDKey, api.userID)
		}
		c.Next()
	})

	lh := NewLedgerHandler(ledgerSvc)
	router.POST("/bank-accounts", lh.CreateAccount)
	router.GET("/bank-accounts", lh.ListAccounts)
	router.GET("/bank-accounts/:id", lh.GetAccount)
	router.DELETE("/bank-accounts/:id", lh.DeleteAccount)
	router.GET("/bank-accounts/:id/statement", lh.Statement)
	router.GET("/bank-accounts/:id/verify", lh.VerifyChain)
	router.POST("/transactions", lh.CreateTransaction)
	router.GET("/transactions", lh.ListTransactions)
	router.PATCH("/transactions/:id", lh.UpdateTransaction)
	router.DELETE("/transactions/:id", lh.DeleteTransaction)

	oh := NewOrderHandler(orders)
	router.POST("/orders", oh.Create)
	router.GET("/orders", oh.List)
	router.GET("/orders/:id", oh.GetByID)
	router.PATCH("/orders/:id/payment-status", oh.UpdatePaymentStatus)
	router.GET("/orders/:id/invoice", oh.Invoice)

	rh := NewReportHandler(reports)
	router.GET("/reports/dashboard", rh.Dashboard)
	router.GET("/reports/summary", rh.FinancialSummary)

	eh := NewExpenseHandler(expenses)
	router.POST("/expense-categories", eh.CreateCategory)
	router.GET("/expense-categories", eh.ListCategories)
	router.POST("/expenses", eh.Create)
	router.GET("/expenses", eh.List)

	ih := NewImportHandler(imports, api.fetcher, 1<<20)
	router.GET("/imports/profiles", ih.Profiles)
	router.POST("/imports/upload", ih.Upload)
	router.POST("/imports/text", ih.Text)
	router.POST("/imports/url", ih.URL)
	router.GET("/imports", ih.ListHistory)
	router.GET("/imports/:id", ih.GetHistory)
	router.GET("/imports/:id/archive", ih.ArchiveLink)

	api.router = router
	return api
}

func (a *testAPI) do(t *testing.T, method, path string, body any, headers ...string) (*httptest.ResponseRecorder, apiEnvelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return a.serve(t, req)
}

func (a *testAPI) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, apiEnvelope) {
	t.Helper()
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env apiEnvelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decode[T any](t *testing.T, env apiEnvelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func (a *testAPI) createAccount(t *testing.T, bank string) ledgerapp.BankAccountResponse {
	t.Helper()
	w, env := a.do(t, http.MethodPost, "/bank-accounts", map[string]any{"bank_name": bank, "account_number": "001"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[ledgerapp.BankAccountResponse](t, env)
}

func TestLedgerHandler_PostingAndStatement(t *testing.T) {
	api := newTestAPI(t)
	account := api.createAccount(t, "Mizuho")

	post := func(date, deposit, withdraw string) ledgerapp.TransactionResponse {
		w, env := api.do(t, http.MethodPost, "/transactions", map[string]any{
			"bank_account_id": account.ID,
			"date":            date,
			"deposit":         deposit,
			"withdraw":        withdraw,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		return decode[ledgerapp.TransactionResponse](t, env)
	}

	post("2026-01-10", "1000", "0")
	post("2026-01-20", "0", "300")
	backdated := post("2026-01-05", "500", "0")
	assert.Equal(t, "500", backdated.Balance.String())

	w, env := api.do(t, http.MethodGet, "/transactions?bank_account="+account.ID.String()+"&order_dir=asc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	txs := decode[[]ledgerapp.TransactionResponse](t, env)
	require.Len(t, txs, 3)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(3), env.Meta.Total)

	w, env = api.do(t, http.MethodGet, "/bank-accounts/"+account.ID.String()+"/statement?from_date=2026-01-06", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	statement := decode[ledgerapp.StatementResponse](t, env)
	assert.Equal(t, "500", statement.OpeningBalance.String())
	assert.Equal(t, "1200", statement.ClosingBalance.String())
	assert.Len(t, statement.Rows, 2)

	w, env = api.do(t, http.MethodGet, "/bank-accounts/"+account.ID.String()+"/verify", nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[ledgerapp.ChainReport](t, env)
	assert.True(t, report.Valid)
	assert.Equal(t, 3, report.Transactions)

	t.Run("account with transactions cannot be deleted", func(t *testing.T) {
		w, env := api.do(t, http.MethodDelete, "/bank-accounts/"+account.ID.String(), nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeConflict, env.Error.Code)
	})

	t.Run("delete recomputes later balances", func(t *testing.T) {
		w, _ := api.do(t, http.MethodDelete, "/transactions/"+backdated.ID.String(), nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		_, env := api.do(t, http.MethodGet, "/bank-accounts/"+account.ID.String()+"/statement", nil)
		assert.Equal(t, "700", decode[ledgerapp.StatementResponse](t, env).ClosingBalance.String())
	})
}

func TestLedgerHandler_BadInput(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"bad path id", http.MethodGet, "/bank-accounts/42", nil, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"unknown account", http.MethodGet, "/bank-accounts/" + uuid.NewString(), nil, http.StatusNotFound, dto.ErrCodeNotFound},
		{"missing bank name", http.MethodPost, "/bank-accounts", map[string]any{"account_number": "1"}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"bad date filter", http.MethodGet, "/transactions?from_date=01/02/2026", nil, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"bad account filter", http.MethodGet, "/transactions?bank_account=main", nil, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"page size over limit", http.MethodGet, "/bank-accounts?page_size=500", nil, http.StatusBadRequest, dto.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := api.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
			assert.NotEmpty(t, env.Error.RequestID)
		})
	}
}

func TestHandlers_RequireTenant(t *testing.T) {
	api := newTestAPI(t)

	w, env := api.do(t, http.MethodGet, "/orders", nil, "X-Anonymous", "1")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, env.Error.Code)
}

func TestOrderHandler_Lifecycle(t *testing.T) {
	api := newTestAPI(t)

	w, env := api.do(t, http.MethodPost, "/orders", map[string]any{
		"transaction_type": "sale",
		"transaction_date": "2026-02-03",
		"customer_name":    "Tanaka Trading",
		"items": []map[string]any{{
			"category":       "Toyota",
			"name":           "Prius",
			"chassis_number": "ZVW30-1234567",
			"year":           2019,
			"vehicle_price":  "1000000",
		}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[revenueapp.OrderResponse](t, env)
	assert.NotEmpty(t, order.OrderNumber)
	assert.True(t, order.TotalAmount.IsPositive())
	assert.Equal(t, revenue.PaymentStatusPending, order.PaymentStatus)

	w, env = api.do(t, http.MethodGet, "/orders/"+order.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[revenueapp.OrderResponse](t, env)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Toyota", got.Items[0].CategoryName)

	w, env = api.do(t, http.MethodPatch, "/orders/"+order.ID.String()+"/payment-status",
		map[string]any{"payment_status": "completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, revenue.PaymentStatusCompleted, decode[revenueapp.OrderResponse](t, env).PaymentStatus)

	w, env = api.do(t, http.MethodGet, "/orders?payment_status=completed&transaction_type=sale", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]revenueapp.OrderResponse](t, env), 1)

	w, env = api.do(t, http.MethodGet, "/orders/"+order.ID.String()+"/invoice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	invoice := decode[revenueapp.InvoiceDocument](t, env)
	assert.Equal(t, order.OrderNumber, invoice.OrderNumber)
	assert.Equal(t, "Fabtech Motors", invoice.Issuer.Name)
	assert.True(t, invoice.Total.Equal(order.TotalAmount))

	w, env = api.do(t, http.MethodGet, "/reports/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	dashboard := decode[revenueapp.DashboardResponse](t, env)
	assert.Equal(t, int64(1), dashboard.OrderCount)
	assert.True(t, dashboard.ApprovedAmount.Equal(order.TotalAmount))

	w, _ = api.do(t, http.MethodGet, "/reports/summary?start_date=2026-02-01&end_date=2026-02-28", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	t.Run("rejects unknown filters", func(t *testing.T) {
		w, _ := api.do(t, http.MethodGet, "/orders?transaction_type=barter", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w, _ = api.do(t, http.MethodGet, "/reports/summary?period=decade", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("order without items", func(t *testing.T) {
		w, env := api.do(t, http.MethodPost, "/orders", map[string]any{"transaction_type": "sale"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
	})
}

func TestExpenseHandler(t *testing.T) {
	api := newTestAPI(t)

	w, env := api.do(t, http.MethodPost, "/expense-categories", map[string]any{"name": "Fuel"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	category := decode[expenseapp.CategoryResponse](t, env)

	w, _ = api.do(t, http.MethodPost, "/expenses", map[string]any{
		"title":    "Diesel",
		"amount":   "8000",
		"date":     "2026-01-15",
		"category": category.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env = api.do(t, http.MethodGet, "/expenses?category="+category.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]expenseapp.ExpenseResponse](t, env), 1)

	w, env = api.do(t, http.MethodGet, "/expense-categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]expenseapp.CategoryResponse](t, env), 1)
}

const handlerTollSheet = "date,amount,transaction_id\n2026-01-05,1200,TX-1\n2026-01-06,800,TX-2\n"

func TestImportHandler_Text(t *testing.T) {
	api := newTestAPI(t)
	account := api.createAccount(t, "Resona")

	body := map[string]any{
		"profile":      "expense-sheet",
		"content":      handlerTollSheet,
		"bank_account": account.ID.String(),
	}
	w, env := api.do(t, http.MethodPost, "/imports/text", body, IdempotencyHeader, "batch-1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[importapp.ImportResponse](t, env)
	assert.Equal(t, 2, result.CreatedTransactions)
	assert.Equal(t, 2, result.CreatedExpenses)

	t.Run("same idempotency key conflicts", func(t *testing.T) {
		w, env := api.do(t, http.MethodPost, "/imports/text", body, IdempotencyHeader, "batch-1")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeConflict, env.Error.Code)
	})

	t.Run("rerun reuses matched transactions", func(t *testing.T) {
		w, env := api.do(t, http.MethodPost, "/imports/text", body, IdempotencyHeader, "batch-2")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 2, decode[importapp.ImportResponse](t, env).ReusedTransactions)
	})

	t.Run("history", func(t *testing.T) {
		w, env := api.do(t, http.MethodGet, "/imports", nil)
		require.Equal(t, http.StatusOK, w.Code)
		runs := decode[[]importapp.HistoryResponse](t, env)
		require.Len(t, runs, 2)

		w, _ = api.do(t, http.MethodGet, "/imports/"+runs[0].ID.String(), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w, env = api.do(t, http.MethodGet, "/imports/"+runs[0].ID.String()+"/archive", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, env.Error.Code)
	})

	t.Run("unknown profile", func(t *testing.T) {
		w, env := api.do(t, http.MethodPost, "/imports/text", map[string]any{"profile": "swift-mt940", "content": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
	})
}

func uploadRequest(t *testing.T, profile string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("profile", profile))
	part, err := mw.CreateFormFile("file", "tolls.csv")
	require.NoError(t, err)
	_, err = part.Write(file)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/imports/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImportHandler_Upload(t *testing.T) {
	api := newTestAPI(t)
	api.createAccount(t, "Resona")

	w, env := api.serve(t, uploadRequest(t, "expense-sheet", []byte(handlerTollSheet)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, decode[importapp.ImportResponse](t, env).CreatedTransactions)

	t.Run("binary file", func(t *testing.T) {
		png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
		w, env := api.serve(t, uploadRequest(t, "expense-sheet", png))
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
		assert.Equal(t, dto.ErrCodeUnsupportedMedia, env.Error.Code)
	})

	t.Run("oversized file", func(t *testing.T) {
		big := bytes.Repeat([]byte("2026-01-05,1,X\n"), (1<<20)/15+10)
		w, env := api.serve(t, uploadRequest(t, "expense-sheet", big))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, dto.ErrCodePayloadTooLarge, env.Error.Code)
	})

	t.Run("missing profile", func(t *testing.T) {
		w, _ := api.serve(t, uploadRequest(t, "", []byte(handlerTollSheet)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func tollWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	rows := [][]any{
		{"date", "amount", "transaction_id"},
		{time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), 1200, "TX-1"},
		{"6/1/2026", "800", "TX-2"},
	}
	for i := range rows {
		require.NoError(t, f.SetSheetRow("Sheet1", "A"+string(rune('1'+i)), &rows[i]))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestImportHandler_UploadWorkbook(t *testing.T) {
	api := newTestAPI(t)
	account := api.createAccount(t, "Resona")

	w, env := api.serve(t, uploadRequest(t, "expense-sheet", tollWorkbook(t)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[importapp.ImportResponse](t, env)
	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 2, result.CreatedTransactions)
	assert.Equal(t, 2, result.CreatedExpenses)
	assert.Zero(t, result.SkippedRows)

	w, env = api.do(t, http.MethodGet, "/transactions?bank_account="+account.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dates []string
	for _, tx := range decode[[]ledgerapp.TransactionResponse](t, env) {
		dates = append(dates, tx.Date.String())
	}
	assert.ElementsMatch(t, []string{"2026-01-05", "2026-01-06"}, dates)

	t.Run("corrupt workbook", func(t *testing.T) {
		w, env := api.serve(t, uploadRequest(t, "expense-sheet", []byte("PK\x03\x04 truncated")))
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
		assert.Equal(t, dto.ErrCodeUnsupportedMedia, env.Error.Code)
	})
}

func TestImportHandler_URL(t *testing.T) {
	api := newTestAPI(t)
	api.createAccount(t, "Resona")
	body := map[string]any{"profile": "expense-sheet", "url": "https://feeds.example.com/tolls.csv"}

	api.fetcher.doc = &fetch.Document{Data: []byte(handlerTollSheet), FileName: "tolls.csv", ContentType: "text/csv"}
	w, env := api.do(t, http.MethodPost, "/imports/url", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://feeds.example.com/tolls.csv", api.fetcher.url)
	assert.Equal(t, 2, decode[importapp.ImportResponse](t, env).CreatedExpenses)

	failures := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"too large", fetch.ErrTooLarge, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge},
		{"not text", fetch.ErrNotText, http.StatusUnsupportedMediaType, dto.ErrCodeUnsupportedMedia},
		{"upstream status", &fetch.StatusError{StatusCode: http.StatusNotFound}, http.StatusBadGateway, dto.ErrCodeFetchFailed},
		{"network", errors.New("connection refused"), http.StatusBadGateway, dto.ErrCodeFetchFailed},
		{"unsupported url", fetch.ErrUnsupportedURL, http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"forbidden host", fetch.ErrForbiddenHost, http.StatusBadRequest, dto.ErrCodeInvalidInput},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			api.fetcher.doc, api.fetcher.err = nil, tt.err
			w, env := api.do(t, http.MethodPost, "/imports/url", body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestImportHandler_Profiles(t *testing.T) {
	api := newTestAPI(t)

	w, env := api.do(t, http.MethodGet, "/imports/profiles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"bank-feed", "expense-sheet"}, decode[dto.ImportProfilesResponse](t, env).Profiles)
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", shared.NewValidationError("amount must be positive"), http.StatusBadRequest, dto.ErrCodeValidation},
		{"not found", shared.NewNotFoundError("order"), http.StatusNotFound, dto.ErrCodeNotFound},
		{"conflict", shared.NewDomainError(shared.CodeConflict, "busy"), http.StatusConflict, dto.ErrCodeConflict},
		{"integrity", shared.NewDomainError(shared.CodeIntegrity, "chain broken"), http.StatusInternalServerError, dto.ErrCodeIntegrity},
		{"invalid state", shared.NewDomainError(shared.CodeState, "already settled"), http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"plain error", errors.New("db exploded"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set(middleware.RequestIDKey, "req-42")

			var h BaseHandler
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, "req-42", resp.Error.RequestID)
			assert.NotContains(t, w.Body.String(), "db exploded")
		})
	}
}

type fakePinger struct{ err error }

func (p fakePinger) Ping() error { return p.err }

func TestSystemHandler(t *testing.T) {
	serve := func(h *SystemHandler, path string, fn gin.HandlerFunc) *httptest.ResponseRecorder {
		router := gin.New()
		router.GET(path, fn)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	healthy := NewSystemHandler("Trade Books API", "1.2.3", fakePinger{})
	assert.Equal(t, http.StatusOK, serve(healthy, "/health", healthy.Health).Code)
	assert.Equal(t, http.StatusOK, serve(healthy, "/ready", healthy.Ready).Code)

	w := serve(healthy, "/info", healthy.GetSystemInfo)
	assert.Contains(t, w.Body.String(), `"version":"1.2.3"`)

	down := NewSystemHandler("Trade Books API", "1.2.3", fakePinger{err: errors.New("connection refused")})
	w = serve(down, "/ready", down.Ready)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}
