package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	appfinance "github.com/immo/backend/internal/application/finance"
	"github.com/immo/backend/internal/infrastructure/cache"
	"github.com/immo/backend/internal/infrastructure/logger"
	"github.com/immo/backend/internal/infrastructure/persistence"
	"github.com/immo/backend/internal/interfaces/http/dto"
	"github.com/immo/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	log := zaptest.NewLogger(t)
	db, err := persistence.NewSQLiteDatabase(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repos := persistence.NewRepositories(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB, time.Second)
	ledger := appfinance.NewLedgerService(repos, scope, log)
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	ledger.SetIdempotencyStore(store, time.Hour)

	engine := gin.New()
	engine.Use(logger.GinMiddleware(log), logger.Recovery(log))
	api := engine.Group("/api/v1")
	NewProjectHandler(appfinance.NewProjectService(repos, scope, log)).RegisterRoutes(api)
	NewSaleHandler(appfinance.NewSaleService(repos, scope, log), ledger).RegisterRoutes(api)
	NewPaymentHandler(ledger).RegisterRoutes(api)
	NewCheckHandler(appfinance.NewCheckService(repos, scope, log)).RegisterRoutes(api)
	NewSystemHandler("immo-backend", "test", db).RegisterRoutes(api)

	return &testServer{t: t, engine: engine}
}

func (s *testServer) do(method, path string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func (s *testServer) createProject(apartments int) string {
	w, env := s.do(http.MethodPost, "/projects", gin.H{
		"nom":                 "Residence Yasmine",
		"localisation":        "Rabat",
		"superficie":          "850.5",
		"nombre_appartements": apartments,
		"nombre_garages":      1,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[appfinance.ProjectResponse](s.t, env).ID.String()
}

func (s *testServer) createSale(projectID, unit, price string, advance gin.H) appfinance.SaleResponse {
	body := gin.H{
		"project_id":   projectID,
		"type_bien":    "appartement",
		"numero_unite": unit,
		"nom_client":   "Idrissi",
		"prix_total":   price,
		"date_vente":   "2024-04-01",
	}
	if advance != nil {
		body["avance"] = advance
	}
	w, env := s.do(http.MethodPost, "/sales", body)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[appfinance.SaleResponse](s.t, env)
}

func TestSaleEndpoints_PaymentFlow(t *testing.T) {
	srv := newTestServer(t)
	sale := srv.createSale(srv.createProject(10), "A-1", "400000",
		gin.H{"montant": "100000", "mode_paiement": "espece", "date_paiement": "2024-04-01"})
	base := "/sales/" + sale.ID.String()

	require.Len(t, sale.Installments, 1)
	assert.Equal(t, 1, sale.Installments[0].SequenceNo)
	assert.Equal(t, "100000.00", sale.Totals.TotalPaid.StringFixed(2))

	w, env := srv.do(http.MethodPost, base+"/installments", gin.H{
		"numero_echeance": 2,
		"montant_prevu":   "300000",
		"date_prevue":     "2024-06-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	installment := decode[appfinance.PaymentResult](t, env).Installment

	w, env = srv.do(http.MethodPost, base+"/installments/"+installment.ID.String()+"/pay", gin.H{
		"montant":       "300000",
		"mode_paiement": "cheque_espece",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_SPLIT", env.Error.Code)

	w, env = srv.do(http.MethodPost, base+"/installments/"+installment.ID.String()+"/pay", gin.H{
		"montant":             "300000",
		"mode_paiement":       "cheque_espece",
		"montant_declare":     "200000",
		"montant_non_declare": "100000",
		"montant_espece":      "100000",
		"montant_cheque":      "200000",
		"cheque":              gin.H{"numero_cheque": "BP-881", "nom_emetteur": "Idrissi"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[appfinance.PaymentResult](t, env)
	assert.Equal(t, "paye", result.Totals.PaymentStatus)
	assert.Equal(t, "200000.00", result.Totals.CheckPaid.StringFixed(2))
	require.NotNil(t, result.Installment.CheckID)

	w, env = srv.do(http.MethodPost, base+"/payments", gin.H{"montant": "1", "mode_paiement": "espece"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "OVER_ALLOCATION", env.Error.Code)
	assert.False(t, env.Error.Retryable)

	w, env = srv.do(http.MethodGet, "/checks?sale_id="+sale.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	checks := decode[[]appfinance.CheckResponse](t, env)
	require.Len(t, checks, 1)
	assert.Equal(t, "BP-881", checks[0].Number)
	assert.Equal(t, int64(1), env.Meta.Total)
}

func TestSaleEndpoints_CancelPaymentKeepsRow(t *testing.T) {
	srv := newTestServer(t)
	sale := srv.createSale(srv.createProject(10), "B-2", "90000", nil)
	base := "/sales/" + sale.ID.String()

	w, env := srv.do(http.MethodPost, base+"/payments", gin.H{"montant": "30000", "mode_paiement": "virement"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	iid := decode[appfinance.PaymentResult](t, env).Installment.ID.String()

	w, _ = srv.do(http.MethodPost, base+"/installments/"+iid+"/cancel", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code, "reason is required")

	w, env = srv.do(http.MethodPost, base+"/installments/"+iid+"/cancel", gin.H{"motif": "virement rejete"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[appfinance.PaymentResult](t, env).Totals.TotalPaid.IsZero())

	w, env = srv.do(http.MethodGet, base+"/installments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode[[]appfinance.InstallmentResponse](t, env)
	require.Len(t, rows, 1)
	assert.Equal(t, "annule", rows[0].Status)
	assert.Equal(t, "virement rejete", rows[0].CancelReason)
}

func TestSaleEndpoints_IdempotentPayment(t *testing.T) {
	srv := newTestServer(t)
	sale := srv.createSale(srv.createProject(10), "C-3", "50000", nil)
	path := "/sales/" + sale.ID.String() + "/payments"
	body := gin.H{"montant": "10000", "mode_paiement": "espece"}

	w, _ := srv.do(http.MethodPost, path, body, IdempotencyKeyHeader, "pay-c3-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env := srv.do(http.MethodPost, path, body, IdempotencyKeyHeader, "pay-c3-1")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "DUPLICATE_REQUEST", env.Error.Code)

	_, env = srv.do(http.MethodGet, "/sales/"+sale.ID.String(), nil)
	assert.Equal(t, "10000.00", decode[appfinance.SaleResponse](t, env).Totals.TotalPaid.StringFixed(2))
}

func TestProjectEndpoints_CapacityBelowSold(t *testing.T) {
	srv := newTestServer(t)
	projectID := srv.createProject(3)
	srv.createSale(projectID, "1", "100000", nil)
	srv.createSale(projectID, "2", "100000", nil)

	w, env := srv.do(http.MethodPut, "/projects/"+projectID+"/capacity", gin.H{"type_bien": "appartement", "capacite": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "CAPACITY_BELOW_SOLD", env.Error.Code)
	assert.Equal(t, "consistency", env.Error.Kind)
	assert.NotEmpty(t, env.Error.Details)

	w, env = srv.do(http.MethodPut, "/projects/"+projectID+"/capacity", gin.H{"type_bien": "appartement", "capacite": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, decode[appfinance.ProjectResponse](t, env).Apartments)

	w, env = srv.do(http.MethodPost, "/sales", gin.H{
		"project_id": projectID, "type_bien": "appartement", "numero_unite": "3",
		"nom_client": "Berrada", "prix_total": "100000",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "CAPACITY_EXCEEDED", env.Error.Code)
}

func TestCheckEndpoints_Lifecycle(t *testing.T) {
	srv := newTestServer(t)

	w, env := srv.do(http.MethodPost, "/checks", gin.H{
		"numero_cheque": "AW-100",
		"nom_emetteur":  "Societe Atlas",
		"type_cheque":   "donne",
		"montant":       "12000",
		"date_emission": "2024-02-10",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[appfinance.CheckResponse](t, env).ID.String()

	w, env = srv.do(http.MethodPost, "/checks/"+id+"/clear", gin.H{"date_encaissement": "2024-02-20"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "encaisse", decode[appfinance.CheckResponse](t, env).Status)

	w, env = srv.do(http.MethodPost, "/checks/"+id+"/cancel", gin.H{"motif": "trop tard"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "state_transition", env.Error.Kind)

	w, env = srv.do(http.MethodPost, "/checks", gin.H{
		"numero_cheque": "AW-100",
		"nom_emetteur":  "Societe Atlas",
		"type_cheque":   "donne",
		"montant":       "500",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "DUPLICATE_CHECK_NUMBER", env.Error.Code)
}

func TestExpenseEndpoints(t *testing.T) {
	srv := newTestServer(t)
	projectID := srv.createProject(5)

	w, env := srv.do(http.MethodPost, "/expenses", gin.H{
		"project_id":      projectID,
		"nom":             "Ciment",
		"nom_fournisseur": "Lafarge",
		"montant_total":   "45000",
		"date_depense":    "2024-03-05",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	expense := decode[appfinance.ExpenseResponse](t, env)

	w, _ = srv.do(http.MethodPost, "/expenses/"+expense.ID.String()+"/payments", gin.H{
		"montant":       "15000",
		"mode_paiement": "cheque",
		"cheque":        gin.H{"numero_cheque": "LF-1", "nom_emetteur": "Immo SARL"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env = srv.do(http.MethodGet, "/expenses/"+expense.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[appfinance.ExpenseResponse](t, env)
	assert.Equal(t, "30000.00", got.Totals.Remaining.StringFixed(2))
	assert.Equal(t, "15000.00", got.Totals.CheckPaid.StringFixed(2))
	assert.Len(t, got.Payments, 1)
}

func TestPaymentEndpoints_CheckSubObject(t *testing.T) {
	srv := newTestServer(t)
	sale := srv.createSale(srv.createProject(3), "B-4", "120000", nil)

	w, env := srv.do(http.MethodPost, "/sales/"+sale.ID.String()+"/payments", gin.H{
		"montant":       "20000",
		"mode_paiement": "cheque",
		"cheque": gin.H{
			"numero_cheque":     "BP-7781",
			"nom_emetteur":      "Idrissi",
			"nom_beneficiaire":  "Immo SARL",
			"date_emission":     "2024-04-02",
			"date_encaissement": "2024-05-02",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	paid := decode[appfinance.PaymentResult](t, env)
	require.NotNil(t, paid.Installment.CheckID)

	w, env = srv.do(http.MethodGet, "/checks/"+paid.Installment.CheckID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	check := decode[appfinance.CheckResponse](t, env)
	require.NotNil(t, check.ExpectedClearingDate)
	assert.Equal(t, "2024-05-02", check.ExpectedClearingDate.Format("2006-01-02"))

	w, env = srv.do(http.MethodPost, "/sales/"+sale.ID.String()+"/payments", gin.H{
		"montant":       "10",
		"mode_paiement": "carte",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, env.Error.Fields, 1)
	assert.Equal(t, "mode_paiement", env.Error.Fields[0].Field)

	w, env = srv.do(http.MethodPost, "/sales/"+sale.ID.String()+"/payments", gin.H{
		"montant":       "0.004",
		"mode_paiement": "espece",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_AMOUNT", env.Error.Code)
}

func TestEndpoints_RequestErrors(t *testing.T) {
	srv := newTestServer(t)

	w, env := srv.do(http.MethodGet, "/sales/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidID, env.Error.Code)

	w, env = srv.do(http.MethodGet, "/sales/6f1c1a8e-4b1e-4c55-9d39-3d0f4f0f2a11", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", env.Error.Kind)

	w, env = srv.do(http.MethodPost, "/projects", gin.H{"nombre_appartements": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
	var fields []string
	for _, f := range env.Error.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"nom", "nombre_appartements"}, fields)
	assert.NotEmpty(t, env.Error.RequestID)
}

func TestSystemEndpoints(t *testing.T) {
	srv := newTestServer(t)

	w, env := srv.do(http.MethodGet, "/system/info", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	info := decode[SystemInfoResponse](t, env)
	assert.Equal(t, "up", info.Database)

	w, _ = srv.do(http.MethodGet, "/system/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
