package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentBody struct {
	Amount decimal.Decimal  `json:"montant" binding:"required,gt=0"`
	Cash   *decimal.Decimal `json:"montant_espece" binding:"omitempty,gte=0"`
	Method string           `json:"mode_paiement" binding:"required,payment_method"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req paymentBody
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req.Amount))
	})
	return router
}

func post(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestValidation_DecimalFields(t *testing.T) {
	router := newValidationRouter()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantFields []string
	}{
		{"valid", `{"montant": "1500.50", "mode_paiement": "espece"}`, http.StatusOK, nil},
		{"numeric amount", `{"montant": 1500, "mode_paiement": "virement"}`, http.StatusOK, nil},
		{"zero amount", `{"montant": "0", "mode_paiement": "espece"}`, http.StatusBadRequest, []string{"montant"}},
		{"negative cash", `{"montant": "10", "montant_espece": "-1", "mode_paiement": "espece"}`, http.StatusBadRequest, []string{"montant_espece"}},
		{"unknown method", `{"montant": "10", "mode_paiement": "carte"}`, http.StatusBadRequest, []string{"mode_paiement"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(router, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantFields == nil {
				return
			}
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			var fields []string
			for _, f := range resp.Error.Fields {
				fields = append(fields, f.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestValidation_MalformedJSON(t *testing.T) {
	w := post(newValidationRouter(), `{"montant": "abc"`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	assert.Empty(t, resp.Error.Fields)
}

func TestValidation_PaymentMethodFollowsRegistry(t *testing.T) {
	router := newValidationRouter()
	body := `{"montant": "250", "mode_paiement": "lettre_de_change"}`

	w := post(router, body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Error.Fields, 1)
	assert.Equal(t, "Must be a registered payment method", resp.Error.Fields[0].Message)

	require.NoError(t, finance.RegisterPaymentMethod("lettre_de_change", finance.MethodSpec{CashLeg: true}))
	assert.Equal(t, http.StatusOK, post(router, body).Code)
}
