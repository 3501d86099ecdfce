package handler

import (
	"github.com/google/uuid"
	appfinance "github.com/immo/backend/internal/application/finance"
	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/domain/realestate"
	"github.com/shopspring/decimal"
)

// CreateProjectRequest is the body of POST /projects
type CreateProjectRequest struct {
	Name        string          `json:"nom" binding:"required,max=200"`
	Location    string          `json:"localisation" binding:"max=300"`
	Description string          `json:"description"`
	Surface     decimal.Decimal `json:"superficie" binding:"gte=0"`
	Apartments  int             `json:"nombre_appartements" binding:"gte=0"`
	Garages     int             `json:"nombre_garages" binding:"gte=0"`
	Lots        int             `json:"nombre_lots" binding:"gte=0"`
}

// UpdateCapacityRequest is the body of PUT /projects/:id/capacity
type UpdateCapacityRequest struct {
	Category string `json:"type_bien" binding:"required,oneof=appartement garage lot"`
	Capacity *int   `json:"capacite" binding:"required,gte=0"`
}

// CheckBody carries the identifying fields of a check
type CheckBody struct {
	Number               string `json:"numero_cheque" binding:"required,max=50"`
	IssuerName           string `json:"nom_emetteur" binding:"max=200"`
	BeneficiaryName      string `json:"nom_beneficiaire" binding:"max=200"`
	IssueDate            string `json:"date_emission" binding:"omitempty,datetime=2006-01-02"`
	ExpectedClearingDate string `json:"date_encaissement" binding:"omitempty,datetime=2006-01-02"`
}

func (b *CheckBody) toDomain() *finance.CheckDetails {
	if b == nil {
		return nil
	}
	return &finance.CheckDetails{
		Number:               b.Number,
		IssuerName:           b.IssuerName,
		BeneficiaryName:      b.BeneficiaryName,
		IssueDate:            dateOrToday(b.IssueDate),
		ExpectedClearingDate: parseDatePtr(b.ExpectedClearingDate),
	}
}

// PaymentBody carries a payment and its optional split. Omitted sub-amounts
// are derived from the method where that is unambiguous.
type PaymentBody struct {
	Amount      decimal.Decimal  `json:"montant" binding:"required,gt=0"`
	Method      string           `json:"mode_paiement" binding:"required,payment_method"`
	Declared    *decimal.Decimal `json:"montant_declare" binding:"omitempty,gte=0"`
	NonDeclared *decimal.Decimal `json:"montant_non_declare" binding:"omitempty,gte=0"`
	Cash        *decimal.Decimal `json:"montant_espece" binding:"omitempty,gte=0"`
	CheckAmount *decimal.Decimal `json:"montant_cheque" binding:"omitempty,gte=0"`
	PaymentDate string           `json:"date_paiement" binding:"omitempty,datetime=2006-01-02"`
	Description string           `json:"description" binding:"max=1000"`
	CheckInfo   *CheckBody       `json:"cheque"`
}

func (b *PaymentBody) toApp() appfinance.PaymentRequest {
	return appfinance.PaymentRequest{
		Amount: b.Amount,
		Method: finance.PaymentMethod(b.Method),
		Split: finance.SplitInput{
			Declared:    b.Declared,
			NonDeclared: b.NonDeclared,
			Cash:        b.Cash,
			Check:       b.CheckAmount,
		},
		PaymentDate: parseDate(b.PaymentDate),
		Description: b.Description,
		Check:       b.CheckInfo.toDomain(),
	}
}

// CreateSaleRequest is the body of POST /sales
type CreateSaleRequest struct {
	ProjectID    string          `json:"project_id" binding:"required,uuid"`
	UnitCategory string          `json:"type_bien" binding:"required,oneof=appartement garage lot"`
	UnitNumber   string          `json:"numero_unite" binding:"required,max=50"`
	ClientName   string          `json:"nom_client" binding:"required,max=200"`
	ClientPhone  string          `json:"telephone_client" binding:"max=50"`
	TotalPrice   decimal.Decimal `json:"prix_total" binding:"required,gt=0"`
	SaleDate     string          `json:"date_vente" binding:"omitempty,datetime=2006-01-02"`
	Description  string          `json:"description"`
	Advance      *PaymentBody    `json:"avance"`
}

func (r *CreateSaleRequest) toApp() appfinance.CreateSaleRequest {
	req := appfinance.CreateSaleRequest{
		ProjectID:    uuid.MustParse(r.ProjectID),
		UnitCategory: realestate.UnitCategory(r.UnitCategory),
		UnitNumber:   r.UnitNumber,
		ClientName:   r.ClientName,
		ClientPhone:  r.ClientPhone,
		TotalPrice:   r.TotalPrice,
		SaleDate:     dateOrToday(r.SaleDate),
		Description:  r.Description,
	}
	if r.Advance != nil {
		advance := r.Advance.toApp()
		req.Advance = &advance
	}
	return req
}

// CreateExpenseRequest is the body of POST /expenses
type CreateExpenseRequest struct {
	ProjectID    string          `json:"project_id" binding:"required,uuid"`
	Name         string          `json:"nom" binding:"required,max=200"`
	SupplierName string          `json:"nom_fournisseur" binding:"max=200"`
	TotalAmount  decimal.Decimal `json:"montant_total" binding:"required,gt=0"`
	Method       string          `json:"mode_paiement" binding:"omitempty,payment_method"`
	ExpenseDate  string          `json:"date_depense" binding:"omitempty,datetime=2006-01-02"`
	Remark       string          `json:"remarque"`
}

// CancelRequest carries the reason of a cancellation
type CancelRequest struct {
	Reason string `json:"motif" binding:"required,max=500"`
}

// CreateInstallmentRequest is the body of POST /{sales|expenses}/:id/installments
type CreateInstallmentRequest struct {
	SequenceNo    int             `json:"numero_echeance" binding:"required,gt=0"`
	PlannedAmount decimal.Decimal `json:"montant_prevu" binding:"required,gt=0"`
	PlannedDate   string          `json:"date_prevue" binding:"required,datetime=2006-01-02"`
	Description   string          `json:"description" binding:"max=1000"`
}

// IssueCheckRequest is the body of POST /checks
type IssueCheckRequest struct {
	CheckBody
	Type      string          `json:"type_cheque" binding:"required,oneof=recu donne"`
	Amount    decimal.Decimal `json:"montant" binding:"required,gt=0"`
	SaleID    string          `json:"sale_id" binding:"omitempty,uuid"`
	ExpenseID string          `json:"expense_id" binding:"omitempty,uuid"`
}

// ClearCheckRequest is the body of POST /checks/:id/clear
type ClearCheckRequest struct {
	ClearingDate string `json:"date_encaissement" binding:"omitempty,datetime=2006-01-02"`
}

// MarkOverdueRequest is the body of POST /{sales|expenses}/:id/overdue
type MarkOverdueRequest struct {
	AsOf string `json:"date_reference" binding:"omitempty,datetime=2006-01-02"`
}

// CheckListQuery holds the filters of GET /checks
type CheckListQuery struct {
	Status     string `form:"statut" binding:"omitempty,oneof=emis encaisse annule"`
	Type       string `form:"type_cheque" binding:"omitempty,oneof=recu donne"`
	SaleID     string `form:"sale_id" binding:"omitempty,uuid"`
	ExpenseID  string `form:"expense_id" binding:"omitempty,uuid"`
	IssuerName string `form:"nom_emetteur"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}
