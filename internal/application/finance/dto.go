package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/domain/realestate"
	"github.com/shopspring/decimal"
)

// ============================================
// Requests
// ============================================

// CreateProjectRequest represents a request to create a project
type CreateProjectRequest struct {
	Name        string
	Location    string
	Description string
	Surface     decimal.Decimal
	Capacity    realestate.ProjectCapacity
}

// UpdateProjectRequest represents a request to change project details
type UpdateProjectRequest struct {
	ProjectID   uuid.UUID
	Name        string
	Location    string
	Description string
	Surface     decimal.Decimal
}

// UpdateCapacityRequest represents a request to change one category capacity
type UpdateCapacityRequest struct {
	ProjectID   uuid.UUID
	Category    realestate.UnitCategory
	NewCapacity int
}

// PaymentRequest carries the payment fields shared by record, edit and
// ad-hoc submissions
type PaymentRequest struct {
	Amount      decimal.Decimal
	Method      finance.PaymentMethod
	Split       finance.SplitInput
	PaymentDate time.Time
	Description string
	// Check is required when the resolved split has a check leg
	Check *finance.CheckDetails
}

func (r PaymentRequest) input() finance.PaymentInput {
	return finance.PaymentInput{
		Amount:      r.Amount,
		Method:      r.Method,
		Split:       r.Split,
		PaymentDate: r.PaymentDate,
		Description: r.Description,
	}
}

// CreateSaleRequest represents a request to sell a unit. A positive
// Advance.Amount is recorded as installment #1.
type CreateSaleRequest struct {
	ProjectID    uuid.UUID
	UnitCategory realestate.UnitCategory
	UnitNumber   string
	ClientName   string
	ClientPhone  string
	TotalPrice   decimal.Decimal
	SaleDate     time.Time
	Description  string
	Advance      *PaymentRequest
}

// CancelSaleRequest represents a request to cancel a sale
type CancelSaleRequest struct {
	SaleID uuid.UUID
	Reason string
}

// CreateExpenseRequest represents a request to record an expense
type CreateExpenseRequest struct {
	ProjectID    uuid.UUID
	Name         string
	SupplierName string
	TotalAmount  decimal.Decimal
	Method       finance.PaymentMethod
	ExpenseDate  time.Time
	Remark       string
}

// CreateInstallmentRequest represents a request to schedule an installment
type CreateInstallmentRequest struct {
	Parent        finance.ParentRef
	SequenceNo    int
	PlannedAmount decimal.Decimal
	PlannedDate   time.Time
	Description   string
}

// RecordPaymentRequest represents a payment against a scheduled installment
type RecordPaymentRequest struct {
	Parent        finance.ParentRef
	InstallmentID uuid.UUID
	PaymentRequest
	IdempotencyKey string
}

// AdHocPaymentRequest represents a payment outside the schedule; the row
// gets the next free sequence number
type AdHocPaymentRequest struct {
	Parent finance.ParentRef
	PaymentRequest
	IdempotencyKey string
}

// EditPaymentRequest represents a correction of a recorded payment
type EditPaymentRequest struct {
	Parent        finance.ParentRef
	InstallmentID uuid.UUID
	PaymentRequest
}

// CancelPaymentRequest represents a request to cancel an installment
type CancelPaymentRequest struct {
	Parent        finance.ParentRef
	InstallmentID uuid.UUID
	Reason        string
}

// IssueCheckRequest represents a standalone check not produced by a payment
type IssueCheckRequest struct {
	Details finance.CheckDetails
	Type    finance.CheckType
	Amount  decimal.Decimal
	Parent  *finance.ParentRef
}

// CheckListFilter defines filtering options for check list queries
type CheckListFilter struct {
	Status     string
	Type       string
	SaleID     *uuid.UUID
	ExpenseID  *uuid.UUID
	IssuerName string
	Page       int
	PageSize   int
}

// ============================================
// Responses
// ============================================

// TotalsResponse represents the derived payment figures of a parent
type TotalsResponse struct {
	ContractualTotal decimal.Decimal `json:"contractual_total"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	Remaining        decimal.Decimal `json:"remaining"`
	CashPaid         decimal.Decimal `json:"cash_paid"`
	CheckPaid        decimal.Decimal `json:"check_paid"`
	PaymentStatus    string          `json:"payment_status"`
}

// InstallmentResponse represents an installment row in API responses
type InstallmentResponse struct {
	ID            uuid.UUID       `json:"id"`
	ParentType    string          `json:"parent_type"`
	ParentID      uuid.UUID       `json:"parent_id"`
	SequenceNo    int             `json:"numero_echeance"`
	Kind          string          `json:"kind"`
	PlannedAmount decimal.Decimal `json:"montant_prevu"`
	PlannedDate   time.Time       `json:"date_prevue"`
	PaidAmount    decimal.Decimal `json:"montant_paye"`
	Declared      decimal.Decimal `json:"montant_declare"`
	NonDeclared   decimal.Decimal `json:"montant_non_declare"`
	Cash          decimal.Decimal `json:"montant_espece"`
	Check         decimal.Decimal `json:"montant_cheque"`
	Method        string          `json:"mode_paiement,omitempty"`
	PaymentDate   *time.Time      `json:"date_paiement,omitempty"`
	Description   string          `json:"description,omitempty"`
	Status        string          `json:"statut"`
	CheckID       *uuid.UUID      `json:"check_id,omitempty"`
	CheckVoided   bool            `json:"check_voided,omitempty"`
	CancelledAt   *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason  string          `json:"cancel_reason,omitempty"`
}

// PaymentResult is returned by every ledger mutation
type PaymentResult struct {
	Installment InstallmentResponse `json:"installment"`
	Totals      TotalsResponse      `json:"totals"`
}

// ProjectResponse represents a project in API responses
type ProjectResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Location    string          `json:"location,omitempty"`
	Description string          `json:"description,omitempty"`
	Surface     decimal.Decimal `json:"surface"`
	Apartments  int             `json:"nombre_appartements"`
	Garages     int             `json:"nombre_garages"`
	Lots        int             `json:"nombre_lots"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Version     int             `json:"version"`
}

// SaleResponse represents a sale with its totals and installments
type SaleResponse struct {
	ID            uuid.UUID             `json:"id"`
	ProjectID     uuid.UUID             `json:"project_id"`
	UnitCategory  string                `json:"unit_category"`
	UnitNumber    string                `json:"unit_number"`
	ClientName    string                `json:"client_name"`
	ClientPhone   string                `json:"client_phone,omitempty"`
	SaleDate      time.Time             `json:"sale_date"`
	Status        string                `json:"statut"`
	AdvanceAmount decimal.Decimal       `json:"avance"`
	Advance       finance.Split         `json:"avance_split"`
	AdvanceMethod string                `json:"avance_mode,omitempty"`
	Totals        TotalsResponse        `json:"totals"`
	Installments  []InstallmentResponse `json:"installments,omitempty"`
	CancelReason  string                `json:"cancel_reason,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	Version       int                   `json:"version"`
}

// ExpenseResponse represents an expense with its totals and payments
type ExpenseResponse struct {
	ID            uuid.UUID             `json:"id"`
	ProjectID     uuid.UUID             `json:"project_id"`
	Name          string                `json:"name"`
	SupplierName  string                `json:"supplier_name,omitempty"`
	PaymentMethod string                `json:"mode_paiement,omitempty"`
	ExpenseDate   time.Time             `json:"expense_date"`
	Remark        string                `json:"remark,omitempty"`
	Totals        TotalsResponse        `json:"totals"`
	Payments      []InstallmentResponse `json:"payments,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	Version       int                   `json:"version"`
}

// CheckResponse represents a check in API responses
type CheckResponse struct {
	ID                   uuid.UUID       `json:"id"`
	Number               string          `json:"numero_cheque"`
	Type                 string          `json:"type_cheque"`
	Amount               decimal.Decimal `json:"montant"`
	IssuerName           string          `json:"nom_emetteur"`
	BeneficiaryName      string          `json:"nom_beneficiaire"`
	IssueDate            time.Time       `json:"date_emission"`
	ExpectedClearingDate *time.Time      `json:"date_encaissement_prevue,omitempty"`
	ClearingDate         *time.Time      `json:"date_encaissement,omitempty"`
	Status               string          `json:"statut"`
	SaleID               *uuid.UUID      `json:"sale_id,omitempty"`
	ExpenseID            *uuid.UUID      `json:"expense_id,omitempty"`
	InstallmentID        *uuid.UUID      `json:"installment_id,omitempty"`
	LinkStale            bool            `json:"link_stale,omitempty"`
	CancelReason         string          `json:"cancel_reason,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func toTotalsResponse(total decimal.Decimal, t finance.Totals) TotalsResponse {
	return TotalsResponse{
		ContractualTotal: total,
		TotalPaid:        t.TotalPaid,
		Remaining:        t.Remaining,
		CashPaid:         t.CashPaid,
		CheckPaid:        t.CheckPaid,
		PaymentStatus:    string(t.Status),
	}
}

func toInstallmentResponse(i *finance.Installment) InstallmentResponse {
	return InstallmentResponse{
		ID:            i.ID,
		ParentType:    string(i.Parent.Type),
		ParentID:      i.Parent.ID,
		SequenceNo:    i.SequenceNo,
		Kind:          string(i.Kind),
		PlannedAmount: i.PlannedAmount,
		PlannedDate:   i.PlannedDate,
		PaidAmount:    i.PaidAmount,
		Declared:      i.Declared,
		NonDeclared:   i.NonDeclared,
		Cash:          i.Cash,
		Check:         i.Check,
		Method:        string(i.Method),
		PaymentDate:   i.PaymentDate,
		Description:   i.Description,
		Status:        string(i.Status),
		CheckID:       i.CheckID,
		CheckVoided:   i.CheckVoided,
		CancelledAt:   i.CancelledAt,
		CancelReason:  i.CancelReason,
	}
}

func toInstallmentResponses(rows []finance.Installment) []InstallmentResponse {
	out := make([]InstallmentResponse, len(rows))
	for i := range rows {
		out[i] = toInstallmentResponse(&rows[i])
	}
	return out
}

func toProjectResponse(p *realestate.Project) *ProjectResponse {
	return &ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Location:    p.Location,
		Description: p.Description,
		Surface:     p.Surface,
		Apartments:  p.Apartments,
		Garages:     p.Garages,
		Lots:        p.Lots,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Version:     p.Version,
	}
}

func toSaleResponse(s *realestate.Sale, rows []finance.Installment) *SaleResponse {
	return &SaleResponse{
		ID:            s.ID,
		ProjectID:     s.ProjectID,
		UnitCategory:  string(s.UnitCategory),
		UnitNumber:    s.UnitNumber,
		ClientName:    s.ClientName,
		ClientPhone:   s.ClientPhone,
		SaleDate:      s.SaleDate,
		Status:        string(s.Status),
		AdvanceAmount: s.AdvanceAmount,
		Advance:       s.Advance,
		AdvanceMethod: string(s.AdvanceMethod),
		Totals:        toTotalsResponse(s.TotalPrice, s.CurrentTotals()),
		Installments:  toInstallmentResponses(rows),
		CancelReason:  s.CancelReason,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		Version:       s.Version,
	}
}

func toExpenseResponse(e *realestate.Expense, rows []finance.Installment) *ExpenseResponse {
	return &ExpenseResponse{
		ID:            e.ID,
		ProjectID:     e.ProjectID,
		Name:          e.Name,
		SupplierName:  e.SupplierName,
		PaymentMethod: string(e.PaymentMethod),
		ExpenseDate:   e.ExpenseDate,
		Remark:        e.Remark,
		Totals:        toTotalsResponse(e.TotalAmount, e.CurrentTotals()),
		Payments:      toInstallmentResponses(rows),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
		Version:       e.Version,
	}
}

func toCheckResponse(c *finance.Check) *CheckResponse {
	return &CheckResponse{
		ID:                   c.ID,
		Number:               c.Number,
		Type:                 string(c.Type),
		Amount:               c.Amount,
		IssuerName:           c.IssuerName,
		BeneficiaryName:      c.BeneficiaryName,
		IssueDate:            c.IssueDate,
		ExpectedClearingDate: c.ExpectedClearingDate,
		ClearingDate:         c.ClearingDate,
		Status:               string(c.Status),
		SaleID:               c.SaleID,
		ExpenseID:            c.ExpenseID,
		InstallmentID:        c.InstallmentID,
		LinkStale:            c.LinkStale,
		CancelReason:         c.CancelReason,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}
