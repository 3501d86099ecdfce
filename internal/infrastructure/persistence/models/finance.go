package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SplitColumns holds the declared/non-declared and cash/check breakdown
type SplitColumns struct {
	Declared    decimal.Decimal `gorm:"column:montant_declare;type:decimal(18,2);not null;default:0"`
	NonDeclared decimal.Decimal `gorm:"column:montant_non_declare;type:decimal(18,2);not null;default:0"`
	Cash        decimal.Decimal `gorm:"column:montant_espece;type:decimal(18,2);not null;default:0"`
	Check       decimal.Decimal `gorm:"column:montant_cheque;type:decimal(18,2);not null;default:0"`
}

// ToDomain converts the columns to a domain Split
func (c SplitColumns) ToDomain() finance.Split {
	return finance.Split{
		Declared:    c.Declared,
		NonDeclared: c.NonDeclared,
		Cash:        c.Cash,
		Check:       c.Check,
	}
}

func splitColumnsFrom(s finance.Split) SplitColumns {
	return SplitColumns{
		Declared:    s.Declared,
		NonDeclared: s.NonDeclared,
		Cash:        s.Cash,
		Check:       s.Check,
	}
}

// mode_paiement is a PostgreSQL enum, so an unset method is stored as NULL
func methodPtr(m finance.PaymentMethod) *string {
	if m == "" {
		return nil
	}
	s := string(m)
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// InstallmentColumns are the columns shared by payment_plans and expense_payments
type InstallmentColumns struct {
	BaseModel
	SequenceNo    int                     `gorm:"column:numero_echeance;not null"`
	Kind          finance.InstallmentKind `gorm:"column:type_echeance;type:varchar(20);not null;default:'scheduled'"`
	PlannedAmount decimal.Decimal         `gorm:"column:montant_prevu;type:decimal(18,2);not null"`
	PlannedDate   time.Time               `gorm:"column:date_prevue;type:date;not null"`
	PaidAmount    decimal.Decimal         `gorm:"column:montant_paye;type:decimal(18,2);not null;default:0"`
	SplitColumns
	Method       *string                   `gorm:"column:mode_paiement;type:varchar(30)"`
	PaymentDate  *time.Time                `gorm:"column:date_paiement;type:date"`
	Description  string                    `gorm:"column:description;type:text"`
	Status       finance.InstallmentStatus `gorm:"column:statut;type:varchar(20);not null;default:'en_attente'"`
	CheckID      *uuid.UUID                `gorm:"column:check_id;type:uuid"`
	CheckVoided  bool                      `gorm:"column:cheque_annule;not null;default:false"`
	CancelledAt  *time.Time                `gorm:"column:cancelled_at"`
	CancelReason string                    `gorm:"column:cancel_reason;type:varchar(500)"`
}

func (c *InstallmentColumns) toDomain(parent finance.ParentRef) *finance.Installment {
	return &finance.Installment{
		BaseEntity:    c.BaseModel.entity(),
		Parent:        parent,
		SequenceNo:    c.SequenceNo,
		Kind:          c.Kind,
		PlannedAmount: c.PlannedAmount,
		PlannedDate:   c.PlannedDate,
		PaidAmount:    c.PaidAmount,
		Split:         c.SplitColumns.ToDomain(),
		Method:        finance.PaymentMethod(derefString(c.Method)),
		PaymentDate:   c.PaymentDate,
		Description:   c.Description,
		Status:        c.Status,
		CheckID:       c.CheckID,
		CheckVoided:   c.CheckVoided,
		CancelledAt:   c.CancelledAt,
		CancelReason:  c.CancelReason,
	}
}

func (c *InstallmentColumns) fromDomain(i *finance.Installment) {
	c.setEntity(i.BaseEntity)
	c.SequenceNo = i.SequenceNo
	c.Kind = i.Kind
	c.PlannedAmount = i.PlannedAmount
	c.PlannedDate = i.PlannedDate
	c.PaidAmount = i.PaidAmount
	c.SplitColumns = splitColumnsFrom(i.Split)
	c.Method = methodPtr(i.Method)
	c.PaymentDate = i.PaymentDate
	c.Description = i.Description
	c.Status = i.Status
	c.CheckID = i.CheckID
	c.CheckVoided = i.CheckVoided
	c.CancelledAt = i.CancelledAt
	c.CancelReason = i.CancelReason
}

// PaymentPlanModel is an installment row of a sale
type PaymentPlanModel struct {
	InstallmentColumns
	SaleID uuid.UUID `gorm:"column:sale_id;type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (PaymentPlanModel) TableName() string {
	return "payment_plans"
}

// ToDomain converts the persistence model to a domain Installment.
func (m *PaymentPlanModel) ToDomain() *finance.Installment {
	return m.toDomain(finance.SaleRef(m.SaleID))
}

// FromDomain populates the persistence model from a domain Installment.
func (m *PaymentPlanModel) FromDomain(i *finance.Installment) {
	m.fromDomain(i)
	m.SaleID = i.Parent.ID
}

// ExpensePaymentModel is an installment row of an expense
type ExpensePaymentModel struct {
	InstallmentColumns
	ExpenseID uuid.UUID `gorm:"column:expense_id;type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (ExpensePaymentModel) TableName() string {
	return "expense_payments"
}

// ToDomain converts the persistence model to a domain Installment.
func (m *ExpensePaymentModel) ToDomain() *finance.Installment {
	return m.toDomain(finance.ExpenseRef(m.ExpenseID))
}

// FromDomain populates the persistence model from a domain Installment.
func (m *ExpensePaymentModel) FromDomain(i *finance.Installment) {
	m.fromDomain(i)
	m.ExpenseID = i.Parent.ID
}

// CheckModel is the persistence model for the Check aggregate root.
type CheckModel struct {
	AggregateModel
	Number               string              `gorm:"column:numero_cheque;type:varchar(50);not null;uniqueIndex:uq_checks_emetteur_numero,priority:2"`
	Type                 finance.CheckType   `gorm:"column:type_cheque;type:varchar(10);not null"`
	Amount               decimal.Decimal     `gorm:"column:montant;type:decimal(18,2);not null"`
	IssuerName           string              `gorm:"column:nom_emetteur;type:varchar(200);not null;uniqueIndex:uq_checks_emetteur_numero,priority:1"`
	BeneficiaryName      string              `gorm:"column:nom_beneficiaire;type:varchar(200)"`
	IssueDate            time.Time           `gorm:"column:date_emission;type:date;not null"`
	ExpectedClearingDate *time.Time          `gorm:"column:date_encaissement_prevue;type:date"`
	ClearingDate         *time.Time          `gorm:"column:date_encaissement;type:date"`
	Status               finance.CheckStatus `gorm:"column:statut;type:varchar(20);not null;default:'emis';index"`
	SaleID               *uuid.UUID          `gorm:"column:sale_id;type:uuid;index"`
	ExpenseID            *uuid.UUID          `gorm:"column:expense_id;type:uuid;index"`
	InstallmentID        *uuid.UUID          `gorm:"column:installment_id;type:uuid"`
	LinkStale            bool                `gorm:"column:lien_obsolete;not null;default:false"`
	CancelledAt          *time.Time          `gorm:"column:cancelled_at"`
	CancelReason         string              `gorm:"column:cancel_reason;type:varchar(500)"`
}

// TableName returns the table name for GORM
func (CheckModel) TableName() string {
	return "checks"
}

// ToDomain converts the persistence model to a domain Check.
func (m *CheckModel) ToDomain() *finance.Check {
	return &finance.Check{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: m.BaseModel.entity(),
			Version:    m.Version,
		},
		Number:               m.Number,
		Type:                 m.Type,
		Amount:               m.Amount,
		IssuerName:           m.IssuerName,
		BeneficiaryName:      m.BeneficiaryName,
		IssueDate:            m.IssueDate,
		ExpectedClearingDate: m.ExpectedClearingDate,
		ClearingDate:         m.ClearingDate,
		Status:               m.Status,
		SaleID:               m.SaleID,
		ExpenseID:            m.ExpenseID,
		InstallmentID:        m.InstallmentID,
		LinkStale:            m.LinkStale,
		CancelledAt:          m.CancelledAt,
		CancelReason:         m.CancelReason,
	}
}

// FromDomain populates the persistence model from a domain Check.
func (m *CheckModel) FromDomain(c *finance.Check) {
	m.setAggregate(c.BaseAggregateRoot)
	m.Number = c.Number
	m.Type = c.Type
	m.Amount = c.Amount
	m.IssuerName = c.IssuerName
	m.BeneficiaryName = c.BeneficiaryName
	m.IssueDate = c.IssueDate
	m.ExpectedClearingDate = c.ExpectedClearingDate
	m.ClearingDate = c.ClearingDate
	m.Status = c.Status
	m.SaleID = c.SaleID
	m.ExpenseID = c.ExpenseID
	m.InstallmentID = c.InstallmentID
	m.LinkStale = c.LinkStale
	m.CancelledAt = c.CancelledAt
	m.CancelReason = c.CancelReason
}

// CheckModelFromDomain creates a new persistence model from a domain Check.
func CheckModelFromDomain(c *finance.Check) *CheckModel {
	m := &CheckModel{}
	m.FromDomain(c)
	return m
}
