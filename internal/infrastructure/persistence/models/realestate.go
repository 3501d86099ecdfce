package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/domain/realestate"
	"github.com/shopspring/decimal"
)

// ProjectModel is the persistence model for the Project aggregate root.
type ProjectModel struct {
	AggregateModel
	Name        string          `gorm:"column:nom;type:varchar(200);not null"`
	Location    string          `gorm:"column:localisation;type:varchar(300)"`
	Surface     decimal.Decimal `gorm:"column:superficie;type:decimal(18,2);not null;default:0"`
	Apartments  int             `gorm:"column:nombre_appartements;not null;default:0"`
	Garages     int             `gorm:"column:nombre_garages;not null;default:0"`
	Lots        int             `gorm:"column:nombre_lots;not null;default:0"`
	Description string          `gorm:"column:description;type:text"`
}

// TableName returns the table name for GORM
func (ProjectModel) TableName() string {
	return "projects"
}

// ToDomain converts the persistence model to a domain Project.
func (m *ProjectModel) ToDomain() *realestate.Project {
	return &realestate.Project{
		BaseAggregateRoot: m.aggregate(),
		Name:              m.Name,
		Location:          m.Location,
		Surface:           m.Surface,
		Apartments:        m.Apartments,
		Garages:           m.Garages,
		Lots:              m.Lots,
		Description:       m.Description,
	}
}

// FromDomain populates the persistence model from a domain Project.
func (m *ProjectModel) FromDomain(p *realestate.Project) {
	m.setAggregate(p.BaseAggregateRoot)
	m.Name = p.Name
	m.Location = p.Location
	m.Surface = p.Surface
	m.Apartments = p.Apartments
	m.Garages = p.Garages
	m.Lots = p.Lots
	m.Description = p.Description
}

// ProjectModelFromDomain creates a new persistence model from a domain Project.
func ProjectModelFromDomain(p *realestate.Project) *ProjectModel {
	m := &ProjectModel{}
	m.FromDomain(p)
	return m
}

// PaymentTotalsColumns are the derived totals kept on sales and expenses.
// They are only written by the recalculation that follows a payment mutation.
type PaymentTotalsColumns struct {
	TotalPaid     decimal.Decimal       `gorm:"column:montant_total_paye;type:decimal(18,2);not null;default:0"`
	Remaining     decimal.Decimal       `gorm:"column:montant_restant;type:decimal(18,2);not null;default:0"`
	CashPaid      decimal.Decimal       `gorm:"column:montant_espece_paye;type:decimal(18,2);not null;default:0"`
	CheckPaid     decimal.Decimal       `gorm:"column:montant_cheque_paye;type:decimal(18,2);not null;default:0"`
	PaymentStatus finance.PaymentStatus `gorm:"column:statut_paiement;type:varchar(30);not null;default:'non_paye'"`
}

// UpdateColumns returns the column map written by SaveWithLock
func (c PaymentTotalsColumns) UpdateColumns() map[string]any {
	return map[string]any{
		"montant_total_paye":  c.TotalPaid,
		"montant_restant":     c.Remaining,
		"montant_espece_paye": c.CashPaid,
		"montant_cheque_paye": c.CheckPaid,
		"statut_paiement":     c.PaymentStatus,
	}
}

func totalsColumnsFrom(t finance.Totals) PaymentTotalsColumns {
	return PaymentTotalsColumns{
		TotalPaid:     t.TotalPaid,
		Remaining:     t.Remaining,
		CashPaid:      t.CashPaid,
		CheckPaid:     t.CheckPaid,
		PaymentStatus: t.Status,
	}
}

// SaleModel is the persistence model for the Sale aggregate root.
type SaleModel struct {
	AggregateModel
	ProjectID     uuid.UUID               `gorm:"column:project_id;type:uuid;not null;index"`
	UnitCategory  realestate.UnitCategory `gorm:"column:type_bien;type:varchar(20);not null"`
	UnitNumber    string                  `gorm:"column:numero_unite;type:varchar(50);not null"`
	ClientName    string                  `gorm:"column:nom_client;type:varchar(200);not null"`
	ClientPhone   string                  `gorm:"column:telephone_client;type:varchar(50)"`
	TotalPrice    decimal.Decimal         `gorm:"column:prix_total;type:decimal(18,2);not null"`
	SaleDate      time.Time               `gorm:"column:date_vente;type:date;not null"`
	AdvanceAmount decimal.Decimal         `gorm:"column:avance_total;type:decimal(18,2);not null;default:0"`
	AdvanceSplit  SplitColumns            `gorm:"embedded;embeddedPrefix:avance_"`
	AdvanceMethod *string                 `gorm:"column:avance_mode_paiement;type:varchar(30)"`
	Status        realestate.SaleStatus   `gorm:"column:statut;type:varchar(20);not null;default:'en_cours';index"`
	PaymentTotalsColumns
	Description  string     `gorm:"column:description;type:text"`
	CancelledAt  *time.Time `gorm:"column:cancelled_at"`
	CancelReason string     `gorm:"column:cancel_reason;type:varchar(500)"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale.
func (m *SaleModel) ToDomain() *realestate.Sale {
	return &realestate.Sale{
		BaseAggregateRoot: m.aggregate(),
		ProjectID:         m.ProjectID,
		UnitCategory:      m.UnitCategory,
		UnitNumber:        m.UnitNumber,
		ClientName:        m.ClientName,
		ClientPhone:       m.ClientPhone,
		TotalPrice:        m.TotalPrice,
		SaleDate:          m.SaleDate,
		AdvanceAmount:     m.AdvanceAmount,
		Advance:           m.AdvanceSplit.ToDomain(),
		AdvanceMethod:     finance.PaymentMethod(derefString(m.AdvanceMethod)),
		Status:            m.Status,
		TotalPaid:         m.TotalPaid,
		Remaining:         m.Remaining,
		CashPaid:          m.CashPaid,
		CheckPaid:         m.CheckPaid,
		PaymentStatus:     m.PaymentStatus,
		Description:       m.Description,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
	}
}

// FromDomain populates the persistence model from a domain Sale.
func (m *SaleModel) FromDomain(s *realestate.Sale) {
	m.setAggregate(s.BaseAggregateRoot)
	m.ProjectID = s.ProjectID
	m.UnitCategory = s.UnitCategory
	m.UnitNumber = s.UnitNumber
	m.ClientName = s.ClientName
	m.ClientPhone = s.ClientPhone
	m.TotalPrice = s.TotalPrice
	m.SaleDate = s.SaleDate
	m.AdvanceAmount = s.AdvanceAmount
	m.AdvanceSplit = splitColumnsFrom(s.Advance)
	m.AdvanceMethod = methodPtr(s.AdvanceMethod)
	m.Status = s.Status
	m.PaymentTotalsColumns = totalsColumnsFrom(s.CurrentTotals())
	m.Description = s.Description
	m.CancelledAt = s.CancelledAt
	m.CancelReason = s.CancelReason
}

// SaleModelFromDomain creates a new persistence model from a domain Sale.
func SaleModelFromDomain(s *realestate.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(s)
	return m
}

// ExpenseModel is the persistence model for the Expense aggregate root.
type ExpenseModel struct {
	AggregateModel
	ProjectID     uuid.UUID       `gorm:"column:project_id;type:uuid;not null;index"`
	Name          string          `gorm:"column:nom;type:varchar(200);not null"`
	SupplierName  string          `gorm:"column:nom_fournisseur;type:varchar(200)"`
	TotalAmount   decimal.Decimal `gorm:"column:montant_total;type:decimal(18,2);not null"`
	PaymentMethod *string         `gorm:"column:mode_paiement;type:varchar(30)"`
	ExpenseDate   time.Time       `gorm:"column:date_depense;type:date;not null"`
	Remark        string          `gorm:"column:remarque;type:text"`
	PaymentTotalsColumns
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a domain Expense.
func (m *ExpenseModel) ToDomain() *realestate.Expense {
	return &realestate.Expense{
		BaseAggregateRoot: m.aggregate(),
		ProjectID:         m.ProjectID,
		Name:              m.Name,
		SupplierName:      m.SupplierName,
		TotalAmount:       m.TotalAmount,
		PaymentMethod:     finance.PaymentMethod(derefString(m.PaymentMethod)),
		ExpenseDate:       m.ExpenseDate,
		Remark:            m.Remark,
		TotalPaid:         m.TotalPaid,
		Remaining:         m.Remaining,
		CashPaid:          m.CashPaid,
		CheckPaid:         m.CheckPaid,
		PaymentStatus:     m.PaymentStatus,
	}
}

// FromDomain populates the persistence model from a domain Expense.
func (m *ExpenseModel) FromDomain(e *realestate.Expense) {
	m.setAggregate(e.BaseAggregateRoot)
	m.ProjectID = e.ProjectID
	m.Name = e.Name
	m.SupplierName = e.SupplierName
	m.TotalAmount = e.TotalAmount
	m.PaymentMethod = methodPtr(e.PaymentMethod)
	m.ExpenseDate = e.ExpenseDate
	m.Remark = e.Remark
	m.PaymentTotalsColumns = totalsColumnsFrom(e.CurrentTotals())
}

// ExpenseModelFromDomain creates a new persistence model from a domain Expense.
func ExpenseModelFromDomain(e *realestate.Expense) *ExpenseModel {
	m := &ExpenseModel{}
	m.FromDomain(e)
	return m
}
