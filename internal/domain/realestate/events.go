package realestate

import (
	"github.com/google/uuid"
	"github.com/immo/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type names
const (
	EventTypeProjectCreated         = "ProjectCreated"
	EventTypeProjectCapacityChanged = "ProjectCapacityChanged"
	EventTypeSaleCreated            = "SaleCreated"
	EventTypeSaleCancelled          = "SaleCancelled"
	EventTypeExpenseCreated         = "ExpenseCreated"
)

// ProjectCreatedEvent is raised when a project is created
type ProjectCreatedEvent struct {
	shared.BaseDomainEvent
	ProjectID uuid.UUID       `json:"project_id"`
	Name      string          `json:"name"`
	Capacity  ProjectCapacity `json:"capacity"`
}

// NewProjectCreatedEvent creates a new ProjectCreatedEvent
func NewProjectCreatedEvent(p *Project) *ProjectCreatedEvent {
	return &ProjectCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProjectCreated, "Project", p.ID),
		ProjectID:       p.ID,
		Name:            p.Name,
		Capacity:        ProjectCapacity{Apartments: p.Apartments, Garages: p.Garages, Lots: p.Lots},
	}
}

// ProjectCapacityChangedEvent is raised when a category capacity changes
type ProjectCapacityChangedEvent struct {
	shared.BaseDomainEvent
	ProjectID        uuid.UUID    `json:"project_id"`
	Category         UnitCategory `json:"category"`
	PreviousCapacity int          `json:"previous_capacity"`
	NewCapacity      int          `json:"new_capacity"`
}

// NewProjectCapacityChangedEvent creates a new ProjectCapacityChangedEvent
func NewProjectCapacityChangedEvent(p *Project, category UnitCategory, previous, next int) *ProjectCapacityChangedEvent {
	return &ProjectCapacityChangedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeProjectCapacityChanged, "Project", p.ID),
		ProjectID:        p.ID,
		Category:         category,
		PreviousCapacity: previous,
		NewCapacity:      next,
	}
}

// SaleCreatedEvent is raised when a unit is sold
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	SaleID       uuid.UUID       `json:"sale_id"`
	ProjectID    uuid.UUID       `json:"project_id"`
	UnitCategory UnitCategory    `json:"unit_category"`
	UnitNumber   string          `json:"unit_number"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

// NewSaleCreatedEvent creates a new SaleCreatedEvent
func NewSaleCreatedEvent(s *Sale) *SaleCreatedEvent {
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, "Sale", s.ID),
		SaleID:          s.ID,
		ProjectID:       s.ProjectID,
		UnitCategory:    s.UnitCategory,
		UnitNumber:      s.UnitNumber,
		TotalPrice:      s.TotalPrice,
	}
}

// SaleCancelledEvent is raised when a sale is cancelled
type SaleCancelledEvent struct {
	shared.BaseDomainEvent
	SaleID    uuid.UUID       `json:"sale_id"`
	ProjectID uuid.UUID       `json:"project_id"`
	TotalPaid decimal.Decimal `json:"total_paid"`
	Reason    string          `json:"reason"`
}

// NewSaleCancelledEvent creates a new SaleCancelledEvent
func NewSaleCancelledEvent(s *Sale) *SaleCancelledEvent {
	return &SaleCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCancelled, "Sale", s.ID),
		SaleID:          s.ID,
		ProjectID:       s.ProjectID,
		TotalPaid:       s.TotalPaid,
		Reason:          s.CancelReason,
	}
}

// ExpenseCreatedEvent is raised when an expense is recorded
type ExpenseCreatedEvent struct {
	shared.BaseDomainEvent
	ExpenseID   uuid.UUID       `json:"expense_id"`
	ProjectID   uuid.UUID       `json:"project_id"`
	Name        string          `json:"name"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewExpenseCreatedEvent creates a new ExpenseCreatedEvent
func NewExpenseCreatedEvent(e *Expense) *ExpenseCreatedEvent {
	return &ExpenseCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseCreated, "Expense", e.ID),
		ExpenseID:       e.ID,
		ProjectID:       e.ProjectID,
		Name:            e.Name,
		TotalAmount:     e.TotalAmount,
	}
}
