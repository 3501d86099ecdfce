package realestate

import (
	"fmt"
	"strings"
	"time"

	"github.com/immo/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// UnitCategory is a kind of sellable unit in a project
type UnitCategory string

const (
	UnitCategoryApartment UnitCategory = "appartement"
	UnitCategoryGarage    UnitCategory = "garage"
	UnitCategoryLot       UnitCategory = "lot"
)

// IsValid checks if the category is valid
func (c UnitCategory) IsValid() bool {
	switch c {
	case UnitCategoryApartment, UnitCategoryGarage, UnitCategoryLot:
		return true
	}
	return false
}

// String returns the string representation of UnitCategory
func (c UnitCategory) String() string {
	return string(c)
}

// Project is a real-estate programme with a declared capacity per unit category
type Project struct {
	shared.BaseAggregateRoot
	Name        string
	Location    string
	Surface     decimal.Decimal
	Apartments  int
	Garages     int
	Lots        int
	Description string
}

// ProjectCapacity groups the declared unit counts of a project
type ProjectCapacity struct {
	Apartments int `json:"nombre_appartements"`
	Garages    int `json:"nombre_garages"`
	Lots       int `json:"nombre_lots"`
}

// NewProject creates a new project
func NewProject(name, location string, surface decimal.Decimal, capacity ProjectCapacity) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("INVALID_PROJECT_NAME", "Project name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewValidationError("INVALID_PROJECT_NAME", "Project name cannot exceed 200 characters")
	}
	if surface.IsNegative() {
		return nil, shared.NewValidationError("INVALID_SURFACE", "Surface cannot be negative")
	}
	for _, c := range []int{capacity.Apartments, capacity.Garages, capacity.Lots} {
		if c < 0 {
			return nil, shared.NewValidationError(CodeInvalidCapacity, "Capacity cannot be negative")
		}
	}

	p := &Project{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Location:          strings.TrimSpace(location),
		Surface:           surface,
		Apartments:        capacity.Apartments,
		Garages:           capacity.Garages,
		Lots:              capacity.Lots,
	}
	p.AddDomainEvent(NewProjectCreatedEvent(p))
	return p, nil
}

// Capacity returns the declared count of units in category
func (p *Project) Capacity(category UnitCategory) int {
	switch category {
	case UnitCategoryApartment:
		return p.Apartments
	case UnitCategoryGarage:
		return p.Garages
	case UnitCategoryLot:
		return p.Lots
	}
	return 0
}

// setCapacity writes the capacity of one category. Callers go through
// ChangeCapacity so the sold-units invariant is checked first.
func (p *Project) setCapacity(category UnitCategory, capacity int) {
	switch category {
	case UnitCategoryApartment:
		p.Apartments = capacity
	case UnitCategoryGarage:
		p.Garages = capacity
	case UnitCategoryLot:
		p.Lots = capacity
	}
	p.Touch(time.Now())
}

// ChangeCapacity sets the capacity of category after checking it against
// the number of active sales in that category
func (p *Project) ChangeCapacity(category UnitCategory, newCapacity int, activeSold int64) error {
	if err := ValidateCapacityChange(p, category, newCapacity, activeSold); err != nil {
		return err
	}
	previous := p.Capacity(category)
	if previous == newCapacity {
		return nil
	}
	p.setCapacity(category, newCapacity)
	p.AddDomainEvent(NewProjectCapacityChangedEvent(p, category, previous, newCapacity))
	return nil
}

// UpdateDetails changes the descriptive fields of the project
func (p *Project) UpdateDetails(name, location, description string, surface decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("INVALID_PROJECT_NAME", "Project name cannot be empty")
	}
	if surface.IsNegative() {
		return shared.NewValidationError("INVALID_SURFACE", "Surface cannot be negative")
	}
	p.Name = name
	p.Location = strings.TrimSpace(location)
	p.Description = description
	p.Surface = surface
	p.Touch(time.Now())
	return nil
}

func (p *Project) String() string {
	return fmt.Sprintf("%s (%d appartements, %d garages, %d lots)", p.Name, p.Apartments, p.Garages, p.Lots)
}
