package realestate

import (
	"fmt"

	"github.com/immo/backend/internal/domain/shared"
)

// Error codes raised by the capacity rules
const (
	CodeInvalidCapacity   = "INVALID_CAPACITY"
	CodeInvalidCategory   = "INVALID_CATEGORY"
	CodeCapacityBelowSold = "CAPACITY_BELOW_SOLD"
	CodeCapacityExceeded  = "CAPACITY_EXCEEDED"
	CodeUnitAlreadySold   = "UNIT_ALREADY_SOLD"
)

// ValidateCapacityChange checks that a project's capacity in category is not
// set below the number of active sales in that category. Increases always pass.
// activeSold must be read under the same lock used to persist the change.
func ValidateCapacityChange(project *Project, category UnitCategory, newCapacity int, activeSold int64) error {
	if !category.IsValid() {
		return shared.NewValidationError(CodeInvalidCategory, fmt.Sprintf("Unknown unit category %q", category))
	}
	if newCapacity < 0 {
		return shared.NewValidationError(CodeInvalidCapacity, "Capacity cannot be negative")
	}
	if newCapacity >= project.Capacity(category) {
		return nil
	}
	if int64(newCapacity) < activeSold {
		return shared.NewConsistencyError(CodeCapacityBelowSold,
			fmt.Sprintf("Cannot set %s capacity to %d: %d active sales already use it", category, newCapacity, activeSold),
			map[string]any{
				"category":         string(category),
				"current_capacity": project.Capacity(category),
				"active_sold":      activeSold,
				"requested":        newCapacity,
			})
	}
	return nil
}

// ValidateNewSale checks that one more sale fits in the category capacity
func ValidateNewSale(project *Project, category UnitCategory, activeSold int64) error {
	if !category.IsValid() {
		return shared.NewValidationError(CodeInvalidCategory, fmt.Sprintf("Unknown unit category %q", category))
	}
	capacity := project.Capacity(category)
	if activeSold >= int64(capacity) {
		return shared.NewConsistencyError(CodeCapacityExceeded,
			fmt.Sprintf("Project %s has no %s left: %d of %d sold", project.Name, category, activeSold, capacity),
			map[string]any{
				"category":         string(category),
				"current_capacity": capacity,
				"active_sold":      activeSold,
			})
	}
	return nil
}
