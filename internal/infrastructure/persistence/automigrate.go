package persistence

import (
	"fmt"

	"github.com/immo/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// AutoMigrate creates the payment tables from the models, including the
// composite unique constraints that the SQL migrations declare on PostgreSQL
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.ProjectModel{},
		&models.SaleModel{},
		&models.ExpenseModel{},
		&models.PaymentPlanModel{},
		&models.ExpensePaymentModel{},
		&models.CheckModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	for _, stmt := range []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_payment_plans_sale_echeance ON payment_plans (sale_id, numero_echeance)",
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_expense_payments_expense_echeance ON expense_payments (expense_id, numero_echeance)",
	} {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
