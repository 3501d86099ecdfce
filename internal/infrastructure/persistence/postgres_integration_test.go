//go:build integration

package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	appfinance "github.com/immo/backend/internal/application/finance"
	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/domain/realestate"
	"github.com/immo/backend/internal/domain/shared"
	"github.com/immo/backend/internal/infrastructure/migration"
	"github.com/immo/backend/migrations"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newPostgresDatabase starts a PostgreSQL container and applies the
// embedded migrations to it
func newPostgresDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("immo_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// the migrator closes its connection when done
	migrationDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	m, err := migration.New(migrationDB, migrations.FS, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)
	require.NoError(t, m.Close())

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 newGormLogger(zaptest.NewLogger(t), gormlogger.Warn),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(10)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newPostgresPaymentServices(t *testing.T, db *gorm.DB, lockTimeout time.Duration) *paymentServices {
	t.Helper()
	repos := NewRepositories(db)
	scope := NewGormTransactionScope(db, lockTimeout)
	log := zaptest.NewLogger(t)
	return &paymentServices{
		db:       db,
		projects: appfinance.NewProjectService(repos, scope, log),
		sales:    appfinance.NewSaleService(repos, scope, log),
		ledger:   appfinance.NewLedgerService(repos, scope, log),
		checks:   appfinance.NewCheckService(repos, scope, log),
	}
}

func TestPostgres_PaymentLifecycle(t *testing.T) {
	svc := newPostgresPaymentServices(t, newPostgresDatabase(t), 2*time.Second)
	ctx := context.Background()
	saleID := svc.createSale(t, svc.createProject(t, 10), "C-4", "200000")
	ref := finance.SaleRef(saleID)
	first := svc.schedule(t, ref, 1, "120000")
	svc.schedule(t, ref, 2, "80000")

	res, err := svc.ledger.RecordPayment(ctx, appfinance.RecordPaymentRequest{
		Parent:        ref,
		InstallmentID: first,
		PaymentRequest: appfinance.PaymentRequest{
			Amount: dec("120000"),
			Method: finance.PaymentMethodCheckCash,
			Split:  finance.ExplicitSplit(dec("90000"), dec("30000"), dec("20000"), dec("100000")),
			Check:  checkInfo("PG-1"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "80000.00", res.Totals.Remaining.StringFixed(2))
	assert.Equal(t, "100000.00", res.Totals.CheckPaid.StringFixed(2))

	_, err = svc.ledger.CancelPayment(ctx, appfinance.CancelPaymentRequest{
		Parent:        ref,
		InstallmentID: first,
		Reason:        "erreur de saisie",
	})
	require.NoError(t, err)

	sale, err := svc.ledger.GetSale(ctx, saleID)
	require.NoError(t, err)
	assert.True(t, sale.Totals.TotalPaid.IsZero())
	assert.Equal(t, string(finance.PaymentStatusUnpaid), sale.Totals.PaymentStatus)
}

func TestPostgres_DuplicateCheckNumber(t *testing.T) {
	svc := newPostgresPaymentServices(t, newPostgresDatabase(t), time.Second)
	ctx := context.Background()

	issue := func() error {
		_, err := svc.checks.Issue(ctx, appfinance.IssueCheckRequest{
			Details: *checkInfo("PG-77"),
			Type:    finance.CheckTypeReceived,
			Amount:  dec("5000"),
		})
		return err
	}
	require.NoError(t, issue())

	err := issue()
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, finance.CodeDuplicateCheckNumber, de.Code)
	assert.Equal(t, shared.KindValidation, de.Kind)
}

func TestPostgres_ConcurrentPaymentsNeverOverAllocate(t *testing.T) {
	svc := newPostgresPaymentServices(t, newPostgresDatabase(t), 5*time.Second)
	ctx := context.Background()
	saleID := svc.createSale(t, svc.createProject(t, 10), "D-1", "100000")
	ref := finance.SaleRef(saleID)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.ledger.RecordAdHocPayment(ctx, appfinance.AdHocPaymentRequest{
				Parent: ref,
				PaymentRequest: appfinance.PaymentRequest{
					Amount:      dec("20000"),
					Method:      finance.PaymentMethodCash,
					Description: fmt.Sprintf("versement %d", i),
				},
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			failures = append(failures, err)
		}(i)
	}
	wg.Wait()

	for _, err := range failures {
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.True(t, de.Code == finance.CodeOverAllocation || de.Retryable(),
			"unexpected failure: %v", err)
	}
	assert.LessOrEqual(t, succeeded, 5)

	sale, err := svc.ledger.GetSale(ctx, saleID)
	require.NoError(t, err)
	assert.Len(t, sale.Installments, succeeded)
	assert.Equal(t, fmt.Sprintf("%d.00", succeeded*20000), sale.Totals.TotalPaid.StringFixed(2))

	seen := make(map[int]bool)
	for _, inst := range sale.Installments {
		assert.False(t, seen[inst.SequenceNo], "sequence %d assigned twice", inst.SequenceNo)
		seen[inst.SequenceNo] = true
	}
}

func TestPostgres_LockTimeoutIsRetryable(t *testing.T) {
	db := newPostgresDatabase(t)
	svc := newPostgresPaymentServices(t, db, 200*time.Millisecond)
	ctx := context.Background()
	saleID := svc.createSale(t, svc.createProject(t, 10), "E-2", "90000")

	holder := db.Begin()
	require.NoError(t, holder.Error)
	defer holder.Rollback()
	var locked uuid.UUID
	require.NoError(t, holder.Raw("SELECT id FROM sales WHERE id = ? FOR UPDATE", saleID).Scan(&locked).Error)

	_, err := svc.ledger.RecordAdHocPayment(ctx, appfinance.AdHocPaymentRequest{
		Parent:         finance.SaleRef(saleID),
		PaymentRequest: appfinance.PaymentRequest{Amount: dec("1000"), Method: finance.PaymentMethodCash},
	})
	require.Error(t, err)
	assert.True(t, shared.IsRetryable(err), "lock wait must surface as a retryable conflict: %v", err)
}

func TestPostgres_UnitSoldOnce(t *testing.T) {
	svc := newPostgresPaymentServices(t, newPostgresDatabase(t), time.Second)
	projectID := svc.createProject(t, 10)
	svc.createSale(t, projectID, "F-9", "150000")

	_, err := svc.sales.CreateSale(context.Background(), appfinance.CreateSaleRequest{
		ProjectID:    projectID,
		UnitCategory: realestate.UnitCategoryApartment,
		UnitNumber:   "F-9",
		ClientName:   "Tazi",
		TotalPrice:   dec("150000"),
		SaleDate:     time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
	})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, realestate.CodeUnitAlreadySold, de.Code)
}
