package finance

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/domain/realestate"
	"github.com/immo/backend/internal/domain/shared"
	"go.uber.org/zap/zaptest"
)

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

func (m *MockEventPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

// memStore keeps copies of every row, the way a database would
type memStore struct {
	mu           sync.Mutex
	projects     map[uuid.UUID]realestate.Project
	sales        map[uuid.UUID]realestate.Sale
	expenses     map[uuid.UUID]realestate.Expense
	installments map[uuid.UUID]finance.Installment
	checks       map[uuid.UUID]finance.Check
}

func newMemStore() *memStore {
	return &memStore{
		projects:     make(map[uuid.UUID]realestate.Project),
		sales:        make(map[uuid.UUID]realestate.Sale),
		expenses:     make(map[uuid.UUID]realestate.Expense),
		installments: make(map[uuid.UUID]finance.Installment),
		checks:       make(map[uuid.UUID]finance.Check),
	}
}

func (s *memStore) repositories() Repositories {
	return Repositories{
		Projects:     &memProjects{s},
		Sales:        &memSales{s},
		Expenses:     &memExpenses{s},
		Installments: &memInstallments{s},
		Checks:       &memChecks{s},
	}
}

type memProjects struct{ s *memStore }

func (r *memProjects) FindByID(_ context.Context, id uuid.UUID) (*realestate.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (r *memProjects) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*realestate.Project, error) {
	return r.FindByID(ctx, id)
}

func (r *memProjects) FindAll(_ context.Context, _ shared.Filter) ([]realestate.Project, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]realestate.Project, 0, len(r.s.projects))
	for _, p := range r.s.projects {
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (r *memProjects) Save(_ context.Context, p *realestate.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *p
	cp.ClearDomainEvents()
	r.s.projects[p.ID] = cp
	return nil
}

func (r *memProjects) SaveWithLock(_ context.Context, p *realestate.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if stored, ok := r.s.projects[p.ID]; !ok || stored.Version != p.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	cp := *p
	cp.ClearDomainEvents()
	r.s.projects[p.ID] = cp
	return nil
}

type memSales struct{ s *memStore }

func (r *memSales) FindByID(_ context.Context, id uuid.UUID) (*realestate.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sale, ok := r.s.sales[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &sale, nil
}

func (r *memSales) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*realestate.Sale, error) {
	return r.FindByID(ctx, id)
}

func (r *memSales) FindByProject(_ context.Context, projectID uuid.UUID) ([]realestate.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []realestate.Sale
	for _, sale := range r.s.sales {
		if sale.ProjectID == projectID {
			out = append(out, sale)
		}
	}
	return out, nil
}

func (r *memSales) CountActiveByCategory(_ context.Context, projectID uuid.UUID, category realestate.UnitCategory) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, sale := range r.s.sales {
		if sale.ProjectID == projectID && sale.UnitCategory == category && sale.Status.IsActive() {
			n++
		}
	}
	return n, nil
}

func (r *memSales) ExistsActiveUnit(_ context.Context, projectID uuid.UUID, category realestate.UnitCategory, unitNumber string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sale := range r.s.sales {
		if sale.ProjectID == projectID && sale.UnitCategory == category &&
			sale.UnitNumber == unitNumber && sale.Status.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (r *memSales) Save(_ context.Context, sale *realestate.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *sale
	cp.ClearDomainEvents()
	r.s.sales[sale.ID] = cp
	return nil
}

func (r *memSales) SaveWithLock(_ context.Context, sale *realestate.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if stored, ok := r.s.sales[sale.ID]; !ok || stored.Version != sale.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	cp := *sale
	cp.ClearDomainEvents()
	r.s.sales[sale.ID] = cp
	return nil
}

type memExpenses struct{ s *memStore }

func (r *memExpenses) FindByID(_ context.Context, id uuid.UUID) (*realestate.Expense, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.expenses[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &e, nil
}

func (r *memExpenses) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*realestate.Expense, error) {
	return r.FindByID(ctx, id)
}

func (r *memExpenses) FindByProject(_ context.Context, projectID uuid.UUID) ([]realestate.Expense, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []realestate.Expense
	for _, e := range r.s.expenses {
		if e.ProjectID == projectID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memExpenses) Save(_ context.Context, e *realestate.Expense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *e
	cp.ClearDomainEvents()
	r.s.expenses[e.ID] = cp
	return nil
}

func (r *memExpenses) SaveWithLock(_ context.Context, e *realestate.Expense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if stored, ok := r.s.expenses[e.ID]; !ok || stored.Version != e.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	cp := *e
	cp.ClearDomainEvents()
	r.s.expenses[e.ID] = cp
	return nil
}

type memInstallments struct{ s *memStore }

func (r *memInstallments) FindByID(_ context.Context, parent finance.ParentRef, id uuid.UUID) (*finance.Installment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inst, ok := r.s.installments[id]
	if !ok || inst.Parent != parent {
		return nil, finance.ErrInstallmentNotFound
	}
	return &inst, nil
}

func (r *memInstallments) FindByParent(_ context.Context, parent finance.ParentRef) ([]finance.Installment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []finance.Installment
	for _, inst := range r.s.installments {
		if inst.Parent == parent {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNo < out[j].SequenceNo })
	return out, nil
}

func (r *memInstallments) Save(_ context.Context, inst *finance.Installment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.installments[inst.ID] = *inst
	return nil
}

func (r *memInstallments) SaveBatch(ctx context.Context, rows []*finance.Installment) error {
	for _, inst := range rows {
		if err := r.Save(ctx, inst); err != nil {
			return err
		}
	}
	return nil
}

type memChecks struct{ s *memStore }

func (r *memChecks) FindByID(_ context.Context, id uuid.UUID) (*finance.Check, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.checks[id]
	if !ok {
		return nil, finance.ErrCheckNotFound
	}
	return &c, nil
}

func (r *memChecks) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.Check, error) {
	return r.FindByID(ctx, id)
}

func (r *memChecks) ExistsByIssuerAndNumber(_ context.Context, issuerName, number string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.checks {
		if c.IssuerName == issuerName && c.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *memChecks) FindAll(_ context.Context, filter finance.CheckFilter) ([]finance.Check, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []finance.Check
	for _, c := range r.s.checks {
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if filter.SaleID != nil && (c.SaleID == nil || *c.SaleID != *filter.SaleID) {
			continue
		}
		if filter.ExpenseID != nil && (c.ExpenseID == nil || *c.ExpenseID != *filter.ExpenseID) {
			continue
		}
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (r *memChecks) Save(_ context.Context, c *finance.Check) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *c
	cp.ClearDomainEvents()
	r.s.checks[c.ID] = cp
	return nil
}

func (r *memChecks) SaveWithLock(_ context.Context, c *finance.Check) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if stored, ok := r.s.checks[c.ID]; !ok || stored.Version != c.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	cp := *c
	cp.ClearDomainEvents()
	r.s.checks[c.ID] = cp
	return nil
}

// testEnv wires every service over one in-memory store
type testEnv struct {
	store     *memStore
	publisher *MockEventPublisher
	ledger    *LedgerService
	checks    *CheckService
	projects  *ProjectService
	sales     *SaleService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newMemStore()
	repos := store.repositories()
	scope := NewNoOpTransactionScope(repos)
	logger := zaptest.NewLogger(t)
	publisher := &MockEventPublisher{}

	env := &testEnv{
		store:     store,
		publisher: publisher,
		ledger:    NewLedgerService(repos, scope, logger),
		checks:    NewCheckService(repos, scope, logger),
		projects:  NewProjectService(repos, scope, logger),
		sales:     NewSaleService(repos, scope, logger),
	}
	env.ledger.SetEventPublisher(publisher)
	env.checks.SetEventPublisher(publisher)
	env.projects.SetEventPublisher(publisher)
	env.sales.SetEventPublisher(publisher)
	return env
}
