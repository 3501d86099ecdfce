package finance

import (
	"context"
	"fmt"

	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/domain/realestate"
	"github.com/immo/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ledgerTx is the unit of work of one payment mutation: the parent row is
// locked, every row of the parent is loaded, and the touched rows, checks and
// derived totals are written back before the transaction commits.
type ledgerTx struct {
	repos  TransactionalRepositories
	parent finance.Payable
	ledger *finance.Ledger
	dirty  []*finance.Installment
	events []shared.DomainEvent
}

// openLedger locks the parent and loads its ledger
func openLedger(ctx context.Context, repos TransactionalRepositories, ref finance.ParentRef) (*ledgerTx, error) {
	parent, err := lockParent(ctx, repos, ref)
	if err != nil {
		return nil, err
	}
	rows, err := repos.Installments().FindByParent(ctx, ref)
	if err != nil {
		return nil, err
	}
	return newLedgerTx(repos, parent, rows), nil
}

func newLedgerTx(repos TransactionalRepositories, parent finance.Payable, rows []finance.Installment) *ledgerTx {
	return &ledgerTx{
		repos:  repos,
		parent: parent,
		ledger: finance.NewLedger(parent.PaymentParent(), parent.ContractualTotal(), rows),
	}
}

func lockParent(ctx context.Context, repos TransactionalRepositories, ref finance.ParentRef) (finance.Payable, error) {
	switch ref.Type {
	case finance.ParentTypeSale:
		sale, err := repos.Sales().FindByIDForUpdate(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return sale, nil
	case finance.ParentTypeExpense:
		expense, err := repos.Expenses().FindByIDForUpdate(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return expense, nil
	}
	return nil, shared.NewValidationError("INVALID_PARENT", fmt.Sprintf("Unknown parent type %q", ref.Type))
}

func saveParent(ctx context.Context, repos TransactionalRepositories, parent finance.Payable) error {
	switch p := parent.(type) {
	case *realestate.Sale:
		return repos.Sales().SaveWithLock(ctx, p)
	case *realestate.Expense:
		return repos.Expenses().SaveWithLock(ctx, p)
	}
	return fmt.Errorf("unsupported payment parent %T", parent)
}

func (tx *ledgerTx) ref() finance.ParentRef {
	return tx.parent.PaymentParent()
}

// touch queues an installment for saving
func (tx *ledgerTx) touch(inst *finance.Installment) {
	for _, d := range tx.dirty {
		if d == inst {
			return
		}
	}
	tx.dirty = append(tx.dirty, inst)
}

// collect drains the events raised by an aggregate
func (tx *ledgerTx) collect(agg shared.AggregateRoot) {
	tx.events = append(tx.events, agg.PullDomainEvents()...)
}

// attachCheck issues the check backing inst's check leg
func (tx *ledgerTx) attachCheck(ctx context.Context, inst *finance.Installment, details *finance.CheckDetails) error {
	if !inst.Check.IsPositive() {
		return nil
	}
	if details == nil {
		return shared.NewValidationError(finance.CodeMissingCheckDetails,
			fmt.Sprintf("Check details are required for a %s check leg", inst.Check.StringFixed(2)))
	}

	check, err := newUniqueCheck(ctx, tx.repos.Checks(), *details, finance.CheckTypeFor(inst.Parent.Type), inst.Check)
	if err != nil {
		return err
	}
	check.LinkTo(inst.Parent, inst.ID)
	if err := tx.repos.Checks().Save(ctx, check); err != nil {
		return err
	}
	inst.LinkCheck(check.ID)
	tx.collect(check)
	return nil
}

// reconcileEditedCheck brings the linked check in line with an edited check leg
func (tx *ledgerTx) reconcileEditedCheck(ctx context.Context, inst *finance.Installment, details *finance.CheckDetails) error {
	if inst.CheckID != nil {
		check, err := tx.repos.Checks().FindByIDForUpdate(ctx, *inst.CheckID)
		if err != nil {
			return err
		}

		switch {
		case check.Status == finance.CheckStatusCancelled:
			inst.UnlinkCheck()
		case check.Amount.Equal(inst.Check):
			return nil
		case check.Status == finance.CheckStatusCleared:
			return shared.NewStateTransitionError(shared.CodeInvalidTransition,
				fmt.Sprintf("Check %s has cleared for %s; the check leg cannot change",
					check.Number, check.Amount.StringFixed(2)))
		case inst.Check.IsPositive() && (details == nil || check.SameInstrument(*details)):
			// same paper check, new amount
			if err := check.Amend(inst.Check); err != nil {
				return err
			}
			if err := tx.repos.Checks().SaveWithLock(ctx, check); err != nil {
				return err
			}
			tx.collect(check)
			return nil
		default:
			if err := check.Cancel("payment edited"); err != nil {
				return err
			}
			if err := tx.repos.Checks().SaveWithLock(ctx, check); err != nil {
				return err
			}
			tx.collect(check)
			inst.UnlinkCheck()
		}
	}
	return tx.attachCheck(ctx, inst, details)
}

// releaseCheck handles the check of a cancelled payment: an issued check is
// cancelled with it, a cleared one is kept and flagged as stale.
func (tx *ledgerTx) releaseCheck(ctx context.Context, inst *finance.Installment, reason string) error {
	if inst.CheckID == nil {
		return nil
	}
	check, err := tx.repos.Checks().FindByIDForUpdate(ctx, *inst.CheckID)
	if err != nil {
		return err
	}

	switch check.Status {
	case finance.CheckStatusIssued:
		if err := check.Cancel(reason); err != nil {
			return err
		}
	case finance.CheckStatusCleared:
		check.MarkLinkStale()
	default:
		return nil
	}
	if err := tx.repos.Checks().SaveWithLock(ctx, check); err != nil {
		return err
	}
	tx.collect(check)
	return nil
}

// commit validates the ledger, writes the touched rows and the derived totals
func (tx *ledgerTx) commit(ctx context.Context) (finance.Totals, error) {
	if err := tx.ledger.Validate(); err != nil {
		return finance.Totals{}, err
	}
	if len(tx.dirty) > 0 {
		if err := tx.repos.Installments().SaveBatch(ctx, tx.dirty); err != nil {
			return finance.Totals{}, err
		}
	}

	previous := tx.parent.CurrentTotals().Status
	totals := finance.RecalculateInto(tx.parent, tx.ledger.Installments())
	if err := saveParent(ctx, tx.repos, tx.parent); err != nil {
		return finance.Totals{}, err
	}

	events := make([]shared.DomainEvent, 0, len(tx.ledger.Events())+len(tx.events)+1)
	events = append(events, tx.ledger.Events()...)
	tx.events = append(events, tx.events...)
	tx.ledger.ClearEvents()
	if previous != totals.Status {
		tx.events = append(tx.events, finance.NewPaymentStatusChangedEvent(tx.ref(), previous, totals))
	}
	return totals, nil
}

func (tx *ledgerTx) result(inst *finance.Installment, totals finance.Totals) *PaymentResult {
	return &PaymentResult{
		Installment: toInstallmentResponse(inst),
		Totals:      toTotalsResponse(tx.parent.ContractualTotal(), totals),
	}
}

// newUniqueCheck builds a check after making sure the issuer has not used
// the number before
func newUniqueCheck(ctx context.Context, checks finance.CheckRepository, details finance.CheckDetails, checkType finance.CheckType, amount decimal.Decimal) (*finance.Check, error) {
	check, err := finance.NewCheck(details, checkType, amount)
	if err != nil {
		return nil, err
	}
	exists, err := checks.ExistsByIssuerAndNumber(ctx, check.IssuerName, check.Number)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewValidationError(finance.CodeDuplicateCheckNumber,
			fmt.Sprintf("Check number %s already exists for issuer %s",
				check.Number, check.IssuerName))
	}
	return check, nil
}
