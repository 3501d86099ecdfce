package finance

import (
	"fmt"
	"sort"
	"sync"
)

// PaymentMethod is the label stored in the mode_paiement column.
// The set is open: new labels are registered with RegisterPaymentMethod and
// added to the database enum by an additive migration.
type PaymentMethod string

const (
	PaymentMethodCash      PaymentMethod = "espece"
	PaymentMethodCheck     PaymentMethod = "cheque"
	PaymentMethodCheckCash PaymentMethod = "cheque_espece"
	PaymentMethodTransfer  PaymentMethod = "virement"
)

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// IsValid reports whether the method is registered
func (m PaymentMethod) IsValid() bool {
	_, ok := LookupPaymentMethod(m)
	return ok
}

// MethodSpec describes which legs a payment method settles through.
// Business rules read these properties and never switch on labels.
type MethodSpec struct {
	// CheckLeg is set when some of the amount is paid by check.
	CheckLeg bool
	// CashLeg is set when some of the amount is paid with non-check funds
	// (cash or bank transfer). Those funds land in the cash column.
	CashLeg bool
}

// IsMixed reports whether the method splits between check and cash, in which
// case the caller must supply every sub-amount explicitly.
func (s MethodSpec) IsMixed() bool {
	return s.CheckLeg && s.CashLeg
}

var methodRegistry = struct {
	sync.RWMutex
	specs map[PaymentMethod]MethodSpec
}{
	specs: map[PaymentMethod]MethodSpec{
		PaymentMethodCash:      {CashLeg: true},
		PaymentMethodCheck:     {CheckLeg: true},
		PaymentMethodCheckCash: {CheckLeg: true, CashLeg: true},
		PaymentMethodTransfer:  {CashLeg: true},
	},
}

// RegisterPaymentMethod adds a payment method label. Existing labels cannot be
// redefined or removed.
func RegisterPaymentMethod(method PaymentMethod, spec MethodSpec) error {
	if method == "" {
		return fmt.Errorf("payment method label cannot be empty")
	}
	if !spec.CheckLeg && !spec.CashLeg {
		return fmt.Errorf("payment method %q must settle through at least one leg", method)
	}

	methodRegistry.Lock()
	defer methodRegistry.Unlock()

	if existing, ok := methodRegistry.specs[method]; ok {
		if existing == spec {
			return nil
		}
		return fmt.Errorf("payment method %q is already registered", method)
	}
	methodRegistry.specs[method] = spec
	return nil
}

// LookupPaymentMethod returns the spec for a registered method
func LookupPaymentMethod(method PaymentMethod) (MethodSpec, bool) {
	methodRegistry.RLock()
	defer methodRegistry.RUnlock()
	spec, ok := methodRegistry.specs[method]
	return spec, ok
}

// PaymentMethods returns all registered labels in lexical order
func PaymentMethods() []PaymentMethod {
	methodRegistry.RLock()
	defer methodRegistry.RUnlock()

	methods := make([]PaymentMethod, 0, len(methodRegistry.specs))
	for m := range methodRegistry.specs {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	return methods
}
