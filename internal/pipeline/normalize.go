package pipeline

// normalize.go canonicalizes string and categorical fields. All operations
// are idempotent: normalizing an already-normalized row is a no-op, and the
// staff pseudonymization is stable for a given run's allocator.

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// orderTypeSynonyms maps raw order-type spellings to the canonical channel.
// Canonical values map to themselves so normalization is idempotent.
var orderTypeSynonyms = map[string]OrderType{
	"in_store": OrderInStore,
	"in-store": OrderInStore,
	"instore":  OrderInStore,
	"in store": OrderInStore,
	"store":    OrderInStore,
	"pos":      OrderInStore,
	"pickup":   OrderPickup,
	"pick-up":  OrderPickup,
	"pick_up":  OrderPickup,
	"curbside": OrderPickup,
	"delivery": OrderDelivery,
	"deliver":  OrderDelivery,
	"other":    OrderOther,
}

// tenderSynonyms maps raw tender spellings to the canonical payment method.
var tenderSynonyms = map[string]Tender{
	"credit":      TenderCredit,
	"credit_card": TenderCredit,
	"creditcard":  TenderCredit,
	"cc":          TenderCredit,
	"visa":        TenderCredit,
	"mastercard":  TenderCredit,
	"amex":        TenderCredit,
	"debit":       TenderDebit,
	"debit_card":  TenderDebit,
	"debitcard":   TenderDebit,
	"cash":        TenderCash,
	"other":       TenderOther,
}

// StaffAllocator pseudonymizes staff identifiers for one run. The first time
// a raw identifier is seen it is assigned the next sequential label; the same
// identifier always maps to the same label within the run. The allocator is
// run-scoped, never process-global, so concurrent runs cannot interfere.
type StaffAllocator struct {
	mu     sync.Mutex
	labels map[string]string
	issued map[string]bool
	next   int
}

// NewStaffAllocator returns an empty allocator for one run.
func NewStaffAllocator() *StaffAllocator {
	return &StaffAllocator{
		labels: make(map[string]string),
		issued: make(map[string]bool),
	}
}

// Label returns the pseudonymous label for a raw staff identifier, assigning
// the next sequential one on first sight. Empty input stays empty, and a
// label this allocator already issued passes through unchanged, keeping
// normalization idempotent.
func (a *StaffAllocator) Label(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.issued[raw] {
		return raw
	}
	if label, ok := a.labels[raw]; ok {
		return label
	}
	a.next++
	label := fmt.Sprintf("Cashier_%03d", a.next)
	a.labels[raw] = label
	a.issued[label] = true
	return label
}

// Count returns how many distinct staff identifiers have been labeled.
func (a *StaffAllocator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.labels)
}

// normalizeRow canonicalizes the row's string and categorical fields in place.
// Safe to call concurrently across rows; the allocator serializes internally.
func normalizeRow(v *rowValues, staff *StaffAllocator) {
	v.product = strings.ToLower(strings.TrimSpace(v.product))
	v.category = titleCase(v.category)
	v.staffRaw = staff.Label(v.staffRaw)

	v.orderTypeRaw = strings.ToLower(strings.TrimSpace(v.orderTypeRaw))
	v.tenderRaw = strings.ToLower(strings.TrimSpace(v.tenderRaw))
}

// normalizeOrderType maps a lowered raw value onto the canonical channel set.
func normalizeOrderType(raw string) OrderType {
	if t, ok := orderTypeSynonyms[raw]; ok {
		return t
	}
	return OrderOther
}

// normalizeTender maps a lowered raw value onto the canonical tender set.
func normalizeTender(raw string) Tender {
	if t, ok := tenderSynonyms[raw]; ok {
		return t
	}
	return TenderOther
}

// titleCase converts a category to title case. A fresh caser per call: the
// x/text casers are stateful and must not be shared across goroutines.
func titleCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ToLower(s))
}
