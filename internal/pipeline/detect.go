package pipeline

// detect.go runs the data-quality and compliance rules. Detection is
// advisory: it annotates the batch with Exception records and never mutates
// or drops a transaction.
//
// Rules come in two tiers. Row-level rules see one transaction at a time.
// Batch-level rules need cross-row visibility (daily void counts, refund
// matching, per-staff void rates) and run once over the complete enriched
// batch, after every row has been processed.

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// ExceptionKind identifies a detection rule.
type ExceptionKind string

const (
	ExcNegativeTotal ExceptionKind = "negative_total"
	ExcTaxMismatch   ExceptionKind = "tax_mismatch"
	ExcHighDiscount  ExceptionKind = "high_discount"
	ExcUnmappedValue ExceptionKind = "unmapped_category_value"
	ExcVoidSpike     ExceptionKind = "void_spike"
	ExcOrphanRefund  ExceptionKind = "orphan_refund"
	ExcHighVoidRate  ExceptionKind = "high_void_rate"
)

// Severity ranks how urgently an exception needs review.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Exception is one advisory data-quality or compliance flag. TransactionRef
// is empty for batch-level exceptions, which reference a location and date
// (void_spike) or a staff label (high_void_rate) instead.
type Exception struct {
	Kind           ExceptionKind `json:"kind"`
	Severity       Severity      `json:"severity"`
	TransactionRef string        `json:"transaction_ref,omitempty"`
	LocationID     string        `json:"location_id,omitempty"`
	Date           string        `json:"date,omitempty"`
	StaffRef       string        `json:"staff_ref,omitempty"`
	Detail         string        `json:"detail"`
	ComputedValue  *float64      `json:"computed_value,omitempty"`
	ExpectedValue  *float64      `json:"expected_value,omitempty"`
}

// Detector evaluates the exception rules under one threshold configuration.
type Detector struct {
	thresholds Thresholds
}

// NewDetector returns a detector using the given thresholds.
func NewDetector(t Thresholds) *Detector {
	return &Detector{thresholds: t}
}

// DetectRow evaluates the row-level rules for a single transaction. A
// transaction may collect several exceptions.
func (d *Detector) DetectRow(tx *Transaction) []Exception {
	var excs []Exception

	if tx.Total < 0 && tx.Status != StatusRefunded {
		excs = append(excs, Exception{
			Kind:           ExcNegativeTotal,
			Severity:       SeverityHigh,
			TransactionRef: tx.OrderID,
			LocationID:     tx.LocationID,
			Date:           tx.Date,
			Detail:         fmt.Sprintf("negative total %.2f on non-refunded order", tx.Total),
			ComputedValue:  ptr(tx.Total),
		})
	}

	componentSum := tx.ExciseTax + tx.StateTax + tx.LocalTax
	if math.Abs(tx.TotalTax-componentSum) > d.thresholds.TaxMismatchTolerance {
		excs = append(excs, Exception{
			Kind:           ExcTaxMismatch,
			Severity:       SeverityMedium,
			TransactionRef: tx.OrderID,
			LocationID:     tx.LocationID,
			Date:           tx.Date,
			Detail: fmt.Sprintf("reported total tax %.2f differs from component sum %.2f by %.2f",
				tx.TotalTax, componentSum, math.Abs(tx.TotalTax-componentSum)),
			ComputedValue: ptr(componentSum),
			ExpectedValue: ptr(tx.TotalTax),
		})
	}

	if tx.DiscountRate > d.thresholds.HighDiscountThreshold {
		excs = append(excs, Exception{
			Kind:           ExcHighDiscount,
			Severity:       SeverityMedium,
			TransactionRef: tx.OrderID,
			LocationID:     tx.LocationID,
			Date:           tx.Date,
			Detail:         fmt.Sprintf("discount rate %.0f%% exceeds %.0f%%", tx.DiscountRate*100, d.thresholds.HighDiscountThreshold*100),
			ComputedValue:  ptr(tx.DiscountRate),
			ExpectedValue:  ptr(d.thresholds.HighDiscountThreshold),
		})
	}

	if tx.OrderType == OrderOther {
		excs = append(excs, Exception{
			Kind:           ExcUnmappedValue,
			Severity:       SeverityLow,
			TransactionRef: tx.OrderID,
			LocationID:     tx.LocationID,
			Date:           tx.Date,
			Detail:         "order type did not map to a known channel",
		})
	}
	if tx.Tender == TenderOther {
		excs = append(excs, Exception{
			Kind:           ExcUnmappedValue,
			Severity:       SeverityLow,
			TransactionRef: tx.OrderID,
			LocationID:     tx.LocationID,
			Date:           tx.Date,
			Detail:         "tender did not map to a known payment method",
		})
	}

	return excs
}

// DetectBatch evaluates the batch-level rules over the complete enriched
// batch. It must see every row for a location/date group before flagging;
// the orchestrator guarantees that barrier.
func (d *Detector) DetectBatch(txs []Transaction) []Exception {
	var excs []Exception
	excs = append(excs, d.detectVoidSpikes(txs)...)
	excs = append(excs, d.detectOrphanRefunds(txs)...)
	excs = append(excs, d.detectStaffVoidRates(txs)...)
	return excs
}

// detectVoidSpikes flags days whose voided-order count exceeds the configured
// multiple of the location's median daily void count. The median is taken
// over the location's whole batch date range, counting zero-void days; a
// degenerate median of 0 flags any day with at least one void, so quiet
// locations cannot mask real spikes.
func (d *Detector) detectVoidSpikes(txs []Transaction) []Exception {
	type daySpan struct {
		first, last time.Time
		voids       map[string]int
	}
	byLocation := make(map[string]*daySpan)

	for i := range txs {
		tx := &txs[i]
		day, err := time.Parse(dateLayout, tx.Date)
		if err != nil {
			continue
		}
		span, ok := byLocation[tx.LocationID]
		if !ok {
			span = &daySpan{first: day, last: day, voids: make(map[string]int)}
			byLocation[tx.LocationID] = span
		}
		if day.Before(span.first) {
			span.first = day
		}
		if day.After(span.last) {
			span.last = day
		}
		if tx.Status == StatusVoided {
			span.voids[tx.Date]++
		}
	}

	locations := make([]string, 0, len(byLocation))
	for id := range byLocation {
		locations = append(locations, id)
	}
	sort.Strings(locations)

	var excs []Exception
	for _, locationID := range locations {
		span := byLocation[locationID]

		var counts []float64
		for day := span.first; !day.After(span.last); day = day.AddDate(0, 0, 1) {
			counts = append(counts, float64(span.voids[day.Format(dateLayout)]))
		}
		med := median(counts)
		threshold := med * d.thresholds.VoidSpikeMultiplier

		for day := span.first; !day.After(span.last); day = day.AddDate(0, 0, 1) {
			date := day.Format(dateLayout)
			voids := span.voids[date]
			spiked := float64(voids) > threshold
			if med == 0 {
				spiked = voids > 0
			}
			if !spiked {
				continue
			}
			excs = append(excs, Exception{
				Kind:          ExcVoidSpike,
				Severity:      SeverityMedium,
				LocationID:    locationID,
				Date:          date,
				Detail:        fmt.Sprintf("%d voided orders against a median of %.1f per day", voids, med),
				ComputedValue: ptr(float64(voids)),
				ExpectedValue: ptr(threshold),
			})
		}
	}
	return excs
}

// detectOrphanRefunds flags refunded transactions with no completed
// transaction sharing the same order id at the same location.
func (d *Detector) detectOrphanRefunds(txs []Transaction) []Exception {
	completed := make(map[string]bool)
	for i := range txs {
		if txs[i].Status == StatusCompleted {
			completed[txs[i].LocationID+"\x00"+txs[i].OrderID] = true
		}
	}

	var excs []Exception
	for i := range txs {
		tx := &txs[i]
		if tx.Status != StatusRefunded {
			continue
		}
		if completed[tx.LocationID+"\x00"+tx.OrderID] {
			continue
		}
		excs = append(excs, Exception{
			Kind:           ExcOrphanRefund,
			Severity:       SeverityHigh,
			TransactionRef: tx.OrderID,
			LocationID:     tx.LocationID,
			Date:           tx.Date,
			Detail:         fmt.Sprintf("refund %q has no completed sale at location %s", tx.OrderID, tx.LocationID),
		})
	}
	return excs
}

// detectStaffVoidRates flags staff whose voided share of handled orders
// exceeds the configured rate. Transactions without a staff label are skipped.
func (d *Detector) detectStaffVoidRates(txs []Transaction) []Exception {
	type tally struct{ voids, total int }
	byStaff := make(map[string]*tally)
	for i := range txs {
		tx := &txs[i]
		if tx.StaffRef == "" {
			continue
		}
		t, ok := byStaff[tx.StaffRef]
		if !ok {
			t = &tally{}
			byStaff[tx.StaffRef] = t
		}
		t.total++
		if tx.Status == StatusVoided {
			t.voids++
		}
	}

	staff := make([]string, 0, len(byStaff))
	for ref := range byStaff {
		staff = append(staff, ref)
	}
	sort.Strings(staff)

	var excs []Exception
	for _, ref := range staff {
		t := byStaff[ref]
		rate := float64(t.voids) / float64(t.total)
		if rate <= d.thresholds.StaffVoidRateThreshold {
			continue
		}
		excs = append(excs, Exception{
			Kind:          ExcHighVoidRate,
			Severity:      SeverityMedium,
			StaffRef:      ref,
			Detail:        fmt.Sprintf("%s voided %d of %d orders (%.1f%%)", ref, t.voids, t.total, rate*100),
			ComputedValue: ptr(rate),
			ExpectedValue: ptr(d.thresholds.StaffVoidRateThreshold),
		})
	}
	return excs
}

// median returns the middle value of the samples (mean of the middle two for
// an even count). Zero for an empty slice.
func median(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func ptr(f float64) *float64 { return &f }
