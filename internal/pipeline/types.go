// Package pipeline normalizes heterogeneous point-of-sale transaction exports
// into canonical, analysis-ready transaction records and flags data-quality
// and compliance exceptions along the way.
//
// The package has no UI or storage dependencies. A run is pure given its
// inputs: raw rows, the location timezone table, and threshold configuration.
package pipeline

import "time"

// RawRow maps arbitrary source column names to raw cell values.
// The schema varies per upload; a RawRow exists only within one run.
type RawRow map[string]string

// Batch is one upload's worth of raw rows plus the column set they share.
// Columns drive the batch-level schema check; Rows are processed individually.
type Batch struct {
	Columns []string
	Rows    []RawRow
}

// Tender is a normalized payment method.
type Tender string

const (
	TenderCredit Tender = "credit"
	TenderDebit  Tender = "debit"
	TenderCash   Tender = "cash"
	TenderOther  Tender = "other"
)

// OrderType is a normalized sales channel.
type OrderType string

const (
	OrderInStore  OrderType = "in_store"
	OrderPickup   OrderType = "pickup"
	OrderDelivery OrderType = "delivery"
	OrderOther    OrderType = "other"
)

// Status is the lifecycle state of a transaction.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusVoided    Status = "voided"
	StatusRefunded  Status = "refunded"
)

// Daypart is a coarse time-of-day bucket derived from the local hour.
type Daypart string

const (
	DaypartMorning   Daypart = "morning"
	DaypartAfternoon Daypart = "afternoon"
	DaypartEvening   Daypart = "evening"
	DaypartOther     Daypart = "other"
)

// Transaction is the canonical, analysis-ready record produced by a run.
//
// Invariants: OrderID is unique within LocationID; Total is negative only
// when Status is refunded; TotalTax equals ExciseTax+StateTax+LocalTax within
// the configured tolerance (violations are flagged, not fixed); Margin is
// (UnitPrice - effective unit cost) * Quantity.
type Transaction struct {
	OrderID      string    `json:"order_id"`
	LocationID   string    `json:"location_id"`
	Timestamp    time.Time `json:"timestamp"` // store-local, zone attached
	StaffRef     string    `json:"staff_ref,omitempty"`
	Category     string    `json:"category,omitempty"`
	Product      string    `json:"product,omitempty"`
	Quantity     float64   `json:"quantity"`
	UnitPrice    float64   `json:"unit_price"`
	UnitCost     *float64  `json:"unit_cost,omitempty"`
	DiscountRate float64   `json:"discount_rate"`
	Tender       Tender    `json:"tender"`
	OrderType    OrderType `json:"order_type"`
	Status       Status    `json:"status"`
	ExciseTax    float64   `json:"excise_tax"`
	StateTax     float64   `json:"state_tax"`
	LocalTax     float64   `json:"local_tax"`
	TotalTax     float64   `json:"total_tax"`
	Total        float64   `json:"total"`

	// Derived fields, computed from the store-local timestamp and line values.
	Date      string  `json:"date"` // YYYY-MM-DD
	Hour      int     `json:"hour"` // 0-23
	DayOfWeek string  `json:"day_of_week"`
	Daypart   Daypart `json:"daypart"`
	Margin    float64 `json:"margin"`
}

// EffectiveUnitCost returns UnitCost when reported, else half the unit price.
func (t *Transaction) EffectiveUnitCost() float64 {
	if t.UnitCost != nil {
		return *t.UnitCost
	}
	return t.UnitPrice * 0.5
}

// Location describes one store and its configured timezone.
type Location struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// RejectedRow records a row that failed value coercion and was quarantined.
// Quarantined rows never abort the batch and are always reported with a reason.
type RejectedRow struct {
	Line   int    `json:"line"` // 1-based position within the batch
	Reason string `json:"reason"`
	Row    RawRow `json:"row,omitempty"`
}

// Thresholds configures the exception detector. The zero value is not usable;
// start from DefaultThresholds.
type Thresholds struct {
	// VoidSpikeMultiplier flags a day whose voided-order count exceeds this
	// multiple of the location's median daily void count.
	VoidSpikeMultiplier float64 `yaml:"void_spike_multiplier"`

	// HighDiscountThreshold flags transactions whose discount rate (a
	// fraction, not a percentage) exceeds this value.
	HighDiscountThreshold float64 `yaml:"high_discount_threshold"`

	// TaxMismatchTolerance is the currency amount by which reported total tax
	// may differ from the sum of its components before being flagged.
	TaxMismatchTolerance float64 `yaml:"tax_mismatch_tolerance"`

	// StaffVoidRateThreshold flags staff whose voided share of handled orders
	// exceeds this fraction.
	StaffVoidRateThreshold float64 `yaml:"staff_void_rate_threshold"`
}

// DefaultThresholds returns the detector defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		VoidSpikeMultiplier:    2.0,
		HighDiscountThreshold:  0.30,
		TaxMismatchTolerance:   0.05,
		StaffVoidRateThreshold: 0.05,
	}
}

// Summary is the quality report for one run.
type Summary struct {
	TotalRows       int     `json:"total_rows"`
	Accepted        int     `json:"accepted"`
	Rejected        int     `json:"rejected"`
	Locations       int     `json:"locations"`
	FirstDate       string  `json:"first_date,omitempty"`
	LastDate        string  `json:"last_date,omitempty"`
	VoidRate        float64 `json:"void_rate"`
	RefundRate      float64 `json:"refund_rate"`
	AvgDiscountRate float64 `json:"avg_discount_rate"`
}

// Result is the complete output of one pipeline run.
type Result struct {
	RunID        string        `json:"run_id"`
	Transactions []Transaction `json:"transactions"`
	Exceptions   []Exception   `json:"exceptions"`
	Rejected     []RejectedRow `json:"rejected,omitempty"`
	Summary      Summary       `json:"summary"`
}
