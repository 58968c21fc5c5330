package pipeline

// coerce.go turns one mapped row into typed field values. A row that cannot
// be coerced is quarantined by the orchestrator; coercion never aborts the
// batch and never guesses at required values.

import (
	"errors"
	"strings"
	"time"
)

// rowValues holds the typed fields of a single row after coercion, before
// normalization and timezone resolution.
type rowValues struct {
	orderID      string
	timestamp    time.Time
	zoned        bool // input carried a zone offset
	locationID   string
	staffRaw     string
	product      string
	category     string
	quantity     float64
	unitPrice    float64
	unitCost     *float64
	discountRate float64
	tenderRaw    string
	orderTypeRaw string
	status       Status
	exciseTax    float64
	stateTax     float64
	localTax     float64
	totalTax     float64
	total        float64
}

var statusSynonyms = map[string]Status{
	"completed": StatusCompleted,
	"complete":  StatusCompleted,
	"closed":    StatusCompleted,
	"sale":      StatusCompleted,
	"voided":    StatusVoided,
	"void":      StatusVoided,
	"cancelled": StatusVoided,
	"canceled":  StatusVoided,
	"refunded":  StatusRefunded,
	"refund":    StatusRefunded,
	"return":    StatusRefunded,
	"returned":  StatusRefunded,
}

// coerceRow converts a raw row into typed values using the batch's field
// mapping. Required fields must parse; optional fields are coerced only when
// present, and a present-but-garbage value is still a coercion failure.
func coerceRow(m FieldMapping, row RawRow) (*rowValues, error) {
	v := &rowValues{}

	v.orderID = m.Get(row, FieldOrderID)
	if v.orderID == "" {
		return nil, &coercionError{Field: FieldOrderID, Err: errors.New("missing order id")}
	}

	v.locationID = m.Get(row, FieldLocationID)
	if v.locationID == "" {
		return nil, &coercionError{Field: FieldLocationID, Err: errors.New("missing location id")}
	}

	raw := m.Get(row, FieldTimestamp)
	ts, zoned, err := parseTimestamp(raw)
	if err != nil {
		return nil, &coercionError{Field: FieldTimestamp, Value: raw, Err: err}
	}
	v.timestamp, v.zoned = ts, zoned

	if v.quantity, err = requiredAmount(m, row, FieldQuantity); err != nil {
		return nil, err
	}
	if v.unitPrice, err = requiredAmount(m, row, FieldUnitPrice); err != nil {
		return nil, err
	}

	v.staffRaw = m.Get(row, FieldStaff)
	v.product = m.Get(row, FieldProduct)
	v.category = m.Get(row, FieldCategory)
	v.tenderRaw = m.Get(row, FieldTender)
	v.orderTypeRaw = m.Get(row, FieldOrderType)

	if raw := m.Get(row, FieldUnitCost); raw != "" {
		cost, err := parseAmount(raw)
		if err != nil {
			return nil, &coercionError{Field: FieldUnitCost, Value: raw, Err: err}
		}
		v.unitCost = &cost
	}

	if v.exciseTax, err = optionalAmount(m, row, FieldExciseTax); err != nil {
		return nil, err
	}
	if v.stateTax, err = optionalAmount(m, row, FieldStateTax); err != nil {
		return nil, err
	}
	if v.localTax, err = optionalAmount(m, row, FieldLocalTax); err != nil {
		return nil, err
	}
	if v.totalTax, err = optionalAmount(m, row, FieldTotalTax); err != nil {
		return nil, err
	}
	if v.total, err = optionalAmount(m, row, FieldTotal); err != nil {
		return nil, err
	}

	if v.discountRate, err = coerceDiscountRate(m, row); err != nil {
		return nil, err
	}

	if v.status, err = coerceStatus(m, row); err != nil {
		return nil, err
	}

	return v, nil
}

// coerceDiscountRate resolves the discount rate as a fraction in [-1, 1].
// Exports disagree on scale, so values above 1 are read as percentages. When
// no rate column resolved, the rate is reconstructed from the discount and
// subtotal amounts, matching how subtotal-less exports are handled upstream.
func coerceDiscountRate(m FieldMapping, row RawRow) (float64, error) {
	if raw := m.Get(row, FieldDiscountRate); raw != "" {
		rate, err := parseAmount(raw)
		if err != nil {
			return 0, &coercionError{Field: FieldDiscountRate, Value: raw, Err: err}
		}
		if rate > 1 || rate < -1 {
			rate /= 100
		}
		return clampRate(rate), nil
	}

	rawDiscount := m.Get(row, FieldDiscount)
	rawSubtotal := m.Get(row, FieldSubtotal)
	if rawDiscount == "" || rawSubtotal == "" {
		return 0, nil
	}
	discount, err := parseAmount(rawDiscount)
	if err != nil {
		return 0, &coercionError{Field: FieldDiscount, Value: rawDiscount, Err: err}
	}
	subtotal, err := parseAmount(rawSubtotal)
	if err != nil {
		return 0, &coercionError{Field: FieldSubtotal, Value: rawSubtotal, Err: err}
	}
	if subtotal <= 0 {
		return 0, nil
	}
	return clampRate(discount / subtotal), nil
}

func clampRate(rate float64) float64 {
	if rate > 1 {
		return 1
	}
	if rate < -1 {
		return -1
	}
	return rate
}

// coerceStatus resolves the transaction status. A status column wins; without
// one, voided/refunded boolean columns decide; the default is completed.
func coerceStatus(m FieldMapping, row RawRow) (Status, error) {
	if raw := m.Get(row, FieldStatus); raw != "" {
		status, ok := statusSynonyms[strings.ToLower(raw)]
		if !ok {
			return "", &coercionError{Field: FieldStatus, Value: raw, Err: errors.New("unknown status")}
		}
		return status, nil
	}

	if raw := m.Get(row, FieldVoided); raw != "" {
		voided, err := parseBool(raw)
		if err != nil {
			return "", &coercionError{Field: FieldVoided, Value: raw, Err: err}
		}
		if voided {
			return StatusVoided, nil
		}
	}
	if raw := m.Get(row, FieldRefunded); raw != "" {
		refunded, err := parseBool(raw)
		if err != nil {
			return "", &coercionError{Field: FieldRefunded, Value: raw, Err: err}
		}
		if refunded {
			return StatusRefunded, nil
		}
	}

	return StatusCompleted, nil
}

func requiredAmount(m FieldMapping, row RawRow, field Field) (float64, error) {
	raw := m.Get(row, field)
	if raw == "" {
		return 0, &coercionError{Field: field, Err: errors.New("missing required value")}
	}
	val, err := parseAmount(raw)
	if err != nil {
		return 0, &coercionError{Field: field, Value: raw, Err: err}
	}
	return val, nil
}

func optionalAmount(m FieldMapping, row RawRow, field Field) (float64, error) {
	raw := m.Get(row, field)
	if raw == "" {
		return 0, nil
	}
	val, err := parseAmount(raw)
	if err != nil {
		return 0, &coercionError{Field: field, Value: raw, Err: err}
	}
	return val, nil
}
