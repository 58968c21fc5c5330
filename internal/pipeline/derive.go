package pipeline

// derive.go computes the derived analytic fields. Everything here is a pure
// function of the store-local timestamp and the line values.

import "time"

// dateLayout is the calendar-date form used for grouping and display.
const dateLayout = "2006-01-02"

// daypartOf buckets a local hour into the store's coarse dayparts:
// morning [9,12), afternoon [12,17), evening [17,21), else other.
func daypartOf(hour int) Daypart {
	switch {
	case hour >= 9 && hour < 12:
		return DaypartMorning
	case hour >= 12 && hour < 17:
		return DaypartAfternoon
	case hour >= 17 && hour < 21:
		return DaypartEvening
	default:
		return DaypartOther
	}
}

// margin computes per-line profit: (unit price - effective unit cost) * qty.
// When unit cost was not reported, half the unit price stands in for it.
func margin(unitPrice float64, unitCost *float64, quantity float64) float64 {
	cost := unitPrice * 0.5
	if unitCost != nil {
		cost = *unitCost
	}
	return (unitPrice - cost) * quantity
}

// enrich assembles the canonical transaction from normalized, timezone-
// resolved row values, filling in every derived field.
func enrich(v *rowValues, local time.Time) Transaction {
	return Transaction{
		OrderID:      v.orderID,
		LocationID:   v.locationID,
		Timestamp:    local,
		StaffRef:     v.staffRaw,
		Category:     v.category,
		Product:      v.product,
		Quantity:     v.quantity,
		UnitPrice:    v.unitPrice,
		UnitCost:     v.unitCost,
		DiscountRate: v.discountRate,
		Tender:       normalizeTender(v.tenderRaw),
		OrderType:    normalizeOrderType(v.orderTypeRaw),
		Status:       v.status,
		ExciseTax:    v.exciseTax,
		StateTax:     v.stateTax,
		LocalTax:     v.localTax,
		TotalTax:     v.totalTax,
		Total:        v.total,

		Date:      local.Format(dateLayout),
		Hour:      local.Hour(),
		DayOfWeek: local.Weekday().String(),
		Daypart:   daypartOf(local.Hour()),
		Margin:    margin(v.unitPrice, v.unitCost, v.quantity),
	}
}
