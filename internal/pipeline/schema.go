package pipeline

// schema.go resolves arbitrary export column names to the canonical field
// schema. Resolution is declarative: each canonical field carries a
// priority-ordered synonym list, and the first synonym present in the batch's
// column set wins. The whole resolution happens once per batch, so a missing
// required field fails fast before any row is touched.

import "strings"

// Field names a canonical transaction field.
type Field string

const (
	FieldOrderID      Field = "order_id"
	FieldTimestamp    Field = "timestamp"
	FieldLocationID   Field = "location_id"
	FieldStaff        Field = "staff"
	FieldProduct      Field = "product"
	FieldCategory     Field = "category"
	FieldQuantity     Field = "quantity"
	FieldUnitPrice    Field = "unit_price"
	FieldUnitCost     Field = "unit_cost"
	FieldDiscountRate Field = "discount_rate"
	FieldDiscount     Field = "discount"
	FieldSubtotal     Field = "subtotal"
	FieldTender       Field = "tender"
	FieldOrderType    Field = "order_type"
	FieldStatus       Field = "status"
	FieldVoided       Field = "voided"
	FieldRefunded     Field = "refunded"
	FieldExciseTax    Field = "excise_tax"
	FieldStateTax     Field = "state_tax"
	FieldLocalTax     Field = "local_tax"
	FieldTotalTax     Field = "total_tax"
	FieldTotal        Field = "total"
)

// fieldSynonyms lists the accepted source names per canonical field, in
// priority order. Matching is case-insensitive on cleaned column names.
// Extend here when a new POS export dialect shows up; no code changes needed.
var fieldSynonyms = map[Field][]string{
	FieldOrderID:      {"transaction_id", "order_id", "receiptid", "receipt_id", "id"},
	FieldTimestamp:    {"transaction_date", "timestamp", "created_at", "date", "datetime", "sale_time"},
	FieldLocationID:   {"location_id", "location", "store_id", "location_name"},
	FieldStaff:        {"employee_id", "staff_id", "cashier_id", "user_id"},
	FieldProduct:      {"product_name", "product", "item_name", "name"},
	FieldCategory:     {"category", "product_category", "item_category"},
	FieldQuantity:     {"quantity", "qty", "item_quantity"},
	FieldUnitPrice:    {"unit_price", "price", "item_price"},
	FieldUnitCost:     {"unit_cost", "cost", "item_cost"},
	FieldDiscountRate: {"discount_rate", "discount_pct"},
	FieldDiscount:     {"order_discount", "item_discount", "discount"},
	FieldSubtotal:     {"order_subtotal", "subtotal", "sub_total"},
	FieldTender:       {"tender_type", "tender", "payment_type", "payment_method"},
	FieldOrderType:    {"order_type", "ordertype", "channel"},
	FieldStatus:       {"status", "order_status"},
	FieldVoided:       {"voided", "is_void", "void"},
	FieldRefunded:     {"refunded", "is_refund", "refund"},
	FieldExciseTax:    {"excise_tax", "excisetax"},
	FieldStateTax:     {"state_tax", "statetax"},
	FieldLocalTax:     {"local_tax", "localtax", "city_tax"},
	FieldTotalTax:     {"total_tax", "tax", "taxes"},
	FieldTotal:        {"order_total", "total", "total_amount", "amount"},
}

// requiredFields must resolve for a batch to be processed at all.
var requiredFields = []Field{
	FieldOrderID,
	FieldTimestamp,
	FieldLocationID,
	FieldUnitPrice,
	FieldQuantity,
}

// FieldMapping binds canonical fields to the source column that carries them.
// Unresolved optional fields are simply absent.
type FieldMapping map[Field]string

// ResolveSchema maps the batch's column set to canonical fields. It returns a
// SchemaError naming every unresolved required field, so the caller can report
// the whole problem at once rather than one column per attempt.
func ResolveSchema(columns []string) (FieldMapping, error) {
	byLower := make(map[string]string, len(columns))
	for _, col := range columns {
		key := strings.ToLower(CleanCell(col))
		if _, exists := byLower[key]; !exists {
			byLower[key] = col
		}
	}

	mapping := make(FieldMapping, len(fieldSynonyms))
	for field, synonyms := range fieldSynonyms {
		for _, syn := range synonyms {
			if source, ok := byLower[syn]; ok {
				mapping[field] = source
				break
			}
		}
	}

	var missing []Field
	for _, field := range requiredFields {
		if _, ok := mapping[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing, Columns: columns}
	}

	return mapping, nil
}

// Get returns the cleaned cell value for a canonical field, or "" when the
// field is unresolved or the row has no value for it.
func (m FieldMapping) Get(row RawRow, field Field) string {
	source, ok := m[field]
	if !ok {
		return ""
	}
	return CleanCell(row[source])
}

// Has reports whether the field resolved to a source column for this batch.
func (m FieldMapping) Has(field Field) bool {
	_, ok := m[field]
	return ok
}
