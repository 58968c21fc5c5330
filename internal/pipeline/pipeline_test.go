package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(testLocations, DefaultThresholds())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

// saleRow builds a plausible export row; overrides patch individual cells.
func saleRow(overrides map[string]string) RawRow {
	row := RawRow{
		"transaction_id":   "order_000001",
		"transaction_date": "2024-03-15 10:30:00",
		"location_id":      "loc_001",
		"employee_id":      "staff_001",
		"product_name":     "Blue Dream 3.5g",
		"category":         "flower",
		"quantity":         "2",
		"unit_price":       "10.00",
		"unit_cost":        "4.00",
		"order_type":       "in-store",
		"tender_type":      "cash",
		"excise_tax":       "2.00",
		"state_tax":        "1.20",
		"local_tax":        "0.40",
		"total_tax":        "3.60",
		"order_total":      "23.60",
		"voided":           "false",
		"refunded":         "false",
	}
	for k, v := range overrides {
		row[k] = v
	}
	return row
}

var saleColumns = []string{
	"transaction_id", "transaction_date", "location_id", "employee_id",
	"product_name", "category", "quantity", "unit_price", "unit_cost",
	"order_type", "tender_type", "excise_tax", "state_tax", "local_tax",
	"total_tax", "order_total", "voided", "refunded",
}

func TestRun_CleanBatch(t *testing.T) {
	p := testPipeline(t)

	batch := Batch{
		Columns: saleColumns,
		Rows: []RawRow{
			saleRow(nil),
			saleRow(map[string]string{"transaction_id": "order_000002", "employee_id": "staff_002"}),
			saleRow(map[string]string{"transaction_id": "order_000003", "employee_id": "staff_001"}),
		},
	}

	result, err := p.Run(context.Background(), batch)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Transactions) != 3 {
		t.Fatalf("got %d transactions, want 3", len(result.Transactions))
	}
	if len(result.Rejected) != 0 {
		t.Fatalf("got %d rejected rows, want 0: %+v", len(result.Rejected), result.Rejected)
	}
	if result.RunID == "" {
		t.Error("run id is empty")
	}

	// Output order equals input order.
	for i, wantID := range []string{"order_000001", "order_000002", "order_000003"} {
		if result.Transactions[i].OrderID != wantID {
			t.Errorf("transaction %d = %q, want %q", i, result.Transactions[i].OrderID, wantID)
		}
	}

	first := result.Transactions[0]
	if first.Product != "blue dream 3.5g" {
		t.Errorf("product = %q, want lowercased", first.Product)
	}
	if first.Category != "Flower" {
		t.Errorf("category = %q, want Flower", first.Category)
	}
	if first.OrderType != OrderInStore || first.Tender != TenderCash {
		t.Errorf("order type/tender = %q/%q, want in_store/cash", first.OrderType, first.Tender)
	}
	if first.Daypart != DaypartMorning {
		t.Errorf("daypart = %q, want morning", first.Daypart)
	}
	if first.Margin != 12 {
		t.Errorf("margin = %v, want (10-4)*2 = 12", first.Margin)
	}

	// Same raw staff id maps to the same label; distinct ids differ.
	if result.Transactions[0].StaffRef != result.Transactions[2].StaffRef {
		t.Error("same raw staff id produced different labels")
	}
	if result.Transactions[0].StaffRef == result.Transactions[1].StaffRef {
		t.Error("distinct raw staff ids produced the same label")
	}
	if !strings.HasPrefix(result.Transactions[0].StaffRef, "Cashier_") {
		t.Errorf("staff label %q lacks Cashier_ prefix", result.Transactions[0].StaffRef)
	}

	if result.Summary.Accepted != 3 || result.Summary.TotalRows != 3 {
		t.Errorf("summary = %+v, want 3 accepted of 3", result.Summary)
	}
	if result.Summary.FirstDate != "2024-03-15" || result.Summary.LastDate != "2024-03-15" {
		t.Errorf("summary date range = %s..%s", result.Summary.FirstDate, result.Summary.LastDate)
	}
}

func TestRun_QuarantinesBadRows(t *testing.T) {
	p := testPipeline(t)

	batch := Batch{
		Columns: saleColumns,
		Rows: []RawRow{
			saleRow(nil),
			saleRow(map[string]string{"transaction_id": "order_bad", "quantity": "two"}),
			saleRow(map[string]string{"transaction_id": "order_worse", "transaction_date": "yesterday-ish"}),
			saleRow(map[string]string{"transaction_id": "order_000004"}),
		},
	}

	result, err := p.Run(context.Background(), batch)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(result.Transactions))
	}
	if len(result.Rejected) != 2 {
		t.Fatalf("got %d rejected rows, want 2", len(result.Rejected))
	}

	// Rejects carry the 1-based line and a reason naming the field.
	if result.Rejected[0].Line != 2 || !strings.Contains(result.Rejected[0].Reason, "quantity") {
		t.Errorf("first reject = %+v, want line 2 with quantity reason", result.Rejected[0])
	}
	if result.Rejected[1].Line != 3 || !strings.Contains(result.Rejected[1].Reason, "timestamp") {
		t.Errorf("second reject = %+v, want line 3 with timestamp reason", result.Rejected[1])
	}
}

func TestRun_SchemaErrorFailsFast(t *testing.T) {
	p := testPipeline(t)

	batch := Batch{
		Columns: []string{"some_id", "when", "where"},
		Rows:    []RawRow{{"some_id": "1", "when": "2024-03-15", "where": "loc_001"}},
	}

	result, err := p.Run(context.Background(), batch)
	if err == nil {
		t.Fatal("expected SchemaError")
	}
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *SchemaError, got %T: %v", err, err)
	}
	if result != nil {
		t.Error("fatal run must not emit partial results")
	}
}

func TestRun_MissingTimezoneAbortsRun(t *testing.T) {
	p := testPipeline(t)

	batch := Batch{
		Columns: saleColumns,
		Rows: []RawRow{
			saleRow(nil),
			saleRow(map[string]string{"transaction_id": "order_x", "location_id": "loc_unknown"}),
		},
	}

	result, err := p.Run(context.Background(), batch)
	if err == nil {
		t.Fatal("expected ConfigError")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T: %v", err, err)
	}
	if cfgErr.LocationID != "loc_unknown" {
		t.Errorf("ConfigError location = %q, want loc_unknown", cfgErr.LocationID)
	}
	if result != nil {
		t.Error("fatal run must not emit partial results")
	}
}

func TestRun_ExceptionsAreAdvisory(t *testing.T) {
	p := testPipeline(t)

	batch := Batch{
		Columns: saleColumns,
		Rows: []RawRow{
			// Refund with no completed counterpart, plus a tax mismatch.
			saleRow(map[string]string{
				"transaction_id": "R100",
				"refunded":       "true",
				"order_total":    "-23.60",
				"total_tax":      "9.99",
			}),
		},
	}

	result, err := p.Run(context.Background(), batch)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1 (exceptions never drop rows)", len(result.Transactions))
	}

	counts := kinds(result.Exceptions)
	if counts[ExcOrphanRefund] != 1 {
		t.Errorf("orphan_refund count = %d, want 1", counts[ExcOrphanRefund])
	}
	if counts[ExcTaxMismatch] != 1 {
		t.Errorf("tax_mismatch count = %d, want 1", counts[ExcTaxMismatch])
	}
	// A legitimate refund is not a negative-total violation.
	if counts[ExcNegativeTotal] != 0 {
		t.Errorf("negative_total count = %d, want 0", counts[ExcNegativeTotal])
	}
}

func TestRun_StatusColumnBeatsBooleans(t *testing.T) {
	p := testPipeline(t)

	columns := append([]string{"status"}, saleColumns...)
	batch := Batch{
		Columns: columns,
		Rows: []RawRow{
			saleRow(map[string]string{"status": "Voided", "voided": "false"}),
		},
	}

	result, err := p.Run(context.Background(), batch)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := result.Transactions[0].Status; got != StatusVoided {
		t.Errorf("status = %q, want voided (status column wins)", got)
	}
}

func TestRun_LargeBatchKeepsOrder(t *testing.T) {
	p := testPipeline(t)

	const n = 500
	rows := make([]RawRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, saleRow(map[string]string{
			"transaction_id": "order_" + strings.Repeat("0", 3) + itoa(i),
		}))
	}

	result, err := p.Run(context.Background(), Batch{Columns: saleColumns, Rows: rows})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Transactions) != n {
		t.Fatalf("got %d transactions, want %d", len(result.Transactions), n)
	}
	for i := range result.Transactions {
		want := "order_000" + itoa(i)
		if result.Transactions[i].OrderID != want {
			t.Fatalf("transaction %d = %q, want %q (order not preserved)", i, result.Transactions[i].OrderID, want)
		}
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var digits []byte
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}
