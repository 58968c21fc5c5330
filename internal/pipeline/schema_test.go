package pipeline

import (
	"errors"
	"testing"
)

func TestResolveSchema_SynonymPriority(t *testing.T) {
	// transaction_id outranks id when both are present.
	columns := []string{"transaction_id", "id", "transaction_date", "location_id", "unit_price", "quantity"}

	mapping, err := ResolveSchema(columns)
	if err != nil {
		t.Fatalf("ResolveSchema returned error: %v", err)
	}

	if got := mapping[FieldOrderID]; got != "transaction_id" {
		t.Errorf("order id bound to %q, want transaction_id", got)
	}
}

func TestResolveSchema_ReceiptIDBindsOrderID(t *testing.T) {
	// An export with receiptid but no order_id column still resolves.
	columns := []string{"ReceiptID", "timestamp", "location_id", "price", "qty"}

	mapping, err := ResolveSchema(columns)
	if err != nil {
		t.Fatalf("ResolveSchema returned error: %v", err)
	}

	if got := mapping[FieldOrderID]; got != "ReceiptID" {
		t.Errorf("order id bound to %q, want ReceiptID", got)
	}
	if got := mapping[FieldUnitPrice]; got != "price" {
		t.Errorf("unit price bound to %q, want price", got)
	}
	if got := mapping[FieldQuantity]; got != "qty" {
		t.Errorf("quantity bound to %q, want qty", got)
	}
}

func TestResolveSchema_CaseInsensitive(t *testing.T) {
	columns := []string{"Transaction_ID", "Transaction_Date", "Location_ID", "Unit_Price", "Quantity"}

	if _, err := ResolveSchema(columns); err != nil {
		t.Fatalf("ResolveSchema returned error for mixed-case headers: %v", err)
	}
}

func TestResolveSchema_MissingRequired(t *testing.T) {
	// No timestamp or quantity synonym anywhere.
	columns := []string{"order_id", "location_id", "unit_price", "category"}

	_, err := ResolveSchema(columns)
	if err == nil {
		t.Fatal("expected SchemaError, got nil")
	}

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *SchemaError, got %T", err)
	}

	want := map[Field]bool{FieldTimestamp: true, FieldQuantity: true}
	if len(schemaErr.Missing) != len(want) {
		t.Fatalf("missing fields = %v, want timestamp and quantity", schemaErr.Missing)
	}
	for _, f := range schemaErr.Missing {
		if !want[f] {
			t.Errorf("unexpected missing field %q", f)
		}
	}
}

func TestFieldMapping_Get(t *testing.T) {
	mapping := FieldMapping{FieldProduct: "Product Name"}
	row := RawRow{"Product Name": `  ="Blue Dream"  `}

	if got := mapping.Get(row, FieldProduct); got != "Blue Dream" {
		t.Errorf("Get = %q, want cleaned cell %q", got, "Blue Dream")
	}
	if got := mapping.Get(row, FieldCategory); got != "" {
		t.Errorf("Get for unresolved field = %q, want empty", got)
	}
}
