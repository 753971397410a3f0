package payment

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"retailetl/internal/table"
)

func payments(rows ...[]any) *table.Table {
	t := table.New(Columns)
	for _, r := range rows {
		_ = t.Append(r)
	}
	return t
}

func TestAggregate_CollapsesPerOrder(t *testing.T) {
	t.Parallel()

	in := payments(
		[]any{"o2", "1", "boleto", "1", "10.10"},
		[]any{"o1", "1", "credit_card", "3", "99.33"},
		[]any{"o1", "2", "voucher", "1", "0.67"},
		[]any{"o1", "3", "voucher", "1", "5"},
	)

	got, err := Aggregate(in)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("rows = %d, want 2", got.Len())
	}

	o1 := got.Rows[0]
	if o1[0] != "o1" {
		t.Fatalf("not sorted by order_id: %v", got.Rows)
	}
	if o1[1] != int64(3) || o1[3] != int64(3) {
		t.Fatalf("max sequential/installments = %v/%v", o1[1], o1[3])
	}
	if want := []string{"credit_card", "voucher", "voucher"}; !reflect.DeepEqual(o1[2], want) {
		t.Fatalf("types = %v, want %v", o1[2], want)
	}
	if !o1[4].(decimal.Decimal).Equal(decimal.RequireFromString("105")) {
		t.Fatalf("sum = %v, want 105", o1[4])
	}
	if table.Format(got.Rows[1][2]) != `["boleto"]` {
		t.Fatalf("list text = %s", table.Format(got.Rows[1][2]))
	}
}

func TestAggregate_Nulls(t *testing.T) {
	t.Parallel()

	in := payments(
		[]any{"o1", nil, nil, nil, nil},
		[]any{"o1", nil, "voucher", nil, nil},
		[]any{nil, "9", "boleto", "9", "9"},
	)
	got, err := Aggregate(in)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got.Len() != 1 {
		t.Fatalf("null order_id must be dropped; rows = %v", got.Rows)
	}
	row := got.Rows[0]
	if row[1] != nil || row[3] != nil {
		t.Fatalf("all-null max should stay null: %v", row)
	}
	if want := []string{"", "voucher"}; !reflect.DeepEqual(row[2], want) {
		t.Fatalf("types = %#v, want %#v", row[2], want)
	}
	if !row[4].(decimal.Decimal).IsZero() {
		t.Fatalf("all-null sum = %v, want 0", row[4])
	}
}

func TestAggregate_Errors(t *testing.T) {
	t.Parallel()

	if _, err := Aggregate(payments([]any{"o1", "one", "boleto", "1", "1"})); err == nil {
		t.Fatalf("expected error for non-numeric sequential")
	}
	if _, err := Aggregate(payments([]any{"o1", "1", "boleto", "1", "lots"})); err == nil {
		t.Fatalf("expected error for non-numeric value")
	}
	if _, err := Aggregate(table.New([]string{"order_id"})); err == nil {
		t.Fatalf("expected error for missing columns")
	}
}

// The aggregate has exactly one row per distinct order_id and its sum
// matches the input for that id.
func TestAggregate_OneRowPerOrderSumPreserved(t *testing.T) {
	t.Parallel()

	in := table.New(Columns)
	want := map[string]decimal.Decimal{}
	for i := 0; i < 300; i++ {
		id := string(rune('A' + i%23))
		v := decimal.New(int64(i*37%1000), -2)
		_ = in.Append([]any{id, "1", "credit_card", "1", v.String()})
		want[id] = want[id].Add(v)
	}

	got, err := Aggregate(in)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got.Len() != len(want) {
		t.Fatalf("rows = %d, want %d", got.Len(), len(want))
	}
	seen := map[string]bool{}
	for _, row := range got.Rows {
		id := row[0].(string)
		if seen[id] {
			t.Fatalf("duplicate order_id %s", id)
		}
		seen[id] = true
		if sum := row[4].(decimal.Decimal); !sum.Equal(want[id]) {
			t.Fatalf("%s: sum = %s, want %s", id, sum, want[id])
		}
	}
}
