package table

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestProject_OrderAndMissing(t *testing.T) {
	t.Parallel()

	tb := New([]string{"a", "b", "c"})
	_ = tb.Append([]any{"1", "2", "3"})
	_ = tb.Append([]any{"4", nil, "6"})

	p, err := tb.Project("c", "a")
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	want := [][]any{{"3", "1"}, {"6", "4"}}
	if !reflect.DeepEqual(p.Rows, want) {
		t.Fatalf("rows = %#v, want %#v", p.Rows, want)
	}

	if _, err := tb.Project("zzz"); !errors.Is(err, ErrNoColumn) {
		t.Fatalf("err = %v, want ErrNoColumn", err)
	}
}

func TestAppend_PadsShortRows(t *testing.T) {
	t.Parallel()

	tb := New([]string{"a", "b"})
	if err := tb.Append([]any{"x"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got := tb.Rows[0]; len(got) != 2 || got[1] != nil {
		t.Fatalf("row = %#v, want padded with nil", got)
	}
	if err := tb.Append([]any{"1", "2", "3"}); err == nil {
		t.Fatalf("expected error for long row")
	}
}

func TestSet_AddsAndOverwrites(t *testing.T) {
	t.Parallel()

	tb := New([]string{"n"})
	_ = tb.Append([]any{"2"})
	_ = tb.Append([]any{"3"})

	err := tb.Set("sq", func(row []any) (any, error) {
		n, _, err := Int(row[0])
		return n * n, err
	})
	if err != nil {
		t.Fatalf("Set new: %v", err)
	}
	if got := tb.Value(1, "sq"); got != int64(9) {
		t.Fatalf("sq[1] = %v, want 9", got)
	}

	err = tb.Set("n", func(row []any) (any, error) { return nil, nil })
	if err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if len(tb.Columns) != 2 || tb.Value(0, "n") != nil {
		t.Fatalf("overwrite failed: cols=%v row=%v", tb.Columns, tb.Rows[0])
	}

	boom := errors.New("boom")
	err = tb.Set("n", func(row []any) (any, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestFloatIntDecimal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      any
		wantF   float64
		wantOK  bool
		wantErr bool
	}{
		{nil, 0, false, false},
		{"", 0, false, false},
		{"1.5", 1.5, true, false},
		{" 2 ", 2, true, false},
		{int64(7), 7, true, false},
		{math.NaN(), 0, false, false},
		{"abc", 0, false, true},
	}
	for _, tc := range tests {
		f, ok, err := Float(tc.in)
		if (err != nil) != tc.wantErr || ok != tc.wantOK || f != tc.wantF {
			t.Errorf("Float(%#v) = (%v,%v,%v), want (%v,%v,err=%v)", tc.in, f, ok, err, tc.wantF, tc.wantOK, tc.wantErr)
		}
	}

	if n, ok, err := Int("3.0"); err != nil || !ok || n != 3 {
		t.Fatalf("Int(3.0) = (%v,%v,%v)", n, ok, err)
	}
	if _, _, err := Int("3.5"); err == nil {
		t.Fatalf("Int(3.5) should fail")
	}

	d, ok, err := Decimal("10.10")
	if err != nil || !ok || !d.Equal(decimal.RequireFromString("10.1")) {
		t.Fatalf("Decimal = (%v,%v,%v)", d, ok, err)
	}
}

func TestTime_Layouts(t *testing.T) {
	t.Parallel()

	tm, ok, err := Time("2017-10-02 10:56:33", nil)
	if err != nil || !ok {
		t.Fatalf("Time: ok=%v err=%v", ok, err)
	}
	if want := time.Date(2017, 10, 2, 10, 56, 33, 0, time.UTC); !tm.Equal(want) {
		t.Fatalf("tm = %v, want %v", tm, want)
	}
	if _, ok, err := Time("2017-10-02", nil); err != nil || !ok {
		t.Fatalf("date-only: ok=%v err=%v", ok, err)
	}
	if _, ok, err := Time("not a date", nil); err == nil || ok {
		t.Fatalf("garbage: ok=%v err=%v", ok, err)
	}
	if _, ok, err := Time(nil, nil); err != nil || ok {
		t.Fatalf("nil: ok=%v err=%v", ok, err)
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	tm := time.Date(2018, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{true, "true"},
		{int64(42), "42"},
		{1.0, "1"},
		{12.34, "12.34"},
		{math.NaN(), ""},
		{decimal.RequireFromString("3.50"), "3.5"},
		{tm, "2018-01-02 03:04:05"},
		{[]string{"voucher", "credit_card"}, `["voucher","credit_card"]`},
	}
	for _, tc := range tests {
		if got := Format(tc.in); got != tc.want {
			t.Errorf("Format(%#v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDecodeList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     any
		want   []string
		wantOK bool
	}{
		{`["voucher","credit_card"]`, []string{"voucher", "credit_card"}, true},
		{`[]`, []string{}, true},
		{`["boleto",null]`, []string{"boleto", ""}, true},
		{[]string{"a"}, []string{"a"}, true},
		{nil, nil, false},
		{"voucher", nil, false},
		{"[not json", nil, false},
		{int64(3), nil, false},
	}
	for _, tc := range tests {
		got, ok := DecodeList(tc.in)
		if ok != tc.wantOK || !reflect.DeepEqual(got, tc.want) {
			t.Errorf("DecodeList(%#v) = (%#v,%v), want (%#v,%v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}

	// Round trip through the text form keeps order and duplicates.
	in := []string{"credit_card", "voucher", "voucher"}
	got, ok := DecodeList(EncodeList(in))
	if !ok || !reflect.DeepEqual(got, in) {
		t.Fatalf("round trip = %#v, want %#v", got, in)
	}
}
