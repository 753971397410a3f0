package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimeLayout is the layout used when timestamps are written back to CSV.
const TimeLayout = "2006-01-02 15:04:05"

// DefaultTimeLayouts are tried in order when parsing timestamp text.
var DefaultTimeLayouts = []string{
	TimeLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// IsNull reports whether v is a null cell. A NaN float counts as null.
func IsNull(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(t)
	}
	return false
}

// Text returns the string form of a text cell and whether it was non-null.
func Text(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	default:
		return Format(v), true
	}
}

// Float returns v as float64. ok is false for null; err is set when v is
// non-null and cannot be read as a number.
func Float(v any) (f float64, ok bool, err error) {
	switch t := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		if math.IsNaN(t) {
			return 0, false, nil
		}
		return t, true, nil
	case int64:
		return float64(t), true, nil
	case int:
		return float64(t), true, nil
	case decimal.Decimal:
		f, _ := t.Float64()
		return f, true, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, fmt.Errorf("parse number %q: %w", t, err)
		}
		if math.IsNaN(f) {
			return 0, false, nil
		}
		return f, true, nil
	}
	return 0, false, fmt.Errorf("not a number: %T", v)
}

// Int returns v as int64. Integral float text such as "3.0" is accepted
// because a left join that introduces nulls can turn integer columns into
// floats upstream.
func Int(v any) (n int64, ok bool, err error) {
	switch t := v.(type) {
	case int64:
		return t, true, nil
	case int:
		return int64(t), true, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false, nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true, nil
		}
	}
	f, ok, err := Float(v)
	if err != nil || !ok {
		return 0, ok, err
	}
	if f != math.Trunc(f) {
		return 0, false, fmt.Errorf("not an integer: %v", v)
	}
	return int64(f), true, nil
}

// Decimal returns v as a decimal.Decimal.
func Decimal(v any) (d decimal.Decimal, ok bool, err error) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, false, nil
	case decimal.Decimal:
		return t, true, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return decimal.Zero, false, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false, fmt.Errorf("parse decimal %q: %w", t, err)
		}
		return d, true, nil
	}
	f, ok, err := Float(v)
	if err != nil || !ok {
		return decimal.Zero, ok, err
	}
	return decimal.NewFromFloat(f), true, nil
}

// Time returns v as time.Time, trying layouts in order for text cells.
// DefaultTimeLayouts is used when layouts is empty.
func Time(v any, layouts []string) (tm time.Time, ok bool, err error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return t, true, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false, nil
		}
		if len(layouts) == 0 {
			layouts = DefaultTimeLayouts
		}
		for _, l := range layouts {
			if tm, err := time.Parse(l, s); err == nil {
				return tm, true, nil
			}
		}
		return time.Time{}, false, fmt.Errorf("parse time %q: no layout matched", t)
	}
	return time.Time{}, false, fmt.Errorf("not a time: %T", v)
}

// Format renders a cell as CSV text. Null renders as the empty string.
func Format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		if math.IsNaN(t) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case decimal.Decimal:
		return t.String()
	case time.Time:
		return t.Format(TimeLayout)
	case []string:
		return EncodeList(t)
	default:
		return fmt.Sprint(t)
	}
}
