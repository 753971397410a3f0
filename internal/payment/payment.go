// Package payment collapses raw payment rows into one row per order.
package payment

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"retailetl/internal/table"
)

// Column names of the raw payments extract and of the aggregate.
const (
	ColOrderID      = "order_id"
	ColSequential   = "payment_sequential"
	ColType         = "payment_type"
	ColInstallments = "payment_installments"
	ColValue        = "payment_value"
)

// Columns is the aggregate's column order.
var Columns = []string{ColOrderID, ColSequential, ColType, ColInstallments, ColValue}

type group struct {
	id           string
	sequential   *int64
	types        []string
	installments *int64
	value        decimal.Decimal
}

// Aggregate groups payments by order_id. Each output row carries
//
//	payment_sequential   max, null when every input is null
//	payment_type         list in source row order, duplicates kept, null -> ""
//	payment_installments max, null when every input is null
//	payment_value        sum, 0 when every input is null
//
// Rows with a null order_id are dropped. Output is sorted by order_id.
// A non-numeric cell in a numeric column is an error.
func Aggregate(payments *table.Table) (*table.Table, error) {
	idx := make(map[string]int, len(Columns))
	for _, c := range Columns {
		i, err := payments.Col(c)
		if err != nil {
			return nil, fmt.Errorf("aggregate payments: %w", err)
		}
		idx[c] = i
	}

	groups := make(map[string]*group)
	for r, row := range payments.Rows {
		id, ok := table.Text(row[idx[ColOrderID]])
		if !ok {
			continue
		}
		g := groups[id]
		if g == nil {
			g = &group{id: id, types: []string{}, value: decimal.Zero}
			groups[id] = g
		}

		if err := maxInto(&g.sequential, row[idx[ColSequential]]); err != nil {
			return nil, fmt.Errorf("aggregate payments: row %d %s: %w", r, ColSequential, err)
		}
		if err := maxInto(&g.installments, row[idx[ColInstallments]]); err != nil {
			return nil, fmt.Errorf("aggregate payments: row %d %s: %w", r, ColInstallments, err)
		}
		pt, _ := table.Text(row[idx[ColType]])
		g.types = append(g.types, pt)

		v, ok, err := table.Decimal(row[idx[ColValue]])
		if err != nil {
			return nil, fmt.Errorf("aggregate payments: row %d %s: %w", r, ColValue, err)
		}
		if ok {
			g.value = g.value.Add(v)
		}
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := table.New(Columns)
	out.Rows = make([][]any, 0, len(ids))
	for _, id := range ids {
		g := groups[id]
		out.Rows = append(out.Rows, []any{g.id, optInt(g.sequential), g.types, optInt(g.installments), g.value})
	}
	return out, nil
}

func maxInto(dst **int64, v any) error {
	n, ok, err := table.Int(v)
	if err != nil || !ok {
		return err
	}
	if *dst == nil || n > **dst {
		*dst = &n
	}
	return nil
}

func optInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
