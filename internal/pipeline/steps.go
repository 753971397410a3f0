package pipeline

import (
	"context"
	"fmt"
	"log"

	"retailetl/internal/config"
	"retailetl/internal/join"
	"retailetl/internal/metrics"
	"retailetl/internal/payment"
	"retailetl/internal/storage"
	"retailetl/internal/table"
	"retailetl/internal/transformer"
	"retailetl/internal/transformer/builtin"
)

// Join keys.
const (
	keyOrder    = "order_id"
	keyCustomer = "customer_id"
	keyProduct  = "product_id"
	keySeller   = "seller_id"
)

// Columns kept from the raw orders and products extracts.
var (
	orderColumns = []string{
		"order_id", "customer_id", "order_status",
		"order_purchase_timestamp", "order_delivered_customer_date",
	}
	productColumns = []string{
		"product_id", "product_category_name", "product_weight_g",
		"product_length_cm", "product_height_cm", "product_width_cm",
	}
)

// Timestamp columns parsed by the clean step.
var timestampColumns = []string{
	"order_purchase_timestamp",
	"order_delivered_customer_date",
	"shipping_limit_date",
}

// joinStep loads leftPath and rightPath, optionally projects the right or
// left table, left-joins on key and writes the result to out.
func (r *Runner) joinStep(ctx context.Context, leftPath, rightPath, out, key string, leftCols, rightCols []string) (int, error) {
	left, right, err := r.loadPair(ctx, leftPath, rightPath)
	if err != nil {
		return 0, err
	}
	if leftCols != nil {
		if left, err = left.Project(leftCols...); err != nil {
			return 0, fmt.Errorf("project %s: %w", leftPath, err)
		}
	}
	if rightCols != nil {
		if right, err = right.Project(rightCols...); err != nil {
			return 0, fmt.Errorf("project %s: %w", rightPath, err)
		}
	}
	joined, err := join.Left(left, right, key)
	if err != nil {
		return 0, err
	}
	if err := r.save(ctx, out, joined); err != nil {
		return 0, err
	}
	return joined.Len(), nil
}

func runOrdersWithItems(ctx context.Context, r *Runner) (int, error) {
	ps := r.cfg.Paths
	return r.joinStep(ctx,
		ps.RawPath(ps.Raw.Orders),
		ps.RawPath(ps.Raw.OrderItems),
		ps.ProcessedPath(ps.Artifacts.OrdersWithItems),
		keyOrder, orderColumns, nil)
}

func runOrdItmCust(ctx context.Context, r *Runner) (int, error) {
	ps := r.cfg.Paths
	return r.joinStep(ctx,
		ps.ProcessedPath(ps.Artifacts.OrdersWithItems),
		ps.RawPath(ps.Raw.Customers),
		ps.ProcessedPath(ps.Artifacts.OrdItmCust),
		keyCustomer, nil, nil)
}

// runOrdPay aggregates payments per order and joins them onto the order
// lines. The unaggregated join and the aggregate itself are kept as side
// artifacts.
func runOrdPay(ctx context.Context, r *Runner) (int, error) {
	ps := r.cfg.Paths
	lines, payments, err := r.loadPair(ctx,
		ps.ProcessedPath(ps.Artifacts.OrdItmCust),
		ps.RawPath(ps.Raw.Payments))
	if err != nil {
		return 0, err
	}

	simplified, err := payment.Aggregate(payments)
	if err != nil {
		return 0, fmt.Errorf("aggregate payments: %w", err)
	}
	raw, err := join.Left(lines, payments, keyOrder)
	if err != nil {
		return 0, err
	}
	joined, err := join.Left(lines, simplified, keyOrder)
	if err != nil {
		return 0, err
	}
	r.debugf("ord_pay: payments=%d orders=%d lines=%d unaggregated=%d",
		payments.Len(), simplified.Len(), joined.Len(), raw.Len())

	if err := r.save(ctx, ps.ProcessedPath(ps.Artifacts.PaySimplified), simplified); err != nil {
		return 0, err
	}
	if err := r.save(ctx, ps.ProcessedPath(ps.Artifacts.OrdPay), raw); err != nil {
		return 0, err
	}
	if err := r.save(ctx, ps.ProcessedPath(ps.Artifacts.OrdPaySimplified), joined); err != nil {
		return 0, err
	}
	return joined.Len(), nil
}

func runOrdPayProd(ctx context.Context, r *Runner) (int, error) {
	ps := r.cfg.Paths
	return r.joinStep(ctx,
		ps.ProcessedPath(ps.Artifacts.OrdPaySimplified),
		ps.RawPath(ps.Raw.Products),
		ps.ProcessedPath(ps.Artifacts.OrdPayProd),
		keyProduct, nil, productColumns)
}

func runOrdProdSell(ctx context.Context, r *Runner) (int, error) {
	ps := r.cfg.Paths
	return r.joinStep(ctx,
		ps.ProcessedPath(ps.Artifacts.OrdPayProd),
		ps.RawPath(ps.Raw.Sellers),
		ps.ProcessedPath(ps.Artifacts.OrdProdSell),
		keySeller, nil, nil)
}

// cleanChain builds the clean transformations. Flags are derived before
// timestamps are parsed, so has_del_date reflects the raw cell.
func cleanChain(times *builtin.ParseTimes) transformer.Chain {
	return transformer.Chain{
		builtin.Equals{Src: "order_status", Dst: "is_delivered", Value: "delivered"},
		builtin.NotNull{Src: "order_delivered_customer_date", Dst: "has_del_date"},
		builtin.NotNull{Src: "product_weight_g", Dst: "has_prod_dim"},
		builtin.NotNull{Src: "payment_value", Dst: "has_pay_info"},
		times,
		builtin.FoldText{Src: "customer_city", Dst: "customer_city_clean"},
		builtin.FoldText{Src: "seller_city", Dst: "seller_city_clean"},
	}
}

func runClean(ctx context.Context, r *Runner) (int, error) {
	ps := r.cfg.Paths
	t, err := r.load(ctx, ps.ProcessedPath(ps.Artifacts.OrdProdSell))
	if err != nil {
		return 0, err
	}

	times := &builtin.ParseTimes{
		Columns: timestampColumns,
		Layouts: r.cfg.Clean.Options.StringSlice("timestamp_layouts"),
	}
	if err := cleanChain(times).Apply(t); err != nil {
		return 0, err
	}
	if n := times.InvalidTotal(); n > 0 {
		log.Printf("clean: invalid_timestamps=%d per_column=%v (set to null)", n, times.Invalid)
		metrics.RecordRow(r.cfg.Job, metrics.KindInvalidTimestamps, int64(n))
	}

	if err := r.save(ctx, ps.CleanedPath(ps.Artifacts.Cleaned), t); err != nil {
		return 0, err
	}
	return t.Len(), nil
}

// transformChain builds the derived columns. item_total_value uses the
// unrounded price; price is rounded afterwards.
func transformChain(places int32, voucher string) transformer.Chain {
	return transformer.Chain{
		builtin.Sum{Cols: []string{"price", "freight_value"}, Dst: "item_total_value", Places: places},
		builtin.Round{Col: "price", Places: places},
		builtin.DaysBetween{From: "order_purchase_timestamp", To: "order_delivered_customer_date", Dst: "delivery_days"},
		builtin.DecodeList{Col: payment.ColType},
		builtin.ListLen{Src: payment.ColType, Dst: "num_pay_methods"},
		builtin.ListContains{Src: payment.ColType, Dst: "used_voucher", Value: voucher},
		builtin.Product{
			Cols: []string{"product_length_cm", "product_height_cm", "product_width_cm"},
			Dst:  "product_volume_cm3",
		},
	}
}

func runTransform(ctx context.Context, r *Runner) (int, error) {
	ps := r.cfg.Paths
	t, err := r.load(ctx, ps.CleanedPath(ps.Artifacts.Cleaned))
	if err != nil {
		return 0, err
	}

	opts := r.cfg.Transform.Options
	chain := transformChain(int32(opts.Int("round_places", 2)), opts.String("voucher_label", "voucher"))
	if err := chain.Apply(t); err != nil {
		return 0, err
	}

	if err := r.save(ctx, ps.TransformedPath(ps.Artifacts.Final), t); err != nil {
		return 0, err
	}
	return t.Len(), nil
}

// newRepositoryFn is a test seam over storage.New.
var newRepositoryFn = storage.New

func runPublish(ctx context.Context, r *Runner) (int, error) {
	if r.cfg.Storage.Kind == "" {
		return 0, fmt.Errorf("storage.kind is not set")
	}
	ps := r.cfg.Paths
	t, err := r.load(ctx, ps.TransformedPath(ps.Artifacts.Final))
	if err != nil {
		return 0, err
	}
	n, err := publish(ctx, r.cfg, t)
	return int(n), err
}

// publish loads t into the configured backend table and records publish
// metrics.
func publish(ctx context.Context, p config.Pipeline, t *table.Table) (int64, error) {
	st := p.Storage
	repo, err := newRepositoryFn(ctx, storage.Config{Kind: st.Kind, DSN: st.DB.DSN, Table: st.DB.Table})
	if err != nil {
		return 0, fmt.Errorf("open storage %s: %w", st.Kind, err)
	}
	defer repo.Close()

	res, err := storage.Publish(ctx, repo, t, storage.PublishOptions{
		Kind:       st.Kind,
		Table:      st.DB.Table,
		AutoCreate: st.DB.AutoCreateTable,
		Replace:    st.DB.Replace,
		BatchSize:  p.Runtime.BatchSize,
	})
	metrics.RecordRow(p.Job, metrics.KindPublished, res.Rows)
	metrics.RecordBatches(p.Job, res.Batches)
	if err != nil {
		return res.Rows, err
	}
	log.Printf("publish: kind=%s table=%s rows=%d batches=%d", st.Kind, st.DB.Table, res.Rows, res.Batches)
	return res.Rows, nil
}
