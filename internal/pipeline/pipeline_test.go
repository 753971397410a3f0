package pipeline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"retailetl/internal/config"
	"retailetl/internal/datasource/file"
	csvparser "retailetl/internal/parser/csv"
	"retailetl/internal/storage"
	_ "retailetl/internal/storage/sqlite"
	"retailetl/internal/table"
)

/*
Fixtures
*/

var rawFixtures = map[string]string{
	"olist_orders_dataset.csv": `order_id,customer_id,order_status,order_purchase_timestamp,order_approved_at,order_delivered_customer_date
O1,cust1,delivered,2017-10-02 10:56:33,2017-10-02 11:07:15,2017-10-10 21:25:13
O2,cust2,canceled,bogus,,
`,
	"olist_order_items_dataset.csv": `order_id,order_item_id,product_id,seller_id,shipping_limit_date,price,freight_value
O1,1,P1,S1,2017-10-06 11:07:15,29.99,8.72
`,
	"olist_customers_dataset.csv": `customer_id,customer_unique_id,customer_zip_code_prefix,customer_city,customer_state
cust1,u1,01037,São Paulo,SP
cust2,u2,22790,rio de janeiro,RJ
`,
	"olist_order_payments_dataset.csv": `order_id,payment_sequential,payment_type,payment_installments,payment_value
O1,1,credit_card,1,18.12
O1,2,voucher,1,20.59
`,
	"olist_products_dataset.csv": `product_id,product_category_name,product_name_lenght,product_description_lenght,product_photos_qty,product_weight_g,product_length_cm,product_height_cm,product_width_cm
P1,perfumaria,40,287,1,500,1,1,1
`,
	"olist_sellers_dataset.csv": `seller_id,seller_zip_code_prefix,seller_city,seller_state
S1,13023,Campinas ,SP
`,
}

// newFixture writes the raw extracts under a temp data dir and returns a
// pipeline pointing at it.
func newFixture(tb testing.TB) config.Pipeline {
	tb.Helper()
	p := config.Default()
	p.Paths.DataDir = tb.TempDir()
	for name, body := range rawFixtures {
		path := p.Paths.RawPath(name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			tb.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			tb.Fatalf("write %s: %v", name, err)
		}
	}
	return p
}

func readCSV(tb testing.TB, path string) *table.Table {
	tb.Helper()
	src, err := file.NewLocal(path).Open(context.Background())
	if err != nil {
		tb.Fatalf("open: %v", err)
	}
	t, err := csvparser.ReadTable(context.Background(), src, csvparser.Options{})
	if err != nil {
		tb.Fatalf("read %s: %v", path, err)
	}
	return t
}

// rowFor returns the first row whose order_id is id, keyed by column.
func rowFor(tb testing.TB, t *table.Table, id string) map[string]string {
	tb.Helper()
	for r := range t.Rows {
		if t.Value(r, "order_id") == id {
			out := make(map[string]string, len(t.Columns))
			for _, c := range t.Columns {
				out[c] = table.Format(t.Value(r, c))
			}
			return out
		}
	}
	tb.Fatalf("order %s not found", id)
	return nil
}

/*
Unit tests
*/

func TestStepNames(t *testing.T) {
	t.Parallel()

	want := []string{
		"orders_with_items", "ord_itm_cust", "ord_pay", "ord_pay_prod",
		"ord_prod_sell", "clean", "transform", "publish",
	}
	if got := StepNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("StepNames = %v, want %v", got, want)
	}
}

func TestNew_GeneratesRunID(t *testing.T) {
	t.Parallel()

	a, b := New(config.Default(), ""), New(config.Default(), "")
	if a.RunID() == "" || a.RunID() == b.RunID() {
		t.Fatalf("run ids not unique: %q %q", a.RunID(), b.RunID())
	}
	if got := New(config.Default(), "fixed").RunID(); got != "fixed" {
		t.Fatalf("RunID = %q, want fixed", got)
	}
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	p := newFixture(t)
	if err := New(p, "").Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	ps := p.Paths
	for _, name := range []string{
		ps.Artifacts.OrdersWithItems, ps.Artifacts.OrdItmCust, ps.Artifacts.PaySimplified,
		ps.Artifacts.OrdPay, ps.Artifacts.OrdPaySimplified, ps.Artifacts.OrdPayProd,
		ps.Artifacts.OrdProdSell,
	} {
		if _, err := os.Stat(ps.ProcessedPath(name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}

	owi := readCSV(t, ps.ProcessedPath(ps.Artifacts.OrdersWithItems))
	if owi.Has("order_approved_at") {
		t.Errorf("orders projection kept order_approved_at: %v", owi.Columns)
	}

	// The unaggregated join repeats O1 once per payment.
	if n := readCSV(t, ps.ProcessedPath(ps.Artifacts.OrdPay)).Len(); n != 3 {
		t.Errorf("ord_pay rows = %d, want 3", n)
	}

	final := readCSV(t, ps.TransformedPath(ps.Artifacts.Final))
	if final.Len() != 2 {
		t.Fatalf("final rows = %d, want 2", final.Len())
	}

	o1 := rowFor(t, final, "O1")
	want := map[string]string{
		"num_pay_methods":          "2",
		"used_voucher":             "true",
		"product_volume_cm3":       "1",
		"item_total_value":         "38.71",
		"price":                    "29.99",
		"payment_value":            "38.71",
		"payment_sequential":       "2",
		"delivery_days":            "8",
		"is_delivered":             "true",
		"has_del_date":             "true",
		"has_prod_dim":             "true",
		"has_pay_info":             "true",
		"customer_city_clean":      "sao paulo",
		"seller_city_clean":        "campinas",
		"customer_zip_code_prefix": "01037",
		"order_purchase_timestamp": "2017-10-02 10:56:33",
	}
	for col, v := range want {
		if o1[col] != v {
			t.Errorf("O1 %s = %q, want %q", col, o1[col], v)
		}
	}

	o2 := rowFor(t, final, "O2")
	for col, v := range map[string]string{
		"order_purchase_timestamp": "",
		"delivery_days":            "",
		"has_del_date":             "false",
		"has_pay_info":             "false",
		"is_delivered":             "false",
		"num_pay_methods":          "0",
		"used_voucher":             "false",
		"product_volume_cm3":       "",
	} {
		if o2[col] != v {
			t.Errorf("O2 %s = %q, want %q", col, o2[col], v)
		}
	}
}

func TestRunStep_MissingInput(t *testing.T) {
	t.Parallel()

	p := config.Default()
	p.Paths.DataDir = t.TempDir()

	err := New(p, "").RunStep(context.Background(), StepClean)
	if err == nil {
		t.Fatalf("expected error for missing input")
	}
	var se *StepError
	if !errors.As(err, &se) || se.Step != StepClean {
		t.Fatalf("want *StepError for %s, got %T %v", StepClean, err, err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist in chain, got %v", err)
	}
	if _, statErr := os.Stat(p.Paths.CleanedPath(p.Paths.Artifacts.Cleaned)); !os.IsNotExist(statErr) {
		t.Fatalf("failed step left an artifact behind: %v", statErr)
	}
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	p := newFixture(t)
	if err := os.Remove(p.Paths.RawPath(p.Paths.Raw.Payments)); err != nil {
		t.Fatal(err)
	}

	err := New(p, "").Run(context.Background())
	var se *StepError
	if !errors.As(err, &se) || se.Step != StepOrdPay {
		t.Fatalf("want failure at %s, got %v", StepOrdPay, err)
	}
	// Earlier artifacts stay; later ones are never written.
	if _, err := os.Stat(p.Paths.ProcessedPath(p.Paths.Artifacts.OrdItmCust)); err != nil {
		t.Fatalf("earlier artifact missing: %v", err)
	}
	if _, err := os.Stat(p.Paths.ProcessedPath(p.Paths.Artifacts.OrdPayProd)); !os.IsNotExist(err) {
		t.Fatalf("later artifact present: %v", err)
	}
}

func TestRunStep_Unknown(t *testing.T) {
	t.Parallel()

	err := New(config.Default(), "").RunStep(context.Background(), "bogus")
	if !errors.Is(err, ErrUnknownStep) {
		t.Fatalf("want ErrUnknownStep, got %v", err)
	}
}

func TestRunStep_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(config.Default(), "").RunStep(ctx, StepOrdersWithItems)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestRunStep_PublishNeedsKind(t *testing.T) {
	t.Parallel()

	err := New(config.Default(), "").RunStep(context.Background(), StepPublish)
	if err == nil || !strings.Contains(err.Error(), "storage.kind") {
		t.Fatalf("want storage.kind error, got %v", err)
	}
}

func TestRun_PublishesToSQLite(t *testing.T) {
	t.Parallel()

	p := newFixture(t)
	p.Storage.Kind = "sqlite"
	p.Storage.DB.DSN = filepath.Join(p.Paths.DataDir, "retail.db")

	r := New(p, "")
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Replace keeps reruns idempotent.
	if err := r.RunStep(context.Background(), StepPublish); err != nil {
		t.Fatalf("rerun publish: %v", err)
	}

	ctx := context.Background()
	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: p.Storage.DB.DSN, Table: "fact_sales"})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	defer repo.Close()

	got, err := repo.Query(ctx, `SELECT COUNT(*) AS n, SUM(used_voucher) AS v FROM fact_sales`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if n := got.Value(0, "n"); n != int64(2) {
		t.Fatalf("count = %v (%T), want 2", n, n)
	}
	if v := got.Value(0, "v"); v != int64(1) {
		t.Fatalf("vouchers = %v (%T), want 1", v, v)
	}
}

// Not parallel: swaps the package-level repository seam.
func TestPublish_OpenError(t *testing.T) {
	orig := newRepositoryFn
	t.Cleanup(func() { newRepositoryFn = orig })
	newRepositoryFn = func(context.Context, storage.Config) (storage.Repository, error) {
		return nil, errors.New("dial refused")
	}

	p := config.Default()
	p.Storage.Kind = "postgres"
	tb := table.New([]string{"order_id"})
	_, err := publish(context.Background(), p, tb)
	if err == nil || !strings.Contains(err.Error(), "dial refused") {
		t.Fatalf("want wrapped open error, got %v", err)
	}
}

func TestRunStep_RemoteRawExtract(t *testing.T) {
	t.Parallel()

	p := newFixture(t)
	orders := rawFixtures[p.Paths.Raw.Orders]
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders.csv" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, orders)
	}))
	defer srv.Close()

	p.Paths.Raw.Orders = srv.URL + "/orders.csv"
	if err := New(p, "").RunStep(context.Background(), StepOrdersWithItems); err != nil {
		t.Fatalf("RunStep: %v", err)
	}
	got := readCSV(t, p.Paths.ProcessedPath(p.Paths.Artifacts.OrdersWithItems))
	if got.Len() != 2 {
		t.Fatalf("rows = %d, want 2", got.Len())
	}

	p.Paths.Raw.Orders = srv.URL + "/gone.csv"
	p.Runtime.HTTPRetries = 0
	err := New(p, "").RunStep(context.Background(), StepOrdersWithItems)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist for a 404 extract, got %v", err)
	}
}
