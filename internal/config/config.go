// Package config defines the JSON-serializable configuration model for the
// retail ETL pipeline. Every file location the pipeline touches is carried
// here and passed down explicitly; no step reads a global path.
//
// Decoding is performed by the standard library. Load starts from Default()
// so a pipeline file only has to mention what it changes.
//
// Example (trimmed):
//
//	{
//	  "job":   "retail_sales",
//	  "paths": { "data_dir": "data", "raw": { "orders": "olist_orders_dataset.csv" } },
//	  "parser": { "options": { "trim_space": false } },
//	  "clean": { "options": { "timestamp_layouts": ["2006-01-02 15:04:05"] } },
//	  "storage": { "kind": "sqlite", "db": { "dsn": "retail.db", "table": "fact_sales" } }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Pipeline is the top-level object decoded from a pipeline file
// (e.g., configs/pipelines/retail.json).
type Pipeline struct {
	// Job names the pipeline for logs and metrics.
	Job string `json:"job"`

	// Paths locates raw extracts and every artifact written between steps.
	Paths Paths `json:"paths"`

	// Parser carries CSV reader options (comma, trim_space, lazy_quotes,
	// header_map).
	Parser Parser `json:"parser"`

	// Clean carries options for the cleaning step.
	Clean Step `json:"clean"`

	// Transform carries options for the derivation step.
	Transform Step `json:"transform"`

	// Storage optionally names a SQL backend the final table is published to.
	// An empty Kind disables the publish step.
	Storage Storage `json:"storage"`

	// Analytics configures the SQL runner.
	Analytics Analytics `json:"analytics"`

	Runtime RuntimeConfig `json:"runtime"`
}

// Paths holds directory roots and file names. Relative directories are
// resolved under DataDir; absolute file names and URLs are used as-is.
type Paths struct {
	DataDir        string `json:"data_dir"`
	RawDir         string `json:"raw_dir"`
	ProcessedDir   string `json:"processed_dir"`
	CleanedDir     string `json:"cleaned_dir"`
	TransformedDir string `json:"transformed_dir"`

	Raw       RawExtracts `json:"raw"`
	Artifacts Artifacts   `json:"artifacts"`
}

// RawExtracts names the six source files inside RawDir.
type RawExtracts struct {
	Orders     string `json:"orders"`
	OrderItems string `json:"order_items"`
	Customers  string `json:"customers"`
	Payments   string `json:"payments"`
	Products   string `json:"products"`
	Sellers    string `json:"sellers"`
}

// Artifacts names the files written by each step.
type Artifacts struct {
	OrdersWithItems  string `json:"orders_with_items"`  // processed
	OrdItmCust       string `json:"ord_itm_cust"`       // processed
	PaySimplified    string `json:"pay_simplified"`     // processed
	OrdPay           string `json:"ord_pay"`            // processed
	OrdPaySimplified string `json:"ord_pay_simplified"` // processed
	OrdPayProd       string `json:"ord_pay_prod"`       // processed
	OrdProdSell      string `json:"ord_prod_sell"`      // processed
	Cleaned          string `json:"cleaned"`            // cleaned
	Final            string `json:"final"`              // transformed
}

// Parser configures how raw bytes are turned into tables.
type Parser struct {
	// Options for CSV: comma (string), trim_space (bool), lazy_quotes (bool),
	// header_map (object).
	Options Options `json:"options"`
}

// Step is an options bag for a single pipeline step.
type Step struct {
	Options Options `json:"options"`
}

// Storage selects the sink used by the publish step and the SQL runner.
type Storage struct {
	// Kind selects the backend: "sqlite", "postgres", "mssql" or "duckdb".
	Kind string `json:"kind"`

	DB DBConfig `json:"db"`
}

// DBConfig configures the DB sink.
type DBConfig struct {
	// DSN is the backend connection string.
	DSN string `json:"dsn"`

	// Table is the fact table name (e.g., "fact_sales" or "public.fact_sales").
	Table string `json:"table"`

	// AutoCreateTable creates the table from the final table's inferred
	// column kinds before loading.
	AutoCreateTable bool `json:"auto_create_table"`

	// Replace drops the table before it is recreated, so reruns do not
	// duplicate rows. Requires AutoCreateTable.
	Replace bool `json:"replace"`
}

// Analytics configures the SQL runner (cmd/runsql).
type Analytics struct {
	// SQLDir holds *.sql files, executed in lexical order.
	SQLDir string `json:"sql_dir"`
	// ResultsDir receives one <stem>.csv per query.
	ResultsDir string `json:"results_dir"`
}

// RuntimeConfig controls batching and read concurrency.
type RuntimeConfig struct {
	// ParallelReads loads the two inputs of a join step concurrently.
	ParallelReads bool `json:"parallel_reads"`
	// BatchSize is the publish batch size.
	BatchSize int `json:"batch_size"`
	// HTTPRetries is the retry budget for raw extracts given as URLs.
	HTTPRetries int `json:"http_retries"`
}

// Default returns the pipeline layout used when no config file is given. It
// mirrors the classic data/{raw,processed,cleaned,transformed} tree.
func Default() Pipeline {
	return Pipeline{
		Job: "retail_sales",
		Paths: Paths{
			DataDir:        "data",
			RawDir:         "raw",
			ProcessedDir:   "processed",
			CleanedDir:     "cleaned",
			TransformedDir: "transformed",
			Raw: RawExtracts{
				Orders:     "olist_orders_dataset.csv",
				OrderItems: "olist_order_items_dataset.csv",
				Customers:  "olist_customers_dataset.csv",
				Payments:   "olist_order_payments_dataset.csv",
				Products:   "olist_products_dataset.csv",
				Sellers:    "olist_sellers_dataset.csv",
			},
			Artifacts: Artifacts{
				OrdersWithItems:  "orders_with_items.csv",
				OrdItmCust:       "ord_itm_cust.csv",
				PaySimplified:    "pay_simplified.csv",
				OrdPay:           "ord_pay.csv",
				OrdPaySimplified: "ord_pay_simplified.csv",
				OrdPayProd:       "ord_pay_prod.csv",
				OrdProdSell:      "ord_prod_sell.csv",
				Cleaned:          "cleaned.csv",
				Final:            "final.csv",
			},
		},
		Parser:    Parser{Options: Options{}},
		Clean:     Step{Options: Options{}},
		Transform: Step{Options: Options{}},
		Storage: Storage{
			DB: DBConfig{Table: "fact_sales", AutoCreateTable: true, Replace: true},
		},
		Analytics: Analytics{SQLDir: "analytics/sql", ResultsDir: "analytics/results"},
		Runtime:   RuntimeConfig{BatchSize: 5000, HTTPRetries: 3},
	}
}

// Load decodes the pipeline file at path on top of Default() and applies
// environment overrides. An empty path yields the defaults.
func Load(path string) (Pipeline, error) {
	p := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Pipeline{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()

		dec := json.NewDecoder(f)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return Pipeline{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	ApplyEnv(&p)
	return p, nil
}

// ApplyEnv applies 12-factor style overrides:
//
//	RETAIL_DATA_DIR  -> paths.data_dir
//	RETAIL_DB_DSN    -> storage.db.dsn
func ApplyEnv(p *Pipeline) {
	if v := os.Getenv("RETAIL_DATA_DIR"); v != "" {
		p.Paths.DataDir = v
	}
	if v := os.Getenv("RETAIL_DB_DSN"); v != "" {
		p.Storage.DB.DSN = v
	}
}

// RawPath returns the location of a raw extract file name.
func (p Paths) RawPath(name string) string { return p.resolve(p.RawDir, name) }

// ProcessedPath returns the location of an intermediate artifact.
func (p Paths) ProcessedPath(name string) string { return p.resolve(p.ProcessedDir, name) }

// CleanedPath returns the location of the cleaned artifact.
func (p Paths) CleanedPath(name string) string { return p.resolve(p.CleanedDir, name) }

// TransformedPath returns the location of the final artifact.
func (p Paths) TransformedPath(name string) string { return p.resolve(p.TransformedDir, name) }

func (p Paths) resolve(dir, name string) string {
	if filepath.IsAbs(name) || strings.Contains(name, "://") {
		return name
	}
	if filepath.IsAbs(dir) {
		return filepath.Join(dir, name)
	}
	return filepath.Join(p.DataDir, dir, name)
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It performs only
// minimal type coercion and returns provided defaults when a key is absent or
// of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of
// strings. Returns nil when the key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// UnmarshalJSON makes a missing or null "options" object decode to a
// non-nil, empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
