package config

import (
	"fmt"
	"strings"
	"time"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "paths.raw.orders"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// knownStorageKinds mirrors the backends under internal/storage. Kept here so
// the config package stays free of driver imports.
var knownStorageKinds = map[string]bool{
	"sqlite":   true,
	"postgres": true,
	"mssql":    true,
	"duckdb":   true,
}

// ValidatePipeline performs static validation of a Pipeline. It does not
// mutate the pipeline and does not touch the filesystem; missing input files
// surface when the step that reads them runs.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validatePaths(p.Paths)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateClean(p.Clean)...)
	issues = append(issues, validateTransform(p.Transform)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateRuntime(p.Runtime)...)
	return issues
}

func validatePaths(ps Paths) []Issue {
	var issues []Issue
	required := func(path, v string) {
		if strings.TrimSpace(v) == "" {
			issues = append(issues, Issue{SeverityError, path, "must not be empty"})
		}
	}

	required("paths.raw.orders", ps.Raw.Orders)
	required("paths.raw.order_items", ps.Raw.OrderItems)
	required("paths.raw.customers", ps.Raw.Customers)
	required("paths.raw.payments", ps.Raw.Payments)
	required("paths.raw.products", ps.Raw.Products)
	required("paths.raw.sellers", ps.Raw.Sellers)

	a := ps.Artifacts
	names := []struct{ path, v string }{
		{"paths.artifacts.orders_with_items", a.OrdersWithItems},
		{"paths.artifacts.ord_itm_cust", a.OrdItmCust},
		{"paths.artifacts.pay_simplified", a.PaySimplified},
		{"paths.artifacts.ord_pay", a.OrdPay},
		{"paths.artifacts.ord_pay_simplified", a.OrdPaySimplified},
		{"paths.artifacts.ord_pay_prod", a.OrdPayProd},
		{"paths.artifacts.ord_prod_sell", a.OrdProdSell},
		{"paths.artifacts.cleaned", a.Cleaned},
		{"paths.artifacts.final", a.Final},
	}
	seen := map[string]string{}
	for _, n := range names {
		required(n.path, n.v)
		if n.v == "" {
			continue
		}
		if prev, dup := seen[n.v]; dup {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     n.path,
				Message:  fmt.Sprintf("artifact %q is also used by %s; every artifact needs its own file", n.v, prev),
			})
			continue
		}
		seen[n.v] = n.path
	}

	if strings.TrimSpace(ps.DataDir) == "" {
		issues = append(issues, Issue{SeverityWarning, "paths.data_dir", "empty; relative paths resolve against the working directory"})
	}
	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue
	if v, ok := p.Options["comma"]; ok {
		s, isStr := v.(string)
		if !isStr || len([]rune(s)) != 1 {
			issues = append(issues, Issue{SeverityError, "parser.options.comma", "must be a single-character string"})
		} else if s == "\"" || s == "\n" || s == "\r" {
			issues = append(issues, Issue{SeverityError, "parser.options.comma", fmt.Sprintf("%q cannot be used as a delimiter", s)})
		}
	}
	if v, ok := p.Options["header_map"]; ok {
		if _, isMap := v.(map[string]any); !isMap {
			issues = append(issues, Issue{SeverityError, "parser.options.header_map", "must be an object of string to string"})
		}
	}
	return issues
}

func validateClean(s Step) []Issue {
	var issues []Issue
	if v, ok := s.Options["timestamp_layouts"]; ok {
		if _, isArr := v.([]any); !isArr {
			issues = append(issues, Issue{SeverityError, "clean.options.timestamp_layouts", "must be an array of Go time layouts"})
			return issues
		}
		for i, l := range s.Options.StringSlice("timestamp_layouts") {
			if !looksLikeLayout(l) {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Path:     fmt.Sprintf("clean.options.timestamp_layouts[%d]", i),
					Message:  fmt.Sprintf("%q does not look like a Go reference-time layout (2006-01-02 15:04:05)", l),
				})
			}
		}
	}
	return issues
}

// looksLikeLayout checks that formatting the reference time with l changes
// something; a layout with no reference components formats to itself.
func looksLikeLayout(l string) bool {
	ref := time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)
	return l != "" && ref.Format(l) != l
}

func validateTransform(s Step) []Issue {
	var issues []Issue
	if v, ok := s.Options["round_places"]; ok {
		n, isNum := v.(float64)
		if !isNum || n < 0 || n != float64(int(n)) {
			issues = append(issues, Issue{SeverityError, "transform.options.round_places", "must be a non-negative integer"})
		}
	}
	if v, ok := s.Options["voucher_label"]; ok {
		if str, isStr := v.(string); !isStr || str == "" {
			issues = append(issues, Issue{SeverityError, "transform.options.voucher_label", "must be a non-empty string"})
		}
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue
	if s.Kind == "" {
		return nil
	}
	if !knownStorageKinds[s.Kind] {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unsupported storage kind %q (want sqlite, postgres, mssql or duckdb)", s.Kind),
		})
	}
	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{SeverityError, "storage.db.dsn", "must not be empty when storage.kind is set"})
	}
	if strings.TrimSpace(s.DB.Table) == "" {
		issues = append(issues, Issue{SeverityError, "storage.db.table", "must not be empty when storage.kind is set"})
	}
	if !s.DB.AutoCreateTable {
		issues = append(issues, Issue{SeverityWarning, "storage.db.auto_create_table", "disabled; the table must already exist with matching columns"})
		if s.DB.Replace {
			issues = append(issues, Issue{SeverityError, "storage.db.replace", "requires auto_create_table"})
		}
	}
	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue
	if r.BatchSize < 0 {
		issues = append(issues, Issue{SeverityError, "runtime.batch_size", "must be >= 0"})
	}
	if r.HTTPRetries < 0 {
		issues = append(issues, Issue{SeverityError, "runtime.http_retries", "must be >= 0"})
	}
	return issues
}
