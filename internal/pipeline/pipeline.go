// Package pipeline runs the retail ETL steps in their fixed order.
//
// Every step reads its inputs from files and writes its outputs to files;
// steps share nothing in memory, so any single step can be rerun on its own
// once its inputs exist. The orchestrator stops at the first failing step
// and reports it as a *StepError. Files written by earlier steps are kept.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"retailetl/internal/config"
	"retailetl/internal/datasource/httpds"
	"retailetl/internal/metrics"
)

// Step names, in execution order.
const (
	StepOrdersWithItems = "orders_with_items"
	StepOrdItmCust      = "ord_itm_cust"
	StepOrdPay          = "ord_pay"
	StepOrdPayProd      = "ord_pay_prod"
	StepOrdProdSell     = "ord_prod_sell"
	StepClean           = "clean"
	StepTransform       = "transform"
	StepPublish         = "publish"
)

// ErrUnknownStep is returned by RunStep for a name not in StepNames.
var ErrUnknownStep = errors.New("unknown step")

// StepError reports which step failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("step %s: %v", e.Step, e.Err) }

func (e *StepError) Unwrap() error { return e.Err }

// stepFunc runs one step and returns the number of rows it wrote.
type stepFunc func(ctx context.Context, r *Runner) (int, error)

type step struct {
	name string
	run  stepFunc
}

var steps = []step{
	{StepOrdersWithItems, runOrdersWithItems},
	{StepOrdItmCust, runOrdItmCust},
	{StepOrdPay, runOrdPay},
	{StepOrdPayProd, runOrdPayProd},
	{StepOrdProdSell, runOrdProdSell},
	{StepClean, runClean},
	{StepTransform, runTransform},
	{StepPublish, runPublish},
}

// StepNames lists every step in execution order.
func StepNames() []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.name
	}
	return out
}

// Runner executes steps for one pipeline configuration.
type Runner struct {
	cfg     config.Pipeline
	runID   string
	verbose bool
	http    *httpds.Client
}

// New returns a Runner for p. An empty runID gets a fresh UUID.
func New(p config.Pipeline, runID string) *Runner {
	if runID == "" {
		runID = uuid.NewString()
	}
	return &Runner{
		cfg:   p,
		runID: runID,
		http:  httpds.NewClient(httpds.Config{MaxRetries: p.Runtime.HTTPRetries}),
	}
}

// RunID identifies this run in logs and metrics.
func (r *Runner) RunID() string { return r.runID }

// SetVerbose enables per-input log lines.
func (r *Runner) SetVerbose(v bool) { r.verbose = v }

// Run executes every step in order. The publish step is skipped when no
// storage kind is configured.
func (r *Runner) Run(ctx context.Context) error {
	start := time.Now()
	log.Printf("pipeline: job=%s run_id=%s steps=%d", r.cfg.Job, r.runID, len(steps))

	var ran int
	for _, s := range steps {
		if s.name == StepPublish && r.cfg.Storage.Kind == "" {
			log.Printf("step=%s skipped=true reason=no_storage_kind", s.name)
			continue
		}
		if err := r.exec(ctx, s); err != nil {
			log.Printf("pipeline: job=%s run_id=%s failed step=%s after=%s",
				r.cfg.Job, r.runID, s.name, time.Since(start).Truncate(time.Millisecond))
			return err
		}
		ran++
	}

	log.Printf("pipeline: job=%s run_id=%s completed steps=%d elapsed=%s",
		r.cfg.Job, r.runID, ran, time.Since(start).Truncate(time.Millisecond))
	return nil
}

// RunStep executes the named step only.
func (r *Runner) RunStep(ctx context.Context, name string) error {
	for _, s := range steps {
		if s.name == name {
			return r.exec(ctx, s)
		}
	}
	return fmt.Errorf("%w: %q (known: %v)", ErrUnknownStep, name, StepNames())
}

func (r *Runner) exec(ctx context.Context, s step) error {
	if err := ctx.Err(); err != nil {
		return &StepError{Step: s.name, Err: err}
	}

	start := time.Now()
	rows, err := s.run(ctx, r)
	elapsed := time.Since(start)
	metrics.RecordStep(r.cfg.Job, s.name, err, elapsed)
	if err != nil {
		return &StepError{Step: s.name, Err: err}
	}

	log.Printf("step=%s rows=%d elapsed=%s", s.name, rows, elapsed.Truncate(time.Millisecond))
	return nil
}

func (r *Runner) debugf(format string, a ...any) {
	if r.verbose {
		log.Printf(format, a...)
	}
}
