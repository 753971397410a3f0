package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"retailetl/internal/config"
	"retailetl/internal/pipeline"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "retailetl/internal/storage/all"
)

// main is the entry point for the retail ETL binary. It loads the pipeline
// config, optionally initializes a metrics backend, and runs either the
// whole chain or a single step.
func main() {
	var (
		cfgPath           string
		stepName          string
		metricsBackendFlg string
		pushGatewayURLFlg string
		list              bool
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/pipelines/retail.json", "pipeline config JSON path (empty uses built-in defaults)")
	flag.StringVar(&stepName, "step", "", "run only this step (see -list)")
	flag.BoolVar(&list, "list", false, "print step names in execution order and exit")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend: pushgateway, datadog or none (overrides env METRICS_BACKEND)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	if list {
		fmt.Println(strings.Join(pipeline.StepNames(), "\n"))
		return
	}

	p, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("Configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if validate {
		log.Printf("Configuration is valid: %v", cfgPath)
		return
	}

	runner := pipeline.New(p, "")
	runner.SetVerbose(*verbose)

	flush := setupMetrics(metricsOptions{
		backend:    firstNonEmpty(metricsBackendFlg, os.Getenv("METRICS_BACKEND")),
		gatewayURL: firstNonEmpty(pushGatewayURLFlg, os.Getenv("PUSHGATEWAY_URL"), "http://localhost:9091"),
		agentAddr:  firstNonEmpty(os.Getenv("DD_AGENT_ADDR"), "127.0.0.1:8125"),
		job:        p.Job,
		runID:      runner.RunID(),
		verbose:    *verbose,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if stepName != "" {
		err = runner.RunStep(ctx, stepName)
	} else {
		err = runner.Run(ctx)
	}
	stop()
	flush()

	if err != nil {
		var se *pipeline.StepError
		if errors.As(err, &se) {
			fatalf("pipeline failed at step %s: %v", se.Step, se.Err)
		}
		fatalf("%v", err)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
