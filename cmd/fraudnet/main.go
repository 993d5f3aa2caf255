package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dd0wney/cluso-fraudgraph/pkg/config"
	"github.com/dd0wney/cluso-fraudgraph/pkg/logging"
	"github.com/dd0wney/cluso-fraudgraph/pkg/pipeline"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	dataDir := flag.String("data", "", "Directory holding the claims, beneficiary and label tables")
	outDir := flag.String("out", "", "Artifact output directory")
	learners := flag.String("learners", "", "Comma-separated learners to run (node2vec,sage)")
	projectorKind := flag.String("projector", "", "Projection backend (memory|duckdb)")
	layout := flag.Bool("layout", false, "Also write hetero_layout.json")
	layoutAlgo := flag.String("layout-algo", "", "Layout algorithm for hetero_layout.json (force|circular|hierarchical)")
	check := flag.Bool("check", false, "Run preflight checks and exit")
	flag.Parse()

	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *learners != "" {
		cfg.Learners = strings.Split(*learners, ",")
	}
	if *projectorKind != "" {
		cfg.Projector.Kind = *projectorKind
	}
	if *layout {
		cfg.Output.Layout = true
	}
	if *layoutAlgo != "" {
		cfg.Output.LayoutAlgorithm = *layoutAlgo
	}

	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel))
	logging.SetDefaultLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *check {
		resp := pipeline.Preflight(ctx, cfg)
		out, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode preflight result: %v", err)
		}
		fmt.Println(string(out))
		if !resp.Healthy() {
			os.Exit(1)
		}
		return
	}

	p, err := pipeline.New(cfg, pipeline.Options{Logger: logger})
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	report, err := p.Run(ctx)
	if err != nil {
		logger.Error("run failed", logging.RunID(p.RunID()), logging.Error(err))
		os.Exit(1)
	}

	fmt.Printf("Run %s\n", report.RunID)
	fmt.Printf("  Providers: %d projected of %d (%d pairs)\n",
		report.Projection.Nodes, report.Input.Providers, report.Projection.Pairs)
	fmt.Printf("  Labelled: %d (train %d, test %d)\n",
		report.Split.Labelled, report.Split.Train, report.Split.Test)
	for _, r := range report.Results {
		fmt.Printf("  %-9s accuracy %.3f  precision %.3f  recall %.3f  f1 %.3f  roc_auc %.3f\n",
			r.Learner, r.Forest.Accuracy, r.Forest.Precision, r.Forest.Recall, r.Forest.F1, r.Forest.AUC)
	}
	fmt.Printf("  Artifacts in %s\n", cfg.Output.Dir)
}
