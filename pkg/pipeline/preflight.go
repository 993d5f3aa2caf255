package pipeline

import (
	"context"

	"github.com/dd0wney/cluso-fraudgraph/pkg/config"
	"github.com/dd0wney/cluso-fraudgraph/pkg/health"
	"github.com/dd0wney/cluso-fraudgraph/pkg/sink"
)

// Preflight checks that a run with cfg can start: every input table is
// readable, the output directory is writable and each enabled sink answers.
// Nothing is written to the sinks.
func Preflight(ctx context.Context, cfg config.Config) health.Response {
	hc := health.NewHealthChecker()
	paths := cfg.Data.Paths()
	hc.RegisterCheck("input.inpatient", health.FileCheck(paths.Inpatient))
	hc.RegisterCheck("input.outpatient", health.FileCheck(paths.Outpatient))
	hc.RegisterCheck("input.beneficiary", health.FileCheck(paths.Beneficiary))
	hc.RegisterCheck("input.labels", health.FileCheck(paths.Labels))
	hc.RegisterCheck("output", health.DirWritableCheck(cfg.Output.Dir))

	s := cfg.Sinks
	if s.S3.Enabled {
		hc.RegisterCheck("sink.s3", health.PingCheck(s.S3.Bucket, func(ctx context.Context) error {
			u, err := sink.NewS3Uploader(ctx, s.S3)
			if err != nil {
				return err
			}
			return u.Ping(ctx)
		}))
	} else {
		hc.RegisterCheck("sink.s3", health.DisabledCheck())
	}

	if s.Postgres.Enabled {
		hc.RegisterCheck("sink.postgres", health.PingCheck(s.Postgres.Table, func(ctx context.Context) error {
			return sink.PingPostgres(ctx, s.Postgres.DSN)
		}))
	} else {
		hc.RegisterCheck("sink.postgres", health.DisabledCheck())
	}

	if s.Neo4j.Enabled {
		hc.RegisterCheck("sink.neo4j", health.PingCheck(s.Neo4j.URI, func(ctx context.Context) error {
			e, err := sink.NewNeo4jExporter(ctx, s.Neo4j)
			if err != nil {
				return err
			}
			return e.Close(ctx)
		}))
	} else {
		hc.RegisterCheck("sink.neo4j", health.DisabledCheck())
	}

	return hc.Check(ctx)
}
