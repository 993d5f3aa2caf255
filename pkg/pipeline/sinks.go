package pipeline

import (
	"context"
	"errors"

	"github.com/dd0wney/cluso-fraudgraph/pkg/config"
	"github.com/dd0wney/cluso-fraudgraph/pkg/embedding"
	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
	"github.com/dd0wney/cluso-fraudgraph/pkg/logging"
	"github.com/dd0wney/cluso-fraudgraph/pkg/sink"
)

// ArtifactUploader copies artifact files to remote storage.
type ArtifactUploader interface {
	Upload(ctx context.Context, runID string, files []string) ([]string, error)
}

// EmbeddingWriter stores one learner's embedding table.
type EmbeddingWriter interface {
	Write(ctx context.Context, runID, learner string, t *embedding.Table) (int, error)
}

// GraphExporter writes the heterogeneous graph to a graph database.
type GraphExporter interface {
	Export(ctx context.Context, runID string, g *graph.Graph) (sink.ExportStats, error)
}

type sinks struct {
	uploader   ArtifactUploader
	embeddings EmbeddingWriter
	exporter   GraphExporter

	closers []func(context.Context) error
}

// open connects every enabled sink that was not injected.
func (s *sinks) open(ctx context.Context, cfg config.SinksConfig, logger logging.Logger) error {
	if s.uploader == nil && cfg.S3.Enabled {
		u, err := sink.NewS3Uploader(ctx, cfg.S3)
		if err != nil {
			return &StageError{Stage: StageSinkS3, Err: err}
		}
		s.uploader = u
		logger.Info("s3 sink enabled", logging.String("bucket", cfg.S3.Bucket))
	}
	if s.embeddings == nil && cfg.Postgres.Enabled {
		pg, err := sink.NewPGVectorSink(ctx, cfg.Postgres)
		if err != nil {
			s.close(ctx)
			return &StageError{Stage: StageSinkPG, Err: err}
		}
		s.embeddings = pg
		s.closers = append(s.closers, func(context.Context) error {
			pg.Close()
			return nil
		})
		logger.Info("postgres sink enabled", logging.String("table", cfg.Postgres.Table))
	}
	if s.exporter == nil && cfg.Neo4j.Enabled {
		neo, err := sink.NewNeo4jExporter(ctx, cfg.Neo4j)
		if err != nil {
			s.close(ctx)
			return &StageError{Stage: StageSinkNeo4j, Err: err}
		}
		s.exporter = neo
		s.closers = append(s.closers, neo.Close)
		logger.Info("neo4j sink enabled", logging.String("uri", cfg.Neo4j.URI))
	}
	return nil
}

func (s *sinks) close(ctx context.Context) error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c(ctx))
	}
	s.closers = nil
	return errors.Join(errs...)
}
