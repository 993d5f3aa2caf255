package config

import (
	"fmt"
	"regexp"

	"github.com/dd0wney/cluso-fraudgraph/pkg/validation"
	"github.com/dd0wney/cluso-fraudgraph/pkg/visualization"
)

// identifier matches table names safe to splice into SQL.
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks struct tags first, then the rules spanning fields. Every
// failure wraps ErrInvalidConfig.
func (c Config) Validate() error {
	if err := validation.Struct(&c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cv := validation.NewConfigValidator("config").
		Custom("node2vec", c.Node2Vec.Validate).
		Custom("sage", c.Sage.Validate).
		RangeFloat("forest.threshold", c.Forest.Threshold, 0, 1).
		When(c.Output.Layout, func(cv *validation.ConfigValidator) {
			cv.OneOf("output.layout_algorithm", c.Output.LayoutAlgorithm, visualization.LayoutNames)
		}).
		When(c.Sinks.S3.Enabled, func(cv *validation.ConfigValidator) {
			cv.Required("sinks.s3.bucket", c.Sinks.S3.Bucket).
				Required("sinks.s3.region", c.Sinks.S3.Region)
		}).
		When(c.Sinks.Postgres.Enabled, func(cv *validation.ConfigValidator) {
			cv.Required("sinks.postgres.dsn", c.Sinks.Postgres.DSN).
				Required("sinks.postgres.table", c.Sinks.Postgres.Table).
				Custom("sinks.postgres.table", func() error {
					if !identifier.MatchString(c.Sinks.Postgres.Table) {
						return fmt.Errorf("%q is not a plain SQL identifier", c.Sinks.Postgres.Table)
					}
					return nil
				})
		}).
		When(c.Sinks.Neo4j.Enabled, func(cv *validation.ConfigValidator) {
			cv.Required("sinks.neo4j.uri", c.Sinks.Neo4j.URI).
				Positive("sinks.neo4j.batch_size", c.Sinks.Neo4j.BatchSize)
		})

	if err := cv.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
