// Package config loads pipeline configuration from YAML, .env files and
// environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-fraudgraph/pkg/algorithms"
	"github.com/dd0wney/cluso-fraudgraph/pkg/claimgraph"
	"github.com/dd0wney/cluso-fraudgraph/pkg/claims"
	"github.com/dd0wney/cluso-fraudgraph/pkg/classify"
	"github.com/dd0wney/cluso-fraudgraph/pkg/embedding/node2vec"
	"github.com/dd0wney/cluso-fraudgraph/pkg/embedding/sage"
	"github.com/dd0wney/cluso-fraudgraph/pkg/visualization"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Feature modes for the deep learner.
const (
	FeaturesStructural = "structural"
	FeaturesAggregate  = "aggregate"
)

// Config is the complete pipeline configuration.
type Config struct {
	LogLevel  string                `yaml:"log_level" validate:"oneof=debug info warn error"`
	Data      DataConfig            `yaml:"data"`
	Output    OutputConfig          `yaml:"output"`
	Learners  []string              `yaml:"learners" validate:"min=1,dive,oneof=node2vec sage"`
	Features  string                `yaml:"features" validate:"oneof=structural aggregate"`
	Hetero    HeteroConfig          `yaml:"hetero"`
	Projector ProjectorConfig       `yaml:"projector"`
	Metrics   MetricsConfig         `yaml:"metrics"`
	Node2Vec  node2vec.Config       `yaml:"node2vec"`
	Sage      sage.Config           `yaml:"sage"`
	Forest    classify.ForestConfig `yaml:"forest"`
	Sinks     SinksConfig           `yaml:"sinks"`
}

// DataConfig names the four input tables, relative to Dir unless absolute.
type DataConfig struct {
	Dir         string `yaml:"dir" validate:"required"`
	Inpatient   string `yaml:"inpatient" validate:"required"`
	Outpatient  string `yaml:"outpatient" validate:"required"`
	Beneficiary string `yaml:"beneficiary" validate:"required"`
	Labels      string `yaml:"labels" validate:"required"`
	Positive    string `yaml:"positive_label" validate:"required"`
	Negative    string `yaml:"negative_label" validate:"required"`
}

// OutputConfig controls the artifact directory.
type OutputConfig struct {
	Dir             string `yaml:"dir" validate:"required"`
	Layout          bool   `yaml:"layout"` // write hetero_layout.json
	LayoutAlgorithm string `yaml:"layout_algorithm"`
}

type HeteroConfig struct {
	IncludeAllPhysicians bool `yaml:"include_all_physicians"`
}

type ProjectorConfig struct {
	Kind      string `yaml:"kind" validate:"oneof=memory duckdb"`
	Symmetric string `yaml:"symmetric" validate:"oneof=collapse keep"`
	DuckDBDSN string `yaml:"duckdb_dsn"`
}

type MetricsConfig struct {
	Closeness string  `yaml:"closeness" validate:"oneof=exclude wasserman-faust infinite"`
	Damping   float64 `yaml:"damping" validate:"gt=0,lt=1"`
	Tolerance float64 `yaml:"tolerance" validate:"gt=0"`
	TopN      int     `yaml:"top_n" validate:"gte=0"`
}

type SinksConfig struct {
	S3       S3Config       `yaml:"s3"`
	Postgres PostgresConfig `yaml:"postgres"`
	Neo4j    Neo4jConfig    `yaml:"neo4j"`
}

type S3Config struct {
	Enabled      bool   `yaml:"enabled"`
	Endpoint     string `yaml:"endpoint"`
	Region       string `yaml:"region"`
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

type PostgresConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
	Table   string `yaml:"table"`
}

type Neo4jConfig struct {
	Enabled   bool   `yaml:"enabled"`
	URI       string `yaml:"uri"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Database  string `yaml:"database"`
	BatchSize int    `yaml:"batch_size" validate:"gte=0"`
}

// Default returns a configuration that runs both learners against
// ./data and writes to ./out, with every sink disabled.
func Default() Config {
	enc := claims.DefaultLabelEncoder()
	pr := algorithms.DefaultPageRankOptions()
	return Config{
		LogLevel: "info",
		Data: DataConfig{
			Dir:         "data",
			Inpatient:   "inpatient.csv",
			Outpatient:  "outpatient.csv",
			Beneficiary: "beneficiary.csv",
			Labels:      "labels.csv",
			Positive:    enc.Positive,
			Negative:    enc.Negative,
		},
		Output:   OutputConfig{Dir: "out", LayoutAlgorithm: visualization.LayoutHierarchical},
		Learners: []string{"node2vec", "sage"},
		Features: FeaturesStructural,
		Projector: ProjectorConfig{
			Kind:      "memory",
			Symmetric: string(claimgraph.SymmetricCollapse),
		},
		Metrics: MetricsConfig{
			Closeness: string(algorithms.ClosenessExcludeUnreachable),
			Damping:   pr.DampingFactor,
			Tolerance: pr.Tolerance,
			TopN:      10,
		},
		Node2Vec: node2vec.DefaultConfig(),
		Sage:     sage.DefaultConfig(),
		Forest:   classify.DefaultForestConfig(),
		Sinks: SinksConfig{
			S3:       S3Config{Region: "us-east-1", Prefix: "fraudgraph", UsePathStyle: true},
			Postgres: PostgresConfig{Table: "provider_embeddings"},
			Neo4j:    Neo4jConfig{Database: "neo4j", BatchSize: 500},
		},
	}
}

// Load builds a configuration from defaults, the YAML file at path (when
// non-empty) and environment overrides, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := Decode(bytes.NewReader(data), &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	ApplyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode merges YAML from r onto cfg. Unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Path resolves one of the data file names against Dir.
func (d DataConfig) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// Paths returns the resolved input table paths.
func (d DataConfig) Paths() claims.Paths {
	return claims.Paths{
		Inpatient:   d.Path(d.Inpatient),
		Outpatient:  d.Path(d.Outpatient),
		Beneficiary: d.Path(d.Beneficiary),
		Labels:      d.Path(d.Labels),
	}
}

// LabelEncoder returns the encoder for the configured label values.
func (d DataConfig) LabelEncoder() claims.LabelEncoder {
	return claims.LabelEncoder{Positive: d.Positive, Negative: d.Negative}
}

// MetricsOptions converts the metric section for the algorithms package.
func (m MetricsConfig) MetricsOptions() algorithms.MetricsOptions {
	return algorithms.MetricsOptions{
		Closeness: algorithms.ClosenessPolicy(m.Closeness),
		PageRank:  algorithms.PageRankOptions{DampingFactor: m.Damping, Tolerance: m.Tolerance},
		TopN:      m.TopN,
	}
}
