package encoding

import (
	"io"

	"github.com/illuscio-dev/spanmarshal-go/logging"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// MetricsConfig represents metrics configuration.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Config describes an Engine. Serializers and Parsers are format tags looked up in a
// Registry, in negotiation order.
type Config struct {
	Serializers    []string       `yaml:"serializers"`
	Parsers        []string       `yaml:"parsers"`
	Sniff          bool           `yaml:"sniff"`
	DefaultCharset string         `yaml:"default_charset"`
	Debug          bool           `yaml:"debug"`
	Logging        logging.Config `yaml:"logging"`
	Metrics        MetricsConfig  `yaml:"metrics"`
}

// DefaultConfig returns the configuration of NewContentEngine without sniffing.
func DefaultConfig() Config {
	return Config{
		Serializers:    append([]string(nil), DefaultSerializerFormats...),
		Parsers:        append([]string(nil), DefaultParserFormats...),
		DefaultCharset: defaultCharset,
		Logging:        logging.DefaultConfig(),
		Metrics: MetricsConfig{
			Namespace: "spanmarshal",
		},
	}
}

// LoadConfig reads a YAML configuration. Keys left out keep their DefaultConfig value.
func LoadConfig(reader io.Reader) (Config, error) {
	cfg := DefaultConfig()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return cfg, xerrors.Errorf("error reading config: %w", err)
	}

	if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
		return cfg, xerrors.Errorf("error parsing config: %w", err)
	}
	return cfg, nil
}

// NewEngineFromConfig builds an Engine from cfg. A nil registry uses NewRegistry().
// registerer is only used when metrics are enabled, and defaults to
// prometheus.DefaultRegisterer.
func NewEngineFromConfig(
	cfg Config, registry *Registry, registerer prometheus.Registerer,
) (*Engine, error) {
	if registry == nil {
		registry = NewRegistry()
	}

	serializers, err := NewSerializerGroupBuilder(registry).AppendFormat(cfg.Serializers...).Build()
	if err != nil {
		return nil, err
	}
	parsers, err := NewParserGroupBuilder(registry).AppendFormat(cfg.Parsers...).Build()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, xerrors.Errorf("error building logger: %w", err)
	}

	options := []EngineOption{
		WithSniffing(cfg.Sniff),
		WithDefaultCharset(cfg.DefaultCharset),
		WithDebug(cfg.Debug),
		WithLogger(logger),
	}

	if cfg.Metrics.Enabled {
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}
		metrics, err := NewMetrics(cfg.Metrics.Namespace, registerer)
		if err != nil {
			return nil, xerrors.Errorf("error registering metrics: %w", err)
		}
		options = append(options, WithMetrics(metrics))
	}

	return NewEngine(serializers, parsers, options...), nil
}
