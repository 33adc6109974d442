package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/reactor/internal/errors"
	"github.com/vango-dev/reactor/pkg/reactive"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "reactor.yaml"

	// DefaultMode is the default runtime mode.
	DefaultMode = "development"

	// DefaultEnhancer is the default enhancer for new properties.
	DefaultEnhancer = "deep"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default log output format.
	DefaultLogFormat = "text"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "reactor"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "reactor"
)

// Config represents the complete reactor.yaml configuration.
type Config struct {
	// Mode is "development" or "production". Production skips misuse checks.
	Mode string `yaml:"mode,omitempty" validate:"oneof=development production" jsonschema:"enum=development,enum=production"`

	// Enhancer is the default enhancer for properties declared without one.
	Enhancer string `yaml:"enhancer,omitempty" validate:"oneof=deep shallow ref struct" jsonschema:"enum=deep,enum=shallow,enum=ref,enum=struct"`

	// MaxFlushIterations bounds reaction re-runs per outermost batch.
	MaxFlushIterations int `yaml:"maxFlushIterations,omitempty" validate:"gte=1,lte=10000" jsonschema:"minimum=1,maximum=10000"`

	// Logging contains log output configuration.
	Logging LoggingConfig `yaml:"logging,omitempty"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics,omitempty"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LoggingConfig contains log output settings.
type LoggingConfig struct {
	// Level is the minimum log level.
	Level string `yaml:"level,omitempty" validate:"oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`

	// Format is "text" or "json".
	Format string `yaml:"format,omitempty" validate:"oneof=text json" jsonschema:"enum=text,enum=json"`

	// Transactions logs transaction boundaries at debug level.
	Transactions bool `yaml:"transactions,omitempty"`

	// Reactions logs every reaction run at debug level.
	Reactions bool `yaml:"reactions,omitempty"`
}

// MetricsConfig contains metrics settings.
type MetricsConfig struct {
	// Enabled turns on the Prometheus spy.
	Enabled bool `yaml:"enabled,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `yaml:"namespace,omitempty" validate:"omitempty,alphanum"`
}

// TracingConfig contains tracing settings.
type TracingConfig struct {
	// Enabled turns on the OpenTelemetry spy.
	Enabled bool `yaml:"enabled,omitempty"`

	// Tracer is the tracer name.
	Tracer string `yaml:"tracer,omitempty"`

	// IncludeValues records property values on change events.
	IncludeValues bool `yaml:"includeValues,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Mode:               DefaultMode,
		Enhancer:           DefaultEnhancer,
		MaxFlushIterations: reactive.DefaultMaxFlushIterations,
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			Tracer: DefaultTracerName,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for reactor.yaml in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path. Unknown fields
// are rejected. An empty file yields the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("C001").
				WithDetail("No " + ConfigFileName + " found at " + path).
				WithSuggestion("Create the file or run without --config to use the defaults")
		}
		return nil, errors.New("C002").Wrap(err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.configPath = path
	return cfg, nil
}

// Parse decodes YAML configuration data on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := New()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.New("C002").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check the YAML syntax and field names; run 'reactor schema config' for the format")
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New("C002").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("C002").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = DefaultMode
	}
	if c.Enhancer == "" {
		c.Enhancer = DefaultEnhancer
	}
	if c.MaxFlushIterations == 0 {
		c.MaxFlushIterations = reactive.DefaultMaxFlushIterations
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.Tracer == "" {
		c.Tracing.Tracer = DefaultTracerName
	}
}

// validate is a package-level singleton; building a validator is expensive.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.New("C003").
			WithDetail(describeValidation(err)).
			WithSuggestion("Run 'reactor schema config' to see the allowed values")
	}
	return nil
}

// describeValidation turns validator errors into one line per field.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return err.Error()
	}
	lines := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			lines = append(lines, fmt.Sprintf("%s: %q fails %s=%s", field, fmt.Sprint(fe.Value()), fe.Tag(), fe.Param()))
		} else {
			lines = append(lines, fmt.Sprintf("%s: %q fails %s", field, fmt.Sprint(fe.Value()), fe.Tag()))
		}
	}
	return strings.Join(lines, "\n")
}

// Production reports whether the config selects production mode.
func (c *Config) Production() bool {
	return c.Mode == "production"
}

// Apply sets the reactive package switches from the config.
func (c *Config) Apply() {
	reactive.ProductionMode = c.Production()
	reactive.Debug = reactive.DebugConfig{
		LogTransactions: c.Logging.Transactions,
		LogReactions:    c.Logging.Reactions,
	}
}

// EnhancerFunc returns the enhancer named by Enhancer.
func (c *Config) EnhancerFunc() reactive.Enhancer {
	return EnhancerByName(c.Enhancer)
}

// EnhancerByName maps "deep", "shallow", "ref" and "struct" to enhancers.
// Unknown names select the deep enhancer.
func EnhancerByName(name string) reactive.Enhancer {
	switch name {
	case "ref":
		return reactive.ReferenceEnhancer
	case "shallow":
		return reactive.ShallowEnhancer
	case "struct":
		return reactive.StructEnhancer
	default:
		return reactive.DeepEnhancer
	}
}

// Logger builds a logger writing to w with the configured level and format.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch c.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Schema returns the JSON schema of the configuration file.
func Schema() ([]byte, error) {
	return GenerateSchema(&Config{})
}

// GenerateSchema reflects a JSON schema from v, naming fields after their
// yaml tags.
func GenerateSchema(v any) ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
		FieldNameTag:   "yaml",
	}
	schema := reflector.Reflect(v)

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the directory holding
// reactor.yaml.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("C001").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
