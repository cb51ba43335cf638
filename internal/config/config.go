package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Selection  SelectionConfig  `mapstructure:"selection"`
	Superpixel SuperpixelConfig `mapstructure:"superpixel"`
	Overlay    OverlayConfig    `mapstructure:"overlay"`
	Prediction PredictionConfig `mapstructure:"prediction"`
	Store      StoreConfig      `mapstructure:"store"`
	Output     OutputConfig     `mapstructure:"output"`
	Log        LogConfig        `mapstructure:"log"`
}

// SelectionConfig holds pen and contour settings
type SelectionConfig struct {
	BrushSize         int     `mapstructure:"brush_size"`
	CoverageThreshold int     `mapstructure:"coverage_threshold"`
	ContourLevel      float64 `mapstructure:"contour_level"`
}

// SuperpixelConfig holds configuration for the quick selection segmenter
type SuperpixelConfig struct {
	TargetCount int     `mapstructure:"target_count"`
	Compactness float64 `mapstructure:"compactness"`
	Iterations  int     `mapstructure:"iterations"`
}

// OverlayConfig is the highlight colour used for previews
type OverlayConfig struct {
	R uint8 `mapstructure:"r"`
	G uint8 `mapstructure:"g"`
	B uint8 `mapstructure:"b"`
	A uint8 `mapstructure:"a"`
}

// PredictionConfig selects the vision backend for object selection
type PredictionConfig struct {
	Backend     string        `mapstructure:"backend"`
	URL         string        `mapstructure:"url"`
	Model       string        `mapstructure:"model"`
	SendFormat  string        `mapstructure:"send_format"`
	SendSize    int           `mapstructure:"send_size"`
	SendQuality int           `mapstructure:"send_quality"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// StoreConfig holds the Redis record store settings
type StoreConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// OutputConfig holds configuration for overlay output
type OutputConfig struct {
	Format   string `mapstructure:"format"`
	Dir      string `mapstructure:"dir"`
	Quality  int    `mapstructure:"quality"`
	Lossless bool   `mapstructure:"lossless"`
}

// LogConfig selects the logger mode ("debug" or "release")
type LogConfig struct {
	Mode string `mapstructure:"mode"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Selection: SelectionConfig{
			BrushSize:         8,
			CoverageThreshold: 1,
			ContourLevel:      128,
		},
		Superpixel: SuperpixelConfig{
			TargetCount: 100,
			Compactness: 0.1,
			Iterations:  10,
		},
		Overlay: OverlayConfig{R: 0, G: 255, B: 0, A: 150},
		Prediction: PredictionConfig{
			Backend:     "ollama",
			URL:         "http://localhost:11434",
			Model:       "openbmb/minicpm-v4.5",
			SendFormat:  "jpg",
			SendSize:    1024,
			SendQuality: 85,
			Timeout:     5 * time.Minute,
		},
		Store: StoreConfig{
			Addr: "localhost:6379",
			DB:   0,
			TTL:  0,
		},
		Output: OutputConfig{
			Format:  "png",
			Dir:     "./output",
			Quality: 90,
		},
		Log: LogConfig{Mode: "debug"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("selection.brush_size", d.Selection.BrushSize)
	v.SetDefault("selection.coverage_threshold", d.Selection.CoverageThreshold)
	v.SetDefault("selection.contour_level", d.Selection.ContourLevel)

	v.SetDefault("superpixel.target_count", d.Superpixel.TargetCount)
	v.SetDefault("superpixel.compactness", d.Superpixel.Compactness)
	v.SetDefault("superpixel.iterations", d.Superpixel.Iterations)

	v.SetDefault("overlay.r", d.Overlay.R)
	v.SetDefault("overlay.g", d.Overlay.G)
	v.SetDefault("overlay.b", d.Overlay.B)
	v.SetDefault("overlay.a", d.Overlay.A)

	v.SetDefault("prediction.backend", d.Prediction.Backend)
	v.SetDefault("prediction.url", d.Prediction.URL)
	v.SetDefault("prediction.model", d.Prediction.Model)
	v.SetDefault("prediction.send_format", d.Prediction.SendFormat)
	v.SetDefault("prediction.send_size", d.Prediction.SendSize)
	v.SetDefault("prediction.send_quality", d.Prediction.SendQuality)
	v.SetDefault("prediction.timeout", d.Prediction.Timeout)

	v.SetDefault("store.addr", d.Store.Addr)
	v.SetDefault("store.password", d.Store.Password)
	v.SetDefault("store.db", d.Store.DB)
	v.SetDefault("store.ttl", d.Store.TTL)

	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.quality", d.Output.Quality)
	v.SetDefault("output.lossless", d.Output.Lossless)

	v.SetDefault("log.mode", d.Log.Mode)
}

// Load reads a YAML configuration file; keys it omits keep their defaults.
// ANNOTATOR_* environment variables override both.
func Load(filename string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filename)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("annotator")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads filename when it exists and falls back to Default.
func LoadOrDefault(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(filename)
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	c.apply(v)

	if err := v.WriteConfigAs(filename); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) apply(v *viper.Viper) {
	v.Set("selection.brush_size", c.Selection.BrushSize)
	v.Set("selection.coverage_threshold", c.Selection.CoverageThreshold)
	v.Set("selection.contour_level", c.Selection.ContourLevel)
	v.Set("superpixel.target_count", c.Superpixel.TargetCount)
	v.Set("superpixel.compactness", c.Superpixel.Compactness)
	v.Set("superpixel.iterations", c.Superpixel.Iterations)
	v.Set("overlay.r", c.Overlay.R)
	v.Set("overlay.g", c.Overlay.G)
	v.Set("overlay.b", c.Overlay.B)
	v.Set("overlay.a", c.Overlay.A)
	v.Set("prediction.backend", c.Prediction.Backend)
	v.Set("prediction.url", c.Prediction.URL)
	v.Set("prediction.model", c.Prediction.Model)
	v.Set("prediction.send_format", c.Prediction.SendFormat)
	v.Set("prediction.send_size", c.Prediction.SendSize)
	v.Set("prediction.send_quality", c.Prediction.SendQuality)
	v.Set("prediction.timeout", c.Prediction.Timeout.String())
	v.Set("store.addr", c.Store.Addr)
	v.Set("store.password", c.Store.Password)
	v.Set("store.db", c.Store.DB)
	v.Set("store.ttl", c.Store.TTL.String())
	v.Set("output.format", c.Output.Format)
	v.Set("output.dir", c.Output.Dir)
	v.Set("output.quality", c.Output.Quality)
	v.Set("output.lossless", c.Output.Lossless)
	v.Set("log.mode", c.Log.Mode)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Selection.BrushSize < 1 {
		return fmt.Errorf("selection.brush_size must be positive")
	}

	if c.Selection.CoverageThreshold < 0 || c.Selection.CoverageThreshold > 254 {
		return fmt.Errorf("selection.coverage_threshold must be between 0 and 254")
	}

	if c.Selection.ContourLevel <= 0 || c.Selection.ContourLevel >= 255 {
		return fmt.Errorf("selection.contour_level must be between 0 and 255 (exclusive)")
	}

	if c.Superpixel.TargetCount < 1 {
		return fmt.Errorf("superpixel.target_count must be positive")
	}

	if c.Superpixel.Compactness <= 0 {
		return fmt.Errorf("superpixel.compactness must be positive")
	}

	if c.Superpixel.Iterations < 1 {
		return fmt.Errorf("superpixel.iterations must be positive")
	}

	switch c.Prediction.Backend {
	case "ollama", "llamacpp":
	default:
		return fmt.Errorf("prediction.backend must be ollama or llamacpp, got %q", c.Prediction.Backend)
	}

	if c.Prediction.SendQuality < 1 || c.Prediction.SendQuality > 100 {
		return fmt.Errorf("prediction.send_quality must be between 1 and 100")
	}

	switch strings.ToLower(c.Output.Format) {
	case "png", "jpg", "jpeg", "webp":
	default:
		return fmt.Errorf("output.format must be png, jpg or webp, got %q", c.Output.Format)
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "image-annotator", "config.yaml")
}
