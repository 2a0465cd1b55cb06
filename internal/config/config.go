package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Brownie44l1/digit-api/internal/preprocess"
)

const ConfigFile = "digit_config.json"

// Config is fixed for the life of the process. Polarity and Filter in
// particular must match what the model was trained on.
type Config struct {
	Port string `json:"port"`

	// Local ONNX model.
	ModelPath         string `json:"model_path"`
	MetadataPath      string `json:"metadata_path"`
	SharedLibraryPath string `json:"ort_library_path"`

	// Remote scoring service; takes precedence over the local model.
	RemoteURL     string   `json:"remote_model_url"`
	RemoteTimeout Duration `json:"remote_timeout"`

	Polarity string `json:"stroke_polarity"`
	Filter   string `json:"resample_filter"`

	MaxUploadBytes int64  `json:"max_upload_bytes"`
	LogLevel       string `json:"log_level"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Port:           "8080",
		ModelPath:      "models/mnist.onnx",
		MetadataPath:   "models/mnist_metadata.json",
		RemoteTimeout:  Duration(5 * time.Second),
		Polarity:       string(preprocess.StrokeHigh),
		Filter:         string(preprocess.FilterArea),
		MaxUploadBytes: 10 << 20,
		LogLevel:       "info",
	}
}

// Load reads path on top of Default, then applies environment overrides.
// A missing file is not an error. An empty path means ConfigFile.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigFile
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, err
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	set := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set("PORT", &c.Port)
	set("MODEL_PATH", &c.ModelPath)
	set("METADATA_PATH", &c.MetadataPath)
	set("ORT_LIBRARY_PATH", &c.SharedLibraryPath)
	set("REMOTE_MODEL_URL", &c.RemoteURL)
	set("STROKE_POLARITY", &c.Polarity)
	set("RESAMPLE_FILTER", &c.Filter)
	set("LOG_LEVEL", &c.LogLevel)

	if v := getenv("REMOTE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("REMOTE_TIMEOUT: %w", err)
		}
		c.RemoteTimeout = Duration(d)
	}
	if v := getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
		c.MaxUploadBytes = n
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if _, err := preprocess.ParsePolarity(c.Polarity); err != nil {
		return err
	}
	if _, err := preprocess.ParseFilter(c.Filter); err != nil {
		return err
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}
	return nil
}

// Preprocess returns the pipeline settings.
func (c *Config) Preprocess() preprocess.Config {
	return preprocess.Config{
		Polarity: preprocess.Polarity(c.Polarity),
		Filter:   preprocess.Filter(c.Filter),
	}
}

// Duration reads a Go duration string such as "750ms" from JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"5s\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
