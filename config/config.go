package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
		MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	} `yaml:"http"`
	Log struct {
		Level      string `yaml:"level"`
		Format     string `yaml:"format"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
	ML struct {
		ModelType        string `yaml:"model_type"`
		ModelPath        string `yaml:"model_path"`
		MetadataPath     string `yaml:"metadata_path"`
		LibraryPath      string `yaml:"onnx_library_path"`
		StrictCategories bool   `yaml:"strict_categories"`
		WatchArtifact    bool   `yaml:"watch_artifact"`
		CacheSize        int    `yaml:"cache_size"`
	} `yaml:"ml"`
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	var c Config
	c.Http.Port = 7860
	c.Http.Timeout = 30 * time.Second
	c.Http.AllowedOrigins = []string{"*"}
	c.Http.MaxBodyBytes = 1 << 20
	c.Log.Level = "info"
	c.Log.Format = "console"
	c.Log.MaxSizeMB = 100
	c.Log.MaxBackups = 3
	c.Log.MaxAgeDays = 28
	c.ML.ModelPath = filepath.Join("model", "bank_term_deposit_model.json")
	c.ML.StrictCategories = true
	return &c
}

// Load reads a YAML file on top of Default. Relative model paths are resolved
// against the directory holding the file.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	config.ML.ModelPath = resolve(dir, config.ML.ModelPath)
	config.ML.MetadataPath = resolve(dir, config.ML.MetadataPath)
	config.Log.File = resolve(dir, config.Log.File)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Locate finds name in the working directory or its parent.
func Locate(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}
	parent := filepath.Join("..", name)
	if _, err := os.Stat(parent); err == nil {
		return parent, nil
	}
	return "", fmt.Errorf("config %s not found", name)
}

func (c *Config) Validate() error {
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.Http.Port)
	}
	if c.ML.ModelPath == "" {
		return fmt.Errorf("ml.model_path is required")
	}
	if c.ML.CacheSize < 0 {
		return fmt.Errorf("ml.cache_size must not be negative")
	}
	return nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
