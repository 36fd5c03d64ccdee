package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	llmclient "storyboarder/internal/llmClient"
	"storyboarder/internal/types"
)

type Config struct {
	Port string `validate:"required"`
	Env  string `validate:"required"`
	// GeminiAPIKey empty means the deterministic fake generator is used.
	GeminiAPIKey    string
	SessionStoreDSN string
	Artifact        ArtifactConfig
	Pipeline        PipelineConfig
}

type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string `validate:"required_if=Enabled true"`
	Region    string
	AccessKey string `validate:"required_if=Enabled true"`
	SecretKey string `validate:"required_if=Enabled true"`
	Bucket    string `validate:"required_if=Enabled true"`
	UseSSL    bool
}

// PipelineConfig is read from the YAML file named by STORYBOARD_CONFIG.
// Absent keys keep their defaults.
type PipelineConfig struct {
	TextModel         string `yaml:"text_model" validate:"required"`
	ImageModel        string `yaml:"image_model" validate:"required"`
	RequestsPerMinute int    `yaml:"requests_per_minute" validate:"min=0"`
	ImagesPerMinute   int    `yaml:"images_per_minute" validate:"min=0"`
	Burst             int    `yaml:"burst" validate:"min=0"`
	// Concurrency caps calls in flight per fan-out batch; 0 is unbounded.
	Concurrency      int         `yaml:"concurrency" validate:"min=0,max=64"`
	SessionCacheSize int         `yaml:"session_cache_size" validate:"min=1"`
	ProductContext   string      `yaml:"product_context"`
	Brief            types.Brief `yaml:"brief" validate:"-"`
}

func DefaultPipeline() PipelineConfig {
	return PipelineConfig{
		TextModel:         llmclient.DefaultTextModel,
		ImageModel:        llmclient.DefaultImageModel,
		RequestsPerMinute: 60,
		ImagesPerMinute:   10,
		Burst:             4,
		SessionCacheSize:  256,
		Brief:             types.DefaultBrief(),
	}
}

// Load reads .env, the process environment and the optional pipeline file.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(os.Getenv)
}

// LoadFrom builds the config from getenv.
func LoadFrom(getenv func(string) string) (*Config, error) {
	env := strings.TrimSpace(getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}
	port := strings.TrimSpace(getenv("PORT"))
	if port == "" {
		port = ":8081"
	} else if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	pipeline, err := LoadPipeline(strings.TrimSpace(getenv("STORYBOARD_CONFIG")))
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		Port:            port,
		Env:             env,
		GeminiAPIKey:    strings.TrimSpace(getenv("GEMINI_API_KEY")),
		SessionStoreDSN: strings.TrimSpace(getenv("SESSION_STORE_PG_DSN")),
		Artifact:        loadArtifactConfig(env, getenv),
		Pipeline:        pipeline,
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadPipeline reads path over the defaults. An empty path returns the
// defaults.
func LoadPipeline(path string) (PipelineConfig, error) {
	cfg := DefaultPipeline()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading pipeline config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing pipeline config: %w", err)
	}
	cfg.Brief = cfg.Brief.Clamped()
	return cfg, nil
}

func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if !cfg.Pipeline.Brief.AspectRatio.Valid() {
		return fmt.Errorf("config validation failed: brief aspect_ratio %q", cfg.Pipeline.Brief.AspectRatio)
	}
	return nil
}

func loadArtifactConfig(env string, getenv func(string) string) ArtifactConfig {
	endpoint := resolveArtifactEndpoint(env, getenv)
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(getenv("ARTIFACT_S3_BUCKET")), "storyboard-images"),
		UseSSL:    resolveArtifactUseSSL(env, getenv),
	}
}

func resolveArtifactEndpoint(env string, getenv func(string) string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(getenv("ARTIFACT_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(getenv("ARTIFACT_S3_ENDPOINT"))
}

func resolveArtifactUseSSL(env string, getenv func(string) string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(getenv("ARTIFACT_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
