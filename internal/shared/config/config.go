package config

import (
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar points at an explicit YAML config file.
const ConfigPathEnvVar = "VR_CONFIG"

const envPrefix = "VR_"

// Config holds application configuration.
type Config struct {
	Env          string             `koanf:"env"`
	Server       ServerConfig       `koanf:"server"`
	Database     DatabaseConfig     `koanf:"database"`
	Data         DataConfig         `koanf:"data"`
	Storage      StorageConfig      `koanf:"storage"`
	Index        IndexConfig        `koanf:"index"`
	Embedding    EmbeddingConfig    `koanf:"embedding"`
	LLM          LLMConfig          `koanf:"llm"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
	Synthesis    SynthesisConfig    `koanf:"synthesis"`
	Queue        QueueConfig        `koanf:"queue"`
	Log          LogConfig          `koanf:"log"`
}

type ServerConfig struct {
	Port             string   `koanf:"port"`
	CORSAllowOrigins []string `koanf:"cors_allow_origins"`
	RateLimitRPS     float64  `koanf:"rate_limit_rps"`
	RateLimitBurst   int      `koanf:"rate_limit_burst"`
}

type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// DataConfig locates reference data used when no database is configured.
type DataConfig struct {
	Dir            string `koanf:"dir"`
	EventsFile     string `koanf:"events_file"`
	ClientsFile    string `koanf:"clients_file"`
	VenuesFile     string `koanf:"venues_file"`
	RequestsFile   string `koanf:"requests_file"`
	IndexBatchSize int    `koanf:"index_batch_size"`
	IndexOnStartup bool   `koanf:"index_on_startup"`
}

// StorageConfig selects where datasets are read from. Local paths are always
// readable; Type "s3" additionally enables s3:// keys and bucket-relative names.
type StorageConfig struct {
	Type      string `koanf:"type"`
	AWSRegion string `koanf:"aws_region"`
	S3Bucket  string `koanf:"s3_bucket"`
	S3Prefix  string `koanf:"s3_prefix"`
}

type IndexConfig struct {
	Backend        string        `koanf:"backend"`
	Address        string        `koanf:"address"`
	Username       string        `koanf:"username"`
	Password       string        `koanf:"password"`
	Collection     string        `koanf:"collection"`
	Dimension      int           `koanf:"dimension"`
	M              int           `koanf:"m"`
	EfConstruction int           `koanf:"ef_construction"`
	EfSearch       int           `koanf:"ef_search"`
	TopK           int           `koanf:"top_k"`
	Timeout        time.Duration `koanf:"timeout"`
}

type EmbeddingConfig struct {
	Provider  string        `koanf:"provider"`
	Model     string        `koanf:"model"`
	APIKey    string        `koanf:"api_key"`
	BaseURL   string        `koanf:"base_url"`
	CacheDir  string        `koanf:"cache_dir"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`
	BatchSize int           `koanf:"batch_size"`
}

type LLMConfig struct {
	Provider            string        `koanf:"provider"`
	Model               string        `koanf:"model"`
	APIKey              string        `koanf:"api_key"`
	BaseURL             string        `koanf:"base_url"`
	Timeout             time.Duration `koanf:"timeout"`
	RequestsPerSec      float64       `koanf:"requests_per_sec"`
	Burst               int           `koanf:"burst"`
	MaxContextTokens    int           `koanf:"max_context_tokens"`
	BreakerFailures     uint32        `koanf:"breaker_failures"`
	BreakerCooldown     time.Duration `koanf:"breaker_cooldown"`
	NoTemperatureModels []string      `koanf:"no_temperature_models"`
	OAuth               OAuthConfig   `koanf:"oauth"`
}

// OAuthConfig enables client-credentials auth in front of an OpenAI-compatible gateway.
type OAuthConfig struct {
	TokenURL     string   `koanf:"token_url"`
	ClientID     string   `koanf:"client_id"`
	ClientSecret string   `koanf:"client_secret"`
	Scopes       []string `koanf:"scopes"`
}

type OrchestratorConfig struct {
	MaxAttempts  int           `koanf:"max_attempts"`
	InitialDelay time.Duration `koanf:"initial_delay"`
	MaxDelay     time.Duration `koanf:"max_delay"`
	Timeout      time.Duration `koanf:"timeout"`
}

type SynthesisConfig struct {
	CapacityWeight float64 `koanf:"capacity_weight"`
	LocationWeight float64 `koanf:"location_weight"`
	CostWeight     float64 `koanf:"cost_weight"`
	AmenityWeight  float64 `koanf:"amenity_weight"`
}

type QueueConfig struct {
	SQSQueueURL        string `koanf:"sqs_queue_url"`
	AWSRegion          string `koanf:"aws_region"`
	VisibilitySeconds  int    `koanf:"visibility_seconds"`
	WorkerConcurrency  int    `koanf:"worker_concurrency"`
	ShutdownTimeoutSec int    `koanf:"shutdown_timeout_seconds"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Env: "dev",
		Server: ServerConfig{
			Port:             "8080",
			CORSAllowOrigins: []string{"http://localhost:5173"},
			RateLimitRPS:     5,
			RateLimitBurst:   20,
		},
		Data: DataConfig{
			Dir:            "./data",
			EventsFile:     "events_history.json",
			ClientsFile:    "client_profiles.json",
			VenuesFile:     "venue_profiles.json",
			RequestsFile:   "current_requests.json",
			IndexBatchSize: 64,
		},
		Storage: StorageConfig{
			Type: "local",
		},
		Index: IndexConfig{
			Backend:        "memory",
			Address:        "localhost:19530",
			Collection:     "venue_event_history",
			Dimension:      1536,
			M:              48,
			EfConstruction: 256,
			EfSearch:       64,
			TopK:           10,
			Timeout:        10 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			CacheTTL:  30 * 24 * time.Hour,
			BatchSize: 64,
		},
		LLM: LLMConfig{
			Provider:         "openai",
			Model:            "gpt-4o-mini",
			Timeout:          60 * time.Second,
			RequestsPerSec:   8,
			Burst:            4,
			MaxContextTokens: 0,
			BreakerFailures:  5,
			BreakerCooldown:  30 * time.Second,
		},
		Orchestrator: OrchestratorConfig{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Timeout:      30 * time.Second,
		},
		Synthesis: SynthesisConfig{
			CapacityWeight: 0.35,
			LocationWeight: 0.30,
			CostWeight:     0.175,
			AmenityWeight:  0.175,
		},
		Queue: QueueConfig{
			AWSRegion:          "us-east-1",
			VisibilitySeconds:  1200,
			WorkerConcurrency:  4,
			ShutdownTimeoutSec: 30,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load layers defaults, optional YAML files and VR_* environment variables.
// Nested keys use a double underscore: VR_INDEX__BACKEND -> index.backend.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	for _, path := range configFiles() {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	applyLegacyEnv(&cfg)
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.Storage.Type = normalizeStoreType(cfg.Storage.Type)
	cfg.Index.Backend = strings.ToLower(strings.TrimSpace(cfg.Index.Backend))

	if cfg.Env == "production" && cfg.Database.URL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

// configFiles returns the YAML files to layer, lowest precedence first.
func configFiles() []string {
	if explicit := strings.TrimSpace(os.Getenv(ConfigPathEnvVar)); explicit != "" {
		return []string{explicit}
	}
	var out []string
	for _, dir := range []string{"/etc/venue-recommender", "./config"} {
		for _, name := range []string{"config-default.yml", "config.yml", "secrets.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				out = append(out, path)
			}
		}
	}
	return out
}

// applyLegacyEnv honors the conventional unprefixed variables.
func applyLegacyEnv(cfg *Config) {
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}
	if v := os.Getenv("PORT"); v != "" && os.Getenv("VR_SERVER__PORT") == "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("CORS_ALLOW_ORIGINS"); v != "" {
		cfg.Server.CORSAllowOrigins = splitAndTrim(v)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if v := os.Getenv("LLM_NO_TEMP0_MODELS"); v != "" && len(cfg.LLM.NoTemperatureModels) == 0 {
		cfg.LLM.NoTemperatureModels = splitAndTrim(v)
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = cfg.LLM.APIKey
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = cfg.LLM.BaseURL
	}
	if cfg.Queue.SQSQueueURL == "" {
		cfg.Queue.SQSQueueURL = os.Getenv("VR_SQS_QUEUE_URL")
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = os.Getenv("AWS_REGION")
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

// IsDevLike reports whether missing infrastructure may fall back to in-process substitutes.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

// DataPath resolves a dataset name to a storage key: relative names live
// under the data directory, or under the bucket prefix when S3 is the store.
func (c Config) DataPath(name string) string {
	if name == "" || filepath.IsAbs(name) || strings.Contains(name, "://") {
		return name
	}
	if c.Storage.Type == "s3" && c.Storage.S3Bucket != "" {
		return "s3://" + c.Storage.S3Bucket + "/" + path.Join(strings.Trim(c.Storage.S3Prefix, "/"), name)
	}
	return filepath.Join(c.Data.Dir, name)
}
