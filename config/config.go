package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"gopkg.in/yaml.v3"
)

// Settings holds every runtime knob. Precedence: defaults, then the YAML file
// named by CONFIG_FILE, then environment variables.
type Settings struct {
	Port     string `yaml:"port"`
	GinMode  string `yaml:"gin_mode"`
	LogLevel string `yaml:"log_level"`

	DatasetPath string `yaml:"dataset_path"`

	GoogleProject   string `yaml:"google_cloud_project"`
	GoogleLocation  string `yaml:"google_cloud_location"`
	GoogleAPIKey    string `yaml:"-"`
	CredentialsFile string `yaml:"google_application_credentials"`

	ChatModel       string  `yaml:"chat_model"`
	ChatTemperature float64 `yaml:"chat_temperature"`
	EmbeddingModel  string  `yaml:"embedding_model"`
	EmbedBatchSize  int     `yaml:"embed_batch_size"`
	EmbedWorkers    int     `yaml:"embed_concurrency"`

	RetrievalPolicy string  `yaml:"retrieval_policy"`
	RetrievalK      int     `yaml:"retrieval_k"`
	RetrievalFetchK int     `yaml:"retrieval_fetch_k"`
	RetrievalLambda float64 `yaml:"retrieval_lambda"`

	HistoryAware     bool   `yaml:"history_aware"`
	PromptsFile      string `yaml:"prompts_file"`
	DefaultSessionID string `yaml:"default_session_id"`

	CallTimeout    time.Duration `yaml:"call_timeout"`
	RetryAttempts  int           `yaml:"retry_attempts"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`

	PostgresURI   string        `yaml:"postgres_uri"`
	RedisAddr     string        `yaml:"redis_addr"`
	QueryCacheTTL time.Duration `yaml:"query_cache_ttl"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

func Defaults() Settings {
	return Settings{
		Port:               "8080",
		GinMode:            "release",
		LogLevel:           "info",
		DatasetPath:        "data/slife_imoveis.csv",
		GoogleLocation:     "us-central1",
		ChatModel:          "gemini-2.5-flash",
		ChatTemperature:    0.7,
		EmbeddingModel:     "text-embedding-004",
		EmbedBatchSize:     32,
		EmbedWorkers:       4,
		RetrievalPolicy:    "mmr",
		RetrievalK:         20,
		RetrievalFetchK:    100,
		RetrievalLambda:    0.6,
		HistoryAware:       true,
		DefaultSessionID:   "usuario_padrao",
		CallTimeout:        30 * time.Second,
		RetryAttempts:      3,
		RetryBaseDelay:     500 * time.Millisecond,
		QueryCacheTTL:      time.Hour,
		CORSAllowedOrigins: []string{"*"},
	}
}

// Load reads .env (if present), the optional YAML overlay and the environment.
// It does not validate; call Validate before building collaborators.
func Load() (*Settings, error) {
	_ = godotenv.Load()

	s := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &s); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	s.Port = getEnv("PORT", s.Port)
	s.GinMode = getEnv("GIN_MODE", s.GinMode)
	s.LogLevel = getEnv("LOG_LEVEL", s.LogLevel)
	s.DatasetPath = getEnv("DATASET_PATH", s.DatasetPath)

	s.GoogleProject = getEnv("GOOGLE_CLOUD_PROJECT", s.GoogleProject)
	s.GoogleLocation = getEnv("GOOGLE_CLOUD_LOCATION", s.GoogleLocation)
	s.GoogleAPIKey = getEnv("GOOGLE_API_KEY", s.GoogleAPIKey)
	s.CredentialsFile = getEnv("GOOGLE_APPLICATION_CREDENTIALS", s.CredentialsFile)

	s.ChatModel = getEnv("CHAT_MODEL", s.ChatModel)
	s.ChatTemperature = getEnvFloat("CHAT_TEMPERATURE", s.ChatTemperature)
	s.EmbeddingModel = getEnv("EMBEDDING_MODEL", s.EmbeddingModel)
	s.EmbedBatchSize = getEnvInt("EMBED_BATCH_SIZE", s.EmbedBatchSize)
	s.EmbedWorkers = getEnvInt("EMBED_CONCURRENCY", s.EmbedWorkers)

	s.RetrievalPolicy = getEnv("RETRIEVAL_POLICY", s.RetrievalPolicy)
	s.RetrievalK = getEnvInt("RETRIEVAL_K", s.RetrievalK)
	s.RetrievalFetchK = getEnvInt("RETRIEVAL_FETCH_K", s.RetrievalFetchK)
	s.RetrievalLambda = getEnvFloat("RETRIEVAL_LAMBDA", s.RetrievalLambda)

	s.HistoryAware = getEnvBool("HISTORY_AWARE", s.HistoryAware)
	s.PromptsFile = getEnv("PROMPTS_FILE", s.PromptsFile)
	s.DefaultSessionID = getEnv("DEFAULT_SESSION_ID", s.DefaultSessionID)

	s.CallTimeout = getEnvDuration("CALL_TIMEOUT", s.CallTimeout)
	s.RetryAttempts = getEnvInt("RETRY_ATTEMPTS", s.RetryAttempts)
	s.RetryBaseDelay = getEnvDuration("RETRY_BASE_DELAY", s.RetryBaseDelay)

	s.PostgresURI = getEnv("POSTGRES_URI", s.PostgresURI)
	s.RedisAddr = getEnv("REDIS_ADDR", getEnv("REDIS_URI", getEnv("REDIS_URL", s.RedisAddr)))
	s.QueryCacheTTL = getEnvDuration("QUERY_CACHE_TTL", s.QueryCacheTTL)

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		s.CORSAllowedOrigins = splitList(v)
	}
	return &s, nil
}

// Validate reports startup-fatal configuration problems.
func (s *Settings) Validate() error {
	var errs []error
	if s.GoogleProject == "" {
		errs = append(errs, errors.New("GOOGLE_CLOUD_PROJECT is not set"))
	}
	if s.GoogleProject != "" && s.CredentialsFile == "" {
		if _, err := findDefaultCredentials(context.Background(), cloudPlatformScope); err != nil {
			msg := "no credential: set GOOGLE_APPLICATION_CREDENTIALS or configure application default credentials"
			if s.GoogleAPIKey != "" {
				msg = "no credential: GOOGLE_API_KEY is not accepted by Vertex AI endpoints; set GOOGLE_APPLICATION_CREDENTIALS or configure application default credentials"
			}
			errs = append(errs, fmt.Errorf("%s: %w", msg, err))
		}
	}
	if s.DatasetPath == "" {
		errs = append(errs, errors.New("DATASET_PATH is empty"))
	}
	switch strings.ToLower(s.RetrievalPolicy) {
	case "mmr", "similarity":
	default:
		errs = append(errs, fmt.Errorf("RETRIEVAL_POLICY %q is not mmr or similarity", s.RetrievalPolicy))
	}
	if s.RetrievalK < 1 {
		errs = append(errs, fmt.Errorf("RETRIEVAL_K must be >= 1, got %d", s.RetrievalK))
	}
	if strings.EqualFold(s.RetrievalPolicy, "mmr") && s.RetrievalFetchK < s.RetrievalK {
		errs = append(errs, fmt.Errorf("RETRIEVAL_FETCH_K (%d) must be >= RETRIEVAL_K (%d)", s.RetrievalFetchK, s.RetrievalK))
	}
	if s.RetrievalLambda < 0 || s.RetrievalLambda > 1 {
		errs = append(errs, fmt.Errorf("RETRIEVAL_LAMBDA must be within [0,1], got %v", s.RetrievalLambda))
	}
	if s.CredentialsFile != "" {
		if _, err := os.Stat(s.CredentialsFile); err != nil {
			errs = append(errs, fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS: %w", err))
		}
	}
	return errors.Join(errs...)
}

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

var findDefaultCredentials = google.FindDefaultCredentials

// ClientOptions returns the credential options for Google clients. Without a
// credentials file the clients fall back to application default credentials.
func (s *Settings) ClientOptions() []option.ClientOption {
	if s.CredentialsFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(s.CredentialsFile)}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
