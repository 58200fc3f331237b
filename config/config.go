package config

import (
	"os"
	"strconv"
	"time"
)

const defaultSystemPrompt = "You are a helpful, logical assistant. " +
	"Always answer directly and concisely. " +
	"If a question is complex, break it down step-by-step before concluding."

type Config struct {
	HttpPort     string
	AllowOrigins string

	// S3/MinIO
	BucketEndpoint  string
	BucketAccessID  string
	BucketAccessKey string
	BucketName      string
	BucketRegion    string
	UseSSL          bool   // MinIO: false, S3: true
	StorageType     string //"minio" or "s3"

	// Redis
	RedisURL      string
	RedisPassword string

	// Postgres
	Host     string
	User     string
	Password string
	DBName   string
	Port     string

	// grpc
	GrpcHealthPort string

	// oracle
	LLMProvider   string // "openai" or "gemini"
	LLMBaseURL    string // OpenAI-compatible endpoint, e.g. a llama.cpp server
	LLMModel      string
	OpenAIAPIKey  string
	GeminiAPIKey  string
	SystemPrompt  string
	ContextTokens int
	AnswerTokens  int
	LLMTimeout    time.Duration
	JudgeCacheTTL time.Duration

	// search
	BeamWidth    int
	MaxDepth     int
	MaxRetries   int
	RootValue    float64
	SlotAttempts int

	// others
	TranscriptCacheTTL time.Duration
	WorkerIdleWait     time.Duration
	WorkerConcurrency  int
	ArchiveURLTTL      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		HttpPort:           getEnv("PORT", "3000"),
		AllowOrigins:       getEnv("ALLOWORIGINS", "*"),
		BucketEndpoint:     os.Getenv("BUCKET_ENDPOINT"),
		BucketAccessID:     os.Getenv("BUCKET_ACCESS_ID"),
		BucketAccessKey:    os.Getenv("BUCKET_ACCESS_KEY"),
		BucketName:         getEnv("BUCKET_NAME", "reasoning-transcripts"),
		BucketRegion:       os.Getenv("BUCKET_REGION"),
		UseSSL:             os.Getenv("BUCKET_USE_SSL") == "true",
		StorageType:        os.Getenv("STORAGE_TYPE"),
		RedisURL:           os.Getenv("REDIS_URL"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		Host:               os.Getenv("PG_HOST"),
		User:               os.Getenv("PG_USER"),
		Password:           os.Getenv("PG_PASSWORD"),
		DBName:             os.Getenv("PG_DB"),
		Port:               getEnv("PG_PORT", "5432"),
		GrpcHealthPort:     os.Getenv("GRPC_HEALTH_PORT"),
		LLMProvider:        getEnv("LLM_PROVIDER", "openai"),
		LLMBaseURL:         os.Getenv("LLM_BASE_URL"),
		LLMModel:           getEnv("LLM_MODEL", "gpt-4o-mini"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		SystemPrompt:       getEnv("SYSTEM_PROMPT", defaultSystemPrompt),
		ContextTokens:      getEnvInt("LLM_CONTEXT_TOKENS", 4096),
		AnswerTokens:       getEnvInt("LLM_ANSWER_TOKENS", 500),
		LLMTimeout:         getEnvDuration("LLM_TIMEOUT", 2*time.Minute),
		JudgeCacheTTL:      getEnvDuration("JUDGE_CACHE_TTL", 30*time.Minute),
		BeamWidth:          getEnvInt("BEAM_WIDTH", 3),
		MaxDepth:           getEnvInt("MAX_DEPTH", 10),
		MaxRetries:         getEnvInt("MAX_RETRIES", 2),
		RootValue:          getEnvFloat("ROOT_VALUE", 1),
		SlotAttempts:       getEnvInt("SLOT_ATTEMPTS", 3),
		TranscriptCacheTTL: getEnvDuration("TRANSCRIPT_CACHE_TTL", 2*time.Hour),
		WorkerIdleWait:     getEnvDuration("WORKER_IDLE_WAIT", 5*time.Second),
		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", 2),
		ArchiveURLTTL:      getEnvDuration("ARCHIVE_URL_TTL", 15*time.Minute),
	}
}

// APIKeyFor returns the server-side key for provider.
func (c *Config) APIKeyFor(provider string) string {
	switch provider {
	case "gemini":
		return c.GeminiAPIKey
	default:
		return c.OpenAIAPIKey
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
