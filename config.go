package fitcoach

import "time"

// ModelConfig selects and tunes the assistant backing the specialists.
type ModelConfig struct {
	Provider       string  `env:"MODEL_PROVIDER,default=bedrock"` // bedrock, ollama or mock
	ModelID        string  `env:"MODEL_ID"`
	MaxTokens      int32   `env:"MAX_TOKENS,default=1024"`
	Temperature    float32 `env:"TEMPERATURE,default=0.2"`
	TopP           float32 `env:"TOP_P,default=0.9"`
	OllamaEndpoint string  `env:"BASE_OLLAMA_ENDPOINT,default=http://localhost:11434"`
}

type AgentConfig struct {
	MaxIterations        int           `env:"MAX_ITERATIONS,default=6"`
	HistoryLimit         int           `env:"HISTORY_LIMIT,default=3"`
	SafetyAlertThreshold float64       `env:"SAFETY_ALERT_THRESHOLD,default=0.8"`
	ConsultTimeout       time.Duration `env:"CONSULT_TIMEOUT,default=60s"`
}

// StoreConfig picks where user documents and chat history live.
type StoreConfig struct {
	Backend        string `env:"STORE_BACKEND,default=file"` // file, s3 or memory
	FileRoot       string `env:"STORE_FILE_ROOT,default=data"`
	S3Bucket       string `env:"STORE_S3_BUCKET"`
	S3Prefix       string `env:"STORE_S3_PREFIX,default=fitcoach"`
	HistoryBackend string `env:"HISTORY_BACKEND,default=store"` // store or postgres
	DatabaseURL    string `env:"DATABASE_URL"`
	MaxExchanges   int    `env:"HISTORY_MAX_EXCHANGES,default=50"`
}

type CacheConfig struct {
	Backend       string        `env:"CACHE_BACKEND,default=memory"` // memory, redis or none
	TTL           time.Duration `env:"CACHE_TTL,default=10m"`
	MaxEntries    int           `env:"CACHE_MAX_ENTRIES,default=1000"`
	RedisAddr     string        `env:"REDIS_ADDR,default=localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB,default=0"`
}

type ServerConfig struct {
	Addr            string        `env:"SERVER_ADDR,default=:8080"`
	JWTSecret       string        `env:"JWT_SECRET,required"`
	JWTIssuer       string        `env:"JWT_ISSUER,default=fitcoach"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT,default=10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT,default=120s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=15s"`
}

// SlackConfig enables safety alerts when WebhookURL is set.
type SlackConfig struct {
	WebhookURL string `env:"SLACK_WEBHOOK_URL"`
	Channel    string `env:"SLACK_CHANNEL,default=#coaching-alerts"`
}
