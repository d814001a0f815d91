package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Settings is the environment surface. Everything tunable per deployment lives
// here; fixed behavioural constants stay in environmentVariables.go.
type Settings struct {
	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8000"`

	CompletionAPIURL string `envconfig:"COMPLETION_API_URL" default:"https://router.huggingface.co/novita/v3/openai/chat/completions"`
	HuggingFaceToken string `envconfig:"HUGGINGFACE_TOKEN"`
	CompletionModel  string `envconfig:"COMPLETION_MODEL" default:"deepseek/deepseek-v3-0324"`

	EmbeddingProvider    string `envconfig:"EMBEDDING_PROVIDER" default:"openai"`
	OpenAIAPIKey         string `envconfig:"OPENAI_API_KEY"`
	OpenAIEmbeddingModel string `envconfig:"OPENAI_EMBEDDING_MODEL" default:"text-embedding-3-small"`
	GoogleAPIKey         string `envconfig:"GOOGLE_API_KEY"`
	GoogleEmbeddingModel string `envconfig:"GOOGLE_EMBEDDING_MODEL" default:"gemini-embedding-001"`

	VectorBackend string `envconfig:"VECTOR_BACKEND" default:"memory"`
	QdrantHost    string `envconfig:"QDRANT_HOST" default:"127.0.0.1"`
	QdrantPort    int    `envconfig:"QDRANT_PORT" default:"6334"`

	DatabaseURL string `envconfig:"DATABASE_URL" default:"chat.db"`
	RedisAddr   string `envconfig:"REDIS_ADDR"`

	AuthToken     string `envconfig:"AUTH_TOKEN" default:"supersecretkey"`
	DefaultUserID string `envconfig:"DEFAULT_USER_ID" default:"00000000-0000-0000-0000-000000000001"`

	AllowedExtensions string `envconfig:"ALLOWED_EXTENSIONS" default:"pdf"`
}

func Load() (Settings, error) {
	var s Settings
	err := envconfig.Process("", &s)
	return s, err
}
