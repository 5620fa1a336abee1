package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the full server configuration. Secrets carry no envconfig
// tag and are loaded from secret files after the environment pass.
type Config struct {
	Port     string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// PostgreSQL
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`
	DBSSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns int    `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBPassword string

	// Redis
	RedisAddr     string        `envconfig:"REDIS_ADDR" required:"true"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"72h"`
	RedisPassword string

	// RabbitMQ
	RabbitMQURL            string `envconfig:"RABBITMQ_URL" required:"true"`
	ClientUpdatesQueueName string `envconfig:"CLIENT_UPDATES_QUEUE_NAME" default:"client_updates"`

	// Narrative AI
	AIClientType string        `envconfig:"AI_CLIENT_TYPE" default:"openai"`
	AIBaseURL    string        `envconfig:"AI_BASE_URL" default:""`
	AIModel      string        `envconfig:"AI_MODEL" default:"gpt-4o"`
	AITimeout    time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	AIAPIKey     string

	// Media generation
	MediaSavePath      string        `envconfig:"MEDIA_SAVE_PATH" default:"/data/media"`
	MediaPublicBaseURL string        `envconfig:"MEDIA_PUBLIC_BASE_URL" default:"/media"`
	MediaTimeout       time.Duration `envconfig:"MEDIA_TIMEOUT" default:"90s"`
	SpeechVoice        string        `envconfig:"SPEECH_VOICE" default:"alloy"`
	ImageStyleSuffix   string        `envconfig:"IMAGE_STYLE_SUFFIX" default:", dark fantasy illustration, dramatic lighting"`
	SceneImagesEnabled bool          `envconfig:"SCENE_IMAGES_ENABLED" default:"false"`

	// Gameplay
	NotificationTTL time.Duration `envconfig:"NOTIFICATION_TTL" default:"5s"`
	TerminalPhrases []string      `envconfig:"TERMINAL_PHRASES"`

	// CORS
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173"`
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig reads environment variables, then secrets.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	var loadErr error
	cfg.DBPassword, loadErr = readSecret("db_password")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.AIAPIKey, loadErr = readSecret("ai_api_key")
	if loadErr != nil {
		return nil, loadErr
	}

	// Redis auth is optional in local setups.
	cfg.RedisPassword, _ = readSecret("redis_password")

	return &cfg, nil
}

// readSecret reads a Docker secret file, falling back to the uppercased
// environment variable for runs outside Docker.
func readSecret(secretName string) (string, error) {
	filePath := fmt.Sprintf("/run/secrets/%s", secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err == nil {
		secret := strings.TrimSpace(string(secretBytes))
		if secret == "" {
			return "", fmt.Errorf("secret file %s is empty", filePath)
		}
		return secret, nil
	}

	if fromEnv := strings.TrimSpace(os.Getenv(strings.ToUpper(secretName))); fromEnv != "" {
		return fromEnv, nil
	}
	return "", fmt.Errorf("failed to read secret %s: no secret file and no env var", secretName)
}
