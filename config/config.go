package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	Database   DatabaseConfig
	JWT        JWTConfig
	Classifier ClassifierConfig
	MQBackend  string
	RabbitMQ   RabbitMQConfig
	PubSub     PubSubConfig
	Archive    string
	Minio      MinioConfig
	GCS        GCSConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// JWTConfig holds the token signing secret and lifetime. The secret is
// process-wide; rotating it invalidates every previously issued token.
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// ClassifierConfig points at the external food/trash model server.
type ClassifierConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "ecoforge"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "ecoforge_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		Database:   dbConfig,
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			TTL:    getEnvDuration("JWT_TTL", 24*time.Hour),
		},
		Classifier: ClassifierConfig{
			BaseURL: getEnv("CLASSIFIER_URL", "http://localhost:5001"),
			Timeout: getEnvDuration("CLASSIFIER_TIMEOUT", 10*time.Second),
		},
		MQBackend: getEnv("MQ_BACKEND", ""),
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
			PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH_COUNT", 8),
		},
		PubSub: PubSubConfig{
			ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
		},
		Archive: getEnv("ARCHIVE_BACKEND", ""),
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "ecoforge-images"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			Bucket:          getEnv("GCS_BUCKET", ""),
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		return valueStr == "true" || valueStr == "1"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
