package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// App is the application configuration structure. It is built once in Setup
// and passed explicitly to every component that needs it; nothing reads
// configuration from package-level state.
type (
	App struct {
		Database DatabaseConfig
		Kafka    KafkaConfig
		Telegram TelegramConfig
		FCM      FCMConfig
		Queue    QueueConfig
		Web      WebConfig
		Runtime  *Runtime
	}

	KafkaConfig struct {
		Brokers []string
		GroupID string
	}

	TelegramConfig struct {
		Token    string
		AdminIDs []int64
	}

	FCMConfig struct {
		Enabled         bool
		CredentialsPath string
	}

	QueueConfig struct {
		BatchSize   int
		MaxAttempts int
		MaxDepth    int64 // 0 = no admission limit
		IdleDelay   time.Duration
		BatchDelay  time.Duration
	}

	WebConfig struct {
		Port   string
		APIKey string
	}
)

func Setup() *App {

	if err := godotenv.Load(".env"); err != nil {
		fmt.Println("Error loading .env file:", err)
	}

	app := &App{
		Database: DatabaseConfig{
			Driver:   os.Getenv("DB_DRIVER"),
			Host:     os.Getenv("DB_HOST"),
			Username: os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
			Port:     getEnvAsInt("DB_PORT", 3306),
			Debug:    os.Getenv("DB_DEBUG") == "true",
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(os.Getenv("KAFKA_BROKERS"), ","),
			GroupID: os.Getenv("KAFKA_GROUP_ID"),
		},
		Telegram: TelegramConfig{
			Token:    os.Getenv("TELEGRAM_TOKEN"),
			AdminIDs: getEnvAsInt64List("ADMIN_IDS"),
		},
		FCM: FCMConfig{
			Enabled:         os.Getenv("FCM_ENABLED") == "true",
			CredentialsPath: os.Getenv("FCM_CREDENTIALS"),
		},
		Queue: QueueConfig{
			BatchSize:   getEnvAsInt("QUEUE_BATCH_SIZE", 5),
			MaxAttempts: getEnvAsInt("QUEUE_MAX_ATTEMPTS", 5),
			MaxDepth:    int64(getEnvAsInt("QUEUE_MAX_DEPTH", 0)),
			IdleDelay:   time.Duration(getEnvAsInt("QUEUE_IDLE_DELAY_SEC", 120)) * time.Second,
			BatchDelay:  time.Duration(getEnvAsInt("QUEUE_BATCH_DELAY_SEC", 1)) * time.Second,
		},
		Web: WebConfig{
			Port:   os.Getenv("WEB_PORT"),
			APIKey: os.Getenv("API_KEY"),
		},
		Runtime: NewRuntime(),
	}

	app.Database.Setup()

	return app
}

// Helper convert env -> int
func getEnvAsInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// Helper convert comma-separated env -> []int64, skipping malformed entries
func getEnvAsInt64List(key string) []int64 {
	var out []int64
	for _, part := range strings.Split(os.Getenv(key), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}
