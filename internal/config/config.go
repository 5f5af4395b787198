package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EmailConfig holds SMTP transport settings.
type EmailConfig struct {
	SMTPServer string
	SMTPPort   int
	Username   string
	Password   string
	FromName   string
}

// SMSConfig holds Twilio transport settings.
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// KafkaConfig holds the notify-intent topic settings.
type KafkaConfig struct {
	Broker  string
	Topic   string
	GroupID string
}

// Config holds application configuration loaded from environment.
type Config struct {
	DB struct {
		DSN string
	}
	Kafka KafkaConfig
	Email EmailConfig
	SMS   SMSConfig
	API   struct {
		Port     string
		BasePath string
	}
	Queue struct {
		BatchLimit int
		Interval   time.Duration
	}
	Reminder struct {
		Interval time.Duration
	}
	Logging struct {
		Dir   string
		Level string
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	// Database DSN
	cfg.DB.DSN = os.Getenv("DB_DSN")

	// Kafka settings
	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = os.Getenv("KAFKA_TOPIC")
	cfg.Kafka.GroupID = os.Getenv("KAFKA_GROUP_ID")

	// Email settings
	cfg.Email.SMTPServer = os.Getenv("EMAIL_SMTP_SERVER")
	if p, err := strconv.Atoi(os.Getenv("EMAIL_SMTP_PORT")); err == nil {
		cfg.Email.SMTPPort = p
	}
	cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	cfg.Email.FromName = os.Getenv("EMAIL_FROM_NAME")

	// SMS settings
	cfg.SMS.AccountSID = os.Getenv("SMS_ACCOUNT_SID")
	cfg.SMS.AuthToken = os.Getenv("SMS_AUTH_TOKEN")
	cfg.SMS.FromNumber = os.Getenv("SMS_FROM_NUMBER")

	// API settings
	cfg.API.Port = os.Getenv("API_PORT")
	cfg.API.BasePath = os.Getenv("API_BASE_PATH")

	// Queue and reminder settings
	if bl, err := strconv.Atoi(os.Getenv("QUEUE_BATCH_LIMIT")); err == nil {
		cfg.Queue.BatchLimit = bl
	}
	if d, err := time.ParseDuration(os.Getenv("QUEUE_INTERVAL")); err == nil {
		cfg.Queue.Interval = d
	}
	if d, err := time.ParseDuration(os.Getenv("REMINDER_INTERVAL")); err == nil {
		cfg.Reminder.Interval = d
	}

	// Logging settings
	cfg.Logging.Dir = os.Getenv("LOG_DIR")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")

	// Validate required settings
	missing := []string{}
	if cfg.DB.DSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}

	// Apply defaults
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.API.BasePath == "" {
		cfg.API.BasePath = "/api/v0"
	}
	if cfg.Queue.BatchLimit == 0 {
		cfg.Queue.BatchLimit = 20
	}
	if cfg.Queue.Interval == 0 {
		cfg.Queue.Interval = time.Minute
	}
	if cfg.Reminder.Interval == 0 {
		// Reminder eligibility is an exact-hour match, so running slower
		// than hourly skips bookings.
		cfg.Reminder.Interval = time.Hour
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return cfg, nil
}
