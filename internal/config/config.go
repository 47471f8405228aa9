package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env        string
	MongoURI   string
	MongoDB    string
	ServerAddr string

	FrontendOrigin string

	JWTSecret        string
	AccessTTLMinutes int

	RedisURL        string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CacheTTLSeconds int

	KafkaBrokers  []string
	KafkaTopic    string
	KafkaGroupID  string
	KafkaDLQTopic string

	MailgunAPIKey string
	MailgunDomain string
	MailgunSender string

	StripeSecretKey string

	RateLimitBookings  int
	RateLimitUsers     int
	RateLimitWindowSec int
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func Load() (*Config, error) {
	loadDotEnv(".env")

	mongoURI := getEnv("MONGO_URI", "mongodb://localhost:27017/doctorsPortal")
	mongoDB := getEnv("MONGO_DB", "")
	if mongoDB == "" {
		mongoDB = mongoDBFromURI(mongoURI)
	}
	if mongoDB == "" {
		mongoDB = "doctorsPortal"
	}

	kafkaTopic := getEnv("KAFKA_TOPIC", "booking-confirmations")

	cfg := &Config{
		Env:        getEnv("APP_ENV", "development"),
		MongoURI:   mongoURI,
		MongoDB:    mongoDB,
		ServerAddr: getEnv("SERVER_ADDR", ":5000"),

		FrontendOrigin: getEnv("FRONTEND_ORIGIN", "http://localhost:3000"),

		JWTSecret:        getEnv("ACCESS_TOKEN_SECRET", ""),
		AccessTTLMinutes: getEnvInt("ACCESS_TTL_MINUTES", 60),

		RedisURL:        getEnv("REDIS_URL", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		CacheTTLSeconds: getEnvInt("CACHE_TTL_SECONDS", 300),

		KafkaBrokers:  getEnvList("KAFKA_BROKERS"),
		KafkaTopic:    kafkaTopic,
		KafkaGroupID:  getEnv("KAFKA_GROUP_ID", "doctors-portal-notify"),
		KafkaDLQTopic: getEnv("KAFKA_DLQ_TOPIC", kafkaTopic+".dlq"),

		MailgunAPIKey: getEnv("SEND_MAIL_KEY", ""),
		MailgunDomain: getEnv("SEND_MAIL_DOMAIN", ""),
		MailgunSender: getEnv("SEND_MAIL_SENDER", ""),

		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),

		RateLimitBookings:  getEnvInt("RATE_LIMIT_BOOKINGS", 10),
		RateLimitUsers:     getEnvInt("RATE_LIMIT_USERS", 5),
		RateLimitWindowSec: getEnvInt("RATE_LIMIT_WINDOW_SEC", 60),
	}

	return cfg, nil
}

func mongoDBFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	db := strings.Trim(u.Path, "/")
	if db == "" {
		return ""
	}
	if idx := strings.Index(db, "/"); idx >= 0 {
		db = db[:idx]
	}
	return db
}

func loadDotEnv(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, val)
	}
}
