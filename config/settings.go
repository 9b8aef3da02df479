package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Settings is everything the server reads from the environment.
type Settings struct {
	Port        string
	Env         string
	StoreDriver string
	MongoURI    string
	DBName      string
	JWTSecret   string
	ClientURL   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	FirebaseCredentialsBase64 string
	FirebaseCredentialsFile   string
	FirebaseProjectID         string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	KafkaBrokers        []string
	KafkaLifecycleTopic string

	AutoStartDelay    time.Duration
	MatchRadiusMeters float64
}

// Load reads .env when present, then the environment.
func Load() Settings {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	s := Settings{
		Port:        getenv("PORT", "8080"),
		Env:         getenv("ENV", "development"),
		StoreDriver: strings.ToLower(getenv("STORE_DRIVER", DriverMongo)),
		MongoURI:    os.Getenv("MONGO_URI"),
		DBName:      getenv("DB_NAME", "homeservices"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		ClientURL:   os.Getenv("CLIENT_URL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		FirebaseCredentialsBase64: os.Getenv("FIREBASE_CREDENTIALS_BASE64"),
		FirebaseCredentialsFile:   os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		FirebaseProjectID:         os.Getenv("FIREBASE_PROJECT_ID"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: getInt("SMTP_PORT", 2525),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: os.Getenv("SMTP_FROM"),

		KafkaBrokers:        splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaLifecycleTopic: getenv("KAFKA_LIFECYCLE_TOPIC", "service-request-lifecycle"),

		AutoStartDelay:    getDuration("AUTO_START_DELAY", 2*time.Minute),
		MatchRadiusMeters: getFloat("MATCH_RADIUS_METERS", 5000),
	}
	if s.MongoURI == "" {
		s.MongoURI = os.Getenv("MONGODB_URI")
	}
	return s
}

func (s Settings) IsProduction() bool {
	return s.Env == "production" || s.Env == "prod"
}

// ConnectSources are the origins the CSP lets the client connect to: the
// client URL and its websocket form.
func (s Settings) ConnectSources() []string {
	origin := strings.TrimRight(strings.TrimSpace(s.ClientURL), "/")
	if origin == "" || origin == "*" {
		return nil
	}
	sources := []string{origin}
	switch {
	case strings.HasPrefix(origin, "https://"):
		sources = append(sources, "wss://"+strings.TrimPrefix(origin, "https://"))
	case strings.HasPrefix(origin, "http://"):
		sources = append(sources, "ws://"+strings.TrimPrefix(origin, "http://"))
	}
	return sources
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		log.Printf("Warning: invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
