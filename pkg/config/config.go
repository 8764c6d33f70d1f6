package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Bandit    BanditConfig
	Feed      FeedConfig
	EventLog  EventLogConfig
	Feedback  FeedbackConfig
	Candidate CandidateConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
	AllowOrigins   []string
}

type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	AutoMigrate bool
}

type JWTConfig struct {
	SecretKey string
}

type RedisConfig struct {
	Enabled       bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	PoolSize      int
	MinIdleConns  int
	DialTimeout   time.Duration
	// read and write deadline for one command; arm updates are small
	OpTimeout time.Duration
}

type BanditConfig struct {
	// "postgres" or "redis"
	Store            string
	MaxArmsPerState  int
	LikeCancelPolicy string
}

type FeedConfig struct {
	MinLikesForBandit int
	PoolMultiplier    int
	DefaultMode       string
	ContentTrafficPct int
	DefaultPageSize   int
	DefaultSamples    int
}

type EventLogConfig struct {
	Dir string
}

type FeedbackConfig struct {
	Workers   int
	QueueSize int
}

type CandidateConfig struct {
	BreakerMaxRequests uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration
	BreakerMinRequests uint32
	BreakerFailureRate float64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Outfit Journey API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8000"),
			RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 5*time.Second),
			AllowOrigins:   []string{getEnv("CORS_ORIGIN", "http://localhost:3000")},
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", ""),
			Name:        getEnv("DB_NAME", "outfit_journey"),
			SSLMode:     getEnv("DB_SSL_MODE", "disable"),
			AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", false),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Redis: RedisConfig{
			Enabled:       getEnvBool("REDIS_ENABLED", false),
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
			PoolSize:      getEnvInt("REDIS_POOL_SIZE", 20),
			MinIdleConns:  getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:   getEnvDuration("REDIS_DIAL_TIMEOUT", 2*time.Second),
			OpTimeout:     getEnvDuration("REDIS_OP_TIMEOUT", 500*time.Millisecond),
		},
		Bandit: BanditConfig{
			Store:            getEnv("BANDIT_STORE", "postgres"),
			MaxArmsPerState:  getEnvInt("BANDIT_MAX_ARMS", 2000),
			LikeCancelPolicy: getEnv("BANDIT_LIKE_CANCEL_POLICY", "engage"),
		},
		Feed: FeedConfig{
			MinLikesForBandit: getEnvInt("FEED_MIN_LIKES_FOR_BANDIT", 4),
			PoolMultiplier:    getEnvInt("FEED_POOL_MULTIPLIER", 10),
			DefaultMode:       getEnv("FEED_DEFAULT_MODE", "mab"),
			ContentTrafficPct: getEnvInt("FEED_CONTENT_TRAFFIC_PCT", 0),
			DefaultPageSize:   getEnvInt("FEED_DEFAULT_PAGE_SIZE", 10),
			DefaultSamples:    getEnvInt("FEED_DEFAULT_SAMPLES", 3),
		},
		EventLog: EventLogConfig{
			Dir: getEnv("EVENT_LOG_DIR", "./logging"),
		},
		Feedback: FeedbackConfig{
			Workers:   getEnvInt("FEEDBACK_WORKERS", 4),
			QueueSize: getEnvInt("FEEDBACK_QUEUE_SIZE", 256),
		},
		Candidate: CandidateConfig{
			BreakerMaxRequests: uint32(getEnvInt("CANDIDATE_BREAKER_MAX_REQUESTS", 3)),
			BreakerInterval:    getEnvDuration("CANDIDATE_BREAKER_INTERVAL", time.Minute),
			BreakerTimeout:     getEnvDuration("CANDIDATE_BREAKER_TIMEOUT", 30*time.Second),
			BreakerMinRequests: uint32(getEnvInt("CANDIDATE_BREAKER_MIN_REQUESTS", 10)),
			BreakerFailureRate: getEnvFloat("CANDIDATE_BREAKER_FAILURE_RATE", 0.6),
		},
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	if cfg.Bandit.Store != "postgres" && cfg.Bandit.Store != "redis" {
		return nil, errors.New("bandit store must be postgres or redis")
	}

	if cfg.Bandit.Store == "redis" && !cfg.Redis.Enabled {
		return nil, errors.New("redis bandit store requires REDIS_ENABLED=true")
	}

	if cfg.Feed.ContentTrafficPct < 0 || cfg.Feed.ContentTrafficPct > 100 {
		return nil, errors.New("content traffic pct must be between 0 and 100")
	}

	if cfg.Feedback.Workers <= 0 || cfg.Feedback.QueueSize <= 0 {
		return nil, errors.New("feedback workers and queue size must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}

	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}

	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}

	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}

	return defaultVal
}
