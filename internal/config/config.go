// internal/config/config.go
//
// Process configuration read from the environment (after godotenv has
// loaded .env). Invalid values fall back to defaults with a warning.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds every tunable the server and the arena CLI read.
type Config struct {
	Port         string
	LogLevel     string
	ClientOrigin string
	Production   bool

	DBPath       string
	ResultsPGURL string

	JWTSecret      string
	JWTExpiresDays int
	CookieName     string

	WordsAnswersFile string
	WordsAllowedFile string
	WordsPolicy      string

	QueueTTL         time.Duration
	SessionRetention time.Duration
	SweepInterval    time.Duration

	SuggestTimeout time.Duration
	SuggestRPS     float64
	SuggestBurst   int
	DefaultModel   string

	ArenaSalt   string
	ArenaPacing time.Duration
	ArenaRounds int
	ArenaModels []string
	ResultsDir  string
}

// Load reads the environment.
func Load() Config {
	return Config{
		Port:         getEnv("PORT", "5175"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		Production:   os.Getenv("NODE_ENV") == "production",

		DBPath:       getEnv("DB_PATH", "./data/arena.db"),
		ResultsPGURL: os.Getenv("RESULTS_PG_URL"),

		JWTSecret:      getEnv("JWT_SECRET", "dev_secret_change_me"),
		JWTExpiresDays: getEnvInt("JWT_EXPIRES_DAYS", 14),
		CookieName:     getEnv("COOKIE_NAME", "arena_token"),

		WordsAnswersFile: os.Getenv("WORDS_ANSWERS_FILE"),
		WordsAllowedFile: os.Getenv("WORDS_ALLOWED_FILE"),
		WordsPolicy:      getEnv("WORDS_POLICY", "heuristic"),

		QueueTTL:         getEnvDuration("QUEUE_TTL", 10*time.Minute),
		SessionRetention: getEnvDuration("SESSION_RETENTION", 0),
		SweepInterval:    getEnvDuration("SWEEP_INTERVAL", 10*time.Minute),

		SuggestTimeout: getEnvDuration("SUGGEST_TIMEOUT", 45*time.Second),
		SuggestRPS:     getEnvFloat("SUGGEST_RPS", 10),
		SuggestBurst:   getEnvInt("SUGGEST_BURST", 1),
		DefaultModel:   getEnv("DEFAULT_MODEL", "openai/gpt-5-chat"),

		ArenaSalt:   getEnv("ARENA_SALT", "local_dev_salt"),
		ArenaPacing: getEnvDuration("ARENA_PACING", 100*time.Millisecond),
		ArenaRounds: getEnvInt("ARENA_ROUNDS", 20),
		ArenaModels: getEnvList("ARENA_MODELS"),
		ResultsDir:  getEnv("RESULTS_DIR", "./results"),
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Int("default", def).Msg("invalid int, using default")
		return def
	}
	return n
}

func getEnvFloat(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Float64("default", def).Msg("invalid float, using default")
		return def
	}
	return f
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Dur("default", def).Msg("invalid duration, using default")
		return def
	}
	return d
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(k string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(k), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
