package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Devraj-sh/Promptbattle/game"
	"github.com/joho/godotenv"
)

var defaultOrigins = []string{
	"http://localhost:5173",
	"http://localhost:8080",
	"http://localhost:8081",
}

type Config struct {
	Port           string
	AllowedOrigins []string
	Debug          bool
	LogPretty      bool

	PostgresURL string

	StabilityAPIKey string
	StabilityEngine string

	GroqAPIKey string
	GroqModel  string

	MaxRooms int
	Game     game.Settings
}

// Load reads the process environment, after merging a .env file when one
// exists in the working directory.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only.
func FromEnv() (Config, error) {
	p := parser{}
	cfg := Config{
		Port:            p.str("PORT", "3001"),
		AllowedOrigins:  origins(),
		Debug:           p.boolean("DEBUG", false),
		LogPretty:       p.boolean("LOG_PRETTY", false),
		PostgresURL:     p.str("POSTGRES_URL", ""),
		StabilityAPIKey: p.str("STABILITY_API_KEY", ""),
		StabilityEngine: p.str("STABILITY_ENGINE", "stable-diffusion-v1-6"),
		GroqAPIKey:      p.str("GROQ_API_KEY", ""),
		GroqModel:       p.str("GROQ_MODEL", "llama-3.3-70b-versatile"),
		MaxRooms:        p.integer("MAX_ROOMS", 10000),
		Game: game.Settings{
			MaxPlayers:         p.integer("MAX_PLAYERS", 8),
			MinPlayers:         p.integer("MIN_PLAYERS", 2),
			TotalRounds:        p.integer("TOTAL_ROUNDS", 3),
			RoundPoints:        p.integer("ROUND_POINTS", 1),
			SubmissionDuration: p.seconds("SUBMISSION_SECONDS", 60),
			GenerationTimeout:  p.seconds("GENERATION_TIMEOUT_SECONDS", 20),
			VotingDuration:     p.seconds("VOTING_SECONDS", 30),
			ResultsDuration:    p.seconds("RESULTS_SECONDS", 8),
			IdleTimeout:        p.seconds("IDLE_TIMEOUT_SECONDS", 120),
			LobbyTimeout:       p.seconds("LOBBY_TIMEOUT_SECONDS", 3600),
			FinishedRetention:  p.seconds("FINISHED_RETENTION_SECONDS", 300),
		},
	}
	if p.err != nil {
		return Config{}, p.err
	}
	if err := cfg.Game.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.MaxRooms < 1 {
		return Config{}, fmt.Errorf("MAX_ROOMS must be at least 1")
	}
	return cfg, nil
}

func origins() []string {
	list := defaultOrigins
	if raw, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok && strings.TrimSpace(raw) != "" {
		list = nil
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				list = append(list, o)
			}
		}
	}
	out := append([]string{}, list...)
	if frontend := strings.TrimSpace(os.Getenv("FRONTEND_URL")); frontend != "" {
		out = append(out, frontend)
	}
	return out
}

// parser remembers the first malformed variable so FromEnv can report it.
type parser struct {
	err error
}

func (p *parser) str(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func (p *parser) integer(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(fmt.Errorf("%s: invalid integer %q", key, v))
		return fallback
	}
	return n
}

func (p *parser) boolean(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(fmt.Errorf("%s: invalid boolean %q", key, v))
		return fallback
	}
	return b
}

func (p *parser) seconds(key string, fallback int) time.Duration {
	return time.Duration(p.integer(key, fallback)) * time.Second
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}
