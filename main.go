package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordsearch/internal/events"
	"github.com/robalobadob/wordsearch/internal/httpserver"
	"github.com/robalobadob/wordsearch/internal/store"
	"github.com/robalobadob/wordsearch/internal/words"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if envBool("LOG_PRETTY", false) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	if err := words.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load word list")
	}
	n, longest := words.Stats()
	size := envInt("GRID_SIZE", 10)
	if longest > size {
		log.Warn().Int("longest", longest).Int("gridSize", size).Msg("some words are longer than the grid and will never be placed")
	}

	cfg := httpserver.Config{
		Words:         words.List(),
		GridSize:      size,
		StraightLines: envBool("STRAIGHT_LINES", true),
		Secret:        getEnv("ROUND_SECRET", ""),
		TokenTTL:      time.Duration(envInt("ROUND_TOKEN_HOURS", 24)) * time.Hour,
		DailySalt:     getEnv("DAILY_SALT", ""),
		ClientOrigin:  getEnv("CLIENT_ORIGIN", ""),
		CookieName:    getEnv("COOKIE_NAME", ""),
		SecureCookies: getEnv("APP_ENV", "") == "production",
	}
	if cfg.Secret == "" {
		log.Warn().Msg("ROUND_SECRET not set, using development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := httpserver.New(cfg, store.NewMemoryStore(), events.NewHub())
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Int("words", n).Int("gridSize", size).Msg("starting wordsearch server")
	if err := srv.Start(ctx, ":"+port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not a boolean, using default")
	}
	return def
}
