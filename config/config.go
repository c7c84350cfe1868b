package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL    string
	Port           int
	Env            string        // "development" or "production"
	BotToken       string        // Telegram bot token; validates initData and sends notifications
	AdminSecret    string        // shared secret for the admin sector import endpoint
	InitialTickets int           // granted once when an account is first seen
	RestoreEvery   time.Duration // one ticket comes back this long after the balance hits zero
	InitDataMaxAge time.Duration // reject initData older than this
	DevUserID      int64         // local dev only: act as this account when BOT_TOKEN is unset
}

func Load() *Config {
	port := 8080
	// Prefer PORT (Render, Fly.io, Railway, etc.) then WHEEL_PORT
	if p := os.Getenv("PORT"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			port = v
		}
	} else if p := os.Getenv("WHEEL_PORT"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			port = v
		}
	}
	env := os.Getenv("ENV")
	if env == "" {
		env = "development"
	}
	initial := 3
	if v := os.Getenv("INITIAL_TICKETS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			initial = n
		}
	}
	restore := 4 * time.Hour
	if v := os.Getenv("TICKET_RESTORE_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			restore = time.Duration(n) * time.Minute
		}
	}
	maxAge := 24 * time.Hour
	if v := os.Getenv("INITDATA_MAX_AGE_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxAge = time.Duration(n) * time.Minute
		}
	}
	var devUser int64
	if v := os.Getenv("DEV_USER_ID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			devUser = n
		}
	}
	return &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		Port:           port,
		Env:            env,
		BotToken:       os.Getenv("BOT_TOKEN"),
		AdminSecret:    os.Getenv("ADMIN_SECRET"),
		InitialTickets: initial,
		RestoreEvery:   restore,
		InitDataMaxAge: maxAge,
		DevUserID:      devUser,
	}
}
