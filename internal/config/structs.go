package config

import (
	"github.com/N3minator/TG-BOT/internal/logger"
)

// Bot holds the moderation bot settings.
type Bot struct {
	// ConfirmTTL is how long (seconds) a pending role deletion waits for
	// its confirmation button before it expires.
	ConfirmTTL int

	// SweepSchedule is the cron spec for the background job that lifts
	// expired bans and removes assignments of deleted roles.
	SweepSchedule string
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Bot       Bot
	Webserver Webserver
}

// Webserver implement ops webserver settings.
type Webserver struct {
	Port         int // listening port for the ops webserver
	ShutDownTime int // wait time for shutdown
}
