package config

import "time"

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// postgres connection string; when empty the SQLite catalog is used
	DatabaseURL string
	SQLitePath  string

	// optional; enables the redis rating store and redis-backed rate limiting
	RedisURL string

	AllowedOrigins []string

	// mentors observe but cannot drive edits
	MentorReadOnly bool

	// how long a disconnected mentor's slot stays reserved for the same
	// client identity. zero ends the session immediately.
	MentorReclaimGrace time.Duration

	// ulule/limiter formatted rate, e.g. "30-M"
	RatingRateLimit string

	// inbound websocket messages allowed per connection per second
	WSMessagesPerSecond int

	// maximum accepted code payload in bytes
	MaxCodeSize int
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
