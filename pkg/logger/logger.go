package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New creates the application logger. JSON output in production, console output otherwise.
func New(env string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	if env == "production" {
		out = os.Stdout
	}

	return zerolog.New(out).
		With().
		Timestamp().
		Caller().
		Logger()
}

// WithRequestID returns a logger with request ID
func WithRequestID(logger zerolog.Logger, requestID string) zerolog.Logger {
	return logger.With().Str("request_id", requestID).Logger()
}

// WithArticleID returns a logger with article ID
func WithArticleID(logger zerolog.Logger, articleID string) zerolog.Logger {
	return logger.With().Str("article_id", articleID).Logger()
}

// WithUserID returns a logger with user ID
func WithUserID(logger zerolog.Logger, userID string) zerolog.Logger {
	return logger.With().Str("user_id", userID).Logger()
}
