// Package logger builds the application's zap logger.
package logger

import (
	"strings"

	"go.uber.org/zap"
)

// New returns a production JSON logger for env "prod"/"production" and a
// human-readable development logger otherwise.
func New(env string) (*zap.Logger, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "prod", "production":
		return zap.NewProduction()
	default:
		return zap.NewDevelopment()
	}
}
