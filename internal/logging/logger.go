// Package logging builds the structured logger shared by both roles.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger. JOBMESH_LOG_FORMAT=console switches to a
// human-readable encoder for local development; the default is JSON.
func New() *zap.Logger {
	var cfg zap.Config
	if os.Getenv("JOBMESH_LOG_FORMAT") == "console" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		// Fall back to a no-frills logger rather than fail startup over a
		// logging misconfiguration.
		logger = zap.NewNop()
	}
	return logger
}

// JobFields builds the common structured fields logged on every Job state
// transition.
func JobFields(jobID int64, userID int64, service string, from, to string) []zap.Field {
	return []zap.Field{
		zap.Int64("job_id", jobID),
		zap.Int64("user_id", userID),
		zap.String("service", service),
		zap.String("from_status", from),
		zap.String("to_status", to),
	}
}

// PayloadFields builds the common structured fields logged on every Payload
// state transition.
func PayloadFields(payloadID int, from, to string) []zap.Field {
	return []zap.Field{
		zap.Int("payload_id", payloadID),
		zap.String("from_status", from),
		zap.String("to_status", to),
	}
}
