package app

import (
	"os"

	"service-parcel-platform/internal/config"
	"service-parcel-platform/internal/logx"
)

// NewLogger builds the process logger selected by LOG_FORMAT.
func NewLogger(cfg *config.Config) (logx.Logger, error) {
	if cfg.LogFormat == "zap" {
		return logx.NewZap(cfg.LogLevel)
	}
	return logx.NewJSON(os.Stdout, cfg.LogLevel), nil
}
