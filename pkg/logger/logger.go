package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is a no-op logger until InitLogger runs.
var Log = zap.NewNop()

// InitLogger replaces Log for the server mode: JSON in release, coloured
// console otherwise, silent in test.
func InitLogger(mode string) {
	if mode == "test" {
		Log = zap.NewNop()
		return
	}

	var config zap.Config
	if mode == "release" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "ts"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.OutputPaths = []string{"stdout"}

	l, err := config.Build(zap.Fields(zap.String("service", "truco")))
	if err != nil {
		os.Exit(1)
	}
	Log = l
	zap.ReplaceGlobals(Log)
}
