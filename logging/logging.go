// Package logging builds zap loggers from presets or configuration files.
package logging

import (
	"os"

	"github.com/database64128/mmio-go/jsoncfg"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZapLogger returns a new [*zap.Logger] built from the preset name or
// the path to a JSON [zap.Config] file.
//
// Available presets: console, console-nocolor, console-notime, systemd, production, development.
// The level only applies to the console and systemd presets.
func NewZapLogger(zapConf string, level zapcore.Level) (*zap.Logger, error) {
	switch zapConf {
	case "console":
		return NewProductionConsoleZapLogger(level, false, false, false), nil
	case "console-nocolor":
		return NewProductionConsoleZapLogger(level, true, false, false), nil
	case "console-notime":
		return NewProductionConsoleZapLogger(level, false, true, false), nil
	case "systemd":
		return NewProductionConsoleZapLogger(level, true, true, false), nil
	case "production":
		return zap.NewProduction()
	case "development":
		return zap.NewDevelopment()
	default:
		var zc zap.Config
		if err := jsoncfg.Open(zapConf, &zc); err != nil {
			return nil, err
		}
		return zc.Build()
	}
}

// NewProductionConsoleZapLogger creates a new [*zap.Logger] with sensible defaults
// for writing human-readable logs to stderr.
func NewProductionConsoleZapLogger(level zapcore.Level, noColor, noTime, addCaller bool) *zap.Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.ConsoleSeparator = " "
	if noTime {
		cfg.TimeKey = zapcore.OmitKey
	} else {
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	if noColor {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(os.Stderr), level)

	var opts []zap.Option
	if addCaller {
		opts = append(opts, zap.AddCaller())
	}
	return zap.New(core, opts...)
}
