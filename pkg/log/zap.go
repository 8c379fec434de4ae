package log

import (
	"fmt"
	"time"

	"github.com/Toasterson/bastel-project-webhookinator/config/modules"
	"github.com/Toasterson/bastel-project-webhookinator/utils"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "2006/01/02 15:04:05.000"

// NewZapLogger builds the process logger and installs it as zap's global.
func NewZapLogger(cfg *modules.LogConfig) (*zap.SugaredLogger, error) {
	zapConfig, err := newZapConfig(cfg)
	if err != nil {
		return nil, err
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	zap.ReplaceGlobals(logger)

	return logger.Sugar(), nil
}

func newZapConfig(cfg *modules.LogConfig) (zap.Config, error) {
	level, err := zapcore.ParseLevel(string(cfg.Level))
	if err != nil {
		return zap.Config{}, err
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       false,
		DisableCaller:     true,
		DisableStacktrace: true,
		OutputPaths:       []string{utils.DefaultIfZero(cfg.File, "/dev/stdout")},
		ErrorOutputPaths:  []string{"stderr"},
	}

	switch cfg.Format {
	case modules.LogFormatJson:
		zapConfig.Encoding = "json"
		zapConfig.EncoderConfig = zap.NewProductionEncoderConfig()
		zapConfig.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	case modules.LogFormatText:
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		zapConfig.EncoderConfig.EncodeName = func(loggerName string, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(fmt.Sprintf("%-8s", "["+loggerName+"]"))
		}
		if cfg.Colored {
			zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		zapConfig.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(utils.Colorize(t.Format(timeLayout), utils.ColorDarkGray, cfg.Colored))
		}
	default:
		return zap.Config{}, fmt.Errorf("invalid format: %s", cfg.Format)
	}

	return zapConfig, nil
}
