package logging

import (
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls logger construction.
type Config struct {
	Level  string
	Dev    bool
	Dir    string
	MaxAge time.Duration
}

func levelFromString(l string) zapcore.Level {
	switch l {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds the process logger. Stdout gets a console encoder in development and
// JSON otherwise; when Dir is set, app.log (all levels) and error.log (error and
// above) are written there and rotated daily.
func New(cfg Config) (*zap.Logger, error) {
	lvl := levelFromString(cfg.Level)
	if cfg.Dev && cfg.Level == "" {
		lvl = zapcore.DebugLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var stdoutEncoder zapcore.Encoder
	if cfg.Dev {
		devCfg := zap.NewDevelopmentEncoderConfig()
		devCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		stdoutEncoder = zapcore.NewConsoleEncoder(devCfg)
	} else {
		stdoutEncoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(stdoutEncoder, zapcore.AddSync(os.Stdout), lvl),
	}

	if cfg.Dir != "" {
		appWriter, err := rotatingWriter(cfg.Dir, "app", cfg.MaxAge)
		if err != nil {
			return nil, err
		}
		errorWriter, err := rotatingWriter(cfg.Dir, "error", cfg.MaxAge)
		if err != nil {
			return nil, err
		}

		jsonEncoder := zapcore.NewJSONEncoder(encoderCfg)
		cores = append(cores,
			zapcore.NewCore(jsonEncoder, appWriter, lvl),
			zapcore.NewCore(jsonEncoder, errorWriter, zapcore.ErrorLevel),
		)
	}

	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	return zap.New(zapcore.NewTee(cores...), opts...).With(zap.String("service", "bazzarly-backend")), nil
}

func rotatingWriter(dir, name string, maxAge time.Duration) (zapcore.WriteSyncer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if maxAge <= 0 {
		maxAge = 14 * 24 * time.Hour
	}

	writer, err := rotatelogs.New(
		filepath.Join(dir, name+".%Y%m%d.log"),
		rotatelogs.WithLinkName(filepath.Join(dir, name+".log")),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(maxAge),
	)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(writer), nil
}

// Security records an authentication or abuse related event.
func Security(log *zap.Logger, event string, fields ...zap.Field) {
	log.Warn(event, append(fields, zap.String("type", "SECURITY_EVENT"))...)
}

// Business records a domain event worth auditing.
func Business(log *zap.Logger, event string, fields ...zap.Field) {
	log.Info(event, append(fields, zap.String("type", "BUSINESS_EVENT"))...)
}
