package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/wonny/optiondesk/internal/contracts"
	"github.com/wonny/optiondesk/pkg/config"
)

// 로그 파일 로테이션 기본값
const (
	fileMaxSizeMB  = 100
	fileMaxBackups = 5
	fileMaxAgeDays = 14
)

// Logger wraps zerolog with the fields the analytics pipeline tags
// (stage, ticker, run).
// ⭐ SSOT: 모든 로깅은 이 패키지를 통해서만 수행
type Logger struct {
	zlog zerolog.Logger
}

// New builds the process logger. Entries go to stderr so command output
// (tables, --json, --csv) on stdout stays clean; LOG_FILE adds a rotating
// JSON file.
// ⭐ SSOT: zerolog 인스턴스는 여기서만 생성
func New(cfg *config.Config) *Logger {
	var out io.Writer = os.Stderr
	switch cfg.LogFormat {
	case "console", "pretty":
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	if cfg.LogFile != "" {
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
			MaxAge:     fileMaxAgeDays,
			Compress:   true,
		})
	}

	zerolog.SetGlobalLevel(parseLogLevel(cfg.LogLevel))
	return &Logger{zlog: zerolog.New(out).With().Timestamp().Str("env", cfg.Env).Logger()}
}

// NewWithWriter builds a JSON logger on w filtered at level
func NewWithWriter(w io.Writer, level string) *Logger {
	return &Logger{zlog: zerolog.New(w).Level(parseLogLevel(level)).With().Timestamp().Logger()}
}

// Nop discards everything
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

var levels = map[string]zerolog.Level{
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
}

// 알 수 없는 값은 info
func parseLogLevel(level string) zerolog.Level {
	if lvl, ok := levels[strings.ToLower(level)]; ok {
		return lvl
	}
	return zerolog.InfoLevel
}

func (l *Logger) Debug(msg string) { l.zlog.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zlog.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zlog.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zlog.Error().Msg(msg) }

func (l *Logger) Infof(format string, args ...interface{})  { l.zlog.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.zlog.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.zlog.Error().Msgf(format, args...) }

func (l *Logger) with(fn func(zerolog.Context) zerolog.Context) *Logger {
	return &Logger{zlog: fn(l.zlog.With()).Logger()}
}

// WithField adds one field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.with(func(c zerolog.Context) zerolog.Context { return c.Interface(key, value) })
}

// WithFields adds several fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return l.with(func(c zerolog.Context) zerolog.Context { return c.Fields(fields) })
}

// WithError adds the "error" field
func (l *Logger) WithError(err error) *Logger {
	return l.with(func(c zerolog.Context) zerolog.Context { return c.Err(err) })
}

// WithStage tags the pipeline stage (S0~S4)
func (l *Logger) WithStage(stage contracts.Stage) *Logger {
	return l.with(func(c zerolog.Context) zerolog.Context { return c.Str("stage", stage.String()) })
}

// WithTicker tags the underlying symbol
func (l *Logger) WithTicker(symbol string) *Logger {
	return l.with(func(c zerolog.Context) zerolog.Context { return c.Str("ticker", symbol) })
}

// WithRun tags the snapshot build run
func (l *Logger) WithRun(runID string) *Logger {
	return l.with(func(c zerolog.Context) zerolog.Context { return c.Str("run_id", runID) })
}
