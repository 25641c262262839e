// Package logger is the process-wide structured logger. Call sites pass a
// message and alternating key/value pairs; values under PII-looking keys are
// redacted before they reach the zap core.
package logger

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu        sync.RWMutex
	level     = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sugar     = mustBuild(false)
	redactPII = true
)

func mustBuild(development bool) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = level
	cfg.DisableStacktrace = true
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

// Init rebuilds the default logger. development switches to the console encoder.
func Init(lvl string, development bool) error {
	if err := SetLevel(lvl); err != nil {
		return err
	}
	mu.Lock()
	sugar = mustBuild(development)
	mu.Unlock()
	return nil
}

// SetLevel sets the minimum level ("debug", "info", "warn", "error").
func SetLevel(lvl string) error {
	if lvl == "" {
		return nil
	}
	parsed, err := zapcore.ParseLevel(lvl)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	level.SetLevel(parsed)
	return nil
}

// SetRedactPII enables or disables PII redaction.
func SetRedactPII(r bool) {
	mu.Lock()
	redactPII = r
	mu.Unlock()
}

// Sync flushes buffered entries.
func Sync() { _ = current().Sync() }

// Debug emits a DEBUG-level structured log entry.
func Debug(msg string, fields ...interface{}) { current().Debugw(msg, redact(fields)...) }

// Info emits an INFO-level structured log entry.
func Info(msg string, fields ...interface{}) { current().Infow(msg, redact(fields)...) }

// Warn emits a WARN-level structured log entry.
func Warn(msg string, fields ...interface{}) { current().Warnw(msg, redact(fields)...) }

// Error emits an ERROR-level structured log entry.
func Error(msg string, fields ...interface{}) { current().Errorw(msg, redact(fields)...) }

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func redact(fields []interface{}) []interface{} {
	mu.RLock()
	enabled := redactPII
	mu.RUnlock()
	if !enabled {
		return fields
	}
	out := make([]interface{}, len(fields))
	copy(out, fields)
	for i := 0; i < len(out)-1; i += 2 {
		key := fmt.Sprintf("%v", out[i])
		if s, ok := out[i+1].(string); ok {
			out[i+1] = redactPIIValue(key, s)
		}
	}
	return out
}

var emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

func redactPIIValue(key, val string) string {
	key = strings.ToLower(key)
	switch {
	case strings.Contains(key, "email"):
		return RedactEmail(val)
	case strings.Contains(key, "phone"):
		return RedactPhone(val)
	case strings.Contains(key, "recipient"), strings.Contains(key, "address"):
		return RedactText(val)
	}
	// Redact any embedded emails in generic fields
	return emailRegex.ReplaceAllStringFunc(val, RedactEmail)
}
