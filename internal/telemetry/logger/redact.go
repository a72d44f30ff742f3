package logger

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"auth",
	"bearer",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

var (
	// ws://user:pass@host -> ws://***@host
	userinfoPattern = regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.-]*://)[^/@\s]+@`)
	// ?token=abc&x=1 -> ?token=***REDACTED***&x=1
	queryPattern = regexp.MustCompile(`(?i)([?&](?:[a-z0-9_-]*(?:token|secret|password|key|auth)[a-z0-9_-]*)=)[^&#\s"]+`)
)

// redactCore masks sensitive field values before they reach the encoder.
type redactCore struct {
	zapcore.Core
}

func newRedactCore(core zapcore.Core) zapcore.Core {
	return &redactCore{Core: core}
}

func (c *redactCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactCore{Core: c.Core.With(redactFields(fields))}
}

func (c *redactCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *redactCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	ent.Message = RedactString(ent.Message)
	return c.Core.Write(ent, redactFields(fields))
}

func redactFields(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		out[i] = redactField(f)
	}
	return out
}

func redactField(f zapcore.Field) zapcore.Field {
	switch f.Type {
	case zapcore.StringType:
		if f.String != "" && IsSensitiveKey(f.Key) {
			return zap.String(f.Key, redactedValue)
		}
		return zap.String(f.Key, RedactString(f.String))
	case zapcore.ErrorType:
		if err, ok := f.Interface.(error); ok && err != nil {
			return zap.String(f.Key, RedactString(err.Error()))
		}
	}
	return f
}

// RedactString masks credentials embedded in URLs: userinfo and
// sensitive query parameters.
func RedactString(value string) string {
	if !strings.Contains(value, "://") && !strings.Contains(value, "=") {
		return value
	}
	value = userinfoPattern.ReplaceAllString(value, "${1}***@")
	return queryPattern.ReplaceAllString(value, "${1}"+redactedValue)
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
