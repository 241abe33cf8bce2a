package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const lokiPushPath = "/loki/api/v1/push"

// Logger writes structured logs with trace correlation. Error entries are
// also pushed to Loki when a push URL is configured.
type Logger struct {
	*otelzap.Logger
	serviceName string
	lokiURL     string
	httpClient  *http.Client
	pending     sync.WaitGroup
}

type lokiPush struct {
	Streams []lokiStream `json:"streams"`
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

func New(serviceName, level, lokiURL string) (*Logger, error) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.TimeKey = "timestamp"

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	config.Level = zap.NewAtomicLevelAt(lvl)

	zapLogger, err := config.Build(zap.Fields(zap.String("service", serviceName)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zap logger: %w", err)
	}

	return wrap(zapLogger, serviceName, lokiURL), nil
}

// NewNop discards everything.
func NewNop() *Logger {
	return wrap(zap.NewNop(), "", "")
}

func wrap(zapLogger *zap.Logger, serviceName, lokiURL string) *Logger {
	l := &Logger{
		Logger:      otelzap.New(zapLogger),
		serviceName: serviceName,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
	}

	if lokiURL != "" {
		l.lokiURL = strings.TrimRight(lokiURL, "/") + lokiPushPath
	}

	return l
}

func (l *Logger) InfoWithTrace(ctx context.Context, msg string, fields ...zap.Field) {
	l.Logger.Ctx(ctx).Info(msg, fields...)
}

func (l *Logger) WarnWithTrace(ctx context.Context, msg string, fields ...zap.Field) {
	l.Logger.Ctx(ctx).Warn(msg, fields...)
}

func (l *Logger) ErrorWithTrace(ctx context.Context, msg string, fields ...zap.Field) {
	l.Logger.Ctx(ctx).Error(msg, fields...)

	if l.lokiURL == "" {
		return
	}

	line := l.encodeLine(ctx, zapcore.ErrorLevel, msg, fields)

	l.pending.Add(1)
	go func() {
		defer l.pending.Done()
		l.push(zapcore.ErrorLevel, line)
	}()
}

// Sync waits for in-flight Loki pushes and flushes the underlying logger.
func (l *Logger) Sync() error {
	l.pending.Wait()
	return l.Logger.Sync()
}

func (l *Logger) encodeLine(ctx context.Context, level zapcore.Level, msg string, fields []zap.Field) string {
	enc := zapcore.NewMapObjectEncoder()

	for _, field := range fields {
		field.AddTo(enc)
	}

	entry := enc.Fields
	entry["timestamp"] = time.Now().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["message"] = msg
	entry["service"] = l.serviceName

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		entry["trace_id"] = sc.TraceID().String()
		entry["span_id"] = sc.SpanID().String()
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"level":%q,"message":%q}`, level.String(), msg)
	}

	return string(line)
}

func (l *Logger) push(level zapcore.Level, line string) {
	body, err := json.Marshal(lokiPush{
		Streams: []lokiStream{{
			Stream: map[string]string{
				"service": l.serviceName,
				"level":   level.String(),
			},
			Values: [][]string{{fmt.Sprintf("%d", time.Now().UnixNano()), line}},
		}},
	})
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, l.lokiURL, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		l.Logger.Warn("Failed to push log to loki", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)
}
