package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := context.Background()
	ctx = log.WithRequestID(ctx, "req-123")
	ctx = log.WithUserID(ctx, "user-1")

	log.Error(ctx, "boom", errors.New("boom"))

	if !bytes.Contains(buf.Bytes(), []byte("\"request_id\":\"req-123\"")) {
		t.Fatalf("expected request_id to be preserved; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("\"user_id\":\"user-1\"")) {
		t.Fatalf("expected user_id to be preserved; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("\"stack\"")) {
		t.Fatalf("expected stack trace on error; entry=%s", buf.String())
	}
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf, WarnStack: true})
	log.Warn(context.Background(), "warny")
	if !bytes.Contains(buf.Bytes(), []byte("\"stack\"")) {
		t.Fatalf("expected stack when warn stack enabled")
	}

	buf.Reset()
	log = New(Options{ServiceName: "test", Output: buf})
	log.Warn(context.Background(), "warny")
	if bytes.Contains(buf.Bytes(), []byte("\"stack\"")) {
		t.Fatalf("did not expect stack when warn stack disabled")
	}
}

func TestLoggerLevelFilters(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("warn"), Output: buf})
	log.Info(context.Background(), "quiet")
	log.Debug(context.Background(), "quieter")
	if buf.Len() != 0 {
		t.Fatalf("expected info/debug to be filtered, got %s", buf.String())
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("invalid level should fallback to info, got %v", lvl)
	}
	if lvl := ParseLevel(" DEBUG "); lvl != zerolog.DebugLevel {
		t.Fatalf("expected debug, got %v", lvl)
	}
}

func TestNopDiscards(t *testing.T) {
	log := Nop()
	ctx := log.WithField(context.Background(), "k", "v")
	log.Error(ctx, "ignored", errors.New("x"))
}

func TestWithFieldsRedactsSensitiveKeys(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})

	code := "00020126580014br.gov.bcb.pix0136123e4567"
	ctx := log.WithFields(context.Background(), map[string]any{"pix_code": code, "amount": "19,90"})
	log.Info(ctx, "copied")

	if bytes.Contains(buf.Bytes(), []byte(code)) {
		t.Fatalf("payment code leaked into logs: %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"amount":"19,90"`)) {
		t.Fatalf("expected non-sensitive field; entry=%s", buf.String())
	}
}

func TestRedact(t *testing.T) {
	if got := Redact("abc"); got != "***" {
		t.Fatalf("short values should be fully masked, got %q", got)
	}
	if got := Redact("0002012658"); got != "000201…(10)" {
		t.Fatalf("unexpected redaction %q", got)
	}
}

func TestVersionField(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Version: "1.2.3", Output: buf})
	log.Info(context.Background(), "hello")
	if !bytes.Contains(buf.Bytes(), []byte(`"version":"1.2.3"`)) {
		t.Fatalf("expected version field; entry=%s", buf.String())
	}
}

func TestNopIgnoresContextLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	real := New(Options{ServiceName: "test", Output: buf})
	ctx := real.WithRequestID(context.Background(), "req-1")

	Nop().Info(ctx, "should not appear")
	if buf.Len() != 0 {
		t.Fatalf("nop logger wrote through context logger: %s", buf.String())
	}
}
