package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestInitLogging_Masking(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := InitLogging(LogConfig{
		ServiceName: "productivefire",
		Writer:      &buf,
		MaskFields:  []string{"password", "newPassword", "otp"},
	}, nil)
	ctx := SetCorrelationID(context.Background(), "cid-1")

	// Act
	logger.InfoContext(ctx, "request received",
		"new_password", "NewPass1!",
		"body", `{"email":"ada@example.com","otp":"482913"}`,
		"payload", map[string]any{"password": "Str0ng!Pass", "name": "Ada"},
	)

	// Assert
	out := buf.String()
	for _, secret := range []string{"NewPass1!", "482913", "Str0ng!Pass"} {
		if strings.Contains(out, secret) {
			t.Fatalf("secret %q leaked in %s", secret, out)
		}
	}

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json log: %v", err)
	}
	if rec["_cID"] != "cid-1" || rec["service"] != "productivefire" {
		t.Fatalf("missing context attrs: %v", rec)
	}
	if _, ok := rec["ts"]; !ok {
		t.Fatalf("expected ts key: %v", rec)
	}
	if rec["severity"] != "INFO" {
		t.Fatalf("unexpected severity: %v", rec["severity"])
	}
}

func TestInitLogging_Level(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := InitLogging(LogConfig{Level: "warn", Writer: &buf}, nil)

	// Act
	logger.Info("hidden")
	logger.Warn("shown")

	// Assert
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestCorrelationID(t *testing.T) {
	if got := GetCorrelationID(context.Background()); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}

	ctx := SetCorrelationID(context.Background(), "abc")
	if got := GetCorrelationID(ctx); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
}
