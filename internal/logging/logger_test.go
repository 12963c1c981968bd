package logging_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systmms/strongbox/internal/logging"
)

func TestLoggerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, false, true, false)

	logger.Info("stored %s", "db/password")
	logger.Warn("slow response")
	logger.Error("lookup failed")
	logger.Debug("not shown without debug")

	out := buf.String()
	assert.Contains(t, out, "✓ stored db/password")
	assert.Contains(t, out, "⚠ slow response")
	assert.Contains(t, out, "✗ lookup failed")
	assert.NotContains(t, out, "not shown")
}

func TestLoggerDebugEnabled(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, true, true, false)

	logger.Debug("resolved bucket %s", "vault-bucket")
	assert.Contains(t, buf.String(), "[DEBUG] resolved bucket vault-bucket")
}

func TestLoggerQuietSuppressesAllButErrors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, true, true, true)

	logger.Info("hidden")
	logger.Warn("hidden")
	logger.Debug("hidden")
	logger.Error("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestSecretAlwaysRedacted(t *testing.T) {
	t.Parallel()

	s := logging.Secret("hunter2hunter2")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", s))
}

func TestRedact(t *testing.T) {
	t.Parallel()

	out := logging.Redact("value is hunter2hunter2 ok", []string{"hunter2hunter2", "ab"})
	assert.Equal(t, "value is [REDACTED] ok", out)
	// Trivial secrets are left alone to avoid shredding normal words.
	assert.Equal(t, "abc", logging.Redact("abc", []string{"ab"}))
}
