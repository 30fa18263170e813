package logger

import (
	"bytes"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", JSON: true, Output: &buf})

	log.Info("hello", "key", "value")

	out := buf.String()
	assert.Contains(t, out, `"msg":"hello"`)
	assert.Contains(t, out, `"key":"value"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", JSON: true, Output: &buf})

	log.Info("dropped")
	log.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}

func TestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", JSON: true, Output: &buf})

	log.WithRequestID("req-123").Info("scoped")

	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(nil)

	log := FromContext(c)
	assert.NotNil(t, log)
}
