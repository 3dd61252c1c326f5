package logger

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		enabled zapcore.Level
		skipped zapcore.Level
	}{
		{"debug console", Config{Level: "debug", Format: "console"}, zapcore.DebugLevel, zapcore.Level(-2)},
		{"info json", Config{Level: "info", Format: "json"}, zapcore.InfoLevel, zapcore.DebugLevel},
		{"warn", Config{Level: "warn", Format: "json"}, zapcore.WarnLevel, zapcore.InfoLevel},
		{"unknown level falls back to info", Config{Level: "loud"}, zapcore.InfoLevel, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(&tt.cfg)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.enabled))
			assert.False(t, l.Core().Enabled(tt.skipped))
		})
	}
}

func TestForTable(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ForTable(zap.New(core), "BATTLE/TABLE/SKILL.TBL", "skill").Info("merged")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "BATTLE/TABLE/SKILL.TBL", fields["logical_path"])
	assert.Equal(t, "skill", fields["table_type"])
}

func TestWithRayID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		c.Locals("ray_id", "abc")
		WithRayID(zap.New(core), c).Info("hello")
		return c.SendStatus(fiber.StatusOK)
	})

	_, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "abc", logs.All()[0].ContextMap()["ray_id"])
}
