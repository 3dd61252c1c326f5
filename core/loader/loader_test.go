package loader

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFeature struct {
	name    string
	enabled bool
	err     error
	loaded  bool
}

func (s *stubFeature) Name() string    { return s.name }
func (s *stubFeature) IsEnabled() bool { return s.enabled }
func (s *stubFeature) Load(app fiber.Router) error {
	s.loaded = true
	if s.err != nil {
		return s.err
	}
	app.Get("/"+s.name, func(c *fiber.Ctx) error { return c.SendString(s.name) })
	return nil
}

func TestManager_LoadAll(t *testing.T) {
	app := fiber.New()
	on := &stubFeature{name: "merge", enabled: true}
	off := &stubFeature{name: "history", enabled: false}

	mgr := NewManager()
	mgr.Register(on)
	mgr.Register(off)
	require.NoError(t, mgr.LoadAll(app))

	assert.True(t, on.loaded)
	assert.False(t, off.loaded)
	assert.Len(t, mgr.Features(), 2)

	resp, err := app.Test(httptest.NewRequest("GET", "/merge", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestManager_LoadAllError(t *testing.T) {
	mgr := NewManager()
	mgr.Register(&stubFeature{name: "broken", enabled: true, err: errors.New("boom")})

	err := mgr.LoadAll(fiber.New())
	assert.ErrorContains(t, err, "broken")
	assert.ErrorContains(t, err, "boom")
}
