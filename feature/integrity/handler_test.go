package integrity

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"tbl-merger/feature/merge"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) *fiber.App {
	svc, _, _ := setupService(t, merge.NewFileMap())
	app := fiber.New()
	feature := NewFeature(svc)
	assert.Equal(t, "integrity", feature.Name())
	assert.True(t, feature.IsEnabled())
	require.NoError(t, feature.Load(app))
	return app
}

func TestHandleBaselineCheck(t *testing.T) {
	app := setupTestApp(t)

	for _, path := range []string{"/integrity", "/integrity/baselines"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var report Report
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
		assert.Len(t, report.Tables, 3)
		assert.Equal(t, 1, report.Counts[StatusOK])
	}
}

func TestHandleModCheck(t *testing.T) {
	app := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/mods", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var report Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Empty(t, report.Candidates)
}
