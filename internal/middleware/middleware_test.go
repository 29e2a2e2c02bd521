package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	app := fiber.New()
	app.Use(Metrics())
	app.Get("/probe/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusTeapot)
	})

	counter := HTTPRequestsTotal.WithLabelValues("GET", "/probe/:id", "418")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/probe/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	}

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestMetrics_UsesFiberErrorCode(t *testing.T) {
	app := fiber.New()
	app.Use(Metrics())
	app.Get("/gone", func(c *fiber.Ctx) error {
		return fiber.ErrGone
	})

	counter := HTTPRequestsTotal.WithLabelValues("GET", "/gone", "410")
	before := testutil.ToFloat64(counter)

	_, err := app.Test(httptest.NewRequest("GET", "/gone", nil))
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestTrackHabitOperation(t *testing.T) {
	counter := HabitOperationsTotal.WithLabelValues("probe")
	before := testutil.ToFloat64(counter)

	TrackHabitOperation("probe")
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	app := fiber.New()
	app.Use(requestid.New())
	app.Use(RequestLogger(zap.New(core)))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})

	_, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/ping", fields["path"])
	assert.EqualValues(t, 200, fields["status"])
	assert.NotEmpty(t, fields["requestId"])
}
