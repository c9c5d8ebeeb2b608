package auth_test

import (
	"net/http/httptest"
	"testing"

	"service-map/core/middleware/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	newApp := func(key string) *fiber.App {
		app := fiber.New()
		app.Use(auth.New(auth.Config{ApiKey: key}))
		app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
		return app
	}

	tests := []struct {
		name   string
		key    string
		header string
		value  string
		want   int
	}{
		{"NoKeyConfigured", "", "", "", 200},
		{"MissingKey", "secret", "", "", 401},
		{"WrongKey", "secret", auth.HeaderAPIKey, "nope", 401},
		{"HeaderKey", "secret", auth.HeaderAPIKey, "secret", 200},
		{"BearerKey", "secret", fiber.HeaderAuthorization, "Bearer secret", 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			resp, err := newApp(tt.key).Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
