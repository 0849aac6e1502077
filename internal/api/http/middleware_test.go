package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/event-service/internal/auth"
	"github.com/spec-kit/event-service/internal/config"
	"github.com/spec-kit/event-service/internal/domain"
	"github.com/spec-kit/event-service/internal/observability"
)

func newTestApp(cfg ...fiber.Config) *fiber.App {
	app := fiber.New(cfg...)
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), time.Second)
	return app
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error.Code
}

func principalAs(user *domain.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth.StorePrincipal(c, user)
		return c.Next()
	}
}

func TestRequireRoleWrongRoleIsForbidden(t *testing.T) {
	app := newTestApp()
	participant := &domain.User{ID: "usr-1", Role: domain.RoleParticipant, Active: true}
	app.Get("/admin", principalAs(participant), auth.RequireRole(domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorCode(t, resp))
}

func TestRequireRoleWithoutPrincipalIsUnauthorized(t *testing.T) {
	app := newTestApp()
	app.Get("/admin", auth.RequireRole(domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, resp))
}

func TestBodyLimitAdmitsDocumentAtSizeCap(t *testing.T) {
	upload := config.UploadConfig{MaxBytes: config.DefaultMaxUploadBytes}
	app := newTestApp(fiber.Config{BodyLimit: upload.BodyLimit()})
	app.Post("/submit", func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return err
		}
		var total int64
		for _, files := range form.File {
			for _, fh := range files {
				total += fh.Size
			}
		}
		return c.JSON(fiber.Map{"bytes": total})
	})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("piece_identite", "cni.pdf")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0x42}, config.DefaultMaxUploadBytes))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/submit", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Bytes int64 `json:"bytes"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, int64(config.DefaultMaxUploadBytes), body.Bytes)
}
