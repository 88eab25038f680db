package flash

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/roster-service/internal/config"
)

const sessionID = "4f9a5f8e-0b1c-4d7e-9a8b-2c3d4e5f6a7b"

var flashCfg = config.FlashConfig{CookieName: "roster_flash", TTLSeconds: 300}

func newFlashApp(store Store) *fiber.App {
	app := fiber.New()
	app.Get("/add", func(c *fiber.Ctx) error {
		if err := store.Add(c, Success("Manager updated successfully")); err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/pop", func(c *fiber.Ctx) error {
		messages, err := store.Pop(c)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		}
		return c.JSON(messages)
	})
	return app
}

func decodeMessages(t *testing.T, resp *http.Response) []Message {
	t.Helper()
	var messages []Message
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&messages))
	return messages
}

func expectPush(mock redismock.ClientMock, key string, msg Message) {
	payload, _ := json.Marshal(msg)
	mock.ExpectTxPipeline()
	mock.ExpectRPush(key, string(payload)).SetVal(1)
	mock.ExpectExpire(key, 5*time.Minute).SetVal(true)
	mock.ExpectTxPipelineExec()
}

func TestRedisStoreAddAndPop(t *testing.T) {
	db, mock := redismock.NewClientMock()
	app := newFlashApp(NewRedisStore(db, flashCfg))
	key := keyPrefix + sessionID

	first, _ := json.Marshal(Success("Manager updated successfully"))
	expectPush(mock, key, Success("Manager updated successfully"))
	expectPush(mock, key, Success("Manager updated successfully"))
	mock.ExpectTxPipeline()
	mock.ExpectLRange(key, 0, -1).SetVal([]string{string(first), "{broken", string(first)})
	mock.ExpectDel(key).SetVal(1)
	mock.ExpectTxPipelineExec()

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/add", nil)
		req.AddCookie(&http.Cookie{Name: "roster_flash", Value: sessionID})
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Empty(t, resp.Cookies())
	}

	req := httptest.NewRequest(http.MethodGet, "/pop", nil)
	req.AddCookie(&http.Cookie{Name: "roster_flash", Value: sessionID})
	resp, err := app.Test(req)
	require.NoError(t, err)
	want := Message{Kind: KindSuccess, Text: "Manager updated successfully"}
	assert.Equal(t, []Message{want, want}, decodeMessages(t, resp))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStorePopEmpty(t *testing.T) {
	db, mock := redismock.NewClientMock()
	app := newFlashApp(NewRedisStore(db, flashCfg))
	key := keyPrefix + sessionID

	mock.ExpectTxPipeline()
	mock.ExpectLRange(key, 0, -1).SetVal([]string{})
	mock.ExpectDel(key).SetVal(0)
	mock.ExpectTxPipelineExec()

	req := httptest.NewRequest(http.MethodGet, "/pop", nil)
	req.AddCookie(&http.Cookie{Name: "roster_flash", Value: sessionID})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeMessages(t, resp))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStorePopWithoutCookie(t *testing.T) {
	db, mock := redismock.NewClientMock()
	app := newFlashApp(NewRedisStore(db, flashCfg))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/pop", nil))
	require.NoError(t, err)
	assert.Empty(t, decodeMessages(t, resp))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreAddFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	app := newFlashApp(NewRedisStore(db, flashCfg))

	mock.ExpectTxPipeline()
	mock.ExpectRPush(keyPrefix+sessionID, `{"kind":"success","message":"Manager updated successfully"}`).
		SetErr(errors.New("connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/add", nil)
	req.AddCookie(&http.Cookie{Name: "roster_flash", Value: sessionID})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestCookieStoreRoundTrip(t *testing.T) {
	app := newFlashApp(NewCookieStore(flashCfg))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/add", nil))
	require.NoError(t, err)
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "roster_flash", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/pop", nil)
	req.AddCookie(&http.Cookie{Name: cookies[0].Name, Value: cookies[0].Value})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, []Message{Success("Manager updated successfully")}, decodeMessages(t, resp))

	cleared := resp.Cookies()
	require.Len(t, cleared, 1)
	assert.Empty(t, cleared[0].Value)
}

func TestCookieStoreIgnoresGarbage(t *testing.T) {
	app := newFlashApp(NewCookieStore(flashCfg))

	req := httptest.NewRequest(http.MethodGet, "/pop", nil)
	req.AddCookie(&http.Cookie{Name: "roster_flash", Value: "not*base64"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Empty(t, decodeMessages(t, resp))
}

func TestNewSelectsBackend(t *testing.T) {
	db, _ := redismock.NewClientMock()

	store, err := New(config.FlashConfig{Backend: config.FlashBackendRedis}, db)
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, store)

	store, err = New(config.FlashConfig{Backend: config.FlashBackendCookie}, nil)
	require.NoError(t, err)
	assert.IsType(t, &CookieStore{}, store)

	_, err = New(config.FlashConfig{Backend: config.FlashBackendRedis}, nil)
	assert.Error(t, err)

	_, err = New(config.FlashConfig{Backend: "memcached"}, nil)
	assert.Error(t, err)
}
