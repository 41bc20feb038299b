package authtransport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard/backend/authsvc/inmem"
	"github.com/taskboard/backend/authsvc/pkg/authendpoint"
	"github.com/taskboard/backend/authsvc/pkg/authservice"
	"github.com/taskboard/backend/tasksvc"
	"github.com/taskboard/backend/usersvc"
	usergorm "github.com/taskboard/backend/usersvc/db/gorm"
	"gorm.io/driver/sqlite"
	libgorm "gorm.io/gorm"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := libgorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &libgorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&usersvc.User{}, &tasksvc.Task{}))

	logger := log.NewNopLogger()
	client := inmem.NewClient()

	svc := authservice.NewBasicService(
		usergorm.NewUserRepository(db),
		authservice.NewTokenizer(),
		authservice.NewBcryptHasher(),
		client,
	)

	server := httptest.NewServer(NewHTTPHandler(authendpoint.New(svc, logger), client, logger))
	t.Cleanup(server.Close)

	return server
}

func postJSON(t *testing.T, server *httptest.Server, path string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))

	resp, err := server.Client().Post(server.URL+path, "application/json", &buf)
	require.NoError(t, err)

	return resp
}

func credentials(username, password string) map[string]string {
	return map[string]string{"username": username, "password": password}
}

func TestHTTPRegister(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server, "/register", credentials("gopher", "secret"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body authendpoint.RegisterResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()

	assert.Equal(t, "gopher", body.User.Username)
	assert.Zero(t, body.User.TasksCount)

	t.Run("duplicate username", func(t *testing.T) {
		resp := postJSON(t, server, "/register", credentials("gopher", "other"))
		resp.Body.Close()

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestHTTPLogin(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server, "/register", credentials("gopher", "secret"))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	t.Run("sets the refresh cookie", func(t *testing.T) {
		resp := postJSON(t, server, "/login", credentials("gopher", "secret"))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body authendpoint.LoginResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()

		assert.NotEmpty(t, body.Tokens["access"])
		assert.NotEmpty(t, body.Tokens["refresh"])

		var cookie *http.Cookie
		for _, c := range resp.Cookies() {
			if c.Name == refreshCookieName {
				cookie = c
			}
		}
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)
		// The cookie carries a sealed value, never the raw token.
		assert.NotEqual(t, body.Tokens["refresh"], cookie.Value)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := postJSON(t, server, "/login", credentials("gopher", "wrong"))
		resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestHTTPRefreshFromCookie(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server, "/register", credentials("gopher", "secret"))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, server, "/login", credentials("gopher", "secret"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login authendpoint.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	resp.Body.Close()

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == refreshCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	req, err := http.NewRequest("POST", server.URL+"/refresh", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)

	resp, err = server.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var refreshed authendpoint.RefreshResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&refreshed))
	resp.Body.Close()

	assert.NotEmpty(t, refreshed.Tokens["access"])
	assert.NotEqual(t, login.Tokens["access"], refreshed.Tokens["access"])

	t.Run("no cookie and no bearer token", func(t *testing.T) {
		req, err := http.NewRequest("POST", server.URL+"/refresh", nil)
		require.NoError(t, err)

		resp, err := server.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestHTTPLogout(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server, "/register", credentials("gopher", "secret"))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, server, "/login", credentials("gopher", "secret"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login authendpoint.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	resp.Body.Close()

	logout := func() *http.Response {
		req, err := http.NewRequest("POST", server.URL+"/logout", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+login.Tokens["access"])

		resp, err := server.Client().Do(req)
		require.NoError(t, err)

		return resp
	}

	resp = logout()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body authendpoint.LogoutResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.True(t, body.Success)

	t.Run("token is revoked afterwards", func(t *testing.T) {
		resp := logout()
		resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
