package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"warbler/crud"
	"warbler/domain"
)

const testPassword = "password"

// newTestServices opens a fresh in-memory database named after the test.
func newTestServices(t *testing.T) *crud.Services {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:http_%s?mode=memory&cache=shared&_foreign_keys=1", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	s, err := crud.NewServices(db,
		crud.WithUser("test-pepper"),
		crud.WithMessage(),
		crud.WithFollow(),
		crud.WithLike(),
		crud.WithSession("test-hmac-key"))
	require.NoError(t, err)
	require.NoError(t, s.AutoMigrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func testOptions() Options {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return Options{
		SessionKey:  []byte("test-session-key"),
		CSRFKey:     []byte("0123456789abcdef0123456789abcdef"),
		DisableCSRF: true,
		Logger:      l,
	}
}

// newTestApp starts a server on top of fresh services.
func newTestApp(t *testing.T, opts Options) (*crud.Services, *httptest.Server) {
	t.Helper()
	services := newTestServices(t)
	srv := httptest.NewServer(NewServer(services, opts))
	t.Cleanup(srv.Close)
	return services, srv
}

// testClient is a browser: it keeps cookies and doesn't follow redirects.
type testClient struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newClient(t *testing.T, srv *httptest.Server) *testClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{
		t:    t,
		base: srv.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *testClient) do(req *http.Request) (*http.Response, string) {
	c.t.Helper()
	resp, err := c.client.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, string(body)
}

func (c *testClient) get(path string) (*http.Response, string) {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	require.NoError(c.t, err)
	return c.do(req)
}

func (c *testClient) post(path string, form url.Values) (*http.Response, string) {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodPost, c.base+path, strings.NewReader(form.Encode()))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// redirected asserts that resp redirects to path and returns the page found there.
func (c *testClient) redirected(resp *http.Response, path string) string {
	c.t.Helper()
	require.Equal(c.t, http.StatusFound, resp.StatusCode)
	require.Equal(c.t, path, resp.Header.Get("Location"))
	_, body := c.get(path)
	return body
}

func (c *testClient) login(username string) {
	c.t.Helper()
	resp, _ := c.post("/login", url.Values{"username": {username}, "password": {testPassword}})
	require.Equal(c.t, http.StatusFound, resp.StatusCode)
}

func mustSignup(t *testing.T, s *crud.Services, username string) *domain.User {
	t.Helper()
	user := &domain.User{Username: username, Email: username + "@test.com", Password: testPassword}
	require.NoError(t, s.User.Signup(context.Background(), user))
	return user
}

func mustPost(t *testing.T, s *crud.Services, user *domain.User, text string) *domain.Message {
	t.Helper()
	message := &domain.Message{UserID: user.ID, Text: text}
	require.NoError(t, s.Message.Create(context.Background(), message))
	return message
}

func TestServer_Headers(t *testing.T) {
	_, srv := newTestApp(t, testOptions())
	c := newClient(t, srv)

	resp, _ := c.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	// A valid request id sent by the client is kept.
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "9b2f7a52-4a8f-4a47-8d3a-3bb5e1f0c0de")
	resp, _ = c.do(req)
	assert.Equal(t, "9b2f7a52-4a8f-4a47-8d3a-3bb5e1f0c0de", resp.Header.Get("X-Request-ID"))
}

func TestServer_NotFound(t *testing.T) {
	_, srv := newTestApp(t, testOptions())
	c := newClient(t, srv)

	resp, body := c.get("/does-not-exist")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.Contains(t, body, "404")
}

func TestServer_Static(t *testing.T) {
	_, srv := newTestApp(t, testOptions())
	c := newClient(t, srv)

	resp, body := c.get("/static/stylesheets/style.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body)
}

func TestServer_Metrics(t *testing.T) {
	_, srv := newTestApp(t, testOptions())
	c := newClient(t, srv)

	resp, _ := c.post("/signup", url.Values{
		"username": {"alice"}, "email": {"alice@test.com"}, "password": {testPassword},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp, body := c.get("/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "warbler_signups_total 1")
	assert.Contains(t, body, `route="/signup"`)
}

func TestServer_RequireAuth(t *testing.T) {
	_, srv := newTestApp(t, testOptions())
	c := newClient(t, srv)

	for _, path := range []string{"/messages/new", "/users", "/users/1", "/users/profile"} {
		resp, _ := c.get(path)
		assert.Equal(t, http.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/", resp.Header.Get("Location"), path)
	}

	resp, _ := c.post("/messages/new", url.Values{"text": {"hello"}})
	body := c.redirected(resp, "/")
	assert.Contains(t, body, "Access unauthorized.")
	assert.Contains(t, body, "Sign up now")
}

func TestServer_CSRF(t *testing.T) {
	opts := testOptions()
	opts.DisableCSRF = false
	s, srv := newTestApp(t, opts)
	mustSignup(t, s, "alice")
	c := newClient(t, srv)

	_, body := c.get("/login")
	assert.Contains(t, body, `name="csrf_token"`)

	// A post without the token is turned away before the handler runs.
	resp, _ := c.post("/login", url.Values{"username": {"alice"}, "password": {testPassword}})
	body = c.redirected(resp, "/")
	assert.Contains(t, body, "Access unauthorized.")
	assert.NotContains(t, body, "Log out")
}
