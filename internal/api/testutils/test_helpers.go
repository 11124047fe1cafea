package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/litigation-tracker/internal/api"
	"github.com/rongwang/litigation-tracker/internal/blob"
	"github.com/rongwang/litigation-tracker/internal/importer"
	"github.com/rongwang/litigation-tracker/internal/metrics"
	"github.com/rongwang/litigation-tracker/internal/models"
	"github.com/rongwang/litigation-tracker/internal/repository"
	"github.com/rongwang/litigation-tracker/internal/service"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	TestJWTSecret     = "test-secret-key"
	TestAdminName     = "admin"
	TestAdminPassword = "admin123"
	TestUserPassword  = "secret1"
)

// Clock is a settable time source shared by the service and importer.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// TestContext holds all dependencies for tests
type TestContext struct {
	Router     *gin.Engine
	Repository repository.Repository
	Service    service.Service
	Blobs      *blob.FSStore
	Metrics    *metrics.Metrics
	Clock      *Clock
	AdminJWT   string
}

// SetupTestContext wires the full stack over the in-memory repository.
// The clock starts at 2024-06-01 15:30 UTC.
func SetupTestContext(t *testing.T) *TestContext {
	t.Helper()

	clock := &Clock{t: time.Date(2024, 6, 1, 15, 30, 0, 0, time.UTC)}
	repo := repository.NewMemoryRepository()
	m := metrics.New()

	svc := service.NewDefaultService(repo, service.Options{
		JWTSecret:    TestJWTSecret,
		TokenTTL:     480 * time.Minute,
		StoreTimeout: time.Second,
		BcryptCost:   bcrypt.MinCost,
		Now:          clock.Now,
		Metrics:      m,
	})
	_, err := svc.EnsureDefaultAdmin(context.Background(), TestAdminName, TestAdminPassword)
	require.NoError(t, err, "Failed to seed admin")

	blobs, err := blob.NewFSStore(t.TempDir())
	require.NoError(t, err, "Failed to create blob store")

	im := importer.New(svc, importer.Options{Now: clock.Now, Metrics: m})

	handler := api.NewHandler(svc, blobs, im, api.Options{
		Metrics:            m,
		LoginRatePerMinute: 1000,
		MaxUploadBytes:     1 << 20,
	})

	// Set up Gin router
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(gin.Recovery(), m.Instrument())
	handler.SetupRoutes(router)

	tc := &TestContext{
		Router:     router,
		Repository: repo,
		Service:    svc,
		Blobs:      blobs,
		Metrics:    m,
		Clock:      clock,
	}
	tc.AdminJWT = tc.Login(t, TestAdminName, TestAdminPassword)
	return tc
}

// Login returns a bearer token for the given credentials
func (tc *TestContext) Login(t *testing.T, username, password string) string {
	t.Helper()
	w := PerformRequest(tc.Router, http.MethodPost, "/api/auth/login",
		models.LoginRequest{Username: username, Password: password}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.AuthResponse
	DecodeJSON(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// CreateStandardUser creates an account through the API and logs it in
func (tc *TestContext) CreateStandardUser(t *testing.T, username string) string {
	t.Helper()
	w := PerformRequest(tc.Router, http.MethodPost, "/api/users", models.CreateUserRequest{
		Username: username,
		Password: TestUserPassword,
		Role:     string(models.RoleStandard),
	}, AuthHeaders(tc.AdminJWT))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return tc.Login(t, username, TestUserPassword)
}

// CreateCase posts a case and returns the created record
func (tc *TestContext) CreateCase(t *testing.T, token string, req models.CreateCaseRequest) *models.Case {
	t.Helper()
	w := PerformRequest(tc.Router, http.MethodPost, "/api/cases", req, AuthHeaders(token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.CaseResponse
	DecodeJSON(t, w, &resp)
	require.NotNil(t, resp.Case)
	return resp.Case
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// PerformRawRequest sends body as-is with the given content type
func PerformRawRequest(r http.Handler, method, path, contentType string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// PerformUpload posts a multipart form with one file part. An empty
// fileName omits the file part.
func PerformUpload(r http.Handler, path string, fields map[string]string, fileName string, content []byte, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if fileName != "" {
		part, _ := mw.CreateFormFile("file", fileName)
		_, _ = part.Write(content)
	}
	_ = mw.Close()

	return PerformRawRequest(r, http.MethodPost, path, mw.FormDataContentType(), buf.Bytes(), headers)
}

// DecodeJSON unmarshals the response body into v
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}
