package app

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"member-admin-api/internal/bootstrap"
	"member-admin-api/internal/config"
	"member-admin-api/internal/database"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 1x1 transparent PNG.
const tinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="

type testServer struct {
	t          *testing.T
	app        *fiber.App
	cfg        *config.Config
	components *bootstrap.AppComponents
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	cfg := &config.Config{
		AppEnv:               "test",
		AppName:              "member-admin-api",
		CORSAllowOrigins:     "*",
		CORSAllowMethods:     "GET,POST,PUT,DELETE",
		CORSAllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		JWTSecret:            "server-test-secret",
		JWTTTL:               time.Hour,
		BcryptCost:           4,
		DBDriver:             "sqlite",
		DatabaseDSN:          filepath.Join(t.TempDir(), "members.db"),
		LogLevel:             "info",
		UploadDir:            t.TempDir(),
		UploadMaxBytes:       64 * 1024,
		DashboardRequireAuth: true,
		DashboardRecentLimit: 10,
		MetricsEnabled:       true,
	}
	for _, m := range mutate {
		m(cfg)
	}

	logger := zap.NewNop()
	store, err := database.OpenStore(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseStore(store) })

	components, err := bootstrap.InitializeAppComponents(cfg, logger, store, nil, nil)
	require.NoError(t, err)

	return &testServer{
		t:          t,
		app:        NewFiberApp(cfg, logger, logger, components, store, nil),
		cfg:        cfg,
		components: components,
	}
}

func (s *testServer) do(method, target, token string, body interface{}) (int, map[string]interface{}) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}
	return s.send(req, token)
}

func (s *testServer) send(req *http.Request, token string) (int, map[string]interface{}) {
	s.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(s.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (s *testServer) register(username, email string) string {
	s.t.Helper()
	status, body := s.do(http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": username,
		"email":    email,
		"password": "secret123",
	})
	require.Equal(s.t, fiber.StatusCreated, status, body)
	return body["token"].(string)
}

func (s *testServer) createRole(token, name string) uint {
	s.t.Helper()
	status, body := s.do(http.MethodPost, "/api/roles", token, fiber.Map{"name": name})
	require.Equal(s.t, fiber.StatusCreated, status, body)
	return uint(body["id"].(float64))
}

func memberBody(name, email string, roleID uint) fiber.Map {
	return fiber.Map{"name": name, "email": email, "date_of_birth": "1990-04-12", "role_id": roleID}
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t)

	token := s.register("alice", "Alice@Example.com")
	assert.NotEmpty(t, token)

	status, body := s.do(http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": "alice2", "email": "alice@example.com", "password": "secret123",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Email already in use", body["message"])

	status, body = s.do(http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": "alice", "email": "other@example.com", "password": "secret123",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Username already exists", body["message"])

	status, body = s.do(http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": "bob", "email": "not-an-email", "password": "secret123",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.NotEmpty(t, body["details"])

	status, body = s.do(http.MethodPost, "/api/auth/login", "", fiber.Map{"email": "alice@example.com", "password": "secret123"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, body["token"])

	status, body = s.do(http.MethodPost, "/api/auth/login", "", fiber.Map{"email": "alice@example.com", "password": "wrong-pass"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid credentials", body["message"])

	status, body = s.do(http.MethodPost, "/api/auth/login", "", fiber.Map{"email": "nobody@example.com", "password": "secret123"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "User not found", body["message"])

	status, body = s.do(http.MethodGet, "/api/profile", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alice", body["username"])
	assert.NotContains(t, body, "password_hash")
}

func TestAuthGate(t *testing.T) {
	s := newTestServer(t)
	token := s.register("gatekeeper", "gate@example.com")

	status, body := s.do(http.MethodGet, "/api/members", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Authentication required", body["message"])

	req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	req.Header.Set("Authorization", "Token "+token)
	status, _ = s.send(req, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body = s.do(http.MethodGet, "/api/members", "not.a.jwt", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid token", body["message"])

	past := func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := s.components.Tokens.WithClock(past).Issue(1)
	require.NoError(t, err)
	status, body = s.do(http.MethodGet, "/api/members", expired, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Token expired", body["message"])

	ghost, err := s.components.Tokens.Issue(9999)
	require.NoError(t, err)
	status, _ = s.do(http.MethodGet, "/api/members", ghost, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = s.do(http.MethodGet, "/api/members", token, nil)
	assert.Equal(t, fiber.StatusOK, status)

	// The gate must not leak onto public routes that share the /api prefix.
	status, _ = s.do(http.MethodPost, "/api/auth/login", "", fiber.Map{"email": "gate@example.com", "password": "secret123"})
	assert.Equal(t, fiber.StatusOK, status)
}

func TestMemberLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.register("admin", "admin@example.com")
	roleID := s.createRole(token, "Volunteer")

	status, body := s.do(http.MethodPost, "/api/members", token, memberBody("Jane Doe", "jane@example.com", roleID))
	require.Equal(t, fiber.StatusCreated, status, body)
	memberID := uint(body["id"].(float64))
	assert.Equal(t, "1990-04-12", body["date_of_birth"])

	status, body = s.do(http.MethodPost, "/api/members", token, memberBody("Jane Two", "jane@example.com", roleID))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Email already in use", body["message"])

	status, body = s.do(http.MethodPost, "/api/members", token, memberBody("No Role", "norole@example.com", 4242))
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Role not found", body["message"])

	status, body = s.do(http.MethodPost, "/api/members", token, fiber.Map{
		"name": "Bad Date", "email": "date@example.com", "date_of_birth": "12/04/1990", "role_id": roleID,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = s.do(http.MethodGet, "/api/members?page=1&limit=5", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["totalRecords"])
	assert.EqualValues(t, 1, body["totalPages"])
	assert.Len(t, body["members"], 1)

	memberURL := fmt.Sprintf("/api/members/%d", memberID)
	status, body = s.do(http.MethodPut, memberURL, token, fiber.Map{"name": "Jane Smith"})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "Jane Smith", body["name"])
	assert.Equal(t, "jane@example.com", body["email"], "omitted fields keep their value")

	status, body = s.do(http.MethodDelete, memberURL, token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Member deleted successfully", body["message"])

	status, _ = s.do(http.MethodGet, memberURL, token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = s.do(http.MethodGet, memberURL+"?include_deleted=true", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.NotNil(t, body["deleted_at"])

	status, _ = s.do(http.MethodDelete, memberURL, token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = s.do(http.MethodGet, "/api/members/abc", token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = s.do(http.MethodGet, fmt.Sprintf("/api/activity?subject_type=member&subject_id=%d", memberID), token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 3, body["totalRecords"])
	entries := body["activity"].([]interface{})
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, "admin", e.(map[string]interface{})["performedBy"])
	}

	status, _ = s.do(http.MethodGet, "/api/activity?subject_type=user", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestRoleLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.register("admin", "admin@example.com")
	roleID := s.createRole(token, "Board")

	status, body := s.do(http.MethodPost, "/api/roles", token, fiber.Map{"description": "nameless"})
	assert.Equal(t, fiber.StatusBadRequest, status, body)

	roleURL := fmt.Sprintf("/api/roles/%d", roleID)
	status, body = s.do(http.MethodPut, roleURL, token, fiber.Map{"description": "Runs the club"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Board", body["name"])
	assert.Equal(t, "Runs the club", body["description"])

	status, _ = s.do(http.MethodDelete, roleURL, token, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, body = s.do(http.MethodGet, "/api/roles", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 0, body["totalRecords"])

	status, body = s.do(http.MethodGet, "/api/roles?include_deleted=true", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["totalRecords"])

	status, body = s.do(http.MethodPost, "/api/members", token, memberBody("Late", "late@example.com", roleID))
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Role not found", body["message"])
}

func multipartMember(t *testing.T, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("profile_picture", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/members", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestMemberProfilePictureUpload(t *testing.T) {
	s := newTestServer(t)
	token := s.register("admin", "admin@example.com")
	roleID := s.createRole(token, "Member")

	png, err := base64.StdEncoding.DecodeString(tinyPNG)
	require.NoError(t, err)
	fields := map[string]string{
		"name":          "Pic Owner",
		"email":         "pic@example.com",
		"date_of_birth": "1985-01-30",
		"role_id":       fmt.Sprint(roleID),
	}

	status, body := s.send(multipartMember(t, fields, "avatar.png", png), token)
	require.Equal(t, fiber.StatusCreated, status, body)
	picture, _ := body["profile_picture"].(string)
	require.True(t, strings.HasPrefix(picture, "profile_pics/"), picture)
	assert.FileExists(t, filepath.Join(s.cfg.UploadDir, filepath.FromSlash(picture)))

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/uploads/"+picture, nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	fields["email"] = "txt@example.com"
	status, _ = s.send(multipartMember(t, fields, "notes.txt", []byte("hello")), token)
	assert.Equal(t, fiber.StatusBadRequest, status)

	fields["email"] = "fake@example.com"
	status, _ = s.send(multipartMember(t, fields, "fake.png", []byte("GIF89a not really a png")), token)
	assert.Equal(t, fiber.StatusBadRequest, status)

	// A rejected write must not leave its upload behind.
	fields["email"] = "pic@example.com"
	status, _ = s.send(multipartMember(t, fields, "dup.png", png), token)
	assert.Equal(t, fiber.StatusBadRequest, status)
	entries, err := os.ReadDir(filepath.Join(s.cfg.UploadDir, "profile_pics"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDashboardEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.register("admin", "admin@example.com")
	roleA := s.createRole(token, "Gold")
	roleB := s.createRole(token, "Silver")

	for i, roleID := range []uint{roleA, roleA, roleB} {
		status, body := s.do(http.MethodPost, "/api/members", token, memberBody("M", fmt.Sprintf("m%d@example.com", i), roleID))
		require.Equal(t, fiber.StatusCreated, status, body)
	}

	status, _ := s.do(http.MethodGet, "/api/dashboard/stats", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body := s.do(http.MethodGet, "/api/dashboard/stats", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 3, body["totalMembers"])

	status, body = s.do(http.MethodGet, "/api/dashboard/recent-activity-counts", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 3, body["added"])

	status, body = s.do(http.MethodGet, "/api/dashboard/overview?limit=2", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["recent"], 2)
	assert.Len(t, body["roles"], 2)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/recent", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var recent []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recent))
	assert.Len(t, recent, 5, "two roles and three members were created")
	assert.Equal(t, "admin", recent[0]["performedBy"])
}

func TestDashboardPublicWhenConfigured(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.DashboardRequireAuth = false })

	status, body := s.do(http.MethodGet, "/api/dashboard/stats", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 0, body["totalMembers"])

	status, _ = s.do(http.MethodGet, "/api/members", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status, "only the dashboard is opened")
}

func TestHealthMetricsAndNotFound(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	deps := body["dependencies"].(map[string]interface{})
	assert.Equal(t, "connected", deps["store"])
	assert.Equal(t, "disabled", deps["log_db"])

	status, body = s.do(http.MethodGet, "/api/nowhere", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.NotEmpty(t, body["message"])

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "member_admin_http_requests_total")
}
