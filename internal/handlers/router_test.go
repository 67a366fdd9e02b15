package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/justsurfingit/job-portal/internal/auth"
	"github.com/justsurfingit/job-portal/internal/chat"
	"github.com/justsurfingit/job-portal/internal/config"
	"github.com/justsurfingit/job-portal/internal/database"
	"github.com/justsurfingit/job-portal/internal/dtos"
	"github.com/justsurfingit/job-portal/internal/models"
	"github.com/justsurfingit/job-portal/internal/services"
	"github.com/justsurfingit/job-portal/internal/storage"
	"github.com/justsurfingit/job-portal/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const publicBaseURL = "http://jobs.example.test"

type testServer struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	hub    *chat.Hub
	users  *services.UserService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewDB(t)
	log := zap.NewNop()
	cfg := config.Config{
		Env:             "test",
		CORSOrigins:     []string{"*"},
		StorageDriver:   "local",
		UploadDir:       t.TempDir(),
		PublicBaseURL:   publicBaseURL,
		MaxUploadMB:     1,
		LoginRatePerMin: 100,
	}
	store, err := storage.NewLocal(cfg.UploadDir, cfg.PublicBaseURL+"/uploads")
	require.NoError(t, err)
	md, err := database.LoadMaster("")
	require.NoError(t, err)

	hub := chat.NewHub(log)
	t.Cleanup(hub.Close)
	master := services.NewMasterService(db)
	users := services.NewUserService(db)
	router := NewRouter(Deps{
		Config:       cfg,
		Log:          log,
		DB:           db,
		Tokens:       auth.NewTokenManager("test-secret", time.Hour),
		Hub:          hub,
		Users:        users,
		Companies:    services.NewCompanyService(db),
		Master:       master,
		Jobs:         services.NewJobService(db, log, md.Recommend),
		Favorites:    services.NewFavoriteService(db),
		Applications: services.NewApplicationService(db, log),
		Chat:         services.NewChatService(db, log, hub),
		Uploads:      services.NewUploadService(db, log, store, cfg.MaxUploadMB<<20),
		Columns:      services.NewColumnService(db, log),
		Interviews:   services.NewInterviewService(db),
		Analytics:    services.NewAnalyticsService(db, log),
		LLM:          &services.LLMService{Master: master},
		Matcher:      services.NewCompanyMatcher(db),
	})
	return &testServer{t: t, router: router, db: db, hub: hub, users: users}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var r *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(b)
	} else {
		r = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// register signs up a user over HTTP and returns the token and the user.
func (s *testServer) register(role, companyName string) (string, *models.User) {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/auth/register", "", dtos.RegisterRequest{
		Email:       fmt.Sprintf("%s-%d@example.com", role, time.Now().UnixNano()),
		Password:    testutil.Password,
		Name:        "Test " + role,
		Role:        role,
		CompanyName: companyName,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	res := decode[dtos.AuthResponse](s.t, w)
	return res.Token, res.User
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":"up"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/register", "", dtos.RegisterRequest{
		Email: "root@example.com", Password: testutil.Password, Name: "Root", Role: models.RoleAdmin,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "admins cannot self-register")

	token, user := s.register(models.RoleJobSeeker, "")

	w = s.do(http.MethodPost, "/api/v1/auth/login", "", dtos.LoginRequest{Email: user.Email, Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(http.MethodPost, "/api/v1/auth/login", "", dtos.LoginRequest{Email: user.Email, Password: testutil.Password})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, user.Email, decode[models.User](t, w).Email)
	assert.NotContains(t, w.Body.String(), "password")

	name := "Renamed"
	w = s.do(http.MethodPut, "/api/v1/auth/me", token, dtos.UpdateProfileRequest{Name: &name})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Renamed", decode[models.User](t, w).Name)

	w = s.do(http.MethodPut, "/api/v1/auth/me/password", token, dtos.ChangePasswordRequest{CurrentPassword: "bad-password", NewPassword: "another-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(http.MethodPut, "/api/v1/auth/me/password", token, dtos.ChangePasswordRequest{CurrentPassword: testutil.Password, NewPassword: "another-password"})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestJobsAndApplications(t *testing.T) {
	s := newTestServer(t)
	employerToken, _ := s.register(models.RoleEmployer, "Acme")
	seekerToken, _ := s.register(models.RoleJobSeeker, "")
	remote := testutil.FeatureID(t, s.db, "remote")
	tokyo := testutil.PrefectureID(t, s.db, "13")

	job := dtos.JobRequest{
		Title: "Go Engineer", Description: "APIs", EmploymentType: models.EmploymentFullTime,
		FeatureIDs: []uint{remote}, PrefectureIDs: []uint{tokyo}, Publish: true,
	}
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/v1/jobs", "", job).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/v1/jobs", seekerToken, job).Code)

	w := s.do(http.MethodPost, "/api/v1/jobs", employerToken, job)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Job](t, w)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/v1/jobs?q=go&feature_ids=%d&prefecture_ids=%d", remote, tokyo), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[services.SearchResult](t, w)
	require.Len(t, res.Items, 1)
	assert.Equal(t, created.ID, res.Items[0].ID)

	w = s.do(http.MethodGet, "/api/v1/jobs?feature_ids=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/jobs?sort=recommend", seekerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[services.SearchResult](t, w)
	require.Len(t, res.Items, 1)
	assert.NotNil(t, res.Items[0].RecommendScore)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, fmt.Sprintf("/api/v1/jobs/%d", created.ID), "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/jobs/9999", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/jobs/abc", "", nil).Code)

	favPath := fmt.Sprintf("/api/v1/jobs/%d/favorite", created.ID)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodPost, favPath, seekerToken, nil).Code)
	w = s.do(http.MethodGet, "/api/v1/me/favorites", seekerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Favorite](t, w), 1)

	applyPath := fmt.Sprintf("/api/v1/jobs/%d/applications", created.ID)
	w = s.do(http.MethodPost, applyPath, seekerToken, dtos.ApplyRequest{CoverLetter: "Hi"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	app := decode[models.Application](t, w)
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, applyPath, seekerToken, dtos.ApplyRequest{}).Code)

	w = s.do(http.MethodGet, "/api/v1/employer/applications", employerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Application](t, w), 1)

	statusPath := fmt.Sprintf("/api/v1/applications/%d/status", app.ID)
	w = s.do(http.MethodPatch, statusPath, employerToken, dtos.ApplicationStatusRequest{Status: models.AppHired})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPatch, statusPath, employerToken, dtos.ApplicationStatusRequest{Status: models.AppScreening})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.AppScreening, decode[models.Application](t, w).Status)

	w = s.do(http.MethodGet, "/api/v1/employer/analytics", employerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[[]dtos.JobStat](t, w)
	require.Len(t, stats, 1)
	assert.EqualValues(t, 1, stats[0].Applications)

	// extraction needs an API key
	w = s.do(http.MethodPost, "/api/v1/jobs/extract", employerToken, dtos.JobExtractionRequest{RawHTML: "<p>job</p>"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	seekerToken, seeker := s.register(models.RoleJobSeeker, "")
	_, err := s.users.CreateAdmin(context.Background(), "admin@example.com", testutil.Password, "Admin")
	require.NoError(t, err)
	w := s.do(http.MethodPost, "/api/v1/auth/login", "", dtos.LoginRequest{Email: "admin@example.com", Password: testutil.Password})
	require.Equal(t, http.StatusOK, w.Code)
	adminToken := decode[dtos.AuthResponse](t, w).Token

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/admin/users", seekerToken, nil).Code)

	w = s.do(http.MethodGet, "/api/v1/admin/users?role=job_seeker", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[dtos.Page[models.User]](t, w).Total)

	w = s.do(http.MethodGet, "/api/v1/admin/analytics/summary", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[dtos.AnalyticsSummary](t, w).Totals.JobSeekers)
	w = s.do(http.MethodGet, "/api/v1/admin/analytics/summary?from=bad", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/admin/columns", adminToken, dtos.ColumnRequest{Title: "Welcome", Body: "<p>Hello</p>", Published: true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(http.MethodGet, "/api/v1/columns/welcome", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hello", decode[models.Column](t, w).Excerpt)

	suspended := true
	w = s.do(http.MethodPatch, fmt.Sprintf("/api/v1/admin/users/%d/suspend", seeker.ID), adminToken, dtos.SuspendRequest{Suspended: &suspended})
	require.Equal(t, http.StatusOK, w.Code)
	// tokens of suspended users stop working immediately
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/auth/me", seekerToken, nil).Code)
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func TestUploadServesLocalFiles(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register(models.RoleJobSeeker, "")

	upload := func(purpose string, content []byte) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("purpose", purpose))
		fw, err := mw.CreateFormFile("file", "avatar.png")
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w
	}

	w := upload("avatar", pngBytes)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	res := decode[dtos.UploadResponse](t, w)
	assert.Equal(t, "image/png", res.ContentType)
	require.True(t, strings.HasPrefix(res.URL, publicBaseURL+"/uploads/avatar/"), res.URL)

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, strings.TrimPrefix(res.URL, publicBaseURL), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pngBytes, w.Body.Bytes())

	assert.Equal(t, http.StatusBadRequest, upload("avatar", []byte("plain text")).Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, upload("avatar", bytes.Repeat(pngBytes, 40000)).Code)
}

func TestChatOverWebSocket(t *testing.T) {
	s := newTestServer(t)
	employerToken, _ := s.register(models.RoleEmployer, "Acme")
	seekerToken, seeker := s.register(models.RoleJobSeeker, "")

	w := s.do(http.MethodPost, "/api/v1/chat/rooms", employerToken, dtos.OpenRoomRequest{PeerID: seeker.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	room := decode[models.ChatRoom](t, w)

	srv := httptest.NewServer(s.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/chat/ws?token=" + seekerToken

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/chat/ws", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.hub.Connected(seeker.ID) == 1 }, 2*time.Second, 10*time.Millisecond)

	w = s.do(http.MethodPost, fmt.Sprintf("/api/v1/chat/rooms/%d/messages", room.ID), employerToken, dtos.SendMessageRequest{Body: "Hello there"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev services.ChatEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, services.EventMessage, ev.Type)
	require.NotNil(t, ev.Message)
	assert.Equal(t, "Hello there", ev.Message.Body)

	w = s.do(http.MethodGet, "/api/v1/chat/unread", seekerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[dtos.UnreadResponse](t, w).Unread)

	// reply over the socket; the sender gets its own message echoed
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "message", "room_id": room.ID, "body": "Hi!"}))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "Hi!", ev.Message.Body)
	assert.Equal(t, seeker.ID, ev.Message.SenderID)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "read", "room_id": room.ID}))
	require.Eventually(t, func() bool {
		w := s.do(http.MethodGet, "/api/v1/chat/unread", seekerToken, nil)
		return w.Code == http.StatusOK && decode[dtos.UnreadResponse](t, w).Unread == 0
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "message", "room_id": 9999, "body": "lost"}))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, services.EventError, ev.Type)
	assert.Contains(t, ev.Error, "not found")
}
