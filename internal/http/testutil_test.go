package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/videoanalyzer/internal/auth"
	"github.com/mrlokans/videoanalyzer/internal/config"
	"github.com/mrlokans/videoanalyzer/internal/database"
	"github.com/mrlokans/videoanalyzer/internal/database/tags"
	"github.com/mrlokans/videoanalyzer/internal/database/videos"
	"github.com/mrlokans/videoanalyzer/internal/entities"
	"github.com/mrlokans/videoanalyzer/internal/services"
	"github.com/mrlokans/videoanalyzer/internal/youtube"
)

const testAPIKey = "router-test-key"

type stubMetadata struct{}

func (stubMetadata) GetVideo(ctx context.Context, videoID string) (*youtube.Metadata, error) {
	if videoID == "missing0000" {
		return nil, youtube.ErrVideoNotFound
	}
	return &youtube.Metadata{Title: "Video " + videoID, Channel: "Channel"}, nil
}

type stubTranscripts struct{}

func (stubTranscripts) Extract(ctx context.Context, videoURL, videoID string) (*youtube.Transcript, error) {
	return &youtube.Transcript{Content: "transcript of " + videoID, Language: "en"}, nil
}

type testServer struct {
	router  *gin.Engine
	db      *database.Database
	videos  *videos.Repository
	tags    *tags.Repository
	manager *auth.Manager
	static  string
}

// newTestServer builds the full router on a temp database with stubbed
// YouTube access.
func newTestServer(t *testing.T, mode auth.Mode) *testServer {
	t.Helper()

	db := setupTestDB(t)
	videoRepo := videos.NewRepository(db.DB)
	tagRepo := tags.NewRepository(db.DB)
	service := services.NewAnalysisService(videoRepo, stubMetadata{}, stubTranscripts{}, nil, zerolog.Nop())

	authCfg := config.Auth{APIKey: testAPIKey, CookieName: auth.DefaultCookieName}
	modeInfo := auth.ModeInfo{Mode: mode, SessionDays: 90}
	manager := auth.NewManager(auth.NewMemoryStore(), auth.Durations{Short: 24 * time.Hour, Long: 90 * 24 * time.Hour}, zerolog.Nop())
	middleware := auth.NewMiddleware(manager, modeInfo, authCfg, zerolog.Nop())
	controller := auth.NewAuthController(manager, middleware, modeInfo, authCfg, zerolog.Nop())
	t.Cleanup(controller.Stop)

	static := t.TempDir()
	for _, name := range []string{"index.html", "login.html", "video.html", "settings.html"} {
		require.NoError(t, os.WriteFile(filepath.Join(static, name), []byte("<html>"+name+"</html>"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(static, "app.js"), []byte("console.log('app')"), 0o644))

	router := NewRouter(RouterConfig{
		Logger:          zerolog.Nop(),
		AuthController:  controller,
		AuthMiddleware:  middleware,
		Mode:            modeInfo,
		AnalysisService: service,
		TagStore:        tagRepo,
		Database:        db,
		StaticPath:      static,
		Version:         "test",
	})

	return &testServer{router: router, db: db, videos: videoRepo, tags: tagRepo, manager: manager, static: static}
}

func (s *testServer) request(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(auth.APIKeyHeader, testAPIKey)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) seedVideo(t *testing.T, videoID string) *entities.VideoAnalysis {
	t.Helper()
	analysis := &entities.VideoAnalysis{
		URL:     "https://youtu.be/" + videoID,
		VideoID: videoID,
		Title:   "Seeded " + videoID,
	}
	require.NoError(t, s.videos.Create(context.Background(), analysis))
	return analysis
}

func (s *testServer) seedTag(t *testing.T, name string) *entities.Tag {
	t.Helper()
	tag, err := s.tags.Create(context.Background(), name, nil)
	require.NoError(t, err)
	return tag
}
