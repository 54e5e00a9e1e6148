package controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vnkhanh/meeting-assistant-backend/config"
	"github.com/vnkhanh/meeting-assistant-backend/controllers"
	"github.com/vnkhanh/meeting-assistant-backend/models"
	"github.com/vnkhanh/meeting-assistant-backend/routes"
	"github.com/vnkhanh/meeting-assistant-backend/services"
	"github.com/vnkhanh/meeting-assistant-backend/utils"
)

// fakeRemote giả lập analysis service + Supabase storage cho test.
type fakeRemote struct {
	Server *httptest.Server

	ScoringCalls   int64
	TranscribeText string
	StopTranscript string
	LiveText       string
	LiveStatus     string
	FailStop       bool
}

func newFakeRemote(t *testing.T) *fakeRemote {
	t.Helper()

	f := &fakeRemote{
		TranscribeText: "day la transcript",
		StopTranscript: "transcript cuoi cung",
		LiveStatus:     "success",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/transcribe", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(64 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if _, _, err := r.FormFile("file"); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "No file uploaded"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"transcript": f.TranscribeText})
	})
	mux.HandleFunc("/start_realtime_transcription", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "Real-time transcription started."})
	})
	mux.HandleFunc("/stop_realtime_transcription", func(w http.ResponseWriter, r *http.Request) {
		if f.FailStop {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"transcript": f.StopTranscript})
	})
	mux.HandleFunc("/get_live_transcript", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": f.LiveStatus, "text": f.LiveText})
	})
	mux.HandleFunc("/summarize", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"summary": "tom tat cuoc hop"})
	})
	mux.HandleFunc("/action-items", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"action_items": "1. lam bao cao"})
	})
	mux.HandleFunc("/minutes-of-meeting", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"minutes": "bien ban cuoc hop"})
	})
	mux.HandleFunc("/sentiment", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"sentiment": "tich cuc"})
	})
	mux.HandleFunc("/scoring-mechanism", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&f.ScoringCalls, 1)
		json.NewEncoder(w).Encode(map[string]string{"score": "8/10"})
	})
	// Supabase storage: nhận upload bất kỳ, trả JSON rỗng
	mux.HandleFunc("/storage/v1/", func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		json.NewEncoder(w).Encode(map[string]string{"Key": "ok"})
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// setupTest dựng DB SQLite in-memory, router đầy đủ và fake remote
func setupTest(t *testing.T) (*gin.Engine, *fakeRemote) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	t.Setenv("JWT_SECRET", "test-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	config.DB = db

	remote := newFakeRemote(t)
	t.Setenv("SUPABASE_URL", remote.Server.URL)
	t.Setenv("SUPABASE_KEY", "test-key")

	controllers.Analysis = &services.AnalysisClient{BaseURL: remote.Server.URL, HTTP: remote.Server.Client()}
	controllers.Recorder = services.NewRecorderManager(controllers.Analysis)

	r := gin.New()
	r = routes.SetupRouter(r, db)
	return r, remote
}

// createUser tạo user + token đăng nhập
func createUser(t *testing.T, email string) (models.User, string) {
	t.Helper()

	user := models.User{Email: email, Password: "x", FullName: "Test User"}
	require.NoError(t, config.DB.Create(&user).Error)

	token, err := utils.GenerateToken(user.ID.String())
	require.NoError(t, err)
	return user, token
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
