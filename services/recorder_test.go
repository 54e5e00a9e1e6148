package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManagerWithServer(t *testing.T) *RecorderManager {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/start_realtime_transcription", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "started"})
	})
	mux.HandleFunc("/stop_realtime_transcription", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"transcript": "bản cuối"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewRecorderManager(&AnalysisClient{BaseURL: srv.URL, HTTP: srv.Client()})
}

func TestManagerStartStopOutcome(t *testing.T) {
	m := newManagerWithServer(t)

	session, err := m.Start("user-1")
	require.NoError(t, err)
	assert.Equal(t, StateCapturing, session.State())
	assert.Same(t, session, m.Get("user-1"))

	require.NoError(t, session.AppendChunk(make([]byte, 32000), 16000, 1))
	ts := 3.5
	session.QueueNote("ghi chú trong lúc thu", &ts)

	outcome, err := m.Stop("user-1")
	require.NoError(t, err)
	require.NotNil(t, outcome)

	assert.Equal(t, "bản cuối", outcome.Transcript)
	assert.True(t, strings.HasPrefix(outcome.Filename, "recording_"))
	assert.True(t, strings.HasSuffix(outcome.Filename, ".wav"))

	duration, err := WAVDuration(outcome.WAV)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, duration, 0.001)

	require.Len(t, outcome.QueuedNotes, 1)
	assert.Equal(t, "ghi chú trong lúc thu", outcome.QueuedNotes[0].Content)
	assert.Equal(t, 3.5, *outcome.QueuedNotes[0].Timestamp)

	// Session đã gỡ khỏi manager
	assert.Nil(t, m.Get("user-1"))
}

// Remote stop lỗi thì outcome vẫn phải mang WAV + note đã thu để caller
// lưu lại được, lỗi trả kèm chứ không nuốt mất dữ liệu.
func TestManagerStopRemoteFailureKeepsOutcome(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start_realtime_transcription", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "started"})
	})
	mux.HandleFunc("/stop_realtime_transcription", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	m := NewRecorderManager(&AnalysisClient{BaseURL: srv.URL, HTTP: srv.Client()})

	session, err := m.Start("user-1")
	require.NoError(t, err)
	require.NoError(t, session.AppendChunk(make([]byte, 32000), 16000, 1))
	ts := 7.0
	session.QueueNote("note phải sống sót", &ts)

	outcome, err := m.Stop("user-1")
	require.Error(t, err)
	require.NotNil(t, outcome)

	assert.Empty(t, outcome.Transcript)
	require.NotNil(t, outcome.WAV)
	duration, derr := WAVDuration(outcome.WAV)
	require.NoError(t, derr)
	assert.InDelta(t, 1.0, duration, 0.001)
	require.Len(t, outcome.QueuedNotes, 1)
	assert.Equal(t, "note phải sống sót", outcome.QueuedNotes[0].Content)
	assert.Nil(t, m.Get("user-1"))
}

func TestManagerStopWhenIdleIsNoop(t *testing.T) {
	m := newManagerWithServer(t)

	outcome, err := m.Stop("user-1")
	assert.Nil(t, outcome)
	assert.NoError(t, err)
}

func TestManagerStopWithoutChunksHasNoWAV(t *testing.T) {
	m := newManagerWithServer(t)

	_, err := m.Start("user-1")
	require.NoError(t, err)

	outcome, err := m.Stop("user-1")
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Nil(t, outcome.WAV)
	assert.Empty(t, outcome.Filename)
}

func TestManagerStartReplacesExistingSession(t *testing.T) {
	m := newManagerWithServer(t)

	first, err := m.Start("user-1")
	require.NoError(t, err)
	require.NoError(t, first.AppendChunk(make([]byte, 100), 16000, 1))

	second, err := m.Start("user-1")
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	// Session cũ đã bị teardown, không nhận chunk nữa
	assert.ErrorIs(t, first.AppendChunk(make([]byte, 100), 16000, 1), ErrSessionNotActive)

	// Session mới bắt đầu sạch
	outcome, err := m.Stop("user-1")
	require.NoError(t, err)
	assert.Nil(t, outcome.WAV)
}

func TestManagerStartFailsWhenRemoteDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	m := NewRecorderManager(&AnalysisClient{BaseURL: srv.URL, HTTP: srv.Client()})

	_, err := m.Start("user-1")
	require.Error(t, err)
	assert.Nil(t, m.Get("user-1"))
}

func TestSessionChunkFormatLockedByFirstChunk(t *testing.T) {
	m := newManagerWithServer(t)
	session, err := m.Start("user-1")
	require.NoError(t, err)

	require.NoError(t, session.AppendChunk(make([]byte, 100), 16000, 1))
	assert.ErrorIs(t, session.AppendChunk(make([]byte, 100), 44100, 1), ErrChunkMismatch)
	assert.ErrorIs(t, session.AppendChunk(make([]byte, 100), 16000, 2), ErrChunkMismatch)
	// Cùng format thì vẫn nhận tiếp
	require.NoError(t, session.AppendChunk(make([]byte, 100), 16000, 1))
}

func TestManagerTeardownDiscardsBuffer(t *testing.T) {
	m := newManagerWithServer(t)

	session, err := m.Start("user-1")
	require.NoError(t, err)
	require.NoError(t, session.AppendChunk(make([]byte, 32000), 16000, 1))
	session.QueueNote("sẽ mất", nil)

	m.Teardown("user-1")
	assert.Nil(t, m.Get("user-1"))
	assert.Equal(t, StateIdle, session.State())

	// Teardown khi không có session không panic
	m.Teardown("user-1")
}

func TestVoiceSamplesTakeAndClear(t *testing.T) {
	m := newManagerWithServer(t)

	m.AddVoiceSample("user-1", AttendeeSample{Name: "An", WAV: []byte("a")})
	m.AddVoiceSample("user-1", AttendeeSample{Name: "Bình", WAV: []byte("b")})
	m.AddVoiceSample("user-2", AttendeeSample{Name: "Chi", WAV: []byte("c")})

	samples := m.TakeVoiceSamples("user-1")
	require.Len(t, samples, 2)
	assert.Equal(t, "An", samples[0].Name)

	// Lấy xong là hết, user khác không bị ảnh hưởng
	assert.Empty(t, m.TakeVoiceSamples("user-1"))
	assert.Len(t, m.TakeVoiceSamples("user-2"), 1)
}
