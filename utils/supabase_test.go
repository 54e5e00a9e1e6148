package utils

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudioObjectPath(t *testing.T) {
	path, err := AudioObjectPath("user-123", "recording.wav")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "user-123/"))
	assert.True(t, strings.HasSuffix(path, ".wav"))

	_, err = AudioObjectPath("user-123", "khong-co-extension")
	assert.ErrorIs(t, err, ErrMissingARExt)
}

func TestUploadAudioBytesValidation(t *testing.T) {
	t.Setenv("SUPABASE_URL", "http://example.invalid")
	t.Setenv("SUPABASE_KEY", "key")

	_, err := UploadAudioBytesToSupabase("u", "a.wav", nil, "audio/wav")
	assert.ErrorIs(t, err, ErrEmptyAudioFile)

	t.Setenv("MAX_AUDIO_UPLOAD_MB", "1")
	_, err = UploadAudioBytesToSupabase("u", "a.wav", make([]byte, 2*1024*1024), "audio/wav")
	assert.ErrorIs(t, err, ErrAudioTooLarge)
}

func TestUploadAudioBytesWithoutConfig(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_KEY", "")

	_, err := UploadAudioBytesToSupabase("u", "a.wav", []byte("x"), "audio/wav")
	assert.ErrorIs(t, err, ErrStorageNotConfigd)
}

func TestUploadAudioBytesPublicURL(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		io.Copy(io.Discard, r.Body)
		json.NewEncoder(w).Encode(map[string]string{"Key": "ok"})
	}))
	defer srv.Close()

	t.Setenv("SUPABASE_URL", srv.URL)
	t.Setenv("SUPABASE_KEY", "key")

	url, err := UploadAudioBytesToSupabase("user-1", "hop.wav", []byte("audio"), "audio/wav")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, srv.URL+"/storage/v1/object/public/meeting-audios/user-1/"))
	assert.True(t, strings.HasSuffix(url, ".wav"))
	assert.True(t, strings.HasPrefix(gotPath, "/storage/v1/object/meeting-audios/user-1/"))
}

func TestDeleteAudioFromSupabase(t *testing.T) {
	var gotMethod, gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	t.Setenv("SUPABASE_URL", srv.URL)
	t.Setenv("SUPABASE_KEY", "key")

	publicURL := srv.URL + "/storage/v1/object/public/meeting-audios/user-1/123.wav"
	require.NoError(t, DeleteAudioFromSupabase(publicURL))

	assert.Equal(t, "DELETE", gotMethod)
	assert.Equal(t, "/storage/v1/object/meeting-audios/user-1/123.wav", gotPath)
	assert.Equal(t, "Bearer key", gotAuth)

	// URL rỗng là no-op
	assert.NoError(t, DeleteAudioFromSupabase(""))

	// URL không phải của storage thì báo lỗi
	assert.Error(t, DeleteAudioFromSupabase("https://khac.example.com/file.wav"))
}
