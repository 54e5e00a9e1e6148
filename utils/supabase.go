package utils

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	storage "github.com/supabase-community/storage-go"
)

const audioBucket = "meeting-audios"

// Giới hạn upload (Supabase free tier 50MB), override bằng MAX_AUDIO_UPLOAD_MB
func maxAudioUploadBytes() int64 {
	mb := int64(50)
	if v := os.Getenv("MAX_AUDIO_UPLOAD_MB"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
			mb = parsed
		}
	}
	return mb * 1024 * 1024
}

var (
	ErrEmptyAudioFile    = errors.New("file audio rỗng")
	ErrAudioTooLarge     = errors.New("file audio vượt quá giới hạn upload")
	ErrMissingARExt      = errors.New("tên file audio phải có phần mở rộng")
	ErrStorageNotConfigd = errors.New("SUPABASE_URL hoặc SUPABASE_KEY chưa cấu hình")
)

// AudioObjectPath tạo path theo user + thời điểm (ms) để không ghi đè
// object cũ: <ownerID>/<unixmilli>.<ext>
func AudioObjectPath(ownerID string, filename string) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		return "", ErrMissingARExt
	}
	return fmt.Sprintf("%s/%d%s", ownerID, time.Now().UnixMilli(), ext), nil
}

// UploadAudioToSupabase upload file audio của một meeting lên bucket
// meeting-audios, trả về public URL để playback sau này.
func UploadAudioToSupabase(ownerID string, fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader.Size == 0 {
		return "", ErrEmptyAudioFile
	}
	if fileHeader.Size > maxAudioUploadBytes() {
		return "", ErrAudioTooLarge
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return "", err
	}

	contentType := fileHeader.Header.Get("Content-Type")
	return UploadAudioBytesToSupabase(ownerID, fileHeader.Filename, buf.Bytes(), contentType)
}

// UploadAudioBytesToSupabase upload []byte (vd: WAV dựng từ recording
// session) lên đúng path per-user như trên.
func UploadAudioBytesToSupabase(ownerID string, filename string, data []byte, contentType string) (string, error) {
	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseKey := os.Getenv("SUPABASE_KEY")
	if supabaseURL == "" || supabaseKey == "" {
		return "", ErrStorageNotConfigd
	}

	if len(data) == 0 {
		return "", ErrEmptyAudioFile
	}
	if int64(len(data)) > maxAudioUploadBytes() {
		return "", ErrAudioTooLarge
	}

	objectPath, err := AudioObjectPath(ownerID, filename)
	if err != nil {
		return "", err
	}

	storageClient := storage.NewClient(supabaseURL+"/storage/v1", supabaseKey, nil)

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	upsert := false
	options := storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}

	if _, err := storageClient.UploadFile(audioBucket, objectPath, bytes.NewBuffer(data), options); err != nil {
		return "", fmt.Errorf("upload Supabase thất bại: %w", err)
	}

	publicURL := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", supabaseURL, audioBucket, objectPath)
	return publicURL, nil
}

// DeleteAudioFromSupabase nhận public URL và xóa object tương ứng.
// Dùng khi xóa meeting để không rác storage.
func DeleteAudioFromSupabase(publicURL string) error {
	if publicURL == "" {
		return nil
	}

	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseKey := os.Getenv("SUPABASE_KEY")
	if supabaseURL == "" || supabaseKey == "" {
		return ErrStorageNotConfigd
	}

	idx := strings.Index(publicURL, "/storage/v1/object/")
	if idx == -1 {
		return fmt.Errorf("không xác định được đường dẫn object trong URL: %s", publicURL)
	}

	rest := publicURL[idx+len("/storage/v1/object/"):]
	rest = strings.TrimPrefix(rest, "public/")

	// rest => "<bucket>/<path/to/object...>"
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) < 2 {
		return fmt.Errorf("không parse được bucket/object từ URL: %s", publicURL)
	}
	bucket := parts[0]
	object := parts[1]
	if qIdx := strings.Index(object, "?"); qIdx != -1 {
		object = object[:qIdx]
	}
	if u, err := url.PathUnescape(object); err == nil {
		object = u
	}

	deleteURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", strings.TrimRight(supabaseURL, "/"), bucket, object)

	req, err := http.NewRequest("DELETE", deleteURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+supabaseKey)
	req.Header.Set("apikey", supabaseKey)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("xóa file Supabase thất bại: status=%d body=%s", resp.StatusCode, string(body))
	}
	return nil
}
