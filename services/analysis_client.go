package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

// AnalysisClient gọi sang dịch vụ transcription/AI (Flask). Mỗi thao tác
// là một request/response độc lập, một lần thử duy nhất, không retry.
// Response được parse vào struct riêng cho từng thao tác; lệch schema
// hoặc non-2xx đều trả RemoteError.
type AnalysisClient struct {
	BaseURL string
	HTTP    *http.Client
}

// RemoteError bao lỗi từ dịch vụ phân tích (non-2xx hoặc body sai dạng)
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("analysis service lỗi (HTTP %d): %s", e.StatusCode, e.Body)
}

func NewAnalysisClient() *AnalysisClient {
	base := os.Getenv("ANALYSIS_API_URL")
	if base == "" {
		base = "http://127.0.0.1:5000"
	}
	return &AnalysisClient{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 10 * time.Minute}, // transcribe file dài có thể rất lâu
	}
}

// AttendeeSample là mẫu giọng nói tạm thời của một người tham dự, chỉ
// dùng cho đúng một lần gọi /transcribe để nhận diện người nói.
type AttendeeSample struct {
	Name   string
	WAV    []byte
	Source string // "uploaded" | "recorded"
}

type TranscribeResult struct {
	Transcript     string `json:"transcript"`
	TranscriptFile string `json:"transcript_file"`
	Model          string `json:"model"`
}

type LiveTranscriptResult struct {
	Status string `json:"status"`
	Text   string `json:"text"`
	Debug  string `json:"debug"`
}

type StopRealtimeResult struct {
	Transcript string `json:"transcript"`
	AudioPath  string `json:"audio_path"`
}

type SummarizeResult struct {
	Summary string `json:"summary"`
}

type ActionItemsResult struct {
	ActionItems string `json:"action_items"`
}

type MinutesResult struct {
	Minutes string `json:"minutes"`
}

type SentimentResult struct {
	Sentiment string `json:"sentiment"`
}

type ScoringResult struct {
	Score string `json:"score"`
}

// Transcribe gửi file audio (multipart) kèm flag nhận diện người nói và
// các cặp tên/mẫu giọng của attendee nếu có.
func (a *AnalysisClient) Transcribe(filename string, audio []byte, speakerID bool, samples []AttendeeSample) (*TranscribeResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fw, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %v", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return nil, fmt.Errorf("failed to write file content: %v", err)
	}

	if speakerID {
		if err := writer.WriteField("speaker_identification", "true"); err != nil {
			return nil, err
		}
		for _, s := range samples {
			if err := writer.WriteField("attendee_names", s.Name); err != nil {
				return nil, err
			}
			sw, err := writer.CreateFormFile("attendee_samples", s.Name+".wav")
			if err != nil {
				return nil, err
			}
			if _, err := sw.Write(s.WAV); err != nil {
				return nil, err
			}
		}
	}
	writer.Close()

	req, err := http.NewRequest("POST", a.BaseURL+"/transcribe", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result TranscribeResult
	if err := a.do(req, &result); err != nil {
		return nil, err
	}
	if result.Transcript == "" {
		return nil, &RemoteError{StatusCode: http.StatusOK, Body: "response thiếu trường transcript"}
	}
	return &result, nil
}

func (a *AnalysisClient) GetLiveTranscript() (*LiveTranscriptResult, error) {
	req, err := http.NewRequest("GET", a.BaseURL+"/get_live_transcript", nil)
	if err != nil {
		return nil, err
	}
	var result LiveTranscriptResult
	if err := a.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (a *AnalysisClient) StartRealtimeTranscription() error {
	req, err := http.NewRequest("POST", a.BaseURL+"/start_realtime_transcription", nil)
	if err != nil {
		return err
	}
	var result map[string]interface{}
	return a.do(req, &result)
}

func (a *AnalysisClient) StopRealtimeTranscription() (*StopRealtimeResult, error) {
	req, err := http.NewRequest("POST", a.BaseURL+"/stop_realtime_transcription", nil)
	if err != nil {
		return nil, err
	}
	var result StopRealtimeResult
	if err := a.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (a *AnalysisClient) Summarize(transcript string) (*SummarizeResult, error) {
	var result SummarizeResult
	if err := a.postJSON("/summarize", map[string]string{"transcript": transcript}, &result); err != nil {
		return nil, err
	}
	if result.Summary == "" {
		return nil, &RemoteError{StatusCode: http.StatusOK, Body: "response thiếu trường summary"}
	}
	return &result, nil
}

func (a *AnalysisClient) ActionItems(transcript string) (*ActionItemsResult, error) {
	var result ActionItemsResult
	if err := a.postJSON("/action-items", map[string]string{"transcript": transcript}, &result); err != nil {
		return nil, err
	}
	if result.ActionItems == "" {
		return nil, &RemoteError{StatusCode: http.StatusOK, Body: "response thiếu trường action_items"}
	}
	return &result, nil
}

// MeetingMeta là metadata kèm theo cho minutes và scoring
type MeetingMeta struct {
	Title     string `json:"title"`
	Date      string `json:"date"`
	Attendees string `json:"attendees"`
	Agenda    string `json:"agenda"`
}

func (a *AnalysisClient) Minutes(transcript string, meta MeetingMeta) (*MinutesResult, error) {
	payload := map[string]string{
		"transcript": transcript,
		"title":      meta.Title,
		"date":       meta.Date,
		"attendees":  meta.Attendees,
		"agenda":     meta.Agenda,
	}
	var result MinutesResult
	if err := a.postJSON("/minutes-of-meeting", payload, &result); err != nil {
		return nil, err
	}
	if result.Minutes == "" {
		return nil, &RemoteError{StatusCode: http.StatusOK, Body: "response thiếu trường minutes"}
	}
	return &result, nil
}

func (a *AnalysisClient) Sentiment(transcript string) (*SentimentResult, error) {
	var result SentimentResult
	if err := a.postJSON("/sentiment", map[string]string{"transcript": transcript}, &result); err != nil {
		return nil, err
	}
	if result.Sentiment == "" {
		return nil, &RemoteError{StatusCode: http.StatusOK, Body: "response thiếu trường sentiment"}
	}
	return &result, nil
}

func (a *AnalysisClient) Scoring(transcript string, meta MeetingMeta) (*ScoringResult, error) {
	payload := map[string]string{
		"transcript": transcript,
		"agenda":     meta.Agenda,
		"title":      meta.Title,
		"date":       meta.Date,
		"attendees":  meta.Attendees,
	}
	var result ScoringResult
	if err := a.postJSON("/scoring-mechanism", payload, &result); err != nil {
		return nil, err
	}
	if result.Score == "" {
		return nil, &RemoteError{StatusCode: http.StatusOK, Body: "response thiếu trường score"}
	}
	return &result, nil
}

func (a *AnalysisClient) postJSON(path string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest("POST", a.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, out)
}

func (a *AnalysisClient) do(req *http.Request, out interface{}) error {
	client := a.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RemoteError{StatusCode: resp.StatusCode, Body: string(respData)}
	}

	if err := json.Unmarshal(respData, out); err != nil {
		return &RemoteError{StatusCode: resp.StatusCode, Body: "response không phải JSON hợp lệ: " + err.Error()}
	}

	// Server trả {"error": "..."} với status 200 vẫn coi là lỗi
	var errCheck struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(respData, &errCheck) == nil && errCheck.Error != "" {
		return &RemoteError{StatusCode: resp.StatusCode, Body: errCheck.Error}
	}
	return nil
}
