package controllers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vnkhanh/meeting-assistant-backend/models"
	"github.com/vnkhanh/meeting-assistant-backend/services"
	"github.com/vnkhanh/meeting-assistant-backend/utils"
	"github.com/vnkhanh/meeting-assistant-backend/ws"

	"github.com/vnkhanh/meeting-assistant-backend/config"
)

// Recording session: client đẩy PCM chunk lên trong lúc thu; stop ghép
// thành WAV, upload, tạo/update meeting và flush các note đã xếp hàng.

func StartRecording(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	session, err := Recorder.Start(userID.String())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Không start được recording: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Đã bắt đầu ghi âm",
		"started_at": session.StartedAt,
	})
}

// Chunk PCM 16-bit LE gửi theo raw body, sample rate và số kênh qua header
func AppendRecordingChunk(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	session := Recorder.Get(userID.String())
	if session == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Không có recording session đang chạy"})
		return
	}

	sampleRate, err := strconv.Atoi(c.GetHeader("X-Sample-Rate"))
	if err != nil || sampleRate <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Thiếu hoặc sai header X-Sample-Rate"})
		return
	}
	channels, err := strconv.Atoi(c.GetHeader("X-Channels"))
	if err != nil || channels <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Thiếu hoặc sai header X-Channels"})
		return
	}

	pcm, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Không đọc được chunk"})
		return
	}

	if err := session.AppendChunk(pcm, sampleRate, channels); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"elapsed": session.Elapsed()})
}

type StopRecordingInput struct {
	// Metadata điền sẵn trên workspace, lưu cùng meeting mới
	MeetingID *string `json:"meeting_id"`
	Title     *string `json:"title"`
	Date      *string `json:"date"`
	Attendees *string `json:"attendees"`
	Agenda    *string `json:"agenda"`
}

// StopRecording: dừng thu, lấy transcript cuối từ remote, dựng WAV và
// upload, upsert meeting (tạo mới nếu chưa có id) rồi flush note chờ.
func StopRecording(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input StopRecordingInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	outcome, stopErr := Recorder.Stop(userID.String())
	if outcome == nil {
		if stopErr != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Không stop được transcription: " + stopErr.Error()})
			return
		}
		// stop khi idle là no-op
		c.JSON(http.StatusOK, gin.H{"message": "Không có recording session đang chạy"})
		return
	}
	// Remote stop lỗi nhưng audio/note đã thu vẫn phải được lưu; chỉ trả
	// lỗi luôn khi session không còn gì để giữ lại.
	if stopErr != nil && outcome.WAV == nil && len(outcome.QueuedNotes) == 0 && outcome.Transcript == "" {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Không stop được transcription: " + stopErr.Error()})
		return
	}

	var audioURL, audioFilename string
	if outcome.WAV != nil {
		url, err := utils.UploadAudioBytesToSupabase(userID.String(), outcome.Filename, outcome.WAV, "audio/wav")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload audio thất bại: " + err.Error()})
			return
		}
		audioURL = url
		audioFilename = outcome.Filename
	}

	// Meeting phải tồn tại trước khi flush note để note có id tham chiếu
	meetingInput := UpsertMeetingInput{
		Title:     input.Title,
		Date:      input.Date,
		Attendees: input.Attendees,
		Agenda:    input.Agenda,
	}
	if outcome.Transcript != "" {
		meetingInput.Transcript = &outcome.Transcript
	}
	if audioURL != "" {
		meetingInput.AudioURL = &audioURL
	}
	if input.MeetingID != nil {
		parsed, perr := uuid.Parse(*input.MeetingID)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "meeting id không hợp lệ"})
			return
		}
		meetingInput.ID = &parsed
	}

	meetingID, status, msg := upsertMeeting(userID, meetingInput)
	if status != 0 {
		c.JSON(status, gin.H{"error": msg})
		return
	}

	// Flush các note tạo trong lúc thu
	for _, pending := range outcome.QueuedNotes {
		note := models.Note{
			UserID:    userID,
			MeetingID: &meetingID,
			Content:   pending.Content,
			AudioFile: audioFilename,
			Timestamp: pending.Timestamp,
		}
		if err := config.DB.Create(&note).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không lưu được ghi chú chờ"})
			return
		}
	}

	resp := gin.H{
		"meeting_id": meetingID,
		"transcript": outcome.Transcript,
		"audio_url":  audioURL,
		"audio_file": audioFilename,
		"notes":      len(outcome.QueuedNotes),
	}
	if stopErr != nil {
		resp["transcript_error"] = "Không lấy được transcript cuối: " + stopErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// TeardownRecording: workspace đóng đột ngột giữa lúc thu — nhả tài
// nguyên, bỏ dữ liệu buffer, không finalize gì cả.
func TeardownRecording(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	Recorder.Teardown(userID.String())
	c.JSON(http.StatusOK, gin.H{"message": "Đã hủy recording session"})
}

// Bật xem live transcript: poller 1s/lần, dòng mới đẩy qua ws
func StartLiveView(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	session := Recorder.Get(userID.String())
	if session == nil || session.State() != services.StateCapturing {
		c.JSON(http.StatusConflict, gin.H{"error": "Chưa bắt đầu ghi âm"})
		return
	}

	uid := userID.String()
	session.Poller.OnLines = func(lines []string) {
		ws.SendLiveLines(uid, lines)
	}
	session.Poller.Start()

	c.JSON(http.StatusOK, gin.H{"message": "Đã bật live transcript"})
}

func StopLiveView(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if session := Recorder.Get(userID.String()); session != nil {
		session.Poller.Stop()
	}
	c.JSON(http.StatusOK, gin.H{"message": "Đã tắt live transcript"})
}

// Buffer live transcript hiện tại (cho client không dùng ws)
func GetLiveTranscriptBuffer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	session := Recorder.Get(userID.String())
	if session == nil {
		c.JSON(http.StatusOK, gin.H{"text": "", "running": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"text":           session.Poller.Buffer(),
		"running":        session.Poller.Running(),
		"server_stopped": session.Poller.ServerStopped(),
	})
}

// Mẫu giọng attendee (~5s) cho nhận diện người nói ở lần transcribe kế
// tiếp. Nhận WAV upload sẵn hoặc PCM thô kèm tham số để server tự bọc.
func UploadVoiceSample(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	name := c.PostForm("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Thiếu tên attendee"})
		return
	}

	fileHeader, err := c.FormFile("sample")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Thiếu file mẫu giọng"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không đọc được file mẫu"})
		return
	}
	data, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không đọc được file mẫu"})
		return
	}

	source := c.PostForm("source")
	if source != "recorded" {
		source = "uploaded"
	}

	var wav []byte
	if c.PostForm("raw_pcm") == "true" {
		// PCM thô từ recorder phụ: cắt về 5s rồi bọc WAV chuẩn
		sampleRate, err := strconv.Atoi(c.PostForm("sample_rate"))
		if err != nil || sampleRate <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Thiếu hoặc sai sample_rate"})
			return
		}
		channels, err := strconv.Atoi(c.PostForm("channels"))
		if err != nil || channels <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Thiếu hoặc sai channels"})
			return
		}
		pcm := services.CapPCMSeconds(data, sampleRate, channels, 5.0)
		wav, err = services.EncodeWAV(pcm, sampleRate, channels)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Không encode được WAV: " + err.Error()})
			return
		}
	} else {
		wav = data
	}

	Recorder.AddVoiceSample(userID.String(), services.AttendeeSample{
		Name:   name,
		WAV:    wav,
		Source: source,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Đã lưu mẫu giọng cho " + name})
}
