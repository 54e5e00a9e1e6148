package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vnkhanh/meeting-assistant-backend/config"
	"github.com/vnkhanh/meeting-assistant-backend/models"
	"github.com/vnkhanh/meeting-assistant-backend/services"
	"github.com/vnkhanh/meeting-assistant-backend/utils"
)

// Mỗi bước phân tích là một request/response độc lập sang analysis
// service; thành công thì persist đúng trường đó lên meeting (kết quả
// hiển thị là kết quả đã durable). Lỗi một bước không đụng tới các
// trường đã lưu trước đó. Lỗi gọi remote (kể cả lỗi mạng) trả 502.

// persistMeetingField update một trường duy nhất, re-assert user_id
func persistMeetingField(meetingID uuid.UUID, userID uuid.UUID, column string, value string) error {
	return config.DB.Model(&models.Meeting{}).
		Where("id = ?", meetingID).
		Updates(map[string]interface{}{column: value, "user_id": userID}).Error
}

// Transcribe (chế độ upload file): lưu audio lên storage ngay để các
// bước sau và note có meeting id ổn định, rồi gọi analysis service.
func Transcribe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Chưa chọn file audio"})
		return
	}

	audioURL, err := utils.UploadAudioToSupabase(userID.String(), fileHeader)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrAudioTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File audio vượt quá giới hạn upload"})
		case errors.Is(err, utils.ErrEmptyAudioFile), errors.Is(err, utils.ErrMissingARExt):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload audio thất bại"})
		}
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không đọc được file audio"})
		return
	}
	audioBytes, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không đọc được file audio"})
		return
	}

	// Mẫu giọng attendee (nếu có) chỉ dùng cho đúng lần gọi này
	speakerID := c.PostForm("speaker_identification") == "true"
	var samples []services.AttendeeSample
	if speakerID {
		samples = Recorder.TakeVoiceSamples(userID.String())
	}

	result, err := Analysis.Transcribe(fileHeader.Filename, audioBytes, speakerID, samples)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Transcription thất bại: " + err.Error()})
		return
	}

	// Upsert meeting: có id thì update, không thì tạo mới
	input := UpsertMeetingInput{
		Transcript: &result.Transcript,
		AudioURL:   &audioURL,
	}
	if v := c.PostForm("id"); v != "" {
		parsed, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "meeting id không hợp lệ"})
			return
		}
		input.ID = &parsed
	}
	for form, dst := range map[string]**string{
		"title":     &input.Title,
		"date":      &input.Date,
		"attendees": &input.Attendees,
		"agenda":    &input.Agenda,
	} {
		if v, has := c.GetPostForm(form); has {
			val := v
			*dst = &val
		}
	}

	meetingID, status, msg := upsertMeeting(userID, input)
	if status != 0 {
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"meeting_id": meetingID,
		"transcript": result.Transcript,
		"audio_url":  audioURL,
	})
}

// meetingWithTranscript load meeting của user và bắt buộc đã có transcript
func meetingWithTranscript(c *gin.Context, userID uuid.UUID) (*models.Meeting, bool) {
	meeting, ok := loadOwnedMeeting(c, userID)
	if !ok {
		return nil, false
	}
	if meeting.Transcript == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Meeting chưa có transcript, hãy generate transcript trước"})
		return nil, false
	}
	return meeting, true
}

func Summarize(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	meeting, ok := meetingWithTranscript(c, userID)
	if !ok {
		return
	}

	result, err := Analysis.Summarize(meeting.Transcript)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Không generate được summary: " + err.Error()})
		return
	}

	if err := persistMeetingField(meeting.ID, userID, "summary", result.Summary); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không lưu được summary"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": result.Summary})
}

func ActionItems(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	meeting, ok := meetingWithTranscript(c, userID)
	if !ok {
		return
	}

	result, err := Analysis.ActionItems(meeting.Transcript)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Không generate được action items: " + err.Error()})
		return
	}

	if err := persistMeetingField(meeting.ID, userID, "action_items", result.ActionItems); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không lưu được action items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"action_items": result.ActionItems})
}

func Minutes(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	meeting, ok := meetingWithTranscript(c, userID)
	if !ok {
		return
	}

	meta := services.MeetingMeta{
		Title:     meeting.Title,
		Date:      meeting.Date,
		Attendees: meeting.Attendees,
		Agenda:    meeting.Agenda,
	}
	result, err := Analysis.Minutes(meeting.Transcript, meta)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Không generate được minutes: " + err.Error()})
		return
	}

	if err := persistMeetingField(meeting.ID, userID, "minutes", result.Minutes); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không lưu được minutes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"minutes": result.Minutes})
}

func Sentiment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	meeting, ok := meetingWithTranscript(c, userID)
	if !ok {
		return
	}

	result, err := Analysis.Sentiment(meeting.Transcript)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Không phân tích được sentiment: " + err.Error()})
		return
	}

	if err := persistMeetingField(meeting.ID, userID, "sentiment", result.Sentiment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không lưu được sentiment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sentiment": result.Sentiment})
}

// Scoring cần agenda: thiếu agenda thì chặn ngay tại chỗ, không gọi
// remote (validation cục bộ).
func Scoring(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	meeting, ok := meetingWithTranscript(c, userID)
	if !ok {
		return
	}
	if meeting.Agenda == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cần có agenda để chấm điểm meeting"})
		return
	}

	meta := services.MeetingMeta{
		Title:     meeting.Title,
		Date:      meeting.Date,
		Attendees: meeting.Attendees,
		Agenda:    meeting.Agenda,
	}
	result, err := Analysis.Scoring(meeting.Transcript, meta)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Không chấm điểm được meeting: " + err.Error()})
		return
	}

	if err := persistMeetingField(meeting.ID, userID, "score", result.Score); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không lưu được score"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"score": result.Score})
}

type ChatInput struct {
	Question string `json:"question" binding:"required"`
}

// Chat hỏi đáp trên transcript của meeting (Gemini)
func Chat(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	meeting, ok := meetingWithTranscript(c, userID)
	if !ok {
		return
	}

	var input ChatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := services.AnswerMeetingQuestion(meeting.Transcript, input.Question)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Không trả lời được: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// MinutesAudio đọc minutes thành MP3 (Google TTS), upload và lưu URL
func MinutesAudio(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	meeting, ok := loadOwnedMeeting(c, userID)
	if !ok {
		return
	}
	if meeting.Minutes == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Meeting chưa có minutes, hãy generate minutes trước"})
		return
	}

	audio, err := services.SynthesizeText(meeting.Minutes, c.Query("voice"), 1.0)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Synthesize thất bại: " + err.Error()})
		return
	}

	url, err := utils.UploadAudioBytesToSupabase(userID.String(), "minutes.mp3", audio, "audio/mpeg")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload audio thất bại"})
		return
	}

	if err := persistMeetingField(meeting.ID, userID, "minutes_audio_url", url); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không lưu được minutes audio URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"minutes_audio_url": url})
}

// AgendaDocument trích text từ file pdf/docx/txt cho trường agenda.
// Gửi kèm meeting_id thì lưu luôn vào meeting đó.
func AgendaDocument(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Chưa chọn file tài liệu"})
		return
	}

	text, err := services.ExtractAgendaText(fileHeader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Không trích được nội dung: " + err.Error()})
		return
	}

	if v := c.PostForm("meeting_id"); v != "" {
		meetingID, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "meeting id không hợp lệ"})
			return
		}
		input := UpsertMeetingInput{ID: &meetingID, Agenda: &text}
		if _, status, msg := upsertMeeting(userID, input); status != 0 {
			c.JSON(status, gin.H{"error": msg})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"agenda": text})
}
