package controllers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/meeting-assistant-backend/config"
	"github.com/vnkhanh/meeting-assistant-backend/models"
	"github.com/vnkhanh/meeting-assistant-backend/services"
	"github.com/vnkhanh/meeting-assistant-backend/utils"
)

// UpsertMeetingInput: con trỏ để phân biệt trường không gửi với trường
// gửi giá trị rỗng — upsert chỉ đụng vào trường được gửi.
type UpsertMeetingInput struct {
	ID          *uuid.UUID `json:"id"`
	Title       *string    `json:"title"`
	Date        *string    `json:"date"`
	Attendees   *string    `json:"attendees"`
	Agenda      *string    `json:"agenda"`
	Transcript  *string    `json:"transcript"`
	Summary     *string    `json:"summary"`
	ActionItems *string    `json:"action_items"`
	Minutes     *string    `json:"minutes"`
	Sentiment   *string    `json:"sentiment"`
	Score       *string    `json:"score"`
	AudioURL    *string    `json:"audio_url"`
}

func (in *UpsertMeetingInput) updates() map[string]interface{} {
	u := map[string]interface{}{}
	set := func(col string, v *string) {
		if v != nil {
			u[col] = *v
		}
	}
	set("title", in.Title)
	set("date", in.Date)
	set("attendees", in.Attendees)
	set("agenda", in.Agenda)
	set("transcript", in.Transcript)
	set("summary", in.Summary)
	set("action_items", in.ActionItems)
	set("minutes", in.Minutes)
	set("sentiment", in.Sentiment)
	set("score", in.Score)
	set("audio_url", in.AudioURL)
	return u
}

// upsertMeeting: không có id -> insert meeting mới của user; có id ->
// phải tồn tại (tránh ghi lên id đã xóa/stale), chỉ update các trường
// được gửi, luôn re-assert user_id. Trả về id của row.
func upsertMeeting(userID uuid.UUID, input UpsertMeetingInput) (uuid.UUID, int, string) {
	if input.ID == nil {
		meeting := models.Meeting{UserID: userID}
		updates := input.updates()
		applyToStruct(&meeting, updates)

		if err := config.DB.Create(&meeting).Error; err != nil {
			return uuid.Nil, http.StatusInternalServerError, "Không thể tạo meeting"
		}
		return meeting.ID, 0, ""
	}

	var existing models.Meeting
	if err := config.DB.First(&existing, "id = ?", *input.ID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return uuid.Nil, http.StatusNotFound, "Không tìm thấy meeting với id này"
		}
		return uuid.Nil, http.StatusInternalServerError, "Lỗi truy vấn meeting"
	}
	if existing.UserID != userID {
		return uuid.Nil, http.StatusForbidden, "Không có quyền ghi meeting này"
	}

	updates := input.updates()
	// Re-assert chủ sở hữu ở mọi lần ghi
	updates["user_id"] = userID

	if err := config.DB.Model(&existing).Updates(updates).Error; err != nil {
		return uuid.Nil, http.StatusInternalServerError, "Không thể cập nhật meeting"
	}
	return existing.ID, 0, ""
}

func applyToStruct(m *models.Meeting, updates map[string]interface{}) {
	for col, v := range updates {
		s, _ := v.(string)
		switch col {
		case "title":
			m.Title = s
		case "date":
			m.Date = s
		case "attendees":
			m.Attendees = s
		case "agenda":
			m.Agenda = s
		case "transcript":
			m.Transcript = s
		case "summary":
			m.Summary = s
		case "action_items":
			m.ActionItems = s
		case "minutes":
			m.Minutes = s
		case "sentiment":
			m.Sentiment = s
		case "score":
			m.Score = s
		case "audio_url":
			m.AudioURL = s
		}
	}
}

func UpsertMeeting(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input UpsertMeetingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, status, msg := upsertMeeting(userID, input)
	if status != 0 {
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// Danh sách meeting của user, mới nhất trước
func ListMeetings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var meetings []models.Meeting
	if err := config.DB.
		Where("user_id = ?", userID).
		Order("date DESC").
		Find(&meetings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy danh sách meeting"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"meetings": meetings})
}

// loadOwnedMeeting dùng chung cho các handler thao tác trên 1 meeting
func loadOwnedMeeting(c *gin.Context, userID uuid.UUID) (*models.Meeting, bool) {
	meetingID := c.Param("id")

	var meeting models.Meeting
	if err := config.DB.First(&meeting, "id = ?", meetingID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy meeting"})
		return nil, false
	}
	if meeting.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Không có quyền truy cập meeting này"})
		return nil, false
	}
	return &meeting, true
}

func GetMeetingDetail(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	meeting, ok := loadOwnedMeeting(c, userID)
	if !ok {
		return
	}

	var notes []models.Note
	if err := config.DB.
		Where("meeting_id = ?", meeting.ID).
		Order("timestamp IS NULL, timestamp ASC").
		Find(&notes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy ghi chú của meeting"})
		return
	}
	meeting.Notes = notes

	c.JSON(http.StatusOK, gin.H{"meeting": meeting})
}

// Xóa meeting (đã confirm phía client): xóa notes kèm theo và object
// audio trên storage. Không hoàn tác được.
func DeleteMeeting(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	meeting, ok := loadOwnedMeeting(c, userID)
	if !ok {
		return
	}

	if err := config.DB.Where("meeting_id = ?", meeting.ID).Delete(&models.Note{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xoá ghi chú của meeting"})
		return
	}
	if err := config.DB.Delete(meeting).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xoá meeting"})
		return
	}

	if meeting.AudioURL != "" {
		if err := utils.DeleteAudioFromSupabase(meeting.AudioURL); err != nil {
			log.Println("Không xoá được audio trên storage:", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Đã xoá meeting"})
}

// AnnotateTranscript nối các note thành dòng chú thích dạng ngoặc vuông
// sau transcript, theo đúng thứ tự đã lưu (timestamp tăng dần, note
// không timestamp nằm cuối).
func AnnotateTranscript(transcript string, notes []models.Note) string {
	var sb strings.Builder
	sb.WriteString(transcript)
	for _, note := range notes {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		if note.Timestamp != nil {
			sb.WriteString(fmt.Sprintf("[%ss] %s", strconv.FormatFloat(*note.Timestamp, 'f', -1, 64), note.Content))
		} else {
			sb.WriteString(fmt.Sprintf("[note] %s", note.Content))
		}
	}
	return sb.String()
}

// Transcript của meeting; ?include_notes=1 chèn note thành chú thích
func GetMeetingTranscript(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	meeting, ok := loadOwnedMeeting(c, userID)
	if !ok {
		return
	}

	transcript := meeting.Transcript
	if c.Query("include_notes") == "1" {
		var notes []models.Note
		if err := config.DB.
			Where("meeting_id = ?", meeting.ID).
			Order("timestamp IS NULL, timestamp ASC").
			Find(&notes).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy ghi chú của meeting"})
			return
		}
		transcript = AnnotateTranscript(transcript, notes)
	}

	c.JSON(http.StatusOK, gin.H{"transcript": transcript})
}

// MarkerPosition: vị trí marker trên timeline theo phần trăm
func MarkerPosition(timestamp float64, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return timestamp / duration * 100
}

type noteMarker struct {
	NoteID    uuid.UUID `json:"note_id"`
	Timestamp float64   `json:"timestamp"`
	Position  float64   `json:"position"` // phần trăm trên timeline
	Content   string    `json:"content"`
}

// Marker cho các note có timestamp của meeting. Duration lấy từ query
// (client đã biết từ audio element) hoặc probe từ file trên storage.
func GetMeetingMarkers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	meeting, ok := loadOwnedMeeting(c, userID)
	if !ok {
		return
	}

	duration := 0.0
	if v := c.Query("duration"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "duration không hợp lệ"})
			return
		}
		duration = parsed
	} else if meeting.AudioURL != "" {
		probed, err := services.GetAudioDurationFromURL(meeting.AudioURL)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Không đọc được thời lượng audio"})
			return
		}
		duration = probed
	}
	if duration <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Meeting chưa có audio để đặt marker"})
		return
	}

	var notes []models.Note
	if err := config.DB.
		Where("meeting_id = ? AND timestamp IS NOT NULL", meeting.ID).
		Order("timestamp ASC").
		Find(&notes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy ghi chú của meeting"})
		return
	}

	markers := make([]noteMarker, 0, len(notes))
	for _, note := range notes {
		markers = append(markers, noteMarker{
			NoteID:    note.ID,
			Timestamp: *note.Timestamp,
			Position:  MarkerPosition(*note.Timestamp, duration),
			Content:   note.Content,
		})
	}

	c.JSON(http.StatusOK, gin.H{"duration": duration, "markers": markers})
}
