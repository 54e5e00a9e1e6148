package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vnkhanh/meeting-assistant-backend/config"
	"github.com/vnkhanh/meeting-assistant-backend/models"
	"github.com/vnkhanh/meeting-assistant-backend/services"
)

type CreateNoteRequest struct {
	Content   string     `json:"content" binding:"required"`
	AudioFile string     `json:"audio_file"`
	Timestamp *float64   `json:"timestamp"`
	MeetingID *uuid.UUID `json:"meeting_id"`
}

// Tạo ghi chú. Nếu user đang có recording session: note được xếp hàng
// trong session (timestamp = thời gian đã thu) và chỉ ghi DB khi stop,
// lúc đó mới có meeting id. Ngoài ra ghi ngay.
func CreateNote(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Timestamp != nil && *req.Timestamp < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timestamp phải >= 0"})
		return
	}

	if Recorder != nil {
		if session := Recorder.Get(userID.String()); session != nil && session.State() == services.StateCapturing {
			ts := req.Timestamp
			if ts == nil {
				elapsed := session.Elapsed()
				ts = &elapsed
			}
			session.QueueNote(req.Content, ts)
			c.JSON(http.StatusAccepted, gin.H{"message": "Ghi chú sẽ được lưu khi dừng ghi âm"})
			return
		}
	}

	if req.MeetingID != nil {
		// Note gắn meeting thì meeting phải tồn tại và thuộc về user
		var meeting models.Meeting
		if err := config.DB.First(&meeting, "id = ?", *req.MeetingID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy meeting"})
			return
		}
		if meeting.UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Không có quyền ghi meeting này"})
			return
		}
	}

	note := models.Note{
		UserID:    userID,
		MeetingID: req.MeetingID,
		Content:   req.Content,
		AudioFile: req.AudioFile,
		Timestamp: req.Timestamp,
	}

	if err := config.DB.Create(&note).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo ghi chú"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"note": note})
}

// Tất cả ghi chú của user, mới tạo trước
func ListNotes(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var notes []models.Note
	if err := config.DB.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy ghi chú"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notes": notes})
}

// Ghi chú theo meeting, timestamp tăng dần (không timestamp nằm cuối)
func GetMeetingNotes(c *gin.Context) {
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
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy ghi chú"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notes": notes})
}

// Chi tiết một ghi chú (read-only, cho popup marker)
func GetNoteDetail(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var note models.Note
	if err := config.DB.First(&note, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy ghi chú"})
		return
	}
	if note.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Không có quyền xem ghi chú này"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"note": note})
}

// Xoá ghi chú (chỉ xoá nếu đúng user)
func DeleteNote(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	noteID := c.Param("id")

	var note models.Note
	if err := config.DB.First(&note, "id = ?", noteID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy ghi chú"})
		return
	}
	if note.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Không có quyền xoá ghi chú này"})
		return
	}

	if err := config.DB.Delete(&note).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xoá ghi chú"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Đã xoá ghi chú"})
}
