package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vnkhanh/meeting-assistant-backend/services"
)

// Các dependency dùng chung của controllers, gán trong main sau khi đã
// load env (không gán lúc init vì .env chưa được đọc).
var (
	Analysis *services.AnalysisClient
	Recorder *services.RecorderManager
)

// Lấy user_id an toàn từ context (middleware set kiểu string)
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := c.Get("user_id")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Không tìm thấy user_id"})
		return uuid.Nil, false
	}

	switch v := raw.(type) {
	case string:
		parsed, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id không hợp lệ"})
			return uuid.Nil, false
		}
		return parsed, true
	case uuid.UUID:
		return v, true
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Kiểu user_id không hợp lệ"})
		return uuid.Nil, false
	}
}
