package utils

import (
	"log"
	"time"

	"github.com/vnkhanh/meeting-assistant-backend/config"
	"github.com/vnkhanh/meeting-assistant-backend/models"
)

// CleanupExpiredTokens xóa các password reset token đã hết hạn hoặc đã dùng
func CleanupExpiredTokens() {
	db := config.DB

	result := db.Where("expires_at < ? OR used = ?", time.Now(), true).
		Delete(&models.PasswordReset{})

	if result.Error != nil {
		log.Printf("Lỗi khi xóa password reset tokens: %v", result.Error)
		return
	}

	if result.RowsAffected > 0 {
		log.Printf("Đã xóa %d password reset tokens hết hạn/đã dùng", result.RowsAffected)
	}
}

// StartCleanupJob chạy cleanup định kỳ mỗi 6 giờ
func StartCleanupJob() {
	log.Println("Đang chạy cleanup lần đầu...")
	CleanupExpiredTokens()

	ticker := time.NewTicker(6 * time.Hour)

	go func() {
		for range ticker.C {
			CleanupExpiredTokens()
		}
	}()
}
