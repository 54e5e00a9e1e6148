package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Note là ghi chú nhanh của người dùng. Timestamp (giây, tính từ đầu
// file audio) chỉ có nghĩa khi AudioFile khác rỗng; note không có
// timestamp là memo tự do.
type Note struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User       `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	MeetingID *uuid.UUID `gorm:"type:uuid;index" json:"meeting_id"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	AudioFile string     `gorm:"size:255" json:"audio_file"`
	Timestamp *float64   `json:"timestamp"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
