package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Meeting là bản ghi tổng hợp của một buổi họp: audio + các trường
// sinh ra từ dịch vụ phân tích. Mọi trường nội dung đều có thể rỗng
// và được điền dần qua từng bước generate.
type Meeting struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User        User      `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	Title       string    `gorm:"size:255" json:"title"`
	Date        string    `gorm:"size:50" json:"date"`
	Attendees   string    `gorm:"type:text" json:"attendees"`
	Agenda      string    `gorm:"type:text" json:"agenda"`
	Transcript  string    `gorm:"type:text" json:"transcript"`
	Summary     string    `gorm:"type:text" json:"summary"`
	ActionItems string    `gorm:"type:text" json:"action_items"`
	Minutes     string    `gorm:"type:text" json:"minutes"`
	Sentiment   string    `gorm:"type:text" json:"sentiment"`
	Score       string    `gorm:"type:text" json:"score"`
	AudioURL    string    `gorm:"type:text" json:"audio_url"`
	// URL bản audio đọc minutes (Google TTS)
	MinutesAudioURL string    `gorm:"type:text" json:"minutes_audio_url"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Notes []Note `gorm:"constraint:OnDelete:CASCADE;" json:"notes,omitempty"`
}

func (m *Meeting) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
