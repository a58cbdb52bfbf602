package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Monitor represents a watched page owned by a user
type Monitor struct {
	ID            int                    `json:"id" gorm:"primaryKey;autoIncrement"`
	UserEmail     string                 `json:"user_email" gorm:"not null;index"`
	URL           string                 `json:"url" gorm:"not null"`
	RequiresLogin bool                   `json:"requires_login" gorm:"default:false"`
	HasCaptcha    bool                   `json:"has_captcha" gorm:"default:false"`
	Username      string                 `json:"username"`
	Password      string                 `json:"-"` // page login credential, must stay recoverable for scraping
	CaptchaConfig map[string]interface{} `json:"captcha_config" gorm:"-"`
	CaptchaRaw    string                 `json:"-" gorm:"column:captcha_config;type:text"`

	EmailNotificationsEnabled    bool   `json:"email_notifications_enabled" gorm:"default:false"`
	TelegramNotificationsEnabled bool   `json:"telegram_notifications_enabled" gorm:"default:false"`
	TelegramChatID               string `json:"telegram_chat_id"`

	LastScrapedText string    `json:"-" gorm:"type:text"`
	LatestSummary   string    `json:"latest_summary" gorm:"type:text"`
	IsFirstRun      bool      `json:"is_first_run" gorm:"default:true"`
	Active          bool      `json:"active" gorm:"default:true;index"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for Monitor
func (Monitor) TableName() string {
	return "monitors"
}

// BeforeSave marshals the CaptchaConfig map to JSON before saving (GORM hook)
func (m *Monitor) BeforeSave(tx *gorm.DB) error {
	if m.CaptchaConfig != nil {
		raw, err := json.Marshal(m.CaptchaConfig)
		if err != nil {
			return err
		}
		m.CaptchaRaw = string(raw)
	}
	return nil
}

// AfterFind unmarshals the CaptchaConfig JSON after loading (GORM hook)
func (m *Monitor) AfterFind(tx *gorm.DB) error {
	if m.CaptchaRaw != "" {
		return json.Unmarshal([]byte(m.CaptchaRaw), &m.CaptchaConfig)
	}
	return nil
}
