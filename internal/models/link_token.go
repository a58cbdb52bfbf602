package models

import "time"

// LinkToken represents a single-use token correlating a dashboard session
// with a Telegram chat. The chat id is nil until the bot webhook captures
// it; consuming the token deletes the row.
type LinkToken struct {
	ID        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Token     string    `json:"token" gorm:"uniqueIndex;not null"`
	ChatID    *string   `json:"chat_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for LinkToken
func (LinkToken) TableName() string {
	return "link_tokens"
}
