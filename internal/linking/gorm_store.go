package linking

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/models"
)

// GormStore persists link tokens in the application database
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a link token store backed by GORM
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Put upserts the captured chat id for a token. The ON CONFLICT clause
// updates only chat_id, so created_at keeps its first-write value.
func (s *GormStore) Put(ctx context.Context, token, chatID string) error {
	row := models.LinkToken{
		Token:     token,
		ChatID:    &chatID,
		CreatedAt: time.Now().UTC(),
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"chat_id"}),
		}).
		Create(&row).Error
}

// TakeIfCaptured consumes a captured token in a single DELETE .. RETURNING
// statement. The row-level atomicity of the delete guarantees at most one
// caller ever sees the chat id.
func (s *GormStore) TakeIfCaptured(ctx context.Context, token string) (string, bool, error) {
	var taken []models.LinkToken
	err := s.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("token = ? AND chat_id IS NOT NULL", token).
		Delete(&taken).Error
	if err != nil {
		return "", false, err
	}

	if len(taken) == 0 || taken[0].ChatID == nil {
		return "", false, nil
	}
	return *taken[0].ChatID, true, nil
}

// DeleteOlderThan removes abandoned tokens created before cutoff
func (s *GormStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.LinkToken{})
	return result.RowsAffected, result.Error
}
