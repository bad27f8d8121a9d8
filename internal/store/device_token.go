package store

import (
	"context"
	"fmt"

	"github.com/Possessed66/BotLMKRD/app"
	"github.com/Possessed66/BotLMKRD/internal/model"

	"gorm.io/gorm"
)

// DeviceTokenStore keeps the push tokens used to mirror requester notices.
type DeviceTokenStore struct {
	db *gorm.DB
}

func NewDeviceTokenStore(db *gorm.DB) *DeviceTokenStore {
	return &DeviceTokenStore{db: db}
}

func (s *DeviceTokenStore) Create(ctx context.Context, token model.DeviceToken) error {
	ctx, cancel := context.WithTimeout(ctx, app.DBTimeout)
	defer cancel()

	if err := s.db.WithContext(ctx).Create(&token).Error; err != nil {
		return fmt.Errorf("create device token: %w", err)
	}
	return nil
}

// TokensFor returns the non-expired device tokens of a user.
func (s *DeviceTokenStore) TokensFor(ctx context.Context, userID int64) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, app.DBTimeout)
	defer cancel()

	var deviceTokens []model.DeviceToken
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND expired = ?", userID, false).
		Find(&deviceTokens).Error
	if err != nil {
		return nil, fmt.Errorf("get device tokens for user %d: %w", userID, err)
	}

	var tokens []string
	for _, dt := range deviceTokens {
		tokens = append(tokens, dt.DeviceToken)
	}
	return tokens, nil
}
