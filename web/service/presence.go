package service

import (
	"context"
	"time"

	"github.com/mapavioleta/mapavioleta/database"
	"github.com/mapavioleta/mapavioleta/database/model"
	"github.com/mapavioleta/mapavioleta/util/common"
)

// PresenceWindow is how long after the last touch a user counts as online.
const PresenceWindow = 300 * time.Second

// timeNow is the presence clock; tests replace it.
var timeNow = func() time.Time { return time.Now().UTC() }

// PresenceService tracks last-seen timestamps and derives online status.
type PresenceService struct{}

// Touch marks user online and stamps last_seen with the current time.
func (s *PresenceService) Touch(ctx context.Context, user *model.User) error {
	now := timeNow()
	err := database.GetDB().WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", user.Id).
		Updates(map[string]any{"online": true, "last_seen": now}).
		Error
	if err != nil {
		return common.StoreError(err)
	}
	user.Online = true
	user.LastSeen = &now
	return nil
}

// SetOffline clears the online flag regardless of last_seen.
func (s *PresenceService) SetOffline(ctx context.Context, user *model.User) error {
	err := database.GetDB().WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", user.Id).
		Update("online", false).
		Error
	if err != nil {
		return common.StoreError(err)
	}
	user.Online = false
	return nil
}

// ListOnline returns users flagged online whose last_seen lies within
// PresenceWindow, ordered by id. The excluded user, usually the caller, is
// left out.
func (s *PresenceService) ListOnline(ctx context.Context, excluding *model.User) ([]model.User, error) {
	cutoff := timeNow().Add(-PresenceWindow)
	query := database.GetDB().WithContext(ctx).
		Model(&model.User{}).
		Where("online = ? AND last_seen IS NOT NULL AND last_seen >= ?", true, cutoff)
	if excluding != nil {
		query = query.Where("id <> ?", excluding.Id)
	}

	users := make([]model.User, 0)
	if err := query.Order("id ASC").Find(&users).Error; err != nil {
		return nil, common.StoreError(err)
	}
	return users, nil
}

// DemoteStale clears the online flag of users that stopped touching
// without logging out and returns how many were demoted.
func (s *PresenceService) DemoteStale(ctx context.Context) (int64, error) {
	cutoff := timeNow().Add(-PresenceWindow)
	result := database.GetDB().WithContext(ctx).
		Model(&model.User{}).
		Where("online = ? AND (last_seen IS NULL OR last_seen < ?)", true, cutoff).
		Update("online", false)
	if result.Error != nil {
		return 0, common.StoreError(result.Error)
	}
	return result.RowsAffected, nil
}
