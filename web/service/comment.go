package service

import (
	"context"
	"strings"

	"github.com/mapavioleta/mapavioleta/database"
	"github.com/mapavioleta/mapavioleta/database/model"
	"github.com/mapavioleta/mapavioleta/logger"
	"github.com/mapavioleta/mapavioleta/util/common"

	"gorm.io/gorm"
)

type CommentService struct{}

// ListForEntry returns the comments on an entry oldest first. An unknown
// entry simply has no comments.
func (s *CommentService) ListForEntry(ctx context.Context, entryID int) ([]model.Comment, error) {
	comments := make([]model.Comment, 0)
	err := database.GetDB().WithContext(ctx).
		Preload("User").
		Where("entry_id = ?", entryID).
		Order("id ASC").
		Find(&comments).
		Error
	if err != nil {
		return nil, common.StoreError(err)
	}
	return comments, nil
}

// Add attaches a comment by author to an existing entry.
func (s *CommentService) Add(ctx context.Context, entryID int, author *model.User, text string) (*model.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, common.WithField(common.ErrMissingField, "text")
	}

	comment := &model.Comment{
		EntryId: entryID,
		UserId:  author.Id,
		Text:    text,
	}
	err := database.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.MapEntry{}).Where("id = ?", entryID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return common.ErrNotFound
		}
		return tx.Create(comment).Error
	})
	if err != nil {
		return nil, common.StoreError(err)
	}
	comment.User = *author
	logger.Debugf("user %d commented on entry %d", author.Id, entryID)
	return comment, nil
}
