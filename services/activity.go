package services

import (
	"context"
	"errors"

	"expenshare-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func logActivity(tx *gorm.DB, groupID, memberID uuid.UUID, kind string, ref uuid.UUID, description string) error {
	return tx.Create(&models.Activity{
		GroupID:     groupID,
		MemberID:    memberID,
		Type:        kind,
		ReferenceID: ref,
		Description: description,
	}).Error
}

type ActivityService struct {
	db   *gorm.DB
	gate *MembershipGate
}

// GroupFeed is the group's activity, newest first.
func (s *ActivityService) GroupFeed(ctx context.Context, groupID, accountID uuid.UUID, offset, limit int) ([]models.Activity, error) {
	if _, err := s.gate.Authorize(ctx, groupID, accountID, ActionView); err != nil {
		return nil, err
	}

	activities := []models.Activity{}
	err := s.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&activities).Error
	return activities, err
}

// AccountFeed merges the activity of every group the account is in.
func (s *ActivityService) AccountFeed(ctx context.Context, accountID uuid.UUID, offset, limit int) ([]models.Activity, error) {
	db := s.db.WithContext(ctx)
	activities := []models.Activity{}

	member, err := memberForAccount(db, accountID)
	if errors.Is(err, ErrNotAMember) {
		return activities, nil
	}
	if err != nil {
		return nil, err
	}

	groupIDs := db.Model(&models.GroupMember{}).Select("group_id").Where("member_id = ?", member.ID)
	err = db.Where("group_id IN (?)", groupIDs).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, err
	}

	// Attach group names
	var groups []models.Group
	if err := db.Where("id IN (?)", groupIDs).Find(&groups).Error; err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(groups))
	for _, g := range groups {
		names[g.ID] = g.Name
	}
	for i := range activities {
		activities[i].GroupName = names[activities[i].GroupID]
	}
	return activities, nil
}
