package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"expenshare-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Action is something a member asks to do to a group.
type Action string

const (
	ActionView         Action = "view"
	ActionRecord       Action = "record"
	ActionSettle       Action = "settle"
	ActionInvite       Action = "invite"
	ActionUpdate       Action = "update"
	ActionRemoveMember Action = "remove_member"
	ActionLeave        Action = "leave"
	ActionDelete       Action = "delete"
)

func (a Action) ownerOnly() bool {
	return a == ActionRemoveMember || a == ActionDelete
}

// MembershipGate decides who may touch a group and owns group lifecycle
// and membership changes.
type MembershipGate struct {
	db     *gorm.DB
	runner *groupRunner
	notify *NotificationService
	log    *zap.Logger
}

// Authorize returns the caller's member record when accountID may perform
// action on the group.
func (m *MembershipGate) Authorize(ctx context.Context, groupID, accountID uuid.UUID, action Action) (*models.Member, error) {
	var g models.Group
	err := m.db.WithContext(ctx).First(&g, "id = ?", groupID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return authorize(m.db.WithContext(ctx), &g, accountID, action)
}

func authorize(tx *gorm.DB, g *models.Group, accountID uuid.UUID, action Action) (*models.Member, error) {
	member, err := memberForAccount(tx, accountID)
	if err != nil {
		return nil, err
	}
	ok, err := isGroupMember(tx, g.ID, member.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAMember
	}
	if action.ownerOnly() && g.OwnerID != member.ID {
		return nil, fmt.Errorf("%w: only the group owner may %s", ErrNotAuthorized, action)
	}
	if action == ActionLeave && g.OwnerID == member.ID {
		return nil, fmt.Errorf("%w: the owner cannot leave, delete the group instead", ErrNotAuthorized)
	}
	return member, nil
}

func memberForAccount(tx *gorm.DB, accountID uuid.UUID) (*models.Member, error) {
	var member models.Member
	err := tx.Where("user_id = ?", accountID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotAMember
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func isGroupMember(tx *gorm.DB, groupID, memberID uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&models.GroupMember{}).
		Where("group_id = ? AND member_id = ?", groupID, memberID).
		Count(&count).Error
	return count > 0, err
}

// requireMembers fails with ErrNotAMember unless every id is a current
// member of the group.
func requireMembers(tx *gorm.DB, groupID uuid.UUID, ids ...uuid.UUID) error {
	unique := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	list := make([]uuid.UUID, 0, len(unique))
	for id := range unique {
		list = append(list, id)
	}

	var count int64
	err := tx.Model(&models.GroupMember{}).
		Where("group_id = ? AND member_id IN ?", groupID, list).
		Count(&count).Error
	if err != nil {
		return err
	}
	if int(count) != len(list) {
		return ErrNotAMember
	}
	return nil
}

// ensureMember returns the account's member identity, creating it on first
// use.
func ensureMember(tx *gorm.DB, user *models.User) (*models.Member, error) {
	member := models.Member{
		UserID:   user.ID,
		Email:    user.Email,
		UserName: user.UserName,
		ImageURL: user.ProfilePicture,
	}
	err := tx.Where(models.Member{UserID: user.ID}).FirstOrCreate(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func hasOpenBalances(tx *gorm.DB, groupID, memberID uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&models.PairBalance{}).
		Where("group_id = ? AND (debtor_id = ? OR creditor_id = ?)", groupID, memberID, memberID).
		Count(&count).Error
	return count > 0, err
}

// CreateGroup makes the caller the owner and first member.
func (m *MembershipGate) CreateGroup(ctx context.Context, accountID uuid.UUID, req models.CreateGroupRequest) (*models.GroupResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrInvalidInput)
	}
	category := strings.ToUpper(strings.TrimSpace(req.Category))
	if category == "" {
		category = "NONE"
	}

	var groupID uuid.UUID
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("account %s: %w", accountID, ErrNotFound)
			}
			return err
		}
		owner, err := ensureMember(tx, &user)
		if err != nil {
			return err
		}

		group := models.Group{
			Name:         name,
			Category:     category,
			ImageURL:     req.ImageURL,
			OwnerID:      owner.ID,
			TotalExpense: decimal.Zero,
		}
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		groupID = group.ID

		if err := tx.Create(&models.GroupMember{GroupID: group.ID, MemberID: owner.ID, Role: models.RoleOwner}).Error; err != nil {
			return err
		}
		return logActivity(tx, group.ID, owner.ID, models.ActivityGroupCreated, group.ID,
			fmt.Sprintf("%s created group %q", owner.UserName, group.Name))
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("group created", zap.String("group_id", groupID.String()), zap.String("account_id", accountID.String()))
	return groupResponse(m.db.WithContext(ctx), groupID)
}

// ListGroups returns every group the account belongs to, newest first.
func (m *MembershipGate) ListGroups(ctx context.Context, accountID uuid.UUID) ([]models.GroupResponse, error) {
	db := m.db.WithContext(ctx)
	member, err := memberForAccount(db, accountID)
	if errors.Is(err, ErrNotAMember) {
		return []models.GroupResponse{}, nil
	}
	if err != nil {
		return nil, err
	}

	var groups []models.Group
	err = db.Where("id IN (?)", db.Model(&models.GroupMember{}).Select("group_id").Where("member_id = ?", member.ID)).
		Order("created_at DESC").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}

	responses := make([]models.GroupResponse, 0, len(groups))
	for _, g := range groups {
		resp, err := groupResponse(db, g.ID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *resp)
	}
	return responses, nil
}

func (m *MembershipGate) GetGroup(ctx context.Context, groupID, accountID uuid.UUID) (*models.GroupResponse, error) {
	if _, err := m.Authorize(ctx, groupID, accountID, ActionView); err != nil {
		return nil, err
	}
	return groupResponse(m.db.WithContext(ctx), groupID)
}

// UpdateGroup changes display fields; empty fields are left alone.
func (m *MembershipGate) UpdateGroup(ctx context.Context, groupID, accountID uuid.UUID, req models.UpdateGroupRequest) (*models.GroupResponse, error) {
	err := m.runner.run(ctx, groupID, func(tx *gorm.DB, g *models.Group) error {
		if _, err := authorize(tx, g, accountID, ActionUpdate); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if name := strings.TrimSpace(req.Name); name != "" {
			updates["name"] = name
		}
		if req.Category != "" {
			updates["category"] = strings.ToUpper(strings.TrimSpace(req.Category))
		}
		if req.ImageURL != "" {
			updates["image_url"] = req.ImageURL
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&models.Group{}).Where("id = ?", g.ID).Updates(updates).Error; err != nil {
			return err
		}
		return bumpGroup(tx, g, decimal.Zero)
	})
	if err != nil {
		return nil, err
	}
	return groupResponse(m.db.WithContext(ctx), groupID)
}

// DeleteGroup removes the group with its entries, balances, settlements,
// invitations, memberships and activity.
func (m *MembershipGate) DeleteGroup(ctx context.Context, groupID, accountID uuid.UUID) error {
	return m.runner.run(ctx, groupID, func(tx *gorm.DB, g *models.Group) error {
		if _, err := authorize(tx, g, accountID, ActionDelete); err != nil {
			return err
		}

		entryIDs := tx.Model(&models.LedgerEntry{}).Select("id").Where("group_id = ?", g.ID)
		steps := []*gorm.DB{
			tx.Where("entry_id IN (?)", entryIDs).Delete(&models.EntryParticipant{}),
			tx.Where("group_id = ?", g.ID).Delete(&models.LedgerEntry{}),
			tx.Where("group_id = ?", g.ID).Delete(&models.PairBalance{}),
			tx.Where("group_id = ?", g.ID).Delete(&models.Settlement{}),
			tx.Where("group_id = ?", g.ID).Delete(&models.Invitation{}),
			tx.Where("group_id = ?", g.ID).Delete(&models.GroupMember{}),
			tx.Where("group_id = ?", g.ID).Delete(&models.Activity{}),
			tx.Delete(&models.Group{}, "id = ?", g.ID),
		}
		for _, step := range steps {
			if step.Error != nil {
				return step.Error
			}
		}
		m.log.Info("group deleted", zap.String("group_id", g.ID.String()))
		return nil
	})
}

// RemoveMember takes memberID out of the group. Members may remove
// themselves; removing someone else is owner-only. Nobody leaves while
// they still owe or are owed money in the group.
func (m *MembershipGate) RemoveMember(ctx context.Context, groupID, accountID, memberID uuid.UUID) error {
	var actorName, targetName string
	err := m.runner.run(ctx, groupID, func(tx *gorm.DB, g *models.Group) error {
		actor, err := authorize(tx, g, accountID, ActionView)
		if err != nil {
			return err
		}

		action := ActionRemoveMember
		if actor.ID == memberID {
			action = ActionLeave
		}
		if _, err := authorize(tx, g, accountID, action); err != nil {
			return err
		}

		var target models.Member
		if err := tx.First(&target, "id = ?", memberID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotAMember
			}
			return err
		}
		ok, err := isGroupMember(tx, g.ID, target.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotAMember
		}

		open, err := hasOpenBalances(tx, g.ID, target.ID)
		if err != nil {
			return err
		}
		if open {
			return ErrOutstandingBalance
		}

		if err := tx.Where("group_id = ? AND member_id = ?", g.ID, target.ID).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}

		actorName, targetName = actor.UserName, target.UserName
		desc := fmt.Sprintf("%s left %s", target.UserName, g.Name)
		if action == ActionRemoveMember {
			desc = fmt.Sprintf("%s removed %s from %s", actor.UserName, target.UserName, g.Name)
		}
		if err := logActivity(tx, g.ID, actor.ID, models.ActivityMemberLeft, target.ID, desc); err != nil {
			return err
		}
		return bumpGroup(tx, g, decimal.Zero)
	})
	if err != nil {
		return err
	}

	m.log.Info("member removed",
		zap.String("group_id", groupID.String()),
		zap.String("by", actorName),
		zap.String("member", targetName))
	m.notify.GroupChanged(ctx, groupID)
	return nil
}

// Leave is RemoveMember on the caller's own membership.
func (m *MembershipGate) Leave(ctx context.Context, groupID, accountID uuid.UUID) error {
	member, err := memberForAccount(m.db.WithContext(ctx), accountID)
	if err != nil {
		return err
	}
	return m.RemoveMember(ctx, groupID, accountID, member.ID)
}

func groupResponse(db *gorm.DB, groupID uuid.UUID) (*models.GroupResponse, error) {
	var group models.Group
	err := db.Preload("Members.Member").First(&group, "id = ?", groupID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	members := make([]models.GroupMemberResponse, 0, len(group.Members))
	for _, gm := range group.Members {
		members = append(members, models.GroupMemberResponse{
			MemberID: gm.MemberID,
			UserID:   gm.Member.UserID,
			UserName: gm.Member.UserName,
			Email:    gm.Member.Email,
			ImageURL: gm.Member.ImageURL,
			Role:     gm.Role,
			JoinedAt: gm.JoinedAt,
		})
	}

	return &models.GroupResponse{
		ID:           group.ID,
		Name:         group.Name,
		ImageURL:     group.ImageURL,
		Category:     group.Category,
		OwnerID:      group.OwnerID,
		TotalExpense: group.TotalExpense,
		Members:      members,
		CreatedAt:    group.CreatedAt,
	}, nil
}

// memberAccounts lists the account ids behind the group's members.
func memberAccounts(db *gorm.DB, groupID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.Model(&models.Member{}).
		Joins("JOIN group_members ON group_members.member_id = members.id").
		Where("group_members.group_id = ?", groupID).
		Pluck("members.user_id", &ids).Error
	return ids, err
}
