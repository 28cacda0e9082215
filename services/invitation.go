package services

import (
	"context"
	"errors"
	"fmt"

	"expenshare-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InvitationService runs the invitation state machine:
// PENDING -> ACCEPTED | REJECTED, both terminal.
type InvitationService struct {
	db     *gorm.DB
	runner *groupRunner
	notify *NotificationService
	log    *zap.Logger
}

// Invite asks receiverID (an account) to join the group.
func (s *InvitationService) Invite(ctx context.Context, groupID, accountID, receiverID uuid.UUID) (*models.Invitation, error) {
	var inv models.Invitation
	var sender *models.Member
	err := s.runner.run(ctx, groupID, func(tx *gorm.DB, g *models.Group) error {
		m, err := authorize(tx, g, accountID, ActionInvite)
		if err != nil {
			return err
		}
		sender = m

		var receiver models.User
		if err := tx.First(&receiver, "id = ?", receiverID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("account %s: %w", receiverID, ErrNotFound)
			}
			return err
		}

		existing, err := memberForAccount(tx, receiverID)
		switch {
		case err == nil:
			ok, err := isGroupMember(tx, g.ID, existing.ID)
			if err != nil {
				return err
			}
			if ok {
				return ErrAlreadyMember
			}
		case !errors.Is(err, ErrNotAMember):
			return err
		}

		var pending int64
		err = tx.Model(&models.Invitation{}).
			Where("group_id = ? AND receiver_id = ? AND status = ?", g.ID, receiverID, models.InvitationPending).
			Count(&pending).Error
		if err != nil {
			return err
		}
		if pending > 0 {
			return ErrDuplicateInvitation
		}

		inv = models.Invitation{
			GroupID:    g.ID,
			GroupName:  g.Name,
			SenderID:   sender.ID,
			ReceiverID: receiverID,
			Status:     models.InvitationPending,
		}
		if err := tx.Create(&inv).Error; err != nil {
			return err
		}
		return logActivity(tx, g.ID, sender.ID, models.ActivityInvitationSent, inv.ID,
			fmt.Sprintf("%s invited %s", sender.UserName, receiver.UserName))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("invitation sent",
		zap.String("group_id", groupID.String()),
		zap.String("receiver_id", receiverID.String()))
	s.notify.InvitationSent(ctx, &inv, sender)
	return &inv, nil
}

// Accept joins the receiver to the group, creating their member identity
// on first use.
func (s *InvitationService) Accept(ctx context.Context, invitationID, accountID uuid.UUID) (*models.Invitation, error) {
	inv, err := s.receiverInvitation(ctx, invitationID, accountID)
	if err != nil {
		return nil, err
	}

	err = s.runner.run(ctx, inv.GroupID, func(tx *gorm.DB, g *models.Group) error {
		if err := closeInvitation(tx, inv, models.InvitationAccepted); err != nil {
			return err
		}

		var user models.User
		if err := tx.First(&user, "id = ?", accountID).Error; err != nil {
			return err
		}
		member, err := ensureMember(tx, &user)
		if err != nil {
			return err
		}
		ok, err := isGroupMember(tx, g.ID, member.ID)
		if err != nil {
			return err
		}
		if ok {
			return ErrAlreadyMember
		}
		if err := tx.Create(&models.GroupMember{GroupID: g.ID, MemberID: member.ID, Role: models.RoleMember}).Error; err != nil {
			return err
		}
		if err := logActivity(tx, g.ID, member.ID, models.ActivityMemberJoined, member.ID,
			fmt.Sprintf("%s joined %s", member.UserName, g.Name)); err != nil {
			return err
		}
		return bumpGroup(tx, g, decimal.Zero)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("invitation accepted", zap.String("invitation_id", invitationID.String()))
	s.notify.GroupChanged(ctx, inv.GroupID)
	return inv, nil
}

// Reject closes the invitation without side effects.
func (s *InvitationService) Reject(ctx context.Context, invitationID, accountID uuid.UUID) (*models.Invitation, error) {
	inv, err := s.receiverInvitation(ctx, invitationID, accountID)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return closeInvitation(tx, inv, models.InvitationRejected)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("invitation rejected", zap.String("invitation_id", invitationID.String()))
	return inv, nil
}

// ListPending returns the account's unanswered invitations.
func (s *InvitationService) ListPending(ctx context.Context, accountID uuid.UUID) ([]models.Invitation, error) {
	invitations := []models.Invitation{}
	err := s.db.WithContext(ctx).
		Where("receiver_id = ? AND status = ?", accountID, models.InvitationPending).
		Order("created_at DESC").
		Find(&invitations).Error
	return invitations, err
}

func (s *InvitationService) receiverInvitation(ctx context.Context, invitationID, accountID uuid.UUID) (*models.Invitation, error) {
	var inv models.Invitation
	err := s.db.WithContext(ctx).First(&inv, "id = ?", invitationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("invitation %s: %w", invitationID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if inv.ReceiverID != accountID {
		return nil, fmt.Errorf("%w: only the receiver may answer an invitation", ErrNotAuthorized)
	}
	if inv.Terminal() {
		return nil, ErrInvitationClosed
	}
	return &inv, nil
}

// closeInvitation moves a PENDING invitation to status. The status guard
// in the WHERE clause makes a second answer a no-op that reports
// ErrInvitationClosed.
func closeInvitation(tx *gorm.DB, inv *models.Invitation, status string) error {
	res := tx.Model(&models.Invitation{}).
		Where("id = ? AND status = ?", inv.ID, models.InvitationPending).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvitationClosed
	}
	inv.Status = status
	return nil
}
