package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"expenshare-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EntryInput describes a group expense. The payer is a participant only
// when listed in Participants.
type EntryInput struct {
	PayerID       uuid.UUID // zero means the caller
	Participants  []uuid.UUID
	Amount        decimal.Decimal
	Category      string
	Title         string
	Date          time.Time // zero means today
	Note          string
	AttachmentURL string
}

func (in *EntryInput) normalize() ([]Share, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC().Truncate(24 * time.Hour)
	}
	return SplitEven(in.Amount, in.Participants)
}

// Ledger records group expenses and settlements and keeps pair balances
// netted.
type Ledger struct {
	db     *gorm.DB
	runner *groupRunner
	gate   *MembershipGate
	notify *NotificationService
	log    *zap.Logger
}

// RecordEntry stores a new expense and posts each participant's share as
// a debt to the payer, atomically.
func (l *Ledger) RecordEntry(ctx context.Context, groupID, accountID uuid.UUID, in EntryInput) (*models.LedgerEntry, error) {
	shares, err := in.normalize()
	if err != nil {
		return nil, err
	}

	var entry models.LedgerEntry
	var actor *models.Member
	err = l.runner.run(ctx, groupID, func(tx *gorm.DB, g *models.Group) error {
		a, err := authorize(tx, g, accountID, ActionRecord)
		if err != nil {
			return err
		}
		actor = a
		payer := in.PayerID
		if payer == uuid.Nil {
			payer = actor.ID
		}
		if err := requireMembers(tx, g.ID, append([]uuid.UUID{payer}, in.Participants...)...); err != nil {
			return err
		}

		entry = models.LedgerEntry{
			GroupID:       g.ID,
			PayerID:       payer,
			Amount:        in.Amount,
			Category:      in.Category,
			Title:         in.Title,
			EntryDate:     in.Date,
			Note:          in.Note,
			AttachmentURL: in.AttachmentURL,
			Participants:  participantRows(shares),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		if err := applyShares(tx, g.ID, payer, shares, 1); err != nil {
			return err
		}
		if err := logActivity(tx, g.ID, actor.ID, models.ActivityEntryAdded, entry.ID,
			fmt.Sprintf("%s added %q (%s)", actor.UserName, entry.Title, entry.Amount.StringFixed(2))); err != nil {
			return err
		}
		return bumpGroup(tx, g, entry.Amount)
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("entry recorded",
		zap.String("group_id", groupID.String()),
		zap.String("entry_id", entry.ID.String()),
		zap.String("amount", entry.Amount.String()))
	l.notify.BalancesChanged(ctx, groupID)
	l.notify.EntryAdded(ctx, &entry, actor)
	return &entry, nil
}

// EditEntry replaces an entry's fields. The old allocation is reversed and
// the new one applied in the same transaction.
func (l *Ledger) EditEntry(ctx context.Context, entryID, accountID uuid.UUID, in EntryInput) (*models.LedgerEntry, error) {
	shares, err := in.normalize()
	if err != nil {
		return nil, err
	}
	groupID, err := l.entryGroup(ctx, entryID)
	if err != nil {
		return nil, err
	}

	var entry models.LedgerEntry
	err = l.runner.run(ctx, groupID, func(tx *gorm.DB, g *models.Group) error {
		actor, err := authorize(tx, g, accountID, ActionRecord)
		if err != nil {
			return err
		}
		if err := loadEntry(tx, entryID, g.ID, &entry); err != nil {
			return err
		}
		if err := requireEntryParties(tx, g.ID, &entry); err != nil {
			return err
		}

		payer := in.PayerID
		if payer == uuid.Nil {
			payer = entry.PayerID
		}
		if err := requireMembers(tx, g.ID, append([]uuid.UUID{payer}, in.Participants...)...); err != nil {
			return err
		}

		oldAmount := entry.Amount
		if err := applyShares(tx, g.ID, entry.PayerID, sharesOf(&entry), -1); err != nil {
			return err
		}
		if err := tx.Where("entry_id = ?", entry.ID).Delete(&models.EntryParticipant{}).Error; err != nil {
			return err
		}

		entry.PayerID = payer
		entry.Amount = in.Amount
		entry.Category = in.Category
		entry.Title = in.Title
		entry.EntryDate = in.Date
		entry.Note = in.Note
		entry.AttachmentURL = in.AttachmentURL
		entry.Participants = participantRows(shares)
		for i := range entry.Participants {
			entry.Participants[i].EntryID = entry.ID
		}

		if err := tx.Omit(clause.Associations).Save(&entry).Error; err != nil {
			return err
		}
		if err := tx.Create(&entry.Participants).Error; err != nil {
			return err
		}
		if err := applyShares(tx, g.ID, payer, shares, 1); err != nil {
			return err
		}
		if err := logActivity(tx, g.ID, actor.ID, models.ActivityEntryUpdated, entry.ID,
			fmt.Sprintf("%s updated %q", actor.UserName, entry.Title)); err != nil {
			return err
		}
		return bumpGroup(tx, g, entry.Amount.Sub(oldAmount))
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("entry edited", zap.String("entry_id", entryID.String()))
	l.notify.BalancesChanged(ctx, groupID)
	return &entry, nil
}

// DeleteEntry reverses an entry's allocation and removes it.
func (l *Ledger) DeleteEntry(ctx context.Context, entryID, accountID uuid.UUID) error {
	groupID, err := l.entryGroup(ctx, entryID)
	if err != nil {
		return err
	}

	err = l.runner.run(ctx, groupID, func(tx *gorm.DB, g *models.Group) error {
		actor, err := authorize(tx, g, accountID, ActionRecord)
		if err != nil {
			return err
		}
		var entry models.LedgerEntry
		if err := loadEntry(tx, entryID, g.ID, &entry); err != nil {
			return err
		}
		if err := requireEntryParties(tx, g.ID, &entry); err != nil {
			return err
		}

		if err := applyShares(tx, g.ID, entry.PayerID, sharesOf(&entry), -1); err != nil {
			return err
		}
		if err := tx.Where("entry_id = ?", entry.ID).Delete(&models.EntryParticipant{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&entry).Error; err != nil {
			return err
		}
		if err := logActivity(tx, g.ID, actor.ID, models.ActivityEntryDeleted, entry.ID,
			fmt.Sprintf("%s deleted %q (%s)", actor.UserName, entry.Title, entry.Amount.StringFixed(2))); err != nil {
			return err
		}
		return bumpGroup(tx, g, entry.Amount.Neg())
	})
	if err != nil {
		return err
	}

	l.log.Info("entry deleted", zap.String("entry_id", entryID.String()))
	l.notify.BalancesChanged(ctx, groupID)
	return nil
}

// GetEntry returns one entry with payer and participant names.
func (l *Ledger) GetEntry(ctx context.Context, entryID, accountID uuid.UUID) (*models.EntryResponse, error) {
	groupID, err := l.entryGroup(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if _, err := l.gate.Authorize(ctx, groupID, accountID, ActionView); err != nil {
		return nil, err
	}

	db := l.db.WithContext(ctx)
	var entry models.LedgerEntry
	if err := loadEntry(db, entryID, groupID, &entry); err != nil {
		return nil, err
	}
	responses, err := entryResponses(db, []models.LedgerEntry{entry})
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

// ListEntries pages through a group's entries, most recent date first.
func (l *Ledger) ListEntries(ctx context.Context, groupID, accountID uuid.UUID, offset, limit int) ([]models.EntryResponse, error) {
	if _, err := l.gate.Authorize(ctx, groupID, accountID, ActionView); err != nil {
		return nil, err
	}

	db := l.db.WithContext(ctx)
	var entries []models.LedgerEntry
	err := db.Preload("Participants").
		Where("group_id = ?", groupID).
		Order("entry_date DESC, created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entryResponses(db, entries)
}

func (l *Ledger) entryGroup(ctx context.Context, entryID uuid.UUID) (uuid.UUID, error) {
	var entry models.LedgerEntry
	err := l.db.WithContext(ctx).Select("id", "group_id").First(&entry, "id = ?", entryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
	}
	return entry.GroupID, err
}

func loadEntry(tx *gorm.DB, entryID, groupID uuid.UUID, entry *models.LedgerEntry) error {
	err := tx.Preload("Participants").
		Where("id = ? AND group_id = ?", entryID, groupID).
		First(entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
	}
	return err
}

// requireEntryParties refuses to reverse an entry once its payer or any
// participant has left the group, since the reversal would leave a balance
// nobody can settle.
func requireEntryParties(tx *gorm.DB, groupID uuid.UUID, entry *models.LedgerEntry) error {
	ids := []uuid.UUID{entry.PayerID}
	for _, p := range entry.Participants {
		ids = append(ids, p.MemberID)
	}
	if err := requireMembers(tx, groupID, ids...); err != nil {
		return fmt.Errorf("entry %s involves a member who left: %w", entry.ID, err)
	}
	return nil
}

func participantRows(shares []Share) []models.EntryParticipant {
	rows := make([]models.EntryParticipant, 0, len(shares))
	for _, s := range shares {
		rows = append(rows, models.EntryParticipant{MemberID: s.MemberID, Share: s.Amount})
	}
	return rows
}

func entryResponses(db *gorm.DB, entries []models.LedgerEntry) ([]models.EntryResponse, error) {
	names, err := memberNames(db, func(add func(uuid.UUID)) {
		for _, e := range entries {
			add(e.PayerID)
			for _, p := range e.Participants {
				add(p.MemberID)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	responses := make([]models.EntryResponse, 0, len(entries))
	for _, e := range entries {
		participants := make([]models.ParticipantResponse, 0, len(e.Participants))
		for _, p := range e.Participants {
			participants = append(participants, models.ParticipantResponse{
				MemberID: p.MemberID,
				UserName: names[p.MemberID],
				Share:    p.Share,
			})
		}
		responses = append(responses, models.EntryResponse{
			ID:            e.ID,
			GroupID:       e.GroupID,
			PayerID:       e.PayerID,
			PayerName:     names[e.PayerID],
			Amount:        e.Amount,
			Category:      e.Category,
			Title:         e.Title,
			EntryDate:     e.EntryDate,
			Note:          e.Note,
			AttachmentURL: e.AttachmentURL,
			Participants:  participants,
			CreatedAt:     e.CreatedAt,
		})
	}
	return responses, nil
}

// memberNames resolves display names for the ids fed to collect.
func memberNames(db *gorm.DB, collect func(add func(uuid.UUID))) (map[uuid.UUID]string, error) {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	collect(func(id uuid.UUID) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	})

	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var members []models.Member
	if err := db.Where("id IN ?", ids).Find(&members).Error; err != nil {
		return nil, err
	}
	for _, m := range members {
		names[m.ID] = m.UserName
	}
	return names, nil
}
