package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"expenshare-backend/models"
	"expenshare-backend/realtime"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Event types sent to connected clients.
const (
	EventBalancesUpdated    = "balances_updated"
	EventGroupUpdated       = "group_updated"
	EventInvitationReceived = "invitation_received"
)

const deliveryTimeout = 15 * time.Second

// Publisher hands an event to the realtime layer.
type Publisher interface {
	Publish(ctx context.Context, ev realtime.Event) error
}

// NotificationService tells members about changes after they commit.
// Every method is best effort: failures are logged, never returned to the
// caller, and a nil service or nil collaborator skips that channel.
type NotificationService struct {
	db      *gorm.DB
	events  Publisher
	push    Pusher
	mail    Mailer
	appName string
	appURL  string
	otpTTL  time.Duration
	log     *zap.Logger

	wg sync.WaitGroup
}

// BalancesChanged publishes the group's current balance view to its
// members.
func (n *NotificationService) BalancesChanged(ctx context.Context, groupID uuid.UUID) {
	if n == nil || n.events == nil {
		return
	}
	db := n.db.WithContext(ctx)
	summary, err := balanceSummary(db, groupID)
	if err != nil {
		n.log.Warn("build balance view", zap.String("group_id", groupID.String()), zap.Error(err))
		return
	}
	n.publish(ctx, db, groupID, EventBalancesUpdated, summary)
}

// GroupChanged publishes the group's membership view to its members.
func (n *NotificationService) GroupChanged(ctx context.Context, groupID uuid.UUID) {
	if n == nil || n.events == nil {
		return
	}
	db := n.db.WithContext(ctx)
	group, err := groupResponse(db, groupID)
	if err != nil {
		n.log.Warn("build group view", zap.String("group_id", groupID.String()), zap.Error(err))
		return
	}
	n.publish(ctx, db, groupID, EventGroupUpdated, group)
}

func (n *NotificationService) publish(ctx context.Context, db *gorm.DB, groupID uuid.UUID, kind string, data interface{}) {
	recipients, err := memberAccounts(db, groupID)
	if err != nil {
		n.log.Warn("list recipients", zap.String("group_id", groupID.String()), zap.Error(err))
		return
	}
	n.emit(ctx, kind, recipients, data)
}

func (n *NotificationService) emit(ctx context.Context, kind string, recipients []uuid.UUID, data interface{}) {
	if n.events == nil || len(recipients) == 0 {
		return
	}
	ev, err := realtime.NewEvent(kind, recipients, data)
	if err != nil {
		n.log.Error("encode event", zap.String("type", kind), zap.Error(err))
		return
	}
	if err := n.events.Publish(ctx, ev); err != nil {
		n.log.Warn("publish event", zap.String("type", kind), zap.Error(err))
	}
}

// EntryAdded pushes and mails every participant other than the payer.
func (n *NotificationService) EntryAdded(ctx context.Context, entry *models.LedgerEntry, actor *models.Member) {
	if n == nil || (n.push == nil && n.mail == nil) {
		return
	}
	db := n.db.WithContext(ctx)
	var group models.Group
	if err := db.Select("id", "name").First(&group, "id = ?", entry.GroupID).Error; err != nil {
		n.log.Warn("load group for entry notice", zap.Error(err))
		return
	}
	var ids []uuid.UUID
	for _, p := range entry.Participants {
		if p.MemberID != entry.PayerID {
			ids = append(ids, p.MemberID)
		}
	}
	users, err := usersForMembers(db, ids)
	if err != nil {
		n.log.Warn("load entry recipients", zap.Error(err))
		return
	}
	payerName := actor.UserName
	if names, err := memberNames(db, func(add func(uuid.UUID)) { add(entry.PayerID) }); err == nil && names[entry.PayerID] != "" {
		payerName = names[entry.PayerID]
	}

	for _, p := range entry.Participants {
		user, ok := users[p.MemberID]
		if !ok {
			continue
		}
		share := p.Share.StringFixed(2)
		n.deliver(user,
			fmt.Sprintf("%s added an expense", payerName),
			fmt.Sprintf("You owe %s for %q in %s", share, entry.Title, group.Name),
			map[string]string{"type": "entry_added", "entry_id": entry.ID.String(), "group_id": group.ID.String()},
			fmt.Sprintf("%s added %q in %s", payerName, entry.Title, group.Name),
			"entry", map[string]interface{}{
				"PayerName": payerName,
				"GroupName": group.Name,
				"Title":     entry.Title,
				"Amount":    entry.Amount.StringFixed(2),
				"Share":     share,
			})
	}
}

// SettlementRecorded tells the payee they were paid.
func (n *NotificationService) SettlementRecorded(ctx context.Context, s *models.Settlement, payer *models.Member) {
	if n == nil || (n.push == nil && n.mail == nil) {
		return
	}
	db := n.db.WithContext(ctx)
	var group models.Group
	if err := db.Select("id", "name").First(&group, "id = ?", s.GroupID).Error; err != nil {
		n.log.Warn("load group for settlement notice", zap.Error(err))
		return
	}
	users, err := usersForMembers(db, []uuid.UUID{s.PayeeID})
	if err != nil {
		n.log.Warn("load payee", zap.Error(err))
		return
	}
	payee, ok := users[s.PayeeID]
	if !ok {
		return
	}
	amount := s.Amount.StringFixed(2)
	n.deliver(payee,
		fmt.Sprintf("%s paid you", payer.UserName),
		fmt.Sprintf("%s paid you %s in %s", payer.UserName, amount, group.Name),
		map[string]string{"type": "settlement", "group_id": group.ID.String()},
		fmt.Sprintf("%s settled up with you in %s", payer.UserName, group.Name),
		"settlement", map[string]interface{}{
			"PayerName": payer.UserName,
			"GroupName": group.Name,
			"Amount":    amount,
		})
}

// InvitationSent notifies the receiver over every channel.
func (n *NotificationService) InvitationSent(ctx context.Context, inv *models.Invitation, sender *models.Member) {
	if n == nil {
		return
	}
	n.emit(ctx, EventInvitationReceived, []uuid.UUID{inv.ReceiverID}, inv)
	if n.push == nil && n.mail == nil {
		return
	}

	var receiver models.User
	if err := n.db.WithContext(ctx).First(&receiver, "id = ?", inv.ReceiverID).Error; err != nil {
		n.log.Warn("load invitation receiver", zap.Error(err))
		return
	}
	n.deliver(receiver,
		fmt.Sprintf("Invitation to %q", inv.GroupName),
		fmt.Sprintf("%s invited you to join %q", sender.UserName, inv.GroupName),
		map[string]string{"type": "invitation", "invitation_id": inv.ID.String(), "group_id": inv.GroupID.String()},
		fmt.Sprintf("%s invited you to join %q on %s", sender.UserName, inv.GroupName, n.appName),
		"invitation", map[string]interface{}{
			"SenderName": sender.UserName,
			"GroupName":  inv.GroupName,
		})
}

// SendOTP mails a verification code. Unlike the other notices the caller
// needs to know whether it went out.
func (n *NotificationService) SendOTP(ctx context.Context, email, userName, code string) error {
	if n == nil || n.mail == nil {
		n.logger().Warn("no mailer configured, verification code not sent", zap.String("email", email))
		return nil
	}
	body, err := renderEmail("otp", map[string]interface{}{
		"AppName":  n.appName,
		"UserName": userName,
		"Code":     code,
		"Minutes":  int(n.otpTTL.Minutes()),
	})
	if err != nil {
		return err
	}
	return n.mail.Send(ctx, email, userName, fmt.Sprintf("Your %s verification code", n.appName), body)
}

// Wait blocks until queued push and mail deliveries finish. Callers stop
// every producer first (main shuts the HTTP server down before calling
// it), so no deliver races the wait.
func (n *NotificationService) Wait() {
	if n != nil {
		n.wg.Wait()
	}
}

// deliver sends push and mail in the background.
func (n *NotificationService) deliver(user models.User, title, body string, data map[string]string, subject, tmpl string, vars map[string]interface{}) {
	vars["AppName"] = n.appName
	vars["AppURL"] = n.appURL
	vars["UserName"] = user.UserName

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()

		if n.push != nil && user.FCMToken != "" {
			if err := n.push.Push(ctx, user.FCMToken, title, body, data); err != nil {
				n.log.Warn("push failed", zap.String("user_id", user.ID.String()), zap.Error(err))
			}
		}
		if n.mail != nil {
			html, err := renderEmail(tmpl, vars)
			if err != nil {
				n.log.Error("render email", zap.String("template", tmpl), zap.Error(err))
				return
			}
			if err := n.mail.Send(ctx, user.Email, user.UserName, subject, html); err != nil {
				n.log.Warn("email failed", zap.String("user_id", user.ID.String()), zap.Error(err))
			}
		}
	}()
}

func (n *NotificationService) logger() *zap.Logger {
	if n == nil || n.log == nil {
		return zap.NewNop()
	}
	return n.log
}

// usersForMembers maps member ids to their accounts.
func usersForMembers(db *gorm.DB, memberIDs []uuid.UUID) (map[uuid.UUID]models.User, error) {
	out := make(map[uuid.UUID]models.User, len(memberIDs))
	if len(memberIDs) == 0 {
		return out, nil
	}
	var members []models.Member
	if err := db.Where("id IN ?", memberIDs).Find(&members).Error; err != nil {
		return nil, err
	}
	userIDs := make([]uuid.UUID, 0, len(members))
	byUser := make(map[uuid.UUID]uuid.UUID, len(members))
	for _, m := range members {
		userIDs = append(userIDs, m.UserID)
		byUser[m.UserID] = m.ID
	}
	if len(userIDs) == 0 {
		return out, nil
	}
	var users []models.User
	if err := db.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[byUser[u.ID]] = u
	}
	return out, nil
}
