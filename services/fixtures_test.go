package services

import (
	"context"
	"sync"
	"testing"

	"expenshare-backend/models"
	"expenshare-backend/realtime"
	"expenshare-backend/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) ofType(kind string) []realtime.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []realtime.Event
	for _, ev := range p.events {
		if ev.Type == kind {
			out = append(out, ev)
		}
	}
	return out
}

type sentMail struct {
	to, subject, body string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) Send(_ context.Context, toEmail, _, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: toEmail, subject: subject, body: htmlBody})
	return nil
}

func (m *recordingMailer) to(email string) []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMail
	for _, s := range m.sent {
		if s.to == email {
			out = append(out, s)
		}
	}
	return out
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	db     *gorm.DB
	svc    *Services
	events *recordingPublisher
	mail   *recordingMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	events := &recordingPublisher{}
	mail := &recordingMailer{}
	svc := New(db, zap.NewNop(), Options{Events: events, Mail: mail, AppName: "ExpenShare"})
	t.Cleanup(svc.Notifications.Wait)
	return &fixture{t: t, ctx: context.Background(), db: db, svc: svc, events: events, mail: mail}
}

type account struct {
	ID     uuid.UUID // user id
	Member uuid.UUID
	Name   string
}

func (f *fixture) account(name string) account {
	f.t.Helper()
	user := models.User{Email: name + "@example.com", UserName: name, PasswordHash: "x"}
	if err := f.db.Create(&user).Error; err != nil {
		f.t.Fatalf("create user %s: %v", name, err)
	}
	member, err := ensureMember(f.db, &user)
	if err != nil {
		f.t.Fatalf("create member %s: %v", name, err)
	}
	return account{ID: user.ID, Member: member.ID, Name: name}
}

// group creates a group owned by owner and joins the others directly.
func (f *fixture) group(owner account, others ...account) uuid.UUID {
	f.t.Helper()
	g, err := f.svc.Gate.CreateGroup(f.ctx, owner.ID, models.CreateGroupRequest{Name: "Trip"})
	if err != nil {
		f.t.Fatalf("create group: %v", err)
	}
	for _, a := range others {
		if err := f.db.Create(&models.GroupMember{GroupID: g.ID, MemberID: a.Member, Role: models.RoleMember}).Error; err != nil {
			f.t.Fatalf("join %s: %v", a.Name, err)
		}
	}
	return g.ID
}

func (f *fixture) record(groupID uuid.UUID, caller, payer account, amount string, participants ...account) *models.LedgerEntry {
	f.t.Helper()
	entry, err := f.svc.Ledger.RecordEntry(f.ctx, groupID, caller.ID, entryInput(payer, amount, participants...))
	if err != nil {
		f.t.Fatalf("record %s: %v", amount, err)
	}
	return entry
}

func entryInput(payer account, amount string, participants ...account) EntryInput {
	ids := make([]uuid.UUID, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.Member)
	}
	return EntryInput{
		PayerID:      payer.Member,
		Participants: ids,
		Amount:       decimal.RequireFromString(amount),
		Title:        "dinner",
	}
}

// owes returns what debtor owes creditor in the group, zero if no row.
func (f *fixture) owes(groupID uuid.UUID, debtor, creditor account) decimal.Decimal {
	f.t.Helper()
	var rows []models.PairBalance
	err := f.db.Where("group_id = ? AND debtor_id = ? AND creditor_id = ?", groupID, debtor.Member, creditor.Member).
		Find(&rows).Error
	if err != nil {
		f.t.Fatalf("load balance: %v", err)
	}
	if len(rows) > 1 {
		f.t.Fatalf("%d rows for %s -> %s", len(rows), debtor.Name, creditor.Name)
	}
	if len(rows) == 0 {
		return decimal.Zero
	}
	return rows[0].Amount
}

// checkBalances asserts the pair table is netted: positive amounts, no
// pair stored in both directions, and positions summing to zero.
func (f *fixture) checkBalances(groupID uuid.UUID) {
	f.t.Helper()
	var rows []models.PairBalance
	if err := f.db.Where("group_id = ?", groupID).Find(&rows).Error; err != nil {
		f.t.Fatalf("load balances: %v", err)
	}
	seen := make(map[[2]uuid.UUID]bool)
	for _, r := range rows {
		if !r.Amount.IsPositive() {
			f.t.Errorf("non-positive balance %s -> %s: %s", r.DebtorID, r.CreditorID, r.Amount)
		}
		if seen[[2]uuid.UUID{r.CreditorID, r.DebtorID}] {
			f.t.Errorf("pair %s/%s stored in both directions", r.DebtorID, r.CreditorID)
		}
		seen[[2]uuid.UUID{r.DebtorID, r.CreditorID}] = true
	}
	sum := decimal.Zero
	for _, v := range netPositions(rows) {
		sum = sum.Add(v)
	}
	if !sum.IsZero() {
		f.t.Errorf("net positions sum to %s", sum)
	}
}

func (f *fixture) loadGroup(id uuid.UUID) models.Group {
	f.t.Helper()
	var g models.Group
	if err := f.db.First(&g, "id = ?", id).Error; err != nil {
		f.t.Fatalf("load group: %v", err)
	}
	return g
}

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }
