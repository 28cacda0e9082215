package services

import (
	"errors"
	"testing"

	"expenshare-backend/models"
)

func TestAuthorize(t *testing.T) {
	f := newFixture(t)
	owner, member := f.account("owner"), f.account("member")
	outsider := f.account("outsider")
	groupID := f.group(owner, member)

	tests := []struct {
		name   string
		caller account
		action Action
		want   error
	}{
		{"owner deletes", owner, ActionDelete, nil},
		{"member views", member, ActionView, nil},
		{"member records", member, ActionRecord, nil},
		{"member invites", member, ActionInvite, nil},
		{"member cannot delete", member, ActionDelete, ErrNotAuthorized},
		{"member cannot remove others", member, ActionRemoveMember, ErrNotAuthorized},
		{"owner cannot leave", owner, ActionLeave, ErrNotAuthorized},
		{"outsider views", outsider, ActionView, ErrNotAMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := f.svc.Gate.Authorize(f.ctx, groupID, tt.caller.ID, tt.action)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if err == nil && m.ID != tt.caller.Member {
				t.Errorf("member = %s, want %s", m.ID, tt.caller.Member)
			}
		})
	}
}

func TestCreateAndListGroups(t *testing.T) {
	f := newFixture(t)
	owner := f.account("owner")

	g, err := f.svc.Gate.CreateGroup(f.ctx, owner.ID, models.CreateGroupRequest{Name: "  Flat  ", Category: "home"})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if g.Name != "Flat" || g.Category != "HOME" || g.OwnerID != owner.Member {
		t.Errorf("group = %+v", g)
	}
	if len(g.Members) != 1 || g.Members[0].Role != models.RoleOwner {
		t.Errorf("members = %+v", g.Members)
	}

	if _, err := f.svc.Gate.CreateGroup(f.ctx, owner.ID, models.CreateGroupRequest{Name: " "}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank name err = %v, want ErrInvalidInput", err)
	}

	groups, err := f.svc.Gate.ListGroups(f.ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListGroups: %v", err)
	}
	if len(groups) != 1 {
		t.Errorf("got %d groups, want 1", len(groups))
	}

	updated, err := f.svc.Gate.UpdateGroup(f.ctx, g.ID, owner.ID, models.UpdateGroupRequest{Name: "House"})
	if err != nil {
		t.Fatalf("UpdateGroup: %v", err)
	}
	if updated.Name != "House" || updated.Category != "HOME" {
		t.Errorf("updated = %+v", updated)
	}
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t)
	owner, debtor, idle := f.account("owner"), f.account("debtor"), f.account("idle")
	groupID := f.group(owner, debtor, idle)
	f.record(groupID, owner, owner, "10", debtor)

	if err := f.svc.Gate.RemoveMember(f.ctx, groupID, debtor.ID, idle.Member); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("member removing other err = %v, want ErrNotAuthorized", err)
	}
	if err := f.svc.Gate.RemoveMember(f.ctx, groupID, owner.ID, debtor.Member); !errors.Is(err, ErrOutstandingBalance) {
		t.Errorf("removing debtor err = %v, want ErrOutstandingBalance", err)
	}
	if err := f.svc.Gate.Leave(f.ctx, groupID, debtor.ID); !errors.Is(err, ErrOutstandingBalance) {
		t.Errorf("debtor leaving err = %v, want ErrOutstandingBalance", err)
	}
	if err := f.svc.Gate.Leave(f.ctx, groupID, owner.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("owner leaving err = %v, want ErrNotAuthorized", err)
	}

	if err := f.svc.Gate.RemoveMember(f.ctx, groupID, owner.ID, idle.Member); err != nil {
		t.Fatalf("owner removing idle member: %v", err)
	}
	if _, err := f.svc.Gate.Authorize(f.ctx, groupID, idle.ID, ActionView); !errors.Is(err, ErrNotAMember) {
		t.Errorf("removed member still authorized: %v", err)
	}

	if _, err := f.svc.Ledger.Settle(f.ctx, groupID, debtor.ID, owner.Member, amt("10"), ""); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if err := f.svc.Gate.Leave(f.ctx, groupID, debtor.ID); err != nil {
		t.Fatalf("settled member leaving: %v", err)
	}
	if len(f.events.ofType(EventGroupUpdated)) != 2 {
		t.Errorf("want a group_updated event per removal")
	}
}

func TestDeleteGroupCascades(t *testing.T) {
	f := newFixture(t)
	owner, member := f.account("owner"), f.account("member")
	groupID := f.group(owner, member)
	f.record(groupID, owner, owner, "10", member)
	if _, err := f.svc.Ledger.Settle(f.ctx, groupID, member.ID, owner.Member, amt("5"), ""); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	if err := f.svc.Gate.DeleteGroup(f.ctx, groupID, member.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("member delete err = %v, want ErrNotAuthorized", err)
	}
	if err := f.svc.Gate.DeleteGroup(f.ctx, groupID, owner.ID); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}

	for _, model := range []interface{}{
		&models.Group{}, &models.GroupMember{}, &models.LedgerEntry{}, &models.EntryParticipant{},
		&models.PairBalance{}, &models.Settlement{}, &models.Activity{},
	} {
		var count int64
		f.db.Model(model).Count(&count)
		if count != 0 {
			t.Errorf("%T: %d rows left", model, count)
		}
	}
	if _, err := f.svc.Gate.GetGroup(f.ctx, groupID, owner.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetGroup after delete err = %v, want ErrNotFound", err)
	}
}
