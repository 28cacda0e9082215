package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTransactionRollups(t *testing.T) {
	f := newFixture(t)
	me := f.account("me")
	tx := f.svc.Transactions

	march := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	april := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	salary, err := tx.Add(f.ctx, me.ID, TransactionInput{Type: "income", Amount: amt("1000"), Category: "salary", Title: "March pay", Date: march})
	if err != nil {
		t.Fatalf("Add income: %v", err)
	}
	if _, err := tx.Add(f.ctx, me.ID, TransactionInput{Type: "expense", Amount: amt("250.50"), Category: "rent", Title: "rent", Date: march}); err != nil {
		t.Fatalf("Add expense: %v", err)
	}
	if _, err := tx.Add(f.ctx, me.ID, TransactionInput{Type: "expense", Amount: amt("40"), Category: "food", Title: "groceries", Date: april}); err != nil {
		t.Fatalf("Add expense: %v", err)
	}

	history, err := tx.History(f.ctx, me.ID, 2024)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d months, want 2", len(history))
	}
	if m := history[0]; m.Month != 3 || !m.Income.Equal(amt("1000")) || !m.Expense.Equal(amt("250.50")) || !m.MonthlyBalance.Equal(amt("749.50")) {
		t.Errorf("march = %+v", m)
	}
	if m := history[1]; m.Month != 4 || !m.MonthlyBalance.Equal(amt("-40")) {
		t.Errorf("april = %+v", m)
	}

	user, err := f.svc.Auth.Me(f.ctx, me.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !user.TotalIncome.Equal(amt("1000")) || !user.TotalExpense.Equal(amt("290.50")) || !user.TotalBalance.Equal(amt("709.50")) {
		t.Errorf("totals income %s expense %s balance %s", user.TotalIncome, user.TotalExpense, user.TotalBalance)
	}

	inMarch, err := tx.List(f.ctx, me.ID, 2024, 3)
	if err != nil || len(inMarch) != 2 {
		t.Errorf("List march = %d, %v", len(inMarch), err)
	}
	all, err := tx.List(f.ctx, me.ID, 0, 0)
	if err != nil || len(all) != 3 {
		t.Errorf("List all = %d, %v", len(all), err)
	}

	if err := tx.Delete(f.ctx, me.ID, salary.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	history, _ = tx.History(f.ctx, me.ID, 2024)
	if m := history[0]; !m.Income.IsZero() || !m.MonthlyBalance.Equal(amt("-250.50")) {
		t.Errorf("march after delete = %+v", m)
	}
	user, _ = f.svc.Auth.Me(f.ctx, me.ID)
	if !user.TotalBalance.Equal(amt("-290.50")) {
		t.Errorf("balance after delete %s", user.TotalBalance)
	}
}

func TestTransactionRejects(t *testing.T) {
	f := newFixture(t)
	me, other := f.account("me"), f.account("other")
	tx := f.svc.Transactions

	if _, err := tx.Add(f.ctx, me.ID, TransactionInput{Type: "gift", Amount: amt("1"), Category: "x", Title: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad type err = %v", err)
	}
	if _, err := tx.Add(f.ctx, me.ID, TransactionInput{Type: "income", Amount: amt("0"), Category: "x", Title: "x"}); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount err = %v", err)
	}
	if _, err := tx.Add(f.ctx, me.ID, TransactionInput{Type: "expense", Amount: amt("1000000000000"), Category: "x", Title: "x"}); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("oversized amount err = %v", err)
	}
	if _, err := tx.List(f.ctx, me.ID, 2024, 13); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("month 13 err = %v", err)
	}

	mine, err := tx.Add(f.ctx, me.ID, TransactionInput{Type: "income", Amount: amt("5"), Category: "x", Title: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Delete(f.ctx, other.ID, mine.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleting someone else's transaction err = %v", err)
	}
	if err := tx.Delete(f.ctx, me.ID, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown transaction err = %v", err)
	}
}
