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

// TransactionInput is a personal income or expense.
type TransactionInput struct {
	Type       string
	Amount     decimal.Decimal
	Category   string
	Title      string
	Notes      string
	InvoiceURL string
	Date       time.Time
}

// TransactionService keeps personal transactions together with the
// monthly rollup and the account totals derived from them.
type TransactionService struct {
	db  *gorm.DB
	log *zap.Logger
}

func (s *TransactionService) Add(ctx context.Context, accountID uuid.UUID, in TransactionInput) (*models.Transaction, error) {
	if in.Type != models.TransactionIncome && in.Type != models.TransactionExpense {
		return nil, fmt.Errorf("%w: type must be income or expense", ErrInvalidInput)
	}
	if err := validateAmount(in.Amount); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || strings.TrimSpace(in.Category) == "" {
		return nil, fmt.Errorf("%w: title and category are required", ErrInvalidInput)
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}

	txn := models.Transaction{
		UserID:          accountID,
		Type:            in.Type,
		Amount:          in.Amount,
		Category:        in.Category,
		Title:           in.Title,
		Notes:           in.Notes,
		InvoiceURL:      in.InvoiceURL,
		TransactionDate: in.Date,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}
		return rollup(tx, &txn, 1)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("transaction added",
		zap.String("user_id", accountID.String()),
		zap.String("type", txn.Type),
		zap.String("amount", txn.Amount.String()))
	return &txn, nil
}

// Delete removes a transaction and takes it back out of the rollups.
func (s *TransactionService) Delete(ctx context.Context, accountID, transactionID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txn models.Transaction
		err := tx.Where("id = ? AND user_id = ?", transactionID, accountID).First(&txn).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("transaction %s: %w", transactionID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if err := tx.Delete(&txn).Error; err != nil {
			return err
		}
		return rollup(tx, &txn, -1)
	})
}

// List returns the account's transactions, optionally limited to a year
// or a year and month (1-12).
func (s *TransactionService) List(ctx context.Context, accountID uuid.UUID, year, month int) ([]models.Transaction, error) {
	if month != 0 && (month < 1 || month > 12 || year == 0) {
		return nil, fmt.Errorf("%w: month must be 1-12 with a year", ErrInvalidInput)
	}

	q := s.db.WithContext(ctx).Where("user_id = ?", accountID)
	if year != 0 {
		from, to := periodBounds(year, month)
		q = q.Where("transaction_date >= ? AND transaction_date < ?", from, to)
	}
	txns := []models.Transaction{}
	err := q.Order("transaction_date DESC, created_at DESC").Find(&txns).Error
	return txns, err
}

// History returns the monthly rollups of a year in calendar order.
func (s *TransactionService) History(ctx context.Context, accountID uuid.UUID, year int) ([]models.MonthlyHistory, error) {
	history := []models.MonthlyHistory{}
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND year = ?", accountID, year).
		Order("month").
		Find(&history).Error
	return history, err
}

func periodBounds(year, month int) (time.Time, time.Time) {
	if month == 0 {
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0)
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// rollup applies sign*txn to its month and to the account totals.
func rollup(tx *gorm.DB, txn *models.Transaction, sign int64) error {
	delta := txn.Amount.Mul(decimal.NewFromInt(sign))
	date := txn.TransactionDate.UTC()

	var user models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", txn.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("account %s: %w", txn.UserID, ErrNotFound)
	}
	if err != nil {
		return err
	}

	month := models.MonthlyHistory{
		UserID:         txn.UserID,
		Year:           date.Year(),
		Month:          int(date.Month()),
		Income:         decimal.Zero,
		Expense:        decimal.Zero,
		MonthlyBalance: decimal.Zero,
	}
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND year = ? AND month = ?", month.UserID, month.Year, month.Month).
		First(&month).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if txn.Type == models.TransactionIncome {
		month.Income = month.Income.Add(delta)
		user.TotalIncome = user.TotalIncome.Add(delta)
	} else {
		month.Expense = month.Expense.Add(delta)
		user.TotalExpense = user.TotalExpense.Add(delta)
	}
	month.MonthlyBalance = month.Income.Sub(month.Expense)
	user.TotalBalance = user.TotalIncome.Sub(user.TotalExpense)

	if err := tx.Save(&month).Error; err != nil {
		return err
	}
	return tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"total_income":  user.TotalIncome,
		"total_expense": user.TotalExpense,
		"total_balance": user.TotalBalance,
	}).Error
}
