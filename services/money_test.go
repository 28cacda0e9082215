package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "90", want: "90"},
		{raw: " 12.50 ", want: "12.5"},
		{raw: "0.01", want: "0.01"},
		{raw: "0", wantErr: true},
		{raw: "-5", wantErr: true},
		{raw: "1.005", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "", wantErr: true},
		{raw: "999999999999.99", want: "999999999999.99"},
		{raw: "1000000000000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("ParseAmount(%q) error = %v, want ErrInvalidAmount", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tt.raw, err)
			}
			if !got.Equal(amt(tt.want)) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSplitEven(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	c := uuid.MustParse("00000000-0000-0000-0000-00000000000c")

	tests := []struct {
		name         string
		amount       string
		participants []uuid.UUID
		want         map[uuid.UUID]string
	}{
		{
			name:         "even",
			amount:       "90",
			participants: []uuid.UUID{c, a, b},
			want:         map[uuid.UUID]string{a: "30", b: "30", c: "30"},
		},
		{
			name:         "one cent remainder goes to lowest id",
			amount:       "100",
			participants: []uuid.UUID{c, b, a},
			want:         map[uuid.UUID]string{a: "33.34", b: "33.33", c: "33.33"},
		},
		{
			name:         "two cent remainder",
			amount:       "0.05",
			participants: []uuid.UUID{b, c, a},
			want:         map[uuid.UUID]string{a: "0.02", b: "0.02", c: "0.01"},
		},
		{
			name:         "single participant",
			amount:       "12.34",
			participants: []uuid.UUID{b},
			want:         map[uuid.UUID]string{b: "12.34"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := SplitEven(amt(tt.amount), tt.participants)
			if err != nil {
				t.Fatalf("SplitEven: %v", err)
			}
			if len(shares) != len(tt.want) {
				t.Fatalf("got %d shares, want %d", len(shares), len(tt.want))
			}
			sum := decimal.Zero
			for _, s := range shares {
				sum = sum.Add(s.Amount)
				if !s.Amount.Equal(amt(tt.want[s.MemberID])) {
					t.Errorf("share of %s = %s, want %s", s.MemberID, s.Amount, tt.want[s.MemberID])
				}
			}
			if !sum.Equal(amt(tt.amount)) {
				t.Errorf("shares sum to %s, want %s", sum, tt.amount)
			}
		})
	}
}

func TestSplitEvenRejects(t *testing.T) {
	a := uuid.New()

	if _, err := SplitEven(amt("10"), nil); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("no participants: err = %v, want ErrInvalidAmount", err)
	}
	if _, err := SplitEven(amt("10"), []uuid.UUID{a, a}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("duplicate participant: err = %v, want ErrInvalidInput", err)
	}
	if _, err := SplitEven(amt("-1"), []uuid.UUID{a}); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative amount: err = %v, want ErrInvalidAmount", err)
	}
	if _, err := SplitEven(amt("100000000000000000"), []uuid.UUID{a, uuid.New()}); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("amount past column range: err = %v, want ErrInvalidAmount", err)
	}
}
