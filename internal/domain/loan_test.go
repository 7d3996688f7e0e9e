package domain

import (
	"testing"
	"time"
)

func TestLoan_DueDate(t *testing.T) {
	issued := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	loan := &Loan{BookID: "BOOK-1000", IssuedAt: issued}

	due := loan.DueDate(DefaultBorrowingPeriod)
	want := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	if !due.Equal(want) {
		t.Errorf("expected due date %v, got %v", want, due)
	}

	// Pure function: calling it twice changes nothing.
	if !loan.DueDate(DefaultBorrowingPeriod).Equal(due) {
		t.Error("due date not stable across calls")
	}
	if !loan.IssuedAt.Equal(issued) {
		t.Error("DueDate mutated the loan")
	}
}

func TestRemainingPeriod(t *testing.T) {
	issued := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	loan := &Loan{BookID: "BOOK-1000", IssuedAt: issued}
	period := DefaultBorrowingPeriod

	tests := []struct {
		name      string
		now       time.Time
		wantState LoanState
		wantDays  int
	}{
		{
			name:      "just issued",
			now:       issued.Add(time.Second),
			wantState: Remaining,
			wantDays:  13,
		},
		{
			name:      "one day in",
			now:       issued.Add(24 * time.Hour),
			wantState: Remaining,
			wantDays:  13,
		},
		{
			name:      "half the window gone",
			now:       issued.Add(7 * 24 * time.Hour),
			wantState: Remaining,
			wantDays:  7,
		},
		{
			name:      "one second before due",
			now:       issued.Add(period - time.Second),
			wantState: DueToday,
			wantDays:  0,
		},
		{
			name:      "exactly due",
			now:       issued.Add(period),
			wantState: DueToday,
			wantDays:  0,
		},
		{
			name:      "one second past due still reads due today",
			now:       issued.Add(period + time.Second),
			wantState: DueToday,
			wantDays:  0,
		},
		{
			name:      "a full day past due",
			now:       issued.Add(period + 24*time.Hour),
			wantState: Overdue,
			wantDays:  1,
		},
		{
			name:      "a day and a second past due",
			now:       issued.Add(period + 24*time.Hour + time.Second),
			wantState: Overdue,
			wantDays:  1,
		},
		{
			name:      "a week past due",
			now:       issued.Add(period + 7*24*time.Hour),
			wantState: Overdue,
			wantDays:  7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemainingPeriod(loan, tt.now, period)
			if got.State != tt.wantState {
				t.Errorf("expected state %s, got %s", tt.wantState, got.State)
			}
			if got.Days != tt.wantDays {
				t.Errorf("expected %d days, got %d", tt.wantDays, got.Days)
			}
			if got.Days < 0 {
				t.Errorf("days must be a magnitude, got %d", got.Days)
			}
		})
	}
}

func TestLoan_IsGuest(t *testing.T) {
	if !(&Loan{BookID: "BOOK-1000"}).IsGuest() {
		t.Error("loan without user ID should be a guest loan")
	}
	if (&Loan{BookID: "BOOK-1000", UserID: "USER-1000"}).IsGuest() {
		t.Error("loan with user ID should not be a guest loan")
	}
}

func TestLoanState_String(t *testing.T) {
	tests := []struct {
		state LoanState
		want  string
	}{
		{Remaining, "remaining"},
		{DueToday, "due today"},
		{Overdue, "overdue"},
		{LoanState(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}
