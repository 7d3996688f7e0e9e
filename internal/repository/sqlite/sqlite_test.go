package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/calliard/lendingdesk/internal/domain"
	"github.com/calliard/lendingdesk/internal/repository"
)

// newTestDB opens a migrated in-memory database.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(context.Background(), DefaultConfig(":memory:"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	// Migrations are tracked; running them again is a no-op.
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func testBook(id string, copies int) *domain.Book {
	return domain.NewBook(id, "Dune", "Herbert", "Chilton", 1965, copies, "Science Fiction")
}

func TestBookRepository_CRUD(t *testing.T) {
	db := newTestDB(t)
	repo := NewBookRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testBook("BOOK-1000", 3)))

	err := repo.Create(ctx, testBook("BOOK-1000", 1))
	require.ErrorIs(t, err, domain.ErrDuplicateBookID)

	got, err := repo.GetByID(ctx, "BOOK-1000")
	require.NoError(t, err)
	require.Equal(t, "Dune", got.Title)
	require.Equal(t, 3, got.AvailableCopies)

	_, err = repo.GetByID(ctx, "BOOK-9999")
	require.ErrorIs(t, err, domain.ErrBookNotFound)

	got.Title = "Dune Messiah"
	got.Year = 1969
	require.NoError(t, repo.Update(ctx, got))
	updated, err := repo.GetByID(ctx, "BOOK-1000")
	require.NoError(t, err)
	require.Equal(t, "Dune Messiah", updated.Title)
	require.Equal(t, 1969, updated.Year)

	exists, err := repo.ExistsByID(ctx, "BOOK-1000")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, repo.Delete(ctx, "BOOK-1000"))
	require.ErrorIs(t, repo.Delete(ctx, "BOOK-1000"), domain.ErrBookNotFound)
}

func TestBookRepository_AdjustCopies(t *testing.T) {
	db := newTestDB(t)
	repo := NewBookRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testBook("BOOK-1000", 1)))

	require.NoError(t, repo.AdjustCopies(ctx, "BOOK-1000", -1))

	// The schema's non-negative constraint holds the floor.
	err := repo.AdjustCopies(ctx, "BOOK-1000", -1)
	require.ErrorIs(t, err, domain.ErrNoCopiesAvailable)

	got, err := repo.GetByID(ctx, "BOOK-1000")
	require.NoError(t, err)
	require.Equal(t, 0, got.AvailableCopies)

	require.NoError(t, repo.AdjustCopies(ctx, "BOOK-1000", 1))
	require.ErrorIs(t, repo.AdjustCopies(ctx, "BOOK-9999", 1), domain.ErrBookNotFound)
}

func TestBookRepository_Search(t *testing.T) {
	db := newTestDB(t)
	repo := NewBookRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, domain.NewBook("BOOK-1000", "The Go Programming Language", "Donovan", "AW", 2015, 1, "Programming")))
	require.NoError(t, repo.Create(ctx, domain.NewBook("BOOK-1001", "Dune", "Herbert", "Chilton", 1965, 1, "Science Fiction")))

	byTitle, err := repo.Search(ctx, "go programming")
	require.NoError(t, err)
	require.Len(t, byTitle, 1)

	byAuthor, err := repo.Search(ctx, "HERBERT")
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	require.Equal(t, "BOOK-1001", byAuthor[0].ID)

	byGenre, err := repo.Search(ctx, "fiction")
	require.NoError(t, err)
	require.Len(t, byGenre, 1)

	none, err := repo.Search(ctx, "zzz")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestUserRepository_CRUD(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := domain.NewUser("USER-1000", "Ada Lovelace", "5551234", "$2a$10$hash")
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByID(ctx, "USER-1000")
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", got.FullName)
	require.Equal(t, "$2a$10$hash", got.PasswordHash)

	_, err = repo.GetByID(ctx, "USER-9999")
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	got.PasswordHash = "$2a$10$newhash"
	require.NoError(t, repo.Update(ctx, got))
	updated, err := repo.GetByID(ctx, "USER-1000")
	require.NoError(t, err)
	require.Equal(t, "$2a$10$newhash", updated.PasswordHash)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, repo.Delete(ctx, "USER-1000"))
	require.ErrorIs(t, repo.Delete(ctx, "USER-1000"), domain.ErrUserNotFound)
}

func TestLoanRepository_FindFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seed := func(bookID, userID, name string, issuedAt time.Time) *domain.Loan {
		l := &domain.Loan{
			BookID: bookID, UserID: userID,
			BorrowerName: name, BorrowerContact: "5550000",
			IssuedAt: issuedAt,
		}
		require.NoError(t, repo.Create(ctx, l))
		require.NotZero(t, l.StoreID)
		return l
	}

	seed("BOOK-1000", "USER-1000", "Ada", base)
	seed("BOOK-1000", "", "Guest One", base.Add(time.Hour))
	seed("BOOK-1000", "", "Guest Two", base.Add(2*time.Hour))
	seed("BOOK-1001", "USER-1000", "Ada", base.Add(3*time.Hour))

	// No filter: everything, oldest first.
	all, err := repo.Find(ctx, repository.LoanFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.Equal(t, "Ada", all[0].BorrowerName)
	require.True(t, all[0].IssuedAt.Equal(base))

	// By book.
	byBook, err := repo.Find(ctx, repository.LoanFilter{BookID: "BOOK-1000"})
	require.NoError(t, err)
	require.Len(t, byBook, 3)

	// By user: empty UserID without MatchGuest means "any borrower".
	byUser, err := repo.Find(ctx, repository.LoanFilter{UserID: "USER-1000"})
	require.NoError(t, err)
	require.Len(t, byUser, 2)

	// MatchGuest narrows an empty UserID to guest loans only.
	guests, err := repo.Find(ctx, repository.LoanFilter{BookID: "BOOK-1000", MatchGuest: true})
	require.NoError(t, err)
	require.Len(t, guests, 2)
	require.Equal(t, "Guest One", guests[0].BorrowerName)

	// IssuedAt pins one specific loan.
	one, err := repo.Find(ctx, repository.LoanFilter{
		BookID: "BOOK-1000", MatchGuest: true, IssuedAt: base.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, one, 1)
	require.Equal(t, "Guest Two", one[0].BorrowerName)

	// Counts.
	n, err := repo.CountByBook(ctx, "BOOK-1000")
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
	n, err = repo.CountByUser(ctx, "USER-1000")
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	// Delete by storage ID.
	require.NoError(t, repo.Delete(ctx, one[0].StoreID))
	require.ErrorIs(t, repo.Delete(ctx, one[0].StoreID), domain.ErrLoanNotFound)
}

func TestLoanRepository_RoundTripsTimestamps(t *testing.T) {
	db := newTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	issued := time.Date(2026, 3, 1, 10, 30, 45, 0, time.UTC)
	loan := &domain.Loan{BookID: "BOOK-1000", BorrowerName: "Ada", IssuedAt: issued}
	require.NoError(t, repo.Create(ctx, loan))

	got, err := repo.Find(ctx, repository.LoanFilter{BookID: "BOOK-1000"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.True(t, got[0].IssuedAt.Equal(issued))
	require.Equal(t, time.UTC, got[0].IssuedAt.Location())
}

func TestSequenceRepository_Next(t *testing.T) {
	db := newTestDB(t)
	repo := NewSequenceRepository(db)
	ctx := context.Background()

	// First call for a name returns 0, then the counter only climbs.
	for want := int64(0); want < 3; want++ {
		n, err := repo.Next(ctx, repository.SeqBooks)
		require.NoError(t, err)
		require.Equal(t, want, n)
	}

	// Independent counters per name.
	n, err := repo.Next(ctx, repository.SeqUsers)
	require.NoError(t, err)
	require.EqualValues(t, 0, n)
}

func TestDB_WithTxRollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	books := NewBookRepository(db)
	ctx := context.Background()

	sentinel := errors.New("boom")
	err := db.WithTx(ctx, func(ctx context.Context) error {
		if err := books.Create(ctx, testBook("BOOK-1000", 1)); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = books.GetByID(ctx, "BOOK-1000")
	require.ErrorIs(t, err, domain.ErrBookNotFound)
}

func TestDB_WithTxCommits(t *testing.T) {
	db := newTestDB(t)
	books := NewBookRepository(db)
	loans := NewLoanRepository(db)
	ctx := context.Background()

	// A copy decrement and a loan insert land together or not at all.
	require.NoError(t, books.Create(ctx, testBook("BOOK-1000", 2)))
	err := db.WithTx(ctx, func(ctx context.Context) error {
		if err := books.AdjustCopies(ctx, "BOOK-1000", -1); err != nil {
			return err
		}
		return loans.Create(ctx, &domain.Loan{
			BookID: "BOOK-1000", BorrowerName: "Ada",
			IssuedAt: time.Now().UTC().Truncate(time.Second),
		})
	})
	require.NoError(t, err)

	book, err := books.GetByID(ctx, "BOOK-1000")
	require.NoError(t, err)
	require.Equal(t, 1, book.AvailableCopies)
	n, err := loans.CountByBook(ctx, "BOOK-1000")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}
