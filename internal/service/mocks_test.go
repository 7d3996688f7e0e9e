package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/calliard/lendingdesk/internal/domain"
	"github.com/calliard/lendingdesk/internal/repository"
)

// =============================================================================
// Mock Book Repository
// =============================================================================

// MockBookRepository is an in-memory implementation of
// repository.BookRepository for service tests.
type MockBookRepository struct {
	books     map[string]*domain.Book
	createErr error
	getErr    error
}

func NewMockBookRepository() *MockBookRepository {
	return &MockBookRepository{books: make(map[string]*domain.Book)}
}

func (m *MockBookRepository) Create(ctx context.Context, book *domain.Book) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.books[book.ID]; exists {
		return domain.ErrDuplicateBookID
	}
	cp := *book
	m.books[book.ID] = &cp
	return nil
}

func (m *MockBookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	b, exists := m.books[id]
	if !exists {
		return nil, domain.ErrBookNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *MockBookRepository) Update(ctx context.Context, book *domain.Book) error {
	if _, exists := m.books[book.ID]; !exists {
		return domain.ErrBookNotFound
	}
	cp := *book
	m.books[book.ID] = &cp
	return nil
}

func (m *MockBookRepository) AdjustCopies(ctx context.Context, id string, delta int) error {
	b, exists := m.books[id]
	if !exists {
		return domain.ErrBookNotFound
	}
	if b.AvailableCopies+delta < 0 {
		return domain.ErrNoCopiesAvailable
	}
	b.AvailableCopies += delta
	return nil
}

func (m *MockBookRepository) Delete(ctx context.Context, id string) error {
	if _, exists := m.books[id]; !exists {
		return domain.ErrBookNotFound
	}
	delete(m.books, id)
	return nil
}

func (m *MockBookRepository) List(ctx context.Context) ([]*domain.Book, error) {
	ids := make([]string, 0, len(m.books))
	for id := range m.books {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	result := make([]*domain.Book, 0, len(ids))
	for _, id := range ids {
		cp := *m.books[id]
		result = append(result, &cp)
	}
	return result, nil
}

func (m *MockBookRepository) Search(ctx context.Context, query string) ([]*domain.Book, error) {
	q := strings.ToLower(query)
	all, _ := m.List(ctx)
	var result []*domain.Book
	for _, b := range all {
		if strings.Contains(strings.ToLower(b.Title), q) ||
			strings.Contains(strings.ToLower(b.Author), q) ||
			strings.Contains(strings.ToLower(b.Genre), q) {
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *MockBookRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, exists := m.books[id]
	return exists, nil
}

// =============================================================================
// Mock User Repository
// =============================================================================

type MockUserRepository struct {
	users  map[string]*domain.User
	getErr error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*domain.User)}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, exists := m.users[id]
	if !exists {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.ID]; !exists {
		return domain.ErrUserNotFound
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if _, exists := m.users[id]; !exists {
		return domain.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *MockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	ids := make([]string, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	result := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		cp := *m.users[id]
		result = append(result, &cp)
	}
	return result, nil
}

// =============================================================================
// Mock Loan Repository
// =============================================================================

type MockLoanRepository struct {
	loans   map[int64]*domain.Loan
	nextID  int64
	findErr error
}

func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{loans: make(map[int64]*domain.Loan), nextID: 1}
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	loan.StoreID = m.nextID
	m.nextID++
	cp := *loan
	m.loans[loan.StoreID] = &cp
	return nil
}

func (m *MockLoanRepository) Find(ctx context.Context, filter repository.LoanFilter) ([]*domain.Loan, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	var result []*domain.Loan
	for _, l := range m.loans {
		if filter.BookID != "" && l.BookID != filter.BookID {
			continue
		}
		if (filter.UserID != "" || filter.MatchGuest) && l.UserID != filter.UserID {
			continue
		}
		if !filter.IssuedAt.IsZero() && !l.IssuedAt.Equal(filter.IssuedAt) {
			continue
		}
		cp := *l
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].IssuedAt.Equal(result[j].IssuedAt) {
			return result[i].StoreID < result[j].StoreID
		}
		return result[i].IssuedAt.Before(result[j].IssuedAt)
	})
	return result, nil
}

func (m *MockLoanRepository) Delete(ctx context.Context, storeID int64) error {
	if _, exists := m.loans[storeID]; !exists {
		return domain.ErrLoanNotFound
	}
	delete(m.loans, storeID)
	return nil
}

func (m *MockLoanRepository) CountByBook(ctx context.Context, bookID string) (int64, error) {
	var count int64
	for _, l := range m.loans {
		if l.BookID == bookID {
			count++
		}
	}
	return count, nil
}

func (m *MockLoanRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	for _, l := range m.loans {
		if l.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *MockLoanRepository) List(ctx context.Context) ([]*domain.Loan, error) {
	return m.Find(ctx, repository.LoanFilter{})
}

// Seed adds a loan directly, bypassing the service layer.
func (m *MockLoanRepository) Seed(bookID, userID, name, contact string, issuedAt time.Time) *domain.Loan {
	loan := &domain.Loan{
		BookID:          bookID,
		UserID:          userID,
		BorrowerName:    name,
		BorrowerContact: contact,
		IssuedAt:        issuedAt,
	}
	_ = m.Create(context.Background(), loan)
	return loan
}

// =============================================================================
// Mock Sequence Repository
// =============================================================================

type MockSequenceRepository struct {
	counters map[string]int64
}

func NewMockSequenceRepository() *MockSequenceRepository {
	return &MockSequenceRepository{counters: make(map[string]int64)}
}

func (m *MockSequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	n := m.counters[name]
	m.counters[name] = n + 1
	return n, nil
}

// =============================================================================
// Mock Transaction Manager
// =============================================================================

// MockTxManager runs the function directly. The mock repositories mutate
// in place, so there is nothing to roll back; tests that care about
// abort-on-error assert the repository state afterwards.
type MockTxManager struct{}

func (MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
