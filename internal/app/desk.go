package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/calliard/lendingdesk/internal/domain"
	"github.com/calliard/lendingdesk/internal/service"
	"github.com/calliard/lendingdesk/internal/session"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	okColor      = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	overdueColor = color.New(color.FgRed, color.Bold)
)

// runDesk drives the interactive front-desk session: a login loop, then
// a role-scoped command loop until exit or EOF.
func (a *app) runDesk(ctx context.Context) error {
	sc := bufio.NewScanner(os.Stdin)

	headerColor.Println("LendingDesk — library lending ledger")
	fmt.Println()

	for {
		fmt.Println("1) Log in   2) Register as a new patron   3) Quit")
		choice := prompt(sc, "> ")
		switch choice {
		case "1":
			sess, err := a.login(ctx, sc)
			if err != nil {
				printErr(err)
				continue
			}
			okColor.Printf("Welcome, %s.\n\n", sess.Name)
			if err := a.commandLoop(ctx, sc, sess); err != nil {
				return err
			}
		case "2":
			a.handleRegister(ctx, sc)
		case "3", "quit", "exit", "":
			fmt.Println("Goodbye.")
			return nil
		default:
			fmt.Println("Enter 1, 2, or 3.")
		}
	}
}

// login prompts for a credential, masking the password.
func (a *app) login(ctx context.Context, sc *bufio.Scanner) (*session.Session, error) {
	id := prompt(sc, "ID: ")
	password, err := readPassword("Password: ")
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	return a.auth.Authenticate(ctx, id, password)
}

// readPassword reads a masked password from the terminal.
func readPassword(label string) (string, error) {
	fmt.Print(label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func prompt(sc *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !sc.Scan() {
		return ""
	}
	return strings.TrimSpace(sc.Text())
}

func promptInt(sc *bufio.Scanner, label string) (int, error) {
	raw := prompt(sc, label)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	return n, nil
}

func printErr(err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		warnColor.Printf("Invalid input: %v\n", err)
	case errors.Is(err, domain.ErrInvalidCredentials):
		warnColor.Println("Invalid ID or password.")
	case errors.Is(err, domain.ErrAccessDenied):
		warnColor.Println("You are not allowed to do that.")
	case errors.Is(err, service.ErrInternalError):
		color.Red("Internal error: %v", err)
	default:
		warnColor.Printf("%v\n", err)
	}
}

// commandLoop shows the role-scoped menu until logout.
func (a *app) commandLoop(ctx context.Context, sc *bufio.Scanner, sess *session.Session) error {
	for {
		if sess.IsAdmin() {
			a.printAdminMenu()
		} else {
			a.printPatronMenu()
		}
		cmd := prompt(sc, "> ")
		if cmd == "logout" || cmd == "" {
			fmt.Println()
			return nil
		}

		var handled bool
		if sess.IsAdmin() {
			handled = a.dispatchAdmin(ctx, sc, sess, cmd)
		} else {
			handled = a.dispatchPatron(ctx, sc, sess, cmd)
		}
		if !handled {
			fmt.Println("Unknown command.")
		}
	}
}

func (a *app) printAdminMenu() {
	fmt.Println()
	headerColor.Println("Catalog:     add book | edit book | delete book | list books | search")
	headerColor.Println("Patrons:     add user | delete user | list users | set password")
	headerColor.Println("Circulation: issue | return | loans | book loans")
	headerColor.Println("Session:     logout")
}

func (a *app) printPatronMenu() {
	fmt.Println()
	headerColor.Println("Catalog:     list books | search")
	headerColor.Println("My account:  my loans | issue | return | set password")
	headerColor.Println("Session:     logout")
}

func (a *app) dispatchAdmin(ctx context.Context, sc *bufio.Scanner, sess *session.Session, cmd string) bool {
	switch cmd {
	case "add book":
		a.handleAddBook(ctx, sc, sess)
	case "edit book":
		a.handleEditBook(ctx, sc, sess)
	case "delete book":
		a.handleDeleteBook(ctx, sc, sess)
	case "list books":
		a.handleListBooks(ctx, sess)
	case "search":
		a.handleSearch(ctx, sc, sess)
	case "add user":
		a.handleAddUser(ctx, sc, sess)
	case "delete user":
		a.handleDeleteUser(ctx, sc, sess)
	case "list users":
		a.handleListUsers(ctx, sess)
	case "set password":
		a.handleSetPassword(ctx, sc, sess, prompt(sc, "User ID: "))
	case "issue":
		a.handleIssue(ctx, sc, sess)
	case "return":
		a.handleReturn(ctx, sc, sess)
	case "loans":
		a.handleListLoans(ctx, sess)
	case "book loans":
		a.handleBookLoans(ctx, sc, sess)
	default:
		return false
	}
	return true
}

func (a *app) dispatchPatron(ctx context.Context, sc *bufio.Scanner, sess *session.Session, cmd string) bool {
	switch cmd {
	case "list books":
		a.handleListBooks(ctx, sess)
	case "search":
		a.handleSearch(ctx, sc, sess)
	case "my loans":
		a.handleMyLoans(ctx, sess)
	case "issue":
		a.handleSelfIssue(ctx, sc, sess)
	case "return":
		a.handleSelfReturn(ctx, sc, sess)
	case "set password":
		a.handleSetPassword(ctx, sc, sess, sess.UserID)
	default:
		return false
	}
	return true
}

// ---- catalog ----

func (a *app) handleAddBook(ctx context.Context, sc *bufio.Scanner, sess *session.Session) {
	input := service.AddBookInput{
		Title:     prompt(sc, "Title: "),
		Author:    prompt(sc, "Author: "),
		Publisher: prompt(sc, "Publisher: "),
		Genre:     prompt(sc, "Genre: "),
	}
	var err error
	if input.Year, err = promptInt(sc, "Year: "); err != nil {
		printErr(err)
		return
	}
	if input.Copies, err = promptInt(sc, "Copies: "); err != nil {
		printErr(err)
		return
	}

	book, err := a.catalog.AddBook(ctx, sess, input)
	if err != nil {
		printErr(err)
		return
	}
	okColor.Printf("Added %s (%s).\n", book.Title, book.ID)
}

func (a *app) handleEditBook(ctx context.Context, sc *bufio.Scanner, sess *session.Session) {
	id := prompt(sc, "Book ID: ")
	book, err := a.catalog.GetBook(ctx, sess, id)
	if err != nil {
		printErr(err)
		return
	}

	// Blank input keeps the current value.
	input := service.UpdateBookInput{
		ID:        book.ID,
		Title:     orDefault(prompt(sc, fmt.Sprintf("Title [%s]: ", book.Title)), book.Title),
		Author:    orDefault(prompt(sc, fmt.Sprintf("Author [%s]: ", book.Author)), book.Author),
		Publisher: orDefault(prompt(sc, fmt.Sprintf("Publisher [%s]: ", book.Publisher)), book.Publisher),
		Genre:     orDefault(prompt(sc, fmt.Sprintf("Genre [%s]: ", book.Genre)), book.Genre),
	}
	if input.Year, err = intOrDefault(prompt(sc, fmt.Sprintf("Year [%d]: ", book.Year)), book.Year); err != nil {
		printErr(err)
		return
	}
	if input.Copies, err = intOrDefault(prompt(sc, fmt.Sprintf("Copies [%d]: ", book.AvailableCopies)), book.AvailableCopies); err != nil {
		printErr(err)
		return
	}

	if _, err := a.catalog.UpdateBook(ctx, sess, input); err != nil {
		printErr(err)
		return
	}
	okColor.Println("Updated.")
}

func (a *app) handleDeleteBook(ctx context.Context, sc *bufio.Scanner, sess *session.Session) {
	id := prompt(sc, "Book ID: ")
	if err := a.catalog.DeleteBook(ctx, sess, id); err != nil {
		printErr(err)
		return
	}
	okColor.Printf("Deleted %s.\n", id)
}

func (a *app) handleListBooks(ctx context.Context, sess *session.Session) {
	books, err := a.catalog.ListBooks(ctx, sess)
	if err != nil {
		printErr(err)
		return
	}
	a.printBooks(books)
}

func (a *app) handleSearch(ctx context.Context, sc *bufio.Scanner, sess *session.Session) {
	query := prompt(sc, "Search (title/author/genre): ")
	books, err := a.catalog.SearchBooks(ctx, sess, query)
	if err != nil {
		printErr(err)
		return
	}
	a.printBooks(books)
}

func (a *app) printBooks(books []*domain.Book) {
	if len(books) == 0 {
		fmt.Println("No books.")
		return
	}
	fmt.Printf("%-12s %-34s %-20s %-6s %-7s %s\n", "ID", "TITLE", "AUTHOR", "YEAR", "COPIES", "GENRE")
	for _, b := range books {
		fmt.Printf("%-12s %-34s %-20s %-6d %-7d %s\n",
			b.ID, truncate(b.Title, 34), truncate(b.Author, 20), b.Year, b.AvailableCopies, b.Genre)
	}
}

// ---- patrons ----

func (a *app) handleRegister(ctx context.Context, sc *bufio.Scanner) {
	input := service.RegisterInput{
		FullName:      prompt(sc, "Full name: "),
		ContactNumber: prompt(sc, "Contact number (digits only): "),
	}
	password, err := readPassword("Password (6+ characters): ")
	if err != nil {
		printErr(err)
		return
	}
	input.Password = password

	user, err := a.users.Register(ctx, input)
	if err != nil {
		printErr(err)
		return
	}
	okColor.Printf("Registered. Your ID is %s — use it to log in.\n\n", user.ID)
}

func (a *app) handleAddUser(ctx context.Context, sc *bufio.Scanner, sess *session.Session) {
	input := service.RegisterInput{
		FullName:      prompt(sc, "Full name: "),
		ContactNumber: prompt(sc, "Contact number (digits only): "),
		Password:      prompt(sc, "Initial password: "),
	}
	user, err := a.users.AdminCreate(ctx, sess, input)
	if err != nil {
		printErr(err)
		return
	}
	okColor.Printf("Created %s (%s).\n", user.FullName, user.ID)
}

func (a *app) handleDeleteUser(ctx context.Context, sc *bufio.Scanner, sess *session.Session) {
	id := prompt(sc, "User ID: ")
	if err := a.users.Delete(ctx, sess, id); err != nil {
		printErr(err)
		return
	}
	okColor.Printf("Deleted %s.\n", id)
}

func (a *app) handleListUsers(ctx context.Context, sess *session.Session) {
	users, err := a.users.List(ctx, sess)
	if err != nil {
		printErr(err)
		return
	}
	if len(users) == 0 {
		fmt.Println("No registered patrons.")
		return
	}
	fmt.Printf("%-12s %-30s %s\n", "ID", "NAME", "CONTACT")
	for _, u := range users {
		fmt.Printf("%-12s %-30s %s\n", u.ID, truncate(u.FullName, 30), u.ContactNumber)
	}
}

func (a *app) handleSetPassword(ctx context.Context, sc *bufio.Scanner, sess *session.Session, userID string) {
	if userID == "" {
		warnColor.Println("No user ID given.")
		return
	}

	// Patrons confirm their current password; admin resets skip it.
	var oldPassword string
	var err error
	if !sess.IsAdmin() {
		if oldPassword, err = readPassword("Current password: "); err != nil {
			printErr(err)
			return
		}
	}
	password, err := readPassword("New password (6+ characters): ")
	if err != nil {
		printErr(err)
		return
	}
	if err := a.users.ChangePassword(ctx, sess, userID, oldPassword, password); err != nil {
		printErr(err)
		return
	}
	okColor.Println("Password changed.")
}

// ---- circulation ----

func (a *app) handleIssue(ctx context.Context, sc *bufio.Scanner, sess *session.Session) {
	input := service.IssueInput{
		BookID: prompt(sc, "Book ID: "),
		UserID: prompt(sc, "User ID (blank for guest): "),
	}

	if input.UserID != "" {
		user, err := a.users.Get(ctx, sess, input.UserID)
		if err != nil {
			printErr(err)
			return
		}
		input.BorrowerName = user.FullName
		input.BorrowerContact = user.ContactNumber
	} else {
		input.BorrowerName = prompt(sc, "Borrower name: ")
		input.BorrowerContact = prompt(sc, "Borrower contact: ")
	}

	loan, err := a.ledger.Issue(ctx, sess, input)
	if err != nil {
		printErr(err)
		return
	}
	okColor.Printf("Issued %s to %s. Due %s.\n",
		loan.BookID, loan.BorrowerName, a.ledger.DueDate(loan).Format("2006-01-02"))
}

func (a *app) handleSelfIssue(ctx context.Context, sc *bufio.Scanner, sess *session.Session) {
	loan, err := a.ledger.Issue(ctx, sess, service.IssueInput{
		BookID:          prompt(sc, "Book ID: "),
		UserID:          sess.UserID,
		BorrowerName:    sess.Name,
		BorrowerContact: sess.Contact,
	})
	if err != nil {
		printErr(err)
		return
	}
	okColor.Printf("Issued %s. Due %s.\n", loan.BookID, a.ledger.DueDate(loan).Format("2006-01-02"))
}

func (a *app) handleReturn(ctx context.Context, sc *bufio.Scanner, sess *session.Session) {
	input := service.ReturnInput{
		BookID: prompt(sc, "Book ID: "),
		UserID: prompt(sc, "User ID (blank for guest): "),
	}
	a.doReturn(ctx, sc, sess, input)
}

func (a *app) handleSelfReturn(ctx context.Context, sc *bufio.Scanner, sess *session.Session) {
	a.doReturn(ctx, sc, sess, service.ReturnInput{
		BookID: prompt(sc, "Book ID: "),
		UserID: sess.UserID,
	})
}

// doReturn performs a return, walking through the disambiguation flow
// when several guest loans of the same book are open.
func (a *app) doReturn(ctx context.Context, sc *bufio.Scanner, sess *session.Session, input service.ReturnInput) {
	err := a.ledger.Return(ctx, sess, input)
	if err == nil {
		okColor.Println("Returned.")
		return
	}
	if !errors.Is(err, domain.ErrAmbiguousReturn) {
		printErr(err)
		return
	}

	// Several guest loans match; list them and ask which one.
	all, listErr := a.ledger.ListLoansForBook(ctx, sess, input.BookID)
	if listErr != nil {
		printErr(listErr)
		return
	}
	var candidates []*domain.Loan
	for _, l := range all {
		if l.IsGuest() {
			candidates = append(candidates, l)
		}
	}
	fmt.Println("Multiple open guest loans for this book:")
	now := time.Now().UTC()
	for i, l := range candidates {
		fmt.Printf("  %d) %s (%s), issued %s, %s\n",
			i+1, l.BorrowerName, l.BorrowerContact,
			l.IssuedAt.Format("2006-01-02 15:04:05"), a.agingLabel(l, now))
	}
	n, err := promptInt(sc, "Which one? ")
	if err != nil || n < 1 || n > len(candidates) {
		warnColor.Println("No loan selected.")
		return
	}

	input.IssuedAt = candidates[n-1].IssuedAt
	if err := a.ledger.Return(ctx, sess, input); err != nil {
		printErr(err)
		return
	}
	okColor.Println("Returned.")
}

func (a *app) handleListLoans(ctx context.Context, sess *session.Session) {
	loans, err := a.ledger.ListLoans(ctx, sess)
	if err != nil {
		printErr(err)
		return
	}
	a.printLoans(loans)
}

func (a *app) handleMyLoans(ctx context.Context, sess *session.Session) {
	loans, err := a.ledger.ListLoansForUser(ctx, sess, sess.UserID)
	if err != nil {
		printErr(err)
		return
	}
	a.printLoans(loans)
}

func (a *app) handleBookLoans(ctx context.Context, sc *bufio.Scanner, sess *session.Session) {
	id := prompt(sc, "Book ID: ")
	loans, err := a.ledger.ListLoansForBook(ctx, sess, id)
	if err != nil {
		printErr(err)
		return
	}
	a.printLoans(loans)
}

func (a *app) printLoans(loans []*domain.Loan) {
	if len(loans) == 0 {
		fmt.Println("No active loans.")
		return
	}
	now := time.Now().UTC()
	fmt.Printf("%-12s %-12s %-24s %-20s %s\n", "BOOK", "USER", "BORROWER", "ISSUED", "STATUS")
	for _, l := range loans {
		user := l.UserID
		if l.IsGuest() {
			user = "(guest)"
		}
		fmt.Printf("%-12s %-12s %-24s %-20s %s\n",
			l.BookID, user, truncate(l.BorrowerName, 24),
			l.IssuedAt.Format("2006-01-02 15:04:05"), a.agingLabel(l, now))
	}
}

// agingLabel renders a loan's aging with overdue loans in red.
func (a *app) agingLabel(l *domain.Loan, now time.Time) string {
	aging := a.ledger.Aging(l, now)
	switch aging.State {
	case domain.Overdue:
		return overdueColor.Sprintf("overdue by %d day(s)", aging.Days)
	case domain.DueToday:
		return warnColor.Sprint("due today")
	default:
		return fmt.Sprintf("%d day(s) remaining", aging.Days)
	}
}

// ---- small helpers ----

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func intOrDefault(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	return n, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
