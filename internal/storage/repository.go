package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"budgetwise/internal/core"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// timestampLayout sorts lexicographically in UTC.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// LedgerEntry is a transaction row as stored, date text included verbatim.
type LedgerEntry struct {
	Amount decimal.Decimal
	Date   string
}

type rowScanner interface {
	Scan(dest ...any) error
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) timestamp() string {
	return r.now().UTC().Format(timestampLayout)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	id := n.Int64
	return &id
}

// Users

// CreateUser stores a new user. Username and email must both be unused.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ? OR lower(email) = lower(?)`,
		u.Username, u.Email).Scan(&exists)
	if err != nil {
		return core.User{}, fmt.Errorf("check existing user: %w", err)
	}
	if exists > 0 {
		return core.User{}, fmt.Errorf("user %q: %w", u.Username, ErrConflict)
	}

	createdAt := r.timestamp()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, full_name, currency, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.FullName, u.Currency, createdAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.User{}, fmt.Errorf("user %q: %w", u.Username, ErrConflict)
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return core.User{}, fmt.Errorf("user id: %w", err)
	}
	u.CreatedAt = parseTimestamp(createdAt)

	slog.InfoContext(ctx, "User saved to SQLite", "id", u.ID, "username", u.Username)
	return u, nil
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	var (
		u         core.User
		createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, full_name, currency, created_at
		 FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.Currency, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = parseTimestamp(createdAt)
	return u, nil
}

// Transactions

const transactionColumns = `id, user_id, amount_cents, description, category, transaction_date,
	goal_id, budget_id, created_at`

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		t                core.Transaction
		cents            int64
		date, createdAt  string
		goalID, budgetID sql.NullInt64
	)
	if err := s.Scan(&t.ID, &t.UserID, &cents, &t.Description, &t.Category, &date,
		&goalID, &budgetID, &createdAt); err != nil {
		return core.Transaction{}, err
	}
	t.Amount = core.FromCents(cents)
	t.GoalID = idPtr(goalID)
	t.BudgetID = idPtr(budgetID)
	t.CreatedAt = parseTimestamp(createdAt)
	if d, err := core.ParseDate(date); err == nil {
		t.TransactionDate = d
	}
	return t, nil
}

// CreateTransaction stores t. A transaction linked to a savings goal credits
// its absolute amount to the goal in the same database transaction.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin: %w", err)
	}
	defer dbtx.Rollback()

	cents := core.ToCents(t.Amount)
	if t.GoalID != nil {
		res, err := dbtx.ExecContext(ctx,
			`UPDATE savings_goals SET current_cents = current_cents + ? WHERE id = ? AND user_id = ?`,
			abs(cents), *t.GoalID, t.UserID)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("credit goal: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.Transaction{}, fmt.Errorf("savings goal %d: %w", *t.GoalID, ErrNotFound)
		}
	}
	if t.BudgetID != nil {
		var owned int
		err := dbtx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM budgets WHERE id = ? AND user_id = ?`, *t.BudgetID, t.UserID).Scan(&owned)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("check budget: %w", err)
		}
		if owned == 0 {
			return core.Transaction{}, fmt.Errorf("budget %d: %w", *t.BudgetID, ErrNotFound)
		}
	}

	createdAt := r.timestamp()
	res, err := dbtx.ExecContext(ctx,
		`INSERT INTO transactions (user_id, amount_cents, description, category, transaction_date,
		 goal_id, budget_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, cents, t.Description, t.Category, t.TransactionDate.String(),
		nullableID(t.GoalID), nullableID(t.BudgetID), createdAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}
	if err := dbtx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit: %w", err)
	}

	t.Amount = core.FromCents(cents)
	t.CreatedAt = parseTimestamp(createdAt)
	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"user_id", t.UserID,
		"amount_cents", cents,
		"category", t.Category,
		"date", t.TransactionDate.String())
	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns the user's transactions, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ?
		 ORDER BY transaction_date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// ListLedger returns amount and raw date of every transaction, oldest first.
func (r *SQLiteRepository) ListLedger(ctx context.Context, userID int64) ([]LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT amount_cents, transaction_date FROM transactions WHERE user_id = ?
		 ORDER BY transaction_date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var (
			cents int64
			date  string
		)
		if err := rows.Scan(&cents, &date); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, LedgerEntry{Amount: core.FromCents(cents), Date: date})
	}
	return entries, rows.Err()
}

// DeleteTransaction removes a transaction and reverses its goal credit.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin: %w", err)
	}
	defer dbtx.Rollback()

	row := dbtx.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}

	if t.GoalID != nil {
		_, err := dbtx.ExecContext(ctx,
			`UPDATE savings_goals SET current_cents = MAX(current_cents - ?, 0) WHERE id = ? AND user_id = ?`,
			abs(core.ToCents(t.Amount)), *t.GoalID, userID)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("reverse goal credit: %w", err)
		}
	}
	if _, err := dbtx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return core.Transaction{}, fmt.Errorf("delete transaction: %w", err)
	}
	if err := dbtx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id, "user_id", userID)
	return t, nil
}

func (r *SQLiteRepository) CountTransactions(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// Savings goals

const goalColumns = `id, user_id, name, target_cents, current_cents, deadline, created_at`

func scanGoal(s rowScanner) (core.SavingsGoal, error) {
	var (
		g               core.SavingsGoal
		target, current int64
		deadline        sql.NullString
		createdAt       string
	)
	if err := s.Scan(&g.ID, &g.UserID, &g.Name, &target, &current, &deadline, &createdAt); err != nil {
		return core.SavingsGoal{}, err
	}
	g.TargetAmount = core.FromCents(target)
	g.CurrentAmount = core.FromCents(current)
	g.CreatedAt = parseTimestamp(createdAt)
	if deadline.Valid {
		if d, err := core.ParseDate(deadline.String); err == nil {
			g.Deadline = &d
		}
	}
	return g, nil
}

func (r *SQLiteRepository) CreateSavingsGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	var deadline sql.NullString
	if g.Deadline != nil {
		deadline = sql.NullString{String: g.Deadline.String(), Valid: true}
	}
	createdAt := r.timestamp()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO savings_goals (user_id, name, target_cents, current_cents, deadline, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.UserID, g.Name, core.ToCents(g.TargetAmount), core.ToCents(g.CurrentAmount), deadline, createdAt)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("insert savings goal: %w", err)
	}
	if g.ID, err = res.LastInsertId(); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("savings goal id: %w", err)
	}
	g.CreatedAt = parseTimestamp(createdAt)
	return g, nil
}

func (r *SQLiteRepository) GetSavingsGoal(ctx context.Context, userID, id int64) (core.SavingsGoal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE id = ? AND user_id = ?`, id, userID)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingsGoal{}, fmt.Errorf("savings goal %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get savings goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) ListSavingsGoals(ctx context.Context, userID int64) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list savings goals: %w", err)
	}
	defer rows.Close()

	goals := []core.SavingsGoal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan savings goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// GoalContributions sums the absolute amounts of transactions linked to each goal.
func (r *SQLiteRepository) GoalContributions(ctx context.Context, userID int64) (map[int64]decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT goal_id, SUM(ABS(amount_cents)) FROM transactions
		 WHERE user_id = ? AND goal_id IS NOT NULL GROUP BY goal_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("goal contributions: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]decimal.Decimal)
	for rows.Next() {
		var goalID, cents int64
		if err := rows.Scan(&goalID, &cents); err != nil {
			return nil, fmt.Errorf("scan goal contribution: %w", err)
		}
		out[goalID] = core.FromCents(cents)
	}
	return out, rows.Err()
}

// Budgets

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	createdAt := r.timestamp()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category, limit_cents, period, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.UserID, b.Category, core.ToCents(b.Limit), string(b.Period), createdAt)
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return core.Budget{}, fmt.Errorf("budget id: %w", err)
	}
	b.Spent = decimal.Zero
	b.CreatedAt = parseTimestamp(createdAt)
	return b, nil
}

// ListBudgets returns the user's budgets with the amount spent in the
// current period. A debit counts toward a budget when it is linked to it, or
// when it is unlinked and its category matches.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64, today core.Date) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category, limit_cents, period, created_at FROM budgets
		 WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	budgets := []core.Budget{}
	for rows.Next() {
		var (
			b         core.Budget
			limit     int64
			period    string
			createdAt string
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &limit, &period, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.Limit = core.FromCents(limit)
		b.Period = core.BudgetPeriod(period)
		b.CreatedAt = parseTimestamp(createdAt)
		budgets = append(budgets, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	for i := range budgets {
		spent, err := r.budgetSpent(ctx, budgets[i], today)
		if err != nil {
			return nil, err
		}
		budgets[i].Spent = spent
	}
	return budgets, nil
}

func (r *SQLiteRepository) budgetSpent(ctx context.Context, b core.Budget, today core.Date) (decimal.Decimal, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(-amount_cents), 0) FROM transactions
		 WHERE user_id = ? AND amount_cents < 0
		   AND (budget_id = ? OR (budget_id IS NULL AND lower(category) = lower(?)))
		   AND transaction_date >= ? AND transaction_date <= ?`,
		b.UserID, b.ID, b.Category, b.Period.Start(today).String(), today.String()).Scan(&cents)
	if err != nil {
		return decimal.Zero, fmt.Errorf("budget %d spent: %w", b.ID, err)
	}
	return core.FromCents(cents), nil
}

// Achievements

// AwardAchievement stores at most one achievement per user and code.
// It reports whether a was newly stored.
func (r *SQLiteRepository) AwardAchievement(ctx context.Context, a core.Achievement) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO achievements (user_id, code, name, description, icon, earned_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.UserID, string(a.Code), a.Name, a.Description, string(a.Icon), r.timestamp())
	if err != nil {
		return false, fmt.Errorf("award achievement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("award achievement: %w", err)
	}
	return n == 1, nil
}

func (r *SQLiteRepository) ListAchievements(ctx context.Context, userID int64) ([]core.Achievement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, code, name, description, icon, earned_at FROM achievements
		 WHERE user_id = ? ORDER BY earned_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	out := []core.Achievement{}
	for rows.Next() {
		var (
			a                    core.Achievement
			code, icon, earnedAt string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &code, &a.Name, &a.Description, &icon, &earnedAt); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		a.Code = core.AchievementCode(code)
		a.Icon = core.LookupIcon(icon)
		a.EarnedAt = parseTimestamp(earnedAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Notifications

func (r *SQLiteRepository) CreateNotification(ctx context.Context, n core.Notification) (core.Notification, error) {
	createdAt := r.timestamp()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, type, message, is_read, created_at) VALUES (?, ?, ?, 0, ?)`,
		n.UserID, string(n.Type), n.Message, createdAt)
	if err != nil {
		return core.Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	if n.ID, err = res.LastInsertId(); err != nil {
		return core.Notification{}, fmt.Errorf("notification id: %w", err)
	}
	n.IsRead = false
	n.CreatedAt = parseTimestamp(createdAt)
	return n, nil
}

// ListNotifications returns the user's notifications, newest first.
func (r *SQLiteRepository) ListNotifications(ctx context.Context, userID int64) ([]core.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, type, message, is_read, created_at FROM notifications
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := []core.Notification{}
	for rows.Next() {
		var (
			n               core.Notification
			kind, createdAt string
			read            int
		)
		if err := rows.Scan(&n.ID, &n.UserID, &kind, &n.Message, &read, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Type = core.NotificationType(kind)
		n.IsRead = read != 0
		n.CreatedAt = parseTimestamp(createdAt)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("notification %d: %w", id, ErrNotFound)
	}
	return nil
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// ExportRef returns the spreadsheet row recorded for a transaction, if any.
func (r *SQLiteRepository) ExportRef(ctx context.Context, transactionID int64) (string, bool, error) {
	var ref string
	err := r.db.QueryRowContext(ctx,
		`SELECT row_ref FROM exports WHERE transaction_id = ?`, transactionID).Scan(&ref)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get export: %w", err)
	}
	return ref, true, nil
}

// RecordExport remembers that a transaction reached the spreadsheet.
// The first recorded row wins.
func (r *SQLiteRepository) RecordExport(ctx context.Context, transactionID int64, ref string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO exports (transaction_id, row_ref, exported_at) VALUES (?, ?, ?)`,
		transactionID, ref, r.timestamp())
	if err != nil {
		return fmt.Errorf("record export: %w", err)
	}
	return nil
}
