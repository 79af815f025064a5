package metrics

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/voyora/zara/internal/types"
)

// answerMethods is the fixed set of methods an answer can be served with.
var answerMethods = []types.AnswerMethod{
	types.MethodRAG,
	types.MethodFallback,
	types.MethodNoResults,
	types.MethodLLMNoContext,
}

// Store manages SQLite persistence for answer counts by method.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store with the database at ~/.zara/stats.db.
// The directory and database file are created if they don't exist.
func NewStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	zaraDir := filepath.Join(homeDir, ".zara")
	if err := os.MkdirAll(zaraDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create .zara directory: %w", err)
	}

	dbPath := filepath.Join(zaraDir, "stats.db")
	return NewStoreWithPath(dbPath)
}

// NewStoreWithPath creates a Store with a custom database path.
// This is useful for testing.
func NewStoreWithPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS answer_counts (
			method TEXT NOT NULL,
			date TEXT NOT NULL,
			count INTEGER DEFAULT 0,
			PRIMARY KEY (method, date)
		);
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &Store{db: db}, nil
}

// Increment increments the count for the given answer method for today's date.
func (s *Store) Increment(method types.AnswerMethod) error {
	today := time.Now().Format("2006-01-02")

	upsertSQL := `
		INSERT INTO answer_counts (method, date, count)
		VALUES (?, ?, 1)
		ON CONFLICT(method, date) DO UPDATE SET count = count + 1;
	`
	_, err := s.db.Exec(upsertSQL, string(method), today)
	if err != nil {
		return fmt.Errorf("failed to increment count: %w", err)
	}

	return nil
}

// GetTotalByMethod returns the cumulative count for one method across all dates.
func (s *Store) GetTotalByMethod(method types.AnswerMethod) (int64, error) {
	var total int64
	row := s.db.QueryRow(
		"SELECT COALESCE(SUM(count), 0) FROM answer_counts WHERE method = ?",
		string(method),
	)
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to get total for method %s: %w", method, err)
	}
	return total, nil
}

// GetAllTotals returns cumulative counts for every answer method.
func (s *Store) GetAllTotals() (map[types.AnswerMethod]int64, error) {
	result := make(map[types.AnswerMethod]int64)
	for _, method := range answerMethods {
		result[method] = 0
	}

	rows, err := s.db.Query(
		"SELECT method, COALESCE(SUM(count), 0) FROM answer_counts GROUP BY method",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var methodStr string
		var total int64
		if err := rows.Scan(&methodStr, &total); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result[types.AnswerMethod(methodStr)] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// GetCountByDate returns the count for a specific method and date.
func (s *Store) GetCountByDate(method types.AnswerMethod, date string) (int64, error) {
	var count int64
	row := s.db.QueryRow(
		"SELECT COALESCE(count, 0) FROM answer_counts WHERE method = ? AND date = ?",
		string(method), date,
	)
	if err := row.Scan(&count); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get count: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
