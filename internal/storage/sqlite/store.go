package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/storage"
)

const timeFormat = time.RFC3339Nano

//go:embed schema.sql
var schema string

// Store is a SQLite-backed implementation of the storage interface
type Store struct {
	sqlDB *sql.DB
}

// Ensure Store implements the interface
var _ storage.Storage = (*Store)(nil)

// Open opens a SQLite store at the provided path and applies the schema
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single writer connection serialises transactions
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying SQLite database
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(timeFormat, value)
}

func parseNullTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	t, err := parseTime(value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// Competitor operations

const competitorColumns = "id, first_name, last_name, language, country, competitor_number, created_at, updated_at"

func scanCompetitor(row scanner) (*model.Competitor, error) {
	var (
		c                    model.Competitor
		language             string
		number               sql.NullInt64
		createdAt, updatedAt string
	)
	if err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &language, &c.Country, &number, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.Language = model.Language(language)
	if number.Valid {
		n := int(number.Int64)
		c.Number = &n
	}
	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &c, nil
}

func nullNumber(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func (s *Store) CreateCompetitor(ctx context.Context, c *model.Competitor) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO competitors (`+competitorColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(c.ID), c.FirstName, c.LastName, string(c.Language), c.Country, nullNumber(c.Number),
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert competitor: %w", err)
	}
	return nil
}

func (s *Store) UpdateCompetitorFields(ctx context.Context, id model.CompetitorID, fields model.CompetitorFields, updatedAt time.Time) (*model.Competitor, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`UPDATE competitors SET first_name = ?, last_name = ?, language = ?, country = ?, updated_at = ?
		 WHERE id = ?
		 RETURNING `+competitorColumns,
		fields.FirstName, fields.LastName, string(fields.Language), fields.Country, formatTime(updatedAt), string(id),
	)
	c, err := scanCompetitor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrCompetitorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update competitor: %w", err)
	}
	return c, nil
}

func (s *Store) GetCompetitor(ctx context.Context, id model.CompetitorID) (*model.Competitor, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+competitorColumns+` FROM competitors WHERE id = ?`, string(id))
	c, err := scanCompetitor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrCompetitorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get competitor: %w", err)
	}
	return c, nil
}

func (s *Store) ListCompetitors(ctx context.Context) ([]*model.Competitor, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT `+competitorColumns+` FROM competitors`)
	if err != nil {
		return nil, fmt.Errorf("list competitors: %w", err)
	}
	defer rows.Close()

	result := make([]*model.Competitor, 0)
	for rows.Next() {
		c, err := scanCompetitor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan competitor: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	storage.SortCompetitors(result)
	return result, nil
}

func (s *Store) DeleteCompetitor(ctx context.Context, id model.CompetitorID) error {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM competitors WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("delete competitor: %w", err)
	}
	return requireAffected(res, model.ErrCompetitorNotFound)
}

func (s *Store) AssignCompetitorNumbers(ctx context.Context, numbers map[model.CompetitorID]int) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for id, n := range numbers {
		res, err := tx.ExecContext(ctx, `UPDATE competitors SET competitor_number = ? WHERE id = ?`, n, string(id))
		if err != nil {
			return fmt.Errorf("assign number: %w", err)
		}
		if err := requireAffected(res, model.ErrCompetitorNotFound); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Session operations

const sessionColumns = "id, competitor_id, day, module, start_time, end_time, total_time, created_at, updated_at"

func scanSession(row scanner) (*model.Session, error) {
	var (
		sess                 model.Session
		module               string
		start, end           sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&sess.ID, &sess.CompetitorID, &sess.Day, &module, &start, &end, &sess.TotalTime, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	sess.Module = model.Module(module)
	var err error
	if sess.StartTime, err = parseNullTime(start); err != nil {
		return nil, fmt.Errorf("parse start_time: %w", err)
	}
	if sess.EndTime, err = parseNullTime(end); err != nil {
		return nil, fmt.Errorf("parse end_time: %w", err)
	}
	if sess.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if sess.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &sess, nil
}

func (s *Store) CreateSession(ctx context.Context, sess *model.Session) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(sess.ID), string(sess.CompetitorID), sess.Day, string(sess.Module),
		formatNullTime(sess.StartTime), formatNullTime(sess.EndTime), sess.TotalTime,
		formatTime(sess.CreatedAt), formatTime(sess.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return model.ErrSessionExists
	}
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *Store) SaveSession(ctx context.Context, sess *model.Session) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE sessions SET start_time = ?, end_time = ?, total_time = ?, updated_at = ?
		 WHERE competitor_id = ? AND day = ? AND module = ?`,
		formatNullTime(sess.StartTime), formatNullTime(sess.EndTime), sess.TotalTime, formatTime(sess.UpdatedAt),
		string(sess.CompetitorID), sess.Day, string(sess.Module),
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return requireAffected(res, model.ErrSessionNotFound)
}

func (s *Store) GetSession(ctx context.Context, key model.SessionKey) (*model.Session, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE competitor_id = ? AND day = ? AND module = ?`,
		string(key.CompetitorID), key.Day, string(key.Module),
	)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

func (s *Store) ListSessions(ctx context.Context, day int) ([]*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions`
	var args []any
	if day != 0 {
		query += ` WHERE day = ?`
		args = append(args, day)
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	result := make([]*model.Session, 0)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		result = append(result, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	storage.SortSessions(result)
	return result, nil
}

// Active timer operations

func (s *Store) ClaimActiveTimer(ctx context.Context, key model.SessionKey) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var holder model.SessionKey
	var module string
	err = tx.QueryRowContext(ctx, `SELECT competitor_id, day, module FROM active_timer WHERE id = 1`).
		Scan(&holder.CompetitorID, &holder.Day, &module)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO active_timer (id, competitor_id, day, module) VALUES (1, ?, ?, ?)`,
			string(key.CompetitorID), key.Day, string(key.Module),
		); err != nil {
			if isUniqueViolation(err) {
				return model.ErrTimerActive
			}
			return fmt.Errorf("claim active timer: %w", err)
		}
		return tx.Commit()
	case err != nil:
		return fmt.Errorf("read active timer: %w", err)
	}

	holder.Module = model.Module(module)
	if holder != key {
		return model.ErrTimerActive
	}
	return nil
}

func (s *Store) ReleaseActiveTimer(ctx context.Context, key model.SessionKey) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM active_timer WHERE id = 1 AND competitor_id = ? AND day = ? AND module = ?`,
		string(key.CompetitorID), key.Day, string(key.Module),
	)
	if err != nil {
		return fmt.Errorf("release active timer: %w", err)
	}
	return nil
}

func (s *Store) GetActiveTimer(ctx context.Context) (*model.SessionKey, error) {
	var key model.SessionKey
	var module string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT competitor_id, day, module FROM active_timer WHERE id = 1`).
		Scan(&key.CompetitorID, &key.Day, &module)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active timer: %w", err)
	}
	key.Module = model.Module(module)
	return &key, nil
}

// Admin operations

const adminColumns = "id, email, role, password_hash, created_at"

func scanAdmin(row scanner) (*model.Admin, error) {
	var a model.Admin
	var createdAt string
	if err := row.Scan(&a.ID, &a.Email, &a.Role, &a.PasswordHash, &createdAt); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	a.CreatedAt = t
	return &a, nil
}

func (s *Store) CreateAdmin(ctx context.Context, a *model.Admin) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO admins (`+adminColumns+`) VALUES (?, ?, ?, ?, ?)`,
		string(a.ID), a.Email, a.Role, a.PasswordHash, formatTime(a.CreatedAt),
	)
	if isUniqueViolation(err) {
		return model.ErrEmailExists
	}
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

func (s *Store) GetAdmin(ctx context.Context, id model.AdminID) (*model.Admin, error) {
	a, err := scanAdmin(s.sqlDB.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = ?`, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return a, nil
}

func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	a, err := scanAdmin(s.sqlDB.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admins WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return a, nil
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
