package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/storage"
)

// uniqueViolation is the SQLSTATE for unique_violation
const uniqueViolation = "23505"

//go:embed schema.sql
var schema string

// Store is a PostgreSQL-backed implementation of the storage interface
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements the interface
var _ storage.Storage = (*Store)(nil)

// New connects to PostgreSQL and applies the schema
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the connection pool
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Truncate removes every row; used by tests against a shared database
func (s *Store) Truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE competitors, sessions, active_timer, admins`)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Competitor operations

const competitorColumns = "id, first_name, last_name, language, country, competitor_number, created_at, updated_at"

func scanCompetitor(row pgx.Row) (*model.Competitor, error) {
	var (
		c        model.Competitor
		id       string
		language string
		number   *int32
	)
	if err := row.Scan(&id, &c.FirstName, &c.LastName, &language, &c.Country, &number, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ID = model.CompetitorID(id)
	c.Language = model.Language(language)
	if number != nil {
		n := int(*number)
		c.Number = &n
	}
	return &c, nil
}

func (s *Store) CreateCompetitor(ctx context.Context, c *model.Competitor) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO competitors (`+competitorColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(c.ID), c.FirstName, c.LastName, string(c.Language), c.Country, c.Number, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert competitor: %w", err)
	}
	return nil
}

func (s *Store) UpdateCompetitorFields(ctx context.Context, id model.CompetitorID, fields model.CompetitorFields, updatedAt time.Time) (*model.Competitor, error) {
	c, err := scanCompetitor(s.pool.QueryRow(ctx,
		`UPDATE competitors SET first_name = $1, last_name = $2, language = $3, country = $4, updated_at = $5
		 WHERE id = $6
		 RETURNING `+competitorColumns,
		fields.FirstName, fields.LastName, string(fields.Language), fields.Country, updatedAt, string(id),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrCompetitorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update competitor: %w", err)
	}
	return c, nil
}

func (s *Store) GetCompetitor(ctx context.Context, id model.CompetitorID) (*model.Competitor, error) {
	c, err := scanCompetitor(s.pool.QueryRow(ctx, `SELECT `+competitorColumns+` FROM competitors WHERE id = $1`, string(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrCompetitorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get competitor: %w", err)
	}
	return c, nil
}

func (s *Store) ListCompetitors(ctx context.Context) ([]*model.Competitor, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+competitorColumns+` FROM competitors`)
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
	tag, err := s.pool.Exec(ctx, `DELETE FROM competitors WHERE id = $1`, string(id))
	if err != nil {
		return fmt.Errorf("delete competitor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCompetitorNotFound
	}
	return nil
}

func (s *Store) AssignCompetitorNumbers(ctx context.Context, numbers map[model.CompetitorID]int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for id, n := range numbers {
		tag, err := tx.Exec(ctx, `UPDATE competitors SET competitor_number = $1 WHERE id = $2`, n, string(id))
		if err != nil {
			return fmt.Errorf("assign number: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrCompetitorNotFound
		}
	}

	return tx.Commit(ctx)
}

// Session operations

const sessionColumns = "id, competitor_id, day, module, start_time, end_time, total_time, created_at, updated_at"

func scanSession(row pgx.Row) (*model.Session, error) {
	var (
		sess                 model.Session
		id, competitorID     string
		module               string
		day, totalTime       int32
		start, end           *time.Time
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &competitorID, &day, &module, &start, &end, &totalTime, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	sess.ID = model.SessionID(id)
	sess.CompetitorID = model.CompetitorID(competitorID)
	sess.Day = int(day)
	sess.Module = model.Module(module)
	sess.StartTime = start
	sess.EndTime = end
	sess.TotalTime = int(totalTime)
	sess.CreatedAt = createdAt
	sess.UpdatedAt = updatedAt
	return &sess, nil
}

func (s *Store) CreateSession(ctx context.Context, sess *model.Session) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		string(sess.ID), string(sess.CompetitorID), sess.Day, string(sess.Module),
		sess.StartTime, sess.EndTime, sess.TotalTime, sess.CreatedAt, sess.UpdatedAt,
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
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET start_time = $1, end_time = $2, total_time = $3, updated_at = $4
		 WHERE competitor_id = $5 AND day = $6 AND module = $7`,
		sess.StartTime, sess.EndTime, sess.TotalTime, sess.UpdatedAt,
		string(sess.CompetitorID), sess.Day, string(sess.Module),
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrSessionNotFound
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, key model.SessionKey) (*model.Session, error) {
	sess, err := scanSession(s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE competitor_id = $1 AND day = $2 AND module = $3`,
		string(key.CompetitorID), key.Day, string(key.Module),
	))
	if errors.Is(err, pgx.ErrNoRows) {
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
		query += ` WHERE day = $1`
		args = append(args, day)
	}

	rows, err := s.pool.Query(ctx, query, args...)
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
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO active_timer (id, competitor_id, day, module) VALUES (1, $1, $2, $3) ON CONFLICT (id) DO NOTHING`,
		string(key.CompetitorID), key.Day, string(key.Module),
	)
	if err != nil {
		return fmt.Errorf("claim active timer: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	holder, err := s.GetActiveTimer(ctx)
	if err != nil {
		return err
	}
	if holder != nil && *holder == key {
		return nil
	}
	return model.ErrTimerActive
}

func (s *Store) ReleaseActiveTimer(ctx context.Context, key model.SessionKey) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM active_timer WHERE id = 1 AND competitor_id = $1 AND day = $2 AND module = $3`,
		string(key.CompetitorID), key.Day, string(key.Module),
	)
	if err != nil {
		return fmt.Errorf("release active timer: %w", err)
	}
	return nil
}

func (s *Store) GetActiveTimer(ctx context.Context) (*model.SessionKey, error) {
	var competitorID, module string
	var day int32
	err := s.pool.QueryRow(ctx, `SELECT competitor_id, day, module FROM active_timer WHERE id = 1`).
		Scan(&competitorID, &day, &module)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active timer: %w", err)
	}
	return &model.SessionKey{
		CompetitorID: model.CompetitorID(competitorID),
		Day:          int(day),
		Module:       model.Module(module),
	}, nil
}

// Admin operations

const adminColumns = "id, email, role, password_hash, created_at"

func scanAdmin(row pgx.Row) (*model.Admin, error) {
	var a model.Admin
	var id string
	if err := row.Scan(&id, &a.Email, &a.Role, &a.PasswordHash, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.ID = model.AdminID(id)
	return &a, nil
}

func (s *Store) CreateAdmin(ctx context.Context, a *model.Admin) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO admins (`+adminColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		string(a.ID), a.Email, a.Role, a.PasswordHash, a.CreatedAt,
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
	a, err := scanAdmin(s.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, string(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return a, nil
}

func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	a, err := scanAdmin(s.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return a, nil
}
