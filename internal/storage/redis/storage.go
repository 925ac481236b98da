package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/storage"
)

// releaseScript deletes the active timer only when it still holds the caller's key
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// claimScript sets the active timer when it is free or already held by the caller.
// Returns 1 when the caller holds the claim afterwards.
var claimScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if not current then
	redis.call("SET", KEYS[1], ARGV[1])
	return 1
end
if current == ARGV[1] then
	return 1
end
return 0
`)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.MaxTxRetries <= 0 {
		cfg.MaxTxRetries = DefaultConfig().MaxTxRetries
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Competitor operations

func (s *Storage) CreateCompetitor(ctx context.Context, c *model.Competitor) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, competitorKey(c.ID), data, 0)
	pipe.SAdd(ctx, competitorsIndexKey(), string(c.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) UpdateCompetitorFields(ctx context.Context, id model.CompetitorID, fields model.CompetitorFields, updatedAt time.Time) (*model.Competitor, error) {
	key := competitorKey(id)
	var updated model.Competitor

	// A number assignment touching the watched key aborts the attempt, which is retried on fresh data
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrCompetitorNotFound
			}
			return err
		}
		var c model.Competitor
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		c.FirstName = fields.FirstName
		c.LastName = fields.LastName
		c.Language = fields.Language
		c.Country = fields.Country
		c.UpdatedAt = updatedAt

		out, err := json.Marshal(&c)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err == nil {
			updated = c
		}
		return err
	}

	for i := 0; i < s.cfg.MaxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &updated, nil
	}
	return nil, fmt.Errorf("update competitor: %w", redis.TxFailedErr)
}

func (s *Storage) GetCompetitor(ctx context.Context, id model.CompetitorID) (*model.Competitor, error) {
	data, err := s.client.Get(ctx, competitorKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrCompetitorNotFound
		}
		return nil, err
	}

	var c model.Competitor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Storage) ListCompetitors(ctx context.Context) ([]*model.Competitor, error) {
	ids, err := s.client.SMembers(ctx, competitorsIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Competitor{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = competitorKey(model.CompetitorID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	result := make([]*model.Competitor, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			// Index entry outlived its document
			continue
		}
		var c model.Competitor
		if err := json.Unmarshal([]byte(str), &c); err != nil {
			return nil, err
		}
		result = append(result, &c)
	}
	storage.SortCompetitors(result)
	return result, nil
}

func (s *Storage) DeleteCompetitor(ctx context.Context, id model.CompetitorID) error {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, competitorKey(id))
	pipe.SRem(ctx, competitorsIndexKey(), string(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if del.Val() == 0 {
		return model.ErrCompetitorNotFound
	}
	return nil
}

// AssignCompetitorNumbers runs an optimistic WATCH/MULTI transaction over every affected competitor
func (s *Storage) AssignCompetitorNumbers(ctx context.Context, numbers map[model.CompetitorID]int) error {
	if len(numbers) == 0 {
		return nil
	}

	keys := make([]string, 0, len(numbers))
	for id := range numbers {
		keys = append(keys, competitorKey(id))
	}

	txf := func(tx *redis.Tx) error {
		updated := make(map[string][]byte, len(numbers))
		for id, n := range numbers {
			data, err := tx.Get(ctx, competitorKey(id)).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return model.ErrCompetitorNotFound
				}
				return err
			}
			var c model.Competitor
			if err := json.Unmarshal(data, &c); err != nil {
				return err
			}
			number := n
			c.Number = &number
			out, err := json.Marshal(&c)
			if err != nil {
				return err
			}
			updated[competitorKey(id)] = out
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for key, data := range updated {
				pipe.Set(ctx, key, data, 0)
			}
			return nil
		})
		return err
	}

	for i := 0; i < s.cfg.MaxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("assign numbers: %w", redis.TxFailedErr)
}

// Session operations

func (s *Storage) CreateSession(ctx context.Context, sess *model.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	key := sessionKey(sess.Key())
	created, err := s.client.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return err
	}
	if !created {
		return model.ErrSessionExists
	}

	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, sessionsIndexKey(), key)
	pipe.SAdd(ctx, sessionsForDayIndexKey(sess.Day), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) SaveSession(ctx context.Context, sess *model.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	ok, err := s.client.SetXX(ctx, sessionKey(sess.Key()), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrSessionNotFound
	}
	return nil
}

func (s *Storage) GetSession(ctx context.Context, key model.SessionKey) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Storage) ListSessions(ctx context.Context, day int) ([]*model.Session, error) {
	index := sessionsIndexKey()
	if day != 0 {
		index = sessionsForDayIndexKey(day)
	}

	keys, err := s.client.SMembers(ctx, index).Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []*model.Session{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	result := make([]*model.Session, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var sess model.Session
		if err := json.Unmarshal([]byte(str), &sess); err != nil {
			return nil, err
		}
		result = append(result, &sess)
	}
	storage.SortSessions(result)
	return result, nil
}

// Active timer operations

func (s *Storage) ClaimActiveTimer(ctx context.Context, key model.SessionKey) error {
	data, err := json.Marshal(key)
	if err != nil {
		return err
	}

	claimed, err := claimScript.Run(ctx, s.client, []string{activeTimerKey()}, string(data)).Int()
	if err != nil {
		return err
	}
	if claimed != 1 {
		return model.ErrTimerActive
	}
	return nil
}

func (s *Storage) ReleaseActiveTimer(ctx context.Context, key model.SessionKey) error {
	data, err := json.Marshal(key)
	if err != nil {
		return err
	}
	return releaseScript.Run(ctx, s.client, []string{activeTimerKey()}, string(data)).Err()
}

func (s *Storage) GetActiveTimer(ctx context.Context) (*model.SessionKey, error) {
	data, err := s.client.Get(ctx, activeTimerKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var key model.SessionKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// Admin operations

func (s *Storage) CreateAdmin(ctx context.Context, a *model.Admin) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}

	reserved, err := s.client.SetNX(ctx, adminEmailIndexKey(a.Email), string(a.ID), 0).Result()
	if err != nil {
		return err
	}
	if !reserved {
		return model.ErrEmailExists
	}

	return s.client.Set(ctx, adminKey(a.ID), data, 0).Err()
}

func (s *Storage) GetAdmin(ctx context.Context, id model.AdminID) (*model.Admin, error) {
	data, err := s.client.Get(ctx, adminKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAdminNotFound
		}
		return nil, err
	}

	var a model.Admin
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Storage) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	// Look up admin ID from email index
	id, err := s.client.Get(ctx, adminEmailIndexKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAdminNotFound
		}
		return nil, err
	}

	return s.GetAdmin(ctx, model.AdminID(id))
}
