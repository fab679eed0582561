package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/sessionkit/core/session"
)

const (
	sessionKeyPrefix = "session:"
	varsKeyPrefix    = "session:vars:"
	userKeyPrefix    = "session:user:"
)

// touchScript re-stamps the activity field only when the session hash still
// exists, so a concurrent delete can never resurrect the key.
const touchScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[1], "active_at", ARGV[1])
if tonumber(ARGV[2]) > 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 1
`

var touchLua = redis.NewScript(touchScript)

// Store persists session rows and variables in Redis hashes, with a per-user
// set indexing the user's live sessions. It implements both session.Store and
// session.VariableStore.
//
// Every key carries a TTL so abandoned sessions age out of Redis on their
// own; set it to the manager's hard-expiry horizon.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithTTL sets the expiry applied to session keys on every write.
func WithTTL(d time.Duration) StoreOption {
	return func(s *Store) { s.ttl = d }
}

// NewStore wraps the Redis client in a session store. The default key TTL is
// 48 hours.
func NewStore(client *redis.Client, opts ...StoreOption) *Store {
	s := &Store{client: client, ttl: 48 * time.Hour}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func varsKey(id string) string { return varsKeyPrefix + id }

func userKey(userID int64) string { return userKeyPrefix + strconv.FormatInt(userID, 10) }

func rowToFields(row session.Row) map[string]any {
	return map[string]any{
		"user_id":      strconv.FormatInt(row.UserID, 10),
		"user_email":   row.UserEmail,
		"secure_token": row.SecureToken,
		"ip":           row.IP,
		"created_at":   strconv.FormatInt(row.CreatedAt.UnixNano(), 10),
		"active_at":    strconv.FormatInt(row.ActiveAt.UnixNano(), 10),
	}
}

func fieldsToRow(id string, fields map[string]string) session.Row {
	row := session.Row{
		ID:          id,
		UserEmail:   fields["user_email"],
		SecureToken: fields["secure_token"],
		IP:          fields["ip"],
	}
	if v, err := strconv.ParseInt(fields["user_id"], 10, 64); err == nil {
		row.UserID = v
	}
	if v, err := strconv.ParseInt(fields["created_at"], 10, 64); err == nil {
		row.CreatedAt = time.Unix(0, v).UTC()
	}
	if v, err := strconv.ParseInt(fields["active_at"], 10, 64); err == nil {
		row.ActiveAt = time.Unix(0, v).UTC()
	}
	return row
}

func (s *Store) FetchByID(ctx context.Context, id string) (session.Row, error) {
	fields, err := s.client.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return session.Row{}, err
	}
	if len(fields) == 0 {
		return session.Row{}, session.ErrRowNotFound
	}
	return fieldsToRow(id, fields), nil
}

func (s *Store) GetLastActive(ctx context.Context, id string) (time.Time, error) {
	val, err := s.client.HGet(ctx, sessionKey(id), "active_at").Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, session.ErrRowNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	nanos, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, nanos).UTC(), nil
}

func (s *Store) UpdateLastActive(ctx context.Context, id string, ts time.Time) (int64, error) {
	return touchLua.Run(ctx, s.client,
		[]string{sessionKey(id)},
		strconv.FormatInt(ts.UnixNano(), 10),
		strconv.FormatInt(s.ttl.Milliseconds(), 10),
	).Int64()
}

func (s *Store) UpsertSession(ctx context.Context, row session.Row) (int64, error) {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, sessionKey(row.ID), rowToFields(row))
	pipe.SAdd(ctx, userKey(row.UserID), row.ID)
	if s.ttl > 0 {
		pipe.Expire(ctx, sessionKey(row.ID), s.ttl)
		pipe.Expire(ctx, userKey(row.UserID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) (session.Row, error) {
	row, err := s.FetchByID(ctx, id)
	if err != nil {
		return session.Row{}, err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(id), varsKey(id))
	pipe.SRem(ctx, userKey(row.UserID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return session.Row{}, err
	}
	return row, nil
}

func (s *Store) DeleteSessionsByUser(ctx context.Context, userID int64) ([]session.Row, error) {
	ids, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	var deleted []session.Row
	for _, id := range ids {
		row, err := s.FetchByID(ctx, id)
		if errors.Is(err, session.ErrRowNotFound) {
			continue
		}
		if err != nil {
			return deleted, err
		}
		if err := s.client.Del(ctx, sessionKey(id), varsKey(id)).Err(); err != nil {
			return deleted, err
		}
		deleted = append(deleted, row)
	}

	if err := s.client.Del(ctx, userKey(userID)).Err(); err != nil {
		return deleted, err
	}
	return deleted, nil
}

func (s *Store) GetVariable(ctx context.Context, sessionID, name string) (string, error) {
	val, err := s.client.HGet(ctx, varsKey(sessionID), name).Result()
	if errors.Is(err, redis.Nil) {
		return "", session.ErrVariableNotFound
	}
	return val, err
}

func (s *Store) SetVariable(ctx context.Context, sessionID, name, value string) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, varsKey(sessionID), name, value)
	if s.ttl > 0 {
		pipe.Expire(ctx, varsKey(sessionID), s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) DeleteVariable(ctx context.Context, sessionID, name string) error {
	return s.client.HDel(ctx, varsKey(sessionID), name).Err()
}

func (s *Store) DeleteVariablesBySession(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, varsKey(sessionID)).Err()
}

func (s *Store) DeleteVariablesByUser(ctx context.Context, userID int64) error {
	ids, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.client.Del(ctx, varsKey(id)).Err(); err != nil {
			return err
		}
	}
	return nil
}

var (
	_ session.Store         = (*Store)(nil)
	_ session.VariableStore = (*Store)(nil)
)
