package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const flashTTL = 10 * time.Minute

var ErrUnavailable = errors.New("session store unavailable")

// Session is the server-side state behind one browser cookie. A session with
// an empty UserID belongs to an anonymous visitor; it can still carry flashes.
type Session struct {
	Token    string
	UserID   string
	Username string
}

func (s Session) LoggedIn() bool {
	return s.UserID != ""
}

// Store keeps sessions and flash messages in Redis.
type Store struct {
	rdb    *redis.Client
	ttl    time.Duration
	secure bool
}

func NewStore(rdb *redis.Client, ttl time.Duration, secure bool) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{rdb: rdb, ttl: ttl, secure: secure}
}

var newTokenFn = func() string {
	return uuid.NewString() + uuid.NewString()
}

func sessionKey(token string) string { return "session:" + token }
func flashKey(token string) string   { return "flash:" + token }

// Create stores a logged-in session under a fresh token and returns it.
func (s *Store) Create(ctx context.Context, userID, username string) (string, error) {
	if s.rdb == nil {
		return "", ErrUnavailable
	}
	token := newTokenFn()
	key := sessionKey(token)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "user_id", userID, "username", username)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Get resolves token. Unknown or expired tokens yield an anonymous session.
func (s *Store) Get(ctx context.Context, token string) (Session, error) {
	sess := Session{Token: token}
	if s.rdb == nil {
		return sess, ErrUnavailable
	}
	vals, err := s.rdb.HGetAll(ctx, sessionKey(token)).Result()
	if err != nil {
		return sess, err
	}
	sess.UserID = vals["user_id"]
	sess.Username = vals["username"]
	return sess, nil
}

// Destroy drops the login held by token. Pending flashes are kept.
func (s *Store) Destroy(ctx context.Context, token string) error {
	if s.rdb == nil {
		return ErrUnavailable
	}
	return s.rdb.Del(ctx, sessionKey(token)).Err()
}

func (s *Store) AddFlash(ctx context.Context, token, msg string) error {
	if s.rdb == nil {
		return ErrUnavailable
	}
	key := flashKey(token)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, msg)
		pipe.Expire(ctx, key, flashTTL)
		return nil
	})
	return err
}

// PopFlashes returns pending flashes in the order they were added and clears them.
func (s *Store) PopFlashes(ctx context.Context, token string) ([]string, error) {
	if s.rdb == nil {
		return nil, ErrUnavailable
	}
	key := flashKey(token)
	var lrange *redis.StringSliceCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		lrange = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lrange.Val(), nil
}
