package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/severand/InteriorBot/internal/domain/model"
	"github.com/severand/InteriorBot/internal/domain/ports/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo manages per-conversation flow state in Redis.
type SessionRepo struct {
	client *Client
	ttl    time.Duration
}

func NewSessionRepo(client *Client, ttl time.Duration) *SessionRepo {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepo{client: client, ttl: ttl}
}

func (s *SessionRepo) key(tgID int64) string {
	return fmt.Sprintf("flow_session:%d", tgID)
}

// Get returns the stored session or a fresh idle one when nothing is stored
// (first contact or TTL expiry).
func (s *SessionRepo) Get(ctx context.Context, tgID int64) (*model.Session, error) {
	data, err := s.client.Get(ctx, s.key(tgID))
	if err != nil {
		if IsNil(err) {
			return model.NewSession(), nil
		}
		return nil, err
	}
	var sess model.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *SessionRepo) Set(ctx context.Context, tgID int64, sess *model.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(tgID), data, s.ttl)
}

func (s *SessionRepo) Clear(ctx context.Context, tgID int64) error {
	return s.client.Del(ctx, s.key(tgID))
}
