package queue

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	readyKey        = "notify:queue:ready"
	waitingKey      = "notify:queue:waiting"
	announcementKey = "notify:queue:announcements"
)

// Store is the durable two-track queue behind the notification pipeline: a
// FIFO ready list for immediate sends, a waiting zset scored by send time,
// and a separate zset for the announcement-broadcast retry track.
type Store interface {
	PushReady(ctx context.Context, n Notification) error
	PopReady(ctx context.Context) (*Notification, error)
	// BlockingPopReady blocks until an item arrives or the timeout elapses.
	// A timeout returns (nil, nil).
	BlockingPopReady(ctx context.Context, timeout time.Duration) (*Notification, error)
	PushWaiting(ctx context.Context, n Notification, sendAt int64) error
	// MoveDueToReady atomically appends every waiting item with score <= now
	// to the ready list and removes it from the waiting set. Concurrent
	// sweeps never move the same item twice.
	MoveDueToReady(ctx context.Context, now int64) (int, error)

	PushAnnouncement(ctx context.Context, a ScheduledAnnouncement, sendAt int64) error
	// PopDueAnnouncements atomically removes and returns up to limit due
	// items from the announcement retry track.
	PopDueAnnouncements(ctx context.Context, now int64, limit int) ([]ScheduledAnnouncement, error)

	ReadySize(ctx context.Context) (int64, error)
	WaitingSize(ctx context.Context) (int64, error)
	AnnouncementSize(ctx context.Context) (int64, error)
}

// moveDueScript moves due waiting members onto the ready list in one atomic
// step, so concurrent sweeps cannot double-move an item.
const moveDueScript = `
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
if #due == 0 then
  return 0
end
for i = 1, #due do
  redis.call('RPUSH', KEYS[2], due[i])
end
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
return #due
`

// popDueScript removes and returns up to ARGV[2] due members of a zset.
const popDueScript = `
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
if #due > 0 then
  redis.call('ZREM', KEYS[1], unpack(due))
end
return due
`

// RedisStore implements Store on a Redis list and two sorted sets. Blocking
// pops run on their own client because BLPOP monopolizes its connection for
// the duration of the call.
type RedisStore struct {
	client   *redis.Client
	blocking *redis.Client
}

func NewRedisStore(client, blocking *redis.Client) *RedisStore {
	return &RedisStore{client: client, blocking: blocking}
}

func (s *RedisStore) PushReady(ctx context.Context, n Notification) error {
	data, err := n.Encode()
	if err != nil {
		return fmt.Errorf("encode notification %s: %w", n.ID, err)
	}
	return s.client.RPush(ctx, readyKey, data).Err()
}

func (s *RedisStore) PopReady(ctx context.Context) (*Notification, error) {
	data, err := s.client.LPop(ctx, readyKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	n, err := DecodeNotification(data)
	if err != nil {
		return nil, fmt.Errorf("decode ready item: %w", err)
	}
	return &n, nil
}

func (s *RedisStore) BlockingPopReady(ctx context.Context, timeout time.Duration) (*Notification, error) {
	res, err := s.blocking.BLPop(ctx, timeout, readyKey).Result()
	if err == redis.Nil {
		return nil, nil // timeout, not an error
	}
	if err != nil {
		return nil, err
	}
	// BLPOP returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BLPOP reply length %d", len(res))
	}
	n, err := DecodeNotification([]byte(res[1]))
	if err != nil {
		return nil, fmt.Errorf("decode ready item: %w", err)
	}
	return &n, nil
}

func (s *RedisStore) PushWaiting(ctx context.Context, n Notification, sendAt int64) error {
	data, err := n.Encode()
	if err != nil {
		return fmt.Errorf("encode notification %s: %w", n.ID, err)
	}
	return s.client.ZAdd(ctx, waitingKey, redis.Z{
		Score:  float64(sendAt),
		Member: data,
	}).Err()
}

func (s *RedisStore) MoveDueToReady(ctx context.Context, now int64) (int, error) {
	moved, err := s.client.Eval(ctx, moveDueScript, []string{waitingKey, readyKey}, now).Int()
	if err != nil {
		return 0, err
	}
	return moved, nil
}

func (s *RedisStore) PushAnnouncement(ctx context.Context, a ScheduledAnnouncement, sendAt int64) error {
	data, err := a.Encode()
	if err != nil {
		return fmt.Errorf("encode announcement %d: %w", a.AnnouncementID, err)
	}
	return s.client.ZAdd(ctx, announcementKey, redis.Z{
		Score:  float64(sendAt),
		Member: data,
	}).Err()
}

func (s *RedisStore) PopDueAnnouncements(ctx context.Context, now int64, limit int) ([]ScheduledAnnouncement, error) {
	raw, err := s.client.Eval(ctx, popDueScript, []string{announcementKey}, now, limit).Slice()
	if err != nil {
		return nil, err
	}
	items := make([]ScheduledAnnouncement, 0, len(raw))
	for _, member := range raw {
		str, ok := member.(string)
		if !ok {
			continue
		}
		a, err := DecodeScheduledAnnouncement([]byte(str))
		if err != nil {
			// The script already removed the member; skip it instead of
			// failing the whole batch.
			log.Printf("Dropping undecodable announcement queue member: %v", err)
			continue
		}
		items = append(items, a)
	}
	return items, nil
}

func (s *RedisStore) ReadySize(ctx context.Context) (int64, error) {
	return s.client.LLen(ctx, readyKey).Result()
}

func (s *RedisStore) WaitingSize(ctx context.Context) (int64, error) {
	return s.client.ZCard(ctx, waitingKey).Result()
}

func (s *RedisStore) AnnouncementSize(ctx context.Context) (int64, error) {
	return s.client.ZCard(ctx, announcementKey).Result()
}
