package videos

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// claimScript sets the processing status only when the hash has no status.
// KEYS[1] record key; ARGV id, owner, status, now.
var claimScript = redis.NewScript(`
local s = redis.call('HGET', KEYS[1], 'status')
if s and s ~= '' then
	return 0
end
redis.call('HSET', KEYS[1], 'id', ARGV[1], 'owner_id', ARGV[2], 'status', ARGV[3], 'updated_at', ARGV[4])
redis.call('HSETNX', KEYS[1], 'created_at', ARGV[4])
return 1
`)

// RedisStore keeps each video record in a hash at <prefix><id>.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (Video, error) {
	fields, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return Video{}, fmt.Errorf("get video %s: %w", id, err)
	}
	if len(fields) == 0 {
		return Video{}, ErrNotFound
	}

	v := Video{
		ID:          id,
		OwnerID:     fields["owner_id"],
		Status:      Status(fields["status"]),
		OutputName:  fields["output_name"],
		Title:       fields["title"],
		Description: fields["description"],
		Error:       fields["error"],
	}
	v.CreatedAt, _ = time.Parse(time.RFC3339Nano, fields["created_at"])
	v.UpdatedAt, _ = time.Parse(time.RFC3339Nano, fields["updated_at"])
	return v, nil
}

func (s *RedisStore) Claim(ctx context.Context, id, ownerID string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	ok, err := claimScript.Run(ctx, s.client, []string{s.key(id)},
		id, ownerID, string(StatusProcessing), now).Int()
	if err != nil {
		return fmt.Errorf("claim video %s: %w", id, err)
	}
	if ok == 0 {
		return ErrAlreadyClaimed
	}
	log.Debugln("video", id, "status ->", StatusProcessing)
	return nil
}

func (s *RedisStore) Merge(ctx context.Context, id string, p Patch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	cols := p.Columns()
	if len(cols) == 0 {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	values := map[string]interface{}{"id": id, "updated_at": now}
	for k, v := range cols {
		values[k] = v
	}

	key := s.key(id)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, values)
		pipe.HSetNX(ctx, key, "created_at", now)
		return nil
	})
	if err != nil {
		return fmt.Errorf("merge video %s: %w", id, err)
	}
	log.Debugf("video %s merged %v", id, cols)
	return nil
}
