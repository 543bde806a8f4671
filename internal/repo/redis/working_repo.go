package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/enums"
	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/working"
)

const (
	copyPrefix = "relay:copy:"
	postPrefix = "relay:post:"
)

// insertScript creates the record hash and registers it under its post.
var insertScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV, 3))
redis.call('PEXPIRE', KEYS[1], ARGV[1])
redis.call('SADD', KEYS[2], ARGV[2])
redis.call('PEXPIRE', KEYS[2], ARGV[1])
return 1
`)

// updateScript applies field writes, optionally only when the review state
// still equals ARGV[1]. Returns -1 when missing, 0 on conflict.
var updateScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
if ARGV[1] ~= '' then
	local current = redis.call('HGET', KEYS[1], 'state')
	if current ~= ARGV[1] then
		return 0
	end
end
for i = 2, #ARGV, 2 do
	redis.call('HSET', KEYS[1], ARGV[i], ARGV[i + 1])
end
return 1
`)

type WorkingRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewWorkingRepo(client *goredis.Client, ttl time.Duration) *WorkingRepo {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &WorkingRepo{client: client, ttl: ttl}
}

func (r *WorkingRepo) Insert(ctx context.Context, rec model.WorkingRecord) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if rec.PostID == "" {
		return fmt.Errorf("working record post id is required")
	}

	fields, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	args := make([]interface{}, 0, len(fields)+2)
	args = append(args, r.ttl.Milliseconds(), rec.Key.String())
	args = append(args, fields...)

	created, err := insertScript.Run(ctx, r.client, []string{copyKey(rec.Key), postKey(rec.PostID)}, args...).Int()
	if err != nil {
		return fmt.Errorf("insert working record: %w", err)
	}
	if created == 0 {
		return working.ErrAlreadyExists
	}
	return nil
}

func (r *WorkingRepo) Get(ctx context.Context, key model.CopyKey) (model.WorkingRecord, error) {
	if r.client == nil {
		return model.WorkingRecord{}, fmt.Errorf("redis client is nil")
	}

	values, err := r.client.HGetAll(ctx, copyKey(key)).Result()
	if err != nil {
		return model.WorkingRecord{}, fmt.Errorf("get working record hash: %w", err)
	}
	if len(values) == 0 {
		return model.WorkingRecord{}, working.ErrNotFound
	}

	return decodeRecord(key, values)
}

func (r *WorkingRepo) Update(ctx context.Context, key model.CopyKey, patch working.Patch) (model.WorkingRecord, error) {
	if r.client == nil {
		return model.WorkingRecord{}, fmt.Errorf("redis client is nil")
	}

	expect := ""
	if patch.ExpectState != nil {
		expect = string(*patch.ExpectState)
	}
	args := []interface{}{expect}
	if patch.Tags != nil {
		encoded, err := json.Marshal(*patch.Tags)
		if err != nil {
			return model.WorkingRecord{}, fmt.Errorf("encode tags: %w", err)
		}
		args = append(args, "tags", string(encoded))
	}
	if patch.Status != nil {
		args = append(args, "status", string(*patch.Status))
	}
	if patch.State != nil {
		args = append(args, "state", string(*patch.State))
	}

	result, err := updateScript.Run(ctx, r.client, []string{copyKey(key)}, args...).Int()
	if err != nil {
		return model.WorkingRecord{}, fmt.Errorf("update working record: %w", err)
	}
	switch result {
	case -1:
		return model.WorkingRecord{}, working.ErrNotFound
	case 0:
		return model.WorkingRecord{}, working.ErrStateConflict
	}

	return r.Get(ctx, key)
}

func (r *WorkingRepo) Remove(ctx context.Context, key model.CopyKey) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	postID, err := r.client.HGet(ctx, copyKey(key), "post_id").Result()
	if err == goredis.Nil {
		return working.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read working record post id: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, copyKey(key))
	pipe.SRem(ctx, postKey(postID), key.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remove working record: %w", err)
	}
	return nil
}

func (r *WorkingRepo) ListByPost(ctx context.Context, postID string) ([]model.WorkingRecord, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	keys, err := r.postMembers(ctx, postID)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*goredis.MapStringStringCmd, 0, len(keys))
	for _, key := range keys {
		cmds = append(cmds, pipe.HGetAll(ctx, copyKey(key)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("list working records: %w", err)
	}

	out := make([]model.WorkingRecord, 0, len(keys))
	for i, cmd := range cmds {
		values := cmd.Val()
		if len(values) == 0 {
			// expired hash still listed in the post set
			continue
		}
		rec, err := decodeRecord(keys[i], values)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *WorkingRepo) RemoveByPost(ctx context.Context, postID string) ([]model.CopyKey, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	keys, err := r.postMembers(ctx, postID)
	if err != nil {
		return nil, err
	}

	pipe := r.client.TxPipeline()
	for _, key := range keys {
		pipe.Del(ctx, copyKey(key))
	}
	pipe.Del(ctx, postKey(postID))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("remove working records by post: %w", err)
	}
	return keys, nil
}

func (r *WorkingRepo) postMembers(ctx context.Context, postID string) ([]model.CopyKey, error) {
	members, err := r.client.SMembers(ctx, postKey(postID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read post members: %w", err)
	}

	keys := make([]model.CopyKey, 0, len(members))
	for _, member := range members {
		key, err := parseCopyKey(member)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ChatID != keys[j].ChatID {
			return keys[i].ChatID < keys[j].ChatID
		}
		return keys[i].MessageID < keys[j].MessageID
	})
	return keys, nil
}

func encodeRecord(rec model.WorkingRecord) ([]interface{}, error) {
	senderJSON, err := json.Marshal(rec.Sender)
	if err != nil {
		return nil, fmt.Errorf("encode sender: %w", err)
	}
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return []interface{}{
		"post_id", rec.PostID,
		"admin_id", strconv.FormatInt(rec.AdminID, 10),
		"kind", string(rec.Kind),
		"body", rec.Body,
		"media_id", rec.MediaID,
		"origin_chat_id", strconv.FormatInt(rec.OriginChatID, 10),
		"sender", string(senderJSON),
		"signature", rec.Signature,
		"tags", string(tagsJSON),
		"status", string(rec.Status),
		"state", string(rec.State),
		"created_at", strconv.FormatInt(createdAt.Unix(), 10),
	}, nil
}

func decodeRecord(key model.CopyKey, values map[string]string) (model.WorkingRecord, error) {
	rec := model.WorkingRecord{
		Key:       key,
		PostID:    values["post_id"],
		Kind:      enums.ContentKind(values["kind"]),
		Body:      values["body"],
		MediaID:   values["media_id"],
		Signature: values["signature"],
		Status:    enums.RecordStatus(values["status"]),
		State:     enums.ReviewState(values["state"]),
	}

	var err error
	if rec.AdminID, err = parseInt64Field(values, "admin_id"); err != nil {
		return model.WorkingRecord{}, err
	}
	if rec.OriginChatID, err = parseInt64Field(values, "origin_chat_id"); err != nil {
		return model.WorkingRecord{}, err
	}
	createdAt, err := parseInt64Field(values, "created_at")
	if err != nil {
		return model.WorkingRecord{}, err
	}
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()

	if raw := values["sender"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &rec.Sender); err != nil {
			return model.WorkingRecord{}, fmt.Errorf("decode sender: %w", err)
		}
	}
	if raw := values["tags"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &rec.Tags); err != nil {
			return model.WorkingRecord{}, fmt.Errorf("decode tags: %w", err)
		}
	}
	if len(rec.Tags) == 0 {
		rec.Tags = nil
	}

	return rec, nil
}

func parseInt64Field(values map[string]string, field string) (int64, error) {
	raw := strings.TrimSpace(values[field])
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", field, err)
	}
	return n, nil
}

func copyKey(key model.CopyKey) string {
	return copyPrefix + key.String()
}

func postKey(postID string) string {
	return postPrefix + postID
}

func parseCopyKey(raw string) (model.CopyKey, error) {
	chatRaw, msgRaw, ok := strings.Cut(raw, ":")
	if !ok {
		return model.CopyKey{}, fmt.Errorf("malformed copy key %q", raw)
	}
	chatID, err := strconv.ParseInt(chatRaw, 10, 64)
	if err != nil {
		return model.CopyKey{}, fmt.Errorf("parse copy key chat: %w", err)
	}
	msgID, err := strconv.Atoi(msgRaw)
	if err != nil {
		return model.CopyKey{}, fmt.Errorf("parse copy key message: %w", err)
	}
	return model.CopyKey{ChatID: chatID, MessageID: msgID}, nil
}
