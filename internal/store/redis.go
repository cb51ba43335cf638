// Package store persists selection records in Redis, one hash per image.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/menta2k/image-annotator/internal/config"
	"github.com/menta2k/image-annotator/internal/logging"
	"github.com/menta2k/image-annotator/pkg/selection"
)

const keyPrefix = "selections:"

type RecordStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRecordStore(cfg *config.StoreConfig) *RecordStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RecordStore{
		client: client,
		ttl:    cfg.TTL,
	}
}

func (s *RecordStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Save stores rec under imageKey, replacing a record with the same id.
func (s *RecordStore) Save(ctx context.Context, imageKey string, rec selection.Record) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	key := recordKey(imageKey)
	if err := s.client.HSet(ctx, key, rec.ID.String(), data).Err(); err != nil {
		return fmt.Errorf("save record %s: %w", rec.ID, err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			return fmt.Errorf("expire %s: %w", key, err)
		}
	}

	logging.Logger.Debug("selection stored",
		zap.String("image", imageKey),
		zap.String("id", rec.ID.String()),
		zap.String("tool", rec.Tool),
		zap.Int("area", rec.Mask.Area()))
	return nil
}

// Get returns the record with id, or nil when there is none.
func (s *RecordStore) Get(ctx context.Context, imageKey string, id uuid.UUID) (*selection.Record, error) {
	data, err := s.client.HGet(ctx, recordKey(imageKey), id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	rec, err := decodeRecord(data)
	if err != nil {
		logging.Logger.Error("failed to unmarshal selection record",
			zap.String("image", imageKey), zap.String("id", id.String()), zap.Error(err))
		return nil, err
	}
	return rec, nil
}

// List returns every record of imageKey ordered by id. Undecodable entries
// are logged and skipped.
func (s *RecordStore) List(ctx context.Context, imageKey string) ([]selection.Record, error) {
	entries, err := s.client.HGetAll(ctx, recordKey(imageKey)).Result()
	if err != nil {
		return nil, err
	}

	records := make([]selection.Record, 0, len(entries))
	for id, data := range entries {
		rec, err := decodeRecord([]byte(data))
		if err != nil {
			logging.Logger.Warn("skipping undecodable selection record",
				zap.String("image", imageKey), zap.String("id", id), zap.Error(err))
			continue
		}
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID.String() < records[j].ID.String()
	})
	return records, nil
}

// Delete removes a record and reports whether it existed.
func (s *RecordStore) Delete(ctx context.Context, imageKey string, id uuid.UUID) (bool, error) {
	n, err := s.client.HDel(ctx, recordKey(imageKey), id.String()).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RecordStore) Close() error {
	return s.client.Close()
}

func recordKey(imageKey string) string {
	return keyPrefix + imageKey
}

func encodeRecord(rec selection.Record) ([]byte, error) {
	if rec.ID == uuid.Nil {
		return nil, fmt.Errorf("record has no id")
	}
	return json.Marshal(rec)
}

// decodeRecord parses a stored record and checks its mask against its size.
func decodeRecord(data []byte) (*selection.Record, error) {
	var rec selection.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	if rec.Mask.Len() != rec.Width*rec.Height {
		return nil, fmt.Errorf("record %s: mask covers %d pixels, want %dx%d", rec.ID, rec.Mask.Len(), rec.Width, rec.Height)
	}
	return &rec, nil
}
