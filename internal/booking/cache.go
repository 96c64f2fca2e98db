package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mothercare-dev/clinic/backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func lockKey(doctorID string, day time.Time) string {
	return fmt.Sprintf("booking_lock:%s:%s", doctorID, day.Format("2006-01-02"))
}

// fillSlotsScript writes a cache entry only if the doctor's generation is still
// the one the slots were computed under.
var fillSlotsScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1]) or "0"
if current ~= ARGV[1] then
	return 0
end
redis.call("HSET", KEYS[2], ARGV[2], ARGV[3])
redis.call("EXPIRE", KEYS[2], ARGV[4])
return 1
`)

func slotsKey(doctorID string, day time.Time) string {
	return fmt.Sprintf("slots:%s:%s", doctorID, day.Format("2006-01-02"))
}

func slotsGenerationKey(doctorID string) string {
	return "slots_generation:" + doctorID
}

// acquire takes the doctor's day lock. The returned release is a no-op when the
// lock was not taken.
func (s *Service) acquire(ctx context.Context, doctorID string, day time.Time) (func(), bool, error) {
	key := lockKey(doctorID, day)
	token := uuid.NewString()

	ok, err := s.rdb.SetNX(ctx, key, token, s.lockTTL).Result()
	if err != nil || !ok {
		return func() {}, false, err
	}

	release := func() {
		// the request context may already be done
		ctx, cancel := context.WithTimeout(context.Background(), s.lockTTL)
		defer cancel()
		if err := unlockScript.Run(ctx, s.rdb, []string{key}, token).Err(); err != nil {
			slog.Error("failed to release booking lock", "key", key, "error", err)
		}
	}
	return release, true, nil
}

// cachedSlots returns the day's slots for the given length, or nil on a miss.
func (s *Service) cachedSlots(ctx context.Context, doctorID string, day time.Time, minutes int) []domain.TimeSlot {
	raw, err := s.rdb.HGet(ctx, slotsKey(doctorID, day), strconv.Itoa(minutes)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("slot cache read failed", "doctor_id", doctorID, "error", err)
		}
		s.metrics.ObserveSlotCache(false)
		return nil
	}

	slots := make([]domain.TimeSlot, 0)
	if err := json.Unmarshal(raw, &slots); err != nil {
		s.metrics.ObserveSlotCache(false)
		return nil
	}
	s.metrics.ObserveSlotCache(true)
	return slots
}

// slotsGeneration is bumped on every change to a doctor's bookings or schedule.
// It must be read before the data the slots are computed from.
func (s *Service) slotsGeneration(ctx context.Context, doctorID string) string {
	gen, err := s.rdb.Get(ctx, slotsGenerationKey(doctorID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("slot generation read failed", "doctor_id", doctorID, "error", err)
		}
		return "0"
	}
	return gen
}

// cacheSlots stores slots computed under gen. Nothing is written when the
// generation moved on in the meantime, so a slow read cannot resurrect slots
// that a booking has taken.
func (s *Service) cacheSlots(ctx context.Context, doctorID string, day time.Time, minutes int, gen string, slots []domain.TimeSlot) {
	raw, err := json.Marshal(slots)
	if err != nil {
		return
	}

	keys := []string{slotsGenerationKey(doctorID), slotsKey(doctorID, day)}
	ttl := int(s.cacheTTL / time.Second)
	if err := fillSlotsScript.Run(ctx, s.rdb, keys, gen, strconv.Itoa(minutes), raw, ttl).Err(); err != nil {
		slog.Warn("slot cache write failed", "doctor_id", doctorID, "error", err)
	}
}

// invalidate drops every cached slot length for the doctor's day.
func (s *Service) invalidate(ctx context.Context, doctorID string, day time.Time) {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, slotsGenerationKey(doctorID))
		pipe.Del(ctx, slotsKey(doctorID, day))
		return nil
	})
	if err != nil {
		slog.Warn("slot cache invalidation failed", "doctor_id", doctorID, "error", err)
	}
}

// InvalidateDoctor drops the doctor's cached slots for every day. Call it after
// the weekly schedule changes.
func (s *Service) InvalidateDoctor(ctx context.Context, doctorID string) error {
	if err := s.rdb.Incr(ctx, slotsGenerationKey(doctorID)).Err(); err != nil {
		return err
	}

	iter := s.rdb.Scan(ctx, 0, "slots:"+doctorID+":*", 100).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}
