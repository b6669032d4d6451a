package history

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rservant/indoor-golf-scheduler-sub006/internal/logging"
	"github.com/rservant/indoor-golf-scheduler-sub006/types"
	"github.com/zeebo/xxh3"
)

// incrementRetries bounds the CAS loop on concurrent count updates.
const incrementRetries = 5

// KV is a pairing history persisted to a NATS JetStream KeyValue bucket.
//
// Player and season IDs are arbitrary strings, so keys are built from
// xxh3 hashes to stay within the KV key character set. Count entries
// hold a decimal counter; marker entries make recording idempotent per
// (schedule ID, pair).
type KV struct {
	kv     jetstream.KeyValue
	logger types.Logger
}

var _ types.PairingHistory = (*KV)(nil)

// NewKV creates a pairing history backed by the given KV bucket.
//
// Parameters:
//   - kv: NATS KV bucket for pairing counts
//   - logger: Logger for debug output (nil for no logging)
//
// Returns:
//   - *KV: Initialized history
func NewKV(kv jetstream.KeyValue, logger types.Logger) *KV {
	if logger == nil {
		logger = logging.NewNop()
	}

	return &KV{kv: kv, logger: logger}
}

// PairCount returns the persisted co-occurrence count for a pair.
func (h *KV) PairCount(ctx context.Context, seasonID, playerA, playerB string) (int, error) {
	entry, err := h.kv.Get(ctx, h.countKey(seasonID, playerA, playerB))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return 0, nil
		}

		return 0, fmt.Errorf("%w: read pair count: %w", types.ErrPersistence, err)
	}

	n, err := strconv.Atoi(string(entry.Value()))
	if err != nil {
		return 0, fmt.Errorf("%w: corrupt pair count %q: %w", types.ErrPersistence, entry.Value(), err)
	}

	return n, nil
}

// RecordPairings records one co-occurrence for every pair in the foursome.
//
// A marker entry is created atomically per (schedule ID, pair) before the
// count increments; if the marker already exists the pair was recorded by
// an earlier attempt and is skipped.
func (h *KV) RecordPairings(ctx context.Context, seasonID, scheduleID string, playerIDs []string) error {
	for i := range playerIDs {
		for j := i + 1; j < len(playerIDs); j++ {
			a, b := playerIDs[i], playerIDs[j]

			_, err := h.kv.Create(ctx, h.markKey(seasonID, scheduleID, a, b), []byte("1"))
			if errors.Is(err, jetstream.ErrKeyExists) {
				h.logger.Debug("pairing already recorded", "schedule_id", scheduleID, "pair", a+"/"+b)
				continue
			}
			if err != nil {
				return fmt.Errorf("%w: create pairing marker: %w", types.ErrPersistence, err)
			}

			if err := h.increment(ctx, h.countKey(seasonID, a, b)); err != nil {
				return err
			}
		}
	}

	return nil
}

// increment bumps a count key by one with a bounded compare-and-set loop.
func (h *KV) increment(ctx context.Context, key string) error {
	var lastErr error

	for attempt := 0; attempt < incrementRetries; attempt++ {
		entry, err := h.kv.Get(ctx, key)
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			if _, err := h.kv.Create(ctx, key, []byte("1")); err == nil {
				return nil
			} else if !errors.Is(err, jetstream.ErrKeyExists) {
				return fmt.Errorf("%w: create pair count: %w", types.ErrPersistence, err)
			}
			// Lost the creation race; re-read and update.
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: read pair count: %w", types.ErrPersistence, err)
		}

		n, err := strconv.Atoi(string(entry.Value()))
		if err != nil {
			return fmt.Errorf("%w: corrupt pair count %q: %w", types.ErrPersistence, entry.Value(), err)
		}

		_, err = h.kv.Update(ctx, key, []byte(strconv.Itoa(n+1)), entry.Revision())
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return fmt.Errorf("%w: increment pair count after %d attempts: %w", types.ErrPersistence, incrementRetries, lastErr)
}

func (h *KV) countKey(seasonID, a, b string) string {
	a, b = orderPair(a, b)
	return fmt.Sprintf("count.%s.%s", hashToken(seasonID), hashToken(a+"|"+b))
}

func (h *KV) markKey(seasonID, scheduleID, a, b string) string {
	a, b = orderPair(a, b)
	return fmt.Sprintf("mark.%s.%s.%s", hashToken(seasonID), hashToken(scheduleID), hashToken(a+"|"+b))
}

// hashToken maps an arbitrary string into the KV key character set.
func hashToken(s string) string {
	return strconv.FormatUint(xxh3.HashString(s), 16)
}
