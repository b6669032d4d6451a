package history_test

import (
	"testing"

	"github.com/rservant/indoor-golf-scheduler-sub006/history"
	schedtest "github.com/rservant/indoor-golf-scheduler-sub006/testing"
	"github.com/stretchr/testify/require"
)

func TestKV_RecordAndCount(t *testing.T) {
	_, nc := schedtest.StartEmbeddedNATS(t)
	kv := schedtest.CreateJetStreamKV(t, nc, "pairing-history")
	h := history.NewKV(kv, schedtest.NewTestLogger(t))
	ctx := t.Context()

	t.Run("counts start at zero", func(t *testing.T) {
		n, err := h.PairCount(ctx, "season-1", "alice", "bob")
		require.NoError(t, err)
		require.Equal(t, 0, n)
	})

	t.Run("recording counts every pair in the foursome", func(t *testing.T) {
		require.NoError(t, h.RecordPairings(ctx, "season-1", "sched-1", []string{"alice", "bob", "carol"}))

		for _, pair := range [][2]string{{"alice", "bob"}, {"alice", "carol"}, {"bob", "carol"}} {
			n, err := h.PairCount(ctx, "season-1", pair[0], pair[1])
			require.NoError(t, err)
			require.Equal(t, 1, n)
		}
	})

	t.Run("idempotent per schedule and pair", func(t *testing.T) {
		require.NoError(t, h.RecordPairings(ctx, "season-1", "sched-1", []string{"alice", "bob", "carol"}))

		n, err := h.PairCount(ctx, "season-1", "alice", "bob")
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})

	t.Run("new schedule increments again regardless of pair order", func(t *testing.T) {
		require.NoError(t, h.RecordPairings(ctx, "season-1", "sched-2", []string{"bob", "alice"}))

		n, err := h.PairCount(ctx, "season-1", "alice", "bob")
		require.NoError(t, err)
		require.Equal(t, 2, n)
	})

	t.Run("ids outside the KV key character set still work", func(t *testing.T) {
		require.NoError(t, h.RecordPairings(ctx, "season 2024/25", "sched#9", []string{"p one", "p*two"}))

		n, err := h.PairCount(ctx, "season 2024/25", "p one", "p*two")
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})
}
