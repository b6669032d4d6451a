// Package scheduler generates weekly foursome schedules for an indoor
// golf league.
//
// The Manager is the main entry point. It combines:
//   - An assignment engine that partitions available players by time
//     preference (AM, PM, Either), balances Either players across the
//     morning and afternoon windows with a deterministic deficit rule,
//     and groups each window into foursomes while minimizing repeated
//     pairings from prior weeks.
//   - A fixed-size worker pool with liveness probes and automatic crash
//     replacement, driven by a task distributor that chunks large weeks
//     and submits them with bounded concurrency.
//   - NATS JetStream KV persistence for schedules, advisory TTL-based
//     schedule locks, per-week status records, pairing history, and
//     durable availability-operation records.
//   - Interruption recovery: availability mutations write intent records
//     before touching state, and pending records from a crashed process
//     are reconciled against persisted truth on the next start.
//
// Basic usage:
//
//	cfg := scheduler.DefaultConfig()
//	mgr, err := scheduler.NewManager(&cfg, natsConn, playerSource, availabilityStore)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := mgr.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer mgr.Stop(ctx)
//
//	players, _ := mgr.AvailablePlayers(ctx, week.ID)
//	sched, err := mgr.GenerateScheduleForWeek(ctx, week, players)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	lock, _ := mgr.AcquireScheduleLock(ctx, week.ID)
//	if lock != nil {
//	    _, _ = mgr.ReplaceScheduleAtomic(ctx, sched, lock, "")
//	    _, _ = mgr.ReleaseScheduleLock(ctx, week.ID, lock.Token)
//	}
package scheduler
