// Package housekeep runs a periodic, observability-only job that logs
// Version Index and Durable Store checkpoint statistics. It never prunes
// or compacts version history — the core spec explicitly rules out
// garbage collection of old versions.
package housekeep

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/mnemonic-graph/mnemonic/internal/kv"
	"github.com/mnemonic-graph/mnemonic/internal/txn"
)

// Job schedules a stats-logging tick on a cron expression.
type Job struct {
	cron *cron.Cron
}

// Start parses schedule (a standard 5-field cron expression or a
// descriptor such as "@every 1m") and begins logging stats at that cadence until Stop is
// called.
func Start(schedule string, manager *txn.Manager, store *kv.CheckpointStore, log zerolog.Logger) (*Job, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		report(manager, store, log)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return &Job{cron: c}, nil
}

// Stop halts the cron scheduler, waiting for any in-flight tick to finish.
func (j *Job) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

func report(manager *txn.Manager, store *kv.CheckpointStore, log zerolog.Logger) {
	now := time.Now().UTC()
	activeConcepts := len(manager.Index().AllActiveConcepts(now))
	activeRelationships := len(manager.Index().AllActiveRelationships(now))

	event := log.Info().
		Int("active_concepts", activeConcepts).
		Int("active_relationships", activeRelationships)

	if store != nil {
		stats := store.StatsSnapshot()
		event = event.Int64("store_sync_count", stats.SyncCount).Int64("store_load_count", stats.LoadCount)
	}
	event.Msg("housekeeping tick")
}
