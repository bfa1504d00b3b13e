package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Reaper garbage-collects pending submissions whose upload or completion
// never landed, reconciling the two-phase write: the row is removed (only
// while still pending) and its orphaned media object deleted.
type Reaper struct {
	submissionStore SubmissionStore
	media           MediaStore
	bucket          string
	ttl             time.Duration
	cron            *cron.Cron
}

// NewReaper creates a reaper sweeping pending submissions older than ttl
func NewReaper(submissionStore SubmissionStore, media MediaStore, bucket string, ttl time.Duration) *Reaper {
	return &Reaper{
		submissionStore: submissionStore,
		media:           media,
		bucket:          bucket,
		ttl:             ttl,
		cron:            cron.New(),
	}
}

// Start schedules the sweep. schedule uses cron syntax, e.g. "@every 1h".
func (r *Reaper) Start(schedule string) error {
	_, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		r.Sweep(ctx)
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop stops the scheduled sweeps
func (r *Reaper) Stop() {
	r.cron.Stop()
}

// Sweep removes stale pending submissions and their media objects
func (r *Reaper) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-r.ttl)
	stale, err := r.submissionStore.ListStalePending(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Reaper failed to list stale pending submissions")
		return
	}

	for _, sub := range stale {
		deleted, err := r.submissionStore.DeletePending(ctx, sub.ID)
		if err != nil {
			log.Error().Err(err).Str("submission_id", sub.ID).Msg("Reaper failed to delete pending submission")
			continue
		}
		if !deleted {
			// Completed between listing and deletion; leave it alone.
			continue
		}
		if err := r.media.Delete(ctx, r.bucket, sub.MediaKey); err != nil {
			log.Warn().Err(err).Str("media_key", sub.MediaKey).Msg("Reaper failed to delete orphaned media")
		}
		log.Info().
			Str("submission_id", sub.ID).
			Str("user_id", sub.UserID).
			Msg("Reaped stale pending submission")
	}
}
