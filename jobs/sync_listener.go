package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultSyncChannel is the pub/sub channel the statistics backend announces
// completed data syncs on.
const DefaultSyncChannel = "export-statistics:synced"

const syncStatusCompleted = "COMPLETED"

// SyncNotice is the optional JSON body published on the sync channel. An empty
// or non-JSON payload is treated as a completed sync.
type SyncNotice struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

// SyncListener refreshes the dashboard whenever the backend reports a sync.
type SyncListener struct {
	client  *redis.Client
	channel string
	job     *RefreshJob
	logger  *slog.Logger
}

// NewSyncListener constructs a listener bound to channel, defaulting to
// DefaultSyncChannel.
func NewSyncListener(client *redis.Client, channel string, job *RefreshJob, logger *slog.Logger) *SyncListener {
	if channel == "" {
		channel = DefaultSyncChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncListener{client: client, channel: channel, job: job, logger: logger}
}

// Listen subscribes to the sync channel and processes notices in the background
// until ctx is cancelled. It returns once the subscription is confirmed.
func (l *SyncListener) Listen(ctx context.Context) error {
	if l == nil || l.client == nil {
		return nil
	}
	if l.job == nil {
		return errors.New("sync listener: refresh job not configured")
	}
	pubsub := l.client.Subscribe(ctx, l.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("sync listener: subscribe %s: %w", l.channel, err)
	}
	l.logger.Info("listening for statistics sync", slog.String("channel", l.channel))

	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				l.handle(ctx, msg.Payload)
			}
		}
	}()
	return nil
}

func (l *SyncListener) handle(ctx context.Context, payload string) {
	notice, completed := parseSyncNotice(payload)
	if !completed {
		l.logger.Debug("ignoring unfinished sync notice",
			slog.String("job_id", notice.JobID),
			slog.String("status", notice.Status),
		)
		return
	}
	if err := l.job.Sync(ctx); err != nil && !errors.Is(err, context.Canceled) {
		l.logger.Warn("dashboard sync refresh failed", slog.Any("error", err))
	}
}

func parseSyncNotice(payload string) (SyncNotice, bool) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return SyncNotice{}, true
	}
	var notice SyncNotice
	if err := json.Unmarshal([]byte(payload), &notice); err != nil {
		return SyncNotice{}, true
	}
	if notice.Status == "" {
		return notice, true
	}
	return notice, strings.EqualFold(notice.Status, syncStatusCompleted)
}
