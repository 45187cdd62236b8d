package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"evalnotify_backend/internal/notify"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Client schedules reminder jobs for future execution via asynq.
type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(redisURL string, tlsInsecure bool, queue string) (*Client, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, tlsInsecure)
	if err != nil {
		return nil, err
	}

	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleReminder enqueues a single-shot reminder for runAt. Implements
// notify.ReminderScheduler. Only the enqueue itself can fail; once accepted
// the job cannot be cancelled or amended.
func (c *Client) ScheduleReminder(ctx context.Context, rowID int64, service notify.Service, kind notify.EmailKind, runAt time.Time) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("reminder scheduler not configured")
	}

	task, err := NewEvaluationReminderTask(EvaluationReminderPayload{
		RowID:   rowID,
		Service: string(service),
		Kind:    string(kind),
	})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.ProcessAt(runAt), asynq.Queue(c.queue))
	return err
}

var _ notify.ReminderScheduler = (*Client)(nil)

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
