package mailqueue

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EmailStreamKey is the Redis stream carrying outbound email jobs. The
// HTTP layer only ever appends here; the worker consumes and delivers.
const EmailStreamKey = "email_jobs"

const streamMaxLen = 100_000

// Message is one email delivery job.
type Message struct {
	JobID     string
	Recipient string
	Subject   string
	Body      string
}

// Dispatcher hands email jobs to the background worker. Enqueue returns
// the assigned job id and never blocks on SMTP.
type Dispatcher interface {
	Enqueue(ctx context.Context, recipient, subject, body string) (string, error)
	PendingCount(ctx context.Context) (int64, error)
}

type RedisDispatcher struct {
	client *redis.Client
}

func NewRedisDispatcher(client *redis.Client) *RedisDispatcher {
	return &RedisDispatcher{client: client}
}

func (d *RedisDispatcher) Enqueue(ctx context.Context, recipient, subject, body string) (string, error) {
	jobID := uuid.NewString()

	err := d.client.XAdd(ctx, &redis.XAddArgs{
		Stream: EmailStreamKey,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"job_id":    jobID,
			"recipient": recipient,
			"subject":   subject,
			"body":      body,
		},
	}).Err()
	if err != nil {
		return "", fmt.Errorf("failed to enqueue email job: %w", err)
	}
	return jobID, nil
}

func (d *RedisDispatcher) PendingCount(ctx context.Context) (int64, error) {
	n, err := d.client.XLen(ctx, EmailStreamKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read email queue length: %w", err)
	}
	return n, nil
}

// MessageFromValues rebuilds a job from raw stream fields.
func MessageFromValues(values map[string]interface{}) Message {
	str := func(key string) string {
		if v, ok := values[key].(string); ok {
			return v
		}
		return ""
	}
	return Message{
		JobID:     str("job_id"),
		Recipient: str("recipient"),
		Subject:   str("subject"),
		Body:      str("body"),
	}
}
