package worker

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lanekit/auth-service/internal/mailqueue"
	"github.com/lanekit/auth-service/pkg/mail"
)

const maxDeliveryAttempts = 3

// EmailWorker drains the email job stream and delivers through the
// configured mailer. Failed jobs are retried with exponential backoff
// and dropped once the attempts run out.
type EmailWorker struct {
	redisClient *redis.Client
	mailService mail.Mailer

	// Injectable for tests.
	sleep func(time.Duration)
}

func NewEmailWorker(redisClient *redis.Client, mailService mail.Mailer) *EmailWorker {
	return &EmailWorker{
		redisClient: redisClient,
		mailService: mailService,
		sleep:       time.Sleep,
	}
}

func (w *EmailWorker) Start(ctx context.Context) {
	lastID := "0"

	for {
		select {
		case <-ctx.Done():
			log.Println("EmailWorker shutting down.")
			return
		default:
			streams, err := w.redisClient.XRead(ctx, &redis.XReadArgs{
				Streams: []string{mailqueue.EmailStreamKey, lastID},
				Block:   5 * time.Second,
			}).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					log.Printf("Error reading from email stream: %v", err)
					w.sleep(1 * time.Second)
				}
				continue
			}

			for _, stream := range streams {
				for _, msg := range stream.Messages {
					job := mailqueue.MessageFromValues(msg.Values)
					if err := w.deliver(ctx, job); err != nil {
						log.Printf("Giving up on email job %s for %s: %v", job.JobID, job.Recipient, err)
					}
					lastID = msg.ID
				}
			}
		}
	}
}

func (w *EmailWorker) deliver(ctx context.Context, job mailqueue.Message) error {
	var err error
	for attempt := 1; attempt <= maxDeliveryAttempts; attempt++ {
		err = w.mailService.SendHTMLEmail(ctx, job.Recipient, job.Subject, job.Body)
		if err == nil {
			log.Printf("Delivered email job %s to %s on attempt %d", job.JobID, job.Recipient, attempt)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt < maxDeliveryAttempts {
			log.Printf("Email job %s attempt %d failed: %v", job.JobID, attempt, err)
			w.sleep(retryDelay(attempt))
		}
	}
	return err
}

// retryDelay doubles per attempt starting at one second.
func retryDelay(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * time.Second
}
