package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"psychicline-backend/internal/models"
)

// EmailQueue is the Redis list the worker pool drains. Jobs are appended with
// RPUSH and popped with BLPOP, so the list is FIFO.
const EmailQueue = "queue:email"

// EmailRetryQueue is a sorted set of retries scored by the unix millisecond
// they become due.
const EmailRetryQueue = "queue:email:retry"

type JobQueue struct {
	redis *redis.Client
}

func NewJobQueue(redisClient *redis.Client) *JobQueue {
	return &JobQueue{redis: redisClient}
}

// Enqueue wraps payload in a job and pushes it onto the email queue.
func (q *JobQueue) Enqueue(ctx context.Context, jobType string, payload interface{}) error {
	job, err := NewJob(jobType, payload)
	if err != nil {
		return err
	}
	return q.Push(ctx, job)
}

// Push appends an existing job, used for retries.
func (q *JobQueue) Push(ctx context.Context, job *models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.redis.RPush(ctx, EmailQueue, data).Err(); err != nil {
		return fmt.Errorf("enqueue %s job: %w", job.Type, err)
	}
	return nil
}

// Schedule parks a job in the retry set until at. The set lives in Redis, so
// a pending retry outlives the process that scheduled it.
func (q *JobQueue) Schedule(ctx context.Context, job *models.Job, at time.Time) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	member := redis.Z{Score: float64(at.UnixMilli()), Member: data}
	if err := q.redis.ZAdd(ctx, EmailRetryQueue, member).Err(); err != nil {
		return fmt.Errorf("schedule %s job: %w", job.Type, err)
	}
	return nil
}

// PromoteDue moves retries due at or before now onto the email queue and
// reports how many it moved. Only the caller whose ZREM wins pushes a member,
// so concurrent promoters never duplicate a job.
func (q *JobQueue) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	due, err := q.redis.ZRangeByScore(ctx, EmailRetryQueue, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("read due retries: %w", err)
	}

	moved := 0
	for _, member := range due {
		removed, err := q.redis.ZRem(ctx, EmailRetryQueue, member).Result()
		if err != nil {
			return moved, fmt.Errorf("claim retry: %w", err)
		}
		if removed == 0 {
			continue
		}
		if err := q.redis.RPush(ctx, EmailQueue, member).Err(); err != nil {
			return moved, fmt.Errorf("promote retry: %w", err)
		}
		moved++
	}
	return moved, nil
}

func NewJob(jobType string, payload interface{}) (*models.Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", jobType, err)
	}
	return &models.Job{
		ID:        uuid.New(),
		Type:      jobType,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}
