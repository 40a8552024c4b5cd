package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"psychicline-backend/internal/metrics"
	"psychicline-backend/internal/models"
	"psychicline-backend/internal/services"
)

const (
	maxAttempts  = 3
	popTimeout   = 5 * time.Second
	lockTTL      = 10 * time.Minute
	promoteEvery = time.Second
)

type mailer interface {
	SendMessageReply(p models.MessageReplyPayload) error
	SendPayoutReceipt(p models.PayoutReceiptPayload) error
	SendRequestAccepted(p models.RequestAcceptedPayload) error
}

type retryQueue interface {
	Schedule(ctx context.Context, job *models.Job, at time.Time) error
	PromoteDue(ctx context.Context, now time.Time) (int, error)
}

type jobLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) bool
	Unlock(ctx context.Context, key string)
}

// Pool drains the email queue with a fixed number of goroutines.
type Pool struct {
	redis       *redis.Client
	mail        mailer
	queue       retryQueue
	lock        jobLocker
	workerCount int
	backoff     func(attempt int) time.Duration
	now         func() time.Time
	stopChan    chan struct{}
	wg          sync.WaitGroup
	log         *zap.Logger
}

func NewPool(redisClient *redis.Client, mail mailer, queue retryQueue, lock jobLocker, workerCount int, log *zap.Logger) *Pool {
	return &Pool{
		redis:       redisClient,
		mail:        mail,
		queue:       queue,
		lock:        lock,
		workerCount: workerCount,
		backoff:     func(attempt int) time.Duration { return time.Duration(1<<uint(attempt)) * time.Second },
		now:         time.Now,
		stopChan:    make(chan struct{}),
		log:         log,
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.wg.Add(1)
	go p.promoter()
	p.log.Info("worker pool started", zap.Int("workers", p.workerCount), zap.String("queue", services.EmailQueue))
}

// Stop signals the workers and waits for in-flight jobs. A worker blocked in
// BLPOP notices within popTimeout.
func (p *Pool) Stop() {
	close(p.stopChan)
	p.wg.Wait()
	p.log.Info("worker pool stopped")
}

// promoter moves due retries back onto the email queue.
func (p *Pool) promoter() {
	defer p.wg.Done()
	ticker := time.NewTicker(promoteEvery)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			p.promote(context.Background())
		}
	}
}

func (p *Pool) promote(ctx context.Context) {
	moved, err := p.queue.PromoteDue(ctx, p.now())
	if err != nil {
		p.log.Error("promote retries", zap.Error(err))
		return
	}
	if moved > 0 {
		p.log.Debug("retries promoted", zap.Int("count", moved))
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		default:
		}

		ctx := context.Background()
		result, err := p.redis.BLPop(ctx, popTimeout, services.EmailQueue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				p.log.Debug("blpop failed", zap.Int("worker", id), zap.Error(err))
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			p.log.Error("failed to parse job", zap.Int("worker", id), zap.Error(err))
			continue
		}

		lockKey := fmt.Sprintf("job_lock:%s:%d", job.ID, job.RetryCount)
		if !p.lock.TryLock(ctx, lockKey, lockTTL) {
			continue
		}

		p.run(ctx, &job)
		p.lock.Unlock(ctx, lockKey)
	}
}

func (p *Pool) run(ctx context.Context, job *models.Job) {
	if err := p.Process(job); err != nil {
		p.handleFailure(ctx, job, err)
		return
	}
	metrics.JobsProcessed.WithLabelValues(job.Type, "completed").Inc()
	p.log.Info("job completed", zap.String("job_id", job.ID.String()), zap.String("type", job.Type))
}

// Process sends the email a job describes.
func (p *Pool) Process(job *models.Job) error {
	switch job.Type {
	case models.JobMessageReply:
		var payload models.MessageReplyPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", job.Type, err)
		}
		return p.mail.SendMessageReply(payload)
	case models.JobPayoutReceipt:
		var payload models.PayoutReceiptPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", job.Type, err)
		}
		return p.mail.SendPayoutReceipt(payload)
	case models.JobRequestAccepted:
		var payload models.RequestAcceptedPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", job.Type, err)
		}
		return p.mail.SendRequestAccepted(payload)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	fields := []zap.Field{
		zap.String("job_id", job.ID.String()),
		zap.String("type", job.Type),
		zap.Int("attempt", job.RetryCount),
		zap.Error(err),
	}

	if job.RetryCount >= maxAttempts {
		metrics.JobsProcessed.WithLabelValues(job.Type, "failed").Inc()
		p.log.Error("job failed permanently", fields...)
		return
	}

	metrics.JobsProcessed.WithLabelValues(job.Type, "retried").Inc()
	p.log.Warn("job failed, retrying", fields...)

	at := p.now().Add(p.backoff(job.RetryCount))
	if err := p.queue.Schedule(ctx, job, at); err != nil {
		p.log.Error("schedule retry", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
}
