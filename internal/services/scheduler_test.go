package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type recordingExpirer struct {
	calls int
	now   time.Time
	err   error
}

func (r *recordingExpirer) ExpireStale(_ context.Context, now time.Time, _, _ time.Duration) (int, error) {
	r.calls++
	r.now = now
	return 2, r.err
}

type recordingCloser struct{ calls int }

func (r *recordingCloser) EndDue(context.Context) (int, error) {
	r.calls++
	return 1, nil
}

type stubLock struct{ held bool }

func (l *stubLock) TryLock(context.Context, string, time.Duration) bool {
	if l.held {
		return false
	}
	l.held = true
	return true
}

func TestRunOnceRunsBothJobs(t *testing.T) {
	exp, closer := &recordingExpirer{}, &recordingCloser{}
	s := NewScheduler(exp, closer, nil, 15*time.Minute, 10*time.Minute, zap.NewNop())
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	s.RunOnce(context.Background(), now)

	assert.Equal(t, 1, exp.calls)
	assert.Equal(t, now, exp.now)
	assert.Equal(t, 1, closer.calls)
}

func TestRunOnceSkipsWithoutLock(t *testing.T) {
	exp, closer := &recordingExpirer{}, &recordingCloser{}
	lock := &stubLock{}
	s := NewScheduler(exp, closer, lock, time.Minute, time.Minute, zap.NewNop())

	s.RunOnce(context.Background(), time.Now())
	s.RunOnce(context.Background(), time.Now())

	assert.Equal(t, 1, exp.calls)
	assert.Equal(t, 1, closer.calls)
}

func TestRunOnceContinuesAfterExpireError(t *testing.T) {
	exp, closer := &recordingExpirer{err: errors.New("db down")}, &recordingCloser{}
	s := NewScheduler(exp, closer, nil, time.Minute, time.Minute, zap.NewNop())

	s.RunOnce(context.Background(), time.Now())

	assert.Equal(t, 1, closer.calls)
}
