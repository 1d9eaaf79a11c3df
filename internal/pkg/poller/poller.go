package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/medscribe/internal/pkg/metrics"
	"github.com/airenas/medscribe/internal/pkg/recognition/api"
	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultInterval between status checks
	DefaultInterval = 5 * time.Second
	// DefaultMaxAttempts of status checks before giving up
	DefaultMaxAttempts = 60
	// DefaultBudget is the wall-clock limit of one wait, just under the host execution limit
	DefaultBudget = 350 * time.Second
)

// StatusGetter returns job status
type StatusGetter interface {
	Status(ctx context.Context, name string) (*api.Operation, error)
}

// Poller waits for a long running recognition job. It never cancels the remote job:
// on timeout the job is left running and only the local wait ends.
type Poller struct {
	getter  StatusGetter
	backoff func() backoff.BackOff
	budget  time.Duration
	sleep   func(context.Context, time.Duration) error
	now     func() time.Time
}

// New creates poller with fixed interval and attempt count
func New(getter StatusGetter, interval time.Duration, maxAttempts int, budget time.Duration) (*Poller, error) {
	if getter == nil {
		return nil, fmt.Errorf("no status getter")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("wrong interval %v", interval)
	}
	if maxAttempts < 1 {
		return nil, fmt.Errorf("wrong max attempts %d", maxAttempts)
	}
	if budget < interval {
		return nil, fmt.Errorf("budget %v is less than interval %v", budget, interval)
	}
	goapp.Log.Info().Dur("interval", interval).Int("attempts", maxAttempts).Dur("budget", budget).Msg("cfg: poller")
	return &Poller{getter: getter, budget: budget, sleep: sleepCtx, now: time.Now,
		backoff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(maxAttempts))
		}}, nil
}

// NewDefault creates poller with 5s interval, 60 attempts and 350s budget
func NewDefault(getter StatusGetter) (*Poller, error) {
	return New(getter, DefaultInterval, DefaultMaxAttempts, DefaultBudget)
}

// step is the classification of one status check
type step int

const (
	// stepTransient - the check itself failed, counts as a wasted attempt
	stepTransient step = iota + 1
	stepRunning
	stepFailed
	stepDone
)

// Wait polls until the job is terminal or the attempts/budget are spent.
// A ctx deadline earlier than the budget ends the wait sooner.
func (p *Poller) Wait(ctx context.Context, handle string) Outcome {
	res := p.wait(ctx, handle)
	metrics.PollOutcomes.WithLabelValues(res.Kind.String()).Inc()
	goapp.Log.Info().Str("operation", handle).Str("outcome", res.Kind.String()).Int("attempts", res.Attempts).Msg("wait finished")
	return res
}

func (p *Poller) wait(ctx context.Context, handle string) Outcome {
	b := p.backoff()
	b.Reset()
	deadline := p.now().Add(waitBudget(ctx, p.budget))
	attempts := 0
	for {
		d := b.NextBackOff()
		if d == backoff.Stop {
			break
		}
		if p.now().Add(d).After(deadline) {
			goapp.Log.Warn().Str("operation", handle).Int("attempts", attempts).Msg("wait budget exhausted")
			break
		}
		if err := p.sleep(ctx, d); err != nil {
			goapp.Log.Warn().Err(err).Str("operation", handle).Msg("wait interrupted")
			return stillRunning(handle, attempts)
		}
		attempts++
		goapp.Log.Debug().Str("operation", handle).Int("attempt", attempts).Msg("poll")
		op, err := p.getter.Status(ctx, handle)
		switch classify(op, err) {
		case stepTransient:
			metrics.PollTransient.Inc()
			goapp.Log.Warn().Err(err).Str("operation", handle).Int("attempt", attempts).Msg("status check failed, will retry")
		case stepFailed:
			return Outcome{Kind: Failed, Message: msgFailedPrefix + errorMessage(op.Error), Attempts: attempts}
		case stepDone:
			tr := op.Response.TopTranscripts()
			if len(tr) == 0 {
				goapp.Log.Info().Str("operation", handle).Msg("job done but no transcript found in results")
			}
			return Outcome{Kind: Succeeded, Transcript: strings.Join(tr, "\n"), Attempts: attempts}
		case stepRunning:
			logProgress(handle, op)
		}
	}
	return p.finalCheck(ctx, handle, attempts)
}

// finalCheck only tells a still running job from a missing or broken one.
// A job found done here is not harvested, it is reported as a plain timeout.
func (p *Poller) finalCheck(ctx context.Context, handle string, attempts int) Outcome {
	goapp.Log.Warn().Str("operation", handle).Int("attempts", attempts).Msg("recognition job timed out")
	op, err := p.getter.Status(ctx, handle)
	if err != nil {
		goapp.Log.Warn().Err(err).Str("operation", handle).Msg("final status check failed")
	} else if !op.Done {
		return stillRunning(handle, attempts)
	}
	return Outcome{Kind: TimedOut, Message: msgTimedOut, Handle: handle, Attempts: attempts}
}

// Check makes a single status check, for callers resuming a timed out wait
func (p *Poller) Check(ctx context.Context, handle string) (Outcome, error) {
	op, err := p.getter.Status(ctx, handle)
	if err != nil {
		return Outcome{}, fmt.Errorf("can't get status: %w", err)
	}
	switch classify(op, nil) {
	case stepFailed:
		return Outcome{Kind: Failed, Message: msgFailedPrefix + errorMessage(op.Error), Attempts: 1}, nil
	case stepDone:
		return Outcome{Kind: Succeeded, Transcript: strings.Join(op.Response.TopTranscripts(), "\n"), Attempts: 1}, nil
	}
	return Outcome{Kind: InProgress, Handle: handle, Attempts: 1}, nil
}

// waitBudget shortens the budget to the time left until the ctx deadline
func waitBudget(ctx context.Context, budget time.Duration) time.Duration {
	if d, ok := ctx.Deadline(); ok {
		if left := time.Until(d); left < budget {
			return left
		}
	}
	return budget
}

func stillRunning(handle string, attempts int) Outcome {
	return Outcome{Kind: TimedOut, Message: msgStillRunning, Detail: msgStillDetail, Handle: handle,
		StillRunning: true, Attempts: attempts}
}

func classify(op *api.Operation, err error) step {
	if err != nil || op == nil {
		return stepTransient
	}
	if op.Error != nil {
		return stepFailed
	}
	if op.Done {
		return stepDone
	}
	return stepRunning
}

func errorMessage(st *api.Status) string {
	if st.Message != "" {
		return st.Message
	}
	b, _ := json.Marshal(st)
	return string(b)
}

func logProgress(handle string, op *api.Operation) {
	if op.Metadata != nil && op.Metadata.LastUpdateTime != "" {
		goapp.Log.Info().Str("operation", handle).Int("progress", op.Metadata.ProgressPercent).
			Str("lastUpdate", op.Metadata.LastUpdateTime).Msg("job in progress")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
