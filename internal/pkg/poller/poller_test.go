package poller

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/airenas/medscribe/internal/pkg/recognition/api"
	"github.com/airenas/medscribe/internal/pkg/test"
	"github.com/airenas/medscribe/internal/pkg/test/mocks"
	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	getterMock *mocks.StatusGetter
	tPoller    *Poller
	sleeps     []time.Duration
)

func initTest(t *testing.T, attempts uint64) {
	t.Helper()
	getterMock = &mocks.StatusGetter{}
	sleeps = nil
	tPoller = &Poller{getter: getterMock, budget: time.Hour, now: time.Now,
		backoff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), attempts)
		},
		sleep: func(ctx context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		},
	}
}

func running() *api.Operation { return &api.Operation{Name: "op"} }

func done(tr ...string) *api.Operation {
	res := &api.Operation{Name: "op", Done: true, Response: &api.RecognizeResponse{}}
	for _, s := range tr {
		res.Response.Results = append(res.Response.Results, api.Result{Alternatives: []api.Alternative{{Transcript: s}}})
	}
	return res
}

func TestNew(t *testing.T) {
	g := &mocks.StatusGetter{}
	_, err := New(nil, time.Second, 1, time.Minute)
	assert.NotNil(t, err)
	_, err = New(g, 0, 1, time.Minute)
	assert.NotNil(t, err)
	_, err = New(g, time.Second, 0, time.Minute)
	assert.NotNil(t, err)
	_, err = New(g, time.Minute, 1, time.Second)
	assert.NotNil(t, err)
	p, err := NewDefault(g)
	require.Nil(t, err)
	assert.Equal(t, DefaultBudget, p.budget)
}

func TestWait_Succeeded(t *testing.T) {
	initTest(t, 60)
	getterMock.On("Status", mock.Anything, "op").Return(running(), nil).Once()
	getterMock.On("Status", mock.Anything, "op").Return(done("a", "b"), nil).Once()

	res := tPoller.Wait(test.Ctx(t), "op")

	assert.Equal(t, Succeeded, res.Kind)
	assert.Equal(t, "a\nb", res.Transcript)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, sleeps)
}

func TestWait_DoneNoResults_IsSuccess(t *testing.T) {
	initTest(t, 60)
	getterMock.On("Status", mock.Anything, "op").Return(&api.Operation{Name: "op", Done: true}, nil)

	res := tPoller.Wait(test.Ctx(t), "op")

	assert.Equal(t, Succeeded, res.Kind)
	assert.Equal(t, "", res.Transcript)
	assert.Equal(t, 1, res.Attempts)
}

func TestWait_Failed_Immediately(t *testing.T) {
	initTest(t, 60)
	getterMock.On("Status", mock.Anything, "op").Return(&api.Operation{Name: "op", Done: true,
		Error: &api.Status{Code: 3, Message: "bad audio"}}, nil)

	res := tPoller.Wait(test.Ctx(t), "op")

	assert.Equal(t, Failed, res.Kind)
	assert.Equal(t, "Speech-to-Text recognition failed: bad audio", res.Message)
	assert.Equal(t, 1, res.Attempts)
	getterMock.AssertNumberOfCalls(t, "Status", 1)
}

func TestWait_Failed_NoMessage(t *testing.T) {
	initTest(t, 60)
	getterMock.On("Status", mock.Anything, "op").Return(&api.Operation{Name: "op", Error: &api.Status{Code: 13}}, nil)

	res := tPoller.Wait(test.Ctx(t), "op")

	assert.Equal(t, Failed, res.Kind)
	assert.Equal(t, `Speech-to-Text recognition failed: {"code":13}`, res.Message)
}

func TestWait_TransientErrors_Continue(t *testing.T) {
	initTest(t, 60)
	getterMock.On("Status", mock.Anything, "op").Return(nil, fmt.Errorf("olia")).Times(3)
	getterMock.On("Status", mock.Anything, "op").Return(done("a"), nil).Once()

	res := tPoller.Wait(test.Ctx(t), "op")

	assert.Equal(t, Succeeded, res.Kind)
	assert.Equal(t, 4, res.Attempts)
}

func TestWait_TimedOut_StillRunning(t *testing.T) {
	initTest(t, 60)
	getterMock.On("Status", mock.Anything, "op").Return(running(), nil)

	res := tPoller.Wait(test.Ctx(t), "op")

	assert.Equal(t, TimedOut, res.Kind)
	assert.True(t, res.StillRunning)
	assert.Equal(t, "op", res.Handle)
	assert.Equal(t, 60, res.Attempts)
	assert.NotEmpty(t, res.Detail)
	// 60 attempts and one final check
	getterMock.AssertNumberOfCalls(t, "Status", 61)
	assert.Equal(t, 60, len(sleeps))
}

func TestWait_TimedOut_AllTransient(t *testing.T) {
	initTest(t, 5)
	getterMock.On("Status", mock.Anything, "op").Return(nil, fmt.Errorf("olia"))

	res := tPoller.Wait(test.Ctx(t), "op")

	assert.Equal(t, TimedOut, res.Kind)
	assert.False(t, res.StillRunning)
	assert.Equal(t, "Speech-to-Text recognition timed out.", res.Message)
	assert.Equal(t, 5, res.Attempts)
}

func TestWait_TimedOut_DoneAtFinalCheck_NotHarvested(t *testing.T) {
	initTest(t, 2)
	getterMock.On("Status", mock.Anything, "op").Return(running(), nil).Twice()
	getterMock.On("Status", mock.Anything, "op").Return(done("late"), nil).Once()

	res := tPoller.Wait(test.Ctx(t), "op")

	assert.Equal(t, TimedOut, res.Kind)
	assert.False(t, res.StillRunning)
	assert.Equal(t, "", res.Transcript)
}

func TestWait_Budget(t *testing.T) {
	initTest(t, 60)
	start := time.Now()
	current := start
	tPoller.now = func() time.Time { return current }
	tPoller.budget = 3500 * time.Millisecond
	tPoller.sleep = func(ctx context.Context, d time.Duration) error {
		current = current.Add(d)
		return nil
	}
	getterMock.On("Status", mock.Anything, "op").Return(running(), nil)

	res := tPoller.Wait(test.Ctx(t), "op")

	assert.Equal(t, TimedOut, res.Kind)
	assert.Equal(t, 3, res.Attempts)
	assert.True(t, current.Sub(start) <= tPoller.budget)
}

func TestWait_Cancelled(t *testing.T) {
	initTest(t, 60)
	tPoller.sleep = sleepCtx
	tPoller.backoff = func() backoff.BackOff { return backoff.NewConstantBackOff(time.Minute) }
	ctx, cf := context.WithCancel(context.Background())
	cf()

	res := tPoller.Wait(ctx, "op")

	assert.Equal(t, TimedOut, res.Kind)
	assert.True(t, res.StillRunning)
	getterMock.AssertNumberOfCalls(t, "Status", 0)
}

func TestCheck(t *testing.T) {
	initTest(t, 1)
	getterMock.On("Status", mock.Anything, "op").Return(running(), nil).Once()
	getterMock.On("Status", mock.Anything, "op").Return(done("a"), nil).Once()
	getterMock.On("Status", mock.Anything, "op").Return(nil, fmt.Errorf("olia")).Once()

	res, err := tPoller.Check(test.Ctx(t), "op")
	require.Nil(t, err)
	assert.Equal(t, InProgress, res.Kind)
	res, err = tPoller.Check(test.Ctx(t), "op")
	require.Nil(t, err)
	assert.Equal(t, Succeeded, res.Kind)
	assert.Equal(t, "a", res.Transcript)
	_, err = tPoller.Check(test.Ctx(t), "op")
	assert.NotNil(t, err)
}

func TestKind(t *testing.T) {
	for _, k := range []Kind{InProgress, Succeeded, Failed, TimedOut} {
		assert.Equal(t, k, From(k.String()))
	}
	assert.Equal(t, Kind(0), From("olia"))
}

func TestWait_CtxDeadlineShortensBudget(t *testing.T) {
	initTest(t, 60)
	current := time.Now()
	tPoller.now = func() time.Time { return current }
	tPoller.budget = time.Hour
	tPoller.sleep = func(ctx context.Context, d time.Duration) error {
		current = current.Add(d)
		return nil
	}
	getterMock.On("Status", mock.Anything, "op").Return(running(), nil)
	ctx, cf := context.WithTimeout(context.Background(), 3500*time.Millisecond)
	defer cf()

	res := tPoller.Wait(ctx, "op")

	assert.Equal(t, TimedOut, res.Kind)
	assert.True(t, res.StillRunning)
	assert.Equal(t, 3, res.Attempts)
	getterMock.AssertNumberOfCalls(t, "Status", 4)
}

func Test_waitBudget(t *testing.T) {
	assert.Equal(t, time.Minute, waitBudget(context.Background(), time.Minute))
	ctx, cf := context.WithTimeout(context.Background(), time.Second*10)
	defer cf()
	assert.Equal(t, time.Second, waitBudget(ctx, time.Second))
	res := waitBudget(ctx, time.Minute)
	assert.True(t, res <= time.Second*10 && res > time.Second*9, res)
}
