package properties

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/airenas/medscribe/internal/pkg/test"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initTraining(t *testing.T) (*Training, *MemStore) {
	t.Helper()
	s := NewMemStore()
	res, err := NewTraining(s)
	require.Nil(t, err)
	res.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("x", 3600)) }
	return res, s
}

func TestNewTraining(t *testing.T) {
	_, err := NewTraining(nil)
	assert.NotNil(t, err)
}

func TestTraining_Add(t *testing.T) {
	tr, _ := initTraining(t)
	ctx := test.Ctx(t)

	c, err := tr.Add(ctx, "tr", "orig", "impr")
	require.Nil(t, err)
	assert.Equal(t, 1, c)

	all, err := tr.All(ctx)
	require.Nil(t, err)
	assert.Equal(t, []Example{{Timestamp: "2024-03-01T09:00:00Z", Transcript: "tr", OriginalNote: "orig",
		ImprovedNote: "impr"}}, all)
}

func TestTraining_Add_Validation(t *testing.T) {
	tr, _ := initTraining(t)
	for _, v := range [][3]string{{"", "a", "b"}, {"a", "", "b"}, {"a", "b", ""}} {
		_, err := tr.Add(test.Ctx(t), v[0], v[1], v[2])
		assert.True(t, errors.Is(err, ErrValidation))
	}
}

func TestTraining_Add_Cap(t *testing.T) {
	tr, _ := initTraining(t)
	ctx := test.Ctx(t)
	for i := 0; i < MaxExamples+5; i++ {
		c, err := tr.Add(ctx, fmt.Sprintf("tr%d", i), "o", "i")
		require.Nil(t, err)
		if i < MaxExamples {
			assert.Equal(t, i+1, c)
		} else {
			assert.Equal(t, MaxExamples, c)
		}
	}
	all, err := tr.All(ctx)
	require.Nil(t, err)
	require.Equal(t, MaxExamples, len(all))
	assert.Equal(t, "tr5", all[0].Transcript)
	assert.Equal(t, "tr54", all[MaxExamples-1].Transcript)
}

func TestTraining_All_Empty(t *testing.T) {
	tr, _ := initTraining(t)
	all, err := tr.All(test.Ctx(t))
	require.Nil(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestTraining_Export(t *testing.T) {
	tr, _ := initTraining(t)
	ctx := test.Ctx(t)
	_, _ = tr.Add(ctx, "t1", "o1", "i1 <b>")
	_, _ = tr.Add(ctx, "t2", "o2", "i2")
	var b bytes.Buffer

	c, err := tr.Export(ctx, &b)

	require.Nil(t, err)
	assert.Equal(t, 2, c)
	assert.Equal(t, "{\"input_text\":\"t1\",\"output_text\":\"i1 <b>\"}\n{\"input_text\":\"t2\",\"output_text\":\"i2\"}\n", b.String())
}

func TestTraining_Export_Empty(t *testing.T) {
	tr, _ := initTraining(t)
	var b bytes.Buffer
	_, err := tr.Export(test.Ctx(t), &b)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "", b.String())
}
