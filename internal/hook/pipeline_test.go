package hook_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/resfight/internal/hook"
)

const testHook hook.Name = "h/test/counter"

// counterData is a minimal variant used to observe ordering and mutation visibility.
type counterData struct {
	Trail []string
}

func (counterData) HookName() hook.Name { return testHook }
func (d counterData) Fields() hook.Fields {
	return hook.Fields{"trail": d.Trail}
}

type otherData struct{}

func (otherData) HookName() hook.Name  { return testHook }
func (otherData) Fields() hook.Fields { return hook.Fields{} }

func appendTrail(id string) hook.Subscriber {
	return func(_ context.Context, hc hook.Context) (hook.Context, error) {
		d := hc.(counterData)
		d.Trail = append(append([]string(nil), d.Trail...), id)
		return d, nil
	}
}

func TestPublish_RunsInRegistrationOrder(t *testing.T) {
	p := hook.NewPipeline(zap.NewNop())
	p.Subscribe(testHook, "a", appendTrail("a"))
	p.Subscribe(testHook, "b", appendTrail("b"))
	p.Subscribe(testHook, "c", appendTrail("c"))

	out, err := hook.Publish(context.Background(), p, counterData{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, out.Trail)
	assert.Equal(t, []string{"a", "b", "c"}, p.Subscribers(testHook))
}

func TestPublish_MutationsVisibleToLaterSubscribers(t *testing.T) {
	p := hook.NewPipeline(zap.NewNop())
	p.Subscribe(testHook, "writer", appendTrail("first"))
	var seen []string
	p.Subscribe(testHook, "reader", func(_ context.Context, hc hook.Context) (hook.Context, error) {
		seen = hc.(counterData).Trail
		return hc, nil
	})

	_, err := hook.Publish(context.Background(), p, counterData{})
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, seen)
}

func TestPublish_NoSubscribersReturnsInput(t *testing.T) {
	p := hook.NewPipeline(zap.NewNop())
	in := counterData{Trail: []string{"x"}}
	out, err := hook.Publish(context.Background(), p, in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestPublish_FailingSubscriberDoesNotSkipOthers(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p := hook.NewPipeline(zap.New(core))
	boom := errors.New("boom")
	p.Subscribe(testHook, "a", appendTrail("a"))
	p.Subscribe(testHook, "bad", func(context.Context, hook.Context) (hook.Context, error) {
		return nil, boom
	})
	p.Subscribe(testHook, "c", appendTrail("c"))

	out, err := hook.Publish(context.Background(), p, counterData{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "subscriber bad")
	assert.Equal(t, []string{"a", "c"}, out.Trail)
	assert.Equal(t, 1, logs.Len())
}

func TestPublish_NilResultKeepsInput(t *testing.T) {
	p := hook.NewPipeline(zap.NewNop())
	p.Subscribe(testHook, "observer", func(context.Context, hook.Context) (hook.Context, error) {
		return nil, nil
	})
	out, err := hook.Publish(context.Background(), p, counterData{Trail: []string{"keep"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, out.Trail)
}

func TestPublish_WrongVariantIsError(t *testing.T) {
	p := hook.NewPipeline(zap.NewNop())
	p.Subscribe(testHook, "swap", func(context.Context, hook.Context) (hook.Context, error) {
		return otherData{}, nil
	})
	in := counterData{Trail: []string{"orig"}}
	out, err := hook.Publish(context.Background(), p, in)
	require.Error(t, err)
	assert.Equal(t, in, out)
}

func TestPublish_OtherHooksNotInvoked(t *testing.T) {
	p := hook.NewPipeline(zap.NewNop())
	called := false
	p.Subscribe("h/test/other", "x", func(_ context.Context, hc hook.Context) (hook.Context, error) {
		called = true
		return hc, nil
	})
	_, err := hook.Publish(context.Background(), p, counterData{})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestRequire(t *testing.T) {
	fields := hook.Fields{"name": "x", "count": 3, "nothing": nil}

	s, err := hook.Require[string](testHook, fields, "name", "a string")
	require.NoError(t, err)
	assert.Equal(t, "x", s)

	_, err = hook.Require[string](testHook, fields, "count", "a string")
	require.Error(t, err)
	assert.ErrorIs(t, err, hook.ErrArgument)
	var argErr *hook.ArgumentError
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, "count", argErr.Field)
	assert.Contains(t, err.Error(), "must be a string")

	_, err = hook.Require[string](testHook, fields, "absent", "a string")
	assert.ErrorIs(t, err, hook.ErrArgument)
	assert.Contains(t, err.Error(), "is required")

	_, err = hook.Require[string](testHook, fields, "nothing", "a string")
	assert.Contains(t, err.Error(), "is required")
}

func TestRequireInt64(t *testing.T) {
	for _, v := range []any{
		int(7), int8(7), int16(7), int32(7), int64(7),
		uint(7), uint8(7), uint16(7), uint32(7), uint64(7), float64(7),
	} {
		got, err := hook.RequireInt64(testHook, hook.Fields{"id": v}, "id")
		require.NoError(t, err, "%T should be accepted", v)
		assert.Equal(t, int64(7), got)
	}
	for _, v := range []any{"7", 7.5, true, math.NaN(), math.Inf(1)} {
		_, err := hook.RequireInt64(testHook, hook.Fields{"id": v}, "id")
		assert.ErrorIs(t, err, hook.ErrArgument, "%T should be rejected", v)
		assert.ErrorContains(t, err, "must be an integer")
	}
}

func TestRequireInt64_Range(t *testing.T) {
	got, err := hook.RequireInt64(testHook, hook.Fields{"id": uint64(math.MaxInt64)}, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), got)

	got, err = hook.RequireInt64(testHook, hook.Fields{"id": float64(math.MinInt64)}, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), got)

	for _, v := range []any{uint64(math.MaxInt64) + 1, uint(math.MaxUint), float64(1 << 63), -1e19} {
		_, err := hook.RequireInt64(testHook, hook.Fields{"id": v}, "id")
		assert.ErrorIs(t, err, hook.ErrArgument, "%v should overflow", v)
		assert.ErrorContains(t, err, "overflows int64")
	}
}

func TestProperty_PublishPreservesOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(rt, "subscribers")
		p := hook.NewPipeline(zap.NewNop())
		want := make([]string, 0, n)
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("s%d", i)
			want = append(want, id)
			p.Subscribe(testHook, id, appendTrail(id))
		}
		out, err := hook.Publish(context.Background(), p, counterData{})
		require.NoError(rt, err)
		if n == 0 {
			assert.Empty(rt, out.Trail)
			return
		}
		assert.Equal(rt, want, out.Trail)
	})
}
