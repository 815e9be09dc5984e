package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/resfight/internal/game/dice"
)

// cycle returns 0, 1, 2, ... modulo n.
type cycle struct{ next *int }

func newCycle() cycle { return cycle{next: new(int)} }

func (c cycle) Intn(n int) int {
	v := *c.next % n
	*c.next++
	return v
}

func TestParse(t *testing.T) {
	cases := map[string]dice.Expression{
		"d20":      {Count: 1, Sides: 20},
		"2d6":      {Count: 2, Sides: 6},
		"2d6+3":    {Count: 2, Sides: 6, Modifier: 3},
		"4d8-2":    {Count: 4, Sides: 8, Modifier: -2},
		" 1D10 ":   {Count: 1, Sides: 10},
		"100d1000": {Count: 100, Sides: 1000},
	}
	for in, want := range cases {
		got, err := dice.Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, in := range []string{
		"", "6", "0d6", "2d1", "2dx", "d", "2d6+", "2d6*2", "banana",
		"101d6", "1d1001", "1d6+1001", "1d6-1001",
		"1d6+99999999999999999999", "99999999999999999999d6",
	} {
		_, err := dice.Parse(in)
		assert.ErrorIs(t, err, dice.ErrSyntax, in)
	}
}

func TestParse_ModifierBounds(t *testing.T) {
	e, err := dice.Parse("1d6+1000")
	require.NoError(t, err)
	assert.Equal(t, dice.MaxModifier, e.Modifier)

	e, err = dice.Parse("1d6-1000")
	require.NoError(t, err)
	assert.Equal(t, -dice.MaxModifier, e.Modifier)

	_, err = dice.Parse("1d6+9223372036854775807")
	assert.ErrorIs(t, err, dice.ErrSyntax)
	assert.ErrorContains(t, err, "modifier must be in [-1000, 1000]")
}

func TestMustParse_Panics(t *testing.T) {
	assert.NotPanics(t, func() { dice.MustParse("1d4") })
	assert.Panics(t, func() { dice.MustParse("1d") })
}

func TestExpression_String(t *testing.T) {
	assert.Equal(t, "2d6+3", dice.MustParse("2d6+3").String())
	assert.Equal(t, "4d8-2", dice.MustParse("4d8-2").String())
	assert.Equal(t, "1d20", dice.MustParse("d20").String())
}

func TestExpression_Roll(t *testing.T) {
	res := dice.MustParse("3d6+1").Roll(newCycle())
	assert.Equal(t, []int{1, 2, 3}, res.Faces)
	assert.Equal(t, 7, res.Total())
	assert.Equal(t, "3d6+1 [1 2 3] = 7", res.String())
}

func TestRoller_LogsEveryRoll(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := dice.NewLoggedRoller(newCycle(), zap.New(core))

	res, err := r.Roll("Slime damage", "2d6+1")
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total())
	assert.Equal(t, 3, r.D20("initiative"))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "Slime damage", logs.All()[0].ContextMap()["label"])

	_, err = r.Roll("bad", "2d")
	assert.ErrorIs(t, err, dice.ErrSyntax)
	assert.Equal(t, 2, logs.Len())
}

func TestCryptoSource_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
	assert.Panics(t, func() { src.Intn(0) })
}

func TestSeededSource_Reproducible(t *testing.T) {
	a := dice.NewSeededSource(42)
	b := dice.NewSeededSource(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(20), b.Intn(20))
	}
}

func TestProperty_ParseStringRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := dice.Expression{
			Count:    rapid.IntRange(1, dice.MaxCount).Draw(rt, "count"),
			Sides:    rapid.IntRange(2, dice.MaxSides).Draw(rt, "sides"),
			Modifier: rapid.IntRange(-50, 50).Draw(rt, "modifier"),
		}
		got, err := dice.Parse(e.String())
		require.NoError(rt, err)
		assert.Equal(rt, e, got)
	})
}

func TestProperty_RollWithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := dice.Expression{
			Count:    rapid.IntRange(1, 10).Draw(rt, "count"),
			Sides:    rapid.IntRange(2, 20).Draw(rt, "sides"),
			Modifier: rapid.IntRange(-5, 5).Draw(rt, "modifier"),
		}
		res := e.Roll(dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed")))
		assert.Len(rt, res.Faces, e.Count)
		for _, f := range res.Faces {
			assert.GreaterOrEqual(rt, f, 1)
			assert.LessOrEqual(rt, f, e.Sides)
		}
		assert.GreaterOrEqual(rt, res.Total(), e.Min())
		assert.LessOrEqual(rt, res.Total(), e.Max())
	})
}
