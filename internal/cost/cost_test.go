package cost

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CaptShanks/cuprism/internal/parser"
)

func TestComputeSingleFunction(t *testing.T) {
	log := parser.Parse([]string{
		"Program log: one {",
		"Program consumption: 198708 units remaining",
		"Program consumption: 198082 units remaining",
		"Program log: } // one",
	})
	require.Len(t, log.Nodes, 1)

	r, err := Compute(log.Nodes[0])
	require.NoError(t, err)
	assert.Equal(t, Report{
		NaiveLocal:  626,
		NaiveGlobal: 626,
		Local:       626,
		Global:      626,
		Start:       198708,
		End:         198082,
	}, r)
}

func TestComputeNestedFunction(t *testing.T) {
	log := parser.Parse([]string{
		"Program log: one {",
		"Program consumption: 198708 units remaining",
		"Program log: two {",
		"Program consumption: 197766 units remaining",
		"Program consumption: 197386 units remaining",
		"Program log: } // two",
		"Program consumption: 196819 units remaining",
		"Program log: } // one",
	})
	require.Len(t, log.Nodes, 1)
	one := log.Nodes[0]

	r, err := Compute(one)
	require.NoError(t, err)
	assert.Equal(t, int64(1889), r.NaiveGlobal)
	assert.Equal(t, int64(1509), r.NaiveLocal)
	assert.Equal(t, int64(1509-309), r.Local)
	assert.Equal(t, int64(1200+380), r.Global)
	assert.Equal(t, 1, r.NChildren)

	two, err := Compute(one.Nodes()[0])
	require.NoError(t, err)
	assert.Equal(t, int64(380), two.NaiveGlobal)
	assert.Equal(t, int64(380), two.Local)
	assert.Equal(t, int64(380), two.Global)
}

func TestComputeInvocation(t *testing.T) {
	bare := &parser.Invocation{Program: "11111111111111111111111111111111", Depth: 2, Status: parser.StatusSuccess}
	r, err := Compute(bare)
	require.NoError(t, err)
	assert.Equal(t, Report{}, r)

	inv := &parser.Invocation{
		Program:  "EyXkTyKARndnKZqPXAEiP7nXRDqRXhsVXGQNW9cZudXy",
		Depth:    1,
		Consumed: 3772,
		Budget:   200000,
		Children: []parser.Node{
			&parser.Function{Name: "one", Start: 198708, End: 198708},
			&parser.Function{Name: "two", Start: 197766, End: 197386},
		},
	}
	r, err = Compute(inv)
	require.NoError(t, err)
	assert.Equal(t, Report{
		NaiveGlobal: 3772,
		NaiveLocal:  3772 - 380,
		Local:       3772 - 380 - 2*309,
		Global:      3772 - 380 - 2*309 + 380,
		Start:       3772,
		End:         0,
		NChildren:   2,
	}, r)
}

func TestComputeUnknown(t *testing.T) {
	r, err := Compute(&parser.Unknown{Line: "garbage"})
	require.NoError(t, err)
	assert.Equal(t, Report{}, r)
}

func TestFormulasAgreeWithCompute(t *testing.T) {
	log := parser.Parse(referenceLog)

	err := Walk(log, func(path []parser.Node, r Report) error {
		n := path[len(path)-1]

		ng, err := NaiveGlobal(n)
		require.NoError(t, err)
		assert.Equal(t, r.NaiveGlobal, ng)

		nl, err := NaiveLocal(n)
		require.NoError(t, err)
		assert.Equal(t, r.NaiveLocal, nl)

		local, err := LocalExLog(n)
		require.NoError(t, err)
		assert.Equal(t, r.Local, local)

		global, err := GlobalExLog(n)
		require.NoError(t, err)
		assert.Equal(t, r.Global, global)
		return nil
	})
	require.NoError(t, err)
}

func TestLeafIdempotence(t *testing.T) {
	leaves := []parser.Node{
		&parser.Function{Name: "a", Start: 1000, End: 400},
		&parser.Function{Name: "b", Start: 400, End: 1000},
		&parser.Invocation{Program: "p", Depth: 1, Consumed: 77, Budget: 100},
		&parser.Unknown{Line: "x"},
	}
	for _, n := range leaves {
		r, err := Compute(n)
		require.NoError(t, err)
		assert.Equal(t, r.NaiveGlobal, r.NaiveLocal, "%s %s", n.Kind(), parser.Name(n))
		assert.Equal(t, r.Local, r.Global, "%s %s", n.Kind(), parser.Name(n))
		assert.Equal(t, r.NaiveLocal, r.Local, "%s %s", n.Kind(), parser.Name(n))
	}
}

func TestEndAboveStartIsNegative(t *testing.T) {
	r, err := Compute(&parser.Function{Name: "b", Start: 400, End: 1000})
	require.NoError(t, err)
	assert.Equal(t, int64(-600), r.Global)
}

func TestLoggingCostOuter(t *testing.T) {
	assert.Equal(t, int64(309), LoggingCostOuter(&parser.Function{Name: "a"}))
	assert.Equal(t, int64(0), LoggingCostOuter(&parser.Invocation{Program: "p"}))
	assert.Equal(t, int64(0), LoggingCostOuter(&parser.Unknown{}))
}

func TestComputeOverflow(t *testing.T) {
	_, err := Compute(&parser.Function{Name: "a", Start: math.MaxInt64, End: -1})
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = NaiveGlobal(&parser.Function{Name: "a", Start: math.MinInt64, End: 1})
	assert.ErrorIs(t, err, ErrOverflow)

	huge := &parser.Function{Name: "root", Start: 0, End: 0, Children: []parser.Node{
		&parser.Function{Name: "c1", Start: math.MaxInt64, End: 0},
		&parser.Function{Name: "c2", Start: math.MaxInt64, End: 0},
	}}
	_, err = Compute(huge)
	assert.ErrorIs(t, err, ErrOverflow)
	_, err = ChildrenNaiveGlobal(huge)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestWalkPreOrder(t *testing.T) {
	log := parser.Parse([]string{
		"Program abc invoke [1]",
		"Program log: one {",
		"Program consumption: 1000 units remaining",
		"Program log: two {",
		"Program consumption: 800 units remaining",
		"Program consumption: 700 units remaining",
		"Program log: } // two",
		"Program consumption: 100 units remaining",
		"Program log: } // one",
		"Program abc consumed 1500 of 200000 compute units",
		"Program abc success",
		"trailing",
	})

	var visited []string
	var depths []int
	err := Walk(log, func(path []parser.Node, r Report) error {
		visited = append(visited, parser.Name(path[len(path)-1]))
		depths = append(depths, len(path))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "one", "two", "trailing"}, visited)
	assert.Equal(t, []int{1, 2, 3, 1}, depths)
}

func TestWalkStops(t *testing.T) {
	log := parser.Parse([]string{"a", "b", "c"})
	stop := assert.AnError

	calls := 0
	err := Walk(log, func(path []parser.Node, r Report) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestTotals(t *testing.T) {
	log := parser.Parse(referenceLog)
	total, err := Totals(log)
	require.NoError(t, err)
	assert.Equal(t, int64(59045), total.NaiveGlobal)

	trees, err := EvaluateLog(log)
	require.NoError(t, err)
	require.Len(t, trees, 1)
	assert.Equal(t, trees[0].Report.Global, total.Global)
}
