// Package cost attributes compute units to the nodes of a parsed log.
//
// Every node has a start and end reading and a logging overhead split in
// two: the part its caller pays for (LogCostCaller) and the part charged
// between the node's own readings (LogCostInner). Raw figures come straight
// from the readings; corrected figures remove the overhead that the
// instrumentation of child blocks added to their parent.
package cost

import (
	"errors"
	"math"

	"github.com/CaptShanks/cuprism/internal/parser"
)

const (
	// FunctionCallerCost is the total extra cost of one instrumented block:
	// two log syscalls for the brackets plus two compute unit readings.
	FunctionCallerCost int64 = 409
	// FunctionInnerCost is the cost of the closing compute unit reading,
	// the only part of the instrumentation charged between the readings.
	FunctionInnerCost int64 = 100
)

// ErrOverflow is returned when a cost figure does not fit an int64
var ErrOverflow = errors.New("compute unit arithmetic overflow")

// Report holds the figures computed for one node
type Report struct {
	NaiveLocal  int64
	NaiveGlobal int64
	Local       int64
	Global      int64
	Start       int64
	End         int64
	NChildren   int
}

// ComputeStart returns the reading a node's cost is measured from
func ComputeStart(n parser.Node) int64 {
	switch n := n.(type) {
	case *parser.Function:
		return n.Start
	case *parser.Invocation:
		return n.Consumed
	default:
		return 0
	}
}

// ComputeEnd returns the reading a node's cost is measured to
func ComputeEnd(n parser.Node) int64 {
	if f, ok := n.(*parser.Function); ok {
		return f.End
	}
	return 0
}

// LogCostCaller returns the logging overhead the node's caller observes
func LogCostCaller(n parser.Node) int64 {
	if _, ok := n.(*parser.Function); ok {
		return FunctionCallerCost
	}
	return 0
}

// LogCostInner returns the logging overhead observed inside the node
func LogCostInner(n parser.Node) int64 {
	if _, ok := n.(*parser.Function); ok {
		return FunctionInnerCost
	}
	return 0
}

// NaiveGlobal is start minus end: everything spent between the readings
func NaiveGlobal(n parser.Node) (int64, error) {
	return sub(ComputeStart(n), ComputeEnd(n))
}

// ChildrenNaiveGlobal sums NaiveGlobal over the direct children
func ChildrenNaiveGlobal(n parser.Node) (int64, error) {
	var total int64
	for _, c := range n.Nodes() {
		ng, err := NaiveGlobal(c)
		if err != nil {
			return 0, err
		}
		if total, err = add(total, ng); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// NaiveLocal is NaiveGlobal without what the children report for themselves
func NaiveLocal(n parser.Node) (int64, error) {
	ng, err := NaiveGlobal(n)
	if err != nil {
		return 0, err
	}
	children, err := ChildrenNaiveGlobal(n)
	if err != nil {
		return 0, err
	}
	return sub(ng, children)
}

// LoggingCostOuter is the overhead a node adds to its parent's local
// figure that is not visible in the node's own NaiveGlobal.
func LoggingCostOuter(n parser.Node) int64 {
	return LogCostCaller(n) - LogCostInner(n)
}

// LocalExLog is NaiveLocal with the children's outer logging cost removed
func LocalExLog(n parser.Node) (int64, error) {
	local, err := NaiveLocal(n)
	if err != nil {
		return 0, err
	}
	for _, c := range n.Nodes() {
		if local, err = sub(local, LoggingCostOuter(c)); err != nil {
			return 0, err
		}
	}
	return local, nil
}

// GlobalExLog is LocalExLog plus the GlobalExLog of every child
func GlobalExLog(n parser.Node) (int64, error) {
	t, err := Evaluate(n)
	if err != nil {
		return 0, err
	}
	return t.Global, nil
}

// Compute returns the full report of n
func Compute(n parser.Node) (Report, error) {
	t, err := Evaluate(n)
	if err != nil {
		return Report{}, err
	}
	return t.Report, nil
}

func add(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, ErrOverflow
	}
	return a + b, nil
}

func sub(a, b int64) (int64, error) {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return 0, ErrOverflow
	}
	return a - b, nil
}
