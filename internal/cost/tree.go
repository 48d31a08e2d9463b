package cost

import (
	"fmt"

	"github.com/CaptShanks/cuprism/internal/parser"
)

// Tree pairs a node with its report and the trees of its children. It is
// built bottom-up in one pass, so evaluating a whole log is linear.
type Tree struct {
	Node     parser.Node
	Report   Report
	Children []*Tree
}

// Evaluate computes the report of n and of every node below it
func Evaluate(n parser.Node) (*Tree, error) {
	t := &Tree{Node: n}

	var childNaive, childOuter, childGlobal int64
	for _, c := range n.Nodes() {
		ct, err := Evaluate(c)
		if err != nil {
			return nil, err
		}
		t.Children = append(t.Children, ct)

		if childNaive, err = add(childNaive, ct.Report.NaiveGlobal); err != nil {
			return nil, err
		}
		if childOuter, err = add(childOuter, LoggingCostOuter(c)); err != nil {
			return nil, err
		}
		if childGlobal, err = add(childGlobal, ct.Report.Global); err != nil {
			return nil, err
		}
	}

	r := Report{
		Start:     ComputeStart(n),
		End:       ComputeEnd(n),
		NChildren: len(t.Children),
	}
	var err error
	if r.NaiveGlobal, err = sub(r.Start, r.End); err != nil {
		return nil, fmt.Errorf("%s %s: naive global: %w", n.Kind(), parser.Name(n), err)
	}
	if r.NaiveLocal, err = sub(r.NaiveGlobal, childNaive); err != nil {
		return nil, fmt.Errorf("%s %s: naive local: %w", n.Kind(), parser.Name(n), err)
	}
	if r.Local, err = sub(r.NaiveLocal, childOuter); err != nil {
		return nil, fmt.Errorf("%s %s: local: %w", n.Kind(), parser.Name(n), err)
	}
	if r.Global, err = add(r.Local, childGlobal); err != nil {
		return nil, fmt.Errorf("%s %s: global: %w", n.Kind(), parser.Name(n), err)
	}
	t.Report = r
	return t, nil
}

// EvaluateLog evaluates every top-level node of log
func EvaluateLog(log *parser.Log) ([]*Tree, error) {
	trees := make([]*Tree, 0, len(log.Nodes))
	for _, n := range log.Nodes {
		t, err := Evaluate(n)
		if err != nil {
			return nil, err
		}
		trees = append(trees, t)
	}
	return trees, nil
}

// WalkFunc is called for every node in pre-order. path holds the node's
// ancestors followed by the node itself and is reused between calls, so
// copy it to keep it. Returning an error stops the walk.
type WalkFunc func(path []parser.Node, r Report) error

// Walk evaluates log and visits every node in pre-order
func Walk(log *parser.Log, fn WalkFunc) error {
	trees, err := EvaluateLog(log)
	if err != nil {
		return err
	}
	for _, t := range trees {
		if err := walk(t, nil, fn); err != nil {
			return err
		}
	}
	return nil
}

func walk(t *Tree, path []parser.Node, fn WalkFunc) error {
	path = append(path, t.Node)
	if err := fn(path, t.Report); err != nil {
		return err
	}
	for _, c := range t.Children {
		if err := walk(c, path, fn); err != nil {
			return err
		}
	}
	return nil
}

// Totals sums the reports of the top-level nodes of log. Start, End and
// NChildren are left zero; NChildren of a log is len(log.Nodes).
func Totals(log *parser.Log) (Report, error) {
	trees, err := EvaluateLog(log)
	if err != nil {
		return Report{}, err
	}
	return Sum(trees)
}

// Sum adds up the cost figures of already evaluated trees
func Sum(trees []*Tree) (Report, error) {
	var total Report
	var err error
	for _, t := range trees {
		if total.NaiveLocal, err = add(total.NaiveLocal, t.Report.NaiveLocal); err != nil {
			return Report{}, err
		}
		if total.NaiveGlobal, err = add(total.NaiveGlobal, t.Report.NaiveGlobal); err != nil {
			return Report{}, err
		}
		if total.Local, err = add(total.Local, t.Report.Local); err != nil {
			return Report{}, err
		}
		if total.Global, err = add(total.Global, t.Report.Global); err != nil {
			return Report{}, err
		}
	}
	return total, nil
}
