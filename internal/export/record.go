package export

import (
	"gopkg.in/yaml.v3"

	"github.com/CaptShanks/cuprism/internal/cost"
	"github.com/CaptShanks/cuprism/internal/parser"
)

// Record is the serialized form of one node: its own fields, its children
// and its cost report flattened into one object.
type Record struct {
	Type   parser.Kind   `json:"type"`
	ID     string        `json:"id,omitempty"`
	Depth  *int64        `json:"depth,omitempty"`
	Status parser.Status `json:"status,omitempty"`
	Line   *string       `json:"line,omitempty"`

	// Children is nil for unknown lines and non-nil, possibly empty, for
	// blocks, so that blocks always carry the key.
	Children []Record `json:"children,omitzero"`

	NaiveLocal  int64 `json:"naive_local"`
	NaiveGlobal int64 `json:"naive_global"`
	Local       int64 `json:"local"`
	Global      int64 `json:"global"`

	// Set only with diagnostics enabled
	Start     *int64 `json:"start,omitempty"`
	End       *int64 `json:"end,omitempty"`
	NChildren *int   `json:"n_children,omitempty"`
}

// Build evaluates log and converts it into records
func Build(log *parser.Log, diagnostics bool) ([]Record, error) {
	trees, err := cost.EvaluateLog(log)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(trees))
	for _, t := range trees {
		records = append(records, newRecord(t, diagnostics))
	}
	return records, nil
}

func newRecord(t *cost.Tree, diagnostics bool) Record {
	r := Record{
		Type:        t.Node.Kind(),
		NaiveLocal:  t.Report.NaiveLocal,
		NaiveGlobal: t.Report.NaiveGlobal,
		Local:       t.Report.Local,
		Global:      t.Report.Global,
	}

	switch n := t.Node.(type) {
	case *parser.Function:
		r.ID = n.Name
	case *parser.Invocation:
		r.ID = n.Program
		depth := n.Depth
		r.Depth = &depth
		r.Status = n.Status
	case *parser.Unknown:
		line := n.Line
		r.Line = &line
	}

	if t.Node.Kind() != parser.KindUnknown {
		r.Children = make([]Record, 0, len(t.Children))
		for _, c := range t.Children {
			r.Children = append(r.Children, newRecord(c, diagnostics))
		}
	}

	if diagnostics {
		start, end, n := t.Report.Start, t.Report.End, t.Report.NChildren
		r.Start, r.End, r.NChildren = &start, &end, &n
	}
	return r
}

// MarshalYAML writes the record with the same keys, in the same order and
// with the same omission rules as its JSON form.
func (r Record) MarshalYAML() (any, error) {
	m := &mapping{node: &yaml.Node{Kind: yaml.MappingNode}}

	m.add("type", r.Type)
	if r.ID != "" {
		m.add("id", r.ID)
	}
	if r.Depth != nil {
		m.add("depth", *r.Depth)
	}
	if r.Status != "" {
		m.add("status", r.Status)
	}
	if r.Line != nil {
		m.add("line", *r.Line)
	}
	if r.Children != nil {
		m.add("children", r.Children)
	}
	m.add("naive_local", r.NaiveLocal)
	m.add("naive_global", r.NaiveGlobal)
	m.add("local", r.Local)
	m.add("global", r.Global)
	if r.Start != nil {
		m.add("start", *r.Start)
	}
	if r.End != nil {
		m.add("end", *r.End)
	}
	if r.NChildren != nil {
		m.add("n_children", *r.NChildren)
	}

	if m.err != nil {
		return nil, m.err
	}
	return m.node, nil
}

type mapping struct {
	node *yaml.Node
	err  error
}

func (m *mapping) add(key string, value any) {
	if m.err != nil {
		return
	}
	var v yaml.Node
	if err := v.Encode(value); err != nil {
		m.err = err
		return
	}
	m.node.Content = append(m.node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&v)
}
