package parser

// Kind identifies the variant of a Node
type Kind string

const (
	KindFunction   Kind = "function"
	KindInvocation Kind = "invocation"
	KindUnknown    Kind = "unknown"
)

// Status is the terminal status reported for an invocation
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Node is one element of the call tree. The set of implementations is
// closed: *Function, *Invocation and *Unknown.
type Node interface {
	Kind() Kind
	// Nodes returns the direct children in log order.
	Nodes() []Node
	sealed()
}

// Function is an instrumented block bracketed by "Program log: <name> {" and
// "Program log: } // <name>". Start and End are the "units remaining"
// readings taken just inside the brackets.
type Function struct {
	Name     string
	Start    int64
	End      int64
	Children []Node
}

// Invocation is a program call announced by the runtime with an explicit
// depth, closed by a success/failed line and optionally an accounting line.
type Invocation struct {
	Program  string
	Depth    int64
	Consumed int64 // 0 when the invocation closed without an accounting line
	Budget   int64
	Status   Status
	Children []Node
}

// Unknown is a line that matched no grammar rule in its position.
type Unknown struct {
	Line string
}

func (*Function) Kind() Kind   { return KindFunction }
func (*Invocation) Kind() Kind { return KindInvocation }
func (*Unknown) Kind() Kind    { return KindUnknown }

func (f *Function) Nodes() []Node   { return f.Children }
func (i *Invocation) Nodes() []Node { return i.Children }
func (*Unknown) Nodes() []Node      { return nil }

func (*Function) sealed()   {}
func (*Invocation) sealed() {}
func (*Unknown) sealed()    {}

// Name returns the identifier shown for a node: the block name, the program
// id, or the raw line for unknown nodes.
func Name(n Node) string {
	switch n := n.(type) {
	case *Function:
		return n.Name
	case *Invocation:
		return n.Program
	case *Unknown:
		return n.Line
	default:
		return ""
	}
}

// Log is the ordered forest parsed from one sequence of lines
type Log struct {
	Nodes []Node
}

// Stats counts nodes of each kind in a log
type Stats struct {
	Functions   int
	Invocations int
	Unknown     int
	MaxDepth    int
}

// Total returns the number of nodes counted
func (s Stats) Total() int {
	return s.Functions + s.Invocations + s.Unknown
}

// Stats walks the whole tree and counts its nodes
func (l *Log) Stats() Stats {
	var s Stats
	var walk func(nodes []Node, depth int)
	walk = func(nodes []Node, depth int) {
		if len(nodes) > 0 && depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		for _, n := range nodes {
			switch n.Kind() {
			case KindFunction:
				s.Functions++
			case KindInvocation:
				s.Invocations++
			case KindUnknown:
				s.Unknown++
			}
			walk(n.Nodes(), depth+1)
		}
	}
	walk(l.Nodes, 1)
	return s
}
