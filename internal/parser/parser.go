package parser

import (
	"errors"
	"fmt"
	"log/slog"
)

// cursor is a read position over the input lines. It is passed by value so
// a failed parse attempt leaves the caller's position untouched.
type cursor struct {
	lines []string
	pos   int
}

func (c cursor) remaining() int {
	return len(c.lines) - c.pos
}

// peek returns the line i positions after the current one
func (c cursor) peek(i int) (string, bool) {
	if c.pos+i >= len(c.lines) {
		return "", false
	}
	return c.lines[c.pos+i], true
}

func (c cursor) advance(n int) cursor {
	c.pos += n
	return c
}

type parser struct {
	logger *slog.Logger
}

// Parse builds the call tree for lines. It never fails: every line ends up
// either inside a Function or Invocation node or as an Unknown node.
func Parse(lines []string) *Log {
	return ParseWithLogger(lines, nil)
}

// ParseWithLogger is Parse with fallback decisions traced to logger at
// debug level. A nil logger discards them.
func ParseWithLogger(lines []string, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &parser{logger: logger}

	log := &Log{}
	c := cursor{lines: lines}
	for c.remaining() > 0 {
		var node Node
		node, c = p.dispatch(c)
		log.Nodes = append(log.Nodes, node)
	}
	return log
}

// dispatch parses one node at c: a function block if possible, else an
// invocation, else the single current line as Unknown. It always consumes
// at least one line.
func (p *parser) dispatch(c cursor) (Node, cursor) {
	fn, next, err := p.parseFunction(c)
	if err == nil {
		return fn, next
	}
	p.trace("function", c, err)

	inv, next, err := p.parseInvocation(c)
	if err == nil {
		return inv, next
	}
	p.trace("invocation", c, err)

	line, _ := c.peek(0)
	return &Unknown{Line: line}, c.advance(1)
}

func (p *parser) trace(kind string, c cursor, err error) {
	if errors.Is(err, ErrNoMatch) {
		return
	}
	line, _ := c.peek(0)
	var numErr *NumberError
	if errors.As(err, &numErr) {
		p.logger.Debug("numeric capture rejected", "kind", kind, "line", c.pos+1, "text", line, "error", err)
		return
	}
	p.logger.Debug("block rejected", "kind", kind, "line", c.pos+1, "text", line, "error", err)
}

// parseFunction parses
//
//	Program log: <name> {
//	Program consumption: <start> units remaining
//	<children>
//	Program consumption: <end> units remaining
//	Program log: } // <name>
func (p *parser) parseFunction(c cursor) (*Function, cursor, error) {
	first, _ := c.peek(0)
	name, ok := MatchFunctionStart(first)
	if !ok {
		return nil, c, ErrNoMatch
	}
	if c.remaining() < 2 {
		return nil, c, fmt.Errorf("%w: %s: not enough lines", ErrMalformedFunction, name)
	}

	second, _ := c.peek(1)
	start, err := MatchConsumption(second)
	if err != nil {
		return nil, c, fmt.Errorf("%w: %s: start reading: %w", ErrMalformedFunction, name, err)
	}
	fn := &Function{Name: name, Start: start}
	c = c.advance(2)

	for {
		if next, ok := c.peek(1); ok && IsFunctionEnd(next, name) {
			break
		}
		if _, ok := c.peek(0); !ok {
			return nil, c, fmt.Errorf("%w: %s: no end line", ErrMalformedFunction, name)
		}
		// A close line with no end reading before it is a child like any
		// other line; the block may still close further down.
		var child Node
		child, c = p.dispatch(c)
		fn.Children = append(fn.Children, child)
	}

	line, _ := c.peek(0)
	end, err := MatchConsumption(line)
	if err != nil {
		return nil, c, fmt.Errorf("%w: %s: end reading: %w", ErrMalformedFunction, name, err)
	}
	fn.End = end
	return fn, c.advance(2), nil
}

// parseInvocation parses
//
//	Program <id> invoke [<depth>]
//	<children>
//	[Program <id> consumed <spent> of <budget> compute units]
//	Program <id> success|failed
func (p *parser) parseInvocation(c cursor) (*Invocation, cursor, error) {
	first, _ := c.peek(0)
	program, depth, err := MatchInvokeStart(first)
	if err != nil {
		return nil, c, err
	}
	if c.remaining() < 2 {
		return nil, c, fmt.Errorf("%w: %s: not enough lines", ErrMalformedInvocation, program)
	}
	inv := &Invocation{Program: program, Depth: depth}
	c = c.advance(1)

	for !p.invocationEnds(c, program) {
		if c.remaining() == 0 {
			return nil, c, fmt.Errorf("%w: %s: no end line", ErrMalformedInvocation, program)
		}
		var child Node
		child, c = p.dispatch(c)
		inv.Children = append(inv.Children, child)
	}

	line, _ := c.peek(0)
	if _, status, ok := MatchInvokeEnd(line); ok && IsInvokeEnd(line, program) {
		inv.Status = status
		return inv, c.advance(1), nil
	}

	id, spent, budget, err := MatchInvokeConsumed(line)
	if err != nil {
		return nil, c, fmt.Errorf("%w: %s: accounting line: %w", ErrMalformedInvocation, program, err)
	}
	if id != program {
		return nil, c, fmt.Errorf("%w: %s: accounting line belongs to %s", ErrMalformedInvocation, program, id)
	}
	inv.Consumed = spent
	inv.Budget = budget

	terminal, _ := c.peek(1)
	_, inv.Status, _ = MatchInvokeEnd(terminal)
	return inv, c.advance(2), nil
}

// invocationEnds reports whether the current line or the one after it is
// the terminal line of program.
func (p *parser) invocationEnds(c cursor, program string) bool {
	for i := 0; i < 2; i++ {
		if line, ok := c.peek(i); ok && IsInvokeEnd(line, program) {
			return true
		}
	}
	return false
}
