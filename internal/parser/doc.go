// Package parser reconstructs the call tree of a program log. It classifies
// each line against a small fixed grammar (invocation start/accounting/end,
// instrumented block open/close, compute unit readings) and builds a forest
// of Function, Invocation and Unknown nodes with a recursive-descent parser
// that never fails: lines it cannot place become Unknown nodes.
package parser
