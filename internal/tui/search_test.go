package tui

import (
	"testing"
)

func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		text   string
		query  string
		expect bool
	}{
		{"function process_instruction", "process", true},
		{"function process_instruction", "prcs", true},
		{"function process_instruction", "instr", true},
		{"invocation tokenkegqfezyinwajbnbgkpfxcwubvf9ss623vq5da success", "tkn", true},
		{"invocation abc failed", "fail", true},
		{"invocation abc failed", "ai", true},
		{"unknown program log: hello", "hlo", true},
		{"function transfer", "xyz", false},
		{"transfer", "trnsfr", true},
		{"transfer", "trnsfx", false},
		{"", "a", false},
		{"abc", "", true},
	}
	for _, tt := range tests {
		got := fuzzyMatch(tt.text, tt.query)
		if got != tt.expect {
			t.Errorf("fuzzyMatch(%q, %q) = %v, want %v", tt.text, tt.query, got, tt.expect)
		}
	}
}

func TestSearchable(t *testing.T) {
	log := parseLines(invocationTree)
	got := searchable(log.Nodes[0])
	if got != "invocation abc success" {
		t.Errorf("searchable() = %q", got)
	}
}
