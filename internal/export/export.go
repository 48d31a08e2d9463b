// Package export writes a parsed log with its cost reports in one of the
// supported output formats.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/CaptShanks/cuprism/internal/cost"
	"github.com/CaptShanks/cuprism/internal/parser"
)

// Format names an output encoding
type Format string

const (
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatFolded Format = "folded"
)

// Formats returns every supported format
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatFolded}
}

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats() {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Ext returns the file extension written for the format
func (f Format) Ext() string {
	switch f {
	case FormatYAML:
		return ".yaml"
	case FormatFolded:
		return ".folded"
	default:
		return ".json"
	}
}

// Options controls Encode
type Options struct {
	Format Format
	// Diagnostics adds the raw start/end readings and the child count to
	// every record.
	Diagnostics bool
}

// Encode writes log to w
func Encode(w io.Writer, log *parser.Log, opts Options) error {
	if opts.Format == FormatFolded {
		return encodeFolded(w, log)
	}

	records, err := Build(log, opts.Diagnostics)
	if err != nil {
		return err
	}

	switch opts.Format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(records)
	default:
		return fmt.Errorf("unknown output format %q", opts.Format)
	}
}

// encodeFolded writes one "frame;frame;frame units" line per node with a
// positive corrected local cost, the input format of flame graph tools.
func encodeFolded(w io.Writer, log *parser.Log) error {
	bw := bufio.NewWriter(w)
	err := cost.Walk(log, func(path []parser.Node, r cost.Report) error {
		if r.Local <= 0 || path[len(path)-1].Kind() == parser.KindUnknown {
			return nil
		}
		for i, n := range path {
			if i > 0 {
				bw.WriteByte(';')
			}
			bw.WriteString(parser.Name(n))
		}
		_, err := fmt.Fprintf(bw, " %d\n", r.Local)
		return err
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}
