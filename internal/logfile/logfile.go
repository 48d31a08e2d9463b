// Package logfile loads program log lines from disk or a stream.
//
// Two layouts are understood. JSON input is either an array of strings, one
// per line, or a transaction object carrying the array under
// meta.logMessages (optionally wrapped in an RPC "result"). Content of any
// other name is JSON only when it is a valid JSON document; anything else is
// read as newline-delimited text.
package logfile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MaxLineSize is the longest text line accepted
const MaxLineSize = 1024 * 1024

// Stdin is the path that selects standard input
const Stdin = "-"

// ErrNoLogMessages is returned for JSON input that holds no log lines
var ErrNoLogMessages = errors.New("json input has no log messages")

type transaction struct {
	Meta *struct {
		LogMessages []string `json:"logMessages"`
	} `json:"meta"`
	Result *transaction `json:"result"`
}

// Read loads the lines of the file at path, or of stdin for "-"
func Read(path string) ([]string, error) {
	if path == Stdin {
		return ReadFrom(os.Stdin, "")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines, err := decode(data, IsJSONPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lines, nil
}

// ReadFrom loads the lines of r. name is only used to pick the layout and
// may be empty.
func ReadFrom(r io.Reader, name string) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return decode(data, IsJSONPath(name))
}

// IsJSONPath reports whether path names a JSON file
func IsJSONPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func decode(data []byte, isJSON bool) ([]string, error) {
	trimmed := bytes.TrimSpace(data)
	if isJSON {
		return decodeJSON(trimmed)
	}
	// Text lines often start with a bracketed timestamp, so content is only
	// taken as JSON when the whole of it parses.
	if (bytes.HasPrefix(trimmed, []byte("[")) || bytes.HasPrefix(trimmed, []byte("{"))) && json.Valid(trimmed) {
		return decodeJSON(trimmed)
	}
	return scanLines(data)
}

func decodeJSON(data []byte) ([]string, error) {
	if bytes.HasPrefix(data, []byte("[")) {
		var lines []string
		if err := json.Unmarshal(data, &lines); err != nil {
			return nil, fmt.Errorf("invalid log array: %w", err)
		}
		return lines, nil
	}

	var tx transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("invalid transaction: %w", err)
	}
	for t := &tx; t != nil; t = t.Result {
		if t.Meta != nil && t.Meta.LogMessages != nil {
			return t.Meta.LogMessages, nil
		}
	}
	return nil, ErrNoLogMessages
}

func scanLines(data []byte) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading lines: %w", err)
	}
	return lines, nil
}
