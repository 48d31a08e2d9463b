package parser

import (
	"regexp"
	"strconv"
)

// Line patterns. Matching is unanchored at the start so that prefixes
// added by log collectors (timestamps, slot numbers) are tolerated.
var (
	functionStartRegex  = regexp.MustCompile(`Program log: (\w+) \{\s*$`)
	functionEndRegex    = regexp.MustCompile(`Program log: \} // (\w+)\s*$`)
	consumptionRegex    = regexp.MustCompile(`Program consumption: (\d+) units remaining`)
	invokeStartRegex    = regexp.MustCompile(`Program (\w+) invoke \[(\d+)\]`)
	invokeConsumedRegex = regexp.MustCompile(`Program (\w+) consumed (\d+) of (\d+) compute units`)
	invokeEndRegex      = regexp.MustCompile(`Program (\w+) (success|failed)`)
)

// MatchFunctionStart returns the block name of a "Program log: <name> {" line
func MatchFunctionStart(line string) (name string, ok bool) {
	match := functionStartRegex.FindStringSubmatch(line)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// MatchFunctionEnd returns the block name of a "Program log: } // <name>" line
func MatchFunctionEnd(line string) (name string, ok bool) {
	match := functionEndRegex.FindStringSubmatch(line)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// IsFunctionEnd reports whether line closes the block called name
func IsFunctionEnd(line, name string) bool {
	got, ok := MatchFunctionEnd(line)
	return ok && got == name
}

// MatchConsumption returns the reading of a
// "Program consumption: <n> units remaining" line.
func MatchConsumption(line string) (int64, error) {
	match := consumptionRegex.FindStringSubmatch(line)
	if match == nil {
		return 0, ErrNoMatch
	}
	return parseNumber("units remaining", match[1])
}

// MatchInvokeStart returns the program id and depth of a
// "Program <id> invoke [<depth>]" line.
func MatchInvokeStart(line string) (program string, depth int64, err error) {
	match := invokeStartRegex.FindStringSubmatch(line)
	if match == nil {
		return "", 0, ErrNoMatch
	}
	depth, err = parseNumber("invoke depth", match[2])
	if err != nil {
		return "", 0, err
	}
	return match[1], depth, nil
}

// MatchInvokeConsumed parses a
// "Program <id> consumed <spent> of <budget> compute units" line.
func MatchInvokeConsumed(line string) (program string, spent, budget int64, err error) {
	match := invokeConsumedRegex.FindStringSubmatch(line)
	if match == nil {
		return "", 0, 0, ErrNoMatch
	}
	if spent, err = parseNumber("consumed units", match[2]); err != nil {
		return "", 0, 0, err
	}
	if budget, err = parseNumber("compute budget", match[3]); err != nil {
		return "", 0, 0, err
	}
	return match[1], spent, budget, nil
}

// MatchInvokeEnd returns the program id and status of a
// "Program <id> success" or "Program <id> failed..." line.
func MatchInvokeEnd(line string) (program string, status Status, ok bool) {
	match := invokeEndRegex.FindStringSubmatch(line)
	if match == nil {
		return "", "", false
	}
	return match[1], Status(match[2]), true
}

// IsInvokeEnd reports whether line is the terminal line of program
func IsInvokeEnd(line, program string) bool {
	got, _, ok := MatchInvokeEnd(line)
	return ok && got == program
}

func parseNumber(field, s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &NumberError{Field: field, Value: s, Err: err}
	}
	return n, nil
}
