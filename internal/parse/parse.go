// Package parse converts raw pages scraped from a switch's web console into
// typed structures. The console has no API: status lives in ad hoc tables and
// script-like object literals whose shape varies between firmware revisions.
//
// Every parser here is a pure function of its input text. Parsers never
// return an error and never panic past their boundary; malformed input yields
// a fully defaulted structure whose ParseQuality flag records the degradation
// so callers can log it.
package parse

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

// DefaultMaxPorts is assumed when a page does not reveal the port count.
const DefaultMaxPorts = 24

// columnSep is the column delimiter used by the tabular page formats.
const columnSep = "|"

// lines splits raw text into trimmed lines, dropping blank ones.
func lines(raw string) []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(raw))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// columns splits a table row on the column delimiter and trims each cell.
func columns(row string) []string {
	parts := strings.Split(row, columnSep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// isSeparatorRow reports whether a line is a table rule such as
// "-----+-----" or "=====".
func isSeparatorRow(line string) bool {
	trimmed := strings.Trim(line, "-=+ \t")
	return trimmed == "" && strings.Trim(line, " \t") != ""
}

// parseMask parses a membership mask written as decimal or 0x-prefixed hex.
func parseMask(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// arrayPattern matches `key:[ ... ]` blocks in the structured page formats.
func arrayPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(key + `\s*:\s*\[([^\]]*)\]`)
}

// scalarPattern matches `key:value` scalars in the structured page formats.
func scalarPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(key + `\s*:\s*([0-9]+)`)
}

// extractRawArray returns the comma-separated element list of `key:[...]`,
// or false when the block is absent.
func extractRawArray(raw, key string) ([]string, bool) {
	m := arrayPattern(key).FindStringSubmatch(raw)
	if m == nil {
		return nil, false
	}
	body := strings.TrimSpace(m[1])
	if body == "" {
		return []string{}, true
	}
	parts := strings.Split(body, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, true
}

// extractIntArray parses `key:[...]` as integers. Elements that fail to parse
// are dropped rather than aborting the whole array.
func extractIntArray(raw, key string) ([]int, bool) {
	parts, ok := extractRawArray(raw, key)
	if !ok {
		return nil, false
	}
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		if n, err := strconv.Atoi(p); err == nil {
			out = append(out, n)
		}
	}
	return out, true
}

// extractStringArray parses `key:[...]` as (optionally quoted) strings.
func extractStringArray(raw, key string) ([]string, bool) {
	parts, ok := extractRawArray(raw, key)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.Trim(p, `"'`))
	}
	return out, true
}

// extractScalar parses a `key:value` integer scalar.
func extractScalar(raw, key string) (int, bool) {
	m := scalarPattern(key).FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// expandPortRange expands a comma-separated list of single ports and
// `start-end` ranges into a deduplicated ascending port list.
// Unparseable elements are skipped.
func expandPortRange(spec string) []int {
	seen := make(map[int]bool)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if start, end, ok := strings.Cut(part, "-"); ok {
			lo, err1 := strconv.Atoi(strings.TrimSpace(start))
			hi, err2 := strconv.Atoi(strings.TrimSpace(end))
			if err1 != nil || err2 != nil || lo > hi {
				continue
			}
			for p := lo; p <= hi; p++ {
				seen[p] = true
			}
			continue
		}
		if p, err := strconv.Atoi(part); err == nil {
			seen[p] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]int, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sortInts(out)
	return out
}

// sortInts is an insertion sort; port lists are tiny.
func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
