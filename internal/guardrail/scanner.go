// Package guardrail scans changed files for forbidden patterns that
// indicate an agent is cheating its way past verification: suppressed
// type errors, disabled lint rules, skipped or focused tests.
//
// Scanning is pure file reads, no subprocess spawn. It runs before the
// lint/typecheck/test steps so a violation can short-circuit them.
package guardrail

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Violation records a single forbidden-pattern match in a changed file.
type Violation struct {
	Path    string `json:"path"`
	Rule    string `json:"rule"`
	Matched string `json:"matched"`
}

// Report is the outcome of scanning a set of changed paths.
//
// Warnings lists paths that could not be read (deleted files are
// expected during an attempt); they are skipped, not failed.
type Report struct {
	Violations []Violation
	Warnings   []string
}

// Clean reports whether the scan found no violations.
func (r Report) Clean() bool {
	return len(r.Violations) == 0
}

// Summary returns a short human-readable description of the violations.
func (r Report) Summary() string {
	if r.Clean() {
		return "no guardrail violations"
	}
	parts := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		parts = append(parts, v.Path+": "+v.Rule)
	}
	return strings.Join(parts, "; ")
}

// rule is one forbidden-pattern entry in the fixed rule table.
type rule struct {
	name       string
	pattern    *regexp.Regexp
	extensions map[string]bool
	testOnly   bool // only applies to test files
}

var rules = []rule{
	{
		name:       "ts-suppression",
		pattern:    regexp.MustCompile(`@ts-(ignore|expect-error|nocheck)`),
		extensions: extSet(".ts", ".tsx", ".js", ".jsx"),
	},
	{
		name:       "eslint-disable",
		pattern:    regexp.MustCompile(`eslint-disable`),
		extensions: extSet(".ts", ".tsx", ".js", ".jsx"),
	},
	{
		name:       "test-skip",
		pattern:    regexp.MustCompile(`\b(?:it|test|describe)\.(?:skip|only)\(|\bx(?:it|describe)\(`),
		extensions: extSet(".ts", ".tsx", ".js", ".jsx"),
		testOnly:   true,
	},
	{
		name:       "py-type-ignore",
		pattern:    regexp.MustCompile(`#\s*type:\s*ignore`),
		extensions: extSet(".py"),
	},
	{
		name:       "py-noqa",
		pattern:    regexp.MustCompile(`#\s*noqa`),
		extensions: extSet(".py"),
	},
	{
		name:       "py-test-skip",
		pattern:    regexp.MustCompile(`@pytest\.mark\.skip|@unittest\.skip`),
		extensions: extSet(".py"),
	},
	{
		name:       "go-nolint",
		pattern:    regexp.MustCompile(`//nolint`),
		extensions: extSet(".go"),
	},
	{
		name:       "go-test-skip",
		pattern:    regexp.MustCompile(`\bt\.Skip\(`),
		extensions: extSet(".go"),
		testOnly:   true,
	},
}

func extSet(exts ...string) map[string]bool {
	m := make(map[string]bool, len(exts))
	for _, e := range exts {
		m[e] = true
	}
	return m
}

// Scanner checks changed files against the forbidden-pattern rule table.
type Scanner struct {
	baseDir string
}

// NewScanner creates a Scanner that resolves relative paths against baseDir.
func NewScanner(baseDir string) *Scanner {
	return &Scanner{baseDir: baseDir}
}

// Scan reads each changed path and tests its content against every rule
// that applies to the path's extension. Paths that cannot be read are
// recorded as warnings and skipped; a deleted file must not fail the scan.
func (s *Scanner) Scan(paths []string) Report {
	var report Report
	for _, p := range paths {
		full := p
		if !filepath.IsAbs(p) && s.baseDir != "" {
			full = filepath.Join(s.baseDir, p)
		}

		data, err := os.ReadFile(full)
		if err != nil {
			report.Warnings = append(report.Warnings, p)
			continue
		}

		report.Violations = append(report.Violations, ScanContent(p, string(data))...)
	}
	return report
}

// ScanContent tests pre-loaded file content against the rule table.
// Exposed so callers holding diff hunks can scan without re-reading files.
func ScanContent(path, content string) []Violation {
	ext := strings.ToLower(filepath.Ext(path))
	test := isTestFile(path)

	var violations []Violation
	for _, r := range rules {
		if !r.extensions[ext] {
			continue
		}
		if r.testOnly && !test {
			continue
		}
		if m := r.pattern.FindString(content); m != "" {
			violations = append(violations, Violation{
				Path:    path,
				Rule:    r.name,
				Matched: m,
			})
		}
	}
	return violations
}

// isTestFile reports whether the path names a test file by convention.
func isTestFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(base, "_test.go"):
		return true
	case strings.Contains(base, ".test."), strings.Contains(base, ".spec."):
		return true
	case strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py"):
		return true
	}
	return false
}
