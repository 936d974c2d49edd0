// Package compiler validates Java source code and reports syntax errors.
//
// A Checker returns the compiler's error diagnostics as "Line N: message"
// strings. An empty slice means the code compiled. The error return is
// reserved for infrastructure failures (no container, daemon gone), never
// for problems in the submitted code.
package compiler

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// UnavailableMessage is the single diagnostic returned when no compiler
// backend could be started.
const UnavailableMessage = "Java Compiler not available. Make sure you are running with JDK, not JRE."

// DefaultClassName names the source file when the code declares no public
// top-level type.
const DefaultClassName = "Main"

// Checker compiles code and returns its error diagnostics.
type Checker interface {
	Check(ctx context.Context, code string) ([]string, error)
}

// Unavailable is the fallback Checker used when Docker cannot be reached.
type Unavailable struct{}

var _ Checker = Unavailable{}

func (Unavailable) Check(context.Context, string) ([]string, error) {
	return []string{UnavailableMessage}, nil
}

var (
	publicType = regexp.MustCompile(`(?m)^\s*public\s+(?:(?:abstract|final|sealed|non-sealed|static|strictfp)\s+)*(?:class|interface|enum|record|@interface)\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	diagnostic = regexp.MustCompile(`^(?:.*[/\\])?[^/\\:]+\.java:(\d+): error: (.*)$`)
)

// SourceFileName returns the file name javac expects for code: the public
// top-level type's name plus ".java".
func SourceFileName(code string) string {
	if m := publicType.FindStringSubmatch(code); m != nil {
		return m[1] + ".java"
	}
	return DefaultClassName + ".java"
}

// ParseDiagnostics extracts error diagnostics from javac output.
//
// javac prints each diagnostic as "File.java:LINE: error: MESSAGE" followed
// by the offending source line and a caret; only the first line is kept.
// Warnings and notes are dropped. When javac failed but printed nothing in
// that shape (bad flags, crashed VM), the trimmed output is returned as one
// entry so the failure is not reported as success.
func ParseDiagnostics(output string, exitCode int) []string {
	diags := make([]string, 0)
	for _, line := range strings.Split(output, "\n") {
		m := diagnostic.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		diags = append(diags, fmt.Sprintf("Line %s: %s", m[1], m[2]))
	}

	if len(diags) == 0 && exitCode != 0 {
		if out := strings.TrimSpace(output); out != "" {
			diags = append(diags, out)
		} else {
			diags = append(diags, fmt.Sprintf("javac exited with status %d", exitCode))
		}
	}
	return diags
}
