package service

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/sakif/codemaster/internal/model"
)

// Diff compares two contents line by line.
//
// Deltas holds one human-readable entry per changed region, for example
// "[ChangeDelta, position: 2, lines: [a] to [b]]". Unified is the classic
// unified diff with three lines of context, labelled with the version
// numbers.
func Diff(original, revised string, fromVersion, toVersion int) (*model.DiffResult, error) {
	a := splitLines(original)
	b := splitLines(revised)

	result := &model.DiffResult{
		Original: original,
		Revised:  revised,
		Deltas:   make([]string, 0),
	}

	matcher := difflib.NewMatcher(a, b)
	for _, op := range matcher.GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		result.Deltas = append(result.Deltas, describeOp(op, a, b))
	}

	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(revised),
		FromFile: fmt.Sprintf("version %d", fromVersion),
		ToFile:   fmt.Sprintf("version %d", toVersion),
		Context:  3,
	})
	if err != nil {
		return nil, fmt.Errorf("service: building unified diff: %w", err)
	}
	result.Unified = unified

	return result, nil
}

func describeOp(op difflib.OpCode, a, b []string) string {
	from := a[op.I1:op.I2]
	to := b[op.J1:op.J2]
	switch op.Tag {
	case 'd':
		return fmt.Sprintf("[DeleteDelta, position: %d, lines: %s]", op.I1, bracket(from))
	case 'i':
		return fmt.Sprintf("[InsertDelta, position: %d, lines: %s]", op.I1, bracket(to))
	default:
		return fmt.Sprintf("[ChangeDelta, position: %d, lines: %s to %s]", op.I1, bracket(from), bracket(to))
	}
}

func bracket(lines []string) string {
	return "[" + strings.Join(lines, ", ") + "]"
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
