package service

import (
	"regexp"
	"strings"

	"github.com/sakif/codemaster/internal/model"
)

var javaKeywords = map[string]struct{}{}

func init() {
	for _, kw := range strings.Fields(`
		abstract assert boolean break byte case catch char class const
		continue default do double else enum extends final finally float
		for goto if implements import instanceof int interface long native
		new package private protected public return short static strictfp super
		switch synchronized this throw throws transient try void volatile while`) {
		javaKeywords[kw] = struct{}{}
	}
}

var (
	nonWord       = regexp.MustCompile(`\W+`)
	branchWords   = map[string]struct{}{"if": {}, "for": {}, "while": {}, "case": {}, "catch": {}}
	shortCircuits = regexp.MustCompile(`&&|\|\|`)
)

// ComputeMetrics measures a version's content.
//
//   - LOC is the number of lines, counting blank ones.
//   - KeywordCount is the number of words that are Java keywords.
//   - CyclomaticComplexity is 1 plus the number of branch points: the words
//     if, for, while, case and catch, and the operators && and ||.
//
// The counts are lexical; keywords inside strings and comments are counted.
func ComputeMetrics(content string) model.Metrics {
	var m model.Metrics

	if content != "" {
		m.LOC = strings.Count(strings.TrimSuffix(content, "\n"), "\n") + 1
	}

	m.CyclomaticComplexity = 1
	for _, word := range nonWord.Split(content, -1) {
		if _, ok := javaKeywords[word]; ok {
			m.KeywordCount++
		}
		if _, ok := branchWords[word]; ok {
			m.CyclomaticComplexity++
		}
	}
	m.CyclomaticComplexity += len(shortCircuits.FindAllStringIndex(content, -1))

	return m
}
