package aggregator

import (
	"unicode"

	"golang.org/x/text/width"
)

// cjkRanges are the Unicode range tables whose members are counted as
// one word per rune rather than merged into a run, since CJK text has
// no inter-word spacing: each CJK ideograph or syllable counts as one
// word. Grounded on the fold/classify style of ryansgi-swearjar's
// internal/core/normalize package, minus the leet-speak folding that
// package does for a different purpose.
var cjkRanges = []*unicode.RangeTable{
	unicode.Han,
	unicode.Hiragana,
	unicode.Katakana,
	unicode.Hangul,
}

func isCJK(r rune) bool {
	return unicode.In(r, cjkRanges...)
}

// countWords returns a Unicode-aware word count: contiguous runs of
// Latin-style letters/digits count as one word each, fullwidth forms
// are folded to their ASCII equivalent before classification, and every
// individual CJK ideograph/syllable counts as its own word.
func countWords(s string) int {
	count := 0
	inRun := false
	for _, r := range s {
		if folded := width.LookupRune(r).Folded(); folded != 0 {
			r = folded // fold fullwidth/halfwidth forms to their canonical width
		}
		switch {
		case isCJK(r):
			count++
			inRun = false
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			if !inRun {
				count++
				inRun = true
			}
		default:
			inRun = false
		}
	}
	return count
}
