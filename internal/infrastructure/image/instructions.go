package image

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

// MaxInstructionRunes caps the length of a single image instruction.
const MaxInstructionRunes = 4000

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// DeriveInstructions turns text into count image instructions.
//
// With at least count paragraphs, the paragraphs are grouped into count contiguous
// chunks, earlier chunks taking the remainder. Otherwise the whole text is used for
// every image with a "view i of n" hint so the images differ. A non-blank suffix is
// appended to each instruction.
func DeriveInstructions(text string, count int, suffix string) []string {
	text = strings.TrimSpace(text)
	suffix = strings.TrimSpace(suffix)
	if text == "" || count < 1 {
		return nil
	}

	paragraphs := lo.Compact(lo.Map(paragraphBreak.Split(text, -1), func(p string, _ int) string {
		return strings.TrimSpace(p)
	}))

	instructions := make([]string, 0, count)
	if len(paragraphs) >= count {
		base, extra := len(paragraphs)/count, len(paragraphs)%count
		start := 0
		for i := 0; i < count; i++ {
			size := base
			if i < extra {
				size++
			}
			instructions = append(instructions, strings.Join(paragraphs[start:start+size], "\n\n"))
			start += size
		}
	} else {
		for i := 0; i < count; i++ {
			instructions = append(instructions, fmt.Sprintf("%s\n\n(view %d of %d)", text, i+1, count))
		}
	}

	return lo.Map(instructions, func(body string, _ int) string {
		return withSuffix(body, suffix)
	})
}

// withSuffix appends suffix to body, truncating body so the result stays within
// MaxInstructionRunes.
func withSuffix(body, suffix string) string {
	if suffix != "" {
		budget := MaxInstructionRunes - utf8.RuneCountInString(suffix) - 1
		body = strings.TrimSpace(truncateRunes(body, max(budget, 0)) + " " + suffix)
	}
	return truncateRunes(body, MaxInstructionRunes)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
