package label

import (
	"strings"

	"golang.org/x/image/font"
)

// wrapText greedily packs words into lines no wider than maxWidth when
// rendered with face. A single word wider than maxWidth still gets its own
// line; words are never split or dropped. Returns nil for blank text.
func wrapText(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	var cur []string
	for _, w := range words {
		test := w
		if len(cur) > 0 {
			test = strings.Join(cur, " ") + " " + w
		}
		if font.MeasureString(face, test).Ceil() <= maxWidth || len(cur) == 0 {
			cur = append(cur, w)
			continue
		}
		lines = append(lines, strings.Join(cur, " "))
		cur = []string{w}
	}
	lines = append(lines, strings.Join(cur, " "))
	return lines
}
