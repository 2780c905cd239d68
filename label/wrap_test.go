package label

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

func TestWrapTextBlank(t *testing.T) {
	assert.Nil(t, wrapText(basicfont.Face7x13, "", 100))
	assert.Nil(t, wrapText(basicfont.Face7x13, "   ", 100))
}

func TestWrapTextSingleShortLine(t *testing.T) {
	lines := wrapText(basicfont.Face7x13, "Warehouse 7", 400)
	assert.Equal(t, []string{"Warehouse 7"}, lines)
}

func TestWrapTextBreaksAtWidth(t *testing.T) {
	face := basicfont.Face7x13
	text := "north yard loading dock entrance"
	width := font.MeasureString(face, "north yard loading").Ceil()

	lines := wrapText(face, text, width)
	require.Greater(t, len(lines), 1)

	// No line exceeds the limit and no word is lost.
	for _, line := range lines {
		assert.LessOrEqual(t, font.MeasureString(face, line).Ceil(), width)
	}
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(lines, " ")))
}

func TestWrapTextOverwideWordKept(t *testing.T) {
	face := basicfont.Face7x13
	long := strings.Repeat("x", 80)

	lines := wrapText(face, "a "+long+" b", 60)
	require.Len(t, lines, 3)
	assert.Equal(t, long, lines[1], "an overwide word gets its own line, unsplit")
}

func TestWrapTextCollapsesWhitespace(t *testing.T) {
	lines := wrapText(basicfont.Face7x13, "  Depot   North\tYard ", 400)
	assert.Equal(t, []string{"Depot North Yard"}, lines)
}
