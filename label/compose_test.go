package label

import (
	"bytes"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig disables font file lookup so every run uses the builtin
// bitmap face and produces identical metrics on any machine.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.FontPaths = nil
	return cfg
}

func TestComposeEmptyPayload(t *testing.T) {
	c := NewComposer(testConfig())

	_, err := c.Compose("")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEncode)
}

func TestComposeOversizedPayload(t *testing.T) {
	c := NewComposer(testConfig())

	_, err := c.Compose(strings.Repeat("x", 8000))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEncode)
}

func TestComposeTooManyCaptions(t *testing.T) {
	c := NewComposer(testConfig())

	_, err := c.Compose("https://example.com", "a", "b", "c")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEncode)
}

func TestComposeNoCaptionsUsesMinimumCaptionHeight(t *testing.T) {
	cfg := testConfig()
	c := NewComposer(cfg)

	r, err := c.Compose("https://example.com/site/1")
	require.NoError(t, err)

	b := r.Image.Bounds()
	assert.Equal(t, b.Dx()+cfg.MinCaptionHeight, b.Dy(),
		"empty caption area must still reserve the minimum height")
}

func TestComposeSymbolHasQuietZone(t *testing.T) {
	cfg := testConfig()
	c := NewComposer(cfg)

	r, err := c.Compose("https://example.com/site/1")
	require.NoError(t, err)

	// Every pixel inside the quiet zone band must be background.
	quiet := cfg.Border * cfg.ModuleSize
	w := r.Image.Bounds().Dx()
	white := color.RGBA{255, 255, 255, 255}
	for x := 0; x < w; x++ {
		for y := 0; y < quiet; y++ {
			assert.Equal(t, white, r.Image.RGBAAt(x, y))
		}
	}
	for y := 0; y < w; y++ {
		for x := 0; x < quiet; x++ {
			assert.Equal(t, white, r.Image.RGBAAt(x, y))
		}
	}
}

func TestComposeCaptionHeightFormula(t *testing.T) {
	cfg := testConfig()
	c := NewComposer(cfg)

	r, err := c.Compose("https://example.com/site/7", "Warehouse 7", "Springfield")
	require.NoError(t, err)

	lh := lineHeight(c.resolveFace())
	expected := cfg.TopPadding +
		1*(lh+cfg.LineGap) + cfg.BlockGap + 1*(lh+cfg.LineGap) +
		cfg.BottomPadding
	if expected < cfg.MinCaptionHeight {
		expected = cfg.MinCaptionHeight
	}

	b := r.Image.Bounds()
	assert.Equal(t, b.Dx()+expected, b.Dy())
}

func TestComposeCaptionsAreDrawn(t *testing.T) {
	cfg := testConfig()
	c := NewComposer(cfg)

	plain, err := c.Compose("https://example.com/site/7")
	require.NoError(t, err)
	labeled, err := c.Compose("https://example.com/site/7", "Warehouse 7", "Springfield")
	require.NoError(t, err)

	symH := plain.Image.Bounds().Dx() // square symbol, so Dx == symbol height
	dark := 0
	b := labeled.Image.Bounds()
	for y := symH; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			px := labeled.Image.RGBAAt(x, y)
			if px.R < 128 {
				dark++
			}
		}
	}
	assert.Positive(t, dark, "caption area should contain rendered text")
}

func TestComposeEmptyCaptionsEqualNoCaptions(t *testing.T) {
	c := NewComposer(testConfig())

	a, err := c.Compose("https://example.com/site/9")
	require.NoError(t, err)
	b, err := c.Compose("https://example.com/site/9", "", "")
	require.NoError(t, err)

	assert.Equal(t, a.Image.Bounds(), b.Image.Bounds())
	assert.Equal(t, a.Image.Pix, b.Image.Pix,
		"blank caption entries must not change the rendered pixels")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestComposeDeterministicPixels(t *testing.T) {
	c := NewComposer(testConfig())

	a, err := c.Compose("https://example.com/site/9", "Depot", "North Yard")
	require.NoError(t, err)
	b, err := c.Compose("https://example.com/site/9", "Depot", "North Yard")
	require.NoError(t, err)

	assert.Equal(t, a.Image.Pix, b.Image.Pix)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestNewIDFormatAndUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id, err := newID()
		require.NoError(t, err)
		assert.Len(t, id, len("qr_")+12)
		assert.True(t, strings.HasPrefix(id, "qr_"))
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestRenderedFilename(t *testing.T) {
	c := NewComposer(testConfig())

	r, err := c.Compose("https://example.com")
	require.NoError(t, err)
	assert.Equal(t, r.ID+".png", r.Filename)
}

func TestEncodePNG(t *testing.T) {
	c := NewComposer(testConfig())

	r, err := c.Compose("https://example.com")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.EncodePNG(&buf))

	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, r.Image.Bounds(), decoded.Bounds())
}

func TestSave(t *testing.T) {
	c := NewComposer(testConfig())

	r, err := c.Compose("https://example.com")
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := r.Save(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, r.Filename), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.Decode(f)
	require.NoError(t, err)
}

func TestSaveMissingDir(t *testing.T) {
	c := NewComposer(testConfig())

	r, err := c.Compose("https://example.com")
	require.NoError(t, err)

	_, err = r.Save(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
