// Package label renders printable QR labels: a scannable symbol with up to
// two caption lines (typically a site name and location) wrapped, measured,
// and centered beneath it on a single PNG canvas.
package label

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// ErrEncode indicates the payload could not be encoded into a QR symbol:
// it is empty, or too long for the error-correction level.
var ErrEncode = errors.New("payload cannot be encoded")

// Config holds the layout knobs for label composition. Zero values are not
// usable on their own; start from DefaultConfig.
type Config struct {
	ModuleSize       int      // pixels per QR module
	Border           int      // quiet zone width, in modules
	SidePadding      int      // minimum horizontal inset for caption text
	TopPadding       int      // gap between the symbol and the first caption line
	BottomPadding    int      // gap below the last caption line
	LineGap          int      // vertical gap after each caption line
	BlockGap         int      // extra gap between the two caption blocks
	MinCaptionHeight int      // the caption area never shrinks below this
	FontSize         float64  // point size for TrueType font candidates
	FontPaths        []string // tried in order; the builtin bitmap face is the final fallback
	Foreground       color.Color
	Background       color.Color
}

// DefaultConfig returns the standard layout: 10px modules, a 4-module quiet
// zone, 16pt text, black on white.
func DefaultConfig() Config {
	return Config{
		ModuleSize:       10,
		Border:           4,
		SidePadding:      10,
		TopPadding:       10,
		BottomPadding:    10,
		LineGap:          6,
		BlockGap:         12,
		MinCaptionHeight: 60,
		FontSize:         16,
		FontPaths: []string{
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/TTF/DejaVuSans.ttf",
			"/Library/Fonts/Arial.ttf",
			`C:\Windows\Fonts\arial.ttf`,
		},
		Foreground: color.Black,
		Background: color.White,
	}
}

// Rendered is a composed label image together with its generated identifier
// and the filename the image should be stored under.
type Rendered struct {
	Image    *image.RGBA
	ID       string
	Filename string
}

// Composer turns (payload, captions) into label images. Safe for concurrent
// use: each Compose call allocates its own canvas, and the resolved font
// face is cached once and never mutated afterwards.
type Composer struct {
	cfg      Config
	fontOnce sync.Once
	face     font.Face
}

// NewComposer returns a Composer using the given layout configuration.
func NewComposer(cfg Config) *Composer {
	return &Composer{cfg: cfg}
}

// Compose encodes payload into a QR symbol and lays out up to two caption
// lines beneath it. Empty caption entries contribute no lines and no
// height. Returns an error wrapping ErrEncode when the payload is empty or
// exceeds the symbol capacity; font resolution never fails.
func (c *Composer) Compose(payload string, captions ...string) (*Rendered, error) {
	if payload == "" {
		return nil, fmt.Errorf("%w: payload is empty", ErrEncode)
	}
	if len(captions) > 2 {
		return nil, fmt.Errorf("at most two caption lines are supported, got %d", len(captions))
	}

	symbol, err := c.renderSymbol(payload)
	if err != nil {
		return nil, err
	}
	symW := symbol.Bounds().Dx()
	symH := symbol.Bounds().Dy()

	face := c.resolveFace()
	lh := lineHeight(face)

	// Wrap each caption against the width left after the side insets.
	maxWidth := symW - 2*c.cfg.SidePadding
	blocks := make([][]string, len(captions))
	for i, entry := range captions {
		blocks[i] = wrapText(face, entry, maxWidth)
	}

	captionH := c.captionHeight(blocks, lh)

	canvas := image.NewRGBA(image.Rect(0, 0, symW, symH+captionH))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(c.cfg.Background), image.Point{}, draw.Src)
	draw.Draw(canvas, symbol.Bounds(), symbol, image.Point{}, draw.Src)

	c.drawCaptions(canvas, face, blocks, symH, lh)

	id, err := newID()
	if err != nil {
		return nil, err
	}

	return &Rendered{
		Image:    canvas,
		ID:       id,
		Filename: id + ".png",
	}, nil
}

// renderSymbol encodes payload at the lowest error-correction tier and
// normalizes the encoder output to a plain RGBA buffer with the configured
// quiet zone, so every later paste/draw works on one pixel format.
func (c *Composer) renderSymbol(payload string) (*image.RGBA, error) {
	qr, err := qrcode.New(payload, qrcode.Low)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	// The library's own quiet zone is fixed at 4 modules; render borderless
	// and composite the configured border here instead.
	qr.DisableBorder = true
	qr.ForegroundColor = c.cfg.Foreground
	qr.BackgroundColor = c.cfg.Background

	// A negative size renders each module at that many pixels.
	inner := qr.Image(-c.cfg.ModuleSize)

	quiet := c.cfg.Border * c.cfg.ModuleSize
	b := inner.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx()+2*quiet, b.Dy()+2*quiet))
	draw.Draw(out, out.Bounds(), image.NewUniform(c.cfg.Background), image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(quiet, quiet, quiet+b.Dx(), quiet+b.Dy()), inner, b.Min, draw.Src)
	return out, nil
}

// captionHeight computes the caption block height from the wrapped lines,
// floored at MinCaptionHeight. The inter-block gap is charged only when
// both caption entries produced lines.
func (c *Composer) captionHeight(blocks [][]string, lh int) int {
	h := c.cfg.TopPadding + c.cfg.BottomPadding
	nonEmpty := 0
	for _, lines := range blocks {
		if len(lines) == 0 {
			continue
		}
		nonEmpty++
		h += len(lines) * (lh + c.cfg.LineGap)
	}
	if nonEmpty > 1 {
		h += c.cfg.BlockGap
	}
	if h < c.cfg.MinCaptionHeight {
		h = c.cfg.MinCaptionHeight
	}
	return h
}

// drawCaptions renders the wrapped lines centered under the symbol. The
// left inset is clamped to SidePadding so a line never touches the edge.
func (c *Composer) drawCaptions(canvas *image.RGBA, face font.Face, blocks [][]string, symH, lh int) {
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(c.cfg.Foreground),
		Face: face,
	}
	ascent := face.Metrics().Ascent.Ceil()
	width := canvas.Bounds().Dx()

	y := symH + c.cfg.TopPadding
	drawn := false
	for _, lines := range blocks {
		if len(lines) == 0 {
			continue
		}
		if drawn {
			y += c.cfg.BlockGap
		}
		for _, line := range lines {
			lw := font.MeasureString(face, line).Ceil()
			x := (width - lw) / 2
			if x < c.cfg.SidePadding {
				x = c.cfg.SidePadding
			}
			d.Dot = fixed.P(x, y+ascent)
			d.DrawString(line)
			y += lh + c.cfg.LineGap
		}
		drawn = true
	}
}

// EncodePNG writes the composed image as a PNG. The canvas is fully opaque,
// so the encoder emits a plain RGB image.
func (r *Rendered) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, r.Image); err != nil {
		return fmt.Errorf("encode label png: %w", err)
	}
	return nil
}

// Save writes the label into dir under its generated filename and returns
// the full path. The write is attempted once; retry policy, if any, belongs
// to the caller.
func (r *Rendered) Save(dir string) (string, error) {
	path := filepath.Join(dir, r.Filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create label file: %w", err)
	}
	if err := r.EncodePNG(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close label file: %w", err)
	}
	return path, nil
}

// newID returns a fresh label identifier: 12 hex characters from a
// cryptographically random source, prefixed for readability.
func newID() (string, error) {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate label id: %w", err)
	}
	return "qr_" + hex.EncodeToString(b[:]), nil
}
