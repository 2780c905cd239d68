package label

import (
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// resolveFace returns the caption font face, loading it on first use. The
// configured candidate paths are tried in order; if none parses, the
// builtin bitmap face is used. Resolution never fails.
func (c *Composer) resolveFace() font.Face {
	c.fontOnce.Do(func() {
		size := c.cfg.FontSize
		if size <= 0 {
			size = 16
		}
		for _, path := range c.cfg.FontPaths {
			face, err := loadFace(path, size)
			if err != nil {
				continue
			}
			c.face = face
			return
		}
		c.face = basicfont.Face7x13
	})
	return c.face
}

func loadFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ft, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// lineHeight measures one caption line from the bounding box of an
// ascender+descender probe. The same height is reused for every line so
// the layout does not wobble with the glyphs actually present.
func lineHeight(face font.Face) int {
	bounds, _ := font.BoundString(face, "Ag")
	h := (bounds.Max.Y - bounds.Min.Y).Ceil()
	if h <= 0 {
		h = 16
	}
	return h
}
