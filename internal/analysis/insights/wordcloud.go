package insights

import (
	"bytes"
	"encoding/base64"
	"image/color"
	"image/png"
	"os"

	"github.com/psykhi/wordclouds"
	"go.uber.org/zap"

	"github.com/OksanaKunikevych/nebula/pkg/logger"
)

var cloudColors = []color.Color{
	color.RGBA{0x1f, 0x77, 0xb4, 0xff},
	color.RGBA{0xff, 0x7f, 0x0e, 0xff},
	color.RGBA{0x2c, 0xa0, 0x2c, 0xff},
	color.RGBA{0xd6, 0x27, 0x28, 0xff},
	color.RGBA{0x94, 0x67, 0xbd, 0xff},
}

// renderWordCloud rasterizes keyword frequencies into a PNG and returns it
// base64-encoded for direct embedding in JSON. Returns "" (no image) when
// there are no eligible keywords or the font file is unavailable.
func (g *Generator) renderWordCloud(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}

	if _, err := os.Stat(g.fontPath); err != nil {
		logger.Warn("Word cloud font unavailable, skipping image",
			zap.String("font_path", g.fontPath),
			zap.Error(err),
		)
		return ""
	}

	if len(counts) > g.cloudMaxWords {
		trimmed := make(map[string]int, g.cloudMaxWords)
		for _, word := range topKeywords(counts, g.cloudMaxWords) {
			trimmed[word] = counts[word]
		}
		counts = trimmed
	}

	cloud := wordclouds.NewWordcloud(counts,
		wordclouds.FontFile(g.fontPath),
		wordclouds.FontMaxSize(120),
		wordclouds.FontMinSize(12),
		wordclouds.Width(g.cloudWidth),
		wordclouds.Height(g.cloudHeight),
		wordclouds.Colors(cloudColors),
		wordclouds.BackgroundColor(color.White),
	)

	img := cloud.Draw()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		logger.Warn("Failed to encode word cloud image", zap.Error(err))
		return ""
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
