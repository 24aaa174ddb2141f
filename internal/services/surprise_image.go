package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/HammerMeetNail/birthdaysurprise/internal/models"
)

var (
	fontOnce      sync.Once
	parsedGoFont  *opentype.Font
	parsedGoError error
)

var (
	previewBackground = color.RGBA{0xFF, 0xF4, 0xF8, 0xFF}
	previewInk        = color.RGBA{0x2D, 0x2D, 0x2D, 0xFF}
	previewMuted      = color.RGBA{0x6B, 0x6B, 0x6B, 0xFF}
	previewAccent     = color.RGBA{0xEC, 0x48, 0x99, 0xFF}
	previewBox        = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
)

// RenderSurprisePNG renders the link-unfurl preview for a surprise: a
// greeting, the birthday message and one box per gift label.
func RenderSurprisePNG(cfg models.SurpriseConfig) ([]byte, error) {
	const width = 1200
	const height = 630
	const padding = 48
	const borderWidth = 3
	const boxGap = 24
	const boxHeight = 150

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: previewBackground}, image.Point{}, draw.Src)

	headerFace, err := newFontFace(56)
	if err != nil {
		return nil, err
	}
	defer func() { _ = headerFace.Close() }()

	bodyFace, err := newFontFace(28)
	if err != nil {
		return nil, err
	}
	defer func() { _ = bodyFace.Close() }()

	labelFace, err := newFontFace(22)
	if err != nil {
		return nil, err
	}
	defer func() { _ = labelFace.Close() }()

	header := models.Greeting(cfg.RecipientName)
	headerLines := clampLines(headerFace, wrapText(headerFace, header, width-padding*2), 1, width-padding*2)
	drawText(img, headerFace, padding, padding+56, headerLines[0], previewAccent)

	if target := cfg.Target(); !target.IsZero() {
		opens := "Opens " + target.UTC().Format("Jan 2, 2006 15:04 MST")
		drawText(img, labelFace, padding, padding+96, opens, previewMuted)
	}

	messageRect := image.Rect(padding, padding+120, width-padding, height-padding-boxHeight-boxGap)
	message := strings.TrimSpace(cfg.BirthdayMessage)
	if message != "" {
		lines := wrapText(bodyFace, message, messageRect.Dx())
		maxLines := messageRect.Dy() / bodyFace.Metrics().Height.Ceil()
		if maxLines < 1 {
			maxLines = 1
		}
		lines = clampLines(bodyFace, lines, maxLines, messageRect.Dx())
		drawWrappedText(img, bodyFace, messageRect, lines, previewInk)
	}

	gifts := cfg.Gifts
	if len(gifts) == 0 {
		gifts = models.FallbackGifts()
	}
	if len(gifts) > maxPreviewBoxes {
		gifts = gifts[:maxPreviewBoxes]
	}
	boxWidth := (width - padding*2 - boxGap*(len(gifts)-1)) / len(gifts)
	top := height - padding - boxHeight
	for i, gift := range gifts {
		left := padding + i*(boxWidth+boxGap)
		rect := image.Rect(left, top, left+boxWidth, top+boxHeight)
		draw.Draw(img, rect, &image.Uniform{C: previewBox}, image.Point{}, draw.Src)
		drawBorder(img, rect, borderWidth, previewAccent)

		label := strings.TrimSpace(gift.Label)
		if label == "" {
			label = "Mystery Box"
		}
		textRect := rect.Inset(12)
		lines := clampLines(labelFace, wrapText(labelFace, label, textRect.Dx()), 2, textRect.Dx())
		drawWrappedText(img, labelFace, textRect, lines, previewInk)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

const maxPreviewBoxes = 4

func newFontFace(size float64) (*opentype.Face, error) {
	fontOnce.Do(func() {
		parsedGoFont, parsedGoError = opentype.Parse(goregular.TTF)
	})
	if parsedGoError != nil {
		return nil, fmt.Errorf("parse font: %w", parsedGoError)
	}
	face, err := opentype.NewFace(parsedGoFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("load font face: %w", err)
	}
	otFace, ok := face.(*opentype.Face)
	if !ok {
		return nil, fmt.Errorf("load font face: unexpected type")
	}
	return otFace, nil
}

func drawText(img draw.Image, face font.Face, x, y int, text string, clr color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(clr),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func drawBorder(img draw.Image, rect image.Rectangle, width int, clr color.Color) {
	border := image.NewUniform(clr)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+width), border, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Max.Y-width, rect.Max.X, rect.Max.Y), border, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+width, rect.Max.Y), border, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Max.X-width, rect.Min.Y, rect.Max.X, rect.Max.Y), border, image.Point{}, draw.Src)
}

func wrapText(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}
	}

	d := &font.Drawer{Face: face}
	lines := []string{}
	current := words[0]

	for _, word := range words[1:] {
		test := current + " " + word
		if d.MeasureString(test).Ceil() <= maxWidth {
			current = test
			continue
		}
		lines = append(lines, current)
		current = word
	}
	lines = append(lines, current)
	return lines
}

func clampLines(face font.Face, lines []string, maxLines int, maxWidth int) []string {
	if len(lines) <= maxLines {
		return lines
	}
	lines = lines[:maxLines]
	last := lines[maxLines-1]
	ellipsis := "..."
	d := &font.Drawer{Face: face}

	runes := []rune(last)
	for d.MeasureString(string(runes)+ellipsis).Ceil() > maxWidth && len(runes) > 0 {
		runes = runes[:len(runes)-1]
	}
	lines[maxLines-1] = strings.TrimSpace(string(runes)) + ellipsis
	return lines
}

func drawWrappedText(img draw.Image, face font.Face, rect image.Rectangle, lines []string, clr color.Color) {
	if len(lines) == 0 {
		return
	}
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	textHeight := lineHeight * len(lines)
	startY := rect.Min.Y + (rect.Dy()-textHeight)/2 + metrics.Ascent.Ceil()

	for i, line := range lines {
		lineWidth := font.MeasureString(face, line).Ceil()
		x := rect.Min.X + (rect.Dx()-lineWidth)/2
		y := startY + i*lineHeight
		drawText(img, face, x, y, line, clr)
	}
}
