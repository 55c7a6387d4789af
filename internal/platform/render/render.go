package render

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"image/jpeg"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	types "github.com/yungbote/travel-companion-backend/internal/domain"
	"github.com/yungbote/travel-companion-backend/internal/domain/itinerary"
	"github.com/yungbote/travel-companion-backend/internal/observability"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
)

// ItineraryRenderer turns an itinerary into a printable document.
type ItineraryRenderer interface {
	RenderPDF(ctx context.Context, it *types.Itinerary) ([]byte, error)
}

// A4 at 150 dpi.
const (
	pageWidthPx  = 1240
	pageHeightPx = 1754
	marginPx     = 96
	jpegQuality  = 85
)

var (
	colorInk    = color.RGBA{R: 0x1f, G: 0x29, B: 0x37, A: 0xff}
	colorMuted  = color.RGBA{R: 0x6b, G: 0x72, B: 0x80, A: 0xff}
	colorAccent = color.RGBA{R: 0x0e, G: 0x74, B: 0x90, A: 0xff}
	colorRule   = color.RGBA{R: 0xd1, G: 0xd5, B: 0xdb, A: 0xff}
)

type itineraryRenderer struct {
	log     *logger.Logger
	regular *truetype.Font
	bold    *truetype.Font
}

func NewItineraryRenderer(log *logger.Logger) (ItineraryRenderer, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}
	return &itineraryRenderer{
		log:     log.With("service", "ItineraryRenderer"),
		regular: regular,
		bold:    bold,
	}, nil
}

// faces are created per render; truetype faces cache glyphs and are not safe
// for concurrent use.
type faces struct {
	title   font.Face
	heading font.Face
	body    font.Face
	small   font.Face
	strong  font.Face
}

func (r *itineraryRenderer) newFaces() faces {
	face := func(f *truetype.Font, size float64) font.Face {
		return truetype.NewFace(f, &truetype.Options{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingNone,
		})
	}
	return faces{
		title:   face(r.bold, 64),
		heading: face(r.bold, 40),
		body:    face(r.regular, 28),
		small:   face(r.regular, 24),
		strong:  face(r.bold, 28),
	}
}

// RenderPDF draws a cover page followed by one page per day.
func (r *itineraryRenderer) RenderPDF(ctx context.Context, it *types.Itinerary) (out []byte, err error) {
	if it == nil {
		return nil, fmt.Errorf("itinerary required")
	}
	ctx, span := observability.StartSpan(ctx, "render.itinerary_pdf")
	defer func() { observability.EndSpan(span, err) }()

	fc := r.newFaces()
	pages := make([]pdfPage, 0, len(it.Days)+1)

	cover, err := encodePage(r.drawCover(fc, it))
	if err != nil {
		return nil, err
	}
	pages = append(pages, cover)

	for i := range it.Days {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := encodePage(r.drawDay(fc, it, it.Days[i]))
		if err != nil {
			return nil, fmt.Errorf("day %d: %w", it.Days[i].DayNumber, err)
		}
		pages = append(pages, p)
	}

	out, err = encodePDF(pages)
	if err != nil {
		return nil, err
	}
	r.log.Debug("Rendered itinerary", "pages", len(pages), "bytes", len(out))
	return out, nil
}

func newPage() *gg.Context {
	dc := gg.NewContext(pageWidthPx, pageHeightPx)
	dc.SetColor(color.White)
	dc.Clear()
	return dc
}

func encodePage(dc *gg.Context) (pdfPage, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return pdfPage{}, fmt.Errorf("failed to encode page: %w", err)
	}
	return pdfPage{jpeg: buf.Bytes()}, nil
}

// cursor tracks the baseline while laying out text top to bottom.
type cursor struct {
	dc *gg.Context
	y  float64
}

const contentWidth = pageWidthPx - 2*marginPx

func (c *cursor) line(face font.Face, clr color.Color, s string) {
	c.dc.SetFontFace(face)
	c.dc.SetColor(clr)
	c.y += c.dc.FontHeight() * 1.35
	c.dc.DrawString(s, marginPx, c.y)
}

func (c *cursor) wrapped(face font.Face, clr color.Color, s string, indent float64) {
	if strings.TrimSpace(s) == "" {
		return
	}
	c.dc.SetFontFace(face)
	c.dc.SetColor(clr)
	for _, ln := range c.dc.WordWrap(s, contentWidth-indent) {
		c.y += c.dc.FontHeight() * 1.35
		c.dc.DrawString(ln, marginPx+indent, c.y)
	}
}

func (c *cursor) rule() {
	c.y += 24
	c.dc.SetColor(colorRule)
	c.dc.SetLineWidth(2)
	c.dc.DrawLine(marginPx, c.y, pageWidthPx-marginPx, c.y)
	c.dc.Stroke()
	c.y += 8
}

func (c *cursor) gap(px float64) { c.y += px }

func (c *cursor) full(reserve float64) bool {
	return c.y+reserve > pageHeightPx-marginPx
}

func (r *itineraryRenderer) drawCover(fc faces, it *types.Itinerary) *gg.Context {
	dc := newPage()
	dc.SetColor(colorAccent)
	dc.DrawRectangle(0, 0, pageWidthPx, 24)
	dc.Fill()

	c := &cursor{dc: dc, y: marginPx + 40}
	title := strings.TrimSpace(it.Title)
	if title == "" {
		title = "Trip to " + it.Destination
	}
	c.dc.SetFontFace(fc.title)
	c.dc.SetColor(colorInk)
	for _, ln := range c.dc.WordWrap(title, contentWidth) {
		c.y += c.dc.FontHeight() * 1.2
		c.dc.DrawString(ln, marginPx, c.y)
	}
	c.gap(16)
	c.line(fc.heading, colorAccent, it.Destination)
	c.line(fc.body, colorMuted, fmt.Sprintf("%s to %s  |  %d %s", it.StartDate, it.EndDate, it.DurationDays, plural(it.DurationDays, "day", "days")))
	c.line(fc.body, colorMuted, fmt.Sprintf("%d %s  |  %s", it.Travelers, plural(it.Travelers, "traveler", "travelers"), strings.ToUpper(it.Status)))
	c.rule()

	b := it.Budget.Data()
	c.line(fc.heading, colorInk, "Budget")
	c.line(fc.strong, colorInk, "Estimated total: "+money(b.Currency, b.TotalEstimated))
	if b.Basis == itinerary.BasisAIEstimate {
		c.line(fc.small, colorMuted, "AI estimate. Sum of planned items: "+money(b.Currency, b.ComputedTotal))
	}
	if len(b.Breakdown) > 0 {
		keys := make([]string, 0, len(b.Breakdown))
		for k := range b.Breakdown {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			c.line(fc.body, colorInk, fmt.Sprintf("  %s: %s", humanLabel(k), money(b.Currency, b.Breakdown[k])))
		}
	}

	if strings.TrimSpace(it.Description) != "" {
		c.rule()
		c.wrapped(fc.body, colorInk, it.Description, 0)
	}

	c.rule()
	c.line(fc.heading, colorInk, "Days")
	for _, d := range it.Days {
		if c.full(60) {
			c.line(fc.small, colorMuted, "...")
			break
		}
		c.line(fc.body, colorInk, fmt.Sprintf("Day %d  %s  %s", d.DayNumber, d.Date, d.Title))
	}
	return dc
}

func (r *itineraryRenderer) drawDay(fc faces, it *types.Itinerary, d types.ItineraryDay) *gg.Context {
	dc := newPage()
	dc.SetColor(colorAccent)
	dc.DrawRectangle(0, 0, pageWidthPx, 12)
	dc.Fill()

	currency := it.Budget.Data().Currency
	c := &cursor{dc: dc, y: marginPx}
	c.line(fc.title, colorInk, fmt.Sprintf("Day %d", d.DayNumber))
	c.line(fc.body, colorMuted, strings.TrimSpace(d.Date+"  "+d.Title))
	c.rule()

	// Footer needs room for transportation, total and notes.
	const footer = 260
	for i, a := range d.Activities {
		if c.full(footer) {
			c.line(fc.small, colorMuted, fmt.Sprintf("+%d more activities", len(d.Activities)-i))
			break
		}
		c.gap(12)
		c.line(fc.strong, colorAccent, strings.TrimSpace(a.Time+"  "+a.Title))
		c.wrapped(fc.body, colorInk, a.Description, 24)
		meta := make([]string, 0, 4)
		if a.Location != "" {
			meta = append(meta, a.Location)
		}
		if a.Duration != "" {
			meta = append(meta, a.Duration)
		}
		if a.Type != "" {
			meta = append(meta, humanLabel(a.Type))
		}
		meta = append(meta, money(currency, a.EstimatedCost))
		c.wrapped(fc.small, colorMuted, strings.Join(meta, "  |  "), 24)
	}

	c.rule()
	if d.Transportation != nil {
		c.line(fc.body, colorInk, fmt.Sprintf("Getting around: %s (%s)", d.Transportation.Type, money(currency, d.Transportation.EstimatedCost)))
	}
	c.line(fc.strong, colorInk, "Day total: "+money(currency, d.TotalEstimatedCost))
	if strings.TrimSpace(d.Notes) != "" && !c.full(40) {
		c.wrapped(fc.small, colorMuted, d.Notes, 0)
	}
	return dc
}

func money(currency string, v float64) string {
	if currency == "" {
		currency = "USD"
	}
	return currency + " " + humanize.FormatFloat("#,###.##", v)
}

func humanLabel(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
