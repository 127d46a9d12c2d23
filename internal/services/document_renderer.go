package services

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/jung-kurt/gofpdf"
	"github.com/umar-io/lease-agreement-generator/internal/common"
	"github.com/umar-io/lease-agreement-generator/internal/models"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

const (
	pageWidth      = 612.0
	pageHeight     = 792.0
	marginTop      = 50.0
	marginBottom   = 50.0
	marginSide     = 72.0
	printableWidth = pageWidth - 2*marginSide
	lineSpacing    = 1.4
	documentTitle  = "RESIDENTIAL LEASE AGREEMENT"
	signatureLine  = "Signature: _________________________________   Date: ______________"
)

type textStyle struct {
	weight  string
	size    float64
	heading bool
}

var (
	titleStyle     = textStyle{weight: "B", size: 20, heading: true}
	subtitleStyle  = textStyle{size: 12}
	headingStyle   = textStyle{weight: "B", size: 12, heading: true}
	bodyStyle      = textStyle{size: 11}
	signatureStyle = textStyle{weight: "B", size: 14, heading: true}

	numberedHeading = regexp.MustCompile(`^\d+\.`)
	labelHeading    = regexp.MustCompile(`^[A-Z][A-Z0-9 &/'(),-]*:`)

	punctuation = strings.NewReplacer(
		"‘", "'", "’", "'", "‚", "'", "‛", "'",
		"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
		"–", "-", "—", "-", "‒", "-", "‐", "-", "‑", "-",
		"…", "...", "•", "*", "\u00a0", " ", "§", "Sec.",
		"©", "(c)", "®", "(R)", "™", "TM", "\t", "    ",
	)
)

// DocumentRenderer lays agreement text out as a paginated PDF.
type DocumentRenderer interface {
	Render(text string, meta models.DocumentMetadata) (*models.RenderedDocument, error)
}

type pdfDocumentRenderer struct {
	logger *zap.Logger
}

func NewDocumentRenderer(logger *zap.Logger) DocumentRenderer {
	return &pdfDocumentRenderer{logger: logger}
}

func (r *pdfDocumentRenderer) Render(text string, meta models.DocumentMetadata) (*models.RenderedDocument, error) {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(marginSide, marginTop, marginSide)
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.SetTitle(documentTitle, false)
	pdf.SetCreator("leasegen", false)
	pdf.AddPage()

	l := &pageLayout{pdf: pdf}
	l.write(documentTitle, titleStyle, "C")
	l.gap(subtitleStyle.size)
	l.write("Property: "+ToASCII(meta.PropertyAddress), subtitleStyle, "C")
	l.gap(2 * subtitleStyle.size)

	for _, raw := range strings.Split(ToASCII(text), "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			l.gap(bodyStyle.size * lineSpacing / 2)
		case IsHeadingLine(line):
			l.write(line, headingStyle, "L")
		default:
			l.write(line, bodyStyle, "L")
		}
	}

	pdf.AddPage()
	l.write("SIGNATURES", signatureStyle, "C")
	l.gap(2 * bodyStyle.size)
	l.signatureBlock("LANDLORD:", ToASCII(meta.LandlordName))
	l.gap(3 * bodyStyle.size)
	l.signatureBlock("TENANT:", ToASCII(meta.TenantName))

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrRenderFailed, err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrRenderFailed, err)
	}

	doc := &models.RenderedDocument{
		Data:           buf.Bytes(),
		PageCount:      pdf.PageNo(),
		PrintableWidth: printableWidth,
		Lines:          l.lines,
	}
	r.logger.Debug("lease document rendered",
		zap.Int("pages", doc.PageCount),
		zap.Int("lines", len(doc.Lines)),
		zap.Int("bytes", len(doc.Data)),
	)
	return doc, nil
}

type pageLayout struct {
	pdf   *gofpdf.Fpdf
	lines []models.LayoutLine
}

func (l *pageLayout) write(text string, style textStyle, align string) {
	l.pdf.SetFont("Helvetica", style.weight, style.size)
	h := style.size * lineSpacing
	for _, line := range WrapText(text, printableWidth, l.pdf.GetStringWidth) {
		if l.pdf.GetY()+h > pageHeight-marginBottom {
			l.pdf.AddPage()
		}
		l.pdf.CellFormat(printableWidth, h, line, "", 1, align, false, 0, "")
		l.lines = append(l.lines, models.LayoutLine{
			Page:    l.pdf.PageNo(),
			Text:    line,
			Width:   l.pdf.GetStringWidth(line),
			Heading: style.heading,
		})
	}
}

// gap advances the cursor; the next write breaks the page if needed.
func (l *pageLayout) gap(h float64) {
	l.pdf.Ln(h)
}

func (l *pageLayout) signatureBlock(label, name string) {
	l.write(label, headingStyle, "L")
	l.gap(bodyStyle.size / 2)
	l.write(signatureLine, bodyStyle, "L")
	l.gap(bodyStyle.size / 2)
	l.write("Print Name: "+name, bodyStyle, "L")
}

// IsHeadingLine reports whether a line is a numbered section or an all-caps label.
func IsHeadingLine(line string) bool {
	return numberedHeading.MatchString(line) || labelHeading.MatchString(line)
}

// WrapText breaks text into lines no wider than maxWidth as measured by measure.
// Text that already fits is returned unchanged; words wider than maxWidth are split
// by character.
func WrapText(text string, maxWidth float64, measure func(string) float64) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if measure(text) <= maxWidth {
		return []string{text}
	}

	var (
		lines   []string
		current string
	)
	for _, word := range strings.Fields(text) {
		for measure(word) > maxWidth {
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			head, tail := splitToFit(word, maxWidth, measure)
			lines = append(lines, head)
			word = tail
		}
		if word == "" {
			continue
		}
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if measure(candidate) <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

func splitToFit(word string, maxWidth float64, measure func(string) float64) (string, string) {
	cut := 1
	for cut < len(word) && measure(word[:cut+1]) <= maxWidth {
		cut++
	}
	return word[:cut], word[cut:]
}

// ToASCII transliterates text to the printable ASCII range the core PDF fonts can measure.
// Newlines are kept.
func ToASCII(s string) string {
	s = punctuation.Replace(s)
	s = norm.NFKD.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n':
			b.WriteRune(r)
		case r == '\r':
		case r < unicode.MaxASCII && unicode.IsPrint(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}
