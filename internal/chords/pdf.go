package chords

import (
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/desertthunder/sung/internal/shared"
	"github.com/go-pdf/fpdf"
)

// PageSize is a page in points.
type PageSize struct {
	Width, Height float64
}

var pageSizes = map[string]PageSize{
	"A3":     {841.89, 1190.55},
	"A4":     {595.28, 841.89},
	"A5":     {419.53, 595.28},
	"LETTER": {612, 792},
	"LEGAL":  {612, 1008},
}

// PageSizes lists the page names accepted by [LookupPageSize].
func PageSizes() []string {
	names := make([]string, 0, len(pageSizes))
	for n := range pageSizes {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// LookupPageSize resolves a page name, ignoring case.
func LookupPageSize(name string) (PageSize, error) {
	if size, ok := pageSizes[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return size, nil
	}
	return PageSize{}, fmt.Errorf("%w: unknown page size %q (available: %v)", shared.ErrInvalidArgument, name, PageSizes())
}

// FontSpec describes a PDF core font. Name uses PostScript style names such as "Courier-Bold" or
// "Helvetica-BoldOblique". Color is a named color or "#RRGGBB"; unknown colors render black.
type FontSpec struct {
	Name  string
	Size  float64
	Color string
	Alpha float64
}

var (
	DefaultLyricsFont = FontSpec{Name: "Courier", Size: 12, Color: "black", Alpha: 1}
	DefaultChordFont  = FontSpec{Name: "Courier-Bold", Size: 10, Color: "black", Alpha: 1}
	DefaultTitleFont  = FontSpec{Name: "Helvetica-Bold", Size: 16, Color: "black", Alpha: 1}
)

// complete fills the zero fields of f from def.
func (f FontSpec) complete(def FontSpec) (FontSpec, error) {
	if f.Name == "" {
		f.Name = def.Name
	}
	if f.Size == 0 {
		f.Size = def.Size
	}
	if f.Color == "" {
		f.Color = def.Color
	}
	if f.Alpha == 0 {
		f.Alpha = def.Alpha
	}

	if f.Size < 0 {
		return f, fmt.Errorf("%w: font size %v", shared.ErrInvalidArgument, f.Size)
	}
	if f.Alpha < 0 || f.Alpha > 1 {
		return f, fmt.Errorf("%w: font alpha %v outside [0, 1]", shared.ErrInvalidArgument, f.Alpha)
	}
	if _, _, err := coreFont(f.Name); err != nil {
		return f, err
	}
	return f, nil
}

// coreFont maps a PostScript font name to an fpdf core family and style.
func coreFont(name string) (family, style string, err error) {
	base, variant, _ := strings.Cut(name, "-")
	switch strings.ToLower(base) {
	case "courier", "helvetica", "arial", "times", "symbol", "zapfdingbats":
		family = base
	default:
		return "", "", fmt.Errorf("%w: unsupported font %q", shared.ErrInvalidArgument, name)
	}

	switch strings.ToLower(variant) {
	case "", "roman":
	case "bold":
		style = "B"
	case "oblique", "italic":
		style = "I"
	case "boldoblique", "bolditalic":
		style = "BI"
	default:
		return "", "", fmt.Errorf("%w: unsupported font style %q", shared.ErrInvalidArgument, name)
	}
	return family, style, nil
}

var hexColor = regexp.MustCompile(`^#([0-9A-Fa-f]{6})$`)

var namedColors = map[string][3]int{
	"black":     {0, 0, 0},
	"white":     {255, 255, 255},
	"red":       {255, 0, 0},
	"green":     {0, 128, 0},
	"blue":      {0, 0, 255},
	"navy":      {0, 0, 128},
	"darkblue":  {0, 0, 139},
	"darkred":   {139, 0, 0},
	"darkgreen": {0, 100, 0},
	"maroon":    {128, 0, 0},
	"purple":    {128, 0, 128},
	"orange":    {255, 165, 0},
	"gray":      {128, 128, 128},
	"grey":      {128, 128, 128},
	"darkgray":  {169, 169, 169},
	"lightgrey": {211, 211, 211},
}

// ParseColor resolves a named or "#RRGGBB" color to RGB. Unknown colors are black.
func ParseColor(s string) (r, g, b int) {
	s = strings.TrimSpace(s)
	if rgb, ok := namedColors[strings.ToLower(s)]; ok {
		return rgb[0], rgb[1], rgb[2]
	}
	if hexColor.MatchString(s) {
		v, _ := strconv.ParseUint(s[1:], 16, 32)
		return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
	}
	return 0, 0, 0
}

// PDFOptions control page layout. Zero values fall back to the defaults: A4, a 72pt margin, the
// Default*Font specs, chord-to-lyric spacing of 1.2 chord sizes, line spacing of 1.5 lyric sizes and
// 2 lyric sizes after a blank line.
type PDFOptions struct {
	Title         string
	PageSize      string
	Margin        float64
	LyricsFont    FontSpec
	ChordFont     FontSpec
	TitleFont     FontSpec
	ChordSpacing  float64
	LineSpacing   float64
	ParagraphSkip float64
}

// PDFOptionsFromConfig builds layout options from the [render] section of the config file.
func PDFOptionsFromConfig(cfg shared.RenderConfig) PDFOptions {
	font := func(f shared.FontConfig) FontSpec {
		return FontSpec{Name: f.Name, Size: f.Size, Color: f.Color, Alpha: f.Alpha}
	}
	return PDFOptions{
		PageSize:   cfg.PageSize,
		Margin:     cfg.Margin,
		LyricsFont: font(cfg.LyricsFont),
		ChordFont:  font(cfg.ChordFont),
		TitleFont:  font(cfg.TitleFont),
	}
}

type layout struct {
	page                       PageSize
	margin                     float64
	lyrics, chord, title       FontSpec
	chordGap, lineGap, paraGap float64
}

func (o PDFOptions) resolve() (layout, error) {
	var (
		l   layout
		err error
	)

	name := o.PageSize
	if name == "" {
		name = "A4"
	}
	if l.page, err = LookupPageSize(name); err != nil {
		return l, err
	}
	if l.lyrics, err = o.LyricsFont.complete(DefaultLyricsFont); err != nil {
		return l, err
	}
	if l.chord, err = o.ChordFont.complete(DefaultChordFont); err != nil {
		return l, err
	}
	if l.title, err = o.TitleFont.complete(DefaultTitleFont); err != nil {
		return l, err
	}

	l.margin = cmpOr(o.Margin, 72)
	l.chordGap = cmpOr(o.ChordSpacing, l.chord.Size*1.2)
	l.lineGap = cmpOr(o.LineSpacing, l.lyrics.Size*1.5)
	l.paraGap = cmpOr(o.ParagraphSkip, l.lyrics.Size*2)
	return l, nil
}

func cmpOr(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

// buildPDF lays the song out with chords placed over their lyric columns, starting a new page when fewer
// than three lyric lines of space remain.
func buildPDF(song []Section, opts PDFOptions) (*fpdf.Fpdf, error) {
	l, err := opts.resolve()
	if err != nil {
		return nil, err
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: l.page.Width, Ht: l.page.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("sung", true)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	use := func(f FontSpec) {
		family, style, _ := coreFont(f.Name)
		pdf.SetFont(family, style, f.Size)
		pdf.SetTextColor(ParseColor(f.Color))
		pdf.SetAlpha(f.Alpha, "Normal")
	}

	pdf.AddPage()
	use(l.lyrics)
	charWidth := pdf.GetStringWidth("M")
	y := l.margin

	if opts.Title != "" {
		use(l.title)
		pdf.Text(l.margin, y, tr(opts.Title))
		y += l.title.Size * 1.5
	}

	for _, s := range song {
		if y > l.page.Height-l.margin-l.lyrics.Size*3 {
			pdf.AddPage()
			y = l.margin
		}

		use(l.chord)
		for _, c := range s.Chords {
			pdf.Text(l.margin+float64(c.Col)*charWidth, y, tr(c.Name))
		}

		use(l.lyrics)
		y += l.chordGap
		pdf.Text(l.margin, y, tr(s.Lyrics))
		if strings.TrimSpace(s.Lyrics) == "" {
			y += l.paraGap
		} else {
			y += l.lineGap
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to lay out PDF: %w", err)
	}
	return pdf, nil
}

// RenderPDF writes song to w as a PDF document.
func RenderPDF(w io.Writer, song []Section, opts PDFOptions) error {
	pdf, err := buildPDF(song, opts)
	if err != nil {
		return err
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}
