package program

import (
	"bytes"
	"embed"
	"encoding/hex"
	"fmt"
	"html/template"
	"io"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const dateLayout = "Monday, 2 January 2006"

//go:embed templates/program.html.tmpl
var templateFS embed.FS

var htmlTemplate = template.Must(template.New("program.html.tmpl").Funcs(template.FuncMap{
	"heading":  Heading,
	"calendar": CalendarLine,
	"lower":    strings.ToLower,
	"join":     strings.Join,
}).ParseFS(templateFS, "templates/program.html.tmpl"))

// Heading renders the date and time line, e.g. "Sunday, 16 March 2025 at 10:30".
func Heading(p Program) string {
	if p.Date.IsZero() {
		return p.Time
	}
	heading := p.Date.Format(dateLayout)
	if p.Time != "" {
		heading += " at " + p.Time
	}
	return heading
}

// CalendarLine joins the calendar facts of the program, skipping blanks.
func CalendarLine(p Program) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{p.WeekLabel, p.Season, p.Color} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if p.LectionaryYear != "" {
		parts = append(parts, "Year "+p.LectionaryYear)
	}
	return strings.Join(parts, " | ")
}

// EncodeText writes the program as plain text.
func EncodeText(w io.Writer, p Program) error {
	var b strings.Builder
	b.WriteString(p.Title + "\n")
	b.WriteString(Heading(p) + "\n")
	if line := CalendarLine(p); line != "" {
		b.WriteString(line + "\n")
	}
	if p.Collect != "" {
		b.WriteString("Collect: " + p.Collect + "\n")
	}

	for _, s := range p.Sections {
		b.WriteString("\n== " + s.Title + " ==\n")
		for _, l := range s.Leaders {
			fmt.Fprintf(&b, "%s: %s\n", l.Ministry, strings.Join(l.Names, ", "))
		}
		for _, item := range s.Items {
			b.WriteString("- " + item + "\n")
		}
		if s.Body != "" {
			b.WriteString(s.Body + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// EncodeHTML writes the program as a standalone HTML document.
func EncodeHTML(w io.Writer, p Program) error {
	if err := htmlTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("program: render html: %w", err)
	}
	return nil
}

// Digest returns the hex BLAKE2b-256 of the text encoding. Equal programs
// have equal digests.
func Digest(p Program) (string, error) {
	var buf bytes.Buffer
	if err := EncodeText(&buf, p); err != nil {
		return "", err
	}
	sum := blake2b.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}
