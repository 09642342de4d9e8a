package export

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	pkgerrors "github.com/reportello/reportello-backend/pkg/errors"
)

// ContentType is the declared media type of exported reports. The payload is
// HTML, but word processors open it because of this type and the .doc suffix.
const ContentType = "application/msword"

const (
	dateLayout = "2006-01-02"
	spanStyle  = "font-family:Calibri,sans-serif;font-size:11.0pt;"
)

// Document is a rendered export ready to be streamed to the client.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

var labelPrefixRe = regexp.MustCompile(`^(Visita n°\d+:|Riassunto visita:|Obiettivo prox visita:|Prox visita entro:)`)

// Doc renders the report text as a Word-compatible HTML document named after
// the visit date.
func Doc(date, text string) (*Document, error) {
	filename, err := Filename(date)
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf(
		"<html xmlns:o='urn:schemas-microsoft-com:office:office' xmlns:w='urn:schemas-microsoft-com:office:word' xmlns='http://www.w3.org/TR/REC-html40'>"+
			"<head><meta charset='utf-8'><title>Report</title></head>"+
			"<body><div>%s</div></body></html>",
		formatTextForDoc(text),
	)

	return &Document{
		Filename:    filename,
		ContentType: ContentType,
		Body:        []byte(body),
	}, nil
}

// Filename derives the download name from the visit date: "Report DD-MM-YYYY.doc".
// The day is used as stored; no timezone or offset math is applied.
func Filename(date string) (string, error) {
	parsed, err := time.Parse(dateLayout, date)
	if err != nil || parsed.Format(dateLayout) != date {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "date must be in YYYY-MM-DD form")
	}
	return fmt.Sprintf("Report %02d-%02d-%d.doc", parsed.Day(), int(parsed.Month()), parsed.Year()), nil
}

// formatTextForDoc renders each text line as a paragraph. Blank lines become
// non-breaking-space paragraphs so Word preserves the vertical rhythm; the
// header line is bolded whole, and known label prefixes are bolded with the
// rest of the line left plain.
func formatTextForDoc(text string) string {
	lines := strings.Split(text, "\n")
	var b strings.Builder
	for _, line := range lines {
		switch {
		case strings.TrimSpace(line) == "":
			fmt.Fprintf(&b, `<p style="margin:0;"><span style="%s">&nbsp;</span></p>`, spanStyle)

		case strings.HasPrefix(line, "Report del"):
			fmt.Fprintf(&b, `<p style="margin:0;"><span style="%s"><b>%s</b></span></p>`, spanStyle, html.EscapeString(line))

		default:
			if match := labelPrefixRe.FindString(line); match != "" {
				rest := line[len(match):]
				fmt.Fprintf(&b, `<p style="margin:0;"><span style="%s"><b>%s</b>%s</span></p>`,
					spanStyle, html.EscapeString(match), html.EscapeString(rest))
				continue
			}
			fmt.Fprintf(&b, `<p style="margin:0;"><span style="%s">%s</span></p>`, spanStyle, html.EscapeString(line))
		}
	}
	return b.String()
}
