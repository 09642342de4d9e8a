package reports

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	pkgerrors "github.com/reportello/reportello-backend/pkg/errors"
)

// The report body is plain text structured by convention: a "Report del ..."
// header line and labeled visit blocks. Nothing about the structure is stored
// separately; every operation re-derives its state from the text itself.

const (
	visitMarker = "Visita n°"

	// Stanza appended after "Visita n°N: ".
	visitDetailsTemplate = "\n\nRiassunto visita: \n\nObiettivo prox visita: \n\nProx visita entro: "
)

const dateLayout = "2006-01-02"

var (
	visitMarkerRe = regexp.MustCompile(regexp.QuoteMeta(visitMarker))
	headerLineRe  = regexp.MustCompile(`^Report del .*(\r\n|\n|\r)`)
)

var italianMonths = [12]string{
	"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno",
	"luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre",
}

// ValidateDate checks the canonical YYYY-MM-DD form. The round-trip guard
// rejects inputs like 2024-2-3 or 2024-02-31 that time.Parse would massage.
func ValidateDate(date string) error {
	parsed, err := time.Parse(dateLayout, date)
	if err != nil || parsed.Format(dateLayout) != date {
		return pkgerrors.New(pkgerrors.CodeValidation, "date must be in YYYY-MM-DD form")
	}
	return nil
}

// FormatItalianDate renders a canonical date as the long Italian form used in
// report headers, e.g. "10 marzo 2024".
func FormatItalianDate(date string) (string, error) {
	parsed, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "date must be in YYYY-MM-DD form")
	}
	return fmt.Sprintf("%d %s %d", parsed.Day(), italianMonths[parsed.Month()-1], parsed.Year()), nil
}

// TemplateBody seeds a new report: the dated header plus the first visit
// stanza.
func TemplateBody(date string) (string, error) {
	display, err := FormatItalianDate(date)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Report del %s\n\n%s1: %s", display, visitMarker, visitDetailsTemplate), nil
}

// AddVisit appends the next visit block. The number is one plus the count of
// existing "Visita n°" markers, not the max numeral: text containing only
// "Visita n°5:" gets "Visita n°2:" next.
func AddVisit(text string) string {
	count := len(visitMarkerRe.FindAllStringIndex(text, -1))
	return fmt.Sprintf("%s\n\n%s%d: %s", text, visitMarker, count+1, visitDetailsTemplate)
}

// RewriteHeader replaces the leading "Report del ..." line with the new date.
// Only a header at the very start of the text is touched; date references in
// free text stay as typed. Text without a header is returned unchanged.
func RewriteHeader(text, date string) (string, error) {
	display, err := FormatItalianDate(date)
	if err != nil {
		return "", err
	}
	if headerLineRe.MatchString(text) {
		return headerLineRe.ReplaceAllString(text, fmt.Sprintf("Report del %s\n", display)), nil
	}
	// Single-line body: the header has no trailing newline to anchor on.
	if strings.HasPrefix(text, "Report del ") && !strings.ContainsAny(text, "\r\n") {
		return fmt.Sprintf("Report del %s", display), nil
	}
	return text, nil
}
