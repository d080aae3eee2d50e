package export

import (
	"strings"
	"time"
	"unicode"
)

// DefaultReportType prefixes report filenames.
const DefaultReportType = "medical-report"

// Filename returns "<report-type>_<patient>_<YYYY-MM-DD>.pdf". Whitespace
// runs in the patient name become "_" and runes unsafe in file names are
// dropped; an empty result becomes "patient".
func Filename(reportType, patientName string, date time.Time) string {
	if reportType = sanitize(reportType); reportType == "" {
		reportType = DefaultReportType
	}
	name := sanitize(patientName)
	if name == "" {
		name = "patient"
	}
	return reportType + "_" + name + "_" + date.Format(time.DateOnly) + ".pdf"
}

func sanitize(s string) string {
	var b strings.Builder
	for _, word := range strings.Fields(s) {
		clean := strings.Map(func(r rune) rune {
			switch {
			case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_', r == '.':
				return r
			}
			return -1
		}, word)
		clean = strings.Trim(clean, ".")
		if clean == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('_')
		}
		b.WriteString(clean)
	}
	return b.String()
}
