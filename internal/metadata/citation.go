package metadata

import (
	"fmt"
	"strings"
)

// authorTypeAuthor excludes collective and editor entries.
const authorTypeAuthor = "Author"

// FormatCitation renders "First, Second et al. Journal Volume, Year" (or a
// period-terminated list with one or two authors).
func FormatCitation(ref Reference) string {
	var authors []string
	for _, a := range ref.Authors {
		if a.AuthType == authorTypeAuthor {
			authors = append(authors, a.Name)
		}
	}
	var lead string
	if len(authors) > 2 {
		lead = strings.Join(authors[:2], ", ") + " et al."
	} else {
		lead = strings.Join(authors, ", ") + "."
	}
	year := ""
	if fields := strings.Fields(ref.PubDate); len(fields) > 0 {
		year = fields[0]
	}
	return fmt.Sprintf("%s %s %s, %s", lead, ref.Source, ref.Volume, year)
}
