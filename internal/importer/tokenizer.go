package importer

import "strings"

// splitLines breaks raw export text into lines, tolerating CRLF endings.
func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	return strings.Split(raw, "\n")
}

// tokenize splits one comma-delimited line into fields. Double quotes open a
// quoted field in which commas are literal; a doubled quote ("") inside a
// quoted field is a literal quote. This is hand-rolled rather than
// encoding/csv because broker exports routinely contain stray quotes that
// csv.Reader treats as a fatal parse error for the whole file, and import
// must stay fault tolerant per row.
func tokenize(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	fields = append(fields, cur.String())
	return fields
}
