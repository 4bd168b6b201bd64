// Package curl renders HTTP requests as reproducible curl command lines for
// request logging.
package curl

import (
	"net/http"
	"sort"
	"strings"
)

// Command returns a single-line curl invocation equivalent to the request.
// Header names are emitted in sorted order so output is stable.
func Command(method, url string, header http.Header, body []byte) string {
	var b strings.Builder
	b.WriteString("curl -X ")
	b.WriteString(method)

	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, value := range header[name] {
			b.WriteString(" -H ")
			b.WriteString(quote(name + ": " + value))
		}
	}

	if len(body) > 0 {
		b.WriteString(" -d ")
		b.WriteString(quote(string(body)))
	}

	b.WriteByte(' ')
	b.WriteString(quote(url))
	return b.String()
}

// quote wraps s in single quotes for a POSIX shell.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
