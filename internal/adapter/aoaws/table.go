package aoaws

import (
	"strings"

	"github.com/couchcryptid/aoaws-etl/internal/domain"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TableAnchorID is the id of the element holding the station scripts.
const TableAnchorID = "select_icao"

const (
	callPrefix = "addarray("
	callSuffix = "')"
)

// ExtractTable returns one row per addarray call found in scripts under the
// select_icao element, in document order. A page without the anchor yields an
// empty table.
func ExtractTable(markup string) []domain.RawRow {
	rows := []domain.RawRow{}

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return rows
	}
	anchor := findByID(doc, TableAnchorID)
	if anchor == nil {
		return rows
	}

	for _, script := range findScripts(anchor) {
		rows = append(rows, parseCalls(nodeText(script))...)
	}
	return rows
}

// parseCalls splits script text into addarray argument lists. The page quotes
// every argument with single quotes and never escapes commas, so the
// arguments are unquoted and split on commas. Chunks whose first argument is
// not quoted (a function definition, an empty call) are skipped.
func parseCalls(script string) []domain.RawRow {
	chunks := strings.Split(script, callPrefix)
	if len(chunks) < 2 {
		return nil
	}

	var rows []domain.RawRow
	for _, chunk := range chunks[1:] {
		chunk = strings.TrimLeft(chunk, " \t\r\n")
		if !strings.HasPrefix(chunk, "'") {
			continue
		}
		// Field values may carry their own parentheses, so the call ends at
		// the closing quote followed by ")".
		end := strings.Index(chunk, callSuffix)
		if end < 0 {
			continue
		}
		args := strings.ReplaceAll(chunk[:end+1], "'", "")
		fields := strings.Split(args, ",")
		row := make(domain.RawRow, len(fields))
		for i, f := range fields {
			row[i] = strings.TrimSpace(f)
		}
		rows = append(rows, row)
	}
	return rows
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func findScripts(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Script {
			if strings.Contains(nodeText(n), callPrefix) {
				out = append(out, n)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
