package convert

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"spectral/internal/table"
)

// convertLenient re-parses a payload the strict decoder rejected with the
// tag-soup HTML parser, which tolerates unclosed elements and stray bytes.
// Tag names arrive lower-cased from the HTML tokenizer.
func (c *XSAMSConverter) convertLenient(payload []byte) ([]*table.Table, error) {
	doc, err := html.Parse(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("lenient parse: %w", err)
	}

	lines := table.New()
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "radiativetransition" {
			return
		}
		row := map[string]string{}
		walk(n, func(child *html.Node) {
			if child.Type != html.ElementNode {
				return
			}
			switch child.Data {
			case "wavelength", "frequency", "wavenumber", "energy":
				value, unit := leafValue(child)
				name := columnName(strings.ToUpper(child.Data[:1])+child.Data[1:], unit)
				if _, seen := row[name]; !seen {
					row[name] = value
				}
			case "upperstateref":
				row["Upper state"] = textOf(child)
			case "lowerstateref":
				row["Lower state"] = textOf(child)
			}
		})
		appendMapRow(lines, row)
	})

	if lines.NumRows() == 0 {
		return nil, ErrNoTables
	}
	// No species summary is recoverable from a broken payload; keep the
	// two-table convention with an empty first table.
	return []*table.Table{table.New("Species", "InChIKey"), lines}, nil
}

func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

// leafValue finds the first nested value element and its units attribute.
func leafValue(n *html.Node) (value, unit string) {
	var found bool
	walk(n, func(child *html.Node) {
		if found || child.Type != html.ElementNode || child.Data != "value" {
			return
		}
		found = true
		value = textOf(child)
		for _, attr := range child.Attr {
			if attr.Key == "units" {
				unit = attr.Val
			}
		}
	})
	if !found {
		value = textOf(n)
	}
	return strings.TrimSpace(value), unit
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(child *html.Node) {
		if child.Type == html.TextNode {
			sb.WriteString(child.Data)
		}
	})
	return strings.TrimSpace(sb.String())
}

func appendMapRow(t *table.Table, row map[string]string) {
	for name := range row {
		if !t.HasColumn(name) {
			_ = t.AddColumn(name, table.MissingValue)
		}
	}
	cells := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cells[i] = row[c]
	}
	t.Rows = append(t.Rows, cells)
}
