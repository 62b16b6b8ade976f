// Package report turns the HTML table embedded in a report email into
// normalized suite-execution records.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/akaul/reportdash/internal/model"
)

// Recognized column names. Matching is by name, not position, so a
// header permutation still maps correctly. Names are case-sensitive.
const (
	colSuite   = "SUITE"
	colDate    = "DATE"
	colTotal   = "TOTAL"
	colPassed  = "PASSED"
	colFailed  = "FAILED"
	colSkipped = "SKIPPED"
)

// percentColumns are the accepted spellings of the optional pass-rate
// column.
var percentColumns = []string{"PASS %", "PASS%", "PASS_PERCENT"}

// dateLayouts are tried in order when parsing a DATE cell.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Result is the outcome of extracting one message body.
type Result struct {
	// Records holds one entry per surviving table row. A message may
	// carry a multi-suite table, so this can be more than one.
	Records []model.ReportRecord

	// UnknownColumns lists header names that map to no record field.
	// They are dropped from the records; callers may want to warn,
	// since they usually indicate report-format drift.
	UnknownColumns []string
}

// Extract parses an HTML message body and returns the report records
// of its first table. A body with no table, or a table with no data
// rows, returns a nil Result and no error: that is a legitimate
// non-match (e.g. a notification email), not a failure.
//
// Count cells that fail numeric coercion become 0 rather than
// rejecting the row. SUITE and DATE are optional; when absent the
// returned records carry an empty suite name / zero time and the
// caller supplies fallbacks. Extract never alters a TOTAL that
// disagrees with the other counts; consistency is the caller's check.
func Extract(body string) (*Result, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	table := findFirst(doc, "table")
	if table == nil {
		return nil, nil
	}

	headers := headerNames(table)
	if len(headers) == 0 {
		return nil, nil
	}

	rows := dataRows(table)
	if len(rows) == 0 {
		return nil, nil
	}

	known := knownColumns(headers)
	var unknown []string
	for _, h := range headers {
		if !known[h] {
			unknown = append(unknown, h)
		}
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		// First occurrence wins on duplicate headers.
		if _, ok := index[h]; !ok {
			index[h] = i
		}
	}

	records := make([]model.ReportRecord, 0, len(rows))
	for _, cells := range rows {
		records = append(records, rowToRecord(index, cells))
	}

	return &Result{Records: records, UnknownColumns: unknown}, nil
}

// rowToRecord maps one row of raw cell values onto a record using the
// header index.
func rowToRecord(index map[string]int, cells []string) model.ReportRecord {
	cell := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(cells) {
			return ""
		}
		return cells[i]
	}

	var rec model.ReportRecord

	rec.SuiteName = cell(colSuite)
	if v := cell(colDate); v != "" {
		rec.ExecutedAt = parseDate(v)
	}

	rec.Total = parseCount(cell(colTotal))
	rec.Passed = parseCount(cell(colPassed))
	rec.Failed = parseCount(cell(colFailed))
	rec.Skipped = parseCount(cell(colSkipped))

	if pct, ok := parsePercent(index, cells); ok {
		rec.PassPercent = pct
	} else {
		rec.PassPercent = model.DerivePassPercent(rec.Passed, rec.Total)
	}

	return rec
}

// parseCount coerces a count cell to a non-negative integer, returning
// 0 for missing, malformed, or negative values.
func parseCount(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parsePercent reads the optional percentage column. The second return
// is false when the column is absent or its cell is unusable, in which
// case the rate is derived from the counts instead.
func parsePercent(index map[string]int, cells []string) (float64, bool) {
	for _, name := range percentColumns {
		i, ok := index[name]
		if !ok || i >= len(cells) {
			continue
		}
		raw := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(cells[i]), "%"))
		pct, err := strconv.ParseFloat(raw, 64)
		if err != nil || pct < 0 || pct > 100 {
			return 0, false
		}
		return pct, true
	}
	return 0, false
}

// parseDate tries the known DATE layouts, returning the zero time when
// none match so the caller can substitute the message received time.
func parseDate(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// knownColumns returns the set of header names that map to a record field.
func knownColumns(headers []string) map[string]bool {
	known := map[string]bool{
		colSuite:   true,
		colDate:    true,
		colTotal:   true,
		colPassed:  true,
		colFailed:  true,
		colSkipped: true,
	}
	for _, p := range percentColumns {
		known[p] = true
	}

	set := make(map[string]bool, len(headers))
	for _, h := range headers {
		if known[h] {
			set[h] = true
		}
	}
	return set
}

// headerNames collects the trimmed text of every th cell in the table,
// in document order.
func headerNames(table *html.Node) []string {
	var names []string
	walk(table, func(n *html.Node) {
		if isElement(n, "th") {
			names = append(names, nodeText(n))
		}
	})
	return names
}

// dataRows collects the td texts of every tr after the header row.
// Rows with zero extracted cells are dropped as presentation artifacts
// (spacer rows).
func dataRows(table *html.Node) [][]string {
	var trs []*html.Node
	walk(table, func(n *html.Node) {
		if isElement(n, "tr") {
			trs = append(trs, n)
		}
	})
	if len(trs) < 2 {
		return nil
	}

	var rows [][]string
	for _, tr := range trs[1:] {
		var cells []string
		walk(tr, func(n *html.Node) {
			if isElement(n, "td") {
				cells = append(cells, nodeText(n))
			}
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return rows
}

// findFirst returns the first element with the given tag in document
// order, or nil.
func findFirst(n *html.Node, tag string) *html.Node {
	if isElement(n, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// walk visits n and all its descendants in document order.
func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

// isElement reports whether n is an element node with the given tag.
func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

// nodeText returns the concatenated text content of n, trimmed of
// surrounding whitespace.
func nodeText(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return strings.TrimSpace(b.String())
}
