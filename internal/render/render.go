// Package render formats the visible country list for a terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"countries-go/internal/directory"
	"countries-go/internal/model"
)

// Unknown is shown for optional fields the directory does not provide.
const Unknown = "Unknown"

// DefaultWidth is used when the terminal width cannot be determined.
const DefaultWidth = 100

const (
	gap      = "  "
	ellipsis = "…"
	minWidth = 6
)

// Population formats a head count with thousands separators.
func Population(n int64) string {
	return humanize.Comma(n)
}

// Area formats a land area in square kilometres.
func Area(a *float64) string {
	if a == nil {
		return Unknown
	}
	return humanize.CommafWithDigits(*a, 1) + " km²"
}

// Currency formats the first listed currency as "Name (Symbol)".
func Currency(c model.Country) string {
	cur, ok := c.PrimaryCurrency()
	if !ok {
		return Unknown
	}
	return cur.String()
}

// Languages joins the language names, or returns Unknown when there are none.
func Languages(c model.Country) string {
	if len(c.Languages) == 0 {
		return Unknown
	}
	return c.LanguageNames()
}

type column struct {
	title string
	right bool
	cell  func(model.Country) string
}

var columns = []column{
	{title: "NAME", cell: func(c model.Country) string { return c.Name }},
	{title: "CAPITAL", cell: func(c model.Country) string { return c.CapitalOr(Unknown) }},
	{title: "REGION", cell: func(c model.Country) string { return c.RegionOr(Unknown) }},
	{title: "POPULATION", right: true, cell: func(c model.Country) string { return Population(c.Population) }},
}

// Table writes one row per country, fitted to width display cells.
// Text columns are truncated with an ellipsis when the rows do not fit;
// population is never truncated. A width of zero or less means DefaultWidth.
func Table(w io.Writer, countries []model.Country, width int) error {
	if width <= 0 {
		width = DefaultWidth
	}

	rows := make([][]string, len(countries))
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = runewidth.StringWidth(col.title)
	}
	for r, c := range countries {
		rows[r] = make([]string, len(columns))
		for i, col := range columns {
			rows[r][i] = col.cell(c)
			widths[i] = max(widths[i], runewidth.StringWidth(rows[r][i]))
		}
	}
	fit(widths, width)

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.title
	}
	if err := writeRow(w, header, widths); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writeRow(w, row, widths); err != nil {
			return err
		}
	}
	return nil
}

// fit shrinks the widest truncatable column one cell at a time until the
// row fits in width or every text column is at its minimum.
func fit(widths []int, width int) {
	total := func() int {
		sum := len(gap) * (len(widths) - 1)
		for _, w := range widths {
			sum += w
		}
		return sum
	}
	for total() > width {
		widest := -1
		for i, col := range columns {
			if col.right || widths[i] <= minWidth {
				continue
			}
			if widest < 0 || widths[i] > widths[widest] {
				widest = i
			}
		}
		if widest < 0 {
			return
		}
		widths[widest]--
	}
}

func writeRow(w io.Writer, cells []string, widths []int) error {
	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(gap)
		}
		cell = runewidth.Truncate(cell, widths[i], ellipsis)
		switch {
		case columns[i].right:
			b.WriteString(runewidth.FillLeft(cell, widths[i]))
		case i == len(cells)-1:
			b.WriteString(cell)
		default:
			b.WriteString(runewidth.FillRight(cell, widths[i]))
		}
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// Details writes every field of one country, one per line.
func Details(w io.Writer, c model.Country) error {
	fields := []struct{ label, value string }{
		{"Name", c.Name},
		{"Capital", c.CapitalOr(Unknown)},
		{"Region", c.RegionOr(Unknown)},
		{"Population", Population(c.Population)},
		{"Area", Area(c.LandArea)},
		{"Currency", Currency(c)},
		{"Languages", Languages(c)},
		{"Flag", c.FlagURL},
	}
	for _, f := range fields {
		if _, err := fmt.Fprintf(w, "%-11s %s\n", f.label+":", f.value); err != nil {
			return err
		}
	}
	return nil
}

// Summary describes a snapshot in one line, e.g.
//
//	Showing 2 of 3 countries matching "fi", sorted alphabetical (fetched 5 minutes ago)
func Summary(snap directory.Snapshot, now time.Time) string {
	switch snap.State {
	case directory.StateIdle, directory.StateLoading:
		return "Loading countries…"
	case directory.StateFailed:
		return fmt.Sprintf("Could not load countries: %v", snap.Err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Showing %d of %d countries", len(snap.Visible), snap.Total)
	if snap.SearchText != "" {
		fmt.Fprintf(&b, " matching %q", snap.SearchText)
	}
	if snap.SortMode != directory.SortNone {
		fmt.Fprintf(&b, ", sorted %s", snap.SortMode)
	}
	if !snap.FetchedAt.IsZero() {
		fmt.Fprintf(&b, " (fetched %s)", humanize.RelTime(snap.FetchedAt, now, "ago", "from now"))
	}
	return b.String()
}
