package dough

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
)

// ReviewRow is a row of the review report: an unclassified source
// transaction with the classification the rules suggest for it.
type ReviewRow struct {
	Approved                string
	Date                    string
	Amount                  string
	Description             string
	Account                 string
	SuggestedClassification string
	Check                   string
	SuggestedCategory       string
	TransactionID           string
}

// reviewColumn describes a column of the review report.
type reviewColumn struct {
	header     string
	minWidth   int
	maxWidth   int // text is word wrapped to maxWidth, 0 for no wrapping
	alignRight bool
	field      func(r *ReviewRow) *string
}

var reviewColumns = []reviewColumn{
	{header: "*", minWidth: 1, maxWidth: 1, field: func(r *ReviewRow) *string { return &r.Approved }},
	{header: "DATE", field: func(r *ReviewRow) *string { return &r.Date }},
	{header: "AMOUNT", alignRight: true, field: func(r *ReviewRow) *string { return &r.Amount }},
	{header: "DESCRIPTION", minWidth: 50, maxWidth: 50, field: func(r *ReviewRow) *string { return &r.Description }},
	{header: "ACCOUNT", field: func(r *ReviewRow) *string { return &r.Account }},
	{header: "SUGGESTEDCLASSIFICATION", minWidth: 50, field: func(r *ReviewRow) *string { return &r.SuggestedClassification }},
	{header: "CHECK", field: func(r *ReviewRow) *string { return &r.Check }},
	{header: "SUGGESTEDCATEGORY", minWidth: 40, maxWidth: 40, field: func(r *ReviewRow) *string { return &r.SuggestedCategory }},
	{header: "TRANSACTIONID", field: func(r *ReviewRow) *string { return &r.TransactionID }},
}

const reviewSeparator = "|"

var reviewHeader = []string{
	"# Transactions that have not yet been classified",
	`# To classify a transaction, make sure the "SUGGESTEDCLASSIFICATION" is filled in,`,
	`# for instance with: Account: "Groceries" (weekly shopping)`,
	`# and place a "*" character at the beginning of the line`,
}

// ReviewRows returns a row for every unclassified source transaction of m,
// with the classification suggested by rules, in review order.
func ReviewRows(m *Model, rules []*Rule) []ReviewRow {
	var rows []ReviewRow
	for _, t := range m.Unclassified() {
		suggested := ""
		if c := ApplyRules(rules, t); c != nil {
			suggested = c.String()
		}
		rows = append(rows, ReviewRow{
			Date:                    t.Date.String(),
			Amount:                  formatAmount(t.AmountInCents, t.Currency),
			Description:             normalizeText(t.Description),
			Account:                 t.AccountName,
			SuggestedClassification: suggested,
			Check:                   t.CheckNumber,
			SuggestedCategory:       normalizeText(t.SuggestedCategory),
			TransactionID:           t.TransactionID,
		})
	}
	slices.SortStableFunc(rows, compareReviewRows)
	return rows
}

// compareReviewRows orders rows with a suggestion first, then by suggestion,
// then latest first, then by transaction id.
func compareReviewRows(a, b ReviewRow) int {
	switch {
	case a.SuggestedClassification != "" && b.SuggestedClassification == "":
		return -1
	case a.SuggestedClassification == "" && b.SuggestedClassification != "":
		return 1
	}
	if c := strings.Compare(a.SuggestedClassification, b.SuggestedClassification); c != 0 {
		return c
	}
	if c := strings.Compare(a.Date, b.Date); c != 0 {
		return -c
	}
	return strings.Compare(a.TransactionID, b.TransactionID)
}

// formatAmount displays cents in currency, followed by the currency code: "$12.34 (USD)".
func formatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%s (%s)", money.New(cents, currency).Display(), currency)
}

// normalizeText collapses white spaces and removes the column separator.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, reviewSeparator, " ")), " ")
}

// wrap splits s in lines of at most width display columns, on word boundaries.
func wrap(s string, width int) []string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return []string{s}
	}
	w := wordwrap.NewWriter(width)
	w.Breakpoints = nil
	w.Write([]byte(s))
	w.Close()
	lines := strings.Split(w.String(), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return lines
}

// WriteReview writes the review report: comment lines, a header row, then
// the rows. Wrapped cells continue on the following lines with an empty
// TRANSACTIONID.
func WriteReview(w io.Writer, rows []ReviewRow) error {
	// cells[row][column] holds the physical lines of a cell
	cells := make([][][]string, len(rows))
	widths := make([]int, len(reviewColumns))
	for j, col := range reviewColumns {
		widths[j] = max(col.minWidth, runewidth.StringWidth(col.header))
	}
	for i := range rows {
		cells[i] = make([][]string, len(reviewColumns))
		for j, col := range reviewColumns {
			lines := wrap(*col.field(&rows[i]), col.maxWidth)
			cells[i][j] = lines
			for _, l := range lines {
				widths[j] = max(widths[j], runewidth.StringWidth(l))
			}
		}
	}

	bw := bufio.NewWriter(w)
	for _, l := range reviewHeader {
		fmt.Fprintln(bw, l)
	}
	fmt.Fprintln(bw)

	writeLine := func(values func(j int) string) {
		parts := make([]string, len(reviewColumns))
		for j, col := range reviewColumns {
			if col.alignRight {
				parts[j] = runewidth.FillLeft(values(j), widths[j])
			} else {
				parts[j] = runewidth.FillRight(values(j), widths[j])
			}
		}
		fmt.Fprintln(bw, strings.TrimRight(strings.Join(parts, reviewSeparator), " "))
	}
	writeLine(func(j int) string { return reviewColumns[j].header })
	for _, row := range cells {
		height := 0
		for _, lines := range row {
			height = max(height, len(lines))
		}
		for k := range height {
			writeLine(func(j int) string {
				if k < len(row[j]) {
					return row[j][k]
				}
				return ""
			})
		}
	}
	return bw.Flush()
}

// ReadReview parses a review report. Comment lines and lines with a single
// column are skipped; the first other line is the header row. A line with an
// empty TRANSACTIONID continues the previous row.
func ReadReview(r io.Reader) ([]ReviewRow, error) {
	var (
		headers []string
		rows    []ReviewRow
		current *ReviewRow
	)
	byHeader := make(map[string]reviewColumn)
	for _, col := range reviewColumns {
		byHeader[col.header] = col
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		columns := strings.Split(line, reviewSeparator)
		if len(columns) <= 1 {
			continue
		}
		for i := range columns {
			columns[i] = strings.TrimSpace(columns[i])
		}
		if headers == nil {
			for _, required := range []string{"*", "SUGGESTEDCLASSIFICATION", "TRANSACTIONID"} {
				if !slices.Contains(columns, required) {
					return nil, &ReportFormatError{Line: n, Reason: fmt.Sprintf("header row has no %q column", required)}
				}
			}
			headers = columns
			continue
		}
		if len(columns) > len(headers) {
			return nil, &ReportFormatError{Line: n, Reason: fmt.Sprintf("%d columns, but the header row has %d", len(columns), len(headers))}
		}

		var row ReviewRow
		for i, v := range columns {
			if col, ok := byHeader[headers[i]]; ok {
				*col.field(&row) = v
			}
		}
		if row.TransactionID != "" {
			if current != nil {
				rows = append(rows, *current)
			}
			current = &row
			continue
		}
		if current == nil {
			continue
		}
		// approval marks only count on the first line of a row
		for _, col := range reviewColumns[1:] {
			if v := *col.field(&row); v != "" {
				f := col.field(current)
				*f = strings.TrimSpace(*f + " " + v)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading review report: %w", err)
	}
	if current != nil {
		rows = append(rows, *current)
	}
	return rows, nil
}

// NewlyClassified returns a classification log line for every approved row:
// its marker starts with '*' and it has both a transaction id and a
// classification. Classifications must parse and resolve in chart. source
// names the report in errors.
func NewlyClassified(rows []ReviewRow, chart *Chart, source string) ([]*ClassifiedTransaction, error) {
	var list []*ClassifiedTransaction
	for _, row := range rows {
		if !strings.HasPrefix(row.Approved, "*") || row.TransactionID == "" || row.SuggestedClassification == "" {
			continue
		}
		c, err := ParseClassification(row.SuggestedClassification)
		if err != nil {
			return nil, &UnparsableClassificationError{Text: row.SuggestedClassification, TransactionID: row.TransactionID, Source: source}
		}
		if err := ValidateClassification(chart, c); err != nil {
			return nil, fmt.Errorf("transaction %q in %s: %w", row.TransactionID, source, err)
		}
		list = append(list, NewClassifiedTransaction(row.TransactionID, c))
	}
	return list, nil
}

// ReadReviewFile reads the review report at filename. A missing file has no row.
func ReadReviewFile(filename string) ([]ReviewRow, error) {
	f, err := os.Open(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not open review report %q: %w", filename, err)
	}
	defer f.Close()
	rows, err := ReadReview(f)
	if err != nil {
		return nil, fmt.Errorf("in %q: %w", filename, err)
	}
	return rows, nil
}

// WriteReviewFile replaces the review report at filename.
func WriteReviewFile(filename string, rows []ReviewRow) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("could not create directory for %q: %w", filename, err)
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create review report %q: %w", filename, err)
	}
	if err := WriteReview(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("could not write review report %q: %w", filename, err)
	}
	return f.Close()
}
