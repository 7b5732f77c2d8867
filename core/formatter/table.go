package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

// TableFormatter formats output as aligned text tables.
type TableFormatter struct{}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{}
}

// Name returns the formatter name.
func (f *TableFormatter) Name() string {
	return "table"
}

// Description returns the formatter description.
func (f *TableFormatter) Description() string {
	return "Aligned text table output"
}

// FormatList formats a list of records as a table.
func (f *TableFormatter) FormatList(w io.Writer, list List, opts FormatOptions) error {
	if len(list.Records) == 0 {
		kind := list.Kind
		if kind == "" {
			kind = "records"
		}
		fmt.Fprintf(w, "No %s found.\n", kind)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	columns := opts.columns(list)

	if !opts.NoHeader {
		headers := make([]string, len(columns))
		rules := make([]string, len(columns))
		for i, col := range columns {
			headers[i] = strings.ToUpper(col)
			rules[i] = strings.Repeat("-", len(col))
		}
		fmt.Fprintln(tw, strings.Join(headers, "\t"))
		fmt.Fprintln(tw, strings.Join(rules, "\t"))
	}

	for _, record := range list.Records {
		values := make([]string, len(columns))
		for i, col := range columns {
			values[i] = f.formatValue(record[col], opts.MaxWidth)
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}

	return tw.Flush()
}

// FormatError formats an error message.
func (f *TableFormatter) FormatError(w io.Writer, err error) error {
	_, werr := fmt.Fprintf(w, "Error: %s\n", err.Error())
	return werr
}

// formatValue formats a value for display.
func (f *TableFormatter) formatValue(val any, maxWidth int) string {
	if val == nil {
		return "-"
	}

	var str string
	switch v := val.(type) {
	case string:
		str = v
		if str == "" {
			str = "-"
		}
	case bool:
		if v {
			str = "yes"
		} else {
			str = "no"
		}
	case int, int64:
		str = fmt.Sprintf("%d", v)
	case float64:
		if v == float64(int64(v)) {
			str = fmt.Sprintf("%d", int64(v))
		} else {
			str = fmt.Sprintf("%.2f", v)
		}
	case time.Time:
		str = v.Format("2006-01-02 15:04")
	default:
		b, _ := json.Marshal(v)
		str = string(b)
	}

	if maxWidth > 3 && len(str) > maxWidth {
		str = str[:maxWidth-3] + "..."
	}

	return str
}
