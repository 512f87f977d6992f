package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// pct formats a 0-100 rate with one decimal.
func pct(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(1) + "%"
}

// num formats a score with one decimal.
func num(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(1)
}

func heading(w io.Writer, title string) {
	fmt.Fprintf(w, "\n  %s\n%s\n", title, strings.Repeat("=", 60))
}
