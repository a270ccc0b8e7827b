// Package output provides utilities for formatting and displaying ratio reports.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/ratio-dashboard/internal/dashboard"
	"github.com/iwvelando/ratio-dashboard/internal/ratios"
	"github.com/iwvelando/ratio-dashboard/internal/trend"
	"github.com/iwvelando/ratio-dashboard/pkg/constants"
	"github.com/iwvelando/ratio-dashboard/pkg/format"
)

// Report is one input snapshot with its derived ratios.
type Report struct {
	Inputs         ratios.FinancialInputs
	Ratios         ratios.RatioResult
	Policy         *trend.Policy
	CurrencySymbol string
}

// NewReport computes the ratios for inputs.
func NewReport(inputs ratios.FinancialInputs, policy *trend.Policy, symbol string) Report {
	return Report{
		Inputs:         inputs,
		Ratios:         ratios.Compute(inputs),
		Policy:         policy,
		CurrencySymbol: symbol,
	}
}

func (r Report) policy() *trend.Policy {
	if r.Policy == nil {
		return trend.DefaultPolicy()
	}
	return r.Policy
}

func (r Report) symbol() string {
	if r.CurrencySymbol == "" {
		return constants.DefaultCurrencySymbol
	}
	return r.CurrencySymbol
}

func (r Report) display(m ratios.Metric) string {
	value := r.Ratios.Value(m)
	if m.Unit() == ratios.UnitCurrency {
		return format.Currency(value, r.symbol())
	}
	return dashboard.Display(m, value)
}

// PrettyFormat writes a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, r Report) {
	fmt.Fprintf(w, "--- Inputs ---\n")
	fmt.Fprintf(w, "%-22s | Amount\n", "Field")
	fmt.Fprintf(w, "%s | ______\n", strings.Repeat("_", 22))
	for _, f := range ratios.Fields() {
		fmt.Fprintf(w, "%-22s | %s\n", f.Label(), format.Currency(r.Inputs.Get(f), r.symbol()))
	}

	policy := r.policy()
	for _, c := range ratios.Categories() {
		fmt.Fprintf(w, "\n--- %s ---\n", strings.ToUpper(string(c[:1]))+string(c[1:]))
		fmt.Fprintf(w, "%-22s | %-14s | Trend\n", "Metric", "Value")
		fmt.Fprintf(w, "%s | %s | _____\n", strings.Repeat("_", 22), strings.Repeat("_", 14))
		for _, m := range ratios.ByCategory(c) {
			badge := ""
			if label, ok := policy.Classify(m, r.Ratios.Value(m)); ok {
				badge = label.Badge()
			}
			fmt.Fprintf(w, "%-22s | %-14s | %s\n", m.Label(), r.display(m), badge)
		}
	}
}

// CsvFormat writes one row per metric in comma-separated value format.
func CsvFormat(w io.Writer, r Report) {
	fmt.Fprintf(w, `"metric","category","value","display","trend"`+"\n")
	policy := r.policy()
	for _, m := range ratios.Metrics() {
		value := r.Ratios.Value(m)
		label, _ := policy.Classify(m, value)
		fmt.Fprintf(w, `"%s","%s","%s","%s","%s"`+"\n",
			m, m.Category(), strconv.FormatFloat(value, 'f', -1, 64), dashboard.Display(m, value), label)
	}
}

// CsvString returns the CSV report as a string.
func CsvString(r Report) string {
	var b strings.Builder
	CsvFormat(&b, r)
	return b.String()
}

type jsonReport struct {
	Inputs ratios.FinancialInputs `json:"inputs"`
	Ratios ratios.RatioResult     `json:"ratios"`
	Trends map[string]trend.Label `json:"trends"`
}

// JSONFormat writes the inputs, ratios and trend labels as indented JSON.
func JSONFormat(w io.Writer, r Report) error {
	policy := r.policy()
	trends := make(map[string]trend.Label)
	for _, m := range ratios.Metrics() {
		if label, ok := policy.Classify(m, r.Ratios.Value(m)); ok {
			trends[string(m)] = label
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonReport{Inputs: r.Inputs, Ratios: r.Ratios, Trends: trends}); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
