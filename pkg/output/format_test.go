package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iwvelando/ratio-dashboard/internal/ratios"
	"github.com/iwvelando/ratio-dashboard/internal/trend"
	"github.com/iwvelando/ratio-dashboard/pkg/testutil"
)

func baselineReport() Report {
	return NewReport(testutil.BaselineInputs(), nil, "")
}

func TestPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	PrettyFormat(&buf, baselineReport())
	output := buf.String()

	wants := []string{
		"--- Inputs ---",
		"--- Liquidity ---",
		"--- Profitability ---",
		"--- Efficiency ---",
		"₵100,000.00",
		"₵15,000.00",
		"₵60,000.00",
		"60.00%",
		"1.67",
		"8.00",
	}
	for _, want := range wants {
		if !strings.Contains(output, want) {
			t.Errorf("PrettyFormat missing %q in:\n%s", want, output)
		}
	}

	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "Current Ratio ") && !strings.HasSuffix(line, "Good") {
			t.Errorf("expected Good badge on current ratio line, got %q", line)
		}
		if strings.HasPrefix(line, "Asset Turnover ") && !strings.HasSuffix(line, "| ") {
			t.Errorf("expected no badge on asset turnover line, got %q", line)
		}
	}
}

func TestPrettyFormatNegativeGrossProfit(t *testing.T) {
	var buf bytes.Buffer
	PrettyFormat(&buf, NewReport(ratios.FinancialInputs{Revenue: 1000, COGS: 1500}, nil, "$"))
	if !strings.Contains(buf.String(), "-$500.00") {
		t.Errorf("expected negative gross profit, got:\n%s", buf.String())
	}
}

func TestCsvFormat(t *testing.T) {
	output := CsvString(baselineReport())
	lines := strings.Split(strings.TrimSpace(output), "\n")

	if lines[0] != `"metric","category","value","display","trend"` {
		t.Errorf("unexpected header %q", lines[0])
	}
	if len(lines) != len(ratios.Metrics())+1 {
		t.Fatalf("expected %d lines, got %d", len(ratios.Metrics())+1, len(lines))
	}

	expected := map[string]string{
		"currentRatio":      `"currentRatio","liquidity","2","2.00","positive"`,
		"grossProfit":       `"grossProfit","profitability","60000","60,000.00",""`,
		"assetTurnover":     `"assetTurnover","efficiency","2","2.00",""`,
		"inventoryTurnover": `"inventoryTurnover","efficiency","8","8.00",""`,
	}
	for _, line := range lines[1:] {
		name := strings.Trim(strings.SplitN(line, ",", 2)[0], `"`)
		if want, ok := expected[name]; ok && line != want {
			t.Errorf("row %s: expected %s, got %s", name, want, line)
		}
	}
}

func TestJSONFormat(t *testing.T) {
	in := testutil.BaselineInputs()
	in.CurrentLiabilities = 0

	var buf bytes.Buffer
	if err := JSONFormat(&buf, NewReport(in, nil, "")); err != nil {
		t.Fatalf("JSONFormat() error = %v", err)
	}

	var decoded struct {
		Inputs ratios.FinancialInputs `json:"inputs"`
		Ratios ratios.RatioResult     `json:"ratios"`
		Trends map[string]trend.Label `json:"trends"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if decoded.Inputs != in {
		t.Errorf("unexpected inputs %+v", decoded.Inputs)
	}
	if decoded.Ratios.CurrentRatio != 0 {
		t.Errorf("expected current ratio 0, got %v", decoded.Ratios.CurrentRatio)
	}
	if decoded.Trends["currentRatio"] != trend.Negative {
		t.Errorf("expected negative current ratio trend, got %q", decoded.Trends["currentRatio"])
	}
	if _, ok := decoded.Trends["assetTurnover"]; ok {
		t.Error("expected asset turnover to be untagged")
	}
}
