package ratios

import (
	"fmt"
	"strings"

	"github.com/iwvelando/ratio-dashboard/pkg/mathutil"
)

// Category groups metrics by the question they answer.
type Category string

const (
	Liquidity     Category = "liquidity"
	Profitability Category = "profitability"
	Efficiency    Category = "efficiency"
)

// Categories returns the categories in tab order.
func Categories() []Category {
	return []Category{Liquidity, Profitability, Efficiency}
}

// Unit describes how a metric value is rendered.
type Unit string

const (
	UnitRatio    Unit = "ratio"
	UnitPercent  Unit = "percent"
	UnitCurrency Unit = "currency"
)

// Metric names one of the derived values in a RatioResult.
type Metric string

const (
	CurrentRatio      Metric = "currentRatio"
	QuickRatio        Metric = "quickRatio"
	GrossProfit       Metric = "grossProfit"
	GrossMargin       Metric = "grossMargin"
	NetMargin         Metric = "netMargin"
	ROA               Metric = "roa"
	AssetTurnover     Metric = "assetTurnover"
	InventoryTurnover Metric = "inventoryTurnover"
)

type metricInfo struct {
	label    string
	category Category
	unit     Unit
}

var metricOrder = []Metric{CurrentRatio, QuickRatio, GrossProfit, GrossMargin, NetMargin, ROA, AssetTurnover, InventoryTurnover}

var metricInfos = map[Metric]metricInfo{
	CurrentRatio:      {"Current Ratio", Liquidity, UnitRatio},
	QuickRatio:        {"Quick Ratio", Liquidity, UnitRatio},
	GrossProfit:       {"Gross Profit", Profitability, UnitCurrency},
	GrossMargin:       {"Gross Margin", Profitability, UnitPercent},
	NetMargin:         {"Net Margin", Profitability, UnitPercent},
	ROA:               {"Return on Assets (ROA)", Profitability, UnitPercent},
	AssetTurnover:     {"Asset Turnover", Efficiency, UnitRatio},
	InventoryTurnover: {"Inventory Turnover", Efficiency, UnitRatio},
}

// Metrics returns every metric in display order.
func Metrics() []Metric {
	return append([]Metric(nil), metricOrder...)
}

// Label returns the display name of the metric.
func (m Metric) Label() string { return metricInfos[m].label }

// Category returns the metric's category.
func (m Metric) Category() Category { return metricInfos[m].category }

// Unit returns how the metric is rendered.
func (m Metric) Unit() Unit { return metricInfos[m].unit }

// Valid reports whether m is a known metric.
func (m Metric) Valid() bool {
	_, ok := metricInfos[m]
	return ok
}

// ParseMetric resolves a wire name to a Metric, case-insensitively.
func ParseMetric(name string) (Metric, error) {
	trimmed := strings.TrimSpace(name)
	for _, m := range metricOrder {
		if strings.EqualFold(string(m), trimmed) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown metric %q", name)
}

// RatioResult holds the values derived from one FinancialInputs snapshot.
// Percent metrics are already scaled by 100.
type RatioResult struct {
	CurrentRatio      float64 `json:"currentRatio"`
	QuickRatio        float64 `json:"quickRatio"`
	GrossProfit       float64 `json:"grossProfit"`
	GrossMargin       float64 `json:"grossMargin"`
	NetMargin         float64 `json:"netMargin"`
	ROA               float64 `json:"roa"`
	AssetTurnover     float64 `json:"assetTurnover"`
	InventoryTurnover float64 `json:"inventoryTurnover"`
}

// Compute derives every ratio from in. A ratio whose denominator is exactly
// zero is reported as 0, as is any ratio that overflows to an infinity.
// Compute has no side effects and is safe for concurrent use.
func Compute(in FinancialInputs) RatioResult {
	grossProfit := mathutil.Finite(in.Revenue - in.COGS)

	return RatioResult{
		CurrentRatio:      mathutil.Finite(mathutil.SafeDiv(in.CurrentAssets, in.CurrentLiabilities)),
		QuickRatio:        mathutil.Finite(mathutil.SafeDiv(in.CurrentAssets-in.Inventory, in.CurrentLiabilities)),
		GrossProfit:       grossProfit,
		GrossMargin:       mathutil.Finite(mathutil.CalculatePercentage(grossProfit, in.Revenue)),
		NetMargin:         mathutil.Finite(mathutil.CalculatePercentage(in.NetIncome, in.Revenue)),
		ROA:               mathutil.Finite(mathutil.CalculatePercentage(in.NetIncome, in.TotalAssets)),
		AssetTurnover:     mathutil.Finite(mathutil.SafeDiv(in.Revenue, in.TotalAssets)),
		InventoryTurnover: mathutil.Finite(mathutil.SafeDiv(in.COGS, in.Inventory)),
	}
}

// Value returns the result field addressed by m, or 0 for an unknown metric.
func (r RatioResult) Value(m Metric) float64 {
	switch m {
	case CurrentRatio:
		return r.CurrentRatio
	case QuickRatio:
		return r.QuickRatio
	case GrossProfit:
		return r.GrossProfit
	case GrossMargin:
		return r.GrossMargin
	case NetMargin:
		return r.NetMargin
	case ROA:
		return r.ROA
	case AssetTurnover:
		return r.AssetTurnover
	case InventoryTurnover:
		return r.InventoryTurnover
	}
	return 0
}

// ByCategory returns the metrics of category c in display order.
func ByCategory(c Category) []Metric {
	var out []Metric
	for _, m := range metricOrder {
		if m.Category() == c {
			out = append(out, m)
		}
	}
	return out
}
