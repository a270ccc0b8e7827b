// Package dashboard turns an input snapshot and its ratios into the view
// model rendered by the web UI: the input sidebar, summary cards and the
// three analysis tabs.
package dashboard

import (
	"strings"

	"github.com/iwvelando/ratio-dashboard/internal/ratios"
	"github.com/iwvelando/ratio-dashboard/internal/trend"
	"github.com/iwvelando/ratio-dashboard/pkg/constants"
	"github.com/iwvelando/ratio-dashboard/pkg/format"
	"github.com/iwvelando/ratio-dashboard/pkg/mathutil"
)

// Tab identifies one of the analysis panels.
type Tab string

const (
	TabLiquidity     Tab = Tab(ratios.Liquidity)
	TabProfitability Tab = Tab(ratios.Profitability)
	TabEfficiency    Tab = Tab(ratios.Efficiency)
)

var tabTitles = map[Tab]string{
	TabLiquidity:     "💧 Liquidity",
	TabProfitability: "💰 Profitability",
	TabEfficiency:    "⚙️ Efficiency",
}

// Tabs returns the tabs in display order.
func Tabs() []Tab {
	return []Tab{TabLiquidity, TabProfitability, TabEfficiency}
}

// ParseTab resolves a tab name case-insensitively, falling back to liquidity.
func ParseTab(name string) Tab {
	trimmed := strings.TrimSpace(name)
	for _, t := range Tabs() {
		if strings.EqualFold(string(t), trimmed) {
			return t
		}
	}
	return TabLiquidity
}

// Options tune how a View is built.
type Options struct {
	CurrencySymbol string
	Policy         *trend.Policy
}

// InputField is one numeric input in the sidebar.
type InputField struct {
	Name  ratios.Field `json:"name"`
	Label string       `json:"label"`
	Value float64      `json:"value"`
}

// InputSection is a titled group of sidebar inputs.
type InputSection struct {
	Title  string       `json:"title"`
	Fields []InputField `json:"fields"`
}

// Card is a summary metric card.
type Card struct {
	Metric ratios.Metric `json:"metric"`
	Title  string        `json:"title"`
	Value  string        `json:"value"`
	Icon   string        `json:"icon"`
	Trend  trend.Label   `json:"trend,omitempty"`
	Badge  string        `json:"badge,omitempty"`
}

// InfoBox is a labeled ratio with a short explanation.
type InfoBox struct {
	Metric      ratios.Metric `json:"metric"`
	Label       string        `json:"label"`
	Value       string        `json:"value"`
	Description string        `json:"description"`
	Color       string        `json:"color"`
}

// Detail is a label/value row in the profitability panel.
type Detail struct {
	Metric ratios.Metric `json:"metric"`
	Label  string        `json:"label"`
	Value  string        `json:"value"`
	Color  string        `json:"color"`
}

// Bar is one bar of a panel chart.
type Bar struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Fill  string  `json:"fill"`
}

// Highlight is the large net margin figure with its progress bar.
type Highlight struct {
	Value    string  `json:"value"`
	Label    string  `json:"label"`
	Progress float64 `json:"progress"`
}

// Panel is the content of one tab.
type Panel struct {
	Tab       Tab        `json:"tab"`
	Title     string     `json:"title"`
	Heading   string     `json:"heading"`
	Summary   string     `json:"summary"`
	Active    bool       `json:"active"`
	InfoBoxes []InfoBox  `json:"infoBoxes,omitempty"`
	Details   []Detail   `json:"details,omitempty"`
	Chart     []Bar      `json:"chart,omitempty"`
	Highlight *Highlight `json:"highlight,omitempty"`
}

// View is everything the UI needs to render one state of the dashboard.
type View struct {
	Inputs    []InputSection `json:"inputs"`
	Cards     []Card         `json:"cards"`
	Panels    []Panel        `json:"panels"`
	ActiveTab Tab            `json:"activeTab"`
}

// Build assembles the view for inputs and their result with active selected.
func Build(inputs ratios.FinancialInputs, result ratios.RatioResult, active Tab, opts Options) View {
	if opts.Policy == nil {
		opts.Policy = trend.DefaultPolicy()
	}
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = constants.DefaultCurrencySymbol
	}
	active = ParseTab(string(active))

	return View{
		Inputs:    buildInputs(inputs, opts.CurrencySymbol),
		Cards:     buildCards(result, opts.Policy),
		Panels:    buildPanels(result, active),
		ActiveTab: active,
	}
}

func buildInputs(inputs ratios.FinancialInputs, symbol string) []InputSection {
	sections := []InputSection{
		{Title: "Profitability Inputs"},
		{Title: "Balance Sheet Inputs"},
	}
	for _, f := range ratios.Fields() {
		idx := 1
		if f.Group() == ratios.GroupProfitability {
			idx = 0
		}
		sections[idx].Fields = append(sections[idx].Fields, InputField{
			Name:  f,
			Label: f.Label() + " (" + symbol + ")",
			Value: inputs.Get(f),
		})
	}
	return sections
}

type cardDef struct {
	metric ratios.Metric
	title  string
	icon   string
}

var cardDefs = []cardDef{
	{ratios.NetMargin, "Net Profit Margin", "dollar-sign"},
	{ratios.CurrentRatio, "Current Ratio", "briefcase"},
	{ratios.ROA, "ROA", "trending-up"},
	{ratios.AssetTurnover, "Asset Turnover", "settings"},
}

func buildCards(result ratios.RatioResult, policy *trend.Policy) []Card {
	cards := make([]Card, 0, len(cardDefs))
	for _, def := range cardDefs {
		value := result.Value(def.metric)
		card := Card{
			Metric: def.metric,
			Title:  def.title,
			Value:  Display(def.metric, value),
			Icon:   def.icon,
		}
		if label, ok := policy.Classify(def.metric, value); ok {
			card.Trend = label
			card.Badge = label.Badge()
		}
		cards = append(cards, card)
	}
	return cards
}

func buildPanels(result ratios.RatioResult, active Tab) []Panel {
	panels := []Panel{
		{
			Tab:     TabLiquidity,
			Heading: "Liquidity Analysis",
			Summary: "Liquidity ratios measure a company's ability to pay debt obligations.",
			InfoBoxes: []InfoBox{
				infoBox(result, ratios.CurrentRatio, "Target: > 1.5. Ability to pay short-term obligations.", "blue"),
				infoBox(result, ratios.QuickRatio, "Target: > 1.0. Ability to pay without selling inventory.", "sky"),
			},
			Chart: []Bar{
				{Name: "Current Ratio", Value: result.CurrentRatio, Fill: "#4CAF50"},
				{Name: "Quick Ratio", Value: result.QuickRatio, Fill: "#2196F3"},
			},
		},
		{
			Tab:     TabProfitability,
			Heading: "Profitability Analysis",
			Summary: "Measures ability to generate earnings relative to revenue and assets.",
			Details: []Detail{
				detail(result, ratios.GrossMargin, "green"),
				detail(result, ratios.NetMargin, "emerald"),
				detail(result, ratios.ROA, "teal"),
			},
			Highlight: &Highlight{
				Value:    format.PercentShort(result.NetMargin),
				Label:    "Net Profit Margin",
				Progress: mathutil.Clamp(result.NetMargin, 0, 100),
			},
		},
		{
			Tab:     TabEfficiency,
			Heading: "Efficiency Analysis",
			Summary: "Efficiency ratios measure how effectively a company uses its assets.",
			InfoBoxes: []InfoBox{
				infoBox(result, ratios.AssetTurnover, "Higher is better. Revenue generated per dollar of assets.", "orange"),
				infoBox(result, ratios.InventoryTurnover, "Higher is better. Times inventory is sold and replaced.", "amber"),
			},
			Chart: []Bar{
				{Name: "Asset Turnover", Value: result.AssetTurnover, Fill: "#FF9800"},
				{Name: "Inv. Turnover", Value: result.InventoryTurnover, Fill: "#FF5722"},
			},
		},
	}

	for i := range panels {
		panels[i].Title = tabTitles[panels[i].Tab]
		panels[i].Active = panels[i].Tab == active
	}
	return panels
}

func infoBox(result ratios.RatioResult, m ratios.Metric, desc, color string) InfoBox {
	return InfoBox{
		Metric:      m,
		Label:       m.Label(),
		Value:       Display(m, result.Value(m)),
		Description: desc,
		Color:       color,
	}
}

func detail(result ratios.RatioResult, m ratios.Metric, color string) Detail {
	return Detail{
		Metric: m,
		Label:  m.Label(),
		Value:  Display(m, result.Value(m)),
		Color:  color,
	}
}

// Display renders value according to the unit of m. Currency metrics are
// rendered without a symbol.
func Display(m ratios.Metric, value float64) string {
	switch m.Unit() {
	case ratios.UnitPercent:
		return format.Percent(value)
	case ratios.UnitCurrency:
		return format.NumericCurrency(value)
	default:
		return format.Ratio(value)
	}
}
