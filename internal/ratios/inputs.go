// Package ratios holds the raw financial inputs of a dashboard session and
// derives the liquidity, profitability and efficiency ratios from them.
package ratios

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/iwvelando/ratio-dashboard/pkg/constants"
	"github.com/iwvelando/ratio-dashboard/pkg/mathutil"
	"github.com/spf13/cast"
)

// Field names one of the seven raw inputs.
type Field string

// Known input fields, in sidebar order.
const (
	Revenue            Field = "revenue"
	COGS               Field = "cogs"
	NetIncome          Field = "netIncome"
	TotalAssets        Field = "totalAssets"
	CurrentAssets      Field = "currentAssets"
	Inventory          Field = "inventory"
	CurrentLiabilities Field = "currentLiabilities"
)

// InputGroup is the sidebar section a field is entered in.
type InputGroup string

const (
	GroupProfitability InputGroup = "profitability"
	GroupBalanceSheet  InputGroup = "balanceSheet"
)

var fieldOrder = []Field{Revenue, COGS, NetIncome, TotalAssets, CurrentAssets, Inventory, CurrentLiabilities}

var fieldLabels = map[Field]string{
	Revenue:            "Revenue",
	COGS:               "COGS",
	NetIncome:          "Net Income",
	TotalAssets:        "Total Assets",
	CurrentAssets:      "Current Assets",
	Inventory:          "Inventory",
	CurrentLiabilities: "Current Liabilities",
}

// Fields returns every known field in sidebar order.
func Fields() []Field {
	return append([]Field(nil), fieldOrder...)
}

// Label returns the human-readable name of the field.
func (f Field) Label() string {
	return fieldLabels[f]
}

// Group returns the sidebar section the field belongs to.
func (f Field) Group() InputGroup {
	switch f {
	case Revenue, COGS, NetIncome:
		return GroupProfitability
	default:
		return GroupBalanceSheet
	}
}

// Valid reports whether f is one of the known fields.
func (f Field) Valid() bool {
	_, ok := fieldLabels[f]
	return ok
}

// ParseField resolves a wire name to a Field. Exact names match first, then a
// case-insensitive comparison is tried.
func ParseField(name string) (Field, error) {
	trimmed := strings.TrimSpace(name)
	if f := Field(trimmed); f.Valid() {
		return f, nil
	}
	for _, f := range fieldOrder {
		if strings.EqualFold(string(f), trimmed) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown input field %q", name)
}

// FinancialInputs is one snapshot of the raw figures entered by the user.
// Any combination of values is accepted; no cross-field checks are applied.
type FinancialInputs struct {
	Revenue            float64 `json:"revenue" yaml:"revenue" mapstructure:"revenue"`
	COGS               float64 `json:"cogs" yaml:"cogs" mapstructure:"cogs"`
	NetIncome          float64 `json:"netIncome" yaml:"netIncome" mapstructure:"netIncome"`
	TotalAssets        float64 `json:"totalAssets" yaml:"totalAssets" mapstructure:"totalAssets"`
	CurrentAssets      float64 `json:"currentAssets" yaml:"currentAssets" mapstructure:"currentAssets"`
	Inventory          float64 `json:"inventory" yaml:"inventory" mapstructure:"inventory"`
	CurrentLiabilities float64 `json:"currentLiabilities" yaml:"currentLiabilities" mapstructure:"currentLiabilities"`
}

// DefaultInputs returns the figures a fresh dashboard starts with.
func DefaultInputs() FinancialInputs {
	return FinancialInputs{
		Revenue:            constants.DefaultRevenue,
		COGS:               constants.DefaultCOGS,
		NetIncome:          constants.DefaultNetIncome,
		TotalAssets:        constants.DefaultTotalAssets,
		CurrentAssets:      constants.DefaultCurrentAssets,
		Inventory:          constants.DefaultInventory,
		CurrentLiabilities: constants.DefaultCurrentLiabilities,
	}
}

// Get returns the value of field f, or 0 for an unknown field.
func (in FinancialInputs) Get(f Field) float64 {
	switch f {
	case Revenue:
		return in.Revenue
	case COGS:
		return in.COGS
	case NetIncome:
		return in.NetIncome
	case TotalAssets:
		return in.TotalAssets
	case CurrentAssets:
		return in.CurrentAssets
	case Inventory:
		return in.Inventory
	case CurrentLiabilities:
		return in.CurrentLiabilities
	}
	return 0
}

// With returns a copy of the snapshot with field f replaced by value. An
// unknown field returns the snapshot unchanged.
func (in FinancialInputs) With(f Field, value float64) FinancialInputs {
	switch f {
	case Revenue:
		in.Revenue = value
	case COGS:
		in.COGS = value
	case NetIncome:
		in.NetIncome = value
	case TotalAssets:
		in.TotalAssets = value
	case CurrentAssets:
		in.CurrentAssets = value
	case Inventory:
		in.Inventory = value
	case CurrentLiabilities:
		in.CurrentLiabilities = value
	}
	return in
}

// leadingNumber matches the decimal number at the start of numeric input
// text, e.g. "12" in "12abc". Hex, binary and underscore forms are not numbers.
var leadingNumber = regexp.MustCompile(`^[+-]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?`)

// ParseAmount converts raw text from a numeric input control into a value.
// Leading whitespace is skipped and the longest decimal prefix is used;
// text without one, and values that are not finite, become 0.
func ParseAmount(raw string) float64 {
	prefix := leadingNumber.FindString(strings.TrimLeft(raw, " \t\n\r\f\v"))
	if prefix == "" {
		return 0
	}
	value, err := cast.ToFloat64E(prefix)
	if err != nil || !mathutil.IsFinite(value) {
		return 0
	}
	return value
}
