// Package testutil provides common utility functions for testing.
package testutil

import (
	"math"
	"testing"

	"github.com/iwvelando/ratio-dashboard/internal/ratios"
	"github.com/iwvelando/ratio-dashboard/pkg/constants"
)

// Scenario is a named input snapshot.
type Scenario struct {
	Name   string
	Inputs ratios.FinancialInputs
}

// BaselineInputs returns the reference snapshot used across tests.
func BaselineInputs() ratios.FinancialInputs {
	return ratios.FinancialInputs{
		Revenue:            100000,
		COGS:               40000,
		NetIncome:          20000,
		TotalAssets:        50000,
		CurrentAssets:      30000,
		Inventory:          5000,
		CurrentLiabilities: 15000,
	}
}

// Scenarios returns the shared fixtures: baseline, all zero, no current
// liabilities, and a net loss.
func Scenarios() []Scenario {
	noLiabilities := BaselineInputs()
	noLiabilities.CurrentLiabilities = 0

	netLoss := BaselineInputs()
	netLoss.NetIncome = -5000

	return []Scenario{
		{Name: "baseline", Inputs: BaselineInputs()},
		{Name: "all zero", Inputs: ratios.FinancialInputs{}},
		{Name: "no current liabilities", Inputs: noLiabilities},
		{Name: "net loss", Inputs: netLoss},
	}
}

// FindScenario finds a scenario by name in the scenarios slice.
// Returns a pointer to the scenario if found, nil otherwise.
func FindScenario(scenarios []Scenario, name string) *Scenario {
	for i := range scenarios {
		if scenarios[i].Name == name {
			return &scenarios[i]
		}
	}
	return nil
}

// AssertClose fails the test when got and want differ by more than the ratio tolerance.
func AssertClose(t testing.TB, label string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > constants.RatioTolerance {
		t.Errorf("%s = %.4f, expected %.4f", label, got, want)
	}
}

// AssertFinite fails the test when any metric of result is NaN or infinite.
func AssertFinite(t testing.TB, result ratios.RatioResult) {
	t.Helper()
	for _, m := range ratios.Metrics() {
		v := result.Value(m)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s is not finite: %v", m, v)
		}
	}
}
