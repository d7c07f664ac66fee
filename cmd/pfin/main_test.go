package main

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"project_finance/pkg/config"
	"project_finance/pkg/core/params"
	"project_finance/pkg/core/projection"
	"project_finance/pkg/core/sweep"
	"project_finance/pkg/report"
)

func TestParseAxis(t *testing.T) {
	axis, err := parseAxis("aep=2000, 2500,3000")
	if err != nil {
		t.Fatalf("parseAxis: %v", err)
	}
	if axis.Field != params.FieldAEP {
		t.Errorf("field = %q, want aep", axis.Field)
	}
	want := []float64{2000, 2500, 3000}
	if len(axis.Values) != len(want) {
		t.Fatalf("values = %v, want %v", axis.Values, want)
	}
	for i := range want {
		if axis.Values[i] != want[i] {
			t.Errorf("values[%d] = %g, want %g", i, axis.Values[i], want[i])
		}
	}
}

func TestParseAxis_Errors(t *testing.T) {
	for _, spec := range []string{"aep", "height=1,2", "price=abc", "price="} {
		if _, err := parseAxis(spec); err == nil {
			t.Errorf("parseAxis(%q) should fail", spec)
		}
	}
	if _, err := parseAxis("price=,"); !errors.Is(err, sweep.ErrEmptyAxis) {
		t.Errorf("expected ErrEmptyAxis, got %v", err)
	}
}

func TestPct(t *testing.T) {
	if got := pct(0.1234); got != "12.34%" {
		t.Errorf("pct = %q", got)
	}
	if got := pct(math.NaN()); got != "n/a" {
		t.Errorf("pct(NaN) = %q", got)
	}
}

func TestScenarioName(t *testing.T) {
	if got := scenarioName(""); got != "default" {
		t.Errorf("scenarioName(\"\") = %q", got)
	}
	if got := scenarioName("configs/scenarios/pv.hjson"); got != "pv" {
		t.Errorf("scenarioName = %q, want pv", got)
	}
}

func TestSaveFlows_Portfolio(t *testing.T) {
	dir := t.TempDir()
	rt := &runtime{
		cfg:      &config.Config{Report: config.ReportConfig{Dir: dir, Format: "markdown", Places: 2}},
		renderer: report.NewRenderer(2),
	}

	wind, err := projection.Project(params.Default())
	if err != nil {
		t.Fatalf("wind: %v", err)
	}
	pv := params.Default()
	pv.Capacity, pv.AEP, pv.StaticInvestment, pv.OperatePeriod = 20, 1400, 70000, 25
	solar, err := projection.Project(pv)
	if err != nil {
		t.Fatalf("pv: %v", err)
	}
	portfolio, err := projection.Combine(wind, solar)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}

	if err := saveFlows(rt, portfolio); err != nil {
		t.Fatalf("saveFlows: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "flows.md"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	out := string(data)
	for _, want := range []string{"## Pre-tax", "## Equity", "Equity net flow", "| C1 |", "| Y25 |"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
}
