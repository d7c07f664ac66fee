// pfin - project-finance evaluator for power-generation investments
//
// Usage:
//   pfin project --scenario wind.yaml [--statements] [--flows] [--adjustments adj.html]
//   pfin project --scenario wind.yaml --scenario pv.hjson
//   pfin solve --kind price --mode equity --equity-irr 0.10
//   pfin sweep irr --rows aep=2000,2500,3000 --cols unit_investment=4500,5000
//   pfin sweep critical --kind price --rows aep=2500,3000 --cols unit_investment=4500,5000
//   pfin tariffs
package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"project_finance/pkg/config"
	"project_finance/pkg/core/params"
	"project_finance/pkg/core/projection"
	"project_finance/pkg/core/search"
	"project_finance/pkg/core/sweep"
	"project_finance/pkg/core/validate"
	"project_finance/pkg/report"
)

var version = "dev"

// runtime is the state shared by all commands, built once in the Before hook.
type runtime struct {
	cfg      *config.Config
	log      *logrus.Logger
	renderer *report.Renderer
}

func main() {
	rt := &runtime{}

	app := &cli.App{
		Name:    "pfin",
		Usage:   "Cash-flow projection and boundary search for power-generation projects",
		Version: version,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to pfin.yaml (default: ./configs/pfin.yaml or ./pfin.yaml)",
				EnvVars: []string{"PFIN_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the configured log level (debug, info, warn, error)",
			},
		},

		Before: func(c *cli.Context) error {
			// Load environment variables
			if err := godotenv.Load(); err != nil {
				fmt.Println("[ENV] .env not found, using process environment")
			}
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			if lvl := c.String("log-level"); lvl != "" {
				cfg.LogLevel = lvl
			}
			rt.cfg = cfg
			rt.log = cfg.NewLogger()
			rt.renderer = report.NewRenderer(cfg.Report.Places)
			return nil
		},

		Commands: []*cli.Command{
			projectCommand(rt),
			solveCommand(rt),
			sweepCommand(rt),
			tariffsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// scenarioFlags are shared by every command that builds a parameter snapshot.
func scenarioFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "scenario",
			Aliases: []string{"s"},
			Usage:   "Scenario file (.yaml, .json, .hjson); defaults to the reference wind farm",
		},
		&cli.StringFlag{
			Name:  "region",
			Usage: "Seed the price from a region's benchmark tariff",
		},
	}
}

func loadParams(c *cli.Context) (params.Parameters, error) {
	return loadScenario(c.String("scenario"), c.String("region"))
}

func loadScenario(path, region string) (params.Parameters, error) {
	p := params.Default()
	if path != "" {
		var err error
		if p, err = config.LoadScenario(path); err != nil {
			return params.Parameters{}, err
		}
	}
	if region != "" {
		var ok bool
		if p, ok = p.WithRegionalPrice(region); !ok {
			return params.Parameters{}, fmt.Errorf("no benchmark tariff for region %q", region)
		}
	}
	return p, nil
}

// =============================================================================
// PROJECT COMMAND
// =============================================================================

func projectCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "project",
		Usage: "Project the cash flows of one scenario, or of a portfolio of several, and print the indicators",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "scenario",
				Aliases: []string{"s"},
				Usage:   "Scenario file (.yaml, .json, .hjson); repeat to evaluate a portfolio, e.g. wind + PV",
			},
			&cli.StringFlag{
				Name:  "region",
				Usage: "Seed every scenario's price from a region's benchmark tariff",
			},
			&cli.StringFlag{
				Name:  "adjustments",
				Usage: "HTML file with cost/cash/equity adjustment rows (single scenario only)",
			},
			&cli.BoolFlag{
				Name:  "statements",
				Usage: "Write the statement workbook of each scenario to the report directory",
			},
			&cli.BoolFlag{
				Name:  "flows",
				Usage: "Write the net cash flows to the report directory",
			},
			&cli.Float64Flag{
				Name:  "outlier-threshold",
				Value: 50,
				Usage: "Flag year-over-year swings of pre-tax cash above this percentage",
			},
		},
		Action: func(c *cli.Context) error {
			paths := c.StringSlice("scenario")
			if len(paths) == 0 {
				paths = []string{""}
			}
			if c.String("adjustments") != "" && len(paths) > 1 {
				return fmt.Errorf("--adjustments applies to a single scenario, got %d", len(paths))
			}

			// ----- 1. Each scenario -----
			var parts []projection.CashFlows
			for i, path := range paths {
				p, err := loadScenario(path, c.String("region"))
				if err != nil {
					return err
				}
				if adjPath := c.String("adjustments"); adjPath != "" {
					if p, err = applyAdjustments(p, adjPath); err != nil {
						return err
					}
					fmt.Printf("[PROJECT] Adjustments loaded from %s\n", adjPath)
				}
				flows, err := projectScenario(rt, c, i, scenarioName(path), p)
				if err != nil {
					return err
				}
				parts = append(parts, flows)
			}

			// ----- 2. Portfolio -----
			flows := parts[0]
			if len(parts) > 1 {
				var err error
				if flows, err = projection.Combine(parts...); err != nil {
					return err
				}
				fmt.Printf("[PORTFOLIO] %d scenarios over %d years\n", len(parts), flows.Years())
				printIndicators("PORTFOLIO", projection.Evaluate(flows, rt.cfg.Targets.DiscountRate))
			}

			// ----- 3. Net flow workbook -----
			if c.Bool("flows") {
				return saveFlows(rt, flows)
			}
			return nil
		},
	}
}

func applyAdjustments(p params.Parameters, path string) (params.Parameters, error) {
	f, err := os.Open(path)
	if err != nil {
		return p, err
	}
	defer f.Close()

	sheets, err := report.ParseHTMLTables(f)
	if err != nil {
		return p, err
	}
	adj, err := report.Adjustments(sheets, p.Timeline())
	if err != nil {
		return p, err
	}
	out := p.Clone()
	out.Adjustments = adj
	return out, nil
}

func scenarioName(path string) string {
	if path == "" {
		return "default"
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// projectScenario runs, audits and optionally reports one scenario.
func projectScenario(rt *runtime, c *cli.Context, i int, name string, p params.Parameters) (projection.CashFlows, error) {
	flows, st, err := projection.ProjectWithStatements(p)
	if err != nil {
		return projection.CashFlows{}, fmt.Errorf("scenario %s: %w", name, err)
	}

	fmt.Printf("[PROJECT] %s: %d construction + %d operating years\n", name, flows.ConstructionYears, p.OperatePeriod)
	fmt.Printf("[PROJECT] Fixed assets: %.2f  VAT deduction: %.2f\n", flows.FixedAssets, flows.VATDeduction)
	printIndicators("PROJECT", projection.Evaluate(flows, rt.cfg.Targets.DiscountRate))

	linkage, err := validate.ValidateLinkages(st, p, 0.01)
	if err != nil {
		return projection.CashFlows{}, err
	}
	if linkage.AllPassed {
		fmt.Printf("[CHECK] %d linkage checks passed\n", len(linkage.Checks))
	} else {
		for _, failed := range linkage.FailedChecks {
			fmt.Printf("[CHECK] FAILED %s\n", failed)
		}
	}
	for _, o := range validate.FindOutliers(flows.PreTax, c.Float64("outlier-threshold")) {
		fmt.Printf("[OUTLIER] Year %d: %.2f -> %.2f (%+.1f%%)\n", o.Year, o.Prior, o.Current, o.ChangePct)
	}

	if c.Bool("statements") {
		wb, err := report.FromStatements(st, report.Options{Title: "Statements: " + name})
		if err != nil {
			return projection.CashFlows{}, err
		}
		path, err := rt.renderer.Save(rt.cfg.Report.Dir, fmt.Sprintf("statements-%d-%s", i+1, name), wb, rt.cfg.ReportFormat())
		if err != nil {
			return projection.CashFlows{}, err
		}
		fmt.Printf("[REPORT] Statements written to %s\n", path)
	}
	return flows, nil
}

func printIndicators(tag string, ind projection.Indicators) {
	fmt.Printf("[%s] IRR pre-tax: %s  post-tax: %s  equity: %s\n", tag, pct(ind.PreTaxIRR), pct(ind.PostTaxIRR), pct(ind.EquityIRR))
	fmt.Printf("[%s] NPV@%.2f%% pre-tax: %.2f  post-tax: %.2f  equity: %.2f\n",
		tag, ind.DiscountRate*100, ind.PreTaxNPV, ind.PostTaxNPV, ind.EquityNPV)
	fmt.Printf("[%s] Payback pre-tax: %.2f  post-tax: %.2f  equity: %.2f years\n",
		tag, ind.PreTaxPayback, ind.PostTaxPayback, ind.EquityPayback)
	fmt.Printf("[%s] LCOE %.4f per kWh\n", tag, ind.LCOE)
	for _, issue := range ind.Issues {
		fmt.Printf("[WARN] %s\n", issue)
	}
}

// saveFlows writes one single-row sheet per net flow.
func saveFlows(rt *runtime, flows projection.CashFlows) error {
	years := make([]string, flows.Years())
	for t := range years {
		if t < flows.ConstructionYears {
			years[t] = fmt.Sprintf("C%d", t+1)
		} else {
			years[t] = fmt.Sprintf("Y%d", t-flows.ConstructionYears+1)
		}
	}

	wb := &report.Workbook{Title: "Net cash flows"}
	for _, f := range []struct {
		name   string
		values []float64
	}{
		{"Pre-tax", flows.PreTax},
		{"Post-tax", flows.PostTax},
		{"Equity", flows.Equity},
	} {
		part, err := report.FromVector(f.values, report.Options{
			SheetNames:    []string{f.name},
			RowHeaders:    []string{f.name + " net flow"},
			ColumnHeaders: years,
		})
		if err != nil {
			return err
		}
		wb.Sheets = append(wb.Sheets, part.Sheets...)
	}
	return saveReport(rt, "flows", wb)
}

// =============================================================================
// SOLVE COMMAND
// =============================================================================

func searchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "kind",
			Aliases: []string{"k"},
			Value:   "price",
			Usage:   "Searched quantity (price, aep, unit_investment)",
		},
		&cli.StringFlag{
			Name:    "mode",
			Aliases: []string{"m"},
			Value:   "equity",
			Usage:   "Constraint (equity, project, both)",
		},
		&cli.Float64Flag{
			Name:  "project-irr",
			Usage: "Required project IRR (default from config)",
		},
		&cli.Float64Flag{
			Name:  "equity-irr",
			Usage: "Required equity IRR (default from config)",
		},
	}
}

func searchSpec(rt *runtime, c *cli.Context) (search.Kind, search.Mode, search.Targets, error) {
	kind, err := search.ParseKind(c.String("kind"))
	if err != nil {
		return 0, 0, search.Targets{}, err
	}
	mode, err := search.ParseMode(c.String("mode"))
	if err != nil {
		return 0, 0, search.Targets{}, err
	}
	targets := search.Targets{
		ProjectIRR: rt.cfg.Targets.ProjectIRR,
		EquityIRR:  rt.cfg.Targets.EquityIRR,
	}
	if c.IsSet("project-irr") {
		targets.ProjectIRR = c.Float64("project-irr")
	}
	if c.IsSet("equity-irr") {
		targets.EquityIRR = c.Float64("equity-irr")
	}
	return kind, mode, targets, nil
}

func solveCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "solve",
		Usage: "Find the critical price, output or unit investment that meets the required IRR",
		Flags: append(scenarioFlags(), searchFlags()...),
		Action: func(c *cli.Context) error {
			p, err := loadParams(c)
			if err != nil {
				return err
			}
			kind, mode, targets, err := searchSpec(rt, c)
			if err != nil {
				return err
			}

			solver := search.NewSolver(rt.cfg.SolverConfig(), rt.log)
			start := time.Now()
			res, err := solver.Solve(c.Context, search.Request{Params: p, Kind: kind, Mode: mode, Targets: targets})
			if errors.Is(err, search.ErrNotConverged) {
				fmt.Printf("[SOLVE] No %s satisfies the targets within the search range\n", kind)
				return err
			}
			if err != nil {
				return err
			}

			fmt.Printf("[SOLVE] Critical %s: %.4f (%d evaluations, %s)\n", res.Kind, res.Value, res.Iterations, time.Since(start).Round(time.Millisecond))
			fmt.Printf("[IRR] Project: %s  Equity: %s\n", pct(res.ProjectIRR), pct(res.EquityIRR))
			if kind == search.Price {
				fmt.Printf("[SOLVE] Price excluding VAT: %.4f\n", res.Value/(1+p.VATRate))
			}
			return nil
		},
	}
}

// =============================================================================
// SWEEP COMMAND
// =============================================================================

func sweepFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "rows",
			Usage:    "Row axis, e.g. aep=2000,2500,3000",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "cols",
			Usage:    "Column axis, e.g. unit_investment=4500,5000",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "name",
			Value: "sweep",
			Usage: "Report file name without extension",
		},
	}
}

func sweepCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Run sensitivity grids and write them as a report",
		Subcommands: []*cli.Command{
			{
				Name:  "irr",
				Usage: "IRR matrices over two axes, or a stack of them with --sheets",
				Flags: append(append(scenarioFlags(), sweepFlags()...),
					&cli.StringFlag{
						Name:  "sheets",
						Usage: "Optional third axis, e.g. capital_ratio=0.2,0.3",
					},
				),
				Action: func(c *cli.Context) error {
					return runIRRSweep(rt, c)
				},
			},
			{
				Name:  "critical",
				Usage: "Critical-value matrix over two axes",
				Flags: append(append(scenarioFlags(), sweepFlags()...), searchFlags()...),
				Action: func(c *cli.Context) error {
					return runCriticalSweep(rt, c)
				},
			},
		},
	}
}

func runIRRSweep(rt *runtime, c *cli.Context) error {
	p, err := loadParams(c)
	if err != nil {
		return err
	}
	rows, err := parseAxis(c.String("rows"))
	if err != nil {
		return err
	}
	cols, err := parseAxis(c.String("cols"))
	if err != nil {
		return err
	}

	sw := sweep.New(search.NewSolver(rt.cfg.SolverConfig(), rt.log), rt.log, 0)
	var grids []*sweep.IRRGrid
	var sheetNames []string
	if spec := c.String("sheets"); spec != "" {
		sheets, err := parseAxis(spec)
		if err != nil {
			return err
		}
		if grids, err = sw.IRRCube(c.Context, p, sheets, rows, cols); err != nil {
			return err
		}
		sheetNames = sheets.Labels()
	} else {
		g, err := sw.IRRGrid(c.Context, p, rows, cols)
		if err != nil {
			return err
		}
		grids = []*sweep.IRRGrid{g}
		sheetNames = []string{"Grid"}
	}

	// One sheet per (grid, IRR kind), all sharing the row and column axes.
	var cube [][][]float64
	var names []string
	failures := 0
	for i, g := range grids {
		cube = append(cube, g.PreTax, g.PostTax, g.Equity)
		names = append(names, sheetNames[i]+" pre-tax", sheetNames[i]+" post-tax", sheetNames[i]+" equity")
		failures += len(g.Failures)
	}
	wb, err := report.FromCube(cube, report.Options{
		Title:         "IRR sensitivity",
		RunID:         grids[0].RunID,
		SheetNames:    names,
		RowHeaders:    rows.Labels(),
		ColumnHeaders: cols.Labels(),
	})
	if err != nil {
		return err
	}

	hits, misses := sw.Stats()
	fmt.Printf("[SWEEP] %d grid(s), %d failed cells, %d evaluations (%d memo hits)\n", len(grids), failures, misses, hits)
	return saveReport(rt, c.String("name"), wb)
}

func runCriticalSweep(rt *runtime, c *cli.Context) error {
	p, err := loadParams(c)
	if err != nil {
		return err
	}
	rows, err := parseAxis(c.String("rows"))
	if err != nil {
		return err
	}
	cols, err := parseAxis(c.String("cols"))
	if err != nil {
		return err
	}
	kind, mode, targets, err := searchSpec(rt, c)
	if err != nil {
		return err
	}

	sw := sweep.New(search.NewSolver(rt.cfg.SolverConfig(), rt.log), rt.log, 0)
	g, err := sw.CriticalGrid(c.Context, p, rows, cols, kind, mode, targets)
	if err != nil {
		return err
	}
	for _, f := range g.Failures {
		rt.log.WithError(f.Err).Warnf("cell %s / %s has no critical %s", rows.Labels()[f.Row], cols.Labels()[f.Column], kind)
	}

	wb, err := report.FromMatrix(g.Values, report.Options{
		Title:         fmt.Sprintf("Critical %s (%s)", kind, mode),
		RunID:         g.RunID,
		SheetNames:    []string{"Critical " + kind.String()},
		RowHeaders:    rows.Labels(),
		ColumnHeaders: cols.Labels(),
	})
	if err != nil {
		return err
	}
	fmt.Printf("[SWEEP] Critical %s grid %dx%d, %d failed cells\n", kind, len(rows.Values), len(cols.Values), len(g.Failures))
	return saveReport(rt, c.String("name"), wb)
}

func saveReport(rt *runtime, name string, wb *report.Workbook) error {
	path, err := rt.renderer.Save(rt.cfg.Report.Dir, name, wb, rt.cfg.ReportFormat())
	if err != nil {
		return err
	}
	fmt.Printf("[REPORT] Written to %s\n", path)
	return nil
}

// parseAxis reads "field=v1,v2,...".
func parseAxis(spec string) (sweep.Axis, error) {
	name, list, ok := strings.Cut(spec, "=")
	if !ok {
		return sweep.Axis{}, fmt.Errorf("axis %q: expected field=v1,v2,...", spec)
	}
	field, err := params.ParseField(strings.TrimSpace(name))
	if err != nil {
		return sweep.Axis{}, err
	}
	axis := sweep.Axis{Field: field}
	for _, raw := range strings.Split(list, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return sweep.Axis{}, fmt.Errorf("axis %s: %w", field, err)
		}
		axis.Values = append(axis.Values, v)
	}
	if len(axis.Values) == 0 {
		return sweep.Axis{}, fmt.Errorf("%w: %s", sweep.ErrEmptyAxis, field)
	}
	return axis, nil
}

// =============================================================================
// TARIFFS COMMAND
// =============================================================================

func tariffsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tariffs",
		Usage: "List the regional benchmark tariffs",
		Action: func(c *cli.Context) error {
			for _, r := range params.Regions() {
				t, _ := params.BenchmarkTariff(r)
				fmt.Printf("%-14s %.4f\n", r, t)
			}
			return nil
		},
	}
}

func pct(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}
