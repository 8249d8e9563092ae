package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/nmoray/cruisesim/internal/config"
	"github.com/nmoray/cruisesim/internal/loop"
	"github.com/nmoray/cruisesim/internal/scenario"
	"github.com/nmoray/cruisesim/internal/sim"
	"github.com/nmoray/cruisesim/internal/storage"
	"github.com/nmoray/cruisesim/internal/trim"
	"github.com/nmoray/cruisesim/internal/tui"
	"github.com/nmoray/cruisesim/internal/viz"
)

var (
	dataDir    string
	configFile string

	vref       float64
	gear       int
	gradeDeg   float64
	hillTime   float64
	ramp       float64
	horizon    float64
	samples    int
	kp         float64
	ki         float64
	integrator string

	showAscii bool
	pngOut    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cruisesim",
		Short: "longitudinal cruise control simulation",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".cruisesim", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the hill response scenario",
		RunE:  runScenario,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&showAscii, "ascii", false, "plot the response in the terminal")

	trimCmd := &cobra.Command{
		Use:   "trim",
		Short: "solve the flat-road operating point",
		RunE:  runTrim,
	}
	addScenarioFlags(trimCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	pngCmd := &cobra.Command{
		Use:   "png [run_id]",
		Short: "render a stored run to a PNG figure",
		Args:  cobra.ExactArgs(1),
		RunE:  pngRun,
	}
	pngCmd.Flags().StringVarP(&pngOut, "out", "o", "response.png", "output file")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch the response in real time",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return tui.Run(cfg)
		},
	}
	addScenarioFlags(liveCmd)

	rootCmd.AddCommand(runCmd, trimCmd, listCmd, plotCmd, pngCmd, exportCmd, exportCSVCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&vref, "vref", config.DefaultVref, "reference speed [m/s]")
	cmd.Flags().IntVar(&gear, "gear", config.DefaultGear, "gear (1-5)")
	cmd.Flags().Float64Var(&gradeDeg, "grade", config.DefaultGradeDeg, "hill grade [deg]")
	cmd.Flags().Float64Var(&hillTime, "t-hill", config.DefaultHillTime, "hill onset time [s]")
	cmd.Flags().Float64Var(&ramp, "ramp", config.DefaultRamp, "slope ramp duration [s]")
	cmd.Flags().Float64Var(&horizon, "time", config.DefaultHorizon, "simulation horizon [s]")
	cmd.Flags().IntVar(&samples, "samples", config.DefaultSamples, "output samples")
	cmd.Flags().Float64Var(&kp, "kp", 0.5, "controller proportional gain")
	cmd.Flags().Float64Var(&ki, "ki", 0.1, "controller integral gain")
	cmd.Flags().StringVar(&integrator, "integrator", "rk45", "integrator (rk45, rk4, euler)")
}

// loadConfig merges defaults, an optional config file and any flags the
// user set. Flags win over the file, the file wins over defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("vref") {
		cfg.Scenario.Vref = vref
	}
	if cmd.Flags().Changed("gear") {
		cfg.Scenario.Gear = gear
	}
	if cmd.Flags().Changed("grade") {
		cfg.Scenario.GradeDeg = gradeDeg
	}
	if cmd.Flags().Changed("t-hill") {
		cfg.Scenario.HillTime = hillTime
	}
	if cmd.Flags().Changed("ramp") {
		cfg.Scenario.Ramp = ramp
	}
	if cmd.Flags().Changed("time") {
		cfg.Scenario.Horizon = horizon
	}
	if cmd.Flags().Changed("samples") {
		cfg.Scenario.Samples = samples
	}
	if cmd.Flags().Changed("kp") {
		cfg.Controller.Kp = kp
	}
	if cmd.Flags().Changed("ki") {
		cfg.Controller.Ki = ki
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Solver.Integrator = integrator
	}
	return cfg, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	start := time.Now()
	out, err := scenario.Run(cfg)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg, out)
	if err != nil {
		return err
	}

	fmt.Println(viz.Report(out, cfg.Scenario.Vref))
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)

	if showAscii {
		fmt.Println()
		fmt.Print(viz.Ascii(out.Result.T, out.Result.Y[out.VIdx], out.Result.Y[out.UIdx],
			cfg.Scenario.Vref, cfg.Scenario.HillTime))
	}
	return nil
}

func runTrim(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sys, err := loop.Cruise(cfg.VehicleParams(), cfg.Controller.Kp, cfg.Controller.Ki)
	if err != nil {
		return err
	}
	vIdx, err := sys.FindOutput("v")
	if err != nil {
		return err
	}

	s := cfg.Scenario
	pt, err := trim.Find(sys,
		sim.State{s.Vref, 0},
		sim.Input{s.Vref, float64(s.Gear), 0},
		trim.Spec{
			FixedInputs:   []int{1, 2},
			TargetOutputs: map[int]float64{vIdx: s.Vref},
			Tol:           cfg.Solver.TrimTol,
			MaxIter:       cfg.Solver.MaxIter,
		})
	if err != nil {
		return err
	}

	y, err := sys.Output(pt.X, pt.U, 0)
	if err != nil {
		return err
	}
	uIdx, err := sys.FindOutput("u")
	if err != nil {
		return err
	}

	fmt.Printf("operating point at %.1f m/s, gear %d, flat road\n\n", s.Vref, s.Gear)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "velocity\t%.6f m/s\n", pt.X[0])
	fmt.Fprintf(w, "controller state\t%.6f\n", pt.X[1])
	fmt.Fprintf(w, "throttle\t%.6f\n", y[uIdx])
	fmt.Fprintf(w, "solved vref\t%.6f m/s\n", pt.U[0])
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tVREF\tGEAR\tGRADE\tINTEG")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%d\t%.1f°\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Vref,
			run.Gear,
			run.GradeDeg,
			run.Integrator,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	resp, err := st.LoadResponse(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(resp.T))
	fmt.Print(viz.Ascii(resp.T, resp.V, resp.U, meta.Vref, meta.HillTime))

	if hasSlope(resp.Theta) {
		fmt.Println()
		fmt.Println(asciigraph.Plot(resp.Theta,
			asciigraph.Height(5),
			asciigraph.Width(80),
			asciigraph.Caption("road slope θ [rad]"),
		))
	}
	return nil
}

func hasSlope(theta []float64) bool {
	for _, v := range theta {
		if v != 0 {
			return true
		}
	}
	return false
}

func pngRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	resp, err := st.LoadResponse(args[0])
	if err != nil {
		return err
	}
	if err := viz.SavePNG(resp.T, resp.V, resp.U, meta.Vref, meta.HillTime, pngOut); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", pngOut)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	resp, err := st.LoadResponse(args[0])
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()
	if err := w.Write([]string{"t", "v", "u", "theta"}); err != nil {
		return err
	}
	for i := range resp.T {
		row := []string{
			strconv.FormatFloat(resp.T[i], 'f', 6, 64),
			strconv.FormatFloat(resp.V[i], 'f', 6, 64),
			strconv.FormatFloat(resp.U[i], 'f', 6, 64),
			strconv.FormatFloat(resp.Theta[i], 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
