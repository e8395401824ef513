package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/springz/internal/analysis"
	"github.com/san-kum/springz/internal/config"
	"github.com/san-kum/springz/internal/export"
	"github.com/san-kum/springz/internal/metrics"
	"github.com/san-kum/springz/internal/observability"
	"github.com/san-kum/springz/internal/optim"
	"github.com/san-kum/springz/internal/sim"
	"github.com/san-kum/springz/internal/springz"
	"github.com/san-kum/springz/internal/storage"
	"github.com/san-kum/springz/internal/viz"
)

var (
	dataDir string
	verbose bool
	preset  string
	// Scene overrides
	steps   int
	width   float64
	height  float64
	passes  int
	sample  int
	settle  float64
	seed    int64
	masses  bool
	collide bool
	glide   float64
	// Output
	noSave      bool
	showMetrics bool
	svgOut      string
	outFile     string
	frameIdx    int
	nodeLabel   string
	initPreset  string
	force       bool
	// Tuning
	grid    []string
	metric  string
	workers int
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "springz",
		Short:        "force-directed layout of nodes and springs",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := newLogger(cmd.ErrOrStderr(), verbose)
			cmd.SetContext(withLogger(cmd.Context(), logger))
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".springz", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "lay out a scene and save the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLayout,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not save the run")
	runCmd.Flags().BoolVar(&showMetrics, "metrics", false, "print prometheus metrics after the run")
	runCmd.Flags().StringVar(&svgOut, "svg", "", "write the final layout as svg")

	liveCmd := &cobra.Command{
		Use:   "live [scene]",
		Short: "lay out a scene with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSceneFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot energy of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&nodeLabel, "node", "", "also plot the position of this node")

	tuneCmd := &cobra.Command{
		Use:   "tune [scene]",
		Short: "grid search collection parameters for the lowest metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneScene,
	}
	addSceneFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&grid, "grid", nil, "axis as name=v1,v2,... (repeatable; one of "+strings.Join(optim.Params(), ", ")+")")
	tuneCmd.Flags().StringVar(&metric, "metric", "strain", "metric to minimise ("+strings.Join(optim.Metrics(), ", ")+")")
	tuneCmd.Flags().IntVar(&workers, "workers", runtime.GOMAXPROCS(0), "trials run at once")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "oscillation and settling analysis of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&nodeLabel, "node", "", "also draw the path of this node")

	svgCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render a saved frame as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default <run_id>.svg)")
	svgCmd.Flags().IntVar(&frameIdx, "frame", -1, "frame index, negative counts from the end")

	jsonCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	jsonCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenes",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "write a preset scene to a .yaml or .toml file",
		Args:  cobra.ExactArgs(1),
		RunE:  initScene,
	}
	initCmd.Flags().StringVar(&initPreset, "preset", "chain", "preset to write")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	rootCmd.AddCommand(runCmd, liveCmd, tuneCmd, listCmd, plotCmd, analyzeCmd, svgCmd, jsonCmd, presetsCmd, initCmd)
	return rootCmd
}

func addSceneFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "use a built-in scene")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	cmd.Flags().Float64Var(&width, "width", config.DefaultWidth, "half width of the bounds, 0 disables")
	cmd.Flags().Float64Var(&height, "height", config.DefaultHeight, "half height of the bounds, 0 disables")
	cmd.Flags().IntVar(&passes, "passes", 0, "extra uncollide passes per step")
	cmd.Flags().IntVar(&sample, "sample", config.DefaultSampleEvery, "record a frame every n steps")
	cmd.Flags().Float64Var(&settle, "settle", 0, "stop once kinetic energy falls below this")
	cmd.Flags().Int64Var(&seed, "seed", 0, "jitter seed")
	cmd.Flags().BoolVar(&masses, "masses", false, "weigh connections by node mass")
	cmd.Flags().BoolVar(&collide, "collide", false, "resolve collisions after every step")
	cmd.Flags().Float64Var(&glide, "glide", springz.DefaultGlide, "fraction of velocity kept each step")
}

// loadScene reads the scene named by args or --preset and applies the
// flags the user set explicitly.
func loadScene(cmd *cobra.Command, args []string) (*config.Scene, error) {
	var (
		scene *config.Scene
		err   error
	)
	switch {
	case preset != "" && len(args) > 0:
		return nil, errors.New("give either a scene file or --preset, not both")
	case preset != "":
		scene = config.GetPreset(preset)
		if scene == nil {
			return nil, fmt.Errorf("unknown preset %q (have %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
	case len(args) == 1:
		scene, err = config.Load(args[0])
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("need a scene file or --preset")
	}

	flags := cmd.Flags()
	if flags.Changed("steps") {
		scene.Run.Steps = steps
	}
	if flags.Changed("width") {
		scene.Run.Width = width
	}
	if flags.Changed("height") {
		scene.Run.Height = height
	}
	if flags.Changed("passes") {
		scene.Run.UncollidePasses = passes
	}
	if flags.Changed("sample") {
		scene.Run.SampleEvery = sample
	}
	if flags.Changed("settle") {
		scene.Run.SettleThreshold = settle
	}
	if flags.Changed("seed") {
		scene.Collection.Seed = seed
	}
	if flags.Changed("masses") {
		scene.Collection.Masses = masses
	}
	if flags.Changed("collide") {
		scene.Collection.AvoidCollisions = collide
	}
	if flags.Changed("glide") {
		scene.Collection.Glide = glide
	}

	if err := scene.Validate(); err != nil {
		return nil, err
	}
	return scene, nil
}

func runConfig(scene *config.Scene) sim.Config {
	return sim.Config{
		Steps:           scene.Run.Steps,
		Width:           scene.Run.Width,
		Height:          scene.Run.Height,
		UncollidePasses: scene.Run.UncollidePasses,
		SampleEvery:     scene.Run.SampleEvery,
		SettleThreshold: scene.Run.SettleThreshold,
	}
}

func labels(nodes []*springz.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Label()
	}
	return out
}

func runLayout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	out := cmd.OutOrStdout()

	scene, err := loadScene(cmd, args)
	if err != nil {
		return err
	}
	coll, err := scene.Build(logger)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	collector, err := observability.NewCollector(reg)
	if err != nil {
		return err
	}

	runner := sim.New(coll, logger)
	runner.SetCollector(collector)
	runner.AddMetric(metrics.NewEnergy())
	runner.AddMetric(metrics.NewStrain())
	runner.AddMetric(metrics.NewOverlap())
	if scene.Run.Width > 0 && scene.Run.Height > 0 {
		runner.AddMetric(metrics.NewContainment(scene.Run.Width, scene.Run.Height))
	}

	logger.Info("running", "scene", scene.Name, "nodes", coll.NumNodes(), "connections", coll.NumConnections(), "steps", scene.Run.Steps)
	p := newProgress(logger)
	result, err := runner.Run(ctx, runConfig(scene))
	switch {
	case errors.Is(err, context.Canceled):
		logger.Warn("run interrupted, keeping partial result", "steps", result.StepsTaken)
	case err != nil:
		return err
	}
	p.done("layout finished", "steps", result.StepsTaken, "settled", result.Settled)

	printLayout(out, coll, result)

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(scene, labels(coll.Nodes()), result)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nsaved: %s\n", runID)
	}

	if svgOut != "" {
		svg := export.LayoutToSVG(coll.Nodes(), coll.Connections(), export.DefaultStyle())
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return err
		}
		logger.Info("wrote svg", "path", svgOut)
	}

	if showMetrics {
		fmt.Fprintln(out)
		return printMetrics(out, collector.Gatherer())
	}
	return nil
}

func printLayout(out io.Writer, coll *springz.Collection, result *sim.Result) {
	fmt.Fprintf(out, "steps: %d", result.StepsTaken)
	if result.Settled {
		fmt.Fprint(out, " (settled)")
	}
	fmt.Fprintln(out)
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Fprintf(out, "%s: %.4f\n", name, result.Metrics[name])
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NODE\tX\tY\tLOCKED")
	for _, n := range coll.Nodes() {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%v\n", n.Label(), n.X, n.Y, n.Locked)
	}
	w.Flush()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// printMetrics writes one line per gathered sample.
func printMetrics(out io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(out, "%s %g\n", mf.GetName(), m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				fmt.Fprintf(out, "%s %g\n", mf.GetName(), m.GetGauge().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fmt.Fprintf(out, "%s_count %d\n", mf.GetName(), h.GetSampleCount())
				fmt.Fprintf(out, "%s_sum %g\n", mf.GetName(), h.GetSampleSum())
			}
		}
	}
	return nil
}

func tuneScene(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	out := cmd.OutOrStdout()

	scene, err := loadScene(cmd, args)
	if err != nil {
		return err
	}
	if len(grid) == 0 {
		return errors.New("give at least one --grid axis")
	}
	params := make([]optim.Param, 0, len(grid))
	for _, g := range grid {
		p, err := optim.ParseParam(g)
		if err != nil {
			return err
		}
		params = append(params, p)
	}

	search := optim.NewGridSearch(params, metric)
	search.SetWorkers(workers)
	search.SetLogger(logger)

	p := newProgress(logger)
	best, trials, err := search.Search(ctx, scene)
	if err != nil {
		return err
	}
	p.done("search finished", "trials", len(trials))

	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(metric))
	for _, t := range trials {
		row := make([]string, len(names))
		for i, n := range names {
			row[i] = fmt.Sprintf("%g", t.Params[n])
		}
		value := fmt.Sprintf("%.4f", t.Value)
		if t.Err != nil {
			value = "error: " + t.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(row, "\t"), value)
	}
	w.Flush()

	fmt.Fprintf(out, "\nbest:")
	for _, n := range names {
		fmt.Fprintf(out, " %s=%g", n, best.Params[n])
	}
	fmt.Fprintf(out, " (%s %.4f)\n", metric, best.Value)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	scene, err := loadScene(cmd, args)
	if err != nil {
		return err
	}

	// Log lines would tear the alternate screen.
	m, err := viz.NewModel(scene, log.New(io.Discard))
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tNODES\tSTEPS\tSETTLED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d/%d\t%v\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			len(run.Labels),
			run.StepsTaken,
			run.Steps,
			run.Settled,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	out := cmd.OutOrStdout()

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	if len(meta.Energy) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "scene: %s\n", meta.Scene)
	fmt.Fprintf(out, "steps: %d\n\n", len(meta.Energy))

	fmt.Fprintln(out, asciigraph.Plot(meta.Energy,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("kinetic energy"),
	))

	if nodeLabel == "" {
		return nil
	}
	idx := slices.Index(meta.Labels, nodeLabel)
	if idx < 0 {
		return fmt.Errorf("run %s has no node %q", runID, nodeLabel)
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	xs := make([]float64, 0, len(frames))
	ys := make([]float64, 0, len(frames))
	for _, f := range frames {
		if idx < len(f.X) {
			xs = append(xs, f.X[idx])
			ys = append(ys, f.Y[idx])
		}
	}
	if len(xs) == 0 {
		return fmt.Errorf("no frames for node %q", nodeLabel)
	}
	for _, series := range []struct {
		caption string
		data    []float64
	}{{nodeLabel + " x", xs}, {nodeLabel + " y", ys}} {
		fmt.Fprintln(out)
		fmt.Fprintln(out, asciigraph.Plot(series.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(series.caption),
		))
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	out := cmd.OutOrStdout()

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	if len(meta.Energy) < 4 {
		return fmt.Errorf("run %s is too short to analyze", runID)
	}

	fmt.Fprintf(out, "analysis: %s\n", meta.ID)
	fmt.Fprintf(out, "scene: %s\n\n", meta.Scene)

	ps := analysis.Spectrum(meta.Energy)
	fmt.Fprintln(out, asciigraph.Plot(ps[1:],
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("energy spectrum (cycles per run)"),
	))
	fmt.Fprintln(out)

	period, share := analysis.DominantPeriod(meta.Energy)
	fmt.Fprintf(out, "dominant period: %.1f steps (%.0f%% of variation)\n", period, share*100)
	if s := analysis.SettleStep(meta.Energy, 0.01); s >= 0 {
		fmt.Fprintf(out, "below 1%% of peak energy from step: %d\n", s+1)
	} else {
		fmt.Fprintf(out, "still above 1%% of peak energy at the end\n")
	}

	if nodeLabel == "" {
		return nil
	}
	idx := slices.Index(meta.Labels, nodeLabel)
	if idx < 0 {
		return fmt.Errorf("run %s has no node %q", runID, nodeLabel)
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	path := analysis.NodePath(frames, idx)
	fmt.Fprintf(out, "\npath of %s (o start, @ end), length %.2f\n", nodeLabel, analysis.PathLength(path))
	fmt.Fprint(out, analysis.PathToASCII(path, 60, 20))
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	logger := loggerFromContext(cmd.Context())

	st := storage.New(dataDir)
	scene, err := st.LoadScene(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("run %s has no frames", runID)
	}

	i := frameIdx
	if i < 0 {
		i += len(frames)
	}
	if i < 0 || i >= len(frames) {
		return fmt.Errorf("frame %d out of range (run has %d)", frameIdx, len(frames))
	}

	coll, err := scene.Build(logger)
	if err != nil {
		return err
	}
	if err := frames[i].Apply(coll.Nodes()); err != nil {
		return err
	}

	path := outFile
	if path == "" {
		path = runID + ".svg"
	}
	svg := export.LayoutToSVG(coll.Nodes(), coll.Connections(), export.DefaultStyle())
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	logger.Info("exported svg", "path", path, "step", frames[i].Step)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	if outFile == "" {
		return storage.ExportJSON(cmd.OutOrStdout(), meta, frames)
	}
	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := storage.ExportJSON(f, meta, frames); err != nil {
		return err
	}
	loggerFromContext(cmd.Context()).Info("exported json", "path", outFile)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tNODES\tCONNECTIONS")
	for _, name := range config.ListPresets() {
		s := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%d\n", name, len(s.Nodes), len(s.Connections))
	}
	return w.Flush()
}

func initScene(cmd *cobra.Command, args []string) error {
	path := args[0]
	scene := config.GetPreset(initPreset)
	if scene == nil {
		return fmt.Errorf("unknown preset %q (have %s)", initPreset, strings.Join(config.ListPresets(), ", "))
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s exists, use --force to overwrite", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := config.Save(path, scene); err != nil {
		return err
	}
	loggerFromContext(cmd.Context()).Info("wrote scene", "path", path, "preset", initPreset)
	return nil
}
