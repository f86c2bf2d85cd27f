// Command lattice-enumerate prints every lattice point inside a box.
//
// The problem is read from the file named on the command line, or from
// standard input, in the format described in package parse.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rjb3977/lattice/bigmatrix"
	"github.com/rjb3977/lattice/bignumber"
	"github.com/rjb3977/lattice/config"
	"github.com/rjb3977/lattice/enumerate"
	"github.com/rjb3977/lattice/parse"
	"github.com/rjb3977/lattice/strategy"
)

var (
	configFile string
	settings   = config.New()
)

var rootCmd = &cobra.Command{
	Use:   "lattice-enumerate [file]",
	Short: "Enumerate the lattice points inside a box",
	Long: `lattice-enumerate reads a dimension n, an n x n basis and the lower and
upper corners of a box, and prints the integer coordinates of every lattice
point inside the box, followed by the elapsed time and the count.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := run(args, os.Stdin, os.Stdout, os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "lattice-enumerate: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "YAML config file")
	flags.Int("threads", 0, "maximum number of goroutines searching at once (0 = one per CPU)")
	flags.String("rule", strategy.NameSteepest, "entering rule: "+strings.Join(strategy.Names(), ", "))
	flags.String("log-level", "warn", "log level (trace, debug, info, warn, error)")
	flags.String("format", config.FormatText, "output format: text or yaml")
	flags.Bool("metrics", false, "log search counters when done")
	flags.Bool("verify", false, "check every point against the box before printing")

	for key, name := range map[string]string{
		config.KeyThreads:  "threads",
		config.KeyRule:     "rule",
		config.KeyLogLevel: "log-level",
		config.KeyFormat:   "format",
		config.KeyMetrics:  "metrics",
		config.KeyVerify:   "verify",
	} {
		if err := settings.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// report is the yaml form of the output
type report struct {
	Count   int        `yaml:"count"`
	Elapsed string     `yaml:"elapsed"`
	Points  [][]string `yaml:"points"`
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := config.Load(settings, configFile)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(stderr)

	var input *parse.Input
	if len(args) == 1 {
		input, err = parse.ParseFile(args[0])
	} else {
		input, err = parse.Parse(stdin)
	}
	if err != nil {
		return err
	}
	logger.WithField("dimension", input.Dimension).Info("parsed input")

	rule, err := strategy.ByName(cfg.Rule)
	if err != nil {
		return err
	}
	registry := prometheus.NewRegistry()
	enumerator := enumerate.NewEnumerator(enumerate.Config{
		ThreadMax: cfg.Threads,
		Rule:      rule,
		Logger:    logger,
		Metrics:   enumerate.NewMetrics(registry),
		Tracker:   bignumber.NewSizeTracker(),
	})

	start := time.Now()
	count, points, err := enumerator.Run(input.Basis, input.Lower, input.Upper)
	elapsed := time.Since(start)
	if err != nil {
		return err
	}
	enumerate.SortPoints(points)

	if cfg.Verify {
		if err = verify(input, points); err != nil {
			return err
		}
		logger.WithField("points", count).Info("verified every point")
	}
	if cfg.Metrics {
		if err = logMetrics(logger, registry); err != nil {
			return err
		}
	}

	if cfg.Format == config.FormatYAML {
		return writeYAML(stdout, count, elapsed, points)
	}
	return writeText(stdout, count, elapsed, points)
}

func verify(input *parse.Input, points []*bigmatrix.BigMatrix) error {
	for _, point := range points {
		ok, err := enumerate.Contains(input.Basis, input.Lower, input.Upper, point)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("verify: point %s is outside the box", strings.Join(formatPoint(point), " "))
		}
	}
	return nil
}

func logMetrics(logger *logrus.Logger, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("logMetrics: %w", err)
	}
	fields := logrus.Fields{}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			fields[family.GetName()] = metric.GetCounter().GetValue() + metric.GetGauge().GetValue()
		}
	}
	logger.WithFields(fields).Warn("search metrics")
	return nil
}

func formatPoint(point *bigmatrix.BigMatrix) []string {
	retVal := make([]string, point.NumRows())
	for i := range retVal {
		retVal[i] = point.At(i, 0).String()
	}
	return retVal
}

func formatElapsed(elapsed time.Duration) string {
	ms := elapsed.Milliseconds()
	return fmt.Sprintf(
		"%02d:%02d:%02d.%03d", ms/3600000, (ms/60000)%60, (ms/1000)%60, ms%1000,
	)
}

func writeText(w io.Writer, count int, elapsed time.Duration, points []*bigmatrix.BigMatrix) error {
	var sb strings.Builder
	for _, point := range points {
		sb.WriteString(strings.Join(formatPoint(point), " "))
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "\nelapsed: %s\ncount:   %d\n", formatElapsed(elapsed), count)
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeYAML(w io.Writer, count int, elapsed time.Duration, points []*bigmatrix.BigMatrix) error {
	out := report{Count: count, Elapsed: formatElapsed(elapsed), Points: make([][]string, len(points))}
	for i, point := range points {
		out.Points[i] = formatPoint(point)
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("writeYAML: %w", err)
	}
	return encoder.Close()
}
