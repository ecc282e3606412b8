package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go-photo-qc/internal/logger"
	"go-photo-qc/internal/report"
	"go-photo-qc/internal/service"
	"go-photo-qc/pkg/models"
	"go-photo-qc/pkg/validation"
)

// ErrQualityCheckFailed is returned by --strict runs when any image fails
// its verdict or could not be analyzed
var ErrQualityCheckFailed = errors.New("quality check failed")

// imageExtensions are picked up when a directory is given as input
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// App is what the commands run against
type App struct {
	Service service.ImageAnalysisService
	Quality *validation.QualityValidator
}

type commonFlags struct {
	format   string
	logLevel string
}

type runFlags struct {
	profile string
	metrics []string
	timeout time.Duration
	strict  bool
}

// NewRootCmd creates the root Cobra command
func NewRootCmd(app *App) *cobra.Command {
	if app.Quality == nil {
		app.Quality = validation.NewQualityValidator()
	}
	common := &commonFlags{}

	rootCmd := &cobra.Command{
		Use:   "photoqc",
		Short: "photoqc scores the technical quality of photographs",
		Long: `photoqc computes no-reference quality metrics (sharpness, noise, color,
optical defects, compression artifacts) and full-reference comparisons
(MSE, PSNR, SSIM) for photographs, and interprets them into a verdict.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if common.logLevel != "" {
				logger.SetLevel(common.logLevel)
			}
			_, err := report.ParseFormat(common.format)
			return err
		},
	}
	rootCmd.PersistentFlags().StringVarP(&common.format, "format", "f", "text", "output format (text|json|yaml)")
	rootCmd.PersistentFlags().StringVar(&common.logLevel, "log-level", "", "log level (debug|info|warn|error), defaults to LOG_LEVEL")

	rootCmd.AddCommand(newScoreCmd(app, common))
	rootCmd.AddCommand(newCompareCmd(app, common))
	rootCmd.AddCommand(newMetricsCmd(app, common))

	return rootCmd
}

func newScoreCmd(app *App, common *commonFlags) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "score <image|directory|url>...",
		Short: "Score one or more images without a reference",
		Long: `Score images with the no-reference metric battery. Directories are
scanned (non-recursively) for image files; http(s) and azblob locations
are fetched.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := expandInputs(args)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				return fmt.Errorf("no images found in %s", strings.Join(args, ", "))
			}

			reqs := make([]models.AnalyzeRequest, len(inputs))
			for i, in := range inputs {
				reqs[i] = models.AnalyzeRequest{Source: in, Profile: flags.profile, Metrics: flags.metrics}
			}

			ctx, cancel := withTimeout(cmd.Context(), flags.timeout)
			defer cancel()

			results, err := app.Service.AnalyzeBatch(ctx, reqs)
			if err != nil {
				return err
			}
			entries := make([]report.Entry, len(results))
			for i, res := range results {
				entries[i] = app.entry(res.Request.Source, res.Report, res.Err)
			}
			return finish(cmd.OutOrStdout(), common.format, entries, flags.strict)
		},
	}
	addRunFlags(cmd, flags, "")
	return cmd
}

func newCompareCmd(app *App, common *commonFlags) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "compare <image> <reference>",
		Short: "Compare an image against a reference",
		Long: `Compare an image against a reference of the same dimensions. The default
profile runs only the full-reference metrics; use --profile full to add the
no-reference battery.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd.Context(), flags.timeout)
			defer cancel()

			req := models.AnalyzeRequest{
				Source:    args[0],
				Reference: args[1],
				Profile:   flags.profile,
				Metrics:   flags.metrics,
			}
			r, err := app.Service.Analyze(ctx, req)
			entries := []report.Entry{app.entry(args[0], r, err)}
			return finish(cmd.OutOrStdout(), common.format, entries, flags.strict)
		},
	}
	addRunFlags(cmd, flags, "reference")
	return cmd
}

type metricsListing struct {
	Metrics  []models.MetricInfo `json:"metrics" yaml:"metrics"`
	Profiles []string            `json:"profiles" yaml:"profiles"`
}

func newMetricsCmd(app *App, common *commonFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "List the registered metrics and profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listing := metricsListing{Metrics: app.Service.Metrics(), Profiles: app.Service.Profiles()}
			format, _ := report.ParseFormat(common.format)
			if format != report.FormatText {
				return report.Encode(cmd.OutOrStdout(), format, listing)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tFAMILY\tUNIT\tINPUT")
			for _, m := range listing.Metrics {
				unit := m.Unit
				if unit == "" {
					unit = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Name, m.Family, unit, m.Capability)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "\nprofiles: %s\n", strings.Join(listing.Profiles, ", "))
			return err
		},
	}
}

func addRunFlags(cmd *cobra.Command, flags *runFlags, defaultProfile string) {
	cmd.Flags().StringVarP(&flags.profile, "profile", "p", defaultProfile, "metric profile, see photoqc metrics")
	cmd.Flags().StringSliceVarP(&flags.metrics, "metrics", "m", nil, "explicit metric names, overrides --profile")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "overall deadline, 0 for none")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "exit non-zero when any image fails its verdict")
}

func (app *App) entry(source string, r *models.Report, err error) report.Entry {
	if err != nil {
		logger.WithError(err).WithField("source", source).Warn("Image analysis failed")
		return report.Entry{Source: source, Error: err.Error()}
	}
	verdict := app.Quality.Evaluate(*r)
	return report.Entry{Source: source, Report: r, Verdict: &verdict}
}

func finish(w io.Writer, format string, entries []report.Entry, strict bool) error {
	f, _ := report.ParseFormat(format)
	if err := report.Write(w, f, entries); err != nil {
		return err
	}
	if !strict {
		return nil
	}

	failed := 0
	for _, e := range entries {
		if e.Error != "" || (e.Verdict != nil && !e.Verdict.Passed) {
			failed++
		}
	}
	if failed > 0 {
		logger.WithFields(logrus.Fields{"failed": failed, "total": len(entries)}).Info("Quality check failed")
		return fmt.Errorf("%w: %d of %d images", ErrQualityCheckFailed, failed, len(entries))
	}
	return nil
}

// expandInputs replaces directories with the image files they contain.
// Remote locations and plain files pass through unchanged.
func expandInputs(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		if strings.Contains(arg, "://") {
			out = append(out, arg)
			continue
		}
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			// Missing files are reported per image by the repository
			out = append(out, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", arg, err)
		}
		for _, e := range entries {
			if e.IsDir() || !slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
				continue
			}
			out = append(out, filepath.Join(arg, e.Name()))
		}
	}
	return out, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
