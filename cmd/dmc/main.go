// Command dmc converts serialized docutils document trees to GitHub-flavored
// Markdown, either one file at a time or as an incremental directory build.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rgonek/docutils-md-converter/builder"
	"github.com/rgonek/docutils-md-converter/converter"
	"github.com/rgonek/docutils-md-converter/mdcheck"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// errProblems is returned when a command completed but found problems it
// already reported.
var errProblems = errors.New("problems found")

type options struct {
	configPath string
	preset     string
	allowHTML  bool
	strict     bool
	logFormat  string
	logLevel   string

	log  *slog.Logger
	file fileConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errProblems) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "dmc",
		Short:         "Convert docutils document trees to GitHub-flavored Markdown",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := newLogger(cmd.ErrOrStderr(), opts.logFormat, opts.logLevel)
			if err != nil {
				return err
			}
			opts.log = log

			opts.file, err = loadFileConfig(opts.configPath)
			return err
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", os.Getenv(configEnv), "YAML config file (env "+configEnv+")")
	flags.StringVar(&opts.preset, "preset", "", "Preset: balanced|strict|readable|lossy")
	flags.BoolVar(&opts.allowHTML, "allow-html", false, "Use inline HTML for breaks, table cells and anchors")
	flags.BoolVar(&opts.strict, "strict", false, "Fail on references a link or image hook cannot resolve")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log format: text|json")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug|info|warn|error")

	root.AddCommand(
		newConvertCmd(opts),
		newBuildCmd(opts),
		newWatchCmd(opts),
		newCheckCmd(opts),
	)
	return root
}

func newConvertCmd(opts *options) *cobra.Command {
	var (
		output string
		secnum string
		verify bool
	)

	cmd := &cobra.Command{
		Use:   "convert <tree-file>",
		Short: "Convert one JSON or YAML document tree and print the Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.file.converterConfig(opts.preset, opts.allowHTML, opts.strict)
			if err != nil {
				return err
			}
			conv, err := converter.New(cfg)
			if err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			path := args[0]
			data, err := readInput(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}
			root, err := decodeTree(path, data)
			if err != nil {
				return err
			}
			numbers, err := readSectionNumbers(secnum)
			if err != nil {
				return err
			}

			result, err := conv.ConvertWithContext(cmd.Context(), root, numbers, converter.ConvertOptions{SourcePath: path})
			if err != nil {
				return fmt.Errorf("error converting file: %w", err)
			}
			for _, w := range result.Warnings {
				opts.log.Warn(w.Message, "type", w.Type, "path", w.Path)
			}

			if output == "" {
				if _, err := io.WriteString(cmd.OutOrStdout(), result.Markdown); err != nil {
					return err
				}
			} else if err := os.WriteFile(output, []byte(result.Markdown), 0o644); err != nil {
				return fmt.Errorf("error writing file: %w", err)
			}

			if !verify && !opts.file.Verify {
				return nil
			}
			return reportProblems(cmd.ErrOrStderr(), path, []byte(result.Markdown))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write Markdown to this file instead of stdout")
	cmd.Flags().StringVar(&secnum, "secnum", "", "JSON section-number table for the tree")
	cmd.Flags().BoolVar(&verify, "verify", false, "Re-parse the output and report structural problems")
	return cmd
}

func newBuildCmd(opts *options) *cobra.Command {
	var all bool
	bf := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Convert every outdated document of a source directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := bf.newBuilder(opts)
			if err != nil {
				return err
			}

			var report builder.BuildReport
			if all {
				report, err = b.BuildAll(cmd.Context())
			} else {
				report, err = b.BuildOutdated(cmd.Context())
			}
			if err != nil {
				return err
			}

			if err := bf.writeMetrics(opts, b); err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			if len(report.Failures) > 0 {
				return errProblems
			}
			return nil
		},
	}

	bf.register(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "Rebuild every document, not only outdated ones")
	return cmd
}

func newWatchCmd(opts *options) *cobra.Command {
	bf := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Build outdated documents, then rebuild on every source change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := bf.newBuilder(opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			onBuild := func(report builder.BuildReport) {
				printReport(out, report)
				if err := bf.writeMetrics(opts, b); err != nil {
					opts.log.Warn("failed to write metrics", "error", err)
				}
			}

			report, err := b.BuildOutdated(cmd.Context())
			if err != nil {
				return err
			}
			onBuild(report)

			return b.Watch(cmd.Context(), builder.DefaultDebounce, onBuild)
		},
	}

	bf.register(cmd)
	return cmd
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check <markdown-file>...",
		Short: "Report unclosed code fences and broken in-page anchors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := false
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("error reading file: %w", err)
				}
				if err := reportProblems(cmd.ErrOrStderr(), path, data); err != nil {
					if !errors.Is(err, errProblems) {
						return err
					}
					failed = true
				}
			}
			if failed {
				return errProblems
			}
			opts.log.Debug("check passed", "files", len(args))
			return nil
		},
	}
}

// buildFlags are shared by build and watch. Flags override the config file.
type buildFlags struct {
	source      string
	output      string
	workers     int
	verify      bool
	metricsFile string
}

func (bf *buildFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&bf.source, "source", "s", "", "Directory of document trees")
	cmd.Flags().StringVarP(&bf.output, "output", "o", "", "Directory the Markdown files are written to")
	cmd.Flags().IntVarP(&bf.workers, "workers", "j", 0, "Parallel conversions (default: one per CPU)")
	cmd.Flags().BoolVar(&bf.verify, "verify", false, "Re-parse written files and report structural problems")
	cmd.Flags().StringVar(&bf.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after each build")
}

func (bf *buildFlags) newBuilder(opts *options) (*builder.Builder, error) {
	cfg, err := opts.file.converterConfig(opts.preset, opts.allowHTML, opts.strict)
	if err != nil {
		return nil, err
	}

	bc := builder.Config{
		SourceDir: firstNonEmpty(bf.source, opts.file.Source),
		OutputDir: firstNonEmpty(bf.output, opts.file.Output),
		OutSuffix: opts.file.OutSuffix,
		Workers:   opts.file.Workers,
		Verify:    bf.verify || opts.file.Verify,
		Converter: cfg,
		Logger:    opts.log,
	}
	if bf.workers > 0 {
		bc.Workers = bf.workers
	}
	return builder.New(bc)
}

func (bf *buildFlags) writeMetrics(opts *options, b *builder.Builder) error {
	path := firstNonEmpty(bf.metricsFile, opts.file.MetricsFile)
	if path == "" {
		return nil
	}
	return b.Metrics().WriteTextfile(path)
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return data, nil
}

// decodeTree picks the codec by extension. Stdin and unknown extensions are
// read as JSON.
func decodeTree(path string, data []byte) (converter.Node, error) {
	var root converter.Node
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &root); err != nil {
			return root, fmt.Errorf("failed to parse document tree YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &root); err != nil {
			return root, fmt.Errorf("failed to parse document tree JSON: %w", err)
		}
	}
	return root, nil
}

func readSectionNumbers(path string) (converter.SectionNumbers, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading section numbers: %w", err)
	}
	var numbers converter.SectionNumbers
	if err := json.Unmarshal(data, &numbers); err != nil {
		return nil, fmt.Errorf("failed to parse section numbers: %w", err)
	}
	return numbers, nil
}

func reportProblems(w io.Writer, name string, markdown []byte) error {
	problems, err := mdcheck.New().Check(markdown)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	for _, p := range problems {
		fmt.Fprintf(w, "%s: %s: %s\n", name, p.Kind, p.Message)
	}
	if len(problems) > 0 {
		return errProblems
	}
	return nil
}

func printReport(w io.Writer, report builder.BuildReport) {
	for _, doc := range report.Written {
		fmt.Fprintf(w, "wrote %s\n", doc.Path)
		for _, p := range doc.Problems {
			fmt.Fprintf(w, "  %s: %s\n", p.Kind, p.Message)
		}
	}
	for _, f := range report.Failures {
		fmt.Fprintf(w, "failed %s\n", f.Error())
	}
	fmt.Fprintf(w, "%d written, %d failed, %d warnings\n", len(report.Written), len(report.Failures), report.Warnings())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
