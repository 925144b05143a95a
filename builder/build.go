package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rgonek/docutils-md-converter/converter"
	"github.com/rgonek/docutils-md-converter/mdcheck"
	"golang.org/x/sync/errgroup"
)

// Stage names the step at which a document failed.
type Stage string

const (
	StageRead    Stage = "read"
	StageConvert Stage = "convert"
	StageWrite   Stage = "write"
)

// Failure records one document that could not be built.
type Failure struct {
	Doc   string
	Stage Stage
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", f.Doc, f.Stage, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// DocResult is the outcome of one written document.
type DocResult struct {
	Doc      string
	Path     string
	Warnings []converter.Warning
	Problems []mdcheck.Problem
}

// BuildReport summarizes a batch. Documents fail independently: a failure
// never prevents the others from being written.
type BuildReport struct {
	Written  []DocResult
	Failures []Failure
}

// Warnings counts the conversion warnings of all written documents.
func (r BuildReport) Warnings() int {
	total := 0
	for _, doc := range r.Written {
		total += len(doc.Warnings)
	}
	return total
}

// BuildOutdated builds every outdated document.
func (b *Builder) BuildOutdated(ctx context.Context) (BuildReport, error) {
	docs, err := b.OutdatedDocs()
	if err != nil {
		return BuildReport{}, err
	}
	return b.Build(ctx, docs)
}

// BuildAll builds every document regardless of timestamps.
func (b *Builder) BuildAll(ctx context.Context) (BuildReport, error) {
	docs, err := b.FoundDocs()
	if err != nil {
		return BuildReport{}, err
	}
	return b.Build(ctx, docs)
}

// Build converts and writes docnames in parallel. The returned error is
// non-nil only when ctx ends the batch early; per-document failures are
// reported in BuildReport.Failures.
func (b *Builder) Build(ctx context.Context, docnames []string) (BuildReport, error) {
	type outcome struct {
		result  DocResult
		failure *Failure
	}
	outcomes := make([]outcome, len(docnames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)

	for i, docname := range docnames {
		i, docname := i, docname
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, failure := b.buildDoc(gctx, docname)
			outcomes[i] = outcome{result: result, failure: failure}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BuildReport{}, err
	}
	if err := ctx.Err(); err != nil {
		return BuildReport{}, err
	}

	var report BuildReport
	for _, o := range outcomes {
		if o.failure != nil {
			report.Failures = append(report.Failures, *o.failure)
			continue
		}
		report.Written = append(report.Written, o.result)
	}

	b.log.Info("build finished",
		"written", len(report.Written),
		"failed", len(report.Failures),
		"warnings", report.Warnings(),
	)
	return report, nil
}

// buildDoc runs one document through read, convert and write.
func (b *Builder) buildDoc(ctx context.Context, docname string) (DocResult, *Failure) {
	log := b.log.With("doc", docname)
	fail := func(stage Stage, err error) (DocResult, *Failure) {
		b.metrics.failed.WithLabelValues(string(stage)).Inc()
		if stage == StageWrite {
			log.Warn("error writing file", "path", b.TargetPath(docname), "error", err)
		} else {
			log.Error("document failed", "stage", stage, "error", err)
		}
		return DocResult{}, &Failure{Doc: docname, Stage: stage, Err: err}
	}

	root, numbers, err := b.loadDocument(docname)
	if err != nil {
		return fail(StageRead, err)
	}

	start := time.Now()
	result, err := b.conv.ConvertWithContext(ctx, root, numbers, converter.ConvertOptions{SourcePath: docname})
	b.metrics.duration.Observe(time.Since(start).Seconds())
	if err != nil {
		return fail(StageConvert, err)
	}

	for _, warning := range result.Warnings {
		b.metrics.warnings.WithLabelValues(string(warning.Type)).Inc()
		log.Warn(warning.Message, "type", warning.Type, "path", warning.Path)
	}

	target := b.TargetPath(docname)
	if err := writeFile(target, result.Markdown); err != nil {
		return fail(StageWrite, err)
	}
	b.metrics.converted.Inc()

	doc := DocResult{Doc: docname, Path: target, Warnings: result.Warnings}
	if b.checker != nil {
		problems, err := b.checker.Check([]byte(result.Markdown))
		if err != nil {
			log.Warn("verification failed", "error", err)
		}
		for _, problem := range problems {
			b.metrics.problems.WithLabelValues(string(problem.Kind)).Inc()
			log.Warn(problem.Message, "problem", problem.Kind)
		}
		doc.Problems = problems
	}

	log.Debug("wrote document", "path", target)
	return doc, nil
}

// writeFile creates the parent directories of path and writes content.
func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
