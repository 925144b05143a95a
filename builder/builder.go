// Package builder translates a directory of serialized document trees into
// Markdown files: it finds outdated documents, converts them in parallel and
// writes the results next to each other under an output directory.
package builder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/rgonek/docutils-md-converter/converter"
	"github.com/rgonek/docutils-md-converter/mdcheck"
	"gopkg.in/yaml.v3"
)

// sourceSuffixes are tried in order when looking up a document's tree file.
var sourceSuffixes = []string{".json", ".yaml", ".yml"}

// secnumSuffix names the optional section-numbering table of a document.
const secnumSuffix = ".secnum.json"

// Config configures a Builder.
type Config struct {
	SourceDir string
	OutputDir string
	// OutSuffix is appended to the docname of every written file.
	OutSuffix string
	// Workers bounds parallel conversions; zero means one per CPU.
	Workers int
	// Verify re-parses every written document and logs structural problems.
	Verify    bool
	Converter converter.Config
	Logger    *slog.Logger
	Metrics   *Metrics
}

// Builder converts the documents of one source tree.
type Builder struct {
	cfg     Config
	conv    *converter.Converter
	checker *mdcheck.Checker
	log     *slog.Logger
	metrics *Metrics
}

// New validates cfg and creates a Builder.
func New(cfg Config) (*Builder, error) {
	if strings.TrimSpace(cfg.SourceDir) == "" {
		return nil, errors.New("source directory is required")
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return nil, errors.New("output directory is required")
	}
	if cfg.OutSuffix == "" {
		cfg.OutSuffix = ".md"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics()
	}

	conv, err := converter.New(cfg.Converter)
	if err != nil {
		return nil, fmt.Errorf("invalid converter config: %w", err)
	}

	b := &Builder{
		cfg:     cfg,
		conv:    conv,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
	}
	if cfg.Verify {
		b.checker = mdcheck.New()
	}
	return b, nil
}

// Metrics returns the metrics the builder records into.
func (b *Builder) Metrics() *Metrics {
	return b.metrics
}

// FoundDocs lists every document under the source directory, sorted. A
// docname is the slash-separated path of its tree file without suffix.
func (b *Builder) FoundDocs() ([]string, error) {
	seen := map[string]bool{}
	err := filepath.WalkDir(b.cfg.SourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		docname, ok := b.docnameForPath(path)
		if ok {
			seen[docname] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan source directory: %w", err)
	}

	docs := make([]string, 0, len(seen))
	for docname := range seen {
		docs = append(docs, docname)
	}
	sort.Strings(docs)
	return docs, nil
}

// docnameForPath maps a tree file to its docname. Numbering tables and
// unrelated files are not documents.
func (b *Builder) docnameForPath(path string) (string, bool) {
	if strings.HasSuffix(path, secnumSuffix) {
		return "", false
	}
	rel, err := filepath.Rel(b.cfg.SourceDir, path)
	if err != nil {
		return "", false
	}
	for _, suffix := range sourceSuffixes {
		if strings.HasSuffix(rel, suffix) {
			return filepath.ToSlash(strings.TrimSuffix(rel, suffix)), true
		}
	}
	return "", false
}

// OutdatedDocs lists the documents whose output is missing or older than
// their tree file or numbering table.
func (b *Builder) OutdatedDocs() ([]string, error) {
	docs, err := b.FoundDocs()
	if err != nil {
		return nil, err
	}

	var outdated []string
	for _, docname := range docs {
		source, err := b.SourcePath(docname)
		if err != nil {
			continue
		}
		sourceTime := modTime(source)
		if secnum := modTime(b.secnumPath(docname)); secnum.After(sourceTime) {
			sourceTime = secnum
		}
		if sourceTime.After(modTime(b.TargetPath(docname))) {
			outdated = append(outdated, docname)
		}
	}
	return outdated, nil
}

// modTime returns the modification time of path, or the zero time when the
// file cannot be read.
func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// SourcePath returns the tree file of docname.
func (b *Builder) SourcePath(docname string) (string, error) {
	base := filepath.Join(b.cfg.SourceDir, filepath.FromSlash(docname))
	for _, suffix := range sourceSuffixes {
		if _, err := os.Stat(base + suffix); err == nil {
			return base + suffix, nil
		}
	}
	return "", fmt.Errorf("no document tree for %q", docname)
}

func (b *Builder) secnumPath(docname string) string {
	return filepath.Join(b.cfg.SourceDir, filepath.FromSlash(docname)+secnumSuffix)
}

// TargetPath returns the output file of docname.
func (b *Builder) TargetPath(docname string) string {
	return filepath.Join(b.cfg.OutputDir, filepath.FromSlash(docname)+b.cfg.OutSuffix)
}

// TargetURI returns the link target other documents use for docname.
func (b *Builder) TargetURI(docname string) string {
	suffix := b.cfg.Converter.DocURISuffix
	if suffix == "" {
		suffix = b.cfg.OutSuffix
	}
	return docname + suffix
}

// loadDocument reads the tree and optional numbering table of docname.
func (b *Builder) loadDocument(docname string) (converter.Node, converter.SectionNumbers, error) {
	source, err := b.SourcePath(docname)
	if err != nil {
		return converter.Node{}, nil, err
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return converter.Node{}, nil, fmt.Errorf("failed to read document tree: %w", err)
	}

	var root converter.Node
	if strings.HasSuffix(source, ".json") {
		err = json.Unmarshal(data, &root)
	} else {
		err = yaml.Unmarshal(data, &root)
	}
	if err != nil {
		return converter.Node{}, nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(source), err)
	}

	numbers, err := loadSectionNumbers(b.secnumPath(docname))
	if err != nil {
		return converter.Node{}, nil, err
	}
	return root, numbers, nil
}

func loadSectionNumbers(path string) (converter.SectionNumbers, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read section numbers: %w", err)
	}

	var numbers converter.SectionNumbers
	if err := json.Unmarshal(data, &numbers); err != nil {
		return nil, fmt.Errorf("failed to parse section numbers: %w", err)
	}
	return numbers, nil
}
