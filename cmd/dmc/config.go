package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rgonek/docutils-md-converter/converter"
	"gopkg.in/yaml.v3"
)

const (
	presetBalanced = "balanced"
	presetStrict   = "strict"
	presetReadable = "readable"
	presetLossy    = "lossy"
)

// configEnv names the config file used when --config is not given.
const configEnv = "DMC_CONFIG"

func presetConfig(preset string) (converter.Config, error) {
	switch strings.ToLower(strings.TrimSpace(preset)) {
	case "", presetBalanced:
		return converter.Config{}, nil
	case presetStrict:
		return converter.Config{
			ResolutionMode: converter.ResolutionStrict,
			TargetAnchors:  converter.TargetAnchorHTML,
		}, nil
	case presetReadable:
		return converter.Config{
			AdmonitionStyle: converter.AdmonitionBold,
			SectionNumbers:  converter.SectionNumberNone,
			TableBreak:      converter.TableBreakSpace,
		}, nil
	case presetLossy:
		return converter.Config{
			AdmonitionStyle: converter.AdmonitionQuote,
			TargetAnchors:   converter.TargetAnchorNone,
			TableBreak:      converter.TableBreakSpace,
			RawFormats:      []string{},
		}, nil
	default:
		return converter.Config{}, fmt.Errorf("unknown preset %q (allowed: balanced, strict, readable, lossy)", preset)
	}
}

// applyFlags applies the command-line switches, which win over presets and
// the config file.
func applyFlags(cfg converter.Config, allowHTML, strict bool) converter.Config {
	if allowHTML {
		cfg.HardBreakStyle = converter.HardBreakHTML
		cfg.TableBreak = converter.TableBreakHTML
		cfg.TargetAnchors = converter.TargetAnchorHTML
	}
	if strict {
		cfg.ResolutionMode = converter.ResolutionStrict
	}
	return cfg
}

// fileConfig is the YAML config file. Converter options are decoded on top
// of the selected preset, so the file only needs the keys it changes.
type fileConfig struct {
	Preset       string    `yaml:"preset"`
	Source       string    `yaml:"source"`
	Output       string    `yaml:"output"`
	OutSuffix    string    `yaml:"outSuffix"`
	Workers      int       `yaml:"workers"`
	Verify       bool      `yaml:"verify"`
	MetricsFile  string    `yaml:"metricsFile"`
	BulletMarker string    `yaml:"bulletMarker"`
	Converter    yaml.Node `yaml:"converter"`
}

// loadFileConfig reads path. An empty path yields an empty config.
func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fc, fmt.Errorf("config file %s does not exist", path)
		}
		return fc, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return fc, nil
}

// converterConfig layers preset, file and flags, in that order.
func (fc fileConfig) converterConfig(presetFlag string, allowHTML, strict bool) (converter.Config, error) {
	preset := fc.Preset
	if presetFlag != "" {
		preset = presetFlag
	}

	cfg, err := presetConfig(preset)
	if err != nil {
		return converter.Config{}, err
	}

	if !fc.Converter.IsZero() {
		if err := fc.Converter.Decode(&cfg); err != nil {
			return converter.Config{}, fmt.Errorf("invalid converter section: %w", err)
		}
	}
	if fc.BulletMarker != "" {
		marker, size := utf8.DecodeRuneInString(fc.BulletMarker)
		if size != len(fc.BulletMarker) {
			return converter.Config{}, fmt.Errorf("bulletMarker must be a single character, got %q", fc.BulletMarker)
		}
		cfg.BulletMarker = marker
	}

	return applyFlags(cfg, allowHTML, strict), nil
}

func newLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (allowed: text, json)", format)
	}
}
