// Package pipeline orchestrates the SafeDI core: read sources, parse
// annotations, aggregate module artifacts, build and validate the graph,
// and emit the requested outputs. File I/O and per-file parsing fan out as
// concurrent tasks; everything downstream of aggregation is deterministic.
package pipeline

import (
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/safedi/safedi-go/internal/artifact"
	"github.com/safedi/safedi-go/internal/dot"
	"github.com/safedi/safedi-go/internal/errors"
	"github.com/safedi/safedi-go/internal/gen"
	"github.com/safedi/safedi-go/internal/graph"
	"github.com/safedi/safedi-go/internal/model"
)

// Config contains one invocation's inputs and requested outputs. Any
// subset of the four outputs may be requested; they are independent.
type Config struct {
	// SourcesFilePath is a CSV file listing absolute source paths.
	SourcesFilePath string
	// IncludeDirs are enumerated recursively for .swift files.
	IncludeDirs []string
	// AdditionalImportedModules are added to the generated imports.
	AdditionalImportedModules []string

	// ModuleInfoOutput writes the module artifact when set.
	ModuleInfoOutput string
	// DependentModuleInfoFilePath is a CSV file listing .safedi artifacts
	// to ingest.
	DependentModuleInfoFilePath string
	// DependencyTreeOutput writes the generated source when set.
	DependencyTreeOutput string
	// DotFileOutput writes the Graphviz rendering when set.
	DotFileOutput string

	Logger *zap.Logger
}

func (c *Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Result carries the outputs of a run for callers that want them without
// touching the filesystem.
type Result struct {
	ModuleInfo      model.ModuleInfo
	GeneratedSource string
	Dot             string
	// Diagnostics are the collected parse diagnostics; any entry blocks
	// generation.
	Diagnostics []*errors.Report
}

// Run executes the pipeline. The returned error aggregates everything
// fatal: batched parse diagnostics, the first graph error, per-root
// generation errors, and I/O failures.
func Run(cfg Config) (*Result, error) {
	log := cfg.logger()
	result := &Result{}

	paths, err := gatherSourcePaths(cfg)
	if err != nil {
		return result, err
	}
	log.Info("gathered sources", zap.Int("files", len(paths)))

	start := time.Now()
	parsed, err := parseSources(paths)
	if err != nil {
		return result, err
	}
	log.Info("parsed sources",
		zap.Int("retained", len(parsed)),
		zap.Duration("elapsed", time.Since(start)))

	dependencies, err := loadDependentArtifacts(cfg.DependentModuleInfoFilePath)
	if err != nil {
		return result, err
	}
	log.Info("loaded dependent artifacts", zap.Int("modules", len(dependencies)))

	// This module's own contribution: textual order within each file,
	// path-sorted file order.
	var moduleImports []model.ImportStatement
	var moduleInstantiables []*model.Instantiable
	for _, file := range parsed {
		result.Diagnostics = append(result.Diagnostics, file.result.Diagnostics...)
		if len(file.result.Instantiables) == 0 {
			continue
		}
		moduleImports = append(moduleImports, file.result.Imports...)
		moduleInstantiables = append(moduleInstantiables, file.result.Instantiables...)
	}
	result.ModuleInfo = model.ModuleInfo{
		Imports:       model.DeduplicateImports(moduleImports),
		Instantiables: moduleInstantiables,
	}

	if len(result.Diagnostics) > 0 {
		var errs error
		for _, d := range result.Diagnostics {
			errs = multierr.Append(errs, errors.WrapReport(d))
		}
		return result, errs
	}

	if cfg.ModuleInfoOutput != "" {
		if err := writeModuleInfo(cfg.ModuleInfoOutput, result.ModuleInfo); err != nil {
			return result, err
		}
		log.Info("wrote module artifact", zap.String("path", cfg.ModuleInfoOutput))
	}

	if cfg.DependencyTreeOutput == "" && cfg.DotFileOutput == "" {
		return result, nil
	}

	// Union this module with its dependencies for graph solving.
	merged := append([]*model.Instantiable{}, moduleInstantiables...)
	imports := append([]model.ImportStatement{}, result.ModuleInfo.Imports...)
	for _, dep := range dependencies {
		merged = append(merged, dep.Instantiables...)
		imports = append(imports, dep.Imports...)
	}

	solved, err := graph.Build(merged)
	if err != nil {
		return result, err
	}
	log.Info("solved graph",
		zap.Int("instantiables", len(merged)),
		zap.Int("roots", len(solved.Roots)))

	var genErrs error
	if cfg.DependencyTreeOutput != "" {
		generator := gen.New(solved, imports, cfg.AdditionalImportedModules)
		source, errs := generator.GenerateFile()
		for _, e := range errs {
			genErrs = multierr.Append(genErrs, e)
		}
		result.GeneratedSource = source
		if err := writeOutput(cfg.DependencyTreeOutput, []byte(source)); err != nil {
			return result, multierr.Append(genErrs, err)
		}
		log.Info("wrote dependency tree", zap.String("path", cfg.DependencyTreeOutput))
	}

	if cfg.DotFileOutput != "" {
		rendered := dot.FromRoots(solved.Roots).Render()
		result.Dot = rendered
		if err := writeOutput(cfg.DotFileOutput, []byte(rendered)); err != nil {
			return result, multierr.Append(genErrs, err)
		}
		log.Info("wrote dot file", zap.String("path", cfg.DotFileOutput))
	}

	return result, genErrs
}

// writeModuleInfo serializes and writes the module artifact.
func writeModuleInfo(path string, info model.ModuleInfo) error {
	if !strings.HasSuffix(path, artifact.Extension) {
		return errors.WrapReport(errors.Newf(errors.IO002,
			"module artifact output %q must end in %s", path, artifact.Extension))
	}
	data, err := artifact.Encode(info)
	if err != nil {
		return errors.WrapReport(errors.Newf(errors.IO002, "encode module artifact: %v", err))
	}
	return writeOutput(path, data)
}

func writeOutput(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapReport(errors.Newf(errors.IO002, "write %s: %v", path, err))
	}
	return nil
}

// FormatDiagnostics renders fatal errors one per line for stderr, naming a
// file span when available.
func FormatDiagnostics(err error) []string {
	var lines []string
	for _, e := range multierr.Errors(err) {
		if rep, ok := errors.AsReport(e); ok {
			lines = append(lines, rep.String())
			continue
		}
		lines = append(lines, e.Error())
	}
	sort.Strings(lines)
	return lines
}
