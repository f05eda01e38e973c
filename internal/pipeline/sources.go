package pipeline

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/safedi/safedi-go/internal/artifact"
	"github.com/safedi/safedi-go/internal/errors"
	"github.com/safedi/safedi-go/internal/model"
	"github.com/safedi/safedi-go/internal/parser"
)

// sourceExtension is the file extension enumerated under include
// directories.
const sourceExtension = ".swift"

// markerFastPath is the substring a file must contain to be worth parsing.
const markerFastPath = "@" + parser.InstantiableAttr

// parsedFile pairs a source path with its parse result.
type parsedFile struct {
	path   string
	result *parser.FileResult
}

// gatherSourcePaths resolves the set of source files: the explicit CSV
// list plus recursive enumeration of the include directories. The returned
// paths are sorted and deduplicated so a run's file order is stable.
func gatherSourcePaths(cfg Config) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		paths = append(paths, p)
	}

	if cfg.SourcesFilePath != "" {
		listed, err := readCSVFile(cfg.SourcesFilePath)
		if err != nil {
			return nil, err
		}
		for _, p := range listed {
			add(p)
		}
	}

	for _, dir := range cfg.IncludeDirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, sourceExtension) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.WrapReport(errors.Newf(errors.IO001, "enumerate %s: %v", dir, err))
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// readCSVFile reads a file of comma- or newline-separated paths.
func readCSVFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapReport(errors.Newf(errors.IO001, "read %s: %v", path, err))
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		for _, field := range strings.Split(line, ",") {
			if trimmed := strings.TrimSpace(field); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out, nil
}

// parseSources reads and parses every source file concurrently. Files
// whose text lacks the @Instantiable marker are skipped without parsing.
// The parse order is not observable: results come back in path order.
func parseSources(paths []string) ([]parsedFile, error) {
	results := make([]*parser.FileResult, len(paths))
	readErrs := make([]error, len(paths))

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			data, err := os.ReadFile(path)
			if err != nil {
				readErrs[i] = errors.WrapReport(errors.Newf(errors.IO001, "read %s: %v", path, err))
				return
			}
			text := string(data)
			if !strings.Contains(text, markerFastPath) {
				return
			}
			results[i] = parser.ParseFile(text, path)
		}(i, path)
	}
	wg.Wait()

	for _, err := range readErrs {
		if err != nil {
			return nil, err
		}
	}

	var parsed []parsedFile
	for i, r := range results {
		if r != nil {
			parsed = append(parsed, parsedFile{path: paths[i], result: r})
		}
	}
	return parsed, nil
}

// loadDependentArtifacts reads and decodes every dependent module artifact
// concurrently, preserving the listed order.
func loadDependentArtifacts(csvPath string) ([]model.ModuleInfo, error) {
	if csvPath == "" {
		return nil, nil
	}
	paths, err := readCSVFile(csvPath)
	if err != nil {
		return nil, err
	}

	infos := make([]model.ModuleInfo, len(paths))
	errs := make([]error, len(paths))

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			data, err := os.ReadFile(path)
			if err != nil {
				errs[i] = errors.WrapReport(errors.Newf(errors.IO001, "read %s: %v", path, err))
				return
			}
			info, err := artifact.Decode(data)
			if err != nil {
				errs[i] = err
				return
			}
			infos[i] = info
		}(i, path)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return infos, nil
}
