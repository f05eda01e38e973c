package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/safedi/safedi-go/internal/config"
	"github.com/safedi/safedi-go/internal/pipeline"
)

var (
	// Version info - set by ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"

	// Color output
	red  = color.New(color.FgRed).SprintFunc()
	bold = color.New(color.Bold).SprintFunc()
)

// stringList collects repeatable flag values.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func main() {
	var (
		includes    stringList
		additional  stringList
		sourcesPath = flag.String("swift-sources-file-path", "", "CSV file listing absolute paths of source files to parse")
		moduleInfo  = flag.String("module-info-output", "", "Path at which to write the module artifact (must end in .safedi)")
		depInfo     = flag.String("dependent-module-info-file-path", "", "CSV file listing paths of dependent .safedi artifacts")
		treeOut     = flag.String("dependency-tree-output", "", "Path at which to write the generated source")
		dotOut      = flag.String("dot-file-output", "", "Path at which to write the Graphviz DOT file")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		versionFlag = flag.Bool("version", false, "Print version information")
	)
	flag.Var(&includes, "include", "Directory to enumerate recursively for .swift files (repeatable)")
	flag.Var(&additional, "additional-imported-modules", "Module name to add to the generated imports (repeatable)")
	flag.Parse()

	if *versionFlag {
		printVersion()
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		fatal(err)
	}
	fileCfg, err := config.Load(cwd)
	if err != nil {
		fatal(err)
	}
	if len(includes) == 0 {
		includes = fileCfg.Include
	}
	if len(additional) == 0 {
		additional = fileCfg.AdditionalImportedModules
	}

	logger := zap.NewNop()
	if *verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			fatal(err)
		}
		defer func() { _ = logger.Sync() }()
	}

	cfg := pipeline.Config{
		SourcesFilePath:             *sourcesPath,
		IncludeDirs:                 includes,
		AdditionalImportedModules:   additional,
		ModuleInfoOutput:            *moduleInfo,
		DependentModuleInfoFilePath: *depInfo,
		DependencyTreeOutput:        *treeOut,
		DotFileOutput:               *dotOut,
		Logger:                      logger,
	}

	if _, err := pipeline.Run(cfg); err != nil {
		for _, line := range pipeline.FormatDiagnostics(err) {
			fmt.Fprintf(os.Stderr, "%s: %s\n", red("error"), line)
		}
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
	os.Exit(1)
}

func printVersion() {
	fmt.Printf("%s %s\n", bold("safedi"), Version)
	fmt.Printf("  commit: %s\n", Commit)
	fmt.Printf("  built:  %s\n", BuildTime)
}
