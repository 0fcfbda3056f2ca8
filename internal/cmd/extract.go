package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hargabyte/headercvt/internal/config"
	"github.com/hargabyte/headercvt/internal/pipeline"
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [headers...]",
	Short: "Extract constants and API declarations from headers",
	Long: `Parse each header and write two channels:

  constants     names of #define macros matching --constants-pattern, one per
                line, in definition order
  declarations  every declaration at file scope, except functions whose name
                does not match --functions-pattern, printed back as C

Headers may be paths or doublestar globs ('include/**/*.h'). Headers are
processed in sorted order and their output is concatenated.

Conditional compilation is evaluated with the macros defined so far plus
--define values. Identifiers listed with --ignore (calling convention and
export macros such as CL_API_ENTRY) are blanked before parsing.`,
	Example: `  headercvt extract CL/cl.h
  headercvt extract CL/cl.h --constants-out constants.txt --decls-out api.h
  headercvt extract 'CL/*.h' --exclude '*_gl.h' --manifest run.yaml
  headercvt extract --lang cpp --define CL_TARGET_OPENCL_VERSION=300 CL/opencl.hpp`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

var (
	extractConstantsOut     string
	extractDeclsOut         string
	extractConstantsPattern string
	extractFunctionsPattern string
	extractLang             string
	extractDefines          []string
	extractIgnore           []string
	extractExclude          []string
	extractKeepGoing        bool
	extractManifest         string
	extractFormat           string
	extractNoCache          bool
	extractIndent           int
)

func init() {
	rootCmd.AddCommand(extractCmd)

	f := extractCmd.Flags()
	f.StringVar(&extractConstantsOut, "constants-out", "", "Constants destination, a file or - for stdout")
	f.StringVar(&extractDeclsOut, "decls-out", "", "Declarations destination, a file or - for stdout")
	f.StringVar(&extractConstantsPattern, "constants-pattern", "", "Regular expression selecting macro names (full match)")
	f.StringVar(&extractFunctionsPattern, "functions-pattern", "", "Regular expression selecting API function names (full match)")
	f.StringVar(&extractLang, "lang", "", "Header language (auto|c|cpp)")
	f.StringArrayVarP(&extractDefines, "define", "D", nil, "Predefine a macro, NAME or NAME=VALUE (repeatable)")
	f.StringArrayVar(&extractIgnore, "ignore", nil, "Identifier to blank out before parsing (repeatable)")
	f.StringArrayVar(&extractExclude, "exclude", nil, "Glob of headers to skip (repeatable)")
	f.BoolVar(&extractKeepGoing, "keep-going", false, "Skip declarations with syntax errors instead of failing")
	f.StringVar(&extractManifest, "manifest", "", "Write a run manifest to this file")
	f.StringVar(&extractFormat, "format", "", "Manifest format (yaml|json)")
	f.BoolVar(&extractNoCache, "no-cache", false, "Bypass the render cache")
	f.IntVar(&extractIndent, "indent", 0, "Spaces per nesting level (1-8)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyExtractFlags(cmd, cfg); err != nil {
		return err
	}

	headers, err := pipeline.ExpandHeaders(args, cfg.FrontEnd.Exclude)
	if err != nil {
		return err
	}
	if len(headers) == 0 {
		return fmt.Errorf("no headers left after exclusions")
	}
	logf("Extracting %d header(s)\n", len(headers))

	opts := pipeline.Options{
		Config:  cfg,
		NoCache: extractNoCache,
		Stdout:  cmd.OutOrStdout(),
	}
	if verbose {
		opts.Log = os.Stderr
	} else if !writesStdout(cfg) {
		opts.Progress = os.Stderr
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	m, err := pipeline.Run(ctx, headers, opts)
	if err != nil {
		return err
	}

	logf("Done: %d header(s), %d cached, %d declaration(s), %d constant(s)\n",
		m.Totals.Headers, m.Totals.Cached, m.Totals.Rendered, m.Totals.Constants)
	if cfg.Output.Manifest != "" {
		logf("Manifest written to %s\n", cfg.Output.Manifest)
	}
	return nil
}

// applyExtractFlags overrides config values with the flags that were set
// on the command line, then validates the result.
func applyExtractFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("constants-out") {
		cfg.Output.Constants = extractConstantsOut
	}
	if flags.Changed("decls-out") {
		cfg.Output.Declarations = extractDeclsOut
	}
	if flags.Changed("constants-pattern") {
		cfg.Patterns.Constants = extractConstantsPattern
	}
	if flags.Changed("functions-pattern") {
		cfg.Patterns.Functions = extractFunctionsPattern
	}
	if flags.Changed("lang") {
		cfg.FrontEnd.Language = strings.ToLower(extractLang)
	}
	if flags.Changed("define") {
		cfg.FrontEnd.Defines = append(cfg.FrontEnd.Defines, extractDefines...)
	}
	if flags.Changed("ignore") {
		cfg.FrontEnd.IgnoreIdentifiers = append(cfg.FrontEnd.IgnoreIdentifiers, extractIgnore...)
	}
	if flags.Changed("exclude") {
		cfg.FrontEnd.Exclude = append(cfg.FrontEnd.Exclude, extractExclude...)
	}
	if flags.Changed("keep-going") {
		cfg.FrontEnd.KeepGoing = extractKeepGoing
	}
	if flags.Changed("manifest") {
		cfg.Output.Manifest = extractManifest
	}
	if flags.Changed("format") {
		cfg.Output.ManifestFormat = strings.ToLower(extractFormat)
	}
	if flags.Changed("indent") {
		cfg.Render.Indentation = extractIndent
	}
	return config.Validate(cfg)
}

// writesStdout reports whether a channel goes to stdout. The progress bar
// is only shown when none does.
func writesStdout(cfg *config.Config) bool {
	return cfg.Output.Constants == "-" || cfg.Output.Declarations == "-"
}
