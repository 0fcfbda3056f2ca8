package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hargabyte/headercvt/internal/ast"
	"github.com/hargabyte/headercvt/internal/extract"
	"github.com/hargabyte/headercvt/internal/parser"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <header>",
	Short: "Dump the declaration tree of a header",
	Long: `Parse a header with the configured front-end settings and print its
declaration tree: one line per declaration with its kind, name, type chain
and position. Macro directives seen while preprocessing follow the tree.

This is a debugging aid for the front end; nothing is filtered.`,
	Example: `  headercvt inspect CL/cl.h
  headercvt inspect --lang cpp CL/opencl.hpp`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var (
	inspectLang   string
	inspectMacros bool
)

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectLang, "lang", "", "Header language (auto|c|cpp)")
	inspectCmd.Flags().BoolVar(&inspectMacros, "macros", true, "Also list macro directives")
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	lang := cfg.FrontEnd.Language
	if inspectLang != "" {
		lang = inspectLang
	}

	path := args[0]
	src, err := os.ReadFile(path)
	if err != nil {
		return &parser.FileReadError{Path: path, Err: err}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := extract.ExtractFile(ctx, path, src, extract.Options{
		Language:          parser.LanguageFor(parser.Language(lang), path),
		Defines:           cfg.FrontEnd.Defines,
		IgnoreIdentifiers: cfg.FrontEnd.IgnoreIdentifiers,
		KeepGoing:         true,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := ast.Dump(out, result.Unit); err != nil {
		return err
	}
	if inspectMacros && len(result.Macros) > 0 {
		fmt.Fprintln(out)
		for _, ev := range result.Macros {
			fmt.Fprintf(out, "%s %s @%d\n", ev.Directive, ev.Name, ev.Line)
		}
	}
	for _, skipped := range result.Skipped {
		fmt.Fprintf(os.Stderr, "Warning: skipped %s\n", skipped.Error())
	}
	return nil
}
