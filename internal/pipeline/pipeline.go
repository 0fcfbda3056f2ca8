// Package pipeline runs an extraction: it expands the header arguments,
// converts each header, reports matching macros on the constants channel
// and renders the API declarations on the declarations channel.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/hargabyte/headercvt/internal/cache"
	"github.com/hargabyte/headercvt/internal/config"
	"github.com/hargabyte/headercvt/internal/extract"
	"github.com/hargabyte/headercvt/internal/filter"
	"github.com/hargabyte/headercvt/internal/macro"
	"github.com/hargabyte/headercvt/internal/output"
	"github.com/hargabyte/headercvt/internal/parser"
	"github.com/hargabyte/headercvt/internal/render"
)

// ToolName is recorded in run manifests.
const ToolName = "headercvt"

// Options configure a run.
type Options struct {
	// Config is the effective configuration, flags already applied.
	Config *config.Config
	// NoCache bypasses the render cache even when it is enabled.
	NoCache bool
	// Stdout receives channels whose destination is "-".
	Stdout io.Writer
	// Log receives verbose progress lines. Nil disables them.
	Log io.Writer
	// Progress receives a progress bar when several headers are processed.
	// Nil disables it.
	Progress io.Writer
}

// Run converts the given headers. Output channels are flushed on every
// exit path; the manifest, when configured, is written even if a header
// fails.
func Run(ctx context.Context, headers []string, opts Options) (m *output.Manifest, err error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	p, err := newRun(cfg, opts)
	if err != nil {
		return nil, err
	}
	defer p.close()

	router := output.NewRouter(stdout)
	defer func() {
		if cerr := router.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	consts, err := router.Open(output.ChannelConstants, cfg.Output.Constants)
	if err != nil {
		return nil, err
	}
	decls, err := router.Open(output.ChannelDeclarations, cfg.Output.Declarations)
	if err != nil {
		return nil, err
	}

	m = output.NewManifest(ToolName, p.manifestSettings())
	if cfg.Output.Manifest != "" {
		defer func() {
			format, ferr := output.ParseFormat(cfg.Output.ManifestFormat)
			if ferr == nil {
				ferr = m.WriteFile(cfg.Output.Manifest, format)
			}
			if ferr != nil && err == nil {
				err = ferr
			}
		}()
	}

	var bar *progressbar.ProgressBar
	if opts.Progress != nil && len(headers) > 1 {
		bar = progressbar.NewOptions(len(headers),
			progressbar.OptionSetWriter(opts.Progress),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("Extracting"),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(opts.Progress)
			}),
		)
	}

	for _, path := range headers {
		report, out, herr := p.header(ctx, path)
		m.Add(report)
		if herr != nil {
			return m, herr
		}
		if _, err := consts.WriteString(out.constants); err != nil {
			return m, err
		}
		if _, err := decls.WriteString(out.declarations); err != nil {
			return m, err
		}
		if bar != nil {
			bar.Add(1)
		}
	}

	return m, nil
}

// run holds what is shared by all headers of one run.
type run struct {
	cfg       *config.Config
	opts      Options
	constants *filter.Pattern
	filter    *filter.Filter
	policy    render.Policy
	cache     *cache.Cache
	settings  []string

	// extractors holds one front end per header language, created on
	// first use.
	extractors map[parser.Language]*extract.Extractor
}

type channelText struct {
	constants    string
	declarations string
}

func newRun(cfg *config.Config, opts Options) (*run, error) {
	constants, err := filter.Compile(cfg.Patterns.Constants)
	if err != nil {
		return nil, fmt.Errorf("constants pattern: %w", err)
	}
	functions, err := filter.Compile(cfg.Patterns.Functions)
	if err != nil {
		return nil, fmt.Errorf("functions pattern: %w", err)
	}

	switch lang := parser.Language(cfg.FrontEnd.Language); lang {
	case parser.Auto, parser.C, parser.Cpp, "":
	default:
		return nil, &parser.UnsupportedLanguageError{Language: string(lang)}
	}

	r := &run{
		cfg:        cfg,
		opts:       opts,
		constants:  constants,
		filter:     filter.New(functions),
		policy:     PolicyFromConfig(cfg),
		extractors: make(map[parser.Language]*extract.Extractor),
	}
	r.settings = r.hashSettings()

	if cfg.Cache.Enabled && !opts.NoCache {
		c, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		r.cache = c
	}
	return r, nil
}

func (r *run) close() {
	for _, e := range r.extractors {
		e.Close()
	}
	if r.cache != nil {
		r.cache.Close()
	}
}

// extractor returns the front end for lang.
func (r *run) extractor(lang parser.Language) (*extract.Extractor, error) {
	if e, ok := r.extractors[lang]; ok {
		return e, nil
	}
	e, err := extract.NewExtractor(extract.Options{
		Language:          lang,
		Defines:           r.cfg.FrontEnd.Defines,
		IgnoreIdentifiers: r.cfg.FrontEnd.IgnoreIdentifiers,
		KeepGoing:         r.cfg.FrontEnd.KeepGoing,
	})
	if err != nil {
		return nil, err
	}
	r.extractors[lang] = e
	return e, nil
}

// PolicyFromConfig derives the render policy from the render settings. With
// language auto the C++ flag is decided per header.
func PolicyFromConfig(cfg *config.Config) render.Policy {
	p := render.DefaultPolicy()
	if cfg.Render.Indentation > 0 {
		p.Indentation = cfg.Render.Indentation
	}
	p.FullyQualifiedName = cfg.Render.FullyQualifiedNames
	p.FunctionSpecifiers = cfg.Render.FunctionSpecifiers
	p.CPlusPlus = cfg.FrontEnd.Language == string(parser.Cpp)
	return p
}

// hashSettings lists every setting that changes the channel text of a
// header, in a fixed order. The resolved header language is added per
// header.
func (r *run) hashSettings() []string {
	cfg := r.cfg
	return []string{
		cfg.FrontEnd.Language,
		extract.SettingsKey(cfg.FrontEnd.Defines),
		extract.SettingsKey(cfg.FrontEnd.IgnoreIdentifiers),
		strconv.FormatBool(cfg.FrontEnd.KeepGoing),
		cfg.Patterns.Constants,
		cfg.Patterns.Functions,
		strconv.Itoa(r.policy.Indentation),
		strconv.FormatBool(r.policy.FullyQualifiedName),
		strconv.FormatBool(r.policy.FunctionSpecifiers),
	}
}

func (r *run) manifestSettings() output.ManifestSettings {
	return output.ManifestSettings{
		Language:          r.cfg.FrontEnd.Language,
		ConstantsPattern:  r.cfg.Patterns.Constants,
		FunctionsPattern:  r.cfg.Patterns.Functions,
		Defines:           r.cfg.FrontEnd.Defines,
		IgnoreIdentifiers: r.cfg.FrontEnd.IgnoreIdentifiers,
		Indentation:       r.policy.Indentation,
	}
}

func (r *run) logf(format string, args ...interface{}) {
	if r.opts.Log != nil {
		fmt.Fprintf(r.opts.Log, format, args...)
	}
}

// header converts one header, or replays its cached render.
func (r *run) header(ctx context.Context, path string) (*output.HeaderReport, channelText, error) {
	lang := parser.LanguageFor(parser.Language(r.cfg.FrontEnd.Language), path)
	report := &output.HeaderReport{Path: path, Language: string(lang)}

	src, err := os.ReadFile(path)
	if err != nil {
		err = &parser.FileReadError{Path: path, Err: err}
		report.Error = err.Error()
		return report, channelText{}, err
	}
	report.InputHash = extract.InputHash(src, append(r.settings, string(lang))...)

	if r.cache != nil {
		entry, found, err := r.cache.Lookup(path, report.InputHash)
		if err != nil {
			r.logf("Warning: cache lookup %s: %v\n", path, err)
		} else if found {
			r.logf("%s: cached (%s)\n", path, extract.ShortHash(report.InputHash))
			report.Cached = true
			applyStats(report, entry.Stats)
			return report, channelText{entry.Constants, entry.Declarations}, nil
		}
	}

	out, stats, err := r.convert(ctx, lang, path, src)
	if err != nil {
		report.Error = err.Error()
		return report, channelText{}, err
	}
	applyStats(report, stats)
	for _, d := range stats.Diagnostics {
		r.logf("%s: %s\n", path, d)
	}
	r.logf("%s: %d rendered, %d filtered, %d constants\n",
		path, stats.Rendered, stats.Filtered, stats.Constants)

	if r.cache != nil {
		err := r.cache.Store(&cache.Entry{
			HeaderPath:   path,
			InputHash:    report.InputHash,
			Constants:    out.constants,
			Declarations: out.declarations,
			Stats:        stats,
		})
		if err != nil {
			r.logf("Warning: cache store %s: %v\n", path, err)
		}
	}
	return report, out, nil
}

// convert runs the front end, the macro observer and the renderer over one
// header source.
func (r *run) convert(ctx context.Context, lang parser.Language, path string, src []byte) (channelText, cache.RenderStats, error) {
	var stats cache.RenderStats

	extractor, err := r.extractor(lang)
	if err != nil {
		return channelText{}, stats, err
	}
	result, err := extractor.Extract(ctx, path, src)
	if err != nil {
		return channelText{}, stats, err
	}
	for _, skipped := range result.Skipped {
		stats.Diagnostics = append(stats.Diagnostics, "syntax error skipped: "+skipped.Error())
	}

	var consts strings.Builder
	observer := macro.NewObserver(r.constants, &consts)
	if err := observer.Observe(result.Macros); err != nil {
		return channelText{}, stats, err
	}

	policy := r.policy
	policy.CPlusPlus = lang == parser.Cpp

	var decls strings.Builder
	renderer := render.New(r.filter, policy)
	if err := renderer.Render(&decls, result.Unit); err != nil {
		return channelText{}, stats, err
	}

	rs := renderer.Stats()
	stats.Rendered = rs.Rendered
	stats.Groups = rs.Groups
	stats.Filtered = rs.Filtered
	stats.Skipped = rs.Skipped + len(result.Skipped)
	stats.Constants = observer.Count()
	for _, d := range renderer.Diagnostics() {
		stats.Diagnostics = append(stats.Diagnostics, d.String())
	}
	return channelText{consts.String(), decls.String()}, stats, nil
}

func applyStats(report *output.HeaderReport, s cache.RenderStats) {
	report.Rendered = s.Rendered
	report.Groups = s.Groups
	report.Filtered = s.Filtered
	report.Skipped = s.Skipped
	report.Constants = s.Constants
	report.Diagnostics = s.Diagnostics
}
