package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hargabyte/headercvt/internal/macro"
	"github.com/hargabyte/headercvt/internal/parser"
)

// macroDef is one macro known to the preprocessor.
type macroDef struct {
	value    string
	function bool
}

// macroTable holds the macros defined at the current point of the header.
type macroTable struct {
	defs map[string]macroDef
}

func newMacroTable() *macroTable {
	return &macroTable{defs: make(map[string]macroDef)}
}

func (m *macroTable) define(name string, def macroDef) { m.defs[name] = def }

func (m *macroTable) undefine(name string) { delete(m.defs, name) }

func (m *macroTable) lookup(name string) (macroDef, bool) {
	d, ok := m.defs[name]
	return d, ok
}

// expand returns the replacement text of the object-like macro name, with
// nested object-like macros substituted and ignored identifiers dropped.
// ok is false when name is not an object-like macro or is already being
// expanded.
func (m *macroTable) expand(name string, ignore, expanding map[string]bool) (string, bool) {
	d, ok := m.defs[name]
	if !ok || d.function || expanding[name] || len(expanding) > maxExpansionDepth {
		return "", false
	}
	expanding[name] = true
	defer delete(expanding, name)

	var b strings.Builder
	body := d.value
	for i := 0; i < len(body); {
		ch := body[i]
		switch {
		case ch == '"' || ch == '\'':
			j := skipQuoted(body, i)
			b.WriteString(body[i:j])
			i = j
		case isDigit(ch):
			j := skipNumber(body, i)
			b.WriteString(body[i:j])
			i = j
		case isIdentStart(ch):
			j := i
			for j < len(body) && isIdentChar(body[j]) {
				j++
			}
			word := body[i:j]
			if !ignore[word] {
				if text, ok := m.expand(word, ignore, expanding); ok {
					b.WriteString(text)
				} else {
					b.WriteString(word)
				}
			}
			i = j
		default:
			b.WriteByte(ch)
			i++
		}
	}
	return strings.TrimSpace(b.String()), true
}

// condFrame is one level of #if nesting.
type condFrame struct {
	parentActive bool
	taken        bool
	active       bool
	sawElse      bool
	line         uint32
}

// preprocessed is a header with its directives stripped.
type preprocessed struct {
	source []byte
	events []macro.Event
}

// preprocessor evaluates conditional compilation line by line. Every
// directive and every line of an inactive branch is replaced by an empty
// line so that line numbers survive into the parse tree.
type preprocessor struct {
	macros  *macroTable
	ignore  map[string]bool
	stack   []condFrame
	events  []macro.Event
	file    string
	comment bool
}

func newPreprocessor(file string, lang parser.Language, defines, ignore []string) *preprocessor {
	p := &preprocessor{
		macros: newMacroTable(),
		ignore: make(map[string]bool, len(ignore)),
		file:   file,
	}
	p.macros.define("__STDC__", macroDef{value: "1"})
	p.macros.define("__STDC_HOSTED__", macroDef{value: "1"})
	if lang == parser.Cpp {
		p.macros.define("__cplusplus", macroDef{value: "201703L"})
	} else {
		p.macros.define("__STDC_VERSION__", macroDef{value: "201710L"})
	}
	for _, d := range defines {
		name, value, ok := strings.Cut(d, "=")
		if !ok {
			value = "1"
		}
		p.macros.define(strings.TrimSpace(name), macroDef{value: strings.TrimSpace(value)})
	}
	for _, id := range ignore {
		p.ignore[id] = true
	}
	return p
}

// run processes the whole source.
func (p *preprocessor) run(src []byte) (*preprocessed, error) {
	lines := strings.SplitAfter(string(src), "\n")
	var out strings.Builder
	out.Grow(len(src))

	for i := 0; i < len(lines); i++ {
		lineNo := uint32(i + 1)
		line := lines[i]

		if !p.comment && isDirective(line) {
			// Join continuation lines into one logical directive.
			logical := line
			consumed := 1
			for strings.HasSuffix(strings.TrimRight(logical, "\r\n"), "\\") && i+consumed < len(lines) {
				logical = strings.TrimSuffix(strings.TrimRight(logical, "\r\n"), "\\") + " " + lines[i+consumed]
				consumed++
			}
			if err := p.directive(stripComments(logical), lineNo); err != nil {
				return nil, err
			}
			p.trackComments(logical)
			for k := 0; k < consumed; k++ {
				out.WriteString(lineEnding(lines[i+k]))
			}
			i += consumed - 1
			continue
		}

		if !p.active() {
			p.trackComments(line)
			out.WriteString(lineEnding(line))
			continue
		}

		out.WriteString(p.expandLine(line))
	}

	if n := len(p.stack); n > 0 {
		return nil, p.errorf(p.stack[n-1].line, "unterminated conditional directive")
	}

	return &preprocessed{source: []byte(out.String()), events: p.events}, nil
}

func (p *preprocessor) active() bool {
	if len(p.stack) == 0 {
		return true
	}
	return p.stack[len(p.stack)-1].active
}

// directive handles one logical directive line.
func (p *preprocessor) directive(text string, line uint32) error {
	body := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "#"))
	name, rest := splitWord(body)

	switch name {
	case "if", "ifdef", "ifndef":
		frame := condFrame{parentActive: p.active(), line: line}
		if frame.parentActive {
			frame.taken = p.condition(name, rest)
			frame.active = frame.taken
		} else {
			// Nothing inside an inactive branch is taken.
			frame.taken = true
		}
		p.stack = append(p.stack, frame)
		return nil

	case "elif", "elifdef", "elifndef":
		top, err := p.top(name, line)
		if err != nil {
			return err
		}
		if top.sawElse {
			return p.errorf(line, "#%s after #else", name)
		}
		if top.taken {
			top.active = false
			return nil
		}
		cond := p.condition(strings.TrimPrefix(name, "el"), rest)
		top.active = top.parentActive && cond
		top.taken = cond
		return nil

	case "else":
		top, err := p.top(name, line)
		if err != nil {
			return err
		}
		if top.sawElse {
			return p.errorf(line, "#else after #else")
		}
		top.sawElse = true
		top.active = top.parentActive && !top.taken
		top.taken = true
		return nil

	case "endif":
		if _, err := p.top(name, line); err != nil {
			return err
		}
		p.stack = p.stack[:len(p.stack)-1]
		return nil
	}

	if !p.active() {
		return nil
	}

	switch name {
	case "define":
		mname, def := parseDefine(rest)
		if mname == "" {
			return p.errorf(line, "macro name missing")
		}
		p.macros.define(mname, def)
		p.events = append(p.events, macro.Event{Name: mname, Directive: macro.Define, Line: line})
	case "undef":
		mname, _ := splitWord(rest)
		if mname == "" {
			return p.errorf(line, "macro name missing")
		}
		p.macros.undefine(mname)
		p.events = append(p.events, macro.Event{Name: mname, Directive: macro.Undefine, Line: line})
	}
	// #include, #pragma, #error, #warning and #line carry nothing the
	// declaration tree needs.
	return nil
}

func (p *preprocessor) top(name string, line uint32) (*condFrame, error) {
	if len(p.stack) == 0 {
		return nil, p.errorf(line, "#%s without #if", name)
	}
	return &p.stack[len(p.stack)-1], nil
}

// condition evaluates the test of an #if, #ifdef or #ifndef.
func (p *preprocessor) condition(kind, expr string) bool {
	switch kind {
	case "ifdef":
		name, _ := splitWord(expr)
		_, ok := p.macros.lookup(name)
		return ok
	case "ifndef":
		name, _ := splitWord(expr)
		_, ok := p.macros.lookup(name)
		return !ok
	}
	v, err := evalCondition(expr, p.macros)
	if errors.Is(err, errUnsupportedExpr) {
		return true
	}
	return err == nil && v
}

// expandLine substitutes active object-like macros on a declaration line
// and blanks ignored identifiers. Replacements shorter than the macro name
// are padded with spaces, so columns after them survive.
func (p *preprocessor) expandLine(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	inString := byte(0)
	for i := 0; i < len(line); {
		ch := line[i]
		switch {
		case p.comment:
			if strings.HasPrefix(line[i:], "*/") {
				p.comment = false
				b.WriteString("*/")
				i += 2
				continue
			}
			b.WriteByte(ch)
			i++
		case inString != 0:
			b.WriteByte(ch)
			if ch == '\\' && i+1 < len(line) {
				b.WriteByte(line[i+1])
				i += 2
				continue
			}
			if ch == inString {
				inString = 0
			}
			i++
		case ch == '"' || ch == '\'':
			inString = ch
			b.WriteByte(ch)
			i++
		case strings.HasPrefix(line[i:], "/*"):
			p.comment = true
			b.WriteString("/*")
			i += 2
		case strings.HasPrefix(line[i:], "//"):
			b.WriteString(line[i:])
			return b.String()
		case isIdentStart(ch):
			j := i
			for j < len(line) && isIdentChar(line[j]) {
				j++
			}
			word := line[i:j]
			text, ok := p.macros.expand(word, p.ignore, make(map[string]bool))
			switch {
			case p.ignore[word]:
				b.WriteString(strings.Repeat(" ", len(word)))
			case ok:
				b.WriteString(text)
				if pad := len(word) - len(text); pad > 0 {
					b.WriteString(strings.Repeat(" ", pad))
				}
			default:
				b.WriteString(word)
			}
			i = j
		case isDigit(ch):
			j := skipNumber(line, i)
			b.WriteString(line[i:j])
			i = j
		default:
			b.WriteByte(ch)
			i++
		}
	}
	return b.String()
}

// trackComments follows block comment state through a skipped line.
func (p *preprocessor) trackComments(line string) {
	for i := 0; i < len(line); i++ {
		if p.comment {
			if strings.HasPrefix(line[i:], "*/") {
				p.comment = false
				i++
			}
			continue
		}
		if strings.HasPrefix(line[i:], "//") {
			return
		}
		if strings.HasPrefix(line[i:], "/*") {
			p.comment = true
			i++
		}
	}
}

func (p *preprocessor) errorf(line uint32, format string, args ...any) error {
	return &parser.ParseError{
		Message: fmt.Sprintf(format, args...),
		File:    p.file,
		Line:    line,
		Column:  1,
	}
}

// isDirective reports whether a physical line starts a directive.
func isDirective(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), "#")
}

// parseDefine splits the text after #define into name and definition.
func parseDefine(rest string) (string, macroDef) {
	i := 0
	for i < len(rest) && isIdentChar(rest[i]) {
		i++
	}
	name := rest[:i]
	if name == "" || !isIdentStart(name[0]) {
		return "", macroDef{}
	}
	after := rest[i:]
	if strings.HasPrefix(after, "(") {
		if end := strings.Index(after, ")"); end >= 0 {
			return name, macroDef{value: strings.TrimSpace(after[end+1:]), function: true}
		}
		return name, macroDef{function: true}
	}
	return name, macroDef{value: strings.TrimSpace(after)}
}

// stripComments removes comments from a single logical directive line.
func stripComments(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if strings.HasPrefix(s[i:], "//") {
			break
		}
		if strings.HasPrefix(s[i:], "/*") {
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				break
			}
			b.WriteByte(' ')
			i += end + 3
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func splitWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && s[i] != ' ' && s[i] != '\t' && s[i] != '(' {
		i++
	}
	return s[:i], strings.TrimSpace(s[i:])
}

// skipQuoted returns the index just past the string or character literal
// that starts at i.
func skipQuoted(s string, i int) int {
	quote := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		}
	}
	return len(s)
}

// skipNumber returns the index just past the preprocessing number that
// starts at i, so suffixes such as UL are not read as identifiers.
func skipNumber(s string, i int) int {
	j := i
	for j < len(s) && (isIdentChar(s[j]) || s[j] == '.') {
		j++
	}
	return j
}

// lineEnding returns the newline that ends line, or "" for the last line.
func lineEnding(line string) string {
	if strings.HasSuffix(line, "\r\n") {
		return "\r\n"
	}
	if strings.HasSuffix(line, "\n") {
		return "\n"
	}
	return ""
}
