package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Parser compiles one line of a rules file.
type Parser interface {
	CanParse(line string) bool
	Parse(line string) (Rule, error)
}

// DefaultParsers understands sed-style `s/pattern/replacement/flags` lines
// and literal `from => to` lines, in that order.
func DefaultParsers() []Parser {
	return []Parser{SedParser{}, LiteralParser{}}
}

// ParseRules compiles every non-blank, non-comment line of contents.
func ParseRules(contents string, parsers []Parser) ([]Rule, error) {
	var compiled []Rule

	for number, raw := range strings.Split(contents, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parser := pickParser(parsers, line)
		if parser == nil {
			return nil, fmt.Errorf("line %d: unsupported rule format", number+1)
		}
		rule, err := parser.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", number+1, err)
		}
		compiled = append(compiled, rule)
	}

	return compiled, nil
}

func pickParser(parsers []Parser, line string) Parser {
	for _, parser := range parsers {
		if parser.CanParse(line) {
			return parser
		}
	}
	return nil
}

// LiteralParser handles `from => to`, matched case-insensitively.
type LiteralParser struct{}

func (LiteralParser) CanParse(line string) bool {
	return strings.Contains(line, "=>")
}

func (LiteralParser) Parse(line string) (Rule, error) {
	from, to, _ := strings.Cut(line, "=>")
	from = strings.TrimSpace(from)
	if from == "" {
		return nil, errors.New("literal rule source cannot be empty")
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(from))
	if err != nil {
		return nil, fmt.Errorf("invalid literal source: %w", err)
	}
	return patternRule{re: re, replacement: regexpLiteral(strings.TrimSpace(to)), global: true}, nil
}

// regexpLiteral escapes $ so literal replacements never expand groups.
func regexpLiteral(text string) string {
	return strings.ReplaceAll(text, "$", "$$")
}

// SedParser handles `s<d>pattern<d>replacement<d>flags` for any
// non-alphanumeric delimiter <d>. Patterns are case-insensitive by default;
// without the g flag only the first match is replaced.
type SedParser struct{}

func (SedParser) CanParse(line string) bool {
	if len(line) < 2 || line[0] != 's' {
		return false
	}
	delim := rune(line[1])
	return delim < unicode.MaxASCII && !isWordOrSpace(delim)
}

func (SedParser) Parse(line string) (Rule, error) {
	if len(line) < 2 {
		return nil, errors.New("invalid sed rule")
	}
	fields, rest, err := splitDelimited(line[2:], line[1], 2)
	if err != nil {
		return nil, err
	}

	ignoreCase, global := true, false
	var extra strings.Builder
	for _, flag := range strings.TrimSpace(rest) {
		switch flag {
		case 'i':
			ignoreCase = true
		case 'g':
			global = true
		case 'm', 's':
			extra.WriteRune(flag)
		case ' ':
		default:
			return nil, fmt.Errorf("unsupported regex flag %q", flag)
		}
	}

	prefix := extra.String()
	if ignoreCase {
		prefix = "i" + prefix
	}
	pattern := fields[0]
	if prefix != "" {
		pattern = "(?" + prefix + ")" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex: %w", err)
	}
	return patternRule{re: re, replacement: fields[1], global: global}, nil
}

// splitDelimited reads count delimiter-terminated fields from input,
// honouring backslash escapes, and returns what follows the last delimiter.
func splitDelimited(input string, delim byte, count int) ([]string, string, error) {
	fields := make([]string, 0, count)
	var current strings.Builder
	escaped := false

	for index := 0; index < len(input); index++ {
		char := input[index]
		switch {
		case escaped:
			current.WriteByte(char)
			escaped = false
		case char == '\\':
			current.WriteByte(char)
			escaped = true
		case char == delim:
			fields = append(fields, current.String())
			current.Reset()
			if len(fields) == count {
				return fields, input[index+1:], nil
			}
		default:
			current.WriteByte(char)
		}
	}
	return nil, "", errors.New("unterminated expression")
}

func isWordOrSpace(char rune) bool {
	return unicode.IsLetter(char) || unicode.IsDigit(char) || unicode.IsSpace(char)
}

type patternRule struct {
	re          *regexp.Regexp
	replacement string
	global      bool
}

func (r patternRule) Apply(input string) (string, bool) {
	if r.global {
		output := r.re.ReplaceAllString(input, r.replacement)
		return output, output != input
	}

	loc := r.re.FindStringSubmatchIndex(input)
	if loc == nil {
		return input, false
	}
	expanded := r.re.ExpandString(nil, r.replacement, input, loc)
	output := input[:loc[0]] + string(expanded) + input[loc[1]:]
	return output, output != input
}
