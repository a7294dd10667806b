// Package rules rewrites recognized transcripts with user-maintained
// substitutions before they become the editable draft.
package rules

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
)

const defaultLoopLimit = 30

// Rule is one compiled substitution.
type Rule interface {
	Apply(input string) (output string, changed bool)
}

// Engine applies the rules loaded from a file until the text stops changing
// or the loop limit is reached. The rule set can be swapped by Reload while
// Apply is running.
type Engine struct {
	path      string
	loopLimit int
	parsers   []Parser

	rules atomic.Pointer[[]Rule]
}

// NewEngine loads rules from path with the built-in parsers. An empty path or
// a missing file yields an engine that returns text unchanged.
func NewEngine(path string, loopLimit int) (*Engine, error) {
	return NewEngineWithParsers(path, loopLimit, DefaultParsers())
}

// NewEngineWithParsers lets callers add rule syntaxes.
func NewEngineWithParsers(path string, loopLimit int, parsers []Parser) (*Engine, error) {
	if loopLimit <= 0 {
		loopLimit = defaultLoopLimit
	}
	if len(parsers) == 0 {
		parsers = DefaultParsers()
	}

	engine := &Engine{path: strings.TrimSpace(path), loopLimit: loopLimit, parsers: parsers}
	if err := engine.Reload(); err != nil {
		return nil, err
	}
	return engine, nil
}

// Path is the rules file the engine reads, empty when none is configured.
func (e *Engine) Path() string {
	return e.path
}

// Len reports the number of active rules.
func (e *Engine) Len() int {
	return len(e.current())
}

// Reload re-reads the rules file. On error the previous rules stay active.
func (e *Engine) Reload() error {
	loaded, err := e.load()
	if err != nil {
		return err
	}
	e.rules.Store(&loaded)
	return nil
}

func (e *Engine) load() ([]Rule, error) {
	if e.path == "" {
		return nil, nil
	}

	contents, err := os.ReadFile(e.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read rules file %q: %w", e.path, err)
	}

	parsed, err := ParseRules(string(contents), e.parsers)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules file %q: %w", e.path, err)
	}
	return parsed, nil
}

func (e *Engine) current() []Rule {
	if loaded := e.rules.Load(); loaded != nil {
		return *loaded
	}
	return nil
}

// Apply transforms text deterministically.
func (e *Engine) Apply(text string) (string, error) {
	active := e.current()
	if len(active) == 0 {
		return text, nil
	}

	result := text
	for pass := 0; pass < e.loopLimit; pass++ {
		changed := false
		for _, rule := range active {
			if next, ok := rule.Apply(result); ok {
				result = next
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return result, nil
}
