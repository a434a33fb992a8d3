package filter

import (
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/exp/slices"
)

// Filter selects log lines by regular expression.
type Filter struct {
	Accepted []string `yaml:"accepted"`
	Rejected []string `yaml:"rejected"`

	accepted []*regexp.Regexp
	rejected []*regexp.Regexp
	active   bool
}

// New compiles a filter from accepted and rejected patterns.
func New(accepted, rejected []string) (*Filter, error) {
	f := &Filter{Accepted: accepted, Rejected: rejected}
	return f, f.Compile()
}

// Compile prepares the patterns, it must be called after decoding a Filter
// from YAML.
func (f *Filter) Compile() error {
	var errs []error
	f.accepted, errs = compile(f.Accepted, errs)
	f.rejected, errs = compile(f.Rejected, errs)
	f.active = len(f.accepted) != 0 || len(f.rejected) != 0
	return errors.Join(errs...)
}

func compile(patterns []string, errs []error) ([]*regexp.Regexp, []error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid filter pattern %q: %w", p, err))
			continue
		}
		out = append(out, re)
	}
	return out, errs
}

// Accept checks if a line should be counted or not
// No patterns specified -> everything is accepted
// only Accepted provided -> only matching lines are accepted
// only Rejected specified -> everything is accepted except matching lines
// both provided -> lines matching Accepted and not matching Rejected are accepted
func (f *Filter) Accept(line string) bool {
	if f == nil || !f.active {
		return true
	}
	match := func(re *regexp.Regexp) bool { return re.MatchString(line) }

	accepted := len(f.accepted) == 0 || slices.ContainsFunc(f.accepted, match)
	if slices.ContainsFunc(f.rejected, match) {
		accepted = false
	}
	return accepted
}
