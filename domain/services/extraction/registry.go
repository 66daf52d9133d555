package extraction

import (
	"fmt"
	"regexp"
	"sync"

	pkgerrors "careerlens/pkg/errors"
)

// Registry holds reference-extraction patterns. Register is the single gate
// for adding a pattern: it validates the expression against every declared
// example and rejects the pattern loudly on any failure. A registry is safe
// for concurrent readers once populated.
type Registry struct {
	mu       sync.RWMutex
	patterns map[string]*Pattern
	order    []string
}

// NewRegistry creates an empty pattern registry
func NewRegistry() *Registry {
	return &Registry{
		patterns: make(map[string]*Pattern),
	}
}

// Register validates and adds a pattern. It returns a descriptive error,
// naming the failing example where relevant, if:
//   - the id is empty or already registered
//   - the expression does not compile, or matches the empty string
//   - any positive example does not yield its expected reference
//   - any negative example yields a match
func (r *Registry) Register(p Pattern) error {
	if p.ID == "" {
		return pkgerrors.NewValidationError("pattern id cannot be empty").
			WithCode(pkgerrors.CodePatternInvalid)
	}

	re, err := regexp.Compile(p.Expr)
	if err != nil {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("pattern %q: expression does not compile: %v", p.ID, err)).
			WithCode(pkgerrors.CodePatternInvalid)
	}
	if re.MatchString("") {
		// An expression that matches the empty string matches everywhere;
		// find-all extraction over it would loop or flood with junk refs.
		return pkgerrors.NewValidationError(
			fmt.Sprintf("pattern %q: expression matches the empty string", p.ID)).
			WithCode(pkgerrors.CodePatternInvalid)
	}
	p.re = re

	for _, ex := range p.Positive {
		if err := checkPositive(&p, ex); err != nil {
			return err
		}
	}
	for _, text := range p.Negative {
		if matches := re.FindAllString(text, -1); len(matches) > 0 {
			return pkgerrors.NewValidationError(
				fmt.Sprintf("pattern %q: negative example %q matched %v", p.ID, text, matches)).
				WithCode(pkgerrors.CodePatternInvalid)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.patterns[p.ID]; exists {
		return pkgerrors.NewConflictError(
			fmt.Sprintf("pattern %q is already registered", p.ID)).
			WithCode(pkgerrors.CodePatternInvalid)
	}

	r.patterns[p.ID] = &p
	r.order = append(r.order, p.ID)
	return nil
}

// MustRegister registers a pattern and panics on failure. Used for the
// built-in pattern set, where a broken pattern must abort startup.
func (r *Registry) MustRegister(p Pattern) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// checkPositive runs one positive example through the pattern
func checkPositive(p *Pattern, ex Example) error {
	matches := p.re.FindAllStringSubmatch(ex.Text, -1)
	if len(matches) == 0 {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("pattern %q: positive example %q produced no matches", p.ID, ex.Text)).
			WithCode(pkgerrors.CodePatternInvalid)
	}
	got := make([]string, 0, len(matches))
	for _, m := range matches {
		ref := p.normalize(m)
		if ref == ex.Want {
			return nil
		}
		got = append(got, ref)
	}
	return pkgerrors.NewValidationError(
		fmt.Sprintf("pattern %q: positive example %q yielded %v, want %q", p.ID, ex.Text, got, ex.Want)).
		WithCode(pkgerrors.CodePatternInvalid)
}

// Get returns a registered pattern by id
func (r *Registry) Get(id string) (*Pattern, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patterns[id]
	return p, ok
}

// ActivePatterns returns all registered patterns in registration order,
// excluding any pattern that is the target of another pattern's Supersedes.
func (r *Registry) ActivePatterns() []*Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	superseded := make(map[string]bool)
	for _, id := range r.order {
		if s := r.patterns[id].Supersedes; s != "" {
			superseded[s] = true
		}
	}

	active := make([]*Pattern, 0, len(r.order))
	for _, id := range r.order {
		if !superseded[id] {
			active = append(active, r.patterns[id])
		}
	}
	return active
}

// Len returns the number of registered patterns, superseded ones included
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.patterns)
}
