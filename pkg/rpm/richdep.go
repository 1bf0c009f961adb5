package rpm

import (
	"fmt"
	"strings"
)

// ParseRequirement parses a single dependency string as emitted by
// repository query tools. Three forms are accepted:
//
//   - bare capability:       "libfoo.so.1()(64bit)", "/usr/bin/python3"
//   - versioned capability:  "python3dist(requests) >= 2.28"
//   - rich dependency:       "(gcc >= 12 or clang)"
//
// build marks the result as a build-time requirement.
func ParseRequirement(s string, build bool) (Requirement, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Requirement{}, fmt.Errorf("empty requirement")
	}

	if strings.HasPrefix(s, "(") {
		rich, err := parseRich(s)
		if err != nil {
			return Requirement{}, err
		}
		return Requirement{
			Capability: Capability{Name: s},
			Build:      build,
			Rich:       rich,
		}, nil
	}

	cap, err := ParseCapability(s)
	if err != nil {
		return Requirement{}, err
	}
	return Requirement{Capability: cap, Build: build}, nil
}

// parseRich parses a parenthesized boolean dependency expression:
// "(term OP term [OP term...])" where OP is one of "or", "and", "with",
// "without", "if", "unless", terms are simple dependencies or nested
// parenthesized expressions, and a single expression uses one operator
// throughout. The conditionals "if" and "unless" take a condition term
// and optionally an "else" branch. Mixing operators without parentheses
// is a parse error, as it is for rpm itself; the caller treats that as
// malformed package metadata and skips the package.
func parseRich(s string) (*RichDep, error) {
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("rich dependency %q: unbalanced parentheses", s)
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return nil, fmt.Errorf("rich dependency %q: empty expression", s)
	}

	tokens, err := splitRich(inner)
	if err != nil {
		return nil, fmt.Errorf("rich dependency %q: %w", s, err)
	}

	// tokens alternate term, op, term, op, term...
	if len(tokens) < 3 || len(tokens)%2 == 0 {
		return nil, fmt.Errorf("rich dependency %q: malformed expression", s)
	}

	var ops []string
	var terms []Requirement
	for i, tok := range tokens {
		if i%2 == 1 {
			ops = append(ops, tok)
			continue
		}

		term, err := ParseRequirement(tok, false)
		if err != nil {
			return nil, fmt.Errorf("rich dependency %q: %w", s, err)
		}
		terms = append(terms, term)
	}

	switch ops[0] {
	case "if", "unless":
		// "A if B", "A if B else C" and the unless forms.
		if len(ops) > 2 || (len(ops) == 2 && ops[1] != "else") {
			return nil, fmt.Errorf("rich dependency %q: malformed conditional", s)
		}
		op := RichIf
		if ops[0] == "unless" {
			op = RichUnless
		}
		return &RichDep{Op: op, Terms: terms}, nil

	case "else":
		return nil, fmt.Errorf("rich dependency %q: 'else' without a conditional", s)

	case "or", "and", "with", "without":
		for _, next := range ops[1:] {
			if next != ops[0] {
				return nil, fmt.Errorf("rich dependency %q: mixed operators %q and %q", s, ops[0], next)
			}
		}
		return &RichDep{Op: RichOp(ops[0]), Terms: terms}, nil
	}
	return nil, fmt.Errorf("rich dependency %q: unsupported operator %q", s, ops[0])
}

// richKeyword reports whether w is an operator word of the rich
// dependency grammar.
func richKeyword(w string) bool {
	switch w {
	case "or", "and", "if", "unless", "else", "with", "without":
		return true
	}
	return false
}

// splitRich tokenizes a rich expression body into terms and operator
// words at depth zero. Nested parenthesized groups stay intact as single
// tokens. A term like "gcc >= 12" is kept together by treating operator
// keywords as the only term boundaries.
func splitRich(s string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	depth := 0

	flush := func() {
		if t := strings.TrimSpace(current.String()); t != "" {
			tokens = append(tokens, t)
		}
		current.Reset()
	}

	words := strings.Fields(s)
	for _, w := range words {
		if depth == 0 && richKeyword(w) {
			flush()
			tokens = append(tokens, w)
			continue
		}
		depth += strings.Count(w, "(") - strings.Count(w, ")")
		if depth < 0 {
			return nil, fmt.Errorf("unbalanced parentheses")
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(w)
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced parentheses")
	}
	flush()

	return tokens, nil
}
