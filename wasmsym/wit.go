package wasmsym

import (
	"regexp"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/stl/errors"
)

type funcSignature struct {
	params  []wit.Type
	results []wit.Type
}

var funcPattern = regexp.MustCompile(`(?:export\s+)?([a-zA-Z_][a-zA-Z0-9_-]*)\s*:\s*func\s*\(([^)]*)\)(?:\s*->\s*([^;]+))?`)

// parseWitFunctions extracts function signatures from WIT text.
// Pattern: [export] name: func(params) -> result;
func parseWitFunctions(witText string) (map[string]*funcSignature, error) {
	funcs := make(map[string]*funcSignature)

	for _, match := range funcPattern.FindAllStringSubmatch(witText, -1) {
		name := match[1]
		paramsStr := strings.TrimSpace(match[2])
		resultStr := strings.TrimSpace(match[3])

		sig := &funcSignature{}

		for _, p := range splitParams(paramsStr) {
			typStr := p
			if idx := strings.LastIndex(p, ":"); idx != -1 {
				typStr = p[idx+1:]
			}
			t, err := wit.ParseType(strings.TrimSpace(typStr))
			if err != nil {
				return nil, errors.Wrap(errors.PhaseWasm, errors.KindLoad, err, "parse param type "+typStr)
			}
			sig.params = append(sig.params, t)
		}

		if resultStr != "" && resultStr != "()" {
			resultStr = strings.TrimSuffix(strings.TrimPrefix(resultStr, "("), ")")
			for _, part := range splitParams(resultStr) {
				t, err := wit.ParseType(part)
				if err != nil {
					return nil, errors.Wrap(errors.PhaseWasm, errors.KindLoad, err, "parse result type "+part)
				}
				sig.results = append(sig.results, t)
			}
		}

		funcs[name] = sig
	}

	if len(funcs) == 0 {
		return nil, errors.InvalidInput(errors.PhaseWasm, "no functions found in WIT text")
	}
	return funcs, nil
}

// splitParams splits a comma separated list, keeping nested parens intact.
func splitParams(s string) []string {
	var result []string
	var current strings.Builder
	depth := 0

	flush := func() {
		if str := strings.TrimSpace(current.String()); str != "" {
			result = append(result, str)
		}
		current.Reset()
	}

	for _, ch := range s {
		switch ch {
		case '(', '<':
			depth++
		case ')', '>':
			depth--
		case ',':
			if depth == 0 {
				flush()
				continue
			}
		}
		current.WriteRune(ch)
	}
	flush()

	return result
}

// isInt32 reports whether t lowers to a single i32 the way thread entry
// points need.
func isInt32(t wit.Type) bool {
	switch t.(type) {
	case wit.S32, wit.U32:
		return true
	}
	return false
}

// check verifies that a WIT signature can back a thread entry point.
func (sig *funcSignature) check(name string) error {
	if len(sig.params) > 1 || len(sig.results) > 1 {
		return errors.New(errors.PhaseWasm, errors.KindSignatureMismatch).
			Name(name).
			Detail("entry points take at most one argument and return at most one value").
			Build()
	}
	for _, t := range append(append([]wit.Type{}, sig.params...), sig.results...) {
		if !isInt32(t) {
			return errors.New(errors.PhaseWasm, errors.KindSignatureMismatch).
				Name(name).
				Detail("type %T is not a 32-bit integer", t).
				Build()
		}
	}
	return nil
}
