package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/wippyai/stl/errors"
)

// ParseHCL decodes an HCL document. env is exposed to expressions as the
// env object. The result is not validated.
func ParseHCL(src []byte, filename string, env map[string]string) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Load(errors.PhaseConfig, "parse "+filename, diags)
	}

	var f file
	diags = gohcl.DecodeBody(hclFile.Body, evalContext(env), &f)
	if diags.HasErrors() {
		return nil, errors.Load(errors.PhaseConfig, "decode "+filename, diags)
	}
	return f.apply(), nil
}

func evalContext(env map[string]string) *hcl.EvalContext {
	vals := make(map[string]cty.Value, len(env))
	for k, v := range env {
		if validEnvName(k) {
			vals[k] = cty.StringVal(v)
		}
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vals),
		},
	}
}

// validEnvName reports whether k can follow "env." in an expression.
func validEnvName(k string) bool {
	if k == "" {
		return false
	}
	for i, c := range k {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '-'):
		default:
			return false
		}
	}
	return true
}
