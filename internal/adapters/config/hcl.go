package config

import (
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// hclProjectfile is the schema of kiln.hcl. Steps are labeled blocks:
//
//	step "css" {
//	  builder = "Less"
//	  sources = ["styles/site.less"]
//	}
type hclProjectfile struct {
	Version string     `hcl:"version,optional"`
	Root    string     `hcl:"root,optional"`
	Tools   []string   `hcl:"tools,optional"`
	Env     cty.Value  `hcl:"env,optional"`
	Steps   []*hclStep `hcl:"step,block"`
}

type hclStep struct {
	Name    string    `hcl:"name,label"`
	Builder string    `hcl:"builder,optional"`
	Target  cty.Value `hcl:"target,optional"`
	Sources cty.Value `hcl:"sources,optional"`
	Env     cty.Value `hcl:"env,optional"`
}

// readHCL parses an HCL project file into the shared Projectfile schema.
func readHCL(configPath string) (*Projectfile, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(configPath)
	if diags.HasErrors() {
		return nil, zerr.Wrap(diags, domain.ErrConfigParseFailed.Error())
	}

	var raw hclProjectfile
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, zerr.Wrap(diags, domain.ErrConfigParseFailed.Error())
	}

	env, err := ctyMap(raw.Env)
	if err != nil {
		return nil, zerr.With(err, "field", "env")
	}

	pf := &Projectfile{
		Version: raw.Version,
		Root:    raw.Root,
		Tools:   raw.Tools,
		Env:     env,
		Steps:   make(map[string]StepDTO, len(raw.Steps)),
	}

	for _, s := range raw.Steps {
		if _, dup := pf.Steps[s.Name]; dup {
			err := zerr.Wrap(domain.ErrConfigParseFailed, "step declared twice")
			return nil, zerr.With(err, "step", s.Name)
		}

		target, err := ctyToNative(s.Target)
		if err != nil {
			return nil, zerr.With(zerr.With(err, "step", s.Name), "field", "target")
		}
		sources, err := ctyToNative(s.Sources)
		if err != nil {
			return nil, zerr.With(zerr.With(err, "step", s.Name), "field", "sources")
		}
		stepEnv, err := ctyMap(s.Env)
		if err != nil {
			return nil, zerr.With(zerr.With(err, "step", s.Name), "field", "env")
		}

		pf.Steps[s.Name] = StepDTO{
			Builder: s.Builder,
			Target:  target,
			Sources: sources,
			Env:     stepEnv,
		}
	}

	return pf, nil
}

func ctyMap(v cty.Value) (map[string]any, error) {
	native, err := ctyToNative(v)
	if err != nil || native == nil {
		return nil, err
	}
	m, ok := native.(map[string]any)
	if !ok {
		return nil, zerr.With(domain.ErrInvalidConfigValue, "type", v.Type().FriendlyName())
	}
	return m, nil
}

// ctyToNative converts v into strings, float64, bools, []any and
// map[string]any. Null and unknown values become nil.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, zerr.Wrap(err, domain.ErrInvalidConfigValue.Error())
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil

	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			key, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, zerr.With(err, "key", key.AsString())
			}
			out[key.AsString()] = native
		}
		return out, nil

	default:
		return nil, zerr.With(domain.ErrInvalidConfigValue, "type", ty.FriendlyName())
	}
}
