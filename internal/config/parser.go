package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	gwerrors "github.com/alexisbeaulieu97/groundwork/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// reservedKeys may not be used as configuration keys.
var reservedKeys = map[string]struct{}{"FILES": {}}

// Load reads the configuration files in order. Only uppercase keys are
// kept; later files override earlier ones.
func Load(files ...string) (*Settings, error) {
	settings := NewSettings()

	for _, file := range files {
		path, err := filepath.Abs(file)
		if err != nil {
			return nil, gwerrors.NewParseError(file, 0, err)
		}

		values, err := parseFile(path)
		if err != nil {
			return nil, err
		}

		for key, value := range values {
			if !IsSettingKey(key) {
				continue
			}
			if _, reserved := reservedKeys[key]; reserved {
				return nil, gwerrors.NewValidationError(key, fmt.Sprintf("%s is not allowed as name for a configuration parameter", key), nil)
			}
			settings.values[key] = value
		}
		settings.files = append(settings.files, path)
	}

	return settings, nil
}

func parseFile(path string) (map[string]any, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(path)
	case ".hcl":
		return parseHCL(path)
	default:
		return nil, gwerrors.NewParseError(path, 0, fmt.Errorf("unsupported configuration format %q", filepath.Ext(path)))
	}
}

func parseYAML(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, gwerrors.NewParseError(path, 0, err)
	}

	values := map[string]any{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, gwerrors.NewParseError(path, extractLine(err), err)
	}
	return values, nil
}

func parseHCL(path string) (map[string]any, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, gwerrors.NewParseError(path, diagnosticLine(diags), diags)
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, gwerrors.NewParseError(path, diagnosticLine(diags), diags)
	}

	values := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, gwerrors.NewParseError(path, attr.Range.Start.Line, diags)
		}
		native, err := ctyToNative(val)
		if err != nil {
			return nil, gwerrors.NewParseError(path, attr.Range.Start.Line, fmt.Errorf("%s: %w", name, err))
		}
		values[name] = native
	}
	return values, nil
}

// ctyToNative converts an HCL value into the shapes yaml.v3 produces.
func ctyToNative(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}

	typ := val.Type()
	switch {
	case typ == cty.String:
		return val.AsString(), nil
	case typ == cty.Bool:
		return val.True(), nil
	case typ == cty.Number:
		bf := val.AsBigFloat()
		if bf.IsInt() {
			if i, accuracy := bf.Int64(); accuracy == big.Exact {
				return int(i), nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case typ.IsObjectType() || typ.IsMapType():
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			native, err := ctyToNative(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = native
		}
		return out, nil
	case typ.IsListType() || typ.IsTupleType() || typ.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			native, err := ctyToNative(v)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", typ.FriendlyName())
	}
}

func diagnosticLine(diags hcl.Diagnostics) int {
	for _, diag := range diags {
		if diag.Subject != nil {
			return diag.Subject.Start.Line
		}
	}
	return 0
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}
	return line
}
