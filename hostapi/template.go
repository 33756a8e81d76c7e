package hostapi

import (
	"bytes"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"
	"go.starlark.net/starlark"
)

const defaultTemplateGlob = "templates/*"

// newTemplateModule binds template.render(name, data). It is bound into
// every task's environment, build-stage tasks included, not only the init
// task. LABt renders scaffold templates with stdlib text/template plus
// Sprig's helper functions rather than a Jinja-style engine.
func newTemplateModule(env *Environment) *namespace {
	return newNamespace("template", starlark.StringDict{
		"render": starlark.NewBuiltin("render", env.templateRender),
	})
}

func (env *Environment) templateRender(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var data starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name, "data?", &data); err != nil {
		return nil, err
	}

	glob := env.TemplateGlob
	if glob == "" {
		glob = defaultTemplateGlob
	}

	tmpl, err := template.New(filepath.Base(name)).Funcs(sprig.TxtFuncMap()).ParseGlob(filepath.Join(env.TemplateRoot, glob))
	if err != nil {
		return nil, errors.Wrapf(err, "loading templates from %s", glob)
	}

	var goData interface{}
	if data != nil && data != starlark.None {
		converted, err := starlarkToGo(data)
		if err != nil {
			return nil, errors.Wrap(err, "render: converting data")
		}
		goData = converted
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, goData); err != nil {
		return nil, errors.Wrapf(err, "rendering template %s", name)
	}
	return starlark.String(buf.String()), nil
}

// starlarkToGo converts a Starlark value tree (dict/list/string/int/float/
// bool/None) into plain Go values so text/template's reflection-based field
// and index access works over it.
func starlarkToGo(v starlark.Value) (interface{}, error) {
	switch v := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(v), nil
	case starlark.Int:
		n, ok := v.Int64()
		if !ok {
			return nil, errors.New("integer out of range")
		}
		return n, nil
	case starlark.Float:
		return float64(v), nil
	case starlark.String:
		return string(v), nil
	case *starlark.List:
		out := make([]interface{}, 0, v.Len())
		iter := v.Iterate()
		defer iter.Done()
		var item starlark.Value
		for iter.Next(&item) {
			converted, err := starlarkToGo(item)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
		return out, nil
	case starlark.Tuple:
		out := make([]interface{}, len(v))
		for i, item := range v {
			converted, err := starlarkToGo(item)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	case *starlark.Dict:
		out := make(map[string]interface{}, v.Len())
		for _, item := range v.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				return nil, errors.New("template data: dict keys must be strings")
			}
			converted, err := starlarkToGo(item[1])
			if err != nil {
				return nil, err
			}
			out[key] = converted
		}
		return out, nil
	default:
		return nil, errors.Errorf("template data: unsupported value of type %s", v.Type())
	}
}
