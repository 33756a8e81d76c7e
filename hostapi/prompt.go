package hostapi

import (
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
	"go.starlark.net/starlark"
)

// Prompter is the terminal interaction surface the prompt module delegates
// to; kept as an interface so plugin tasks can be evaluated under test
// with a scripted Prompter instead of a real terminal.
type Prompter interface {
	Confirm(message string, def bool) (bool, error)
	ConfirmOptional(message string) (bool, bool, error) // (value, ok, err); ok=false means cancelled
	Input(message, def string, validate func(string) string) (string, error)
	InputNumber(message string, def float64, validate func(float64) string) (float64, error)
	InputPassword(message string, validate func(string) string) (string, error)
	Select(message string, options []string) (int, error)
	MultiSelect(message string, options []string, defaults []int) ([]int, error)
}

// PromptUIPrompter implements Prompter on github.com/manifoldco/promptui,
// LABt's terminal prompt library (grounded on the pack's CLI-tool
// manifests that wire the same library for interactive flows).
type PromptUIPrompter struct{}

func (PromptUIPrompter) Confirm(message string, def bool) (bool, error) {
	defStr := "n"
	if def {
		defStr = "y"
	}
	p := promptui.Prompt{Label: message, IsConfirm: true, Default: defStr}
	result, err := p.Run()
	if err != nil {
		if err == promptui.ErrAbort {
			return false, nil
		}
		return false, err
	}
	return result == "y" || result == "Y", nil
}

func (PromptUIPrompter) ConfirmOptional(message string) (bool, bool, error) {
	p := promptui.Prompt{Label: message, IsConfirm: true}
	result, err := p.Run()
	if err == promptui.ErrAbort {
		return false, true, nil // answered "no", as in Confirm
	}
	if err == promptui.ErrInterrupt || err == promptui.ErrEOF {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return result == "y" || result == "Y", true, nil
}

func (PromptUIPrompter) Input(message, def string, validate func(string) string) (string, error) {
	p := promptui.Prompt{
		Label:   message,
		Default: def,
		Validate: func(s string) error {
			if validate == nil {
				return nil
			}
			if msg := validate(s); msg != "" {
				return errors.New(msg)
			}
			return nil
		},
	}
	return p.Run()
}

func (PromptUIPrompter) InputNumber(message string, def float64, validate func(float64) string) (float64, error) {
	p := promptui.Prompt{
		Label:   message,
		Default: strconv.FormatFloat(def, 'g', -1, 64),
		Validate: func(s string) error {
			n, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return errors.New("must be a number")
			}
			if validate != nil {
				if msg := validate(n); msg != "" {
					return errors.New(msg)
				}
			}
			return nil
		},
	}
	result, err := p.Run()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(result, 64)
}

func (PromptUIPrompter) InputPassword(message string, validate func(string) string) (string, error) {
	p := promptui.Prompt{
		Label: message,
		Mask:  '*',
		Validate: func(s string) error {
			if validate == nil {
				return nil
			}
			if msg := validate(s); msg != "" {
				return errors.New(msg)
			}
			return nil
		},
	}
	return p.Run()
}

func (PromptUIPrompter) Select(message string, options []string) (int, error) {
	p := promptui.Select{Label: message, Items: options}
	idx, _, err := p.Run()
	return idx + 1, err // 1-based index
}

func (PromptUIPrompter) MultiSelect(message string, options []string, defaults []int) ([]int, error) {
	// promptui has no native multi-select; LABt runs repeated single
	// selects over the full option list plus a trailing "done" entry,
	// toggling the chosen option's membership each round until "done" is
	// picked.
	selectedSet := make(map[int]bool)
	for _, d := range defaults {
		selectedSet[d] = true
	}

	for {
		items := make([]string, 0, len(options)+1)
		for i, o := range options {
			mark := "[ ]"
			if selectedSet[i] {
				mark = "[x]"
			}
			items = append(items, mark+" "+o)
		}
		items = append(items, "done")

		p := promptui.Select{Label: message, Items: items}
		idx, _, err := p.Run()
		if err != nil {
			return nil, err
		}
		if idx == len(options) {
			break
		}
		selectedSet[idx] = !selectedSet[idx]
	}

	var out []int
	for i := range options {
		if selectedSet[i] {
			out = append(out, i)
		}
	}
	return out, nil
}

// newPromptModule binds the prompt.* functions onto env.Prompter.
func newPromptModule(env *Environment) *namespace {
	return newNamespace("prompt", starlark.StringDict{
		"confirm":          starlark.NewBuiltin("confirm", env.promptConfirm),
		"confirm_optional": starlark.NewBuiltin("confirm_optional", env.promptConfirmOptional),
		"input":            starlark.NewBuiltin("input", env.promptInput),
		"input_number":     starlark.NewBuiltin("input_number", env.promptInputNumber),
		"input_password":   starlark.NewBuiltin("input_password", env.promptInputPassword),
		"select":           starlark.NewBuiltin("select", env.promptSelect),
		"multi_select":     starlark.NewBuiltin("multi_select", env.promptMultiSelect),
	})
}

func (env *Environment) promptConfirm(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string
	def := false
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "message", &message, "default?", &def); err != nil {
		return nil, err
	}
	result, err := env.Prompter.Confirm(message, def)
	if err != nil {
		return nil, err
	}
	return starlark.Bool(result), nil
}

func (env *Environment) promptConfirmOptional(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "message", &message); err != nil {
		return nil, err
	}
	result, ok, err := env.Prompter.ConfirmOptional(message)
	if err != nil {
		return nil, err
	}
	if !ok {
		return starlark.None, nil
	}
	return starlark.Bool(result), nil
}

func (env *Environment) promptInput(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message, def string
	var validateFn starlark.Callable
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "message", &message, "default?", &def, "validate?", &validateFn); err != nil {
		return nil, err
	}
	result, err := env.Prompter.Input(message, def, wrapValidator(thread, validateFn))
	if err != nil {
		return nil, err
	}
	return starlark.String(result), nil
}

func (env *Environment) promptInputNumber(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string
	var def starlark.Float
	var validateFn starlark.Callable
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "message", &message, "default?", &def, "validate?", &validateFn); err != nil {
		return nil, err
	}
	result, err := env.Prompter.InputNumber(message, float64(def), wrapNumberValidator(thread, validateFn))
	if err != nil {
		return nil, err
	}
	return starlark.Float(result), nil
}

func (env *Environment) promptInputPassword(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string
	var validateFn starlark.Callable
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "message", &message, "validate?", &validateFn); err != nil {
		return nil, err
	}
	result, err := env.Prompter.InputPassword(message, wrapValidator(thread, validateFn))
	if err != nil {
		return nil, err
	}
	return starlark.String(result), nil
}

func (env *Environment) promptSelect(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string
	var options *starlark.List
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "message", &message, "options", &options); err != nil {
		return nil, err
	}
	opts, err := listToStrings(options)
	if err != nil {
		return nil, err
	}
	idx, err := env.Prompter.Select(message, opts)
	if err != nil {
		return nil, err
	}
	return starlark.MakeInt(idx), nil
}

func (env *Environment) promptMultiSelect(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string
	var options *starlark.List
	var defaults *starlark.List
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "message", &message, "options", &options, "defaults?", &defaults); err != nil {
		return nil, err
	}
	opts, err := listToStrings(options)
	if err != nil {
		return nil, err
	}
	var defIdx []int
	if defaults != nil {
		defIdx, err = listToInts(defaults)
		if err != nil {
			return nil, err
		}
	}

	result, err := env.Prompter.MultiSelect(message, opts, defIdx)
	if err != nil {
		return nil, err
	}

	values := make([]starlark.Value, len(result))
	for i, v := range result {
		values[i] = starlark.MakeInt(v)
	}
	return starlark.NewList(values), nil
}

func wrapValidator(thread *starlark.Thread, fn starlark.Callable) func(string) string {
	if fn == nil {
		return nil
	}
	return func(s string) string {
		result, err := starlark.Call(thread, fn, starlark.Tuple{starlark.String(s)}, nil)
		if err != nil {
			return err.Error()
		}
		if result == starlark.None {
			return ""
		}
		if msg, ok := starlark.AsString(result); ok {
			return msg
		}
		return ""
	}
}

func wrapNumberValidator(thread *starlark.Thread, fn starlark.Callable) func(float64) string {
	if fn == nil {
		return nil
	}
	return func(n float64) string {
		result, err := starlark.Call(thread, fn, starlark.Tuple{starlark.Float(n)}, nil)
		if err != nil {
			return err.Error()
		}
		if result == starlark.None {
			return ""
		}
		if msg, ok := starlark.AsString(result); ok {
			return msg
		}
		return ""
	}
}

func listToStrings(l *starlark.List) ([]string, error) {
	out := make([]string, 0, l.Len())
	iter := l.Iterate()
	defer iter.Done()
	var v starlark.Value
	for iter.Next(&v) {
		s, ok := starlark.AsString(v)
		if !ok {
			return nil, errors.New("expected a list of strings")
		}
		out = append(out, s)
	}
	return out, nil
}

func listToInts(l *starlark.List) ([]int, error) {
	out := make([]int, 0, l.Len())
	iter := l.Iterate()
	defer iter.Done()
	var v starlark.Value
	for iter.Next(&v) {
		i, ok := v.(starlark.Int)
		if !ok {
			return nil, errors.New("expected a list of integers")
		}
		n, _ := i.Int64()
		out = append(out, int(n))
	}
	return out, nil
}
