package options

import (
	"fmt"
	"strings"
)

// Compound flag values use a colon between the two halves. Only the first
// colon separates; the remainder stays part of the second half so that
// values themselves may carry colons.
const specSeparator = ":"

// ParseFilter parses a "kind:path" filter declaration.
func ParseFilter(spec string) (Filter, error) {
	kind, path, found := strings.Cut(spec, specSeparator)
	if !found {
		return Filter{}, fmt.Errorf("filter %q: expected kind:path", spec)
	}
	if path == "" {
		return Filter{}, fmt.Errorf("filter %q: empty path", spec)
	}
	switch FilterKind(kind) {
	case FilterKindLua, FilterKindExec:
		return Filter{Kind: FilterKind(kind), Path: path}, nil
	default:
		return Filter{}, fmt.Errorf("filter %q: unknown kind %q (want %q or %q)", spec, kind, FilterKindLua, FilterKindExec)
	}
}

// ParseVariable parses a "key" or "key:value" variable declaration.
func ParseVariable(spec string) (Variable, error) {
	key, value, found := strings.Cut(spec, specSeparator)
	if key == "" {
		return Variable{}, fmt.Errorf("variable %q: empty key", spec)
	}
	if !found {
		return Variable{Key: key}, nil
	}
	return Variable{Key: key, Value: &value}, nil
}

// ParseStyle parses a "name:className" style declaration.
func ParseStyle(spec string) (Style, error) {
	name, class, found := strings.Cut(spec, specSeparator)
	if !found {
		return Style{}, fmt.Errorf("style %q: expected name:className", spec)
	}
	if name == "" {
		return Style{}, fmt.Errorf("style %q: empty name", spec)
	}
	if class == "" {
		return Style{}, fmt.Errorf("style %q: empty class name", spec)
	}
	return Style{Name: name, ClassName: class}, nil
}

// ParseAdditionalOption parses an "option" or "option:value" passthrough
// declaration for the reader or writer stage.
func ParseAdditionalOption(spec string) (AdditionalOption, error) {
	option, value, found := strings.Cut(spec, specSeparator)
	if option == "" {
		return AdditionalOption{}, fmt.Errorf("additional option %q: empty option", spec)
	}
	if !found {
		return AdditionalOption{Option: option}, nil
	}
	return AdditionalOption{Option: option, Value: &value}, nil
}

// ParseFilters parses a list of filter declarations, failing on the first
// malformed entry.
func ParseFilters(specs []string) ([]Filter, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	filters := make([]Filter, 0, len(specs))
	for _, spec := range specs {
		f, err := ParseFilter(spec)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// ParseVariables parses a list of variable declarations.
func ParseVariables(specs []string) ([]Variable, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	vars := make([]Variable, 0, len(specs))
	for _, spec := range specs {
		v, err := ParseVariable(spec)
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
	return vars, nil
}

// ParseStyles parses a list of style declarations.
func ParseStyles(specs []string) ([]Style, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	styles := make([]Style, 0, len(specs))
	for _, spec := range specs {
		s, err := ParseStyle(spec)
		if err != nil {
			return nil, err
		}
		styles = append(styles, s)
	}
	return styles, nil
}

// ParseAdditionalOptions parses a list of passthrough declarations.
func ParseAdditionalOptions(specs []string) ([]AdditionalOption, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	opts := make([]AdditionalOption, 0, len(specs))
	for _, spec := range specs {
		o, err := ParseAdditionalOption(spec)
		if err != nil {
			return nil, err
		}
		opts = append(opts, o)
	}
	return opts, nil
}
