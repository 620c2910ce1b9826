package options

// DedupeVariables collapses duplicate keys. The last value for a key wins,
// but the entry keeps the position of the key's first occurrence, so
// [{a,1},{b,2},{a,3}] becomes [{a,3},{b,2}].
func DedupeVariables(vars []Variable) []Variable {
	if len(vars) == 0 {
		return nil
	}
	last := make(map[string]Variable, len(vars))
	for _, v := range vars {
		last[v.Key] = v
	}
	seen := make(map[string]bool, len(last))
	out := make([]Variable, 0, len(last))
	for _, v := range vars {
		if seen[v.Key] {
			continue
		}
		seen[v.Key] = true
		out = append(out, last[v.Key])
	}
	return out
}

// DedupeStyles collapses duplicate style names with the same
// last-wins-first-position rule as DedupeVariables.
func DedupeStyles(styles []Style) []Style {
	if len(styles) == 0 {
		return nil
	}
	last := make(map[string]Style, len(styles))
	for _, s := range styles {
		last[s.Name] = s
	}
	seen := make(map[string]bool, len(last))
	out := make([]Style, 0, len(last))
	for _, s := range styles {
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		out = append(out, last[s.Name])
	}
	return out
}
