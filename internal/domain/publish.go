package domain

import "sort"

// PublishConfig selects and renames weather fields before submission.
// An empty AllowList keeps every field.
type PublishConfig struct {
	AllowList []string
	RenameMap map[string]string
}

// NewPublishConfig builds a config from an allow-list and ordered rename
// pairs. A later pair for the same source name replaces an earlier one.
func NewPublishConfig(allow []string, renames [][2]string) PublishConfig {
	m := make(map[string]string, len(renames))
	for _, r := range renames {
		m[r[0]] = r[1]
	}
	return PublishConfig{AllowList: append([]string(nil), allow...), RenameMap: m}
}

// FilterAndRename drops fields not in the allow-list, then renames the
// survivors. If two survivors end up with the same name, the later one in
// input order wins and the earlier one is dropped.
func FilterAndRename(fields []Field, cfg PublishConfig) []Field {
	keep := allowSet(cfg.AllowList)

	out := make([]Field, 0, len(fields))
	dropped := make([]bool, 0, len(fields))
	pos := make(map[string]int, len(fields))
	for _, f := range fields {
		if keep != nil {
			if _, ok := keep[f.Name]; !ok {
				continue
			}
		}
		name := f.Name
		if to, ok := cfg.RenameMap[name]; ok {
			name = to
		}
		if i, ok := pos[name]; ok {
			dropped[i] = true
		}
		pos[name] = len(out)
		out = append(out, Field{Name: name, Value: f.Value})
		dropped = append(dropped, false)
	}

	result := out[:0]
	for i, f := range out {
		if !dropped[i] {
			result = append(result, f)
		}
	}
	return result
}

// RenameCollisions returns the output names that more than one of the given
// input names would map to under cfg, sorted. Used to warn at startup.
func (cfg PublishConfig) RenameCollisions(names []string) []string {
	keep := allowSet(cfg.AllowList)
	seen := make(map[string]int, len(names))
	for _, n := range names {
		if keep != nil {
			if _, ok := keep[n]; !ok {
				continue
			}
		}
		if to, ok := cfg.RenameMap[n]; ok {
			n = to
		}
		seen[n]++
	}
	var out []string
	for n, c := range seen {
		if c > 1 {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// UnknownFields returns allow-list and rename entries that name no known
// weather field. They are harmless but usually a typo.
func (cfg PublishConfig) UnknownFields(known []string) []string {
	set := make(map[string]struct{}, len(known))
	for _, k := range known {
		set[k] = struct{}{}
	}
	var out []string
	for _, n := range cfg.AllowList {
		if _, ok := set[n]; !ok {
			out = append(out, n)
		}
	}
	for n := range cfg.RenameMap {
		if _, ok := set[n]; !ok {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func allowSet(allow []string) map[string]struct{} {
	if len(allow) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allow))
	for _, n := range allow {
		set[n] = struct{}{}
	}
	return set
}
