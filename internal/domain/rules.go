package domain

// AcceptanceRule accepts one message identifier and lists stations whose
// broadcasts are ignored for it.
type AcceptanceRule struct {
	Identifier MessageIdentifier
	IgnoreMMSI map[uint64]struct{}
}

// NewAcceptanceRule builds a rule from an identifier and an ignore list.
func NewAcceptanceRule(id MessageIdentifier, ignore ...uint64) AcceptanceRule {
	set := make(map[uint64]struct{}, len(ignore))
	for _, mmsi := range ignore {
		set[mmsi] = struct{}{}
	}
	return AcceptanceRule{Identifier: id, IgnoreMMSI: set}
}

// AcceptanceTable maps identifiers to their rules. It is built once and only
// read afterwards, so it is safe for concurrent use.
type AcceptanceTable struct {
	rules map[IdentifierKey]AcceptanceRule
}

// NewAcceptanceTable indexes rules by identifier. When two rules share an
// identifier the later one wins; the overwritten identifiers are returned so
// the caller can warn about them.
func NewAcceptanceTable(rules []AcceptanceRule) (*AcceptanceTable, []MessageIdentifier) {
	t := &AcceptanceTable{rules: make(map[IdentifierKey]AcceptanceRule, len(rules))}
	var dups []MessageIdentifier
	for _, r := range rules {
		k := r.Identifier.Key()
		if _, ok := t.rules[k]; ok {
			dups = append(dups, r.Identifier)
		}
		t.rules[k] = r
	}
	return t, dups
}

// Lookup returns the rule accepting id, if any.
func (t *AcceptanceTable) Lookup(id MessageIdentifier) (AcceptanceRule, bool) {
	r, ok := t.rules[id.Key()]
	return r, ok
}

// Len returns the number of distinct accepted identifiers.
func (t *AcceptanceTable) Len() int {
	return len(t.rules)
}

// IsExcluded reports whether mmsi is on the rule's ignore list.
func (r AcceptanceRule) IsExcluded(mmsi uint64) bool {
	_, ok := r.IgnoreMMSI[mmsi]
	return ok
}
