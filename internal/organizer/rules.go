package organizer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joseph-ayodele/pdf-agent/constants"
	"github.com/joseph-ayodele/pdf-agent/internal/common"
)

// OverrideKey is a label_overrides key: a single label, or a comma-joined
// label set that must match the document's labels exactly.
type OverrideKey struct {
	Raw    string
	Labels []string
}

// ParseOverrideKey splits a key on commas and trims each label.
func ParseOverrideKey(raw string) OverrideKey {
	if !strings.Contains(raw, ",") {
		return OverrideKey{Raw: raw, Labels: []string{raw}}
	}
	parts := strings.Split(raw, ",")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		labels = append(labels, strings.TrimSpace(p))
	}
	return OverrideKey{Raw: raw, Labels: labels}
}

// IsMulti reports whether the key names a label set.
func (k OverrideKey) IsMulti() bool { return len(k.Labels) > 1 }

// MatchesExactly is true when the key's labels and the document's labels are
// the same set.
func (k OverrideKey) MatchesExactly(labels LabelSet) bool {
	if len(k.Labels) != len(labels) {
		return false
	}
	seen := make(map[string]struct{}, len(k.Labels))
	for _, l := range k.Labels {
		if !labels.Has(l) {
			return false
		}
		seen[l] = struct{}{}
	}
	return len(seen) == len(labels)
}

// Override is one resolved label_overrides entry.
type Override struct {
	Key    OverrideKey
	Folder *string
	Naming *string
}

// DocumentType is the naming rule table for one document type.
type DocumentType struct {
	Name      string
	Folder    *string
	Naming    *string
	Overrides []Override // declaration order

	// byCount is Overrides stably sorted by label count, largest first.
	byCount []Override
}

// Resolution is the outcome of rule resolution for one document.
type Resolution struct {
	DocumentType    string
	Folder          string
	Naming          string
	MatchedOverride string // raw key, empty when the base templates stand
}

// RuleSet resolves document types and labels to templates. It is read-only
// after construction.
type RuleSet struct {
	defaultNaming string
	defaultFolder string
	types         map[string]*DocumentType
	order         []string
}

// NewRuleSet builds the rule table from configuration, keeping declaration order.
func NewRuleSet(defaultNaming string, table common.DocumentTypeTable) (*RuleSet, error) {
	if defaultNaming == "" {
		defaultNaming = constants.DefaultNamingTemplate
	}
	rs := &RuleSet{
		defaultNaming: defaultNaming,
		types:         make(map[string]*DocumentType, len(table)),
	}
	for _, cfg := range table {
		if _, dup := rs.types[cfg.Name]; dup {
			return nil, common.ConfigError(fmt.Sprintf("document type %q declared twice", cfg.Name), nil)
		}
		dt := &DocumentType{Name: cfg.Name, Folder: cfg.Folder, Naming: cfg.Naming}
		for _, lo := range cfg.LabelOverrides {
			key := ParseOverrideKey(lo.Key)
			for _, l := range key.Labels {
				if l == "" {
					return nil, common.ConfigError(
						fmt.Sprintf("document type %q: override key %q has an empty label", cfg.Name, lo.Key), nil)
				}
			}
			dt.Overrides = append(dt.Overrides, Override{Key: key, Folder: lo.Folder, Naming: lo.Naming})
		}
		dt.byCount = append([]Override(nil), dt.Overrides...)
		sort.SliceStable(dt.byCount, func(i, j int) bool {
			return len(dt.byCount[i].Key.Labels) > len(dt.byCount[j].Key.Labels)
		})
		rs.types[cfg.Name] = dt
		rs.order = append(rs.order, cfg.Name)
	}
	return rs, nil
}

// DocumentTypes returns the configured type names in declaration order.
func (r *RuleSet) DocumentTypes() []string {
	return append([]string(nil), r.order...)
}

// Has reports whether docType is configured.
func (r *RuleSet) Has(docType string) bool {
	_, ok := r.types[docType]
	return ok
}

// Resolve picks the folder and naming templates for a document.
//
// Overrides are tried in two passes. The first walks every key by label count,
// largest first, and accepts only an exact set match. The second falls back to
// the first single-label key (in declaration order) whose label is present.
func (r *RuleSet) Resolve(docType string, labels LabelSet) (Resolution, error) {
	if strings.TrimSpace(docType) == "" {
		return Resolution{}, common.UnclassifiedError("no document type", nil)
	}
	dt, ok := r.types[docType]
	if !ok {
		return Resolution{}, common.UnclassifiedError(fmt.Sprintf("document type %q is not configured", docType), nil)
	}

	res := Resolution{DocumentType: docType, Naming: r.defaultNaming, Folder: r.defaultFolder}
	if dt.Naming != nil {
		res.Naming = *dt.Naming
	}
	if dt.Folder != nil {
		res.Folder = *dt.Folder
	}

	matched := r.match(dt, labels)
	if matched != nil {
		res.MatchedOverride = matched.Key.Raw
		if matched.Naming != nil {
			res.Naming = *matched.Naming
		}
		if matched.Folder != nil {
			res.Folder = *matched.Folder
		}
	}
	return res, nil
}

func (r *RuleSet) match(dt *DocumentType, labels LabelSet) *Override {
	for i := range dt.byCount {
		if dt.byCount[i].Key.MatchesExactly(labels) {
			return &dt.byCount[i]
		}
	}
	for i := range dt.Overrides {
		o := &dt.Overrides[i]
		if !o.Key.IsMulti() && labels.Has(o.Key.Labels[0]) {
			return o
		}
	}
	return nil
}
