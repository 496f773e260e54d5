// Package redact detects and masks personally identifying fields in event
// payloads before they are chained. Detection is a key-name heuristic only:
// free-text values are not scanned. That narrow scope is deliberate - the
// chain is immutable, so anything that slips through can never be removed.
package redact

import (
	"slices"
	"strconv"
	"strings"

	"ledgerline/internal/audit/canonical"
)

// Redacted is the literal that replaces every flagged value.
const Redacted = "[REDACTED]"

// markers is the fixed vocabulary of key-name fragments that flag a field as
// PII. Matching is case-insensitive and applies at any depth.
var markers = []string{
	"email",
	"phone",
	"address",
	"ssn",
	"tax_id",
	"taxid",
	"passport",
	"date_of_birth",
	"birth_date",
	"customer_name",
	"full_name",
	"first_name",
	"last_name",
	"ip_address",
	"credit_card",
	"card_number",
	"iban",
	"account_number",
}

// Path locates one flagged field as the exact key (or array index) segments
// from the payload root. Segments stay separate rather than dot-joined so a
// key that itself contains "." (flattened-key payloads are common) cannot be
// confused with nesting.
type Path []string

// String renders the path dot-joined for logs and error messages.
func (p Path) String() string { return strings.Join(p, ".") }

// DetectFields walks the payload and returns the path of every field whose
// key name contains a PII marker. Array elements contribute their index as a
// path segment. Paths are returned in sorted order.
func DetectFields(payload canonical.Object) []Path {
	var paths []Path
	walkObject(payload, nil, &paths)
	slices.SortFunc(paths, slices.Compare)
	return paths
}

func walkObject(obj canonical.Object, prefix Path, paths *[]Path) {
	for key, v := range obj {
		path := make(Path, len(prefix)+1)
		copy(path, prefix)
		path[len(prefix)] = key
		if matches(key) {
			*paths = append(*paths, path)
			continue // the whole subtree is replaced; no need to descend
		}
		walkValue(v, path, paths)
	}
}

func walkValue(v canonical.Value, prefix Path, paths *[]Path) {
	switch v.Kind() {
	case canonical.KindObject:
		walkObject(v.AsObject(), prefix, paths)
	case canonical.KindArray:
		for i, e := range v.AsArray() {
			walkValue(e, append(slices.Clip(prefix), strconv.Itoa(i)), paths)
		}
	}
}

func matches(key string) bool {
	lower := strings.ToLower(key)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// Apply returns a deep copy of the payload with the value at each path
// replaced by the Redacted literal. Paths that no longer resolve are skipped;
// everything else is untouched.
func Apply(payload canonical.Object, paths []Path) canonical.Object {
	out := payload.Clone()
	for _, path := range paths {
		replaceAt(out, path)
	}
	return out
}

func replaceAt(obj canonical.Object, segments Path) {
	if len(segments) == 0 || obj == nil {
		return
	}
	key := segments[0]
	if len(segments) == 1 {
		if _, ok := obj[key]; ok {
			obj[key] = canonical.String(Redacted)
		}
		return
	}
	if child, ok := obj[key]; ok {
		replaceInValue(child, segments[1:])
	}
}

func replaceInValue(v canonical.Value, segments Path) {
	switch v.Kind() {
	case canonical.KindObject:
		replaceAt(v.AsObject(), segments)
	case canonical.KindArray:
		idx, err := strconv.Atoi(segments[0])
		arr := v.AsArray()
		if err != nil || idx < 0 || idx >= len(arr) {
			return
		}
		if len(segments) == 1 {
			arr[idx] = canonical.String(Redacted)
			return
		}
		replaceInValue(arr[idx], segments[1:])
	}
}
