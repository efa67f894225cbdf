package dom

import "strings"

const dataPrefix = "data-"

// HasAnyAttr reports whether el carries at least one of names.
func HasAnyAttr(el Element, names ...string) bool {
	if el == nil {
		return false
	}
	for _, name := range names {
		if _, ok := el.Attr(name); ok {
			return true
		}
	}
	return false
}

// Closest walks from el up through its ancestors and returns the first element
// carrying any of names. el itself is included. Returns nil when none match.
func Closest(el Element, names ...string) Element {
	for cur := el; cur != nil; cur = cur.Parent() {
		if HasAnyAttr(cur, names...) {
			return cur
		}
	}
	return nil
}

// Dataset collects every data-* attribute of el keyed by its camelCased name,
// matching the browser's dataset rule: data-track-event becomes trackEvent.
func Dataset(el Element) map[string]string {
	out := make(map[string]string)
	if el == nil {
		return out
	}
	for _, attr := range el.Attrs() {
		name := strings.ToLower(attr.Name)
		if !strings.HasPrefix(name, dataPrefix) {
			continue
		}
		out[DatasetKey(name)] = attr.Value
	}
	return out
}

// DatasetKey converts an attribute name such as data-track-event into its
// dataset key (trackEvent). Names without the data- prefix are converted as
// if the prefix had already been removed.
func DatasetKey(attrName string) string {
	name := strings.TrimPrefix(strings.ToLower(attrName), dataPrefix)

	var sb strings.Builder
	sb.Grow(len(name))
	upperNext := false
	for i := range len(name) {
		c := name[i]
		if c == '-' && i+1 < len(name) && name[i+1] >= 'a' && name[i+1] <= 'z' {
			upperNext = true
			continue
		}
		if upperNext {
			c -= 'a' - 'A'
			upperNext = false
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
