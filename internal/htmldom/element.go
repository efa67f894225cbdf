package htmldom

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/dom"
)

// element adapts a single-node goquery selection to dom.Element.
type element struct {
	sel *goquery.Selection
}

func (e *element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e *element) Attrs() []dom.Attribute {
	if len(e.sel.Nodes) == 0 {
		return nil
	}
	node := e.sel.Nodes[0]
	out := make([]dom.Attribute, 0, len(node.Attr))
	for _, a := range node.Attr {
		if a.Namespace != "" {
			continue
		}
		out = append(out, dom.Attribute{Name: a.Key, Value: a.Val})
	}
	return out
}

func (e *element) Parent() dom.Element {
	parent := e.sel.Parent()
	if parent.Length() == 0 {
		return nil
	}
	return &element{sel: parent}
}
