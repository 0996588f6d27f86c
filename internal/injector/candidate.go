package injector

import (
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type candidateKind int

const (
	kindNonElement candidateKind = iota
	kindInternal
	kindLink
	kindScript
	kindOther
)

func (k candidateKind) String() string {
	switch k {
	case kindNonElement:
		return "non_element"
	case kindInternal:
		return "internal"
	case kindLink:
		return "link"
	case kindScript:
		return "script"
	default:
		return "other"
	}
}

// classify decides what happens to a direct child of the entry document head.
func classify(n *html.Node, internalClass string) candidateKind {
	if n == nil || n.Type != html.ElementNode {
		return kindNonElement
	}
	if hasClass(n, internalClass) {
		return kindInternal
	}
	switch n.DataAtom {
	case atom.Link:
		return kindLink
	case atom.Script:
		return kindScript
	default:
		return kindOther
	}
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	if class == "" {
		return false
	}
	v, ok := getAttr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// addMarkerClass tags n with class. Nodes that cannot carry a class are
// reported through the returned bool and left unchanged.
func addMarkerClass(n *html.Node, class string, logger zerolog.Logger) bool {
	if n == nil || n.Type != html.ElementNode {
		logger.Warn().Str("class", class).Msg("Element cannot carry a class, continuing without marker")
		return false
	}
	if hasClass(n, class) {
		return true
	}
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, "class") {
			if strings.TrimSpace(a.Val) == "" {
				n.Attr[i].Val = class
			} else {
				n.Attr[i].Val = a.Val + " " + class
			}
			return true
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
	return true
}

// newScript builds a fresh script element. Only the source and the
// async and defer flags are carried over.
func newScript(src string, async, deferred bool, class string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     atom.Script.String(),
		DataAtom: atom.Script,
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class}, html.Attribute{Key: "src", Val: src})
	if async {
		n.Attr = append(n.Attr, html.Attribute{Key: "async"})
	}
	if deferred {
		n.Attr = append(n.Attr, html.Attribute{Key: "defer"})
	}
	return n
}

// detach removes n from its parsed tree so it can be appended to the host.
func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}
