package injector

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/widgetloader/internal/common"
	"golang.org/x/net/html"
)

// Host is the append-only mutation surface of the page the widget is
// grafted into.
type Host interface {
	AppendToHead(n *html.Node)
	AppendToBody(n *html.Node)
}

// Document is a parsed host page.
type Document struct {
	doc  *goquery.Document
	head *html.Node
	body *html.Node
}

// ParseDocument parses a host page. Pages without a body (framesets) are rejected.
func ParseDocument(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, common.WrapError(err, "failed to parse host document")
	}
	return NewDocument(doc)
}

// NewDocument wraps an already parsed page.
func NewDocument(doc *goquery.Document) (*Document, error) {
	head := doc.Find("head").First()
	body := doc.Find("body").First()
	if head.Length() == 0 {
		return nil, common.NewError("host document has no head: %w", common.ErrInvalidInput)
	}
	if body.Length() == 0 {
		return nil, common.NewError("host document has no body: %w", common.ErrInvalidInput)
	}
	return &Document{
		doc:  doc,
		head: head.Get(0),
		body: body.Get(0),
	}, nil
}

// AppendToHead appends n as the last child of <head>.
func (d *Document) AppendToHead(n *html.Node) {
	d.head.AppendChild(n)
}

// AppendToBody appends n as the last child of <body>.
func (d *Document) AppendToBody(n *html.Node) {
	d.body.AppendChild(n)
}

// Marked returns the elements carrying class, in document order.
func (d *Document) Marked(class string) *goquery.Selection {
	return d.doc.Find("." + class)
}

// Render writes the page as HTML.
func (d *Document) Render(w io.Writer) error {
	for n := d.doc.Get(0).FirstChild; n != nil; n = n.NextSibling {
		if err := html.Render(w, n); err != nil {
			return common.WrapError(err, "failed to render host document")
		}
	}
	return nil
}

// String renders the page, returning an empty string on failure.
func (d *Document) String() string {
	var sb strings.Builder
	if err := d.Render(&sb); err != nil {
		return ""
	}
	return sb.String()
}
