// Package dom — документ поверх golang.org/x/net/html, реализующий
// style.Document и style.MetaReader.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"cspnonce/internal/style"
)

// Document — разобранная HTML-страница.
type Document struct {
	root *html.Node
	head *html.Node
}

var (
	_ style.BootDocument = (*Document)(nil)
	_ style.Element      = (*Element)(nil)
)

// Parse разбирает разметку. html.Parse всегда достраивает <head>.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: разбор разметки: %w", err)
	}
	head := find(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Head
	})
	if head == nil {
		return nil, fmt.Errorf("dom: в документе нет <head>")
	}
	return &Document{root: root, head: head}, nil
}

// ParseBytes — Parse для среза байт.
func ParseBytes(b []byte) (*Document, error) {
	return Parse(bytes.NewReader(b))
}

func (d *Document) CreateElement(tag string) style.Element {
	tag = strings.ToLower(tag)
	return &Element{n: &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}}
}

func (d *Document) GetElementByID(id string) style.Element {
	n := find(d.root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		v, ok := attr(n, "id")
		return ok && v == id
	})
	if n == nil {
		return nil
	}
	return &Element{n: n}
}

// AppendChild добавляет элемент в конец <head>. Элемент должен быть создан этим пакетом.
func (d *Document) AppendChild(el style.Element) {
	e, ok := el.(*Element)
	if !ok {
		panic(fmt.Sprintf("dom: чужой элемент %T", el))
	}
	if e.n.Parent != nil {
		e.n.Parent.RemoveChild(e.n)
	}
	d.head.AppendChild(e.n)
}

// MetaContent возвращает content первого <meta name=name>.
func (d *Document) MetaContent(name string) (string, bool) {
	n := find(d.root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.Meta {
			return false
		}
		v, ok := attr(n, "name")
		return ok && strings.EqualFold(v, name)
	})
	if n == nil {
		return "", false
	}
	return attr(n, "content")
}

// AttributeValues собирает значения атрибута name по всему документу в порядке обхода.
func (d *Document) AttributeValues(name string) []string {
	var out []string
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			if v, ok := attr(n, name); ok {
				out = append(out, v)
			}
		}
		return false
	})
	return out
}

// Render сериализует документ.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// Element — узел x/net/html.
type Element struct {
	n *html.Node
}

func (e *Element) ID() string {
	v, _ := attr(e.n, "id")
	return v
}

func (e *Element) SetID(id string) {
	e.SetAttribute("id", id)
}

func (e *Element) Attribute(name string) (string, bool) {
	return attr(e.n, name)
}

func (e *Element) SetAttribute(name, value string) {
	for i := range e.n.Attr {
		if e.n.Attr[i].Namespace == "" && e.n.Attr[i].Key == name {
			e.n.Attr[i].Val = value
			return
		}
	}
	e.n.Attr = append(e.n.Attr, html.Attribute{Key: name, Val: value})
}

func (e *Element) TextContent() string {
	var sb strings.Builder
	walk(e.n, func(n *html.Node) bool {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		return false
	})
	return sb.String()
}

// SetTextContent заменяет всех потомков одним текстовым узлом.
func (e *Element) SetTextContent(text string) {
	for c := e.n.FirstChild; c != nil; c = e.n.FirstChild {
		e.n.RemoveChild(c)
	}
	if text != "" {
		e.n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// walk обходит дерево в глубину; fn == true останавливает обход.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if fn(n) {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if walk(c, fn) {
			return true
		}
	}
	return false
}

func find(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if match(n) {
			found = n
			return true
		}
		return false
	})
	return found
}
