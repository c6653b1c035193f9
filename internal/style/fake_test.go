package style

type fakeElement struct {
	tag   string
	id    string
	attrs map[string]string
	text  string
}

func (e *fakeElement) ID() string      { return e.id }
func (e *fakeElement) SetID(id string) { e.id = id }

func (e *fakeElement) Attribute(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

func (e *fakeElement) SetAttribute(name, value string) {
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs[name] = value
}

func (e *fakeElement) TextContent() string        { return e.text }
func (e *fakeElement) SetTextContent(text string) { e.text = text }

// fakeDocument — документ в памяти: head + meta.
type fakeDocument struct {
	head  []*fakeElement
	metas map[string]string

	// attrsAtAppend — атрибуты элементов на момент AppendChild.
	attrsAtAppend map[string]map[string]string
}

func newFakeDocument() *fakeDocument {
	return &fakeDocument{
		metas:         make(map[string]string),
		attrsAtAppend: make(map[string]map[string]string),
	}
}

func (d *fakeDocument) CreateElement(tag string) Element {
	return &fakeElement{tag: tag}
}

func (d *fakeDocument) GetElementByID(id string) Element {
	for _, el := range d.head {
		if el.id == id {
			return el
		}
	}
	return nil
}

func (d *fakeDocument) AppendChild(el Element) {
	fe := el.(*fakeElement)
	snapshot := make(map[string]string, len(fe.attrs))
	for k, v := range fe.attrs {
		snapshot[k] = v
	}
	d.attrsAtAppend[fe.id] = snapshot
	d.head = append(d.head, fe)
}

func (d *fakeDocument) MetaContent(name string) (string, bool) {
	v, ok := d.metas[name]
	return v, ok
}

func (d *fakeDocument) styles() []*fakeElement {
	var out []*fakeElement
	for _, el := range d.head {
		if el.tag == "style" {
			out = append(out, el)
		}
	}
	return out
}
