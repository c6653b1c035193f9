// Package style — реестр динамических <style>-контейнеров, помеченных CSP nonce.
//
// Реестр работает с документом через узкий интерфейс Document, поэтому его
// можно гонять на тестовом двойнике без браузера. Реализация поверх
// golang.org/x/net/html лежит в internal/dom.
package style

// Document — возможности документа, которые нужны реестру.
type Document interface {
	// CreateElement создаёт отсоединённый элемент.
	CreateElement(tag string) Element
	// GetElementByID возвращает nil, если элемента нет.
	GetElementByID(id string) Element
	// AppendChild присоединяет элемент к <head>.
	AppendChild(el Element)
}

// Element — узел документа.
type Element interface {
	ID() string
	SetID(id string)
	Attribute(name string) (string, bool)
	SetAttribute(name, value string)
	TextContent() string
	SetTextContent(text string)
}

// MetaReader читает <meta name="..." content="...">.
type MetaReader interface {
	MetaContent(name string) (string, bool)
}
