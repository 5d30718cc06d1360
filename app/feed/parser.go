package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/beevik/etree"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

// Feed document formats reported by DetectType
const (
	TypeRSS     = "rss"
	TypeAtom    = "atom"
	TypeJSON    = "json"
	TypeUnknown = "unknown"
)

// Parser extracts <item> elements from feed documents
type Parser struct {
	logger *zap.Logger
}

func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse returns every <item> element found anywhere in body, in document
// order. A body that is not well-formed XML yields a *ParseError. Items
// missing <guid>, <title> or <pubDate> are logged and skipped.
func (p *Parser) Parse(feedID string, body []byte) ([]Item, error) {
	if err := checkWellFormed(body); err != nil {
		return nil, &ParseError{FeedID: feedID, Err: err}
	}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = passthroughCharset
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, &ParseError{FeedID: feedID, Err: err}
	}

	root := doc.Root()
	if root == nil {
		return nil, &ParseError{FeedID: feedID, Err: errors.New("document has no root element")}
	}

	if feedType := p.DetectType(body); feedType != TypeRSS {
		p.logger.Warn("document is not an RSS feed, expecting no items",
			zap.String("feed_id", feedID),
			zap.String("type", feedType),
			zap.String("root", root.FullTag()))
	}

	elements := findItems(root, nil)
	items := make([]Item, 0, len(elements))
	for i, el := range elements {
		item, err := p.extract(feedID, i, el)
		if err != nil {
			p.logger.Warn("skipping item", zap.String("feed_id", feedID), zap.Error(err))
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

// DetectType names the format of a feed body: rss, atom, json or unknown.
// Only rss documents carry <item> elements.
func (p *Parser) DetectType(body []byte) string {
	return feedTypeName(gofeed.DetectFeedType(bytes.NewReader(body)))
}

func (p *Parser) extract(feedID string, index int, el *etree.Element) (Item, error) {
	guid := childElement(el, "guid")
	if guid == nil || guid.Text() == "" {
		return Item{}, &ExtractError{FeedID: feedID, Index: index, Field: "guid"}
	}
	title := childElement(el, "title")
	if title == nil {
		return Item{}, &ExtractError{FeedID: feedID, Index: index, Field: "title"}
	}
	pubDate := childElement(el, "pubDate")
	if pubDate == nil {
		return Item{}, &ExtractError{FeedID: feedID, Index: index, Field: "pubDate"}
	}

	raw, err := serialize(el)
	if err != nil {
		return Item{}, fmt.Errorf("feed %s: item %d: failed to serialize: %w", feedID, index, err)
	}

	item := Item{
		FeedID:  feedID,
		RSSID:   guid.Text(),
		Title:   optionalText(title),
		PubDate: pubDate.Text(),
		Raw:     raw,
	}

	if description := childElement(el, "description"); description != nil {
		text := description.Text()
		item.Description = &text
	}

	return item, nil
}

// serialize renders el as a standalone fragment. Every element gets an
// explicit end tag, and namespace declarations inherited from ancestors are
// copied onto the fragment root so it parses on its own.
func serialize(el *etree.Element) (string, error) {
	fragment := etree.NewDocument()
	fragment.WriteSettings.CanonicalEndTags = true

	root := el.Copy()
	inheritNamespaces(el, root)
	fragment.SetRoot(root)

	return fragment.WriteToString()
}

func inheritNamespaces(src, dst *etree.Element) {
	declared := make(map[string]bool)
	for _, attr := range dst.Attr {
		if isNamespaceDecl(attr) {
			declared[attr.FullKey()] = true
		}
	}

	for parent := src.Parent(); parent != nil; parent = parent.Parent() {
		for _, attr := range parent.Attr {
			if isNamespaceDecl(attr) && !declared[attr.FullKey()] {
				dst.CreateAttr(attr.FullKey(), attr.Value)
				declared[attr.FullKey()] = true
			}
		}
	}
}

func isNamespaceDecl(attr etree.Attr) bool {
	return attr.Space == "xmlns" || (attr.Space == "" && attr.Key == "xmlns")
}

// findItems walks the tree depth first so matches come out in document order.
func findItems(el *etree.Element, found []*etree.Element) []*etree.Element {
	if el.Space == "" && el.Tag == "item" {
		found = append(found, el)
	}
	for _, child := range el.ChildElements() {
		found = findItems(child, found)
	}
	return found
}

// childElement returns the first direct child with the given unprefixed tag.
func childElement(el *etree.Element, tag string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Space == "" && child.Tag == tag {
			return child
		}
	}
	return nil
}

func optionalText(el *etree.Element) *string {
	text := el.Text()
	if text == "" {
		return nil
	}
	return &text
}

// checkWellFormed runs a strict raw token pass over body. Besides syntax it
// checks that end tags match, that there is exactly one root element with
// nothing but whitespace, comments and processing instructions around it,
// and that every namespace prefix is declared.
func checkWellFormed(body []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = true
	dec.CharsetReader = passthroughCharset

	var (
		stack    []openElement
		seenRoot bool
	)
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 && seenRoot {
				return fmt.Errorf("junk after document element: <%s>", qualifiedName(t.Name))
			}
			seenRoot = true

			el := openElement{name: t.Name, prefixes: declaredPrefixes(t.Attr)}
			stack = append(stack, el)
			if err := checkPrefix(stack, t.Name); err != nil {
				return err
			}
			for _, attr := range t.Attr {
				if attr.Name.Space == "xmlns" || (attr.Name.Space == "" && attr.Name.Local == "xmlns") {
					continue
				}
				if err := checkPrefix(stack, attr.Name); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if len(stack) == 0 {
				return fmt.Errorf("unexpected end element </%s>", qualifiedName(t.Name))
			}
			top := stack[len(stack)-1]
			if top.name != t.Name {
				return fmt.Errorf("element <%s> closed by </%s>", qualifiedName(top.name), qualifiedName(t.Name))
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 && len(bytes.TrimSpace(t)) > 0 {
				return errors.New("text outside the document element")
			}
		}
	}

	if len(stack) > 0 {
		return fmt.Errorf("unexpected EOF: <%s> not closed", qualifiedName(stack[len(stack)-1].name))
	}
	if !seenRoot {
		return errors.New("no document element")
	}
	return nil
}

type openElement struct {
	name     xml.Name
	prefixes []string
}

func declaredPrefixes(attrs []xml.Attr) []string {
	var prefixes []string
	for _, attr := range attrs {
		if attr.Name.Space == "xmlns" {
			prefixes = append(prefixes, attr.Name.Local)
		}
	}
	return prefixes
}

// checkPrefix reports a prefixed name whose prefix is not declared on the
// element itself or an ancestor. The xml prefix is always bound.
func checkPrefix(stack []openElement, name xml.Name) error {
	if name.Space == "" || name.Space == "xml" {
		return nil
	}
	for i := len(stack) - 1; i >= 0; i-- {
		for _, prefix := range stack[i].prefixes {
			if prefix == name.Space {
				return nil
			}
		}
	}
	return fmt.Errorf("unbound prefix in <%s>", qualifiedName(name))
}

func qualifiedName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

// passthroughCharset ignores the declared encoding: bodies are already UTF-8.
func passthroughCharset(_ string, input io.Reader) (io.Reader, error) {
	return input, nil
}

func feedTypeName(feedType gofeed.FeedType) string {
	switch feedType {
	case gofeed.FeedTypeRSS:
		return TypeRSS
	case gofeed.FeedTypeAtom:
		return TypeAtom
	case gofeed.FeedTypeJSON:
		return TypeJSON
	default:
		return TypeUnknown
	}
}
