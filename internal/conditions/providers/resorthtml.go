package providers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/i474232898/ski-conditions-aggregation/internal/common"
	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
)

// ResortHTMLProvider reads a resort's conditions page. Each field is located
// by a simple CSS selector; the text of the first match is normalized.
type ResortHTMLProvider struct {
	base
	selectors map[conditions.Field]string
}

// ResortHTMLConfig describes one resort conditions page.
type ResortHTMLConfig struct {
	ID        string
	Name      string
	URL       string
	Fallback  string
	Unit      conditions.Unit
	Selectors map[conditions.Field]string
}

func NewResortHTMLProvider(cfg ResortHTMLConfig, opts Options) *ResortHTMLProvider {
	opts.defaults()

	unit := cfg.Unit
	if unit == "" {
		unit = conditions.UnitInches
	}

	return &ResortHTMLProvider{
		base: base{
			id:      cfg.ID,
			name:    cfg.Name,
			unit:    unit,
			fetcher: newFetcher(opts, "text/html", cfg.URL, cfg.Fallback),
			clock:   opts.Clock,
		},
		selectors: cfg.Selectors,
	}
}

func (p *ResortHTMLProvider) Fetch(ctx context.Context) conditions.Result {
	return p.run(ctx, p.extract)
}

func (p *ResortHTMLProvider) extract(body []byte) (conditions.Partial, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return conditions.Partial{}, fmt.Errorf("%w: resort html: %v", conditions.ErrParse, err)
	}

	text := func(f conditions.Field) string {
		sel, ok := p.selectors[f]
		if !ok {
			return ""
		}
		n := querySelector(doc, sel)
		if n == nil {
			return ""
		}
		return common.CollapseSpace(nodeText(n))
	}

	out := conditions.Partial{
		Name:        text(conditions.FieldName),
		Base:        conditions.ParseDepth(text(conditions.FieldBase)),
		Summit:      conditions.ParseDepth(text(conditions.FieldSummit)),
		NewSnow24:   conditions.ParseDepth(text(conditions.FieldNewSnow24)),
		NewSnow48:   conditions.ParseDepth(text(conditions.FieldNewSnow48)),
		NewSnow7d:   conditions.ParseDepth(text(conditions.FieldNewSnow7d)),
		Season:      conditions.ParseDepth(text(conditions.FieldSeason)),
		TrailsOpen:  conditions.ParseCount(text(conditions.FieldTrailsOpen)),
		TrailsTotal: conditions.ParseCount(text(conditions.FieldTrailsTotal)),
		LiftsOpen:   conditions.ParseCount(text(conditions.FieldLiftsOpen)),
		LiftsTotal:  conditions.ParseCount(text(conditions.FieldLiftsTotal)),
		Surface:     conditions.CleanSurface(text(conditions.FieldSurface)),
		Status:      conditions.StatusFromText(text(conditions.FieldStatus)),
	}

	if out.TrailsOpen == nil && out.TrailsTotal == nil {
		out.TrailsOpen, out.TrailsTotal = conditions.ParseRatio(text(conditions.FieldTrails))
	}
	if out.LiftsOpen == nil && out.LiftsTotal == nil {
		out.LiftsOpen, out.LiftsTotal = conditions.ParseRatio(text(conditions.FieldLifts))
	}
	return out, nil
}

// Supported selector subset:
//
//	tag, .class, #id, tag.class, tag#id, [attr], tag[attr=val]
//
// Parts separated by whitespace are descendant combinators.
type simpleSelector struct {
	tag     string
	id      string
	class   string
	attrKey string
	attrVal string
}

func parseSimpleSelector(sel string) simpleSelector {
	var s simpleSelector

	if idx := strings.IndexByte(sel, '['); idx >= 0 {
		inner := strings.TrimSuffix(sel[idx+1:], "]")
		sel = sel[:idx]
		if eq := strings.IndexByte(inner, '='); eq >= 0 {
			s.attrKey = inner[:eq]
			s.attrVal = strings.Trim(inner[eq+1:], `"'`)
		} else {
			s.attrKey = inner
		}
	}
	if idx := strings.IndexByte(sel, '#'); idx >= 0 {
		s.id = sel[idx+1:]
		sel = sel[:idx]
	}
	if idx := strings.IndexByte(sel, '.'); idx >= 0 {
		s.class = sel[idx+1:]
		sel = sel[:idx]
	}
	s.tag = strings.ToLower(sel)
	return s
}

func (s simpleSelector) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if s.tag != "" && n.Data != s.tag {
		return false
	}
	if s.id != "" && attr(n, "id") != s.id {
		return false
	}
	if s.class != "" && !hasClass(n, s.class) {
		return false
	}
	if s.attrKey != "" {
		v, ok := lookupAttr(n, s.attrKey)
		if !ok || (s.attrVal != "" && v != s.attrVal) {
			return false
		}
	}
	return true
}

// querySelector returns the first node, in document order, matching selector.
func querySelector(root *html.Node, selector string) *html.Node {
	parts := strings.Fields(selector)
	if len(parts) == 0 {
		return nil
	}
	chain := make([]simpleSelector, len(parts))
	for i, p := range parts {
		chain[i] = parseSimpleSelector(p)
	}
	return findChain(root, chain)
}

func findChain(root *html.Node, chain []simpleSelector) *html.Node {
	var found *html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if chain[0].matches(c) {
				if len(chain) == 1 {
					found = c
					return true
				}
				if hit := findChain(c, chain[1:]); hit != nil {
					found = hit
					return true
				}
			}
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)
	return found
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
