package hackerrank

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const maxAncestorLevels = 5

var translatePattern = regexp.MustCompile(`translate\(\s*([^,\s)]+)(?:[\s,]+([^,\s)]+))?\s*\)`)

type starSection struct {
	node   *html.Node
	stars  int
	label  string
	x, y   float64
	placed bool
}

type candidate struct {
	node  *html.Node
	text  string
	badge string
}

// badgeDocument is the parsed card for one extraction call.
type badgeDocument struct {
	sections   []starSection
	byNode     map[*html.Node]int
	boundary   map[*html.Node]bool
	totalStars int
}

// Extract runs the badge heuristic over fetched SVG markup. It returns nil when no
// recognized badge is present.
func Extract(r io.Reader) ([]Badge, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse badge markup: %w", err)
	}
	bd := newBadgeDocument(doc)

	var (
		candidates []candidate
		matched    int
	)
	doc.Find("text").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if utf8.RuneCountInString(text) <= 1 {
			return
		}
		lower := strings.ToLower(text)
		if !matchesKeyword(lower) {
			return
		}
		matched++
		name, ok := badgeName(text)
		if !ok {
			return
		}
		candidates = append(candidates, candidate{node: s.Get(0), text: lower, badge: name})
	})

	var badges []Badge
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		stars := bd.resolveStars(c, matched)
		key := strings.ToLower(c.badge)
		if seen[key] {
			continue
		}
		seen[key] = true
		badges = append(badges, Badge{Name: c.badge, Stars: stars})
	}
	return badges, nil
}

func newBadgeDocument(doc *goquery.Document) *badgeDocument {
	bd := &badgeDocument{
		byNode:     make(map[*html.Node]int),
		boundary:   make(map[*html.Node]bool),
		totalStars: doc.Find(".badge-star").Length(),
	}

	// The outermost svg element and everything above it span the whole card, so they
	// never associate a label with a star section.
	root := doc.Find("svg").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}
	for _, n := range root.Nodes {
		for ; n != nil; n = n.Parent {
			bd.boundary[n] = true
		}
	}

	doc.Find("g.star-section").Each(func(_ int, s *goquery.Selection) {
		sec := starSection{
			node:  s.Get(0),
			stars: s.Find(".badge-star").Length(),
			label: strings.ToLower(strings.TrimSpace(s.Find("text").First().Text())),
		}
		if m := translatePattern.FindStringSubmatch(s.AttrOr("transform", "")); m != nil {
			sec.x, sec.y = parseCoord(m[1]), parseCoord(m[2])
			sec.placed = true
		}
		bd.byNode[sec.node] = len(bd.sections)
		bd.sections = append(bd.sections, sec)
	})
	return bd
}

// resolveStars runs the association steps in order. matched is the number of texts that
// hit a keyword, allow-listed or not.
func (d *badgeDocument) resolveStars(c candidate, matched int) int {
	if stars, ok := d.exactStars(c.text); ok {
		return stars
	}
	if stars, ok := d.ancestorStars(c.node); ok {
		return stars
	}
	if stars, ok := d.siblingStars(c.node); ok {
		return stars
	}
	if stars, ok := d.nearestStars(c.node); ok {
		return stars
	}
	if len(d.sections) > 0 && matched > 0 {
		return d.totalStars / matched
	}
	return 0
}

func (d *badgeDocument) exactStars(text string) (int, bool) {
	for _, sec := range d.sections {
		if sec.label == text {
			return sec.stars, true
		}
	}
	return 0, false
}

// ancestorStars looks for a star section that is a direct child of one of the label's
// ancestors.
func (d *badgeDocument) ancestorStars(n *html.Node) (int, bool) {
	anc := n.Parent
	for level := 0; level < maxAncestorLevels && anc != nil && !d.boundary[anc]; level++ {
		for c := anc.FirstChild; c != nil; c = c.NextSibling {
			if i, ok := d.byNode[c]; ok {
				return d.sections[i].stars, true
			}
		}
		anc = anc.Parent
	}
	return 0, false
}

// siblingStars looks one level wider than ancestorStars: any star section below the
// ancestor's parent.
func (d *badgeDocument) siblingStars(n *html.Node) (int, bool) {
	anc := n.Parent
	for level := 0; level < maxAncestorLevels && anc != nil && !d.boundary[anc]; level++ {
		parent := anc.Parent
		if parent == nil || d.boundary[parent] {
			break
		}
		for _, sec := range d.sections {
			if contains(parent, sec.node) {
				return sec.stars, true
			}
		}
		anc = parent
	}
	return 0, false
}

func (d *badgeDocument) nearestStars(n *html.Node) (int, bool) {
	xs, hasX := attr(n, "x")
	ys, hasY := attr(n, "y")
	if !hasX && !hasY {
		return 0, false
	}
	x, y := parseCoord(xs), parseCoord(ys)

	best, bestDist := -1, math.Inf(1)
	for i, sec := range d.sections {
		if !sec.placed {
			continue
		}
		if dist := math.Hypot(sec.x-x, sec.y-y); dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 {
		return 0, false
	}
	return d.sections[best].stars, true
}

func contains(ancestor, n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// parseCoord reads an SVG coordinate. Anything unparsable counts as 0.
func parseCoord(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
