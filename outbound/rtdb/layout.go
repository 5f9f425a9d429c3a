package rtdb

import "strings"

// DefaultLayout lists the document roots of the booth database. Every path
// matching one is stored under its own Redis key, so a write only conflicts
// with writers of the same document. A "*" segment matches any key.
var DefaultLayout = []string{
	"booths/*/slots",
	"booths/*/queue/current_call",
	"booths/*/queue/last_number",
	"booths/*/queue/waiting_list/*",
	"reservations/*",
}

const wildcard = "*"

type layout [][]string

func parseLayout(patterns []string) layout {
	l := make(layout, 0, len(patterns))
	for _, p := range patterns {
		if segs := strings.FieldsFunc(p, func(r rune) bool { return r == '/' }); len(segs) > 0 {
			l = append(l, segs)
		}
	}
	return l
}

// matches reports whether the leading segments of pattern match segs.
func matches(pattern, segs []string) bool {
	if len(pattern) < len(segs) {
		return false
	}
	for i, seg := range segs {
		if pattern[i] != wildcard && pattern[i] != seg {
			return false
		}
	}
	return true
}

// docRoot returns the length of the document root that contains segs.
func (l layout) docRoot(segs []string) (int, bool) {
	for _, p := range l {
		if len(p) <= len(segs) && matches(p, segs[:len(p)]) {
			return len(p), true
		}
	}
	return 0, false
}

// inner reports whether segs lies strictly above some document root. Inner
// nodes are assembled from the documents below them.
func (l layout) inner(segs []string) bool {
	for _, p := range l {
		if len(p) > len(segs) && matches(p, segs) {
			return true
		}
	}
	return false
}

// children lists the fixed child keys of an inner node. wild is set when the
// node also takes arbitrary keys, which are tracked in an index set.
func (l layout) children(segs []string) (named []string, wild bool) {
	seen := make(map[string]bool)
	for _, p := range l {
		if len(p) <= len(segs) || !matches(p, segs) {
			continue
		}

		child := p[len(segs)]
		if child == wildcard {
			wild = true
			continue
		}
		if !seen[child] {
			seen[child] = true
			named = append(named, child)
		}
	}
	return named, wild
}

func (l layout) wildChild(parent []string, name string) bool {
	named, wild := l.children(parent)
	if !wild {
		return false
	}
	for _, n := range named {
		if n == name {
			return false
		}
	}
	return true
}

// location is where a path is stored: a document key and the path inside it.
type location struct {
	key  string
	root []string
	sub  []string
	doc  bool
}

// locate finds the document holding segs. It returns false for inner nodes.
// Values below an inner node that no document root covers are kept in the
// node's own fields document.
func (c *Client) locate(segs []string) (location, bool) {
	if n, ok := c.layout.docRoot(segs); ok {
		return location{key: c.docKey(segs[:n]), root: segs[:n], sub: segs[n:], doc: true}, true
	}

	for a := len(segs); a > 0; a-- {
		if !c.layout.inner(segs[:a]) {
			continue
		}
		if a == len(segs) {
			return location{}, false
		}
		return location{key: c.fieldsKey(segs[:a]), root: segs[:a], sub: segs[a:]}, true
	}

	return location{key: c.docKey(segs[:1]), root: segs[:1], sub: segs[1:], doc: true}, true
}

func (c *Client) docKey(segs []string) string {
	return c.prefix + ":doc:" + strings.Join(segs, "/")
}

func (c *Client) fieldsKey(segs []string) string {
	return c.prefix + ":fields:" + strings.Join(segs, "/")
}

func (c *Client) indexKey(segs []string) string {
	return c.prefix + ":index:" + strings.Join(segs, "/")
}

func (c *Client) channel(root string) string {
	return c.prefix + ":changes:" + root
}
