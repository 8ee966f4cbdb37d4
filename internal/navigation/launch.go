package navigation

import (
	"net/url"
	"strings"
)

// InitialPathParam carries the deep-linked route to the web application.
const InitialPathParam = "initialPath"

// IndexURL is the default launch URL on the local origin.
func (p *Policy) IndexURL() string {
	return "https://" + p.localHost + "/" + p.index
}

// LaunchURL maps an incoming deep link to the URL the browsing surface should
// load. Only https links carry a route; anything else opens the index.
func (p *Policy) LaunchURL(incoming string) string {
	if incoming == "" {
		return p.IndexURL()
	}
	u, err := url.Parse(incoming)
	if err != nil || u.Scheme != "https" {
		return p.IndexURL()
	}

	var route strings.Builder
	if path := u.EscapedPath(); path != "" {
		route.WriteString(path)
	} else {
		route.WriteByte('/')
	}
	if u.RawQuery != "" {
		route.WriteByte('?')
		route.WriteString(u.RawQuery)
	}
	if frag := u.EscapedFragment(); frag != "" {
		route.WriteByte('#')
		route.WriteString(frag)
	}

	return p.IndexURL() + "?" + InitialPathParam + "=" + EncodeComponent(route.String())
}

const upperhex = "0123456789ABCDEF"

// EncodeComponent percent-encodes every byte outside the unreserved set
// A-Z a-z 0-9 _ - ! . ~ ' ( ) *. Unlike url.QueryEscape it leaves ! ' ( ) *
// alone and never turns spaces into '+'.
func EncodeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '_', '-', '!', '.', '~', '\'', '(', ')', '*':
		return true
	}
	return false
}
