package openid

import (
	"net/url"
	"strings"
)

// Params is an insertion-ordered set of query parameters.
type Params struct {
	keys   []string
	values map[string]string
}

func NewParams(kv ...string) *Params {
	p := &Params{values: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		p.Set(kv[i], kv[i+1])
	}
	return p
}

// Set stores value under name. An existing name keeps its position.
func (p *Params) Set(name, value string) {
	if p.values == nil {
		p.values = map[string]string{}
	}
	if _, ok := p.values[name]; !ok {
		p.keys = append(p.keys, name)
	}
	p.values[name] = value
}

func (p *Params) Get(name string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p.values[name]
	return v, ok
}

func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Each visits parameters in insertion order.
func (p *Params) Each(fn func(name, value string)) {
	if p == nil {
		return
	}
	for _, k := range p.keys {
		fn(k, p.values[k])
	}
}

func (p *Params) Clone() *Params {
	c := NewParams()
	p.Each(c.Set)
	return c
}

// Encode renders "a=1&b=2" in insertion order.
func (p *Params) Encode() string {
	var b strings.Builder
	p.Each(func(name, value string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	})
	return b.String()
}
