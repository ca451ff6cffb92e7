package gen

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Params is submitted form data. Keys keep the order in which they were added.
type Params struct {
	keys   []string
	values map[string][]string
}

// NewParams creates an empty parameter set
func NewParams() *Params {
	return &Params{values: make(map[string][]string)}
}

// ParamsFromValues copies url.Values into a Params. url.Values carries no
// ordering, so keys are added sorted.
func ParamsFromValues(values url.Values) *Params {
	p := NewParams()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range values[k] {
			p.Add(k, v)
		}
	}
	return p
}

// ParamsFromMap builds a Params from single string values, sorted by key.
func ParamsFromMap(m map[string]string) *Params {
	values := make(url.Values, len(m))
	for k, v := range m {
		values.Set(k, v)
	}
	return ParamsFromValues(values)
}

// ParamsFromJSON flattens a decoded JSON object. Nested objects become
// "parent[child]" keys and arrays become repeated values. Null fields are
// dropped, so they read as absent.
func ParamsFromJSON(body map[string]any) *Params {
	p := NewParams()
	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p.addJSON(k, body[k])
	}
	return p
}

func (p *Params) addJSON(key string, value any) {
	switch v := value.(type) {
	case nil:
		// null is an absent field, not an empty one
		return
	case map[string]any:
		children := make([]string, 0, len(v))
		for k := range v {
			children = append(children, k)
		}
		sort.Strings(children)
		for _, child := range children {
			p.addJSON(key+"["+child+"]", v[child])
		}
	case []any:
		for _, item := range v {
			p.addJSON(key, item)
		}
	case bool:
		if v {
			p.Add(key, "1")
		} else {
			p.Add(key, "0")
		}
	case float64:
		p.Add(key, strconv.FormatFloat(v, 'f', -1, 64))
	default:
		p.Add(key, fmt.Sprint(v))
	}
}

// Add appends a value to key
func (p *Params) Add(key, value string) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = append(p.values[key], value)
}

// Set replaces all values of key
func (p *Params) Set(key, value string) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = []string{value}
}

// Has reports whether key was submitted at all, whatever its value.
func (p *Params) Has(key string) bool {
	if p == nil {
		return false
	}
	_, ok := p.values[key]
	return ok
}

// Get returns the first value of key
func (p *Params) Get(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	vs, ok := p.values[key]
	if !ok || len(vs) == 0 {
		return "", ok
	}
	return vs[0], true
}

func (p *Params) Keys() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.keys...)
}

func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Form returns the params in the shape gin's form binder expects.
func (p *Params) Form() map[string][]string {
	form := make(map[string][]string)
	if p == nil {
		return form
	}
	for k, vs := range p.values {
		form[k] = append([]string(nil), vs...)
	}
	return form
}

// Group collects "prefix[name]" keys into name → first value.
func (p *Params) Group(prefix string) map[string]string {
	group := make(map[string]string)
	if p == nil {
		return group
	}
	open := prefix + "["
	for _, k := range p.keys {
		if !strings.HasPrefix(k, open) || !strings.HasSuffix(k, "]") {
			continue
		}
		name := k[len(open) : len(k)-1]
		if name == "" {
			continue
		}
		v, _ := p.Get(k)
		group[name] = v
	}
	return group
}

// Answers maps a code file ID to whether the user selected it for writing.
type Answers map[string]bool

// ParseAnswers reads "answers[<fileID>]" entries. Entries with a falsy value
// are kept so that the set of submitted answers stays visible.
func ParseAnswers(p *Params) Answers {
	group := p.Group("answers")
	if len(group) == 0 {
		return nil
	}
	answers := make(Answers, len(group))
	for id, v := range group {
		answers[id] = truthy(v)
	}
	return answers
}

// Selected reports whether id was answered with a truthy value
func (a Answers) Selected(id string) bool {
	return a[id]
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "off":
		return false
	}
	return true
}
