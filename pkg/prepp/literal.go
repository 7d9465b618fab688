package prepp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// parseLiteral parses a #for payload into a value: lists [...], mappings
// {...}, single- or double-quoted strings, integers, floats and the names
// true/false/none (capitalized spellings accepted). Nesting is allowed.
func parseLiteral(s string) (interface{}, error) {
	p := &literalParser{src: s}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("unexpected trailing text at offset %d", p.pos)
	}
	return v, nil
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *literalParser) peek() (byte, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *literalParser) value() (interface{}, error) {
	p.skipSpace()
	c, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of literal")
	}
	switch {
	case c == '[':
		return p.list()
	case c == '{':
		return p.dict()
	case c == '"' || c == '\'':
		return p.quoted()
	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		return p.name()
	}
}

func (p *literalParser) list() (interface{}, error) {
	p.pos++ // consume '['
	items := []interface{}{}
	p.skipSpace()
	if c, ok := p.peek(); ok && c == ']' {
		p.pos++
		return items, nil
	}
	for {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated list")
		}
		p.pos++
		if c == ']' {
			return items, nil
		}
		if c != ',' {
			return nil, fmt.Errorf("expected ',' or ']' at offset %d", p.pos-1)
		}
	}
}

func (p *literalParser) dict() (interface{}, error) {
	p.pos++ // consume '{'
	out := map[string]interface{}{}
	p.skipSpace()
	if c, ok := p.peek(); ok && c == '}' {
		p.pos++
		return out, nil
	}
	for {
		p.skipSpace()
		c, ok := p.peek()
		if !ok || (c != '"' && c != '\'') {
			return nil, fmt.Errorf("mapping keys must be quoted strings at offset %d", p.pos)
		}
		key, err := p.quoted()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if c, ok := p.peek(); !ok || c != ':' {
			return nil, fmt.Errorf("expected ':' at offset %d", p.pos)
		}
		p.pos++
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out[key.(string)] = v
		p.skipSpace()
		c, ok = p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated mapping")
		}
		p.pos++
		if c == '}' {
			return out, nil
		}
		if c != ',' {
			return nil, fmt.Errorf("expected ',' or '}' at offset %d", p.pos-1)
		}
	}
}

func (p *literalParser) quoted() (interface{}, error) {
	quote := p.src[p.pos]
	p.pos++
	var out strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case quote:
			p.pos++
			return out.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return nil, fmt.Errorf("dangling escape in string literal")
			}
			switch p.src[p.pos] {
			case 'n':
				out.WriteByte('\n')
			case 't':
				out.WriteByte('\t')
			case '\\', '\'', '"':
				out.WriteByte(p.src[p.pos])
			default:
				out.WriteByte('\\')
				out.WriteByte(p.src[p.pos])
			}
			p.pos++
		default:
			out.WriteByte(c)
			p.pos++
		}
	}
	return nil, fmt.Errorf("unterminated string literal")
}

func (p *literalParser) number() (interface{}, error) {
	start := p.pos
	if c, _ := p.peek(); c == '-' || c == '+' {
		p.pos++
	}
	isFloat := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
		} else if c == '.' || c == 'e' || c == 'E' {
			isFloat = true
			p.pos++
		} else if isFloat && (c == '-' || c == '+') && (p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E') {
			p.pos++
		} else {
			break
		}
	}
	text := p.src[start:p.pos]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", text)
		}
		return f, nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return nil, fmt.Errorf("bad number %q", text)
	}
	return n, nil
}

func (p *literalParser) name() (interface{}, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' {
			p.pos++
		} else {
			break
		}
	}
	switch p.src[start:p.pos] {
	case "true", "True":
		return true, nil
	case "false", "False":
		return false, nil
	case "none", "None", "null":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown literal name %q", p.src[start:p.pos])
}

// toIterable converts a resolved #for value into the element sequence to
// iterate. A mapping iterates its keys in sorted order so iteration is
// deterministic.
func toIterable(value interface{}) ([]interface{}, error) {
	switch v := value.(type) {
	case []interface{}:
		return v, nil
	case map[string]interface{}:
		keys := sortedKeys(v)
		items := make([]interface{}, len(keys))
		for i, k := range keys {
			items[i] = k
		}
		return items, nil
	default:
		return nil, fmt.Errorf("%T is not iterable", value)
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
