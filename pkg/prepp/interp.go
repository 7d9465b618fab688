package prepp

import (
	"fmt"
	"strconv"
	"strings"
)

// interpolate expands percent-style named placeholders against a frame:
// %(name)s with optional flags (- + space 0 #), width and precision, and
// the verbs s d i f e g x X o c. %% emits a literal percent. A percent not
// introducing either form passes through verbatim, so lines without
// placeholders round-trip unchanged.
func interpolate(s string, frame Bindings) (string, error) {
	if !strings.ContainsRune(s, '%') {
		return s, nil
	}

	var out strings.Builder
	out.Grow(len(s))

	for i := 0; i < len(s); {
		c := s[i]
		if c != '%' {
			out.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(s) && s[i+1] == '%' {
			out.WriteByte('%')
			i += 2
			continue
		}
		if i+1 >= len(s) || s[i+1] != '(' {
			out.WriteByte('%')
			i++
			continue
		}

		closeParen := strings.IndexByte(s[i+2:], ')')
		if closeParen < 0 {
			out.WriteByte('%')
			i++
			continue
		}
		name := s[i+2 : i+2+closeParen]
		rest := s[i+2+closeParen+1:]

		spec, verb, consumed := parseFormatSpec(rest)
		if consumed == 0 {
			// No verb after the placeholder name; leave the text alone.
			out.WriteByte('%')
			i++
			continue
		}

		value, ok := frame[name]
		if !ok {
			return "", NewUndefinedVariableError(name)
		}

		formatted, err := formatPlaceholder(spec, verb, value)
		if err != nil {
			return "", err
		}
		out.WriteString(formatted)
		i = i + 2 + closeParen + 1 + consumed
	}

	return out.String(), nil
}

// parseFormatSpec reads flags, width, precision and the verb from the text
// following a %(name) placeholder. It returns the printf spec without the
// leading percent, the verb, and how many bytes were consumed; consumed is
// zero when no valid verb terminates the sequence.
func parseFormatSpec(s string) (spec string, verb byte, consumed int) {
	i := 0
	for i < len(s) && strings.IndexByte("-+ 0#", s[i]) >= 0 {
		i++
	}
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	if i >= len(s) || strings.IndexByte("sdifegxXoc", s[i]) < 0 {
		return "", 0, 0
	}
	return s[:i], s[i], i + 1
}

func formatPlaceholder(spec string, verb byte, value interface{}) (string, error) {
	switch verb {
	case 's':
		return fmt.Sprintf("%"+spec+"s", formatValue(value)), nil
	case 'd', 'i', 'x', 'X', 'o', 'c':
		n, err := toInt64(value)
		if err != nil {
			return "", err
		}
		goVerb := verb
		if verb == 'i' {
			goVerb = 'd'
		}
		return fmt.Sprintf("%"+spec+string(goVerb), n), nil
	case 'f', 'e', 'g':
		f, err := toFloat64(value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%"+spec+string(verb), f), nil
	}
	return "", fmt.Errorf("unsupported format verb %q", string(verb))
}

// formatValue renders a binding value for %s substitution and for plain
// output. Strings pass through; floats use the shortest 'g' form so
// generated text stays clean.
func formatValue(value interface{}) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', 15, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot format %q as an integer", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("cannot format %T as an integer", value)
	}
}

func toFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot format %q as a number", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot format %T as a number", value)
	}
}

// isTruthy follows the truth rules of the directive language: empty
// strings, zero numbers and empty collections are false, anything else
// non-nil is true.
func isTruthy(value interface{}) bool {
	if value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case uint64:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	case []interface{}:
		return len(v) > 0
	case map[string]interface{}:
		return len(v) > 0
	case Bindings:
		return len(v) > 0
	default:
		return true
	}
}
