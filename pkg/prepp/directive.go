package prepp

import (
	"regexp"
	"strconv"
)

// DirectiveKind identifies the kind of a matched directive line.
type DirectiveKind int

const (
	DirectiveInclude DirectiveKind = iota
	DirectiveInside
	DirectiveDefine
	DirectiveLocal
	DirectiveIf
	DirectiveIfNot
	DirectiveIfDef
	DirectiveIfNotDef
	DirectiveElif
	DirectiveElifNot
	DirectiveElifDef
	DirectiveElifNotDef
	DirectiveElse
	DirectiveEnd
	DirectiveFor
	DirectiveRedispatch // "##text": interpolate and re-dispatch the result
	DirectiveComment    // "# text": literal comment, still interpolated
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveInclude:
		return "include"
	case DirectiveInside:
		return "inside"
	case DirectiveDefine:
		return "define"
	case DirectiveLocal:
		return "local"
	case DirectiveIf:
		return "if"
	case DirectiveIfNot:
		return "ifn"
	case DirectiveIfDef:
		return "ifdef"
	case DirectiveIfNotDef:
		return "ifndef"
	case DirectiveElif:
		return "elif"
	case DirectiveElifNot:
		return "elifn"
	case DirectiveElifDef:
		return "elifdef"
	case DirectiveElifNotDef:
		return "elifndef"
	case DirectiveElse:
		return "else"
	case DirectiveEnd:
		return "end"
	case DirectiveFor:
		return "for"
	case DirectiveRedispatch:
		return "##"
	case DirectiveComment:
		return "#"
	default:
		return "unknown"
	}
}

// isConditionalStart reports whether the kind opens an if-family block.
func (k DirectiveKind) isConditionalStart() bool {
	switch k {
	case DirectiveIf, DirectiveIfNot, DirectiveIfDef, DirectiveIfNotDef:
		return true
	}
	return false
}

// isElif reports whether the kind is an elif-family branch.
func (k DirectiveKind) isElif() bool {
	switch k {
	case DirectiveElif, DirectiveElifNot, DirectiveElifDef, DirectiveElifNotDef:
		return true
	}
	return false
}

// negated reports whether the conditional inverts its truth test.
func (k DirectiveKind) negated() bool {
	switch k {
	case DirectiveIfNot, DirectiveIfNotDef, DirectiveElifNot, DirectiveElifNotDef:
		return true
	}
	return false
}

// definedTest reports whether the conditional tests presence rather than
// truthiness of the named variable.
func (k DirectiveKind) definedTest() bool {
	switch k {
	case DirectiveIfDef, DirectiveIfNotDef, DirectiveElifDef, DirectiveElifNotDef:
		return true
	}
	return false
}

// Match is the result of classifying a single stripped input line.
// A nil *Match means plain text. Malformed matches carry only Consumed, the
// length of the longest directive-looking prefix, for error column reporting.
type Match struct {
	Kind     DirectiveKind
	Indent   string
	Name     string
	HasName  bool
	Value    string
	HasValue bool
	Level    int
	HasLevel bool

	Malformed bool
	Consumed  int
}

// The well-formed patterns are tried first, in order; the malformed patterns
// only run if none of them matched and the line still starts with the sigil.
// The ordering is load-bearing: it decides the reported malformed column.
var directivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?P<indent>[\t ]*)#(?P<directive>include|inside)(?:\s+(?P<name>".*"))?\s*$`),
	regexp.MustCompile(`^(?P<indent>[\t ]*)#(?P<directive>define|local)\s+(?:(?P<level>\d+)\s+)?(?P<name>\w+)\s+(?P<value>".*")?\s*$`),
	regexp.MustCompile(`^(?P<indent>[\t ]*)#(?P<directive>(?:el)?ifn?(?:def)?)(?:\s+(?P<name>\w+))?\s*$`),
	regexp.MustCompile(`^(?P<indent>[\t ]*)#(?P<directive>#)(?P<value>.*)$`),
	regexp.MustCompile(`^(?P<indent>[\t ]*)#(?P<directive>for)\s+(?:(?P<name>\w+)\s+)?(?P<value>".*"|\w+)\s*$`),
	regexp.MustCompile(`^(?P<indent>[\t ]*)#(?P<directive>end|else)\s*$`),
	regexp.MustCompile(`^(?P<indent>[\t ]*)#(?P<directive>[\t ])(?P<value>.*)$`),
}

var malformedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[\t ]*#(?:include|inside)(?:\s+".*"?)?[\t ]*`),
	regexp.MustCompile(`^[\t ]*#(?:define|local)(?:\s+(?:\d+\s+)?(?:\w+\s+(?:".*")?)?)?[\t ]*`),
	regexp.MustCompile(`^[\t ]*#(?:el)?ifn?(?:def)?(?:\s+\w+)?[\t ]*`),
	regexp.MustCompile(`^[\t ]*#for(?:\s+(?:\w+\s+)?(?:".*"|\w+))?[\t ]*`),
	regexp.MustCompile(`^[\t ]*#(?:end|else)[\t ]*`),
	regexp.MustCompile(`^[\t ]*#`),
}

var directiveKinds = map[string]DirectiveKind{
	"include":  DirectiveInclude,
	"inside":   DirectiveInside,
	"define":   DirectiveDefine,
	"local":    DirectiveLocal,
	"if":       DirectiveIf,
	"ifn":      DirectiveIfNot,
	"ifdef":    DirectiveIfDef,
	"ifndef":   DirectiveIfNotDef,
	"elif":     DirectiveElif,
	"elifn":    DirectiveElifNot,
	"elifdef":  DirectiveElifDef,
	"elifndef": DirectiveElifNotDef,
	"else":     DirectiveElse,
	"end":      DirectiveEnd,
	"for":      DirectiveFor,
	"#":        DirectiveRedispatch,
}

// MatchLine classifies a single stripped line. It returns nil for plain
// text, a Match with Malformed set for a directive-looking line that fits no
// well-formed pattern, and a fully populated Match otherwise.
func MatchLine(line string) *Match {
	for _, pattern := range directivePatterns {
		idx := pattern.FindStringSubmatchIndex(line)
		if idx == nil {
			continue
		}
		m := &Match{}
		for gi, name := range pattern.SubexpNames() {
			if gi == 0 || name == "" || idx[2*gi] < 0 {
				continue
			}
			text := line[idx[2*gi]:idx[2*gi+1]]
			switch name {
			case "indent":
				m.Indent = text
			case "directive":
				if kind, ok := directiveKinds[text]; ok {
					m.Kind = kind
				} else {
					// single whitespace char: literal comment
					m.Kind = DirectiveComment
				}
			case "name":
				m.Name = text
				m.HasName = true
			case "value":
				m.Value = text
				m.HasValue = true
			case "level":
				if level, err := strconv.Atoi(text); err == nil {
					m.Level = level
					m.HasLevel = true
				}
			}
		}
		return m
	}

	for _, pattern := range malformedPatterns {
		loc := pattern.FindStringIndex(line)
		if loc == nil {
			continue
		}
		return &Match{Malformed: true, Consumed: loc[1]}
	}

	return nil
}
