package analysis

import "strings"

// NormalizeCategory maps free-form category text onto an EventCategory.
// The boolean is false when the text is non-empty but unrecognized; callers
// that tolerate noise use the returned default, validators reject it.
func NormalizeCategory(s string) (EventCategory, bool) {
	switch canonical(s) {
	case "", "useraction", "action", "interaction", "click", "tap":
		return CategoryUserAction, true
	case "screenview", "view", "pageview", "screen", "page":
		return CategoryScreenView, true
	case "systemevent", "system", "lifecycle", "background":
		return CategorySystemEvent, true
	}
	return CategoryUserAction, false
}

var typeAliases = map[string]PropertyType{
	"string": TypeString, "str": TypeString, "text": TypeString,
	"number": TypeNumber, "int": TypeNumber, "integer": TypeNumber, "float": TypeNumber,
	"double": TypeNumber, "decimal": TypeNumber, "long": TypeNumber, "numeric": TypeNumber,
	"boolean": TypeBoolean, "bool": TypeBoolean, "flag": TypeBoolean,
	"object": TypeObject, "array": TypeObject, "map": TypeObject, "json": TypeObject,
	"list": TypeObject, "dict": TypeObject,
}

// NormalizeType maps type tokens and their common aliases onto PropertyType.
// Unknown tokens become string.
func NormalizeType(s string) PropertyType {
	if t, ok := typeAliases[canonical(s)]; ok {
		return t
	}
	return TypeString
}

// IsKnownType reports whether s is a recognized type token, aliases included.
func IsKnownType(s string) bool {
	_, ok := typeAliases[canonical(s)]
	return ok
}

// NormalizeSource maps source text onto PropertySource, defaulting to on-screen.
func NormalizeSource(s string) PropertySource {
	switch canonical(s) {
	case "carriedforward", "carried", "carry", "carryforward", "previousscreen":
		return SourceCarriedForward
	case "global", "session", "user":
		return SourceGlobal
	}
	return SourceOnScreen
}

// IsKnowledgeCategory reports whether c is one of the four knowledge categories.
func IsKnowledgeCategory(c KnowledgeCategory) bool {
	switch c {
	case KnowledgeUIPatterns, KnowledgeEventNaming, KnowledgePropertyTypes, KnowledgeBusinessLogic:
		return true
	}
	return false
}

// canonical lowercases s and drops separators so "on-screen", "On Screen"
// and "on_screen" compare equal.
func canonical(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r == '-' || r == '_' || r == ' ' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
