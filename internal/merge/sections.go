package merge

// RecognizedSections are the top-level sections every canonical document carries.
var RecognizedSections = []string{
	"contact",
	"education",
	"research",
	"skills",
	"honors",
	"projects",
	"coursework",
}

// EmptySection returns the placeholder for a recognized section with no content.
func EmptySection(name string) any {
	if name == "contact" {
		return map[string]any{}
	}
	return []any{}
}

// EnsureSections adds an empty placeholder for every recognized section missing
// from doc (or present as null). It returns the names it added.
func EnsureSections(doc map[string]any) []string {
	var added []string
	for _, name := range RecognizedSections {
		if v, ok := doc[name]; ok && v != nil {
			continue
		}
		doc[name] = EmptySection(name)
		added = append(added, name)
	}
	return added
}

// IsRecognized reports whether name is one of RecognizedSections.
func IsRecognized(name string) bool {
	for _, s := range RecognizedSections {
		if s == name {
			return true
		}
	}
	return false
}
