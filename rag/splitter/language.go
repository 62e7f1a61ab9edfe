package splitter

import "fmt"

// Language selects source code aware separators.
type Language string

const (
	Go       Language = "go"
	Markdown Language = "markdown"
	Python   Language = "python"
)

var languageSeparators = map[Language][]string{
	Go: {
		"\nfunc ", "\nvar ", "\nconst ", "\ntype ",
		"\nif ", "\nfor ", "\nswitch ", "\ncase ",
		"\n\n", "\n", " ", "",
	},
	Markdown: {
		"\n# ", "\n## ", "\n### ", "\n#### ", "```\n", "\n\n", "\n", " ", "",
	},
	Python: {
		"\nclass ", "\ndef ", "\n\tdef ", "\n\n", "\n", " ", "",
	},
}

// Separators returns the separators used for lang.
func Separators(lang Language) ([]string, error) {
	seps, ok := languageSeparators[lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language %q", lang)
	}
	return append([]string(nil), seps...), nil
}

// NewLanguage returns a recursive splitter tuned for lang. Options are
// applied after the language separators.
func NewLanguage(lang Language, opts ...Option) (*RecursiveCharacter, error) {
	seps, err := Separators(lang)
	if err != nil {
		return nil, err
	}
	return NewRecursiveCharacter(append([]Option{WithSeparators(seps...)}, opts...)...), nil
}
