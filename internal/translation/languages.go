package translation

import (
	_ "embed"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"gopkg.in/yaml.v3"
)

//go:embed languages.yaml
var languagesYAML []byte

var (
	catalogOnce   sync.Once
	catalogList   []Language
	catalogByCode map[string]Language
)

func loadCatalog() {
	catalogOnce.Do(func() {
		if err := yaml.Unmarshal(languagesYAML, &catalogList); err != nil {
			// The catalog ships with the binary; a parse failure is a build
			// defect, not a runtime condition.
			panic("translation: embedded language catalog is invalid: " + err.Error())
		}
		catalogByCode = make(map[string]Language, len(catalogList))
		for _, l := range catalogList {
			catalogByCode[l.Code] = l
		}
	})
}

// Catalog returns the embedded supported-language list.
func Catalog() []Language {
	loadCatalog()
	out := make([]Language, len(catalogList))
	copy(out, catalogList)
	return out
}

// NativeName resolves a language code to its self-name, preferring the
// embedded catalog and falling back to CLDR display names.
func NativeName(code string) string {
	loadCatalog()
	if l, ok := catalogByCode[code]; ok {
		return l.NativeName
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return code
}
