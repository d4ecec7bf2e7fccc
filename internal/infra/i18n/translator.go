package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var LocalesFS embed.FS

// DefaultLang is used when a request names no supported language.
const DefaultLang = "zh"

// Translator holds one language's messages keyed by error name.
type Translator struct {
	lang         string
	translations map[string]string
}

func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := path.Join("locales", fmt.Sprintf("%s.yaml", langCode))
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
	}
	return newTranslatorFromBytes(langCode, data)
}

func newTranslatorFromBytes(langCode string, data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	return &Translator{lang: langCode, translations: translations}, nil
}

// T returns the message for key, or key itself when it is missing.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

func (t *Translator) Lang() string { return t.lang }

// Bundle selects a Translator from an Accept-Language header.
type Bundle struct {
	def    *Translator
	byLang map[string]*Translator
}

// LoadBundle loads def plus every other listed language from fsys.
func LoadBundle(fsys fs.FS, def string, langs ...string) (*Bundle, error) {
	b := &Bundle{byLang: map[string]*Translator{}}
	for _, l := range append([]string{def}, langs...) {
		if _, ok := b.byLang[l]; ok {
			continue
		}
		t, err := NewTranslator(fsys, l)
		if err != nil {
			return nil, err
		}
		b.byLang[l] = t
	}
	b.def = b.byLang[def]
	return b, nil
}

// Pick walks the header in order and ignores q-values; clients list their
// preferred language first.
func (b *Bundle) Pick(acceptLanguage string) *Translator {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		primary := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if t, ok := b.byLang[primary]; ok {
			return t
		}
	}
	return b.def
}
