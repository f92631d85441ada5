package m2c2

import "regexp"

// I18nData is the translation table recorded in I18nDataReady events.
// Translation maps a locale to its key/value strings.
type I18nData struct {
	Locale         string                       `json:"locale" mapstructure:"locale" yaml:"locale"`
	FallbackLocale string                       `json:"fallbackLocale,omitempty" mapstructure:"fallbackLocale" yaml:"fallbackLocale"`
	Translation    map[string]map[string]string `json:"translation" mapstructure:"translation" yaml:"translation"`
}

// I18n translates text keys for the current locale.
type I18n struct {
	data I18nData
}

// NewI18n returns a translator over data.
func NewI18n(data I18nData) *I18n {
	return &I18n{data: data}
}

// Data returns the translation table.
func (i *I18n) Data() I18nData { return i.data }

// Locale returns the current locale.
func (i *I18n) Locale() string { return i.data.Locale }

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

// T returns the translation of key in the current locale, falling back to
// the fallback locale and then to key itself. {{name}} placeholders are
// replaced from interpolation; unknown placeholders are left as is.
func (i *I18n) T(key string, interpolation map[string]string) string {
	s, ok := i.lookup(i.data.Locale, key)
	if !ok {
		s, ok = i.lookup(i.data.FallbackLocale, key)
	}
	if !ok {
		s = key
	}
	return Interpolate(s, interpolation)
}

// Has reports whether key has a translation in the current or fallback
// locale.
func (i *I18n) Has(key string) bool {
	if _, ok := i.lookup(i.data.Locale, key); ok {
		return true
	}
	_, ok := i.lookup(i.data.FallbackLocale, key)
	return ok
}

func (i *I18n) lookup(locale, key string) (string, bool) {
	if locale == "" {
		return "", false
	}
	s, ok := i.data.Translation[locale][key]
	return s, ok
}

// Interpolate replaces {{name}} placeholders in s with values.
func Interpolate(s string, values map[string]string) string {
	if len(values) == 0 {
		return s
	}
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := values[name]; ok {
			return v
		}
		return m
	})
}
