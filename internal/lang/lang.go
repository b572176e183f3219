// Package lang resolves the content language of a request. Content exists in
// Russian (the default), Kazakh and English.
package lang

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type Code string

const (
	Russian Code = "ru"
	Kazakh  Code = "kz"
	English Code = "en"
)

func (c Code) Valid() bool {
	switch c {
	case Russian, Kazakh, English:
		return true
	}
	return false
}

// Parse normalizes s to a Code. The ISO code for Kazakh ("kk") is accepted
// as an alias for the site's "kz".
func Parse(s string) (Code, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(s, "-_"); i > 0 {
		s = s[:i]
	}
	switch s {
	case "ru":
		return Russian, true
	case "kz", "kk":
		return Kazakh, true
	case "en":
		return English, true
	}
	return "", false
}

// FromRequest picks the language from ?lang=, then Accept-Language, then def.
func FromRequest(r *http.Request, def Code) Code {
	if c, ok := Parse(r.URL.Query().Get("lang")); ok {
		return c
	}
	if c, ok := FromAcceptLanguage(r.Header.Get("Accept-Language")); ok {
		return c
	}
	if def.Valid() {
		return def
	}
	return Russian
}

// FromAcceptLanguage returns the highest weighted supported language.
func FromAcceptLanguage(h string) (Code, bool) {
	if strings.TrimSpace(h) == "" {
		return "", false
	}
	tags, _, err := language.ParseAcceptLanguage(h)
	if err == nil {
		for _, t := range tags {
			base, _ := t.Base()
			if c, ok := Parse(base.String()); ok {
				return c, true
			}
		}
		return "", false
	}
	// x/text rejects "kz" as an unknown subtag, so fall back to the raw list.
	for _, part := range strings.Split(h, ",") {
		tag, _, _ := strings.Cut(part, ";")
		if c, ok := Parse(tag); ok {
			return c, true
		}
	}
	return "", false
}

// Pick returns the variant for l, falling back to the Russian text.
func Pick(l Code, ru, kz, en string) string {
	switch l {
	case Kazakh:
		if kz != "" {
			return kz
		}
	case English:
		if en != "" {
			return en
		}
	}
	return ru
}
