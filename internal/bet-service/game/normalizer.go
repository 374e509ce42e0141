package game

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// nomes alternativos aceitos além dos ids canônicos
var aliases = map[string]string{
	"milionaria": "maismilionaria",
	"mega":       "megasena",
}

// Key reduz o nome a minúsculas ASCII sem acentos, só letras e dígitos
func Key(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, name)
	if err != nil {
		s = name
	}
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Canonical resolve o nome para um id conhecido; false quando não reconhece
func Canonical(name string) (string, bool) {
	k := Key(name)
	if _, ok := rules[k]; ok {
		return k, true
	}
	if id, ok := aliases[k]; ok {
		return id, true
	}
	return "", false
}

// Normalize é como Canonical, mas nomes desconhecidos viram "megasena"
func Normalize(name string) string {
	if id, ok := Canonical(name); ok {
		return id
	}
	return Fallback
}
