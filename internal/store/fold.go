package store

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold normaliza texto para búsqueda: sin tildes, sin mayúsculas y con
// espacios colapsados. "Gómez" y "GOMEZ" producen la misma clave.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), cases.Fold(), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(out), " ")
}

func searchKey(parts ...string) string {
	return Fold(strings.Join(parts, " "))
}

// likePattern escapa comodines de LIKE en q; va con ESCAPE '!'.
func likePattern(q string) string {
	r := strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)
	return "%" + r.Replace(Fold(q)) + "%"
}
