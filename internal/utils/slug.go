package utils

import (
	"regexp"
	"strings"
)

var (
	slugSpaces = regexp.MustCompile(`\s+`)
	slugStrip  = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// Slugify выводит slug из заголовка: нижний регистр, пробелы в дефисы,
// всё вне [a-z0-9_-] отбрасывается. Алгоритм зафиксирован уже сохранёнными
// слогами — менять его нельзя, иначе старые ссылки перестанут резолвиться.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugSpaces.ReplaceAllString(s, "-")
	return slugStrip.ReplaceAllString(s, "")
}
