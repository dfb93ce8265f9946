// Package period resolves which reporting month a block of data belongs to
// from the names it arrived with.
package period

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ============================================================================
// PERIOD RESOLVER: Filename / sheet-name month inference
// ============================================================================
// Priority (first usable match wins):
//   1. "<digits>월" in the sheet name
//   2. "<digits>월" in the file name
//   3. first bare digit run in the sheet name
//   4. caller-supplied ordinal
//
// A token is usable only when it is a month (1..12), so a year such as
// "2025" in "2025년_3월_회원수.xlsx" never becomes the period.
// Resolution never fails.
// ============================================================================

// Marker is the glyph that follows a month number in names.
const Marker = "월"

// Valid period bounds.
const (
	First = 1
	Last  = 12
)

// Source names the rule that produced a period.
type Source string

const (
	SheetMarker Source = "sheet_marker"
	FileMarker  Source = "file_marker"
	SheetDigits Source = "sheet_digits"
	Ordinal     Source = "ordinal"
)

// Resolution is the resolved period and how it was found.
type Resolution struct {
	Period int    `json:"period"`
	Source Source `json:"source"`
}

var (
	markedRe = regexp.MustCompile(`(\d+)` + Marker)
	digitsRe = regexp.MustCompile(`\d+`)
)

// Resolve picks the period for a sheet of a file. filename may be a path;
// only its base name without extension is searched. sheet may be empty.
// ordinal is returned as-is when nothing else matches.
func Resolve(filename, sheet string, ordinal int) Resolution {
	if p, ok := marked(sheet); ok {
		return Resolution{Period: p, Source: SheetMarker}
	}
	if p, ok := marked(stem(filename)); ok {
		return Resolution{Period: p, Source: FileMarker}
	}
	if p, ok := firstDigits(sheet); ok {
		return Resolution{Period: p, Source: SheetDigits}
	}
	return Resolution{Period: ordinal, Source: Ordinal}
}

// Valid reports whether p is a month number.
func Valid(p int) bool { return p >= First && p <= Last }

// marked returns the first "<digits>월" token that is a valid month.
func marked(name string) (int, bool) {
	for _, m := range markedRe.FindAllStringSubmatch(name, -1) {
		if p, ok := month(m[1]); ok {
			return p, true
		}
	}
	return 0, false
}

// firstDigits returns the first bare digit run when it is a valid month.
func firstDigits(name string) (int, bool) {
	tok := digitsRe.FindString(name)
	if tok == "" {
		return 0, false
	}
	return month(tok)
}

func month(tok string) (int, bool) {
	n, err := strconv.Atoi(tok)
	if err != nil || !Valid(n) {
		return 0, false
	}
	return n, true
}

func stem(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
