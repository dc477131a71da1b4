package domain

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"Pranavi Bakery":                       "pranavi-bakery",
		"  Café  Ümlaut & Co ":                 "cafe-umlaut-and-co",
		"!!!":                                  "site",
		"":                                     "site",
		"A very long business name indeed ltd": "a-very-long-business",
		"abcdefghijklmnopqrs-tuv":              "abcdefghijklmnopqrs",
	}
	for in, want := range tests {
		assert.Equal(t, want, BaseName(in), in)
	}
}

func TestComposeName(t *testing.T) {
	at := time.Date(2026, 3, 15, 9, 7, 0, 0, time.UTC)
	fixed := func(n int) string { return strings.Repeat("z", n) }

	assert.Equal(t, "pranavi-bakery-03150907-zzzz", ComposeName("pranavi-bakery", at, 0, fixed))
	assert.Equal(t, "pranavi-bakery-03150907-zzzzzz", ComposeName("pranavi-bakery", at, 1, fixed))

	name := ComposeName("pranavi-bakery", at, 0, RandomSuffix)
	assert.Regexp(t, regexp.MustCompile(`^pranavi-bakery-\d{8}-[a-z0-9]{4}$`), name)
	assert.True(t, ValidSiteName(name))
}

func TestSanitizeNameIsIdempotentAndValid(t *testing.T) {
	inputs := []string{
		"Hello World",
		"--leading--and--trailing--",
		"UPPER_case.dots/slashes",
		strings.Repeat("ab-", 40),
		"ümlaut",
		"a",
		"-",
		"x--y",
		strings.Repeat("a", 62) + "-b",
	}
	for _, in := range inputs {
		once := SanitizeName(in)
		assert.Equal(t, once, SanitizeName(once), in)
		assert.True(t, ValidSiteName(once), "%q -> %q", in, once)
		assert.LessOrEqual(t, len(once), MaxSiteNameLen)
	}
}

func TestRandomSuffix(t *testing.T) {
	s := RandomSuffix(6)
	assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]{6}$`), s)
}
