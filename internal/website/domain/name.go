package domain

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

const (
	MaxSiteNameLen  = 63
	maxBaseLen      = 20
	suffixLen       = 4
	retrySuffixLen  = 6
	suffixAlphabet  = "abcdefghijklmnopqrstuvwxyz0123456789"
	defaultBaseName = "site"
)

var (
	disallowed   = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenRuns   = regexp.MustCompile(`-{2,}`)
	siteNameRule = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
)

// BaseName derives the readable prefix of a site name from the business name.
func BaseName(websiteName string) string {
	s := strings.ToLower(slug.Make(websiteName))
	s = disallowed.ReplaceAllString(s, "")
	s = hyphenRuns.ReplaceAllString(s, "-")
	if len(s) > maxBaseLen {
		s = s[:maxBaseLen]
	}
	s = strings.Trim(s, "-")
	if s == "" {
		return defaultBaseName
	}
	return s
}

// ComposeName builds {base}-{MMDDHHMM}-{suffix}. Attempt 0 uses a 4 character
// suffix; retries use 6.
func ComposeName(base string, at time.Time, attempt int, randomSuffix func(n int) string) string {
	n := suffixLen
	if attempt > 0 {
		n = retrySuffixLen
	}
	name := base + "-" + at.UTC().Format("01021504") + "-" + randomSuffix(n)
	return SanitizeName(name)
}

// SanitizeName forces s into a valid provider subdomain. It is idempotent.
func SanitizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = disallowed.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxSiteNameLen {
		s = strings.Trim(s[:MaxSiteNameLen], "-")
	}
	if s == "" {
		return defaultBaseName
	}
	return s
}

// ValidSiteName reports whether s is already a valid provider subdomain.
func ValidSiteName(s string) bool {
	return siteNameRule.MatchString(s) && !strings.Contains(s, "--")
}

// RandomSuffix returns n characters of [a-z0-9] from crypto/rand.
func RandomSuffix(n int) string {
	max := big.NewInt(int64(len(suffixAlphabet)))
	b := make([]byte, n)
	for i := range b {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = suffixAlphabet[v.Int64()]
	}
	return string(b)
}
