package policy

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Package policy holds the closed, name-keyed tables of password and email
// acceptance rules. A policy is a predicate selected by name at call time;
// unknown names are rejected rather than silently falling back.
//
// Go's regexp engine (RE2) has no lookahead, so compound password rules are
// predicate functions over simple character-class checks instead of a single
// pattern per policy.

const (
	DefaultPasswordPolicy = "lowerUpperDigitSpecial"
	DefaultEmailPolicy    = "rfcLike"
)

const specialChars = "@$!%*?&#"

type predicate func(string) bool

var passwordPolicies = map[string]predicate{
	"minLength8": func(s string) bool { return len(s) >= 8 },
	"lowerUpperDigit": func(s string) bool {
		return len(s) >= 8 && hasLower(s) && hasUpper(s) && hasDigit(s)
	},
	"lowerUpperDigitSpecial": func(s string) bool {
		return len(s) >= 8 && hasLower(s) && hasUpper(s) && hasDigit(s) &&
			strings.ContainsAny(s, specialChars)
	},
	"strictAlphanumeric": func(s string) bool {
		if len(s) < 8 || len(s) > 16 || !alphanumeric.MatchString(s) {
			return false
		}
		return hasLetter(s) && hasDigit(s)
	},
	"strongNoWhitespace": func(s string) bool {
		return len(s) >= 12 && hasLower(s) && hasUpper(s) && hasDigit(s) &&
			hasSymbol(s) && !strings.ContainsFunc(s, unicode.IsSpace)
	},
	"noTripleRepeat": func(s string) bool {
		return len(s) >= 8 && !hasTripleRepeat(s)
	},
}

var emailPolicies = map[string]*regexp.Regexp{
	"basic":           regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`),
	"rfcLike":         regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`),
	"specificTLD":     regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.(com|net|org|edu)$`),
	"specificDomains": regexp.MustCompile(`^[A-Za-z0-9._%+-]+@(gmail\.com|yahoo\.com|outlook\.com)$`),
	"subdomains":      regexp.MustCompile(`^[A-Za-z0-9._%+-]+@(\w+(-\w+)*\.)+(com|io|co\.uk)$`),
	// rfcLike plus a local part that is not purely numeric; the digits-only
	// check lives in ValidateEmail since RE2 cannot express the negation.
	"noNumericOnlyLocal": regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`),
}

var (
	alphanumeric = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	digitsOnly   = regexp.MustCompile(`^[0-9]+$`)
)

// ValidatePassword reports whether password satisfies the named policy.
func ValidatePassword(password, name string) (bool, error) {
	p, ok := passwordPolicies[name]
	if !ok {
		return false, fmt.Errorf("unknown password policy %q", name)
	}
	return p(password), nil
}

// ValidateEmail reports whether email satisfies the named policy.
func ValidateEmail(email, name string) (bool, error) {
	re, ok := emailPolicies[name]
	if !ok {
		return false, fmt.Errorf("unknown email policy %q", name)
	}
	if !re.MatchString(email) {
		return false, nil
	}
	if name == "noNumericOnlyLocal" {
		local, _, _ := strings.Cut(email, "@")
		if digitsOnly.MatchString(local) {
			return false, nil
		}
	}
	return true, nil
}

// ValidateNewAccount checks email and password against the named policies,
// returning one message per violated policy. Empty names select the defaults.
func ValidateNewAccount(email, password, emailPolicy, passwordPolicy string) (bool, []string) {
	if emailPolicy == "" {
		emailPolicy = DefaultEmailPolicy
	}
	if passwordPolicy == "" {
		passwordPolicy = DefaultPasswordPolicy
	}
	var errs []string
	if ok, err := ValidateEmail(email, emailPolicy); err != nil {
		errs = append(errs, err.Error())
	} else if !ok {
		errs = append(errs, fmt.Sprintf("email does not match policy: %s", emailPolicy))
	}
	if ok, err := ValidatePassword(password, passwordPolicy); err != nil {
		errs = append(errs, err.Error())
	} else if !ok {
		errs = append(errs, fmt.Sprintf("password does not match policy: %s", passwordPolicy))
	}
	return len(errs) == 0, errs
}

func hasLower(s string) bool { return strings.ContainsFunc(s, unicode.IsLower) }
func hasUpper(s string) bool { return strings.ContainsFunc(s, unicode.IsUpper) }
func hasDigit(s string) bool { return strings.ContainsFunc(s, unicode.IsDigit) }
func hasLetter(s string) bool {
	return strings.ContainsFunc(s, unicode.IsLetter)
}

// hasSymbol matches the reference's \W class: anything outside [A-Za-z0-9_].
func hasSymbol(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

func hasTripleRepeat(s string) bool {
	runes := []rune(s)
	for i := 2; i < len(runes); i++ {
		if runes[i] == runes[i-1] && runes[i] == runes[i-2] {
			return true
		}
	}
	return false
}
