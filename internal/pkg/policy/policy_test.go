package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		name     string
		policy   string
		password string
		want     bool
	}{
		{"min length met", "minLength8", "abcdefgh", true},
		{"min length short", "minLength8", "abcdefg", false},

		{"lud all classes", "lowerUpperDigit", "Abcdefg1", true},
		{"lud missing upper", "lowerUpperDigit", "abcdefg1", false},
		{"lud missing digit", "lowerUpperDigit", "Abcdefgh", false},
		{"lud too short", "lowerUpperDigit", "Abc1", false},

		{"luds all classes", "lowerUpperDigitSpecial", "Str0ng!Pass", true},
		{"luds missing special", "lowerUpperDigitSpecial", "Str0ngPass", false},
		{"luds special outside set", "lowerUpperDigitSpecial", "Str0ngPass^", false},
		{"luds missing digit", "lowerUpperDigitSpecial", "Strong!Pass", false},

		{"strict in bounds", "strictAlphanumeric", "abc12345", true},
		{"strict upper bound", "strictAlphanumeric", "a234567890123456", true},
		{"strict too long", "strictAlphanumeric", "a2345678901234567", false},
		{"strict symbol rejected", "strictAlphanumeric", "abc1234!", false},
		{"strict letters only", "strictAlphanumeric", "abcdefgh", false},
		{"strict digits only", "strictAlphanumeric", "12345678", false},

		{"strong ok", "strongNoWhitespace", "Str0ng!Passwd", true},
		{"strong too short", "strongNoWhitespace", "Str0ng!Pass", false},
		{"strong whitespace", "strongNoWhitespace", "Str0ng! Passwd", false},
		{"strong underscore not a symbol", "strongNoWhitespace", "Str0ngPasswd_", false},

		{"no triple ok", "noTripleRepeat", "aabbccdd", true},
		{"no triple repeat", "noTripleRepeat", "aaabcdef", false},
		{"no triple repeat midword", "noTripleRepeat", "abcdddef", false},
		{"no triple too short", "noTripleRepeat", "abcdefg", false},
	}
	for _, tc := range cases {
		t.Run(tc.policy+"/"+tc.name, func(t *testing.T) {
			got, err := ValidatePassword(tc.password, tc.policy)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValidatePassword_UnknownPolicy(t *testing.T) {
	_, err := ValidatePassword("whatever", "nope")
	assert.ErrorContains(t, err, "unknown password policy")
}

func TestValidateEmail(t *testing.T) {
	cases := []struct {
		name   string
		policy string
		email  string
		want   bool
	}{
		{"simple", "basic", "a@b.co", true},
		{"no tld", "basic", "a@b", false},
		{"whitespace", "basic", "a b@c.co", false},

		{"plus tag", "rfcLike", "user+tag@example.com", true},
		{"single char tld", "rfcLike", "a@b.c", false},
		{"missing local", "rfcLike", "@example.com", false},

		{"edu accepted", "specificTLD", "a@school.edu", true},
		{"io rejected", "specificTLD", "a@startup.io", false},

		{"gmail", "specificDomains", "a@gmail.com", true},
		{"subdomained gmail rejected", "specificDomains", "a@mail.gmail.com", false},
		{"proton rejected", "specificDomains", "a@proton.me", false},

		{"nested subdomain", "subdomains", "a@mail.corp.example.com", true},
		{"hyphenated label", "subdomains", "a@my-corp.io", true},
		{"co uk", "subdomains", "a@shop.example.co.uk", true},
		{"bare tld rejected", "subdomains", "a@example.dev", false},

		{"mixed local", "noNumericOnlyLocal", "a1@example.com", true},
		{"digits only local", "noNumericOnlyLocal", "12345@example.com", false},
	}
	for _, tc := range cases {
		t.Run(tc.policy+"/"+tc.name, func(t *testing.T) {
			got, err := ValidateEmail(tc.email, tc.policy)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValidateEmail_UnknownPolicy(t *testing.T) {
	_, err := ValidateEmail("a@b.com", "nope")
	assert.ErrorContains(t, err, "unknown email policy")
}

func TestValidateNewAccount_DefaultsAndMessages(t *testing.T) {
	ok, msgs := ValidateNewAccount("a@b.com", "Str0ng!Pass", "", "")
	assert.True(t, ok)
	assert.Empty(t, msgs)

	ok, msgs = ValidateNewAccount("not-an-email", "weak", "", "")
	assert.False(t, ok)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "email does not match policy")
	assert.Contains(t, msgs[1], "password does not match policy")
}

func TestValidateNewAccount_UnknownPolicyReported(t *testing.T) {
	ok, msgs := ValidateNewAccount("a@b.com", "Str0ng!Pass", "nope", "")
	assert.False(t, ok)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "unknown email policy")
}
