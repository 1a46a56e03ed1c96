package models

import "strings"

// Gender is a user's declared gender. Unknown means the user chose to keep
// it private.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// Preference is the gender a user wants to be paired with.
type Preference string

const (
	PrefMale   Preference = "male"
	PrefFemale Preference = "female"
	PrefAny    Preference = "any"
)

// AnonymousNickname replaces blank nicknames.
const AnonymousNickname = "Anonymous"

// ParseGender maps a wire value to a Gender, defaulting to unknown.
func ParseGender(s string) Gender {
	switch Gender(s) {
	case GenderMale, GenderFemale:
		return Gender(s)
	default:
		return GenderUnknown
	}
}

// ParsePreference maps a wire value to a Preference, defaulting to any.
func ParsePreference(s string) Preference {
	switch Preference(s) {
	case PrefMale, PrefFemale:
		return Preference(s)
	default:
		return PrefAny
	}
}

// SanitizeNickname trims whitespace and falls back to the anonymous
// placeholder when nothing is left.
func SanitizeNickname(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return AnonymousNickname
	}
	return s
}

// PreferenceText renders a preference for user-facing waiting notices.
func PreferenceText(p Preference) string {
	switch p {
	case PrefMale:
		return "a male user"
	case PrefFemale:
		return "a female user"
	default:
		return "a chat partner"
	}
}
