package synthesizer

import "strings"

// ResolveTitle picks the note title: explicit override, then the extracted title, then fallback.
// An override equal to the fallback is treated as unset, so the CLI default does not mask a
// real video title.
func ResolveTitle(override, extracted, fallback string) string {
	override = strings.TrimSpace(override)
	extracted = strings.TrimSpace(extracted)
	fallback = strings.TrimSpace(fallback)

	if override != "" && override != fallback {
		return override
	}
	if extracted != "" {
		return extracted
	}
	if override != "" {
		return override
	}
	return fallback
}
