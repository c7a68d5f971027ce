package capture

import "strings"

// pickVoice: женский голос нужного языка, иначе первый голос этого языка.
// Nil means the engine default.
func pickVoice(voices []SystemVoice, lang string) *SystemVoice {
	lang = strings.ToLower(lang)

	var first *SystemVoice
	for i := range voices {
		v := &voices[i]
		if !strings.HasPrefix(strings.ToLower(v.Lang), lang) {
			continue
		}
		if v.Female || strings.Contains(strings.ToLower(v.Name), "female") {
			return v
		}
		if first == nil {
			first = v
		}
	}
	return first
}
