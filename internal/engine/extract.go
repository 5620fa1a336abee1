package engine

import (
	"regexp"
	"strings"
)

// Best-effort text heuristics over freely generated narrative prose.
// These are pure functions; a failed match is an expected outcome, never
// an error.

// speakerPattern matches a capitalized name (one or two words) directly
// followed by a speech verb, e.g. `Mira says`, `Old Toren whispers`.
var speakerPattern = regexp.MustCompile(
	`\b([A-Z][a-z]+(?: [A-Z][a-z]+)?) (?:says|said|whispers|whispered|shouts|shouted|asks|asked|replies|replied|exclaims|exclaimed|mutters|muttered|calls|called|declares|declared)\b`)

// Words that start sentences and look like names but never are.
var speakerStopwords = map[string]bool{
	"The": true, "A": true, "An": true, "It": true, "He": true, "She": true,
	"They": true, "You": true, "Your": true, "But": true, "And": true,
	"Then": true, "Someone": true, "Everyone": true, "Nobody": true,
}

// ExtractSpeakerName finds the first plausible NPC name in the narrative.
// Returns ("", false) when nothing matches.
func ExtractSpeakerName(text string) (string, bool) {
	matches := speakerPattern.FindAllStringSubmatch(text, -1)
	for _, m := range matches {
		name := m[1]
		first := strings.Fields(name)[0]
		if speakerStopwords[first] {
			continue
		}
		return name, true
	}
	return "", false
}

// Roll-soliciting vocabulary the narrator uses when it wants the player
// to roll before the story continues.
var rollPromptMarkers = []string{
	"roll a d",
	"roll the d",
	"roll for",
	"make a roll",
	"roll to",
	"saving throw",
	"skill check",
	"make a check",
	"roll initiative",
}

// ContainsRollPrompt reports whether the narrative asks the player to roll.
func ContainsRollPrompt(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range rollPromptMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Recruitment-offer vocabulary hinting an NPC wants to join the party.
var recruitmentMarkers = []string{
	"join you",
	"join your",
	"accompany you",
	"travel with you",
	"come with you",
	"at your side",
	"fight alongside",
	"offers to help you",
}

// ContainsRecruitmentOffer reports whether the narrative reads like a
// companion recruitment offer.
func ContainsRecruitmentOffer(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range recruitmentMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
