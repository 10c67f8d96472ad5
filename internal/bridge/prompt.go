package bridge

import "strings"

// namePlaceholder is replaced in the opening script with the callee's
// identity, or a neutral filler when none was supplied. It is never left
// literally in the spoken text.
const namePlaceholder = "{name}"

const neutralFiller = "there"

// Spoken when an idle or max-duration warning fires. Kept as fixed lines
// rather than tunables; the scripts proper come from configuration.
const (
	checkInLine = "Are you still there? I'm happy to continue whenever you're ready."
	wrapUpLine  = "Just so you know, we'll need to wrap up this call shortly."
)

// OpeningLine renders the opening script for the callee.
func OpeningLine(script, calleeIdentity string) string {
	name := strings.TrimSpace(calleeIdentity)
	if name == "" {
		name = neutralFiller
	}
	return strings.ReplaceAll(script, namePlaceholder, name)
}

// BuildInstructions assembles the dialogue service's system instructions from
// the configured scripts and the allowed-language list. Empty sections are
// omitted.
func BuildInstructions(cfg Config) string {
	var sections []string
	if s := strings.TrimSpace(cfg.GeneralPrompt); s != "" {
		sections = append(sections, s)
	}
	if s := strings.TrimSpace(cfg.BusinessPrompt); s != "" {
		sections = append(sections, s)
	}
	if len(cfg.Languages) > 0 {
		sections = append(sections,
			"Speak only in the following languages: "+strings.Join(cfg.Languages, ", ")+".")
	}
	if s := strings.TrimSpace(cfg.OpeningScript); s != "" {
		sections = append(sections,
			"Open the conversation with this line, adapted to the callee: "+s)
	}
	if s := strings.TrimSpace(cfg.ClosingScript); s != "" {
		sections = append(sections,
			"When asked to end the call, say goodbye with this line: "+s)
	}
	return strings.Join(sections, "\n\n")
}
