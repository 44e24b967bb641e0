package bot

import "strings"

// FindLatestTrigger scans a message page from newest to oldest and returns the
// first message whose text contains any configured trigger, compared
// case-insensitively by substring. The returned index is the message's
// original position in the page. ok is false when no message matches; that is
// a normal empty result, not an error.
//
// Triggers are expected to be lower-cased at config load. Which trigger fired
// is not reported; any match suffices.
func FindLatestTrigger(messages []ChatMessage, triggers []string) (match TriggerMatch, ok bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		text := strings.ToLower(messages[i].Text)
		for _, trig := range triggers {
			if trig == "" {
				continue
			}
			if strings.Contains(text, trig) {
				return TriggerMatch{Message: messages[i], Index: i}, true
			}
		}
	}
	return TriggerMatch{}, false
}
