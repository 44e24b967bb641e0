package bot

// BuildContext assembles the conversational window for a trigger at matchIndex:
// every message from max(0, matchIndex-before) through the end of the page, in
// original chronological order. The window deliberately includes the triggering
// message itself and any messages after it within the same page; see the
// design notes for why this quirk is preserved rather than "fixed".
func BuildContext(messages []ChatMessage, matchIndex, before int) []ContextEntry {
	if matchIndex < 0 || matchIndex >= len(messages) {
		return nil
	}
	start := matchIndex - before
	if start < 0 {
		start = 0
	}
	out := make([]ContextEntry, 0, len(messages)-start)
	for _, m := range messages[start:] {
		out = append(out, ContextEntry{Who: m.Author, Text: m.Text})
	}
	return out
}

// TrimWindow returns the most recent max entries. It is applied once by the
// runner and again by the generator when rendering the prompt, so the context
// sent upstream never exceeds max even if a caller skips one of the trims.
func TrimWindow(entries []ContextEntry, max int) []ContextEntry {
	if max <= 0 || len(entries) <= max {
		return entries
	}
	return entries[len(entries)-max:]
}
