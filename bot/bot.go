// Package bot implements the live-chat reply cycle: trigger detection over a
// fetched page of messages, bounded context assembly, dedup against the last
// answered message, and the orchestrating run cycle that ties fetch, generate,
// and post together. All I/O goes through small interfaces so vendor clients
// stay out of the core.
package bot

// ChatMessage is one live-chat message within a fetched page, ordered oldest
// to newest by page position.
type ChatMessage struct {
	ID     string
	Author string
	Text   string
}

// TriggerMatch is the chronologically latest message in a page containing a
// configured trigger, plus its original index within that page.
type TriggerMatch struct {
	Message ChatMessage
	Index   int
}

// ContextEntry is one "who: text" line of conversational context handed to
// the reply generator.
type ContextEntry struct {
	Who  string
	Text string
}
