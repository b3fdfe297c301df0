package answer

import "encoding/json"

// EventType discriminates the events of an answer stream.
type EventType string

const (
	EventSources EventType = "sources"
	EventToken   EventType = "token"
	EventDone    EventType = "done"
)

// Event is one element of an answer stream.
type Event struct {
	Type EventType

	// Sources is set on EventSources. It is never nil on that event.
	Sources []string

	// Content is set on EventToken.
	Content string
}

// MarshalJSON renders the wire shape of each event type:
// {"type":"sources","sources":[...]}, {"type":"token","content":"..."} and {"type":"done"}.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventSources:
		sources := e.Sources
		if sources == nil {
			sources = []string{}
		}
		return json.Marshal(struct {
			Type    EventType `json:"type"`
			Sources []string  `json:"sources"`
		}{e.Type, sources})
	case EventToken:
		return json.Marshal(struct {
			Type    EventType `json:"type"`
			Content string    `json:"content"`
		}{e.Type, e.Content})
	default:
		return json.Marshal(struct {
			Type EventType `json:"type"`
		}{e.Type})
	}
}
