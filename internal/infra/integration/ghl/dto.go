package ghl

// Payload is the flat JSON object the inbound webhook receives. GHL maps
// top-level keys to contact fields, so nothing is nested.
type Payload map[string]any

func (p Payload) setIf(key, value string) {
	if value != "" {
		p[key] = value
	}
}
