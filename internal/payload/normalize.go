// Package payload extracts relayable content from voice-service webhook bodies.
// The bodies have no fixed schema, so extraction walks a fixed list of probes
// and keeps the first usable value for each field.
package payload

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"
)

// FallbackText is relayed when a body carries neither text nor audio.
const FallbackText = "New content generated"

// Shape describes how a body was interpreted.
type Shape string

const (
	// ShapeObject is a JSON object that was probed for fields.
	ShapeObject Shape = "object"
	// ShapeRaw is a body that was relayed verbatim as text.
	ShapeRaw Shape = "raw"
	// ShapeFallback is a body with no usable content.
	ShapeFallback Shape = "fallback"
)

// ExtractedMessage is the text/audio pair found in a webhook body.
// An empty field means the value was not present.
type ExtractedMessage struct {
	Text     string
	AudioURL string

	// TextSource and AudioSource hold the probe path that matched.
	TextSource  string
	AudioSource string
	Shape       Shape
}

// HasText reports whether there is text to relay.
func (m ExtractedMessage) HasText() bool { return m.Text != "" }

// HasAudio reports whether there is an audio reference to relay.
func (m ExtractedMessage) HasAudio() bool { return m.AudioURL != "" }

// IsFallback reports whether Text is the default text rather than extracted content.
func (m ExtractedMessage) IsFallback() bool { return m.Shape == ShapeFallback }

// Probes are evaluated in order; the first match wins.
var (
	textProbes  = []string{"text", "message", "content", "data.text"}
	audioProbes = []string{"audioUrl", "audio_url", "url", "data.audioUrl", "data.audio_url", "data.url"}
)

// Normalize extracts an ExtractedMessage from a raw request body.
func Normalize(raw []byte) ExtractedMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return fallback()
	}
	if !gjson.ValidBytes(trimmed) {
		return ExtractedMessage{Text: string(trimmed), Shape: ShapeRaw}
	}

	doc := gjson.ParseBytes(trimmed)
	switch {
	case doc.IsObject():
		return fromObject(doc)
	case doc.Type == gjson.Null:
		return fallback()
	case doc.Type == gjson.String:
		if doc.Str == "" {
			return fallback()
		}
		return ExtractedMessage{Text: doc.Str, Shape: ShapeRaw}
	default:
		return ExtractedMessage{Text: string(trimmed), Shape: ShapeRaw}
	}
}

// NormalizeObject extracts an ExtractedMessage from an already decoded JSON object.
func NormalizeObject(obj map[string]any) ExtractedMessage {
	raw, err := json.Marshal(obj)
	if err != nil {
		return fallback()
	}
	return Normalize(raw)
}

func fromObject(doc gjson.Result) ExtractedMessage {
	var msg ExtractedMessage
	msg.Text, msg.TextSource = firstMatch(doc, textProbes)
	msg.AudioURL, msg.AudioSource = firstMatch(doc, audioProbes)
	if !msg.HasText() && !msg.HasAudio() {
		return fallback()
	}
	msg.Shape = ShapeObject
	return msg
}

func firstMatch(doc gjson.Result, probes []string) (string, string) {
	for _, path := range probes {
		if value, ok := usable(doc.Get(path)); ok {
			return value, path
		}
	}
	return "", ""
}

// usable accepts non-empty strings, numbers and true. Containers, null and
// false never match.
func usable(r gjson.Result) (string, bool) {
	switch r.Type {
	case gjson.String:
		return r.Str, r.Str != ""
	case gjson.Number, gjson.True:
		return r.Raw, true
	default:
		return "", false
	}
}

func fallback() ExtractedMessage {
	return ExtractedMessage{Text: FallbackText, Shape: ShapeFallback}
}
