package line

import "encoding/json"

// Message is an outbound message accepted by the reply API.
type Message interface {
	json.Marshaler
	Kind() string
}

// TextMessage is a plain text message.
type TextMessage struct {
	Text string
}

func (m TextMessage) Kind() string { return "text" }

func (m TextMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{m.Kind(), m.Text})
}

// StickerMessage sends a sticker from a LINE sticker package.
type StickerMessage struct {
	PackageID string
	StickerID string
}

func (m StickerMessage) Kind() string { return "sticker" }

func (m StickerMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string `json:"type"`
		PackageID string `json:"packageId"`
		StickerID string `json:"stickerId"`
	}{m.Kind(), m.PackageID, m.StickerID})
}

// FlexMessage carries a Flex container. AltText is shown where the
// container cannot be rendered.
type FlexMessage struct {
	AltText  string
	Contents any
}

func (m FlexMessage) Kind() string { return "flex" }

func (m FlexMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string `json:"type"`
		AltText  string `json:"altText"`
		Contents any    `json:"contents"`
	}{m.Kind(), m.AltText, m.Contents})
}
