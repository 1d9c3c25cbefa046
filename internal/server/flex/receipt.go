// Package flex renders receipts as LINE Flex messages.
package flex

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Miura55/freee-labor-bot/internal/server/line"
	"github.com/Miura55/freee-labor-bot/internal/shared/models"
)

// AltText is shown by clients that cannot render Flex messages.
const AltText = "レシート"

// storeNameIndex is the header component that receives the store name.
const storeNameIndex = 2

// placeholder stands in for names the OCR left empty; a text component
// without text is rejected by LINE.
const placeholder = "-"

//go:embed templates/receipt.json
var receiptTemplate []byte

// Component is a Flex box, text or separator.
type Component struct {
	Type     string      `json:"type"`
	Layout   string      `json:"layout,omitempty"`
	Text     string      `json:"text,omitempty"`
	Size     string      `json:"size,omitempty"`
	Weight   string      `json:"weight,omitempty"`
	Color    string      `json:"color,omitempty"`
	Align    string      `json:"align,omitempty"`
	Gravity  string      `json:"gravity,omitempty"`
	Margin   string      `json:"margin,omitempty"`
	Spacing  string      `json:"spacing,omitempty"`
	Wrap     bool        `json:"wrap,omitempty"`
	Contents []Component `json:"contents,omitempty"`
}

// Bubble is a single Flex bubble container.
type Bubble struct {
	Type   string     `json:"type"`
	Size   string     `json:"size,omitempty"`
	Header *Component `json:"header,omitempty"`
	Body   *Component `json:"body,omitempty"`
	Footer *Component `json:"footer,omitempty"`
}

func loadTemplate() (Bubble, error) {
	var b Bubble
	if err := json.Unmarshal(receiptTemplate, &b); err != nil {
		return Bubble{}, fmt.Errorf("receipt template: %w", err)
	}
	if b.Header == nil || len(b.Header.Contents) <= storeNameIndex || b.Body == nil {
		return Bubble{}, errors.New("receipt template: missing header or body")
	}
	return b, nil
}

func separator() Component {
	return Component{Type: "separator", Color: "#000000"}
}

func itemRow(name string, price models.Yen) Component {
	return Component{
		Type:   "box",
		Layout: "horizontal",
		Contents: []Component{
			{Type: "text", Text: orPlaceholder(name), Size: "lg", Align: "start"},
			{Type: "text", Text: price.String(), Color: "#000000", Align: "end", Gravity: "bottom"},
		},
	}
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

func totalRow(total models.Yen) Component {
	return Component{
		Type:   "box",
		Layout: "horizontal",
		Contents: []Component{
			{Type: "text", Text: "合計"},
			{Type: "text", Text: total.String(), Align: "end"},
		},
	}
}

// ReceiptBubble fills the receipt template: store name in the header, then
// a separator, one row per item in receipt order, a separator and the total.
func ReceiptBubble(r models.ReceiptResult) (Bubble, error) {
	b, err := loadTemplate()
	if err != nil {
		return Bubble{}, err
	}
	b.Header.Contents[storeNameIndex].Text = orPlaceholder(r.StoreName)

	contents := make([]Component, 0, len(r.Items)+3)
	contents = append(contents, separator())
	for _, it := range r.Items {
		contents = append(contents, itemRow(it.Name, it.UnitPrice))
	}
	contents = append(contents, separator(), totalRow(r.TotalPrice))
	b.Body.Contents = contents
	return b, nil
}

// BuildReceipt renders the receipt as a Flex message with the receipt alt text.
func BuildReceipt(r models.ReceiptResult) (line.FlexMessage, error) {
	b, err := ReceiptBubble(r)
	if err != nil {
		return line.FlexMessage{}, err
	}
	return line.FlexMessage{AltText: AltText, Contents: b}, nil
}
