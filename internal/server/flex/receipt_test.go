package flex

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/Miura55/freee-labor-bot/internal/shared/models"
)

func TestReceiptBubble_RowsInOrder(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		t.Run(fmt.Sprintf("%d items", n), func(t *testing.T) {
			r := models.ReceiptResult{StoreName: "Shop", TotalPrice: 1234}
			for i := 0; i < n; i++ {
				r.Items = append(r.Items, models.ReceiptItem{Name: fmt.Sprintf("item%d", i), UnitPrice: models.Yen(100 * (i + 1))})
			}
			b, err := ReceiptBubble(r)
			if err != nil {
				t.Fatal(err)
			}
			rows := b.Body.Contents
			if len(rows) != n+3 {
				t.Fatalf("want %d body components, got %d", n+3, len(rows))
			}
			if rows[0].Type != "separator" || rows[n+1].Type != "separator" {
				t.Fatalf("separators misplaced: %+v", rows)
			}
			for i := 0; i < n; i++ {
				row := rows[i+1]
				if row.Contents[0].Text != fmt.Sprintf("item%d", i) || row.Contents[1].Text != fmt.Sprintf("¥%d", 100*(i+1)) {
					t.Fatalf("row %d: %+v", i, row)
				}
			}
			total := rows[n+2]
			if total.Contents[0].Text != "合計" || total.Contents[1].Text != "¥1234" {
				t.Fatalf("total row: %+v", total)
			}
		})
	}
}

func TestBuildReceipt_EndToEndShape(t *testing.T) {
	r := models.ReceiptResult{
		StoreName:   "Cafe X",
		Items:       []models.ReceiptItem{{Name: "Coffee", UnitPrice: 300}},
		TotalPrice:  300,
		PaymentDate: "2024-01-01",
	}
	msg, err := BuildReceipt(r)
	if err != nil {
		t.Fatal(err)
	}
	if msg.AltText != AltText {
		t.Fatalf("alt text: %q", msg.AltText)
	}
	b := msg.Contents.(Bubble)
	if b.Header.Contents[storeNameIndex].Text != "Cafe X" {
		t.Fatalf("header text: %q", b.Header.Contents[storeNameIndex].Text)
	}
	if b.Body.Contents[1].Contents[0].Text != "Coffee" || b.Body.Contents[1].Contents[1].Text != "¥300" {
		t.Fatalf("item row: %+v", b.Body.Contents[1])
	}
	if b.Body.Contents[3].Contents[1].Text != "¥300" {
		t.Fatalf("total row: %+v", b.Body.Contents[3])
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)
	if decoded["type"] != "flex" {
		t.Fatalf("marshalled type: %v", decoded["type"])
	}
}

func TestReceiptBubble_TemplateNotShared(t *testing.T) {
	a, _ := ReceiptBubble(models.ReceiptResult{StoreName: "A"})
	b, _ := ReceiptBubble(models.ReceiptResult{StoreName: "B"})
	if a.Header.Contents[storeNameIndex].Text != "A" || b.Header.Contents[storeNameIndex].Text != "B" {
		t.Fatalf("template state leaked between renders")
	}
}

func TestBuildReceipt_EmptyNamesKeepText(t *testing.T) {
	msg, err := BuildReceipt(models.ReceiptResult{
		Items:      []models.ReceiptItem{{Name: "", UnitPrice: 100}, {Name: "  ", UnitPrice: 50}},
		TotalPrice: 150,
	})
	if err != nil {
		t.Fatal(err)
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Contents struct {
			Header struct {
				Contents []map[string]any `json:"contents"`
			} `json:"header"`
			Body struct {
				Contents []struct {
					Type     string           `json:"type"`
					Contents []map[string]any `json:"contents"`
				} `json:"contents"`
			} `json:"body"`
		} `json:"contents"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if got := decoded.Contents.Header.Contents[storeNameIndex]["text"]; got != placeholder {
		t.Fatalf("store name text = %v, want %q", got, placeholder)
	}
	for _, row := range decoded.Contents.Body.Contents {
		for _, c := range row.Contents {
			if c["type"] != "text" {
				continue
			}
			if s, ok := c["text"].(string); !ok || s == "" {
				t.Fatalf("text component without text: %v", c)
			}
		}
	}
	if got := decoded.Contents.Body.Contents[1].Contents[0]["text"]; got != placeholder {
		t.Fatalf("item name text = %v", got)
	}
}
