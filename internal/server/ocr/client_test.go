package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRead_Success(t *testing.T) {
	img := []byte("jpeg-bytes")
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(APIKeyHeader) != "key-1" {
			t.Errorf("api key header: %q", r.Header.Get(APIKeyHeader))
		}
		var body recognizeRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.ImageContent != base64.StdEncoding.EncodeToString(img) {
			t.Errorf("image not base64 encoded: %q", body.ImageContent)
		}
		io.WriteString(w, `{"result":{"storeInfo":{"name":"Cafe X"},"items":[{"name":"Coffee","priceInfo":{"price":300}},{"name":"Cake","priceInfo":{"price":"450"}}],"totalPrice":{"price":750},"paymentInfo":{"date":"2024-01-01"}}}`)
	}))
	defer ts.Close()

	c := NewClient(ts.Client(), ts.URL, "key-1")
	got, err := c.Read(context.Background(), img)
	if err != nil {
		t.Fatal(err)
	}
	if got.StoreName != "Cafe X" || got.TotalPrice != 750 || got.PaymentDate != "2024-01-01" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if len(got.Items) != 2 || got.Items[0].Name != "Coffee" || got.Items[0].UnitPrice != 300 || got.Items[1].UnitPrice != 450 {
		t.Fatalf("unexpected items: %+v", got.Items)
	}
}

func TestRead_NonOKIsUnreadable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewClient(ts.Client(), ts.URL, "k")
	if _, err := c.Read(context.Background(), []byte("x")); !errors.Is(err, ErrUnreadable) {
		t.Fatalf("want ErrUnreadable, got %v", err)
	}
}

func TestRead_NetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	c := NewClient(nil, url, "k")
	if _, err := c.Read(context.Background(), []byte("x")); err == nil {
		t.Fatalf("expected error for closed server")
	}
}
