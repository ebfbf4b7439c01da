package itemcode

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
)

func TestNewID(t *testing.T) {
	now := time.UnixMilli(1718031234567)
	id, err := NewID(now)
	if err != nil {
		t.Fatalf("NewID: %v", err)
	}
	if !strings.HasPrefix(id, "EW1718031234567") {
		t.Errorf("got %q", id)
	}
	if len(id) != len("EW1718031234567")+5 {
		t.Errorf("length: got %d", len(id))
	}
	if !Valid(id) {
		t.Errorf("Valid(%q) = false", id)
	}
}

func TestNewIDUnique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		id, err := NewID(now)
		if err != nil {
			t.Fatalf("NewID: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %s after %d draws", id, i)
		}
		seen[id] = true
	}
}

func TestValid(t *testing.T) {
	cases := map[string]bool{
		"EW1718031234567ABCDE": true,
		"EW1718031234567abcde": false,
		"XX1718031234567ABCDE": false,
		"EWABCDE":              false,
		"EWnotanumberABCDE":    false,
		"":                     false,
	}
	for in, want := range cases {
		if got := Valid(in); got != want {
			t.Errorf("Valid(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestEncode(t *testing.T) {
	it := &models.Item{
		ItemID:     "EW1718031234567ABCDE",
		Name:       "HP LaserJet",
		Category:   models.CategoryAccessories,
		Type:       models.TypeRecyclable,
		Department: "Library",
		ReportedBy: "user-1",
	}
	url, err := Encode(PayloadFor(it))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Fatalf("got %q", url[:30])
	}

	raw, err := decodePNG(url)
	if err != nil {
		t.Fatalf("decodePNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != Size || b.Dy() != Size {
		t.Errorf("size: got %dx%d", b.Dx(), b.Dy())
	}
}

func TestDecodePNGRejectsOtherURLs(t *testing.T) {
	if _, err := decodePNG("data:text/plain;base64,aGk="); err == nil {
		t.Error("expected error")
	}
}

// decodePNG returns the PNG bytes of a data URL produced by Encode.
func decodePNG(url string) ([]byte, error) {
	b64, ok := strings.CutPrefix(url, dataURL)
	if !ok {
		return nil, fmt.Errorf("not a PNG data URL")
	}
	return base64.StdEncoding.DecodeString(b64)
}
