// Package itemcode generates item identifiers and the scannable code that is
// printed on an item's label.
package itemcode

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
)

const (
	// Prefix starts every item id.
	Prefix = "EW"
	// suffixLen random base-36 characters follow the timestamp.
	suffixLen = 5
	// Size is the rendered PNG edge length in pixels.
	Size = 256

	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	dataURL  = "data:image/png;base64,"
)

// NewID returns "EW" + unix milliseconds + five random uppercase base-36
// characters, e.g. EW1718031234567K3Z9Q.
func NewID(now time.Time) (string, error) {
	var b strings.Builder
	b.WriteString(Prefix)
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	base := big.NewInt(int64(len(alphabet)))
	for i := 0; i < suffixLen; i++ {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", fmt.Errorf("item id: %w", err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}

// Valid reports whether id has the shape NewID produces.
func Valid(id string) bool {
	rest, ok := strings.CutPrefix(id, Prefix)
	if !ok || len(rest) <= suffixLen {
		return false
	}
	digits, suffix := rest[:len(rest)-suffixLen], rest[len(rest)-suffixLen:]
	if _, err := strconv.ParseInt(digits, 10, 64); err != nil {
		return false
	}
	for _, r := range suffix {
		if !strings.ContainsRune(alphabet, r) {
			return false
		}
	}
	return true
}

// PayloadFor returns the fields encoded into the code of it.
func PayloadFor(it *models.Item) models.CodePayload {
	return models.CodePayload{
		ItemID:     it.ItemID,
		Name:       it.Name,
		Category:   it.Category,
		Type:       it.Type,
		Department: it.Department,
		ReportedBy: it.ReportedBy,
	}
}

// Encode renders p as JSON inside a QR code and returns it as a PNG data URL
// suitable for an <img src>.
func Encode(p models.CodePayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	png, err := qrcode.Encode(string(raw), qrcode.Medium, Size)
	if err != nil {
		return "", fmt.Errorf("render code: %w", err)
	}
	return dataURL + base64.StdEncoding.EncodeToString(png), nil
}
