package memory

import (
	"testing"

	"github.com/Elizabethomito/ewastetrack/backend/internal/store"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Store { return New() })
}
