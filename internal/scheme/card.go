package scheme

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const cardNumberLength = 10

// NewCardNumber generates a human-readable card identifier, e.g.
// "CARD-3F19AC02BD". The digits are the first 10 hex characters of a
// random 128-bit UUID, so collisions are possible only in theory; no
// uniqueness check is performed against the store. A card number is
// generated exactly once per family and is never regenerated.
func NewCardNumber() string {
	u := uuid.New()
	digits := hex.EncodeToString(u[:])[:cardNumberLength]
	return fmt.Sprintf("CARD-%s", strings.ToUpper(digits))
}
