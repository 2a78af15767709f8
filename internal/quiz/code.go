package quiz

import (
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const codeLength = 6

// GenerateCode returns a candidate quiz code. Uniqueness is decided by the
// server, which may reject or replace it.
func GenerateCode() string {
	id := uuid.New()
	encoded := strings.ToUpper(new(big.Int).SetBytes(id[:]).Text(36))
	for len(encoded) < codeLength {
		encoded = "0" + encoded
	}
	return encoded[len(encoded)-codeLength:]
}
