package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/yurifrl/txnclass/pkg/models"
)

// CalcID derives the deduplication fingerprint for a raw row.
//
// The row is serialized as JSON with sorted keys (encoding/json emits map
// keys in sorted order) and hashed with SHA-256, so the id is a pure
// function of the row's content and independent of the order the columns
// were read in. Re-importing the identical row always yields the identical
// id, which is what makes upsert-by-id safe to repeat.
func CalcID(raw models.RawTransaction) string {
	data, err := json.Marshal(raw)
	if err != nil {
		// A map[string]string cannot fail to marshal.
		panic(err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
