package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// queryHashLen is the number of hex characters kept from the query hash.
// 16 chars (64 bits) is plenty for collision resistance at cache scale.
const queryHashLen = 16

// NormalizeQuery canonicalizes free-text query input so that equivalent
// requests produce identical cache keys: trimmed, case-folded, internal
// whitespace collapsed to single spaces.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// ResponseKey builds the deterministic cache key for one logical request:
// "resp:{action}:{provider}:{model}:{problem}:{queryHash}".
// The free-text query is normalized before hashing; structured components
// are used verbatim.
func ResponseKey(action, provider, model, problemID, query string) string {
	h := sha256.Sum256([]byte(NormalizeQuery(query)))
	queryHash := hex.EncodeToString(h[:])[:queryHashLen]
	return fmt.Sprintf("resp:%s:%s:%s:%s:%s", action, provider, model, problemID, queryHash)
}
