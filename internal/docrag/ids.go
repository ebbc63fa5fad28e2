package docrag

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// DocID derives the stable document ID for a chunk from its source path
// and its intra-file sequence number. Keying on the per-file index, not
// the run-global position, makes re-ingestion idempotent regardless of
// traversal order.
func DocID(source string, idx int) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s:%d", source, idx)))
	return hex.EncodeToString(sum[:])[:12] + fmt.Sprintf("_%d", idx)
}
