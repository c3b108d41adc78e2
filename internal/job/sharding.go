package job

import (
	"hash/fnv"
	"strconv"
)

// ShardLabel hashes a session id to a stable label in 0-31 so per-session
// metrics keep a bounded cardinality.
func ShardLabel(sessionID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return strconv.FormatUint(uint64(h.Sum32()%32), 10)
}
