package arena

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"strconv"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// TargetIndex returns a deterministic index into a list of n answers for
// one round of a run: HMAC(salt, runKey#round) % n. Every model in a run
// therefore faces the same target in the same round.
func TargetIndex(salt, runKey string, round, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(runKey + "#" + strconv.Itoa(round)))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for the modulus
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}

// Schedule lists the targets for rounds 1..rounds.
func Schedule(salt, runKey string, answers []string, rounds int) []string {
	out := make([]string, 0, rounds)
	for r := 1; r <= rounds; r++ {
		out = append(out, answers[TargetIndex(salt, runKey, r, len(answers))])
	}
	return out
}
