package random

import (
	"crypto/rand"
	"math/big"
)

// Room codes skip look-alike characters (0/O, 1/I).
const roomLetters = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func RoomCode(length int) string {
	return pickFromSet(roomLetters, length)
}

func pickFromSet(set string, length int) string {
	if length <= 0 {
		return ""
	}
	max := big.NewInt(int64(len(set)))
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			out[i] = set[0]
			continue
		}
		out[i] = set[n.Int64()]
	}
	return string(out)
}
