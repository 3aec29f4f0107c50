package codes

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// codeAlphabet excludes 0/O and 1/I so codes survive being read aloud or
// typed from another party's screen.
const codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const codeLength = 6

// Generator produces the one-time start/end verification codes attached to a
// contract. Codes are scoped to a single contract; uniqueness across
// contracts is probabilistic only (32^6 space).
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
