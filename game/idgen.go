package game

import "math/rand/v2"

const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLength   = 4
)

// codeGen produces short human-shareable room codes. Uniqueness is the
// registry's job; codeGen only has to spread codes over the code space.
type codeGen struct {
	length int
}

func NewCodeGen() *codeGen {
	return &codeGen{length: roomCodeLength}
}

func (g *codeGen) Generate() string {
	code := make([]byte, g.length)
	for i := range code {
		code[i] = roomCodeAlphabet[rand.IntN(len(roomCodeAlphabet))]
	}
	return string(code)
}
