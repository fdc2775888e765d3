package rs

import "github.com/apack/apack/errs"

// Package-level GF(2^8) arithmetic tables, shared by every codec instance.
//
// The field is defined by the primitive polynomial x^8+x^4+x^3+x^2+1 (0x11D)
// with generator alpha=2. logTable[0] is unused (log of zero is undefined);
// expTable is built double-length (510 entries) so expTable[log(a)+log(b)]
// never needs a modular reduction on the hot path.
//
// Polynomials in this package are represented as byte slices ordered from
// the highest-degree coefficient to the constant term (MSB-first), matching
// how a codeword's data bytes are read off the wire.

const (
	fieldSize = 256
	primPoly  = 0x11D
	generator = 2
)

var (
	expTable [2 * (fieldSize - 1)]byte
	logTable [fieldSize]byte
)

func init() {
	x := 1
	for i := 0; i < fieldSize-1; i++ {
		expTable[i] = byte(x)
		logTable[x] = byte(i)
		x <<= 1
		if x&fieldSize != 0 {
			x ^= primPoly
		}
	}
	for i := fieldSize - 1; i < len(expTable); i++ {
		expTable[i] = expTable[i-(fieldSize-1)]
	}
}

// gfAdd is GF(2^8) addition, identical to subtraction: plain XOR.
func gfAdd(a, b byte) byte { return a ^ b }

// gfMul multiplies two field elements using the log/antilog tables.
func gfMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}

	return expTable[int(logTable[a])+int(logTable[b])]
}

// gfDiv divides a by b, returning ErrArithmeticError if b is zero rather than
// a silent zero result.
func gfDiv(a, b byte) (byte, error) {
	if b == 0 {
		return 0, errs.ErrArithmeticError
	}
	if a == 0 {
		return 0, nil
	}

	diff := int(logTable[a]) - int(logTable[b])
	if diff < 0 {
		diff += fieldSize - 1
	}

	return expTable[diff], nil
}

// gfPow raises the generator alpha to the power e, reduced mod fieldSize-1.
func gfPow(e int) byte {
	e %= fieldSize - 1
	if e < 0 {
		e += fieldSize - 1
	}

	return expTable[e]
}

// gfInverse returns the multiplicative inverse of a, or ErrArithmeticError if a is zero.
func gfInverse(a byte) (byte, error) {
	if a == 0 {
		return 0, errs.ErrArithmeticError
	}

	return expTable[(fieldSize-1)-int(logTable[a])], nil
}

// generatorPoly builds g(x) = prod_{i=0}^{p-1} (x + alpha^i), monic, MSB-first,
// with length p+1 (g[0] == 1 is the implicit leading coefficient).
func generatorPoly(p int) []byte {
	g := []byte{1}
	for i := 0; i < p; i++ {
		root := gfPow(i)
		next := make([]byte, len(g)+1)
		for j, c := range g {
			next[j] = gfAdd(next[j], c)
			next[j+1] = gfAdd(next[j+1], gfMul(c, root))
		}
		g = next
	}

	return g
}

// evalPoly evaluates an MSB-first polynomial at field point x using Horner's method.
func evalPoly(poly []byte, x byte) byte {
	var result byte
	for _, c := range poly {
		result = gfAdd(gfMul(result, x), c)
	}

	return result
}

// evalPolyLH evaluates a low-to-high ordered polynomial (poly[i] is the
// coefficient of x^i) at field point x.
func evalPolyLH(poly []byte, x byte) byte {
	var result byte
	for i := len(poly) - 1; i >= 0; i-- {
		result = gfAdd(gfMul(result, x), poly[i])
	}

	return result
}

// polyMulLH multiplies two low-to-high ordered polynomials.
func polyMulLH(a, b []byte) []byte {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	out := make([]byte, len(a)+len(b)-1)
	for i, ac := range a {
		if ac == 0 {
			continue
		}
		for j, bc := range b {
			out[i+j] = gfAdd(out[i+j], gfMul(ac, bc))
		}
	}

	return out
}

// gfPowElem computes x^k for a non-negative integer exponent k.
func gfPowElem(x byte, k int) byte {
	if k == 0 {
		return 1
	}
	if x == 0 {
		return 0
	}
	e := (int(logTable[x]) * k) % (fieldSize - 1)
	if e < 0 {
		e += fieldSize - 1
	}

	return expTable[e]
}
