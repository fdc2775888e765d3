// Package rs implements the systematic Reed-Solomon codec over GF(2^8)
// used for the optional ECC layer. The encoder builds a
// generator polynomial once per Codec and produces codewords by polynomial
// division (the classic LFSR-division form of systematic RS encoding); the
// decoder runs syndrome computation, Berlekamp-Massey, Chien search and
// Forney correction, falling back to a cheap syndromes-only Verify when the
// caller only needs to know whether a codeword is intact.
package rs

import "github.com/apack/apack/errs"

const maxCodewordLength = 255

// Codec encodes and decodes Reed-Solomon codewords for a fixed
// (parityBytes, interleaveFactor) configuration. A Codec is immutable after
// construction and safe for concurrent use.
type Codec struct {
	parityBytes int
	interleave  int
	gen         []byte // MSB-first, length parityBytes+1, monic
}

// NewCodec validates parityBytes (must be even, in [2,254]) and
// interleaveFactor (must be in [1,16]) and builds the generator polynomial.
func NewCodec(parityBytes, interleaveFactor int) (*Codec, error) {
	if parityBytes < 2 || parityBytes > 254 || parityBytes%2 != 0 {
		return nil, errs.ErrValueTooLarge
	}
	if interleaveFactor < 1 || interleaveFactor > 16 {
		return nil, errs.ErrValueTooLarge
	}

	return &Codec{
		parityBytes: parityBytes,
		interleave:  interleaveFactor,
		gen:         generatorPoly(parityBytes),
	}, nil
}

// ParityBytes returns the configured parity length p.
func (c *Codec) ParityBytes() int { return c.parityBytes }

// Interleave returns the configured interleave factor f.
func (c *Codec) Interleave() int { return c.interleave }

// Encode produces the on-disk codeword for data: data split round-robin
// across Interleave() streams (when f > 1), each stream independently
// encoded, codewords written back in round-robin order.
func (c *Codec) Encode(data []byte) ([]byte, error) {
	if c.interleave <= 1 {
		return c.encodeOne(data)
	}

	streams := splitRoundRobin(data, c.interleave)
	encoded := make([][]byte, c.interleave)
	for i, s := range streams {
		enc, err := c.encodeOne(s)
		if err != nil {
			return nil, err
		}
		encoded[i] = enc
	}

	return mergeRoundRobin(encoded), nil
}

// Decode recovers the original dataLen-byte block from codeword, correcting
// errors where possible. dataLen must be the logical (pre-ECC) length of the
// block that was originally encoded; the decoder needs it to reconstruct the
// per-stream split when interleaving is in effect.
func (c *Codec) Decode(codeword []byte, dataLen int) ([]byte, error) {
	if c.interleave <= 1 {
		return c.decodeOne(codeword)
	}

	streamDataLens := splitLengths(dataLen, c.interleave)
	streamCodeLens := make([]int, c.interleave)
	for i, l := range streamDataLens {
		streamCodeLens[i] = l + c.parityBytes
	}

	streamCodewords, err := demergeRoundRobin(codeword, streamCodeLens)
	if err != nil {
		return nil, err
	}

	decodedStreams := make([][]byte, c.interleave)
	for i, cw := range streamCodewords {
		d, err := c.decodeOne(cw)
		if err != nil {
			return nil, err
		}
		decodedStreams[i] = d
	}

	return mergeRoundRobinData(decodedStreams, dataLen), nil
}

// Verify reports whether codeword decodes cleanly (all syndromes zero)
// without materializing corrected data.
func (c *Codec) Verify(codeword []byte, dataLen int) (bool, error) {
	if c.interleave <= 1 {
		return c.verifyOne(codeword)
	}

	streamDataLens := splitLengths(dataLen, c.interleave)
	streamCodeLens := make([]int, c.interleave)
	for i, l := range streamDataLens {
		streamCodeLens[i] = l + c.parityBytes
	}

	streamCodewords, err := demergeRoundRobin(codeword, streamCodeLens)
	if err != nil {
		return false, err
	}

	for _, cw := range streamCodewords {
		ok, err := c.verifyOne(cw)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	return true, nil
}

func (c *Codec) encodeOne(data []byte) ([]byte, error) {
	p := c.parityBytes
	if len(data)+p > maxCodewordLength {
		return nil, errs.ErrInvalidCodewordLength
	}

	remainder := make([]byte, p)
	for _, d := range data {
		factor := gfAdd(d, remainder[0])
		copy(remainder, remainder[1:])
		remainder[p-1] = 0
		if factor != 0 {
			for j := 1; j < len(c.gen); j++ {
				remainder[j-1] = gfAdd(remainder[j-1], gfMul(c.gen[j], factor))
			}
		}
	}

	out := make([]byte, len(data)+p)
	copy(out, data)
	copy(out[len(data):], remainder)

	return out, nil
}

func (c *Codec) syndromes(codeword []byte) []byte {
	syn := make([]byte, c.parityBytes)
	for i := range syn {
		syn[i] = evalPoly(codeword, gfPow(i))
	}

	return syn
}

func (c *Codec) verifyOne(codeword []byte) (bool, error) {
	if len(codeword) > maxCodewordLength {
		return false, errs.ErrInvalidCodewordLength
	}
	if len(codeword) < c.parityBytes {
		return false, errs.ErrShortCodeword
	}

	for _, s := range c.syndromes(codeword) {
		if s != 0 {
			return false, nil
		}
	}

	return true, nil
}

func (c *Codec) decodeOne(codeword []byte) ([]byte, error) {
	p := c.parityBytes
	if len(codeword) > maxCodewordLength {
		return nil, errs.ErrInvalidCodewordLength
	}
	if len(codeword) < p {
		return nil, errs.ErrShortCodeword
	}
	n := len(codeword) - p

	syn := c.syndromes(codeword)
	clean := true
	for _, s := range syn {
		if s != 0 {
			clean = false
			break
		}
	}
	if clean {
		out := make([]byte, n)
		copy(out, codeword[:n])

		return out, nil
	}

	lambda, err := berlekampMassey(syn)
	if err != nil {
		return nil, err
	}
	e := len(lambda) - 1 // degree of the error locator

	N := len(codeword)
	type errorLocation struct {
		pos  int
		xInv byte
		x    byte
	}
	var locations []errorLocation
	for i := 0; i < N; i++ {
		locDegree := N - 1 - i
		xInv := gfPow(-locDegree)
		if evalPolyLH(lambda, xInv) == 0 {
			locations = append(locations, errorLocation{pos: i, xInv: xInv, x: gfPow(locDegree)})
		}
	}
	if len(locations) != e {
		return nil, errs.ErrUncorrectableErrors
	}

	omega := polyMulLH(syn, lambda)
	if len(omega) > p {
		omega = omega[:p]
	}

	corrected := make([]byte, N)
	copy(corrected, codeword)

	for _, loc := range locations {
		omegaVal := evalPolyLH(omega, loc.xInv)
		lambdaPrimeVal := evalOddDerivative(lambda, loc.xInv)
		if lambdaPrimeVal == 0 {
			return nil, errs.ErrUncorrectableErrors
		}
		ratio, err := gfDiv(omegaVal, lambdaPrimeVal)
		if err != nil {
			return nil, err
		}
		magnitude := gfMul(loc.x, ratio)
		corrected[loc.pos] = gfAdd(corrected[loc.pos], magnitude)
	}

	return corrected[:n], nil
}

// evalOddDerivative evaluates the formal derivative of a low-to-high
// polynomial at x. Over a characteristic-2 field only odd-degree terms
// survive differentiation: d/dx (c*x^i) = i*c*x^(i-1), and i*c is c when i is
// odd, 0 when i is even.
func evalOddDerivative(lambda []byte, x byte) byte {
	var result byte
	for i := 1; i < len(lambda); i += 2 {
		term := lambda[i]
		if i > 1 {
			term = gfMul(term, gfPowElem(x, i-1))
		}
		result = gfAdd(result, term)
	}

	return result
}

// berlekampMassey finds the shortest-degree error locator polynomial Lambda
// (low-to-high, Lambda[0] == 1) consistent with the syndrome sequence.
func berlekampMassey(syndromes []byte) ([]byte, error) {
	n := len(syndromes)
	c := make([]byte, n+1)
	b := make([]byte, n+1)
	c[0] = 1
	b[0] = 1

	l := 0
	m := 1
	lastDiscrepancy := byte(1)

	for i := 0; i < n; i++ {
		delta := syndromes[i]
		for j := 1; j <= l; j++ {
			delta = gfAdd(delta, gfMul(c[j], syndromes[i-j]))
		}

		switch {
		case delta == 0:
			m++
		case 2*l <= i:
			t := make([]byte, len(c))
			copy(t, c)

			coef, err := gfDiv(delta, lastDiscrepancy)
			if err != nil {
				return nil, err
			}
			for j := 0; j < len(b); j++ {
				if j+m < len(c) {
					c[j+m] = gfAdd(c[j+m], gfMul(coef, b[j]))
				}
			}

			l = i + 1 - l
			b = t
			lastDiscrepancy = delta
			m = 1
		default:
			coef, err := gfDiv(delta, lastDiscrepancy)
			if err != nil {
				return nil, err
			}
			for j := 0; j < len(b); j++ {
				if j+m < len(c) {
					c[j+m] = gfAdd(c[j+m], gfMul(coef, b[j]))
				}
			}
			m++
		}
	}

	return c[:l+1], nil
}
