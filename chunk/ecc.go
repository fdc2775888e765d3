package chunk

import "github.com/apack/apack/rs"

// eccBlockSize is the largest data length a single rs.Codec.Encode call for
// codec can accept: each of the f interleaved streams must stay within the
// 255-byte codeword limit, so the combined block is capped at (255-p)*f.
func eccBlockSize(codec *rs.Codec) int {
	return (255 - codec.ParityBytes()) * codec.Interleave()
}

func eccFullCodewordLen(codec *rs.Codec) int {
	return eccBlockSize(codec) + codec.ParityBytes()*codec.Interleave()
}

// encodeECC splits data into eccBlockSize-sized blocks (the last one may be
// shorter) and RS-encodes each independently, concatenating the resulting
// codewords. An empty input still produces one parity-only codeword, so a
// zero-length chunk payload remains ECC-protected rather than silently
// skipped.
func encodeECC(codec *rs.Codec, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return codec.Encode(nil)
	}

	blockSize := eccBlockSize(codec)
	out := make([]byte, 0, len(data)+eccFullCodewordLen(codec))

	for offset := 0; offset < len(data); {
		end := offset + blockSize
		if end > len(data) {
			end = len(data)
		}

		cw, err := codec.Encode(data[offset:end])
		if err != nil {
			return nil, err
		}
		out = append(out, cw...)
		offset = end
	}

	return out, nil
}

// decodeECC inverts encodeECC. It needs no separately stored data length:
// every non-final block is exactly eccFullCodewordLen(codec) bytes, so the
// final (possibly short) block is whatever remains once no more full blocks
// fit.
func decodeECC(codec *rs.Codec, stored []byte) ([]byte, error) {
	full := eccFullCodewordLen(codec)
	parity := codec.ParityBytes() * codec.Interleave()

	out := make([]byte, 0, len(stored))
	pos := 0
	for pos < len(stored) {
		remaining := len(stored) - pos
		if remaining > full {
			block, err := codec.Decode(stored[pos:pos+full], eccBlockSize(codec))
			if err != nil {
				return nil, err
			}
			out = append(out, block...)
			pos += full

			continue
		}

		dataLen := remaining - parity
		block, err := codec.Decode(stored[pos:], dataLen)
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
		pos = len(stored)
	}

	return out, nil
}
