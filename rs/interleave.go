package rs

import "github.com/apack/apack/errs"

// splitLengths returns, for each of f round-robin streams, how many of the
// n logical bytes land in that stream (byte i goes to stream i%f).
func splitLengths(n, f int) []int {
	lens := make([]int, f)
	for i := 0; i < n; i++ {
		lens[i%f]++
	}

	return lens
}

// splitRoundRobin partitions data into f streams by byte index modulo f.
func splitRoundRobin(data []byte, f int) [][]byte {
	streams := make([][]byte, f)
	lens := splitLengths(len(data), f)
	for i, l := range lens {
		streams[i] = make([]byte, 0, l)
	}
	for i, b := range data {
		j := i % f
		streams[j] = append(streams[j], b)
	}

	return streams
}

// mergeRoundRobin interleaves streams of possibly unequal length by taking
// one byte from each stream in turn, skipping streams that have already run
// out for later rounds.
func mergeRoundRobin(streams [][]byte) []byte {
	maxLen := 0
	total := 0
	for _, s := range streams {
		if len(s) > maxLen {
			maxLen = len(s)
		}
		total += len(s)
	}

	out := make([]byte, 0, total)
	for i := 0; i < maxLen; i++ {
		for _, s := range streams {
			if i < len(s) {
				out = append(out, s[i])
			}
		}
	}

	return out
}

// demergeRoundRobin is the inverse of mergeRoundRobin given the expected
// per-stream lengths.
func demergeRoundRobin(merged []byte, streamLens []int) ([][]byte, error) {
	maxLen := 0
	for _, l := range streamLens {
		if l > maxLen {
			maxLen = l
		}
	}

	streams := make([][]byte, len(streamLens))
	for i, l := range streamLens {
		streams[i] = make([]byte, 0, l)
	}

	idx := 0
	for i := 0; i < maxLen; i++ {
		for j, l := range streamLens {
			if i < l {
				if idx >= len(merged) {
					return nil, errs.ErrUnexpectedEOF
				}
				streams[j] = append(streams[j], merged[idx])
				idx++
			}
		}
	}
	if idx != len(merged) {
		return nil, errs.ErrInvalidFormat
	}

	return streams, nil
}

// mergeRoundRobinData reassembles n logical data bytes from their per-stream
// decoded form, inverting splitRoundRobin.
func mergeRoundRobinData(streams [][]byte, n int) []byte {
	out := make([]byte, n)
	cursor := make([]int, len(streams))
	f := len(streams)
	for i := 0; i < n; i++ {
		j := i % f
		out[i] = streams[j][cursor[j]]
		cursor[j]++
	}

	return out
}
