// Package explode decompresses data produced by the PKWare Data Compression
// Library "implode" method, as found in InstallShield v3 archives.
//
// The stream starts with two header bytes: the literal coding (0 for raw
// bytes, 1 for Huffman coded literals) and the dictionary size in bits (4 to
// 6). A bit stream of literals and length/distance pairs follows, coded with
// fixed canonical Huffman tables. A length of 519 ends the stream.
package explode

import (
	"errors"
	"fmt"
)

// ErrCorrupt is matched by every *Error.
var ErrCorrupt = errors.New("explode: corrupt input")

// Status codes reported in Error.Code.
const (
	CodeIncomplete  = 2   // input ended before the end code
	CodeLiteralFlag = -1  // literal coding flag is neither 0 nor 1
	CodeDictionary  = -2  // dictionary size is not 4, 5 or 6
	CodeDistance    = -3  // distance reaches before the start of output
	CodeInvalidCode = -10 // bit pattern matches no Huffman code
)

const (
	maxBits          = 13
	endLength        = 519
	minDictionaryLog = 4
	maxDictionaryLog = 6
)

// Error reports why a stream could not be decompressed.
type Error struct {
	Code int
}

func (e *Error) Error() string {
	var msg string
	switch e.Code {
	case CodeIncomplete:
		msg = "input ended before end of stream"
	case CodeLiteralFlag:
		msg = "invalid literal coding flag"
	case CodeDictionary:
		msg = "invalid dictionary size"
	case CodeDistance:
		msg = "distance too far back"
	case CodeInvalidCode:
		msg = "invalid huffman code"
	default:
		msg = "unknown error"
	}
	return fmt.Sprintf("explode: %s (code %d)", msg, e.Code)
}

// Is reports ErrCorrupt as a match.
func (e *Error) Is(target error) bool { return target == ErrCorrupt }

// Compact run-length descriptions of the code lengths. Each byte is
// (count-1)<<4 | length.
var (
	litLen = []byte{
		11, 124, 8, 7, 28, 7, 188, 13, 76, 4, 10, 8, 12, 10, 12, 10, 8, 23, 8,
		9, 7, 6, 7, 8, 7, 6, 55, 8, 23, 24, 12, 11, 7, 9, 11, 12, 6, 7, 22, 5,
		7, 24, 6, 11, 9, 6, 7, 22, 7, 11, 38, 7, 9, 8, 25, 11, 8, 11, 9, 12,
		8, 12, 5, 38, 5, 38, 5, 11, 7, 5, 6, 21, 6, 10, 53, 8, 7, 24, 10, 27,
		44, 253, 253, 253, 252, 252, 252, 13, 12, 45, 12, 45, 12, 61, 12, 45,
		44, 173,
	}
	lenLen  = []byte{2, 35, 36, 53, 38, 23}
	distLen = []byte{2, 20, 53, 230, 247, 151, 248}

	lengthBase  = [16]int{3, 2, 4, 5, 6, 7, 8, 9, 10, 12, 16, 24, 40, 72, 136, 264}
	lengthExtra = [16]uint{0, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8}
)

var litCode, lenCode, distCode = mustHuffman(litLen), mustHuffman(lenLen), mustHuffman(distLen)

// huffman is a canonical code: the number of codes of each length and the
// symbols ordered by code.
type huffman struct {
	count  [maxBits + 1]int
	symbol []int
}

func mustHuffman(rep []byte) *huffman {
	var lengths []int
	for _, b := range rep {
		n := int(b>>4) + 1
		for ; n > 0; n-- {
			lengths = append(lengths, int(b&15))
		}
	}
	h := &huffman{symbol: make([]int, len(lengths))}
	for _, l := range lengths {
		h.count[l]++
	}
	left := 1
	for l := 1; l <= maxBits; l++ {
		left <<= 1
		left -= h.count[l]
		if left < 0 {
			panic("explode: over-subscribed code table")
		}
	}
	var offs [maxBits + 2]int
	for l := 1; l <= maxBits; l++ {
		offs[l+1] = offs[l] + h.count[l]
	}
	for sym, l := range lengths {
		if l != 0 {
			h.symbol[offs[l]] = sym
			offs[l]++
		}
	}
	return h
}

type state struct {
	in     []byte
	pos    int
	bitbuf uint
	bitcnt uint
	out    []byte
}

func (s *state) bits(need uint) (int, error) {
	for s.bitcnt < need {
		if s.pos >= len(s.in) {
			return 0, &Error{Code: CodeIncomplete}
		}
		s.bitbuf |= uint(s.in[s.pos]) << s.bitcnt
		s.pos++
		s.bitcnt += 8
	}
	v := s.bitbuf & (1<<need - 1)
	s.bitbuf >>= need
	s.bitcnt -= need
	return int(v), nil
}

// decode reads one symbol. Codes are stored bit-inverted, most significant
// bit first.
func (s *state) decode(h *huffman) (int, error) {
	code, first, index := 0, 0, 0
	for l := 1; l <= maxBits; l++ {
		b, err := s.bits(1)
		if err != nil {
			return 0, err
		}
		code |= b ^ 1
		count := h.count[l]
		if code-count < first {
			return h.symbol[index+(code-first)], nil
		}
		index += count
		first += count
		first <<= 1
		code <<= 1
	}
	return 0, &Error{Code: CodeInvalidCode}
}

// Decompress explodes the whole of in and returns the decompressed bytes.
// On error no output is returned.
func Decompress(in []byte) ([]byte, error) {
	s := &state{in: in, out: make([]byte, 0, len(in)*4)}
	if err := s.run(); err != nil {
		return nil, err
	}
	return s.out, nil
}

func (s *state) run() error {
	lit, err := s.bits(8)
	if err != nil {
		return err
	}
	if lit > 1 {
		return &Error{Code: CodeLiteralFlag}
	}
	dict, err := s.bits(8)
	if err != nil {
		return err
	}
	if dict < minDictionaryLog || dict > maxDictionaryLog {
		return &Error{Code: CodeDictionary}
	}

	for {
		isCopy, err := s.bits(1)
		if err != nil {
			return err
		}
		if isCopy == 0 {
			var sym int
			if lit == 1 {
				sym, err = s.decode(litCode)
			} else {
				sym, err = s.bits(8)
			}
			if err != nil {
				return err
			}
			s.out = append(s.out, byte(sym))
			continue
		}

		sym, err := s.decode(lenCode)
		if err != nil {
			return err
		}
		extra, err := s.bits(lengthExtra[sym])
		if err != nil {
			return err
		}
		length := lengthBase[sym] + extra
		if length == endLength {
			return nil
		}

		shift := uint(dict)
		if length == 2 {
			shift = 2
		}
		hi, err := s.decode(distCode)
		if err != nil {
			return err
		}
		lo, err := s.bits(shift)
		if err != nil {
			return err
		}
		dist := hi<<shift + lo + 1
		if dist > len(s.out) {
			return &Error{Code: CodeDistance}
		}
		// Copies may overlap their own output.
		from := len(s.out) - dist
		for i := 0; i < length; i++ {
			s.out = append(s.out, s.out[from+i])
		}
	}
}
