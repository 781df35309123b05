package vstorage

import (
	"encoding/binary"
)

// HeaderSize is the fixed, big-endian wire size of one FrameHeader.
const HeaderSize = 90

// HeaderCopies is the number of times a serialized header is concatenated
// on the wire for majority-vote redundancy.
const HeaderCopies = 3

// magic identifies the start of a valid frame header.
var magic = [4]byte{'V', 'S', 'T', 'R'}

// FrameHeader carries the per-frame metadata every frame in a video repeats
// identically (invariant I6), except for FrameNumber, DataLength and
// DataSHA256.
type FrameHeader struct {
	Version     uint8
	FrameNumber uint32
	TotalFrames uint32
	BlockSize   uint8
	Levels      uint8
	FileSize    uint64
	DataLength  uint32
	EccLen      uint8
	RSDataLen   uint16
	Nonce       [12]byte
	Salt        [16]byte
	DataSHA256  [32]byte
}

// Serialize writes h to the fixed 90-byte big-endian wire layout.
func (h FrameHeader) Serialize() [HeaderSize]byte {
	var buf [HeaderSize]byte
	copy(buf[0:4], magic[:])
	buf[4] = h.Version
	binary.BigEndian.PutUint32(buf[5:9], h.FrameNumber)
	binary.BigEndian.PutUint32(buf[9:13], h.TotalFrames)
	buf[13] = h.BlockSize
	buf[14] = h.Levels
	binary.BigEndian.PutUint64(buf[15:23], h.FileSize)
	binary.BigEndian.PutUint32(buf[23:27], h.DataLength)
	buf[27] = h.EccLen
	binary.BigEndian.PutUint16(buf[28:30], h.RSDataLen)
	copy(buf[30:42], h.Nonce[:])
	copy(buf[42:58], h.Salt[:])
	copy(buf[58:90], h.DataSHA256[:])
	return buf
}

// DeserializeHeader parses a FrameHeader from buf, validating the magic and
// protocol version.
func DeserializeHeader(buf []byte) (FrameHeader, error) {
	var h FrameHeader
	if len(buf) < HeaderSize {
		return h, newErr(KindHeader, "buffer too short: got %d bytes, need %d", len(buf), HeaderSize)
	}
	if string(buf[0:4]) != string(magic[:]) {
		return h, newErr(KindHeader, "invalid magic")
	}
	version := buf[4]
	if version != ProtocolVersion {
		return h, newErr(KindHeader, "unsupported version")
	}
	h.Version = version
	h.FrameNumber = binary.BigEndian.Uint32(buf[5:9])
	h.TotalFrames = binary.BigEndian.Uint32(buf[9:13])
	h.BlockSize = buf[13]
	h.Levels = buf[14]
	h.FileSize = binary.BigEndian.Uint64(buf[15:23])
	h.DataLength = binary.BigEndian.Uint32(buf[23:27])
	h.EccLen = buf[27]
	h.RSDataLen = binary.BigEndian.Uint16(buf[28:30])
	copy(h.Nonce[:], buf[30:42])
	copy(h.Salt[:], buf[42:58])
	copy(h.DataSHA256[:], buf[58:90])
	return h, nil
}

// EncodeHeaderTriple concatenates three identical serialized copies of h.
func EncodeHeaderTriple(h FrameHeader) []byte {
	ser := h.Serialize()
	out := make([]byte, 0, HeaderSize*HeaderCopies)
	for i := 0; i < HeaderCopies; i++ {
		out = append(out, ser[:]...)
	}
	return out
}

// DecodeHeaderTriple recovers a FrameHeader from HeaderCopies concatenated
// serialized copies, via byte-wise majority vote. A disagreeing byte with
// no majority falls back deterministically to the first copy.
func DecodeHeaderTriple(data []byte) (FrameHeader, error) {
	if len(data) < HeaderSize*HeaderCopies {
		return FrameHeader{}, newErr(KindHeader, "triple header data too short: got %d bytes, need %d", len(data), HeaderSize*HeaderCopies)
	}
	h1 := data[0:HeaderSize]
	h2 := data[HeaderSize : HeaderSize*2]
	h3 := data[HeaderSize*2 : HeaderSize*3]

	voted := make([]byte, HeaderSize)
	for i := 0; i < HeaderSize; i++ {
		voted[i] = majorityVote(h1[i], h2[i], h3[i])
	}
	return DeserializeHeader(voted)
}

func majorityVote(a, b, c byte) byte {
	switch {
	case a == b || a == c:
		return a
	case b == c:
		return b
	default:
		return a
	}
}
