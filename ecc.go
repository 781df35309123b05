package vstorage

import (
	"fmt"

	"github.com/vstorageio/vstorage/internal/rs"
)

// eccEncode partitions data into rsDataLen-byte chunks, zero-padding the
// last if short, and Reed-Solomon encodes each into a 255-byte block.
func eccEncode(data []byte, eccLen uint8) ([]byte, error) {
	rsDataLen := 255 - int(eccLen)
	codec, err := rs.New(rsDataLen, int(eccLen))
	if err != nil {
		return nil, wrapErr(KindEcc, err, "configure RS codec")
	}

	var out []byte
	for off := 0; off < len(data); off += rsDataLen {
		end := off + rsDataLen
		var chunk []byte
		if end <= len(data) {
			chunk = data[off:end]
		} else {
			chunk = make([]byte, rsDataLen)
			copy(chunk, data[off:])
		}
		block, err := codec.Encode(chunk)
		if err != nil {
			return nil, wrapErr(KindEcc, err, "encode RS block at offset %d", off)
		}
		out = append(out, block...)
	}
	if len(data) == 0 {
		// Still emit one block so a zero-length payload round-trips.
		chunk := make([]byte, rsDataLen)
		block, err := codec.Encode(chunk)
		if err != nil {
			return nil, wrapErr(KindEcc, err, "encode empty RS block")
		}
		out = append(out, block...)
	}
	return out, nil
}

// eccDecode corrects and concatenates the 255-byte RS blocks in data,
// truncating the result to expectedDataLen.
func eccDecode(data []byte, eccLen uint8, expectedDataLen int) ([]byte, error) {
	rsDataLen := 255 - int(eccLen)
	codec, err := rs.New(rsDataLen, int(eccLen))
	if err != nil {
		return nil, wrapErr(KindEcc, err, "configure RS codec")
	}

	needBlocks := (expectedDataLen + rsDataLen - 1) / rsDataLen
	if needBlocks == 0 {
		needBlocks = 1
	}
	gotBlocks := len(data) / 255
	if gotBlocks < needBlocks {
		return nil, newErr(KindEcc, "insufficient data")
	}

	out := make([]byte, 0, gotBlocks*rsDataLen)
	for i := 0; i < needBlocks; i++ {
		block := data[i*255 : (i+1)*255]
		chunk, err := codec.Decode(block)
		if err != nil {
			return nil, wrapErr(KindEcc, err, "RS correction failed on block %d", i)
		}
		out = append(out, chunk...)
	}
	if len(out) < expectedDataLen {
		return nil, fmt.Errorf("vstorage: ecc: decoded %d bytes, expected at least %d", len(out), expectedDataLen)
	}
	return out[:expectedDataLen], nil
}
