package vstorage

import (
	"bytes"
	"testing"
)

func sampleHeader() FrameHeader {
	h := FrameHeader{
		Version:     ProtocolVersion,
		FrameNumber: 7,
		TotalFrames: 42,
		BlockSize:   2,
		Levels:      4,
		FileSize:    5000,
		DataLength:  1234,
		EccLen:      32,
		RSDataLen:   223,
	}
	copy(h.Nonce[:], bytes.Repeat([]byte{0xab}, len(h.Nonce)))
	copy(h.Salt[:], bytes.Repeat([]byte{0xcd}, len(h.Salt)))
	copy(h.DataSHA256[:], bytes.Repeat([]byte{0xef}, len(h.DataSHA256)))
	return h
}

func TestHeaderSerializeRoundTrip(t *testing.T) {
	h := sampleHeader()
	buf := h.Serialize()
	got, err := DeserializeHeader(buf[:])
	if err != nil {
		t.Fatalf("DeserializeHeader: %v", err)
	}
	if got != h {
		t.Errorf("got %+v, want %+v", got, h)
	}
}

func TestDeserializeHeaderRejectsBadMagic(t *testing.T) {
	h := sampleHeader()
	buf := h.Serialize()
	buf[0] = 'X'
	if _, err := DeserializeHeader(buf[:]); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestDeserializeHeaderRejectsBadVersion(t *testing.T) {
	h := sampleHeader()
	buf := h.Serialize()
	buf[4] = 99
	if _, err := DeserializeHeader(buf[:]); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestDeserializeHeaderRejectsShortBuffer(t *testing.T) {
	if _, err := DeserializeHeader(make([]byte, HeaderSize-1)); err == nil {
		t.Fatal("expected error for short buffer")
	}
}

func TestTripleHeaderSingleCopyCorruption(t *testing.T) {
	h := sampleHeader()
	triple := EncodeHeaderTriple(h)

	for copyIdx := 0; copyIdx < HeaderCopies; copyIdx++ {
		corrupted := make([]byte, len(triple))
		copy(corrupted, triple)
		start := copyIdx * HeaderSize
		for i := start; i < start+HeaderSize; i++ {
			corrupted[i] = 0xff
		}
		got, err := DecodeHeaderTriple(corrupted)
		if err != nil {
			t.Fatalf("copy %d corrupted: DecodeHeaderTriple: %v", copyIdx, err)
		}
		if got != h {
			t.Errorf("copy %d corrupted: got %+v, want %+v", copyIdx, got, h)
		}
	}
}

func TestTripleHeaderTooShort(t *testing.T) {
	if _, err := DecodeHeaderTriple(make([]byte, HeaderSize*HeaderCopies-1)); err == nil {
		t.Fatal("expected error for short triple header")
	}
}

func TestMajorityVoteTieBreaksToFirstCopy(t *testing.T) {
	if got := majorityVote(0x11, 0x22, 0x33); got != 0x11 {
		t.Errorf("majorityVote with no agreement = %#x, want first copy 0x11", got)
	}
}
