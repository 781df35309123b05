// Package rs implements Reed-Solomon coding over GF(256) with the standard
// primitive polynomial x^8+x^4+x^3+x^2+1 (0x11d) and generator element 2,
// the same field used by QR codes, CDs, and DVB. Unlike erasure-coding
// libraries (which require the caller to know which shards are missing),
// this package performs classical syndrome-based error *correction*: it
// locates and fixes up to floor(eccLen/2) corrupted bytes anywhere in a
// block without being told where they are, via Berlekamp-Massey, Chien
// search, and the Forney algorithm.
package rs

import "fmt"

const primPoly = 0x11d

type field struct {
	exp [510]byte
	log [256]byte
}

func newField() *field {
	f := &field{}
	x := 1
	for i := 0; i < 255; i++ {
		f.exp[i] = byte(x)
		f.log[x] = byte(i)
		x <<= 1
		if x&0x100 != 0 {
			x ^= primPoly
		}
	}
	for i := 255; i < 510; i++ {
		f.exp[i] = f.exp[i-255]
	}
	return f
}

var gf = newField()

func gfMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return gf.exp[int(gf.log[a])+int(gf.log[b])]
}

func gfDiv(a, b byte) byte {
	if b == 0 {
		panic("rs: division by zero in GF(256)")
	}
	if a == 0 {
		return 0
	}
	e := int(gf.log[a]) - int(gf.log[b])
	if e < 0 {
		e += 255
	}
	return gf.exp[e]
}

func gfPow(a byte, power int) byte {
	if a == 0 {
		if power == 0 {
			return 1
		}
		return 0
	}
	e := (int(gf.log[a]) * power) % 255
	if e < 0 {
		e += 255
	}
	return gf.exp[e]
}

func gfInverse(a byte) byte {
	return gf.exp[255-int(gf.log[a])]
}

// Polynomials are represented as byte slices with index 0 holding the
// highest-degree coefficient, matching the order bytes are transmitted in.

func polyScale(p []byte, x byte) []byte {
	r := make([]byte, len(p))
	for i, c := range p {
		r[i] = gfMul(c, x)
	}
	return r
}

func polyAdd(p, q []byte) []byte {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	r := make([]byte, n)
	copy(r[n-len(p):], p)
	for i, c := range q {
		r[i+n-len(q)] ^= c
	}
	return r
}

func polyMul(p, q []byte) []byte {
	if len(p) == 0 || len(q) == 0 {
		return nil
	}
	r := make([]byte, len(p)+len(q)-1)
	for j, qj := range q {
		if qj == 0 {
			continue
		}
		for i, pi := range p {
			r[i+j] ^= gfMul(pi, qj)
		}
	}
	return r
}

func polyEval(p []byte, x byte) byte {
	y := p[0]
	for i := 1; i < len(p); i++ {
		y = gfMul(y, x) ^ p[i]
	}
	return y
}

// polyDiv performs synthetic division of dividend by a monic divisor,
// returning quotient and remainder.
func polyDiv(dividend, divisor []byte) (quotient, remainder []byte) {
	out := make([]byte, len(dividend))
	copy(out, dividend)
	normalizer := divisor[0]
	for i := 0; i <= len(dividend)-len(divisor); i++ {
		coef := out[i]
		if normalizer != 1 {
			coef = gfDiv(coef, normalizer)
			out[i] = coef
		}
		if coef != 0 {
			for j := 1; j < len(divisor); j++ {
				if divisor[j] != 0 {
					out[i+j] ^= gfMul(divisor[j], coef)
				}
			}
		}
	}
	sep := len(dividend) - (len(divisor) - 1)
	return out[:sep], out[sep:]
}

func reversePoly(p []byte) []byte {
	r := make([]byte, len(p))
	for i, c := range p {
		r[len(p)-1-i] = c
	}
	return r
}

func generatorPoly(nsym int) []byte {
	g := []byte{1}
	for i := 0; i < nsym; i++ {
		g = polyMul(g, []byte{1, gfPow(2, i)})
	}
	return g
}

// encodeParity returns the nsym Reed-Solomon parity bytes for data.
func encodeParity(data []byte, nsym int) []byte {
	gen := generatorPoly(nsym)
	buf := make([]byte, len(data)+nsym)
	copy(buf, data)
	for i := 0; i < len(data); i++ {
		coef := buf[i]
		if coef != 0 {
			for j := 0; j < len(gen); j++ {
				buf[i+j] ^= gfMul(gen[j], coef)
			}
		}
	}
	return buf[len(data):]
}

func calcSyndromes(msg []byte, nsym int) []byte {
	synd := make([]byte, nsym)
	for i := 0; i < nsym; i++ {
		synd[i] = polyEval(msg, gfPow(2, i))
	}
	return synd
}

// findErrorLocator runs the Berlekamp-Massey algorithm over the syndromes
// to find the error locator polynomial sigma(x), whose degree is the
// number of errors.
func findErrorLocator(synd []byte, nsym int) ([]byte, error) {
	errLoc := []byte{1}
	oldLoc := []byte{1}
	for i := 0; i < nsym; i++ {
		delta := synd[i]
		for j := 1; j < len(errLoc); j++ {
			delta ^= gfMul(errLoc[len(errLoc)-1-j], synd[i-j])
		}
		oldLoc = append(oldLoc, 0)
		if delta != 0 {
			if len(oldLoc) > len(errLoc) {
				newLoc := polyScale(oldLoc, delta)
				oldLoc = polyScale(errLoc, gfInverse(delta))
				errLoc = newLoc
			}
			errLoc = polyAdd(errLoc, polyScale(oldLoc, delta))
		}
	}
	start := 0
	for start < len(errLoc) && errLoc[start] == 0 {
		start++
	}
	errLoc = errLoc[start:]
	errs := len(errLoc) - 1
	if errs*2 > nsym {
		return nil, fmt.Errorf("rs: too many errors to correct")
	}
	return errLoc, nil
}

// findErrors locates the roots of errLoc via Chien search, returning the
// corrupted byte positions within a message of length msgLen.
func findErrors(errLoc []byte, msgLen int) ([]int, error) {
	errs := len(errLoc) - 1
	rev := reversePoly(errLoc)
	var errPos []int
	for i := 0; i < msgLen; i++ {
		if polyEval(rev, gfPow(2, i)) == 0 {
			errPos = append(errPos, msgLen-1-i)
		}
	}
	if len(errPos) != errs {
		return nil, fmt.Errorf("rs: could not locate all errors (found %d, expected %d)", len(errPos), errs)
	}
	return errPos, nil
}

func errataLocator(coefPos []int) []byte {
	loc := []byte{1}
	for _, i := range coefPos {
		loc = polyMul(loc, []byte{gfPow(2, i), 1})
	}
	return loc
}

func findErrorEvaluator(revSynd, errataLoc []byte, numErrors int) []byte {
	divisor := make([]byte, numErrors+2)
	divisor[0] = 1
	_, remainder := polyDiv(polyMul(revSynd, errataLoc), divisor)
	return remainder
}

// correctErrata applies the Forney algorithm to compute error magnitudes at
// errPos and returns the corrected message.
func correctErrata(msg, synd []byte, errPos []int) ([]byte, error) {
	msgLen := len(msg)
	coefPos := make([]int, len(errPos))
	for i, p := range errPos {
		coefPos[i] = msgLen - 1 - p
	}
	errataLoc := errataLocator(coefPos)

	fullSynd := append([]byte{0}, synd...)
	errEval := findErrorEvaluator(reversePoly(fullSynd), errataLoc, len(errataLoc)-1)

	x := make([]byte, len(coefPos))
	for i, cp := range coefPos {
		x[i] = gfPow(2, cp)
	}

	e := make([]byte, msgLen)
	for i, xi := range x {
		xiInv := gfInverse(xi)
		prime := byte(1)
		for j, xj := range x {
			if j != i {
				prime = gfMul(prime, 1^gfMul(xiInv, xj))
			}
		}
		if prime == 0 {
			return nil, fmt.Errorf("rs: could not compute error magnitude")
		}
		y := gfMul(xi, polyEval(errEval, xiInv))
		e[errPos[i]] = gfDiv(y, prime)
	}

	out := make([]byte, msgLen)
	for i := range msg {
		out[i] = msg[i] ^ e[i]
	}
	return out, nil
}

// Codec implements RS(dataLen+eccLen, dataLen) over GF(256): BlockSize()
// bytes out for dataLen bytes in, correcting up to eccLen/2 byte errors
// anywhere in the block on decode.
type Codec struct {
	dataLen int
	eccLen  int
}

// New returns a Codec for the given data and parity lengths. dataLen+eccLen
// must fit in a single 255-byte GF(256) block.
func New(dataLen, eccLen int) (*Codec, error) {
	if dataLen <= 0 {
		return nil, fmt.Errorf("rs: dataLen must be > 0")
	}
	if eccLen <= 0 {
		return nil, fmt.Errorf("rs: eccLen must be > 0")
	}
	if dataLen+eccLen > 255 {
		return nil, fmt.Errorf("rs: dataLen+eccLen must be <= 255, got %d", dataLen+eccLen)
	}
	return &Codec{dataLen: dataLen, eccLen: eccLen}, nil
}

// BlockSize returns dataLen + eccLen.
func (c *Codec) BlockSize() int { return c.dataLen + c.eccLen }

// DataLen returns the configured data length.
func (c *Codec) DataLen() int { return c.dataLen }

// EccLen returns the configured parity length.
func (c *Codec) EccLen() int { return c.eccLen }

// Encode returns a BlockSize()-byte systematic codeword (data followed by
// parity) for a dataLen-byte data slice.
func (c *Codec) Encode(data []byte) ([]byte, error) {
	if len(data) != c.dataLen {
		return nil, fmt.Errorf("rs: Encode: data must be exactly %d bytes, got %d", c.dataLen, len(data))
	}
	parity := encodeParity(data, c.eccLen)
	block := make([]byte, 0, c.BlockSize())
	block = append(block, data...)
	block = append(block, parity...)
	return block, nil
}

// Decode corrects up to eccLen/2 byte errors anywhere in a BlockSize()-byte
// block and returns its dataLen-byte data portion.
func (c *Codec) Decode(block []byte) ([]byte, error) {
	if len(block) != c.BlockSize() {
		return nil, fmt.Errorf("rs: Decode: block must be exactly %d bytes, got %d", c.BlockSize(), len(block))
	}
	msg := make([]byte, len(block))
	copy(msg, block)

	synd := calcSyndromes(msg, c.eccLen)
	clean := true
	for _, s := range synd {
		if s != 0 {
			clean = false
			break
		}
	}
	if clean {
		return msg[:c.dataLen], nil
	}

	errLoc, err := findErrorLocator(synd, c.eccLen)
	if err != nil {
		return nil, err
	}
	errPos, err := findErrors(errLoc, len(msg))
	if err != nil {
		return nil, err
	}
	corrected, err := correctErrata(msg, synd, errPos)
	if err != nil {
		return nil, err
	}

	verify := calcSyndromes(corrected, c.eccLen)
	for _, s := range verify {
		if s != 0 {
			return nil, fmt.Errorf("rs: correction failed: residual errors remain")
		}
	}
	return corrected[:c.dataLen], nil
}
