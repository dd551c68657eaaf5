package rf4ce

import (
	"crypto/aes"
	"encoding/binary"
)

// micLen is the length of the CCM* message integrity code RF4CE
// security level 5 always uses. No other security level is supported.
const micLen = 4

// Nonce builds the 13-byte CCM* nonce for a frame originated by
// sourceLong at the given frame counter: the source's wire-order long
// address, the little-endian frame counter, and the fixed security
// level byte 0x05.
func Nonce(sourceLong LongAddress, frameCounter uint32) []byte {
	nonce := make([]byte, 13)
	copy(nonce[0:8], sourceLong.Wire())
	binary.LittleEndian.PutUint32(nonce[8:12], frameCounter)
	nonce[12] = 0x05
	return nonce
}

// AAD builds the additional authenticated data covering the frame
// control byte, the frame counter, and the destination's long address.
func AAD(frameControl byte, frameCounter uint32, destLong LongAddress) []byte {
	a := make([]byte, 13)
	a[0] = frameControl
	binary.LittleEndian.PutUint32(a[1:5], frameCounter)
	copy(a[5:13], destLong.Wire())
	return a
}

// pad128 zero-pads data up to the next 16-byte boundary.
func pad128(data []byte) []byte {
	rem := len(data) % 16
	if rem == 0 {
		return data
	}
	out := make([]byte, len(data)+(16-rem))
	copy(out, data)
	return out
}

func ccmBlockCipher(key []byte) (func(dst, src []byte), error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return func(dst, src []byte) { block.Encrypt(dst, src) }, nil
}

// ccmAuth computes the CCM* CBC-MAC tag (truncated to micLen bytes)
// over aad and plaintext under nonce, per the construction in
// original_source/rf4ce/rf4ce.py's Rf4ceAES.gen_auth.
func ccmAuth(encrypt func(dst, src []byte), nonce, aad, plaintext []byte) []byte {
	lenPrefix := make([]byte, 2)
	binary.BigEndian.PutUint16(lenPrefix, uint16(len(aad)))
	authData := append(pad128(append(append([]byte{}, lenPrefix...), aad...)), pad128(plaintext)...)

	b0 := make([]byte, 16)
	b0[0] = 0x49
	copy(b0[1:14], nonce)
	binary.BigEndian.PutUint16(b0[14:16], uint16(len(plaintext)))

	x := make([]byte, 16)
	encrypt(x, b0)

	xored := make([]byte, 16)
	for off := 0; off < len(authData); off += 16 {
		block := authData[off : off+16]
		for i := range xored {
			xored[i] = x[i] ^ block[i]
		}
		encrypt(x, xored)
	}
	return x[:micLen]
}

func ccmKeystream(encrypt func(dst, src []byte), nonce []byte, numBlocks int) [][]byte {
	stream := make([][]byte, numBlocks+1)
	a := make([]byte, 16)
	a[0] = 0x01
	copy(a[1:14], nonce)
	for i := 0; i <= numBlocks; i++ {
		binary.BigEndian.PutUint16(a[14:16], uint16(i))
		out := make([]byte, 16)
		encrypt(out, a)
		stream[i] = out
	}
	return stream
}

// CCMEncrypt authenticates and encrypts plaintext under key, nonce, and
// aad, returning ciphertext with the 4-byte MIC appended.
func CCMEncrypt(key, nonce, aad, plaintext []byte) ([]byte, error) {
	encrypt, err := ccmBlockCipher(key)
	if err != nil {
		return nil, err
	}

	tag := ccmAuth(encrypt, nonce, aad, plaintext)

	numBlocks := (len(plaintext) + 15) / 16
	stream := ccmKeystream(encrypt, nonce, numBlocks)

	u := make([]byte, micLen)
	for i := range u {
		u[i] = tag[i] ^ stream[0][i]
	}

	ciphertext := make([]byte, len(plaintext))
	keystream := make([]byte, 0, numBlocks*16)
	for i := 1; i <= numBlocks; i++ {
		keystream = append(keystream, stream[i]...)
	}
	for i := range ciphertext {
		ciphertext[i] = plaintext[i] ^ keystream[i]
	}

	return append(ciphertext, u...), nil
}

// CCMDecrypt verifies and decrypts ciphertext (which carries a trailing
// 4-byte MIC) under key, nonce, and aad. It returns an *AuthError if the
// recomputed tag doesn't match.
func CCMDecrypt(key, nonce, aad, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < micLen {
		return nil, &AuthError{Reason: "ciphertext shorter than MIC"}
	}
	body := ciphertext[:len(ciphertext)-micLen]
	u := ciphertext[len(ciphertext)-micLen:]

	encrypt, err := ccmBlockCipher(key)
	if err != nil {
		return nil, err
	}

	numBlocks := (len(body) + 15) / 16
	stream := ccmKeystream(encrypt, nonce, numBlocks)

	plaintext := make([]byte, len(body))
	keystream := make([]byte, 0, numBlocks*16)
	for i := 1; i <= numBlocks; i++ {
		keystream = append(keystream, stream[i]...)
	}
	for i := range plaintext {
		plaintext[i] = body[i] ^ keystream[i]
	}

	recoveredTag := make([]byte, micLen)
	for i := range recoveredTag {
		recoveredTag[i] = u[i] ^ stream[0][i]
	}

	expectedTag := ccmAuth(encrypt, nonce, aad, plaintext)
	for i := range expectedTag {
		if expectedTag[i] != recoveredTag[i] {
			return nil, &AuthError{Reason: "mic mismatch"}
		}
	}

	return plaintext, nil
}
