package usm

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"encoding/binary"
)

// desLocalizedKeySize is the length of the localized key material DES
// privacy draws from: 8 bytes of cipher key followed by 8 bytes of
// "pre-IV", per RFC 3414 section 8.1.1.1.
const desLocalizedKeySize = 16

// EncryptDES encrypts plaintext with DES-CBC. The privacy key and pre-IV
// are localized from password under protocol (the user's authentication
// protocol, as USM defines no separate privacy hash) and engineID. salt
// must never repeat for the same (engineID, password, protocol) triple;
// callers obtain it from SecurityContext.NextDESSalt. Zero-length plaintext is legal
// and yields zero-length ciphertext.
func EncryptDES(protocol AuthProtocol, password string, engineID []byte, engineBoots uint32, salt uint32, plaintext []byte) (ciphertext, privacyParameters []byte, err error) {
	key, preIV, err := desKeyAndPreIV(protocol, password, engineID)
	if err != nil {
		return nil, nil, err
	}

	privacyParameters = make([]byte, 8)
	binary.BigEndian.PutUint32(privacyParameters[0:4], engineBoots)
	binary.BigEndian.PutUint32(privacyParameters[4:8], salt)

	iv := xorIV(preIV[:], privacyParameters)

	block, err := des.NewCipher(key[:])
	if err != nil {
		return nil, nil, ErrDecryptionFailed
	}

	padded := padToBlock(plaintext, des.BlockSize)
	ciphertext = make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return ciphertext, privacyParameters, nil
}

// DecryptDES reverses EncryptDES. privacyParameters is the 8-byte salt
// field received on the wire (engineBoots||salt).
func DecryptDES(protocol AuthProtocol, password string, engineID []byte, privacyParameters, ciphertext []byte) ([]byte, error) {
	if len(privacyParameters) != 8 {
		return nil, ErrDecryptionFailed
	}
	if len(ciphertext)%des.BlockSize != 0 {
		return nil, ErrDecryptionFailed
	}

	key, preIV, err := desKeyAndPreIV(protocol, password, engineID)
	if err != nil {
		return nil, err
	}

	iv := xorIV(preIV[:], privacyParameters)

	block, err := des.NewCipher(key[:])
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	return plaintext, nil
}

func desKeyAndPreIV(protocol AuthProtocol, password string, engineID []byte) (key [8]byte, preIV [8]byte, err error) {
	material, err := deriveKeyMaterial(protocol, password, engineID, desLocalizedKeySize)
	if err != nil {
		return key, preIV, err
	}
	copy(key[:], material[:8])
	copy(preIV[:], material[8:16])
	return key, preIV, nil
}

func xorIV(preIV, salt []byte) []byte {
	iv := make([]byte, len(preIV))
	for i := range iv {
		iv[i] = preIV[i] ^ salt[i]
	}
	return iv
}

func padToBlock(plaintext []byte, blockSize int) []byte {
	rem := len(plaintext) % blockSize
	if rem == 0 {
		return plaintext
	}
	return append(append([]byte{}, plaintext...), make([]byte, blockSize-rem)...)
}

// EncryptAES encrypts plaintext with AES-CFB-128/192/256, selected by
// keySize (16, 24, or 32 bytes). The 16-byte IV is engineBoots||engineTime
// ||salt, where salt is an 8-byte value that must never repeat for the
// same (engineID, password, protocol) triple.
func EncryptAES(keySize int, protocol AuthProtocol, password string, engineID []byte, engineBoots, engineTime uint32, salt uint64, plaintext []byte) (ciphertext, privacyParameters []byte, err error) {
	key, err := deriveKeyMaterial(protocol, password, engineID, keySize)
	if err != nil {
		return nil, nil, err
	}

	privacyParameters = make([]byte, 8)
	binary.BigEndian.PutUint64(privacyParameters, salt)

	iv := aesIV(engineBoots, engineTime, privacyParameters)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, ErrDecryptionFailed
	}

	ciphertext = make([]byte, len(plaintext))
	cipher.NewCFBEncrypter(block, iv).XORKeyStream(ciphertext, plaintext)
	return ciphertext, privacyParameters, nil
}

// DecryptAES reverses EncryptAES. privacyParameters is the 8-byte salt
// field received on the wire; engineBoots/engineTime come from the
// decoded message's security parameters.
func DecryptAES(keySize int, protocol AuthProtocol, password string, engineID []byte, engineBoots, engineTime uint32, privacyParameters, ciphertext []byte) ([]byte, error) {
	if len(privacyParameters) != 8 {
		return nil, ErrDecryptionFailed
	}

	key, err := deriveKeyMaterial(protocol, password, engineID, keySize)
	if err != nil {
		return nil, err
	}

	iv := aesIV(engineBoots, engineTime, privacyParameters)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCFBDecrypter(block, iv).XORKeyStream(plaintext, ciphertext)
	return plaintext, nil
}

func aesIV(engineBoots, engineTime uint32, salt []byte) []byte {
	iv := make([]byte, 16)
	binary.BigEndian.PutUint32(iv[0:4], engineBoots)
	binary.BigEndian.PutUint32(iv[4:8], engineTime)
	copy(iv[8:16], salt)
	return iv
}
