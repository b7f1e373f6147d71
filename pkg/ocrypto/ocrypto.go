// Package ocrypto wraps the cryptographic primitives the engine needs:
// keccak-256 hashing, fixed-width ABI-style word encoding, and
// ECDSA signature recovery with Ethereum-style message wrapping. It is
// the "Primitives" component of the spec -- every other package builds
// on it rather than touching golang.org/x/crypto or
// github.com/decred/dcrd/dcrec/secp256k1 directly.
package ocrypto

import (
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

// Hash is a 32-byte keccak-256 digest.
type Hash [32]byte

// Bytes returns the digest's bytes.
func (h Hash) Bytes() []byte { return h[:] }

// String renders the digest as a 0x-prefixed hex string.
func (h Hash) String() string { return "0x" + hex.EncodeToString(h[:]) }

// IsZero reports whether h is the all-zero digest.
func (h Hash) IsZero() bool { return h == Hash{} }

// Bytes32 returns h as a plain [32]byte, letting a Hash be spliced into
// EncodeWords alongside other ABI words.
func (h Hash) Bytes32() [32]byte { return h }

// Address is a 20-byte account identifier, derived the Ethereum way:
// the low 20 bytes of the keccak-256 hash of the uncompressed public
// key.
type Address [20]byte

// String renders the address as a 0x-prefixed hex string.
func (a Address) String() string { return "0x" + hex.EncodeToString(a[:]) }

// Bytes returns the address's bytes.
func (a Address) Bytes() []byte { return a[:] }

// Signature is a 65-byte recoverable ECDSA signature, in the compact
// format produced by secp256k1/v4/ecdsa.SignCompact (1 recovery byte
// followed by r and s, 32 bytes each).
type Signature [65]byte

// Keccak256 hashes the concatenation of data with keccak-256 (the
// original Keccak, not the later NIST SHA3-256 -- the two diverge in
// padding, and the canonical rule hash must match whatever an
// off-chain prover computed).
func Keccak256(data ...[]byte) Hash {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	var h Hash
	d.Sum(h[:0])
	return h
}

// Pad32 left-pads b with zero bytes to a 32-byte ABI word. It panics if
// b is wider than 32 bytes, which would indicate a caller bug -- every
// value this engine encodes (hashes, addresses, flags) fits in a
// single word.
func Pad32(b []byte) [32]byte {
	if len(b) > 32 {
		panic("ocrypto: value wider than one ABI word")
	}
	var out [32]byte
	copy(out[32-len(b):], b)
	return out
}

// Bool32 encodes a bool as a 32-byte ABI word (all-zero, or 1 in the
// low byte).
func Bool32(b bool) [32]byte {
	var out [32]byte
	if b {
		out[31] = 1
	}
	return out
}

// EncodeWords concatenates a sequence of already-padded 32-byte ABI
// words, the fixed-width encoding the spec's canonical hashing relies
// on.
func EncodeWords(words ...[32]byte) []byte {
	buf := make([]byte, 0, 32*len(words))
	for _, w := range words {
		buf = append(buf, w[:]...)
	}
	return buf
}

// EthSignedMessageHash wraps a 32-byte hash the way an Ethereum-style
// wallet wraps a message before signing, binding the signature to this
// specific hashing scheme and preventing a raw-hash signature meant for
// another protocol from being replayed here.
func EthSignedMessageHash(hash Hash) Hash {
	return Keccak256([]byte("\x19Ethereum Signed Message:\n32"), hash[:])
}

// EIP712Hash combines a domain separator and a struct hash the way
// EIP-712 does: keccak256("\x19\x01" || domainSeparator || structHash).
func EIP712Hash(domainSeparator, structHash Hash) Hash {
	return Keccak256([]byte("\x19\x01"), domainSeparator[:], structHash[:])
}

// AddressFromPublicKey derives the Ethereum-style address of an
// uncompressed secp256k1 public key.
func AddressFromPublicKey(pub *secp256k1.PublicKey) Address {
	raw := pub.SerializeUncompressed()[1:] // drop the 0x04 prefix marker
	h := Keccak256(raw)
	var addr Address
	copy(addr[:], h[12:])
	return addr
}

// RecoverSigner recovers the signing address from a signature over
// target, the fully-wrapped hash produced by EthSignedMessageHash(
// EIP712Hash(...)).
func RecoverSigner(sig Signature, target Hash) (Address, error) {
	pub, _, err := ecdsa.RecoverCompact(sig[:], target[:])
	if err != nil {
		return Address{}, fmt.Errorf("ocrypto: recover signer: %w", err)
	}
	return AddressFromPublicKey(pub), nil
}

// SignHash signs target with priv, producing a signature RecoverSigner
// can recover. It exists for tests and off-chain prover simulation --
// the engine itself never signs, only verifies.
func SignHash(priv *secp256k1.PrivateKey, target Hash) Signature {
	raw := ecdsa.SignCompact(priv, target[:], false)
	var out Signature
	copy(out[:], raw)
	return out
}
