package ocrypto

import (
	"encoding/hex"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/require"
)

func TestKeccak256Deterministic(t *testing.T) {
	h1 := Keccak256([]byte("hello world"))
	h2 := Keccak256([]byte("hello world"))
	require.Equal(t, h1, h2)
	require.Len(t, hex.EncodeToString(h1[:]), 64)
	require.NotEqual(t, Keccak256([]byte("hello world!")), h1)
}

func TestKeccak256KnownAnswerVectors(t *testing.T) {
	// Original Keccak (pre-standardization padding, not NIST SHA3-256),
	// matching the construction Ethereum and this package both use.
	cases := []struct {
		input string
		want  string
	}{
		{input: "", want: "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
		{input: "abc", want: "4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45"},
	}
	for _, tc := range cases {
		got := Keccak256([]byte(tc.input))
		require.Equal(t, tc.want, hex.EncodeToString(got[:]), "keccak256(%q)", tc.input)
	}
}

func TestKeccak256Concatenates(t *testing.T) {
	whole := Keccak256([]byte("hello "), []byte("world"))
	split := Keccak256([]byte("hello world"))
	require.Equal(t, split, whole)
}

func TestPad32(t *testing.T) {
	w := Pad32([]byte{0x01, 0x02})
	require.Equal(t, byte(0x01), w[30])
	require.Equal(t, byte(0x02), w[31])
	for i := 0; i < 30; i++ {
		require.Zero(t, w[i])
	}
}

func TestPad32PanicsOnOversizedInput(t *testing.T) {
	require.Panics(t, func() {
		Pad32(make([]byte, 33))
	})
}

func TestBool32(t *testing.T) {
	require.Equal(t, [32]byte{}, Bool32(false))
	f := Bool32(true)
	require.Equal(t, byte(1), f[31])
}

func TestSignAndRecoverRoundTrip(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	want := AddressFromPublicKey(priv.PubKey())
	target := EthSignedMessageHash(EIP712Hash(Keccak256([]byte("domain")), Keccak256([]byte("request"))))

	sig := SignHash(priv, target)
	got, err := RecoverSigner(sig, target)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestRecoverSignerFailsOnGarbageSignature(t *testing.T) {
	var sig Signature
	_, err := RecoverSigner(sig, Keccak256([]byte("x")))
	require.Error(t, err)
}

func TestRecoverSignerDetectsTamperedHash(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	target := Keccak256([]byte("request"))
	sig := SignHash(priv, target)

	tampered := Keccak256([]byte("different request"))
	got, err := RecoverSigner(sig, tampered)
	require.NoError(t, err)
	require.NotEqual(t, AddressFromPublicKey(priv.PubKey()), got)
}
