package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/boa-sdk-go/pkg/hash"
)

const commonsBudget = "boa1xrzwvvw6l6d9k84ansqgs9yrtsetpv44wfn8zm9a7lehuej3ssskxth867s"

func testSecret(t *testing.T, fill byte) SecretKey {
	t.Helper()

	raw := make([]byte, SecretKeyWidth)
	for i := range raw {
		raw[i] = fill
	}
	s, err := SecretKeyFromBytes(raw)
	require.NoError(t, err)
	return s
}

func TestSignAndVerify(t *testing.T) {
	kp := NewKeyPair(testSecret(t, 0x11))
	msg := hash.Sum([]byte("Hello World"))

	sig, err := kp.Secret.Sign(msg)
	require.NoError(t, err)
	assert.True(t, kp.Address.Verify(sig, msg))

	// Deterministic nonces.
	again, err := kp.Secret.Sign(msg)
	require.NoError(t, err)
	assert.Equal(t, sig, again)

	assert.False(t, kp.Address.Verify(sig, hash.Sum([]byte("Hello World!"))))

	tampered := sig
	tampered[10] ^= 0xFF
	assert.False(t, kp.Address.Verify(tampered, msg))

	other := NewKeyPair(testSecret(t, 0x22))
	assert.False(t, other.Address.Verify(sig, msg))
}

func TestGenerateKeyPairIsReproducible(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	restored, err := SecretKeyFromBytes(kp.Secret.Bytes())
	require.NoError(t, err)
	assert.Equal(t, kp.Address, NewKeyPair(restored).Address)

	msg := hash.Sum([]byte("reproduce"))
	sig, err := restored.Sign(msg)
	require.NoError(t, err)
	assert.True(t, kp.Address.Verify(sig, msg))
}

func TestSecretKeyValidation(t *testing.T) {
	_, err := SecretKeyFromBytes(make([]byte, 31))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = SecretKeyFromBytes(make([]byte, 32))
	assert.ErrorIs(t, err, ErrInvalidKey, "zero scalar")

	var empty SecretKey
	assert.False(t, empty.IsValid())
	_, err = empty.Sign(hash.Sum(nil))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestWIFRoundTrip(t *testing.T) {
	s := testSecret(t, 0x42)

	wif := s.WIF()
	require.NotEmpty(t, wif)

	parsed, err := ParseSecretKeyWIF(wif)
	require.NoError(t, err)
	assert.Equal(t, s.Bytes(), parsed.Bytes())

	corrupted := []byte(wif)
	corrupted[len(corrupted)-1] = '1'
	if string(corrupted) != wif {
		_, err = ParseSecretKeyWIF(string(corrupted))
		assert.Error(t, err)
	}
}

func TestAddressRoundTrip(t *testing.T) {
	pk, err := PublicKeyFromString(commonsBudget)
	require.NoError(t, err)
	assert.Equal(t,
		"c4e631dafe9a5b1ebd9c008814835c32b0b2b57266716cbdf7f37e6651842163",
		hex.EncodeToString(pk[:]))
	assert.Equal(t, commonsBudget, pk.String())

	kp := NewKeyPair(testSecret(t, 0x33))
	parsed, err := PublicKeyFromString(kp.Address.String())
	require.NoError(t, err)
	assert.Equal(t, kp.Address, parsed)
}

func TestAddressRejectsMalformed(t *testing.T) {
	for _, addr := range []string{
		"",
		"boa1xrzwvvw6l6d9k84ansqgs9yrtsetpv44wfn8zm9a7lehuej3ssskxth867q",
		"bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
	} {
		_, err := PublicKeyFromString(addr)
		assert.ErrorIs(t, err, ErrInvalidKey, addr)
	}
}

func TestPublicKeyText(t *testing.T) {
	pk := MustPublicKeyFromString(commonsBudget)

	text, err := pk.MarshalText()
	require.NoError(t, err)

	var decoded PublicKey
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, pk, decoded)
}
