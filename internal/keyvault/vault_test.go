package keyvault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invisiblewallet/internal/common"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	blob, err := Encrypt(kp.PrivateKeyHex(), "correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, blob)

	plain, err := Decrypt(blob, "correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, kp.PrivateKeyHex(), plain)
}

func TestEncrypt_Randomized(t *testing.T) {
	a, err := Encrypt("0xabc", "pw")
	require.NoError(t, err)
	b, err := Encrypt("0xabc", "pw")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "fresh salt/nonce expected per encryption")
}

func TestDecrypt_WrongPassword(t *testing.T) {
	blob, err := Encrypt("0xdeadbeef", "pw1")
	require.NoError(t, err)

	plain, err := Decrypt(blob, "pw2")
	require.NoError(t, err)
	assert.Empty(t, plain)
}

func TestDecrypt_MalformedBlob(t *testing.T) {
	for _, blob := range []string{"not base64!!", "YWJj", "YWJjZGVmZ2hpamtsbW5vcA=="} {
		plain, err := Decrypt(blob, "pw")
		require.NoError(t, err, blob)
		assert.Empty(t, plain, blob)
	}
}

func TestEmptyInputsFailClosed(t *testing.T) {
	_, err := Encrypt("", "pw")
	assert.ErrorIs(t, err, common.ErrEncryptionInput)

	_, err = Encrypt("0x1", "")
	assert.ErrorIs(t, err, common.ErrEncryptionInput)

	_, err = Decrypt("", "pw")
	assert.ErrorIs(t, err, common.ErrEncryptionInput)

	_, err = Decrypt("blob", "")
	assert.ErrorIs(t, err, common.ErrEncryptionInput)
}
