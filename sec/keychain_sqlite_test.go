package sec_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Atsuko87/ccnx-sub001/name"
	"github.com/Atsuko87/ccnx-sub001/sec"
)

func mustName(t *testing.T, uri string) name.Name {
	t.Helper()
	n, err := name.FromURI(uri)
	require.NoError(t, err)
	return n
}

func TestKeychainPutGetRoundTrip(t *testing.T) {
	kc, err := sec.OpenKeychain(filepath.Join(t.TempDir(), "keys.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, kc.Close()) })

	identity := mustName(t, "/local/ccnfwd")
	keyName := mustName(t, "/local/ccnfwd/KEY/default")

	signer, err := kc.Put(identity, keyName, true)
	require.NoError(t, err)

	loaded, err := kc.Get(keyName)
	require.NoError(t, err)
	require.Equal(t, signer.KeyName().String(), loaded.KeyName().String())

	def, err := kc.DefaultKey(identity)
	require.NoError(t, err)
	require.Equal(t, signer.KeyName().String(), def.KeyName().String())
}

func TestKeychainPassphraseSealsKeyMaterial(t *testing.T) {
	kc, err := sec.OpenKeychain(filepath.Join(t.TempDir(), "keys.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, kc.Close()) })
	require.NoError(t, kc.UsePassphrase([]byte("correct horse battery staple")))

	identity := mustName(t, "/local/ccnr")
	keyName := mustName(t, "/local/ccnr/KEY/default")
	signer, err := kc.Put(identity, keyName, true)
	require.NoError(t, err)

	loaded, err := kc.DefaultKey(identity)
	require.NoError(t, err)
	require.Equal(t, signer.KeyName().String(), loaded.KeyName().String())
}

func TestKeychainWrongPassphraseFailsToUnseal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.db")
	kc, err := sec.OpenKeychain(path)
	require.NoError(t, err)
	require.NoError(t, kc.UsePassphrase([]byte("right-passphrase")))

	identity := mustName(t, "/local/ccnr")
	keyName := mustName(t, "/local/ccnr/KEY/default")
	_, err = kc.Put(identity, keyName, true)
	require.NoError(t, err)
	require.NoError(t, kc.Close())

	reopened, err := sec.OpenKeychain(path)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, reopened.Close()) })
	require.NoError(t, reopened.UsePassphrase([]byte("wrong-passphrase")))

	_, err = reopened.DefaultKey(identity)
	require.Error(t, err)
}
