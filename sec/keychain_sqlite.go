package sec

import (
	"crypto/rand"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"

	"github.com/Atsuko87/ccnx-sub001/name"
)

// Keychain is a persistent identity store mapping key names to Ed25519
// signing keys, grounded on std/security/pib/sqlite-pib.go. The forwarder
// uses it to hold its registration-signing key; the repository uses it to
// hold the set of publisher keys it is willing to sign archived content
// with.
//
// Stored private keys are, by default, plain PKCS8. UsePassphrase seals
// them at rest instead: a reasonable hardening for a keychain file that
// otherwise sits on disk next to the daemon's other state.
type Keychain struct {
	db      *sql.DB
	sealKey *[32]byte
}

const schema = `
CREATE TABLE IF NOT EXISTS identities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	identity BLOB NOT NULL UNIQUE,
	is_default INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS keys (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	identity_id INTEGER NOT NULL REFERENCES identities(id),
	key_name BLOB NOT NULL UNIQUE,
	key_pkcs8 BLOB NOT NULL,
	is_default INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
);
`

const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 16
)

// UsePassphrase derives a sealing key from passphrase via scrypt (reusing
// a salt persisted on first use) and seals every key PUT or GET from this
// point on with NaCl secretbox. Keys already stored in plaintext, or
// sealed under a different passphrase, fail to decrypt on Get/DefaultKey.
func (kc *Keychain) UsePassphrase(passphrase []byte) error {
	salt, err := kc.loadOrCreateSalt()
	if err != nil {
		return fmt.Errorf("sec: keychain salt: %w", err)
	}
	raw, err := scrypt.Key(passphrase, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return fmt.Errorf("sec: deriving keychain seal key: %w", err)
	}
	var sealKey [32]byte
	copy(sealKey[:], raw)
	kc.sealKey = &sealKey
	return nil
}

func (kc *Keychain) loadOrCreateSalt() ([]byte, error) {
	row := kc.db.QueryRow("SELECT value FROM meta WHERE key = 'scrypt_salt'")
	var salt []byte
	if err := row.Scan(&salt); err == nil {
		return salt, nil
	} else if err != sql.ErrNoRows {
		return nil, err
	}
	salt = make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	_, err := kc.db.Exec("INSERT INTO meta (key, value) VALUES ('scrypt_salt', ?)", salt)
	return salt, err
}

// seal encrypts plain under the keychain's sealKey, or returns it
// unchanged if no passphrase has been set.
func (kc *Keychain) seal(plain []byte) ([]byte, error) {
	if kc.sealKey == nil {
		return plain, nil
	}
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], plain, &nonce, kc.sealKey), nil
}

// unseal reverses seal, or returns sealed unchanged if no passphrase is
// in use.
func (kc *Keychain) unseal(sealed []byte) ([]byte, error) {
	if kc.sealKey == nil {
		return sealed, nil
	}
	if len(sealed) < 24 {
		return nil, fmt.Errorf("sec: sealed key material too short")
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plain, ok := secretbox.Open(nil, sealed[24:], &nonce, kc.sealKey)
	if !ok {
		return nil, fmt.Errorf("sec: keychain passphrase mismatch or corrupt entry")
	}
	return plain, nil
}

// OpenKeychain opens (creating if necessary) a sqlite-backed keychain at
// path.
func OpenKeychain(path string) (*Keychain, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sec: open keychain: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sec: init keychain schema: %w", err)
	}
	return &Keychain{db: db}, nil
}

func (kc *Keychain) Close() error {
	return kc.db.Close()
}

func (kc *Keychain) identityID(identity name.Name, create bool) (int64, error) {
	wire := []byte(identity.String())
	row := kc.db.QueryRow("SELECT id FROM identities WHERE identity = ?", wire)
	var id int64
	err := row.Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows || !create {
		return 0, err
	}
	res, err := kc.db.Exec("INSERT INTO identities (identity) VALUES (?)", wire)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Put generates a fresh Ed25519 key under identity, persists it, and
// returns a Signer. If asDefault is set it becomes the identity's default
// signing key.
func (kc *Keychain) Put(identity name.Name, keyName name.Name, asDefault bool) (Signer, error) {
	identID, err := kc.identityID(identity, true)
	if err != nil {
		return nil, fmt.Errorf("sec: identityID: %w", err)
	}
	signer, pkcs8, err := KeygenEd25519(keyName)
	if err != nil {
		return nil, fmt.Errorf("sec: keygen: %w", err)
	}
	sealed, err := kc.seal(pkcs8)
	if err != nil {
		return nil, fmt.Errorf("sec: sealing key material: %w", err)
	}
	if asDefault {
		if _, err := kc.db.Exec("UPDATE keys SET is_default = 0 WHERE identity_id = ?", identID); err != nil {
			return nil, err
		}
	}
	_, err = kc.db.Exec(
		"INSERT INTO keys (identity_id, key_name, key_pkcs8, is_default) VALUES (?, ?, ?, ?)",
		identID, []byte(keyName.String()), sealed, boolToInt(asDefault),
	)
	if err != nil {
		return nil, fmt.Errorf("sec: insert key: %w", err)
	}
	return signer, nil
}

// Get loads a previously stored signing key by name.
func (kc *Keychain) Get(keyName name.Name) (Signer, error) {
	row := kc.db.QueryRow("SELECT key_pkcs8 FROM keys WHERE key_name = ?", []byte(keyName.String()))
	var sealed []byte
	if err := row.Scan(&sealed); err != nil {
		return nil, fmt.Errorf("sec: key %s: %w", keyName, err)
	}
	pkcs8, err := kc.unseal(sealed)
	if err != nil {
		return nil, fmt.Errorf("sec: key %s: %w", keyName, err)
	}
	return ParseEd25519(keyName, pkcs8)
}

// DefaultKey returns the identity's default signing key, or an error if the
// identity has none.
func (kc *Keychain) DefaultKey(identity name.Name) (Signer, error) {
	row := kc.db.QueryRow(`
		SELECT k.key_name, k.key_pkcs8 FROM keys k
		JOIN identities i ON i.id = k.identity_id
		WHERE i.identity = ? AND k.is_default = 1`,
		[]byte(identity.String()),
	)
	var keyNameStr string
	var sealed []byte
	if err := row.Scan(&keyNameStr, &sealed); err != nil {
		return nil, fmt.Errorf("sec: no default key for %s: %w", identity, err)
	}
	keyName, err := name.FromURI(keyNameStr)
	if err != nil {
		return nil, err
	}
	pkcs8, err := kc.unseal(sealed)
	if err != nil {
		return nil, fmt.Errorf("sec: default key for %s: %w", identity, err)
	}
	return ParseEd25519(keyName, pkcs8)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
