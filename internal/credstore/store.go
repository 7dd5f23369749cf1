package credstore

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned by Load when no credentials have been saved.
var ErrNotFound = errors.New("no stored credentials")

var (
	keyCredentials = []byte("credentials")
	keySecret      = []byte("device-secret")
)

// Credentials is the persisted login material. Token holds the last issued
// bearer token so a restart can skip the password exchange.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

// Store persists credentials in a local Badger database, encrypted at rest
// with a device secret generated on first open.
type Store struct {
	db     *badger.DB
	sealer *sealer
}

// Open opens (creating if needed) the credential store at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	secret, err := loadOrCreateSecret(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, sealer: &sealer{secret: secret}}, nil
}

func loadOrCreateSecret(db *badger.DB) ([]byte, error) {
	var secret []byte

	err := db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(keySecret)
		if err == nil {
			secret, err = item.ValueCopy(nil)
			return err
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return err
		}
		return txn.Set(keySecret, secret)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize device secret: %w", err)
	}
	return secret, nil
}

// Save encrypts and stores the credentials, replacing any previous set.
func (s *Store) Save(c Credentials) error {
	plain, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	sealed, err := s.sealer.Seal(plain)
	if err != nil {
		return fmt.Errorf("failed to seal credentials: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyCredentials, sealed)
	})
	if err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	return nil
}

// Load decrypts and returns the stored credentials.
func (s *Store) Load() (*Credentials, error) {
	var sealed []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyCredentials)
		if err != nil {
			return err
		}
		sealed, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	plain, err := s.sealer.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to unseal credentials: %w", err)
	}

	var c Credentials
	if err := json.Unmarshal(plain, &c); err != nil {
		return nil, fmt.Errorf("failed to decode credentials: %w", err)
	}
	return &c, nil
}

// Delete removes the stored credentials. Deleting an empty store is not an
// error.
func (s *Store) Delete() error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(keyCredentials)
	})
	if err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
