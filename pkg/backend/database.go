package backend

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/go-u2f/authenticator/pkg/crypto"
	"github.com/go-u2f/authenticator/pkg/options"
	"github.com/go-u2f/authenticator/pkg/u2ftypes"
)

const handleRandomSize = 64

// Database persists credentials in a SQLite table keyed by
// (application_hash, handle). The handle itself carries no secret — it is
// a cryptographically random opaque identifier.
type Database struct {
	db     *sql.DB
	now    func() time.Time
	logger *slog.Logger
}

// OpenDatabase opens (creating if necessary) a SQLite-backed Database
// backend at dsn, e.g. "file:u2f.db" or ":memory:".
func OpenDatabase(dsn string, opts ...options.Option) (*Database, error) {
	oo := options.NewOptions(opts...)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("backend: open database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS handle (
			application_hash BLOB NOT NULL,
			handle           BLOB NOT NULL,
			private_key      BLOB NOT NULL,
			auth_counter     INTEGER NOT NULL DEFAULT 0,
			metadata         BLOB,
			PRIMARY KEY (application_hash, handle)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("backend: create handle table: %w", err)
	}

	return &Database{db: db, now: oo.Now, logger: oo.Logger}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) CheckPresence() bool { return true }

func (d *Database) Enroll(applicationHash u2ftypes.Hash) (u2ftypes.Handle, u2ftypes.PublicKey, error) {
	pub, priv, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, u2ftypes.PublicKey{}, err
	}

	handle := make(u2ftypes.Handle, handleRandomSize)
	if _, err := rand.Read(handle); err != nil {
		return nil, u2ftypes.PublicKey{}, fmt.Errorf("backend: generate handle: %w", err)
	}

	metadata := encodeMetadata(recordMetadata{Algorithm: "ES256", EnrolledAt: d.now().Unix()})

	if _, err := d.db.Exec(
		`INSERT INTO handle (application_hash, handle, private_key, metadata) VALUES (?, ?, ?, ?)`,
		applicationHash[:], []byte(handle), priv[:], metadata,
	); err != nil {
		return nil, u2ftypes.PublicKey{}, fmt.Errorf("backend: insert handle: %w", err)
	}

	return handle, pub, nil
}

// Authenticate looks up the record and atomically increments its counter
// in a single transaction, satisfying the select-then-increment atomicity
// requirement against concurrent authentications on the same record.
func (d *Database) Authenticate(applicationHash u2ftypes.Hash, handle u2ftypes.Handle, checkPresence bool) (crypto.Signer, uint32, bool, error) {
	priv, counter, err := d.selectAndIncrement(applicationHash, handle)
	if err != nil {
		return nil, 0, false, err
	}

	return crypto.KeyPair{Private: priv}, counter, true, nil
}

func (d *Database) selectAndIncrement(applicationHash u2ftypes.Hash, handle u2ftypes.Handle) (u2ftypes.PrivateKey, uint32, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return u2ftypes.PrivateKey{}, 0, fmt.Errorf("backend: begin transaction: %w", err)
	}
	defer tx.Rollback()

	var privBytes, metadataBytes []byte
	var counter uint32
	row := tx.QueryRow(
		`SELECT private_key, auth_counter, metadata FROM handle WHERE application_hash = ? AND handle = ?`,
		applicationHash[:], []byte(handle),
	)
	if err := row.Scan(&privBytes, &counter, &metadataBytes); err != nil {
		if err == sql.ErrNoRows {
			return u2ftypes.PrivateKey{}, 0, ErrUnknownHandle
		}
		return u2ftypes.PrivateKey{}, 0, fmt.Errorf("backend: select handle: %w", err)
	}
	if meta, ok := decodeMetadata(metadataBytes); ok {
		d.logger.Debug("backend authenticate", "algorithm", meta.Algorithm, "enrolled_at", meta.EnrolledAt)
	}

	if _, err := tx.Exec(
		`UPDATE handle SET auth_counter = auth_counter + 1 WHERE application_hash = ? AND handle = ?`,
		applicationHash[:], []byte(handle),
	); err != nil {
		return u2ftypes.PrivateKey{}, 0, fmt.Errorf("backend: increment counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return u2ftypes.PrivateKey{}, 0, fmt.Errorf("backend: commit transaction: %w", err)
	}

	var priv u2ftypes.PrivateKey
	copy(priv[:], privBytes)
	return priv, counter, nil
}

func (d *Database) AttestationSigner() crypto.Signer {
	return crypto.AttestationSigner()
}

func (d *Database) SupportsWink() bool { return false }
func (d *Database) Wink()              {}
