package backend

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/go-u2f/authenticator/pkg/biometric"
	"github.com/go-u2f/authenticator/pkg/crypto"
	"github.com/go-u2f/authenticator/pkg/options"
	"github.com/go-u2f/authenticator/pkg/u2ftypes"
)

// Biometric extends Database with a presence-gated fingerprint check:
// enroll requires a live template captured during the current scan, and
// authenticate compares it against the record's stored template.
type Biometric struct {
	db      *sql.DB
	monitor *biometric.Monitor
	now     func() time.Time
	logger  *slog.Logger
}

func OpenBiometric(dsn string, source biometric.CaptureSource, matcher biometric.Matcher, opts ...options.Option) (*Biometric, error) {
	oo := options.NewOptions(opts...)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("backend: open database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS handle (
			application_hash     BLOB NOT NULL,
			handle               BLOB NOT NULL,
			private_key          BLOB NOT NULL,
			fingerprint_template  BLOB NOT NULL,
			auth_counter         INTEGER NOT NULL DEFAULT 0,
			metadata             BLOB,
			PRIMARY KEY (application_hash, handle)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("backend: create handle table: %w", err)
	}

	return &Biometric{
		db:      db,
		monitor: biometric.NewMonitor(source, matcher, opts...),
		now:     oo.Now,
		logger:  oo.Logger,
	}, nil
}

func (b *Biometric) Close() error {
	b.monitor.Shutdown()
	return b.db.Close()
}

// CheckPresence arms the scanner (or extends an in-flight scan) and
// reports whether a live template is already available. It never waits
// for a capture.
func (b *Biometric) CheckPresence() bool {
	b.monitor.Arm()
	return b.monitor.LiveTemplate() != nil
}

func (b *Biometric) Enroll(applicationHash u2ftypes.Hash) (u2ftypes.Handle, u2ftypes.PublicKey, error) {
	b.monitor.Arm()
	template := b.monitor.LiveTemplate()
	if template == nil {
		return nil, u2ftypes.PublicKey{}, ErrUnknownHandle
	}

	pub, priv, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, u2ftypes.PublicKey{}, err
	}

	handle := make(u2ftypes.Handle, handleRandomSize)
	if _, err := rand.Read(handle); err != nil {
		return nil, u2ftypes.PublicKey{}, fmt.Errorf("backend: generate handle: %w", err)
	}

	metadata := encodeMetadata(recordMetadata{Algorithm: "ES256", EnrolledAt: b.now().Unix()})

	if _, err := b.db.Exec(
		`INSERT INTO handle (application_hash, handle, private_key, fingerprint_template, metadata) VALUES (?, ?, ?, ?, ?)`,
		applicationHash[:], []byte(handle), priv[:], template, metadata,
	); err != nil {
		return nil, u2ftypes.PublicKey{}, fmt.Errorf("backend: insert handle: %w", err)
	}

	b.monitor.Consume()
	return handle, pub, nil
}

func (b *Biometric) Authenticate(applicationHash u2ftypes.Hash, handle u2ftypes.Handle, checkPresence bool) (crypto.Signer, uint32, bool, error) {
	tx, err := b.db.Begin()
	if err != nil {
		return nil, 0, false, fmt.Errorf("backend: begin transaction: %w", err)
	}
	defer tx.Rollback()

	var privBytes, storedTemplate, metadataBytes []byte
	var counter uint32
	row := tx.QueryRow(
		`SELECT private_key, fingerprint_template, auth_counter, metadata FROM handle WHERE application_hash = ? AND handle = ?`,
		applicationHash[:], []byte(handle),
	)
	if err := row.Scan(&privBytes, &storedTemplate, &counter, &metadataBytes); err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, false, ErrUnknownHandle
		}
		return nil, 0, false, fmt.Errorf("backend: select handle: %w", err)
	}
	if meta, ok := decodeMetadata(metadataBytes); ok {
		b.logger.Debug("backend authenticate", "algorithm", meta.Algorithm, "enrolled_at", meta.EnrolledAt)
	}

	present := false
	if checkPresence {
		present = b.checkFingerprintPresence(storedTemplate)
	}

	if _, err := tx.Exec(
		`UPDATE handle SET auth_counter = auth_counter + 1 WHERE application_hash = ? AND handle = ?`,
		applicationHash[:], []byte(handle),
	); err != nil {
		return nil, 0, false, fmt.Errorf("backend: increment counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, false, fmt.Errorf("backend: commit transaction: %w", err)
	}

	var priv u2ftypes.PrivateKey
	copy(priv[:], privBytes)

	return crypto.KeyPair{Private: priv}, counter, present, nil
}

func (b *Biometric) checkFingerprintPresence(storedTemplate []byte) bool {
	b.monitor.Arm()
	live := b.monitor.LiveTemplate()
	if live == nil {
		return false
	}

	score, err := b.monitor.MatchScore(storedTemplate, live)
	if err != nil {
		return false
	}
	if score < biometric.MatchThreshold {
		return false
	}

	b.monitor.Consume()
	return true
}

func (b *Biometric) AttestationSigner() crypto.Signer {
	return crypto.AttestationSigner()
}

func (b *Biometric) SupportsWink() bool { return true }

func (b *Biometric) Wink() {
	b.monitor.Arm()
}
