package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/kamalnath14061995/IndusionCricket-sub001/models"
	"github.com/pkg/errors"
)

var ErrEntryNotFound = errors.New("journal entry not found")

// JournalStorage keeps captures the backend failed to record, so they can
// be replayed without charging the payer again.
type JournalStorage interface {
	InsertUnrecorded(entry *models.JournalEntry) (*models.JournalEntry, error)
	GetUnrecorded(id string) (*models.JournalEntry, error)
	ListUnrecorded() ([]models.JournalEntry, error)
	MarkRecorded(id string) error
	MarkAttempt(id string, lastError string) error
}

var schemas = map[string]string{
	"sqlite3": `
	CREATE TABLE IF NOT EXISTS unrecorded_payment (
		id TEXT PRIMARY KEY,
		journal_key TEXT NOT NULL UNIQUE,
		transaction_id TEXT NOT NULL,
		order_id TEXT NOT NULL,
		method TEXT NOT NULL,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		booking_id TEXT NOT NULL,
		coaching_id TEXT NOT NULL,
		email TEXT NOT NULL,
		last_error TEXT NOT NULL,
		attempts INTEGER NOT NULL,
		created TIMESTAMP NOT NULL,
		recorded TIMESTAMP NULL
	)`,
	"mysql": `
	CREATE TABLE IF NOT EXISTS unrecorded_payment (
		id VARCHAR(36) PRIMARY KEY,
		journal_key VARCHAR(160) NOT NULL UNIQUE,
		transaction_id VARCHAR(128) NOT NULL,
		order_id VARCHAR(128) NOT NULL,
		method VARCHAR(32) NOT NULL,
		amount VARCHAR(32) NOT NULL,
		currency CHAR(3) NOT NULL,
		booking_id VARCHAR(64) NOT NULL,
		coaching_id VARCHAR(64) NOT NULL,
		email VARCHAR(255) NOT NULL,
		last_error TEXT NOT NULL,
		attempts INT NOT NULL,
		created DATETIME NOT NULL,
		recorded DATETIME NULL
	)`,
	"postgres": `
	CREATE TABLE IF NOT EXISTS unrecorded_payment (
		id VARCHAR(36) PRIMARY KEY,
		journal_key VARCHAR(160) NOT NULL UNIQUE,
		transaction_id VARCHAR(128) NOT NULL,
		order_id VARCHAR(128) NOT NULL,
		method VARCHAR(32) NOT NULL,
		amount VARCHAR(32) NOT NULL,
		currency CHAR(3) NOT NULL,
		booking_id VARCHAR(64) NOT NULL,
		coaching_id VARCHAR(64) NOT NULL,
		email VARCHAR(255) NOT NULL,
		last_error TEXT NOT NULL,
		attempts INTEGER NOT NULL,
		created TIMESTAMP NOT NULL,
		recorded TIMESTAMP NULL
	)`,
}

const (
	selectEntry = `
	SELECT
		id,
		transaction_id,
		order_id,
		method,
		amount,
		currency,
		booking_id,
		coaching_id,
		email,
		last_error,
		attempts,
		created,
		recorded
	FROM
		unrecorded_payment
	`

	insertUnrecorded = `
	INSERT INTO unrecorded_payment (
		id, journal_key, transaction_id, order_id, method, amount, currency,
		booking_id, coaching_id, email, last_error, attempts, created
	) VALUES (
		:id, :journal_key, :transaction_id, :order_id, :method, :amount, :currency,
		:booking_id, :coaching_id, :email, :last_error, :attempts, :created
	)
	`

	markRecorded = `
	UPDATE
		unrecorded_payment
	SET
		recorded = :recorded
	WHERE
		id = :id AND
		recorded IS NULL
	`

	markAttempt = `
	UPDATE
		unrecorded_payment
	SET
		attempts = attempts + 1,
		last_error = :last_error
	WHERE
		id = :id
	`
)

func (db *DB) Migrate() error {
	schema, ok := schemas[db.DriverName()]
	if !ok {
		return errors.Errorf("no journal schema for driver %s", db.DriverName())
	}
	if _, err := db.Exec(schema); err != nil {
		return errors.Wrap(err, "failed creating journal table")
	}
	return nil
}

// InsertUnrecorded stores entry. A capture journaled before is returned as
// it was stored rather than duplicated. Entries are keyed by transaction id,
// or by order id when no capture was confirmed.
func (db *DB) InsertUnrecorded(entry *models.JournalEntry) (*models.JournalEntry, error) {
	key := entry.Key()
	if key == "" {
		return nil, errors.New("journal entry without transaction or order id")
	}

	existing, err := db.getBy("journal_key", key)
	if err != nil && err != ErrEntryNotFound {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	stored := *entry
	stored.ID = uuid.New().String()
	stored.Created = time.Now().UTC().Truncate(time.Second)
	stored.Recorded = nil
	if stored.Attempts == 0 {
		stored.Attempts = 1
	}

	err = db.inTx(func(tx Tx) error {
		stmt, err := tx.PrepareNamed(insertUnrecorded)
		if err != nil {
			return err
		}
		defer stmt.Close()

		result, err := stmt.Exec(map[string]interface{}{
			"id":             stored.ID,
			"journal_key":    key,
			"transaction_id": stored.TransactionID,
			"order_id":       stored.OrderID,
			"method":         string(stored.Method),
			"amount":         stored.Amount.String(),
			"currency":       stored.Currency,
			"booking_id":     stored.BookingID,
			"coaching_id":    stored.CoachingID,
			"email":          stored.Email,
			"last_error":     stored.LastError,
			"attempts":       stored.Attempts,
			"created":        stored.Created,
		})
		if err != nil {
			return err
		}
		return expectOne(result, "inserted")
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed inserting journal entry")
	}
	return &stored, nil
}

func (db *DB) GetUnrecorded(id string) (*models.JournalEntry, error) {
	return db.getBy("id", id)
}

func (db *DB) ListUnrecorded() ([]models.JournalEntry, error) {
	entries := []models.JournalEntry{}
	query := selectEntry + ` WHERE recorded IS NULL ORDER BY created, id`
	if err := db.Select(&entries, query); err != nil {
		return nil, errors.Wrap(err, "failed listing journal")
	}
	return entries, nil
}

func (db *DB) MarkRecorded(id string) error {
	err := db.inTx(func(tx Tx) error {
		result, err := tx.NamedExec(markRecorded, map[string]interface{}{
			"id":       id,
			"recorded": time.Now().UTC().Truncate(time.Second),
		})
		if err != nil {
			return err
		}
		return expectOne(result, "updated")
	})
	return errors.Wrapf(err, "failed marking journal entry %s recorded", id)
}

func (db *DB) MarkAttempt(id string, lastError string) error {
	err := db.inTx(func(tx Tx) error {
		result, err := tx.NamedExec(markAttempt, map[string]interface{}{
			"id":         id,
			"last_error": lastError,
		})
		if err != nil {
			return err
		}
		return expectOne(result, "updated")
	})
	return errors.Wrapf(err, "failed updating journal entry %s", id)
}

func (db *DB) getBy(column, value string) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	query := db.Rebind(selectEntry + ` WHERE ` + column + ` = ?`)
	if err := db.Get(&entry, query, value); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEntryNotFound
		}
		return nil, errors.Wrap(err, "failed reading journal")
	}
	return &entry, nil
}

func expectOne(result sql.Result, verb string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if int(rowsAffected) != 1 {
		return errors.Errorf("expected %d and %s %d", 1, verb, rowsAffected)
	}
	return nil
}
