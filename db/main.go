package db

import (
	"database/sql"
	"io"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const maxRetries = 3

var retryDelay = 1 * time.Second

type Storage interface {
	JournalStorage
}

type db interface {
	NewTx() (Tx, error)
}

type conn interface {
	DriverName() string
	Rebind(string) string
	NamedExec(string, interface{}) (sql.Result, error)
	Select(interface{}, string, ...interface{}) error
	PrepareNamed(string) (*sqlx.NamedStmt, error)
	Get(interface{}, string, ...interface{}) error
	Exec(string, ...interface{}) (sql.Result, error)
}

type Tx interface {
	conn

	Commit() error
	Rollback() error
}

type transactorImpl struct {
	*sqlx.DB
}

func (t *transactorImpl) NewTx() (Tx, error) {
	return t.Beginx()
}

type DB struct {
	conn
	db
}

// Open connects with one of the sqlite3, mysql or postgres drivers and
// prepares the schema. MySQL DSNs need parseTime=true.
func Open(driver, dsn string) (*DB, error) {
	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", driver)
	}
	if driver == "sqlite3" {
		conn.SetMaxOpenConns(1)
	}

	storage, err := New(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := storage.Migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return storage, nil
}

func (db *DB) Close() error {
	if c, ok := db.conn.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func New(db *sqlx.DB) (*DB, error) {
	var (
		dbWrapper *DB
		err       error
	)

	tries := maxRetries
	for tries >= 0 {
		dbWrapper, err = tryOpenConnection(db)
		if err == nil {
			break
		}
		if tries == 0 {
			return nil, err
		}

		log.WithFields(log.Fields{
			"retries_left": tries,
		}).WithError(err).Warnf("%s: trying to connect to create connection", db.DriverName())

		tries = tries - 1
		time.Sleep(retryDelay)
	}

	return dbWrapper, nil
}

func tryOpenConnection(db *sqlx.DB) (*DB, error) {
	err := db.Ping()
	if err != nil {
		return nil, errors.Wrap(err, "failed to ping db")
	}

	return &DB{
		db,
		&transactorImpl{db},
	}, nil
}

// inTx runs fn in a transaction, committing only when fn succeeds.
func (db *DB) inTx(fn func(Tx) error) (err error) {
	tx, err := db.NewTx()
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}

		err = tx.Commit()
	}()

	return fn(tx)
}
