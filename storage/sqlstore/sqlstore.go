package sqlstore

import (
	"database/sql"
	"fmt"
	"regexp"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/opla/zoauth/storage"
)

var _ storage.Store = (*SQLStore)(nil)

var tableNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// SQLStore is a SQLite-backed Store. Each logical table maps to a
// (key, doc) table holding JSON documents, so scans iterate in rowid order.
type SQLStore struct {
	db     *sql.DB
	tables map[string]*sqlTable
	lock   sync.Mutex
}

// Open opens (or creates) the SQLite database at path.
// _txlock=immediate makes write transactions take their lock at BEGIN, which
// serializes the read-then-write paths such as session renewal.
func Open(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", path+"?_txlock=immediate")
	if err != nil {
		return nil, errors.Wrap(err, "[sqlstore.Open] sql.Open")
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "[sqlstore.Open] pragmas")
	}
	return &SQLStore{db: db, tables: make(map[string]*sqlTable)}, nil
}

func (ss *SQLStore) Table(name string) storage.Table {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	table, ok := ss.tables[name]
	if !ok {
		table = &sqlTable{db: ss.db, name: sqlTableName(name)}
		table.err = table.createSchema()
		ss.tables[name] = table
	}
	return table
}

func (ss *SQLStore) Load() error {
	return errors.Wrap(ss.db.Ping(), "[SQLStore.Load] ping")
}

// Flush is a no-op: every write is committed as it happens.
func (ss *SQLStore) Flush() error { return nil }

func (ss *SQLStore) Reset() error {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	for _, table := range ss.tables {
		if table.err != nil {
			continue
		}
		if _, err := ss.db.Exec(fmt.Sprintf(`DELETE FROM %s`, table.name)); err != nil {
			return errors.Wrapf(err, "[SQLStore.Reset] %s", table.name)
		}
	}
	return nil
}

func (ss *SQLStore) Close() error {
	return errors.Wrap(ss.db.Close(), "[SQLStore.Close]")
}

func sqlTableName(name string) string {
	if !tableNamePattern.MatchString(name) {
		return "t_invalid"
	}
	return "t_" + name
}

var _ storage.Table = (*sqlTable)(nil)

type sqlTable struct {
	db   *sql.DB
	name string
	err  error // schema creation failure, surfaced on every call
}

func (st *sqlTable) createSchema() error {
	_, err := st.db.Exec(fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY, doc TEXT NOT NULL)`, st.name))
	return errors.Wrapf(err, "[sqlTable] create %s", st.name)
}

func (st *sqlTable) GetItem(key string) ([]byte, error) {
	if st.err != nil {
		return nil, st.err
	}
	var doc []byte
	err := st.db.QueryRow(fmt.Sprintf(`SELECT doc FROM %s WHERE key = ?`, st.name), key).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[sqlTable.GetItem] %s", st.name)
	}
	return doc, nil
}

func (st *sqlTable) SetItem(key string, doc []byte) error {
	if st.err != nil {
		return st.err
	}
	_, err := st.db.Exec(fmt.Sprintf(
		`INSERT INTO %s (key, doc) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET doc = excluded.doc`,
		st.name), key, doc)
	return errors.Wrapf(err, "[sqlTable.SetItem] %s", st.name)
}

func (st *sqlTable) InsertItem(key string, doc []byte) error {
	if st.err != nil {
		return st.err
	}
	result, err := st.db.Exec(fmt.Sprintf(
		`INSERT INTO %s (key, doc) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`, st.name), key, doc)
	if err != nil {
		return errors.Wrapf(err, "[sqlTable.InsertItem] %s", st.name)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "[sqlTable.InsertItem] %s rows affected", st.name)
	}
	if inserted == 0 {
		return storage.ErrDuplicateKey
	}
	return nil
}

func (st *sqlTable) DeleteItem(key string) error {
	if st.err != nil {
		return st.err
	}
	_, err := st.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, st.name), key)
	return errors.Wrapf(err, "[sqlTable.DeleteItem] %s", st.name)
}

func (st *sqlTable) NextItem(match func(doc []byte) bool) ([]byte, error) {
	if st.err != nil {
		return nil, st.err
	}
	rows, err := st.db.Query(fmt.Sprintf(`SELECT doc FROM %s ORDER BY rowid`, st.name))
	if err != nil {
		return nil, errors.Wrapf(err, "[sqlTable.NextItem] %s", st.name)
	}
	defer rows.Close()

	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, errors.Wrapf(err, "[sqlTable.NextItem] %s scan", st.name)
		}
		if match(doc) {
			return doc, nil
		}
	}
	return nil, errors.Wrapf(rows.Err(), "[sqlTable.NextItem] %s rows", st.name)
}

func (st *sqlTable) GetItems(match func(doc []byte) bool) ([][]byte, error) {
	if st.err != nil {
		return nil, st.err
	}
	rows, err := st.db.Query(fmt.Sprintf(`SELECT doc FROM %s ORDER BY rowid`, st.name))
	if err != nil {
		return nil, errors.Wrapf(err, "[sqlTable.GetItems] %s", st.name)
	}
	defer rows.Close()

	docs := make([][]byte, 0)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, errors.Wrapf(err, "[sqlTable.GetItems] %s scan", st.name)
		}
		if match == nil || match(doc) {
			docs = append(docs, doc)
		}
	}
	return docs, errors.Wrapf(rows.Err(), "[sqlTable.GetItems] %s rows", st.name)
}
