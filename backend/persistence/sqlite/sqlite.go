// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Fantom-foundation/ServiceState/go/backend/persistence"
	"github.com/Fantom-foundation/ServiceState/go/common"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	persistence.Register(persistence.VariantSqlite, func(config persistence.Config) (persistence.Database, error) {
		return Open(filepath.Join(config.Directory, "storage.sqlite"))
	})
}

var (
	// See https://www.sqlite.org/pragma.html
	kConfigureConnection = []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
)

const (
	kCreateStorageTable = "CREATE TABLE IF NOT EXISTS storage (address BLOB PRIMARY KEY, data BLOB NOT NULL, expiration INT, created INT)"
	kPersistStmt        = "INSERT OR REPLACE INTO storage(address, data, expiration, created) VALUES (?,?,?,?)"
	kExistsStmt         = "SELECT COUNT(*) FROM storage WHERE address = ?"
	kGetStmt            = "SELECT data FROM storage WHERE address = ?"
	kGetMetadataStmt    = "SELECT expiration, created FROM storage WHERE address = ?"
)

// Persistence is a SQLite backed persistence.StoragePersistence keeping one
// row per account.
type Persistence struct {
	db              *sql.DB
	persistStmt     *sql.Stmt
	existsStmt      *sql.Stmt
	getStmt         *sql.Stmt
	getMetadataStmt *sql.Stmt
}

// Open opens or creates a SQLite persistence in the given file.
func Open(file string) (*Persistence, error) {
	db, err := sql.Open("sqlite3", "file:"+file)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite; %w", err)
	}
	res, err := initialize(db)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return res, nil
}

func initialize(db *sql.DB) (*Persistence, error) {
	for _, cmd := range kConfigureConnection {
		if _, err := db.Exec(cmd); err != nil {
			return nil, fmt.Errorf("failed to configure connection with %s; %w", cmd, err)
		}
	}
	if _, err := db.Exec(kCreateStorageTable); err != nil {
		return nil, fmt.Errorf("failed to create storage table; %w", err)
	}
	res := &Persistence{db: db}
	for _, stmt := range []struct {
		query  string
		target **sql.Stmt
	}{
		{kPersistStmt, &res.persistStmt},
		{kExistsStmt, &res.existsStmt},
		{kGetStmt, &res.getStmt},
		{kGetMetadataStmt, &res.getMetadataStmt},
	} {
		prepared, err := db.Prepare(stmt.query)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare %s; %w", stmt.query, err)
		}
		*stmt.target = prepared
	}
	return res, nil
}

func (p *Persistence) Exists(address common.Address) (bool, error) {
	var count int
	if err := p.existsStmt.QueryRow(address[:]).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (p *Persistence) Get(address common.Address) ([]byte, error) {
	var data []byte
	err := p.getStmt.QueryRow(address[:]).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", persistence.ErrNotFound, address)
	}
	if data == nil && err == nil {
		data = []byte{}
	}
	return data, err
}

func (p *Persistence) Persist(address common.Address, blob []byte, expirationTime, currentTime int64) error {
	if blob == nil {
		blob = []byte{}
	}
	_, err := p.persistStmt.Exec(address[:], blob, expirationTime, currentTime)
	return err
}

func (p *Persistence) GetMetadata(address common.Address) (persistence.Metadata, error) {
	var res persistence.Metadata
	err := p.getMetadataStmt.QueryRow(address[:]).Scan(&res.ExpirationTime, &res.CurrentTime)
	if errors.Is(err, sql.ErrNoRows) {
		return res, fmt.Errorf("%w: %v", persistence.ErrNotFound, address)
	}
	return res, err
}

// Close the persistence
func (p *Persistence) Close() error {
	return errors.Join(
		p.persistStmt.Close(),
		p.existsStmt.Close(),
		p.getStmt.Close(),
		p.getMetadataStmt.Close(),
		p.db.Close(),
	)
}
