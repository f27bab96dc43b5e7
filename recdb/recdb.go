// Copyright 2026 The go-evc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package recdb holds types to describe the catalog database of
// event-camera recordings.
package recdb // import "github.com/go-evc/ecam/recdb"

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

var (
	host = envOr("ECAM_DB_HOST", "localhost")
	usr  = envOr("ECAM_DB_USER", "ecam")
	pwd  = envOr("ECAM_DB_PASS", "s3cr3t")

	drvName = "mysql"
)

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

// Recording describes one decoded recording in the catalog.
type Recording struct {
	ID       int64
	Path     string    // recording file path
	Width    int       // sensor width, in pixels
	Height   int       // sensor height, in pixels
	CD       int64     // number of CD events
	Triggers int64     // number of trigger events
	Duration int64     // event-time span, in microseconds
	Loops    int64     // detected TIME_HIGH wraparounds
	Added    time.Time // catalog insertion time
}

// DB exposes convenience methods to store and retrieve recordings
// metadata from the catalog database.
type DB struct {
	db   *sql.DB
	name string // name of the catalog database
}

// Open opens a connection to the catalog database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("recdb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		return nil, fmt.Errorf("recdb: could not ping %q db: %w", dbname, err)
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", usr, pwd, host, db)
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("recdb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// InsertRecording adds rec to the catalog.
func (db *DB) InsertRecording(ctx context.Context, rec Recording) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := db.db.ExecContext(
		ctx,
		`INSERT INTO recordings (path, width, height, cd, triggers, duration_us, loops)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Path, rec.Width, rec.Height, rec.CD, rec.Triggers, rec.Duration, rec.Loops,
	)
	if err != nil {
		return fmt.Errorf("recdb: could not insert recording %q: %w", rec.Path, err)
	}

	return nil
}

// LastRecording returns the most recently added recording.
func (db *DB) LastRecording(ctx context.Context) (Recording, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var rec Recording
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT id, path, width, height, cd, triggers, duration_us, loops, added FROM recordings ORDER BY added DESC LIMIT 1",
	)
	if err != nil {
		return rec, fmt.Errorf("recdb: could not query last recording: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		err = scanRecording(rows, &rec)
		if err != nil {
			return rec, fmt.Errorf("recdb: could not get last recording: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return rec, fmt.Errorf("recdb: could not scan db for last recording: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return rec, fmt.Errorf("recdb: context error while retrieving last recording: %w", err)
	}

	return rec, nil
}

// Recordings returns the whole catalog, most recent first.
func (db *DB) Recordings(ctx context.Context) ([]Recording, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := db.db.QueryContext(
		ctx,
		"SELECT id, path, width, height, cd, triggers, duration_us, loops, added FROM recordings ORDER BY added DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("recdb: could not query recordings: %w", err)
	}
	defer rows.Close()

	var recs []Recording
	for rows.Next() {
		var rec Recording
		err = scanRecording(rows, &rec)
		if err != nil {
			return nil, fmt.Errorf("recdb: could not get recording: %w", err)
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recdb: could not scan db for recordings: %w", err)
	}

	return recs, nil
}

func scanRecording(rows *sql.Rows, rec *Recording) error {
	return rows.Scan(
		&rec.ID, &rec.Path, &rec.Width, &rec.Height,
		&rec.CD, &rec.Triggers, &rec.Duration, &rec.Loops,
		&rec.Added,
	)
}
