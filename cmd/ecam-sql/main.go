// Copyright 2026 The go-evc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// ecam-sql registers decoded recordings in the catalog database and
// queries it, either through canned queries or an interactive prompt.
package main // import "github.com/go-evc/ecam/cmd/ecam-sql"

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-evc/ecam/evt3"
	"github.com/go-evc/ecam/recdb"
	"github.com/peterh/liner"
)

const dbname = "ecam"

func main() {
	log.SetPrefix("ecam-sql: ")
	log.SetFlags(0)

	var (
		register = flag.String("register", "", "EVT3 raw file to decode and add to the catalog")
		list     = flag.Bool("list", false, "list the catalog, most recent first")
		ishell   = flag.Bool("i", false, "start an interactive SQL prompt")
	)

	flag.Parse()

	db, err := recdb.Open(dbname)
	if err != nil {
		log.Fatalf("could not open ecam db: %+v", err)
	}
	defer db.Close()

	ctx := context.Background()

	switch {
	case *register != "":
		err = doRegister(ctx, db, *register)
	case *list:
		err = doList(ctx, db)
	case *ishell:
		err = shell(ctx, db)
	default:
		err = doList(ctx, db)
	}
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func doRegister(ctx context.Context, db *recdb.DB, fname string) error {
	res, err := evt3.DecodeFile(fname)
	if err != nil {
		return fmt.Errorf("could not decode %q: %w", fname, err)
	}

	rec := recdb.Recording{
		Path:     fname,
		Width:    res.Width,
		Height:   res.Height,
		CD:       int64(res.CD.Len()),
		Triggers: int64(res.Trig.Len()),
		Loops:    int64(res.Stats.TimeHighLoops),
	}
	if n := res.CD.Len(); n > 0 {
		rec.Duration = int64(res.CD.T[n-1] - res.CD.T[0])
	}

	err = db.InsertRecording(ctx, rec)
	if err != nil {
		return fmt.Errorf("could not register %q: %w", fname, err)
	}

	log.Printf("registered %q: %d cd events, %d triggers, %d us",
		fname, rec.CD, rec.Triggers, rec.Duration,
	)
	return nil
}

func doList(ctx context.Context, db *recdb.DB) error {
	recs, err := db.Recordings(ctx)
	if err != nil {
		return fmt.Errorf("could not list recordings: %w", err)
	}

	for _, rec := range recs {
		log.Printf("id=%04d %s %dx%d cd=%d trig=%d dur=%dus loops=%d added=%s",
			rec.ID, rec.Path, rec.Width, rec.Height,
			rec.CD, rec.Triggers, rec.Duration, rec.Loops,
			rec.Added.Format(time.RFC3339),
		)
	}
	return nil
}

func shell(ctx context.Context, db *recdb.DB) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	for {
		q, err := line.Prompt("ecam-sql> ")
		if err != nil {
			// Ctrl-C or Ctrl-D.
			return nil
		}
		q = strings.TrimSpace(q)
		switch q {
		case "":
			continue
		case "quit", "exit":
			return nil
		}
		line.AppendHistory(q)

		err = query(ctx, db, q)
		if err != nil {
			log.Printf("could not run query: %+v", err)
		}
	}
}

func query(ctx context.Context, db *recdb.DB, q string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("could not get columns: %w", err)
	}
	fmt.Println(strings.Join(cols, " | "))

	var (
		vals = make([]sql.RawBytes, len(cols))
		args = make([]interface{}, len(cols))
	)
	for i := range vals {
		args[i] = &vals[i]
	}

	for rows.Next() {
		err = rows.Scan(args...)
		if err != nil {
			return fmt.Errorf("could not scan row: %w", err)
		}
		cells := make([]string, len(vals))
		for i, v := range vals {
			cells[i] = string(v)
		}
		fmt.Println(strings.Join(cells, " | "))
	}

	return rows.Err()
}
