/*
Package catalog implements a small database of decoded BMP images.

Each image is stored once as a zstd compressed 16-bit surface, keyed by the
SHA-1 of the original file, and any number of file names can refer to it.
*/
package catalog

import (
	"crypto/sha1"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"

	"github.com/bodgit/imagereader"
	"github.com/bodgit/imagereader/rgb565"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the catalog database. It is safe for concurrent use.
type DB struct {
	db     *sql.DB
	fsys   fs.FS
	reader *imagereader.Reader
	logger *log.Logger
	enc    *zstd.Encoder
	dec    *zstd.Decoder
}

// Entry describes a cataloged file.
type Entry struct {
	Name   string
	SHA1   string
	Width  int
	Height int
}

// NewDB opens or creates the catalog in file. Images are read from fsys and
// decoded with a Reader configured with options.
func NewDB(file string, fsys fs.FS, logger *log.Logger, options ...imagereader.Option) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS pixels (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL UNIQUE, width INTEGER NOT NULL, height INTEGER NOT NULL, surface BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS file (id INTEGER PRIMARY KEY NOT NULL, name TEXT NOT NULL UNIQUE, pixels_id INTEGER NOT NULL, FOREIGN KEY(pixels_id) REFERENCES pixels(id))"); err != nil {
		db.Close()
		return nil, err
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		db.Close()
		return nil, err
	}

	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		enc.Close()
		db.Close()
		return nil, err
	}

	return &DB{
		db:     db,
		fsys:   fsys,
		reader: imagereader.New(fsys, options...),
		logger: logger,
		enc:    enc,
		dec:    dec,
	}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	db.dec.Close()
	if err := db.enc.Close(); err != nil {
		db.db.Close()
		return err
	}
	return db.db.Close()
}

func hashFile(fsys fs.FS, name string) (string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%X", h.Sum(nil)), nil
}

// Add decodes the named image and records it. An image already present with
// the same contents is not decoded again.
func (db *DB) Add(name string) (*Entry, error) {
	name = imagereader.CleanPath(name)

	sha, err := hashFile(db.fsys, name)
	if err != nil {
		return nil, err
	}

	var id int64
	var w, h int
	switch err := db.db.QueryRow("SELECT id, width, height FROM pixels WHERE sha1 = ?", sha).Scan(&id, &w, &h); err {
	case sql.ErrNoRows:
		img, err := db.reader.LoadBMP(name)
		if err != nil {
			return nil, err
		}

		b, err := img.Canvas.MarshalBinary()
		if err != nil {
			return nil, err
		}

		// Another worker may have added the same contents in the meantime
		if _, err := db.db.Exec("INSERT OR IGNORE INTO pixels (sha1, width, height, surface) VALUES (?, ?, ?, ?)", sha, img.Width(), img.Height(), db.enc.EncodeAll(b, nil)); err != nil {
			return nil, err
		}
		if err := db.db.QueryRow("SELECT id, width, height FROM pixels WHERE sha1 = ?", sha).Scan(&id, &w, &h); err != nil {
			return nil, err
		}
	case nil:
	default:
		return nil, err
	}

	if _, err := db.db.Exec("INSERT OR REPLACE INTO file (name, pixels_id) VALUES (?, ?)", name, id); err != nil {
		return nil, err
	}

	return &Entry{
		Name:   name,
		SHA1:   sha,
		Width:  w,
		Height: h,
	}, nil
}

// Find returns the surface recorded for name, or nil if there is none.
func (db *DB) Find(name string) (*rgb565.Image, error) {
	var surface []byte
	switch err := db.db.QueryRow("SELECT p.surface FROM file AS f JOIN pixels AS p ON f.pixels_id = p.id WHERE f.name = ?", imagereader.CleanPath(name)).Scan(&surface); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		b, err := db.dec.DecodeAll(surface, nil)
		if err != nil {
			return nil, err
		}

		m := new(rgb565.Image)
		if err := m.UnmarshalBinary(b); err != nil {
			return nil, err
		}

		return m, nil
	default:
		return nil, err
	}
}

// List returns every cataloged file in name order.
func (db *DB) List() ([]Entry, error) {
	rows, err := db.db.Query("SELECT f.name, p.sha1, p.width, p.height FROM file AS f JOIN pixels AS p ON f.pixels_id = p.id ORDER BY f.name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.SHA1, &e.Width, &e.Height); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Remove forgets name. Surfaces no longer referenced by any file are deleted.
func (db *DB) Remove(name string) error {
	result, err := db.db.Exec("DELETE FROM file WHERE name = ?", imagereader.CleanPath(name))
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return errors.New("catalog: no such file")
	}

	_, err = db.db.Exec("DELETE FROM pixels WHERE id NOT IN (SELECT pixels_id FROM file)")
	return err
}
