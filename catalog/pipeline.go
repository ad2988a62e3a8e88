package catalog

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/bodgit/imagereader"
)

// Workers is the number of images decoded concurrently by Scan
const Workers = 4

func (db *DB) findImages(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	if _, err := fs.Stat(db.fsys, base); err != nil {
		return nil, nil, err
	}

	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- fs.WalkDir(db.fsys, base, func(file string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if file != base && d.Name()[0] == '.' {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal file
			if !d.Type().IsRegular() {
				return nil
			}

			if !strings.EqualFold(path.Ext(file), ".bmp") {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (db *DB) imageWorker(ctx context.Context, in <-chan string) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			e, err := db.Add(file)
			switch {
			case err == nil:
				db.logger.Printf("Added \"%s\", %dx%d\n", e.Name, e.Width, e.Height)
			case errors.Is(err, imagereader.ErrFormat), errors.Is(err, imagereader.ErrMalloc):
				db.logger.Printf("Skipping \"%s\": %v\n", file, err)
			default:
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks dir and adds every BMP image found. Files that are not a
// supported BMP variant, or too large to load, are logged and skipped.
func (db *DB) Scan(dir string) error {
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := db.findImages(ctx, imagereader.CleanPath(dir))
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < Workers; i++ {
		errc, err := db.imageWorker(ctx, files)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
