package main

import (
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/imagereader"
	"github.com/bodgit/imagereader/catalog"
	"github.com/bodgit/imagereader/display"
	"github.com/bodgit/imagereader/rgb565"
	"github.com/urfave/cli/v2"
)

const (
	defaultDB     = "imagereader.db"
	defaultWidth  = 320
	defaultHeight = 240
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func newReader(c *cli.Context) *imagereader.Reader {
	return imagereader.New(os.DirFS(c.String("root")), options(c)...)
}

func options(c *cli.Context) []imagereader.Option {
	return []imagereader.Option{
		imagereader.WithDrawPixels(c.Int("buffer")),
		imagereader.WithLoadPixels(c.Int("buffer")),
	}
}

func writeImage(file string, m image.Image, colors int) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}

	if err := encodeImage(f, file, m, colors); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func encodeImage(w io.Writer, file string, m image.Image, colors int) error {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".gif":
		if colors == 0 {
			colors = rgb565.MaxColors
		}
		pm, err := rgb565.Quantize(m, colors)
		if err != nil {
			return err
		}
		if err := gif.Encode(w, pm, nil); err != nil {
			return err
		}
	case ".png":
		if colors > 0 {
			pm, err := rgb565.Quantize(m, colors)
			if err != nil {
				return err
			}
			m = pm
		}
		if err := png.Encode(w, m); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported output format %q", filepath.Ext(file))
	}

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "imagereader"
	app.Usage = "BMP image reader for SD card and SPI display workflows"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	outputFlag := &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Value:   "out.png",
		Usage:   "output image, .png or .gif",
	}
	colorsFlag := &cli.IntFlag{
		Name:  "colors",
		Usage: "quantize output to this many colors",
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "root",
			EnvVars: []string{"IMAGEREADER_ROOT"},
			Value:   cwd,
			Usage:   "directory treated as the root of the card",
		},
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"IMAGEREADER_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to catalog database",
		},
		&cli.IntFlag{
			Name:  "buffer",
			Value: imagereader.DefaultDrawPixels,
			Usage: "pixels buffered between storage reads",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "info",
			Usage:     "Print the dimensions of BMP images",
			ArgsUsage: "FILE...",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				r := newReader(c)
				for _, file := range c.Args().Slice() {
					w, h, err := r.BMPDimensions(file)
					if err != nil {
						return cli.Exit(err, 1)
					}
					fmt.Printf("%s: %dx%d\n", file, w, h)
				}

				return nil
			},
		},
		{
			Name:      "draw",
			Usage:     "Draw a BMP image on a virtual display",
			ArgsUsage: "FILE",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "x", Usage: "horizontal position, may be negative"},
				&cli.IntFlag{Name: "y", Usage: "vertical position, may be negative"},
				&cli.IntFlag{Name: "width", Value: defaultWidth, Usage: "display width"},
				&cli.IntFlag{Name: "height", Value: defaultHeight, Usage: "display height"},
				&cli.IntFlag{Name: "background", Usage: "5/6/5 color the display is cleared to"},
				outputFlag,
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				logger := newLogger(c)

				fb := display.New(c.Int("width"), c.Int("height"), true)
				fb.Fill(uint16(c.Int("background")))

				if err := newReader(c).DrawBMP(c.Args().First(), fb, c.Int("x"), c.Int("y")); err != nil {
					return cli.Exit(err, 1)
				}

				stats := fb.Stats()
				logger.Printf("%d transactions, %d writes, %d pixels\n", stats.Transactions, stats.Writes, stats.Pixels)

				if err := writeImage(c.String("output"), fb.Image(), 0); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "load",
			Usage:     "Load a BMP image into memory and export it",
			ArgsUsage: "FILE",
			Flags: []cli.Flag{
				outputFlag,
				colorsFlag,
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				logger := newLogger(c)

				img, err := newReader(c).LoadBMP(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}
				logger.Printf("Loaded %dx%d %s canvas\n", img.Width(), img.Height(), img.Format)

				if err := writeImage(c.String("output"), img.Canvas, c.Int("colors")); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "index",
			Usage:     "Decode every BMP image under a directory into the catalog",
			ArgsUsage: "DIRECTORY",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				db, err := catalog.NewDB(c.String("db"), os.DirFS(c.String("root")), newLogger(c), options(c)...)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer db.Close()

				if err := db.Scan(c.Args().First()); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "extract",
			Usage:     "Export an image held in the catalog",
			ArgsUsage: "FILE",
			Flags: []cli.Flag{
				outputFlag,
				colorsFlag,
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				db, err := catalog.NewDB(c.String("db"), os.DirFS(c.String("root")), newLogger(c), options(c)...)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer db.Close()

				m, err := db.Find(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}
				if m == nil {
					return cli.Exit(fmt.Sprintf("%s is not in the catalog", c.Args().First()), 1)
				}

				if err := writeImage(c.String("output"), m, c.Int("colors")); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
