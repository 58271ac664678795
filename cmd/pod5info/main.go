// Command pod5info prints the table of contents of a POD5 file.
//
// Usage:
//
//	pod5info [flags] <path or http(s) URL>
//
// With -digest, each table's content digest is printed as well, which is
// handy for comparing tables across files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"

	"github.com/meigma/pod5"
	"github.com/meigma/pod5/cache"
	pod5http "github.com/meigma/pod5/http"
)

type config struct {
	target  string
	mmap    bool
	digest  bool
	verbose bool
	tail    int64
	cache   int64
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("pod5info", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&cfg.mmap, "mmap", false, "memory-map local files")
	fs.BoolVar(&cfg.digest, "digest", false, "print a sha256 digest of each table")
	fs.BoolVar(&cfg.verbose, "v", false, "log debug output to stderr")
	fs.Int64Var(&cfg.tail, "tail", pod5http.DefaultTailSize, "bytes to prefetch from the end of remote files")
	fs.Int64Var(&cfg.cache, "cache", cache.DefaultMaxBytes, "block cache size for remote files, 0 disables")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: pod5info [flags] <path or URL>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return cfg, errors.New("expected exactly one file")
	}
	cfg.target = fs.Arg(0)
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	level := slog.LevelWarn
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	c, closeFn, err := open(ctx, cfg, logger)
	if err != nil {
		logger.Error("open failed", "target", cfg.target, "error", err)
		return 1
	}
	defer closeFn()

	if err := report(c, cfg, stdout); err != nil {
		logger.Error("report failed", "target", cfg.target, "error", err)
		return 1
	}
	return 0
}

func open(ctx context.Context, cfg config, logger *slog.Logger) (*pod5.Container, func(), error) {
	if strings.HasPrefix(cfg.target, "http://") || strings.HasPrefix(cfg.target, "https://") {
		src, err := pod5http.NewSource(ctx, cfg.target,
			pod5http.WithTailSize(cfg.tail),
			pod5http.WithLogger(logger),
		)
		if err != nil {
			return nil, nil, err
		}
		var bs pod5.ByteSource = src
		if cfg.cache > 0 {
			bc := cache.NewBlockCache(cache.WithMaxBytes(cfg.cache), cache.WithLogger(logger))
			if bs, err = bc.Wrap(src); err != nil {
				return nil, nil, err
			}
		}
		c, err := pod5.New(bs, pod5.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil
	}

	f, err := pod5.OpenFile(cfg.target, pod5.WithMmap(cfg.mmap), pod5.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return f.Container, func() {
		if err := f.Close(); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}, nil
}

func report(c *pod5.Container, cfg config, stdout io.Writer) error {
	fmt.Fprintf(stdout, "file identifier: %s\n", describeIdentifier(c.FileIdentifier()))
	fmt.Fprintf(stdout, "software:        %s\n", c.Software())
	fmt.Fprintf(stdout, "pod5 version:    %s\n", c.Pod5Version())
	fmt.Fprintf(stdout, "section marker:  %s\n", c.SectionMarker())
	fmt.Fprintf(stdout, "size:            %d\n", c.Size())
	footer := c.Footer()
	fmt.Fprintf(stdout, "footer:          %d bytes at %d\n\n", footer.Length, footer.Offset)

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	header := "TABLE\tROLE\tFORMAT\tOFFSET\tLENGTH"
	if cfg.digest {
		header += "\tDIGEST"
	}
	fmt.Fprintln(tw, header)
	for _, e := range c.Entries() {
		line := fmt.Sprintf("%s\t%s\t%s\t%d\t%d", e.Name, e.Role, e.Format, e.Offset, e.Length)
		if cfg.digest {
			d, err := tableDigest(c, e)
			if err != nil {
				return err
			}
			line += "\t" + d.String()
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}

func tableDigest(c *pod5.Container, e pod5.Entry) (digest.Digest, error) {
	sec, err := c.TableSection(e)
	if err != nil {
		return "", err
	}
	d, err := digest.SHA256.FromReader(sec)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", e.Name, err)
	}
	return d, nil
}

// describeIdentifier annotates identifiers that are well-formed UUIDs with
// their version. Writers are not required to use UUIDs.
func describeIdentifier(id string) string {
	u, err := uuid.Parse(id)
	if err != nil {
		return id
	}
	return fmt.Sprintf("%s (uuid v%d)", u, u.Version())
}
