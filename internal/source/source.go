// Package source opens the byte stream a document is extracted from: stdin, a
// file or an HTTP(S) URL, with optional decompression and a size cap.
package source

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mcncl/jsonsieve/internal/errors"
)

// Options controls Open.
type Options struct {
	Compression Compression
	// Timeout bounds an HTTP fetch including the body. 0 disables it.
	Timeout time.Duration
	// MaxBytes caps the bytes read from the underlying stream. 0 is unlimited.
	MaxBytes int64
	Limiter  *Limiter
	Client   *http.Client
	Stdin    io.Reader
	Logger   *slog.Logger
}

// Open returns a reader for location. "-" or "" is stdin, http:// and
// https:// locations are fetched, anything else is a file path.
func Open(ctx context.Context, location string, opts Options) (io.ReadCloser, error) {
	if opts.Compression == "" {
		opts.Compression = CompressionAuto
	}

	var (
		raw io.ReadCloser
		enc = opts.Compression
		err error
	)
	switch {
	case location == "" || location == "-":
		stdin := opts.Stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		raw = io.NopCloser(stdin)
	case isURL(location):
		var header string
		raw, header, err = fetch(ctx, location, opts)
		if err != nil {
			return nil, err
		}
		if enc == CompressionAuto {
			enc = fromContentEncoding(header)
		}
	default:
		raw, err = openFile(location)
		if err != nil {
			return nil, err
		}
	}

	if opts.MaxBytes > 0 {
		raw = &capped{rc: raw, left: opts.MaxBytes}
	}

	rc, used, err := decompress(raw, enc)
	if err != nil {
		_ = raw.Close()
		return nil, err
	}
	if opts.Logger != nil {
		opts.Logger.Debug("input opened", "location", location, "compression", string(used))
	}
	return rc, nil
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.NewInputError(fmt.Sprintf("file %s not found", path), errors.ErrFileNotFound)
		}
		return nil, errors.NewInputError(fmt.Sprintf("cannot open %s", path), err)
	}
	return f, nil
}

func fetch(ctx context.Context, location string, opts Options) (io.ReadCloser, string, error) {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	if opts.Limiter != nil {
		if err := opts.Limiter.Wait(ctx); err != nil {
			return nil, "", errors.NewIOError("waiting for rate limiter", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, "", errors.NewInputError(fmt.Sprintf("invalid URL %s", location), err)
	}
	// set explicitly so the transport leaves decoding to us
	req.Header.Set("Accept-Encoding", "gzip, zstd")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", errors.NewIOError(fmt.Sprintf("fetching %s", location), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, "", errors.NewIOError(fmt.Sprintf("fetching %s: unexpected status %s", location, resp.Status), nil)
	}
	return resp.Body, resp.Header.Get("Content-Encoding"), nil
}

// SelectorFromURL returns the uuid query parameter of an HTTP location.
func SelectorFromURL(location string) (string, bool) {
	if !isURL(location) {
		return "", false
	}
	u, err := url.Parse(location)
	if err != nil {
		return "", false
	}
	sel := u.Query().Get("uuid")
	return sel, sel != ""
}

// capped fails once more than left bytes have been read.
type capped struct {
	rc   io.ReadCloser
	left int64
}

func (c *capped) Read(p []byte) (int, error) {
	if c.left < 0 {
		return 0, errors.NewIOError("reading input", errors.ErrInputTooLarge)
	}
	// read one byte past the cap to tell "exactly at the limit" from "over it"
	if int64(len(p)) > c.left+1 {
		p = p[:c.left+1]
	}
	n, err := c.rc.Read(p)
	c.left -= int64(n)
	if c.left < 0 {
		return n + int(c.left), errors.NewIOError("reading input", errors.ErrInputTooLarge)
	}
	return n, err
}

func (c *capped) Close() error { return c.rc.Close() }
