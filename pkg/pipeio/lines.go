package pipeio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/muesli/cancelreader"
)

// maxLine bounds a single console line.
const maxLine = 64 * 1024

// Lines calls fn with every line read from rc, without the line ending,
// until rc is exhausted, fn fails or ctx is done. rc is closed when ctx is
// done to interrupt a blocked read. End of input is not an error.
func Lines(ctx context.Context, rc io.ReadCloser, fn func(line string) error) error {
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
			rc.Close()
		case <-stop:
		}
	}()

	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 4096), maxLine)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(strings.TrimSuffix(sc.Text(), "\r")); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sc.Err(); err != nil && !errors.Is(err, cancelreader.ErrCanceled) {
		return fmt.Errorf("reading lines: %w", err)
	}
	return nil
}
