package urls

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrEmptyList is returned when a URL list has no entries
var ErrEmptyList = errors.New("no URLs found in list")

// FileParser reads post URLs from a local list file
type FileParser struct{}

// NewFileParser creates a new file parser
func NewFileParser() *FileParser {
	return &FileParser{}
}

// Fetch implements URLsFetcher. path is a local path, optionally written as
// a file:// URL.
func (p *FileParser) Fetch(ctx context.Context, path string) ([]URL, error) {
	f, err := os.Open(strings.TrimPrefix(path, "file://"))
	if err != nil {
		return nil, fmt.Errorf("failed to open URL list: %w", err)
	}
	defer f.Close()

	return ReadList(ctx, f)
}

// ReadList reads one URL per line. Blank lines and # comments are skipped.
// Columns are separated by whitespace and a comma ending a column is dropped,
// so commas inside a URL survive. A second column, if present, is kept as the
// lastmod hint.
func ReadList(ctx context.Context, r io.Reader) ([]URL, error) {
	var list []URL

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		for i, f := range fields {
			fields[i] = strings.TrimSuffix(f, ",")
		}
		if fields[0] == "" {
			continue
		}

		entry := URL{Location: fields[0]}
		if len(fields) > 1 {
			entry.LastMod = fields[1]
		}
		list = append(list, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}
	if len(list) == 0 {
		return nil, ErrEmptyList
	}
	return list, nil
}
