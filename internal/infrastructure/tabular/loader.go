package tabular

import (
	"bytes"
	"crypto/md5"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/encoding/charmap"

	"github.com/edachat/backend/internal/domain/dataset"
	"github.com/edachat/backend/internal/infrastructure/config"
	"github.com/edachat/backend/internal/infrastructure/log"
)

// Separators are tried in order; the last one is accepted even when it yields one column.
var Separators = []rune{',', ';', '\t', '|'}

type decoder struct {
	name   string
	decode func([]byte) ([]byte, error)
}

var decoders = []decoder{
	{"utf-8", decodeUTF8},
	{"iso-8859-1", decodeWith(charmap.ISO8859_1)},
	{"latin1", decodeWith(charmap.Windows1252)},
}

func decodeWith(cm *charmap.Charmap) func([]byte) ([]byte, error) {
	return func(raw []byte) ([]byte, error) {
		return cm.NewDecoder().Bytes(raw)
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func decodeUTF8(raw []byte) ([]byte, error) {
	if !utf8.Valid(raw) {
		return nil, errors.New("invalid utf-8")
	}
	return bytes.TrimPrefix(raw, utf8BOM), nil
}

// Loader parses uploaded delimited text files into datasets.
type Loader struct {
	maxBytes int64
	logger   *slog.Logger
}

// NewLoader creates a loader enforcing cfg.MaxBytes.
func NewLoader(cfg *config.UploadConfig) *Loader {
	return &Loader{
		maxBytes: cfg.MaxBytes,
		logger:   log.NewModuleLogger("tabular", "loader"),
	}
}

// MaxBytes returns the upload limit.
func (l *Loader) MaxBytes() int64 {
	return l.maxBytes
}

// LoadFile reads and parses the file at path.
func (l *Loader) LoadFile(path string) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return l.LoadReader(filepath.Base(path), f)
}

// LoadReader reads at most MaxBytes from r and parses it.
func (l *Loader) LoadReader(name string, r io.Reader) (*dataset.Dataset, error) {
	raw, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return l.Load(name, raw)
}

// Load parses raw, trying every encoding and separator combination until one yields
// more than one column. The dataset hash is the MD5 of raw.
func (l *Loader) Load(name string, raw []byte) (*dataset.Dataset, error) {
	if int64(len(raw)) > l.maxBytes {
		return nil, fmt.Errorf("%w: %s is larger than %s", dataset.ErrFileTooLarge, name, humanize.IBytes(uint64(l.maxBytes)))
	}
	if mt := mimetype.Detect(raw); !isText(mt) {
		return nil, fmt.Errorf("%w: %s looks like %s", dataset.ErrUnparseable, name, mt.String())
	}

	sum := md5.Sum(raw)
	hash := hex.EncodeToString(sum[:])

	var lastErr error
	for _, dec := range decoders {
		text, err := dec.decode(raw)
		if err != nil {
			lastErr = err
			continue
		}
		for i, sep := range Separators {
			header, records, err := parse(text, sep)
			if err != nil {
				lastErr = err
				continue
			}
			if len(header) <= 1 && i < len(Separators)-1 {
				continue
			}
			d, err := dataset.New(name, header, records)
			if err != nil {
				lastErr = err
				continue
			}
			if d.IsEmpty() {
				return nil, fmt.Errorf("%s: %w", name, dataset.ErrEmptyDataset)
			}
			d.Hash = hash
			rows, cols := d.Shape()
			l.logger.Info("Dataset loaded",
				"name", name,
				"encoding", dec.name,
				"separator", string(sep),
				"rows", rows,
				"columns", cols,
				"size", humanize.IBytes(uint64(len(raw))),
			)
			return d, nil
		}
	}
	l.logger.Warn("Dataset could not be parsed", "name", name, "error", lastErr)
	return nil, fmt.Errorf("%w: %s", dataset.ErrUnparseable, name)
}

// isText reports whether mt is textual or undetected. Archives, images and office
// documents are rejected.
func isText(mt *mimetype.MIME) bool {
	if mt.Is("application/octet-stream") {
		return true
	}
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// parse reads text as delimited records. Short records are padded with empty cells;
// records longer than the header fail the parse.
func parse(text []byte, sep rune) ([]string, [][]string, error) {
	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	header, err := r.Read()
	if err != nil {
		return nil, nil, err
	}
	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if len(rec) == 1 && rec[0] == "" {
			continue
		}
		if len(rec) > len(header) {
			return nil, nil, fmt.Errorf("line %d has %d fields, header has %d", len(records)+2, len(rec), len(header))
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		records = append(records, rec)
	}
	return header, records, nil
}
