package tabular

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/edachat/backend/internal/domain/dataset"
	"github.com/edachat/backend/internal/infrastructure/config"
)

func newTestLoader(max int64) *Loader {
	return NewLoader(&config.UploadConfig{MaxBytes: max})
}

func TestLoad_Separators(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"comma", "a,b\n1,2\n3,4\n"},
		{"semicolon", "a;b\n1;2\n3;4\n"},
		{"tab", "a\tb\n1\t2\n3\t4\n"},
		{"pipe", "a|b\n1|2\n3|4\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := newTestLoader(1024).Load("x.csv", []byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, d.ColumnNames())
			rows, cols := d.Shape()
			assert.Equal(t, 2, rows)
			assert.Equal(t, 2, cols)
		})
	}
}

func TestLoad_SemicolonWithDecimalComma(t *testing.T) {
	d, err := newTestLoader(1024).Load("x.csv", []byte("nome;valor\nana;1,5\nbia;2,5\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"nome", "valor"}, d.ColumnNames())
}

func TestLoad_Latin1(t *testing.T) {
	raw, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte("região;preço\nSão Paulo;10\n"))
	require.NoError(t, err)

	d, err := newTestLoader(1024).Load("x.csv", raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"região", "preço"}, d.ColumnNames())
	c, ok := d.Column("região")
	require.True(t, ok)
	assert.Equal(t, "São Paulo", c.Raw[0])
}

func TestLoad_UTF8BOM(t *testing.T) {
	d, err := newTestLoader(1024).Load("x.csv", append([]byte{0xEF, 0xBB, 0xBF}, "a,b\n1,2\n"...))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, d.ColumnNames())
}

func TestLoad_SingleColumnFallback(t *testing.T) {
	d, err := newTestLoader(1024).Load("x.csv", []byte("valor\n1\n2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"valor"}, d.ColumnNames())
}

func TestLoad_HashIsStable(t *testing.T) {
	l := newTestLoader(1024)
	d1, err := l.Load("a.csv", []byte("a,b\n1,2\n"))
	require.NoError(t, err)
	d2, err := l.Load("b.csv", []byte("a,b\n1,2\n"))
	require.NoError(t, err)
	d3, err := l.Load("a.csv", []byte("a,b\n1,3\n"))
	require.NoError(t, err)

	assert.Len(t, d1.Hash, 32)
	assert.Equal(t, d1.Hash, d2.Hash)
	assert.NotEqual(t, d1.Hash, d3.Hash)
}

func TestLoad_ShortRowsArePadded(t *testing.T) {
	d, err := newTestLoader(1024).Load("x.csv", []byte("a,b,c\n1,2\n4,5,6\n"))
	require.NoError(t, err)
	c, _ := d.Column("c")
	assert.Equal(t, 1, c.NullCount())
}

func TestLoad_Errors(t *testing.T) {
	_, err := newTestLoader(8).Load("x.csv", []byte("a,b\n1,2\n3,4\n"))
	assert.ErrorIs(t, err, dataset.ErrFileTooLarge)

	_, err = newTestLoader(1024).Load("x.csv", nil)
	assert.ErrorIs(t, err, dataset.ErrUnparseable)

	_, err = newTestLoader(1024).Load("x.csv", []byte("a,b\n"))
	assert.ErrorIs(t, err, dataset.ErrEmptyDataset)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	_, err = newTestLoader(1024).Load("x.png", png)
	assert.ErrorIs(t, err, dataset.ErrUnparseable)
}

func TestLoadReader_LimitsSize(t *testing.T) {
	_, err := newTestLoader(10).LoadReader("x.csv", strings.NewReader(strings.Repeat("a,b\n", 100)))
	assert.ErrorIs(t, err, dataset.ErrFileTooLarge)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vendas.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644))

	d, err := newTestLoader(1024).LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "vendas.csv", d.Name)
}
