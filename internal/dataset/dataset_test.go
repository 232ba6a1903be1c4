package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDefaultColumns(t *testing.T) {
	src := "time,signal,note\n0,1.5,a\n1, 2.5,b\n\n2,3.5,c\n"
	tab, err := Read(strings.NewReader(src), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "time", tab.XName)
	assert.Equal(t, "signal", tab.YName)
	assert.Equal(t, []float64{0, 1, 2}, tab.X)
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, tab.Y)
	assert.Equal(t, 3, tab.Len())
}

func TestReadColumnsByName(t *testing.T) {
	src := "a;b;c\n1;10;100\n2;20;200\n"
	tab, err := Read(strings.NewReader(src), Options{Delimiter: ';', Header: true, XCol: "c", YCol: "a"})
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 200}, tab.X)
	assert.Equal(t, []float64{1, 2}, tab.Y)
}

func TestReadWithoutHeader(t *testing.T) {
	src := "1|2|3\n4|5|6\n"
	tab, err := Read(strings.NewReader(src), Options{Delimiter: '|', XCol: "2", YCol: "0"})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 6}, tab.X)
	assert.Equal(t, []float64{1, 4}, tab.Y)
	assert.Equal(t, "2", tab.XName)
}

func TestReadErrors(t *testing.T) {
	cases := map[string]struct {
		src  string
		opts Options
		want error
	}{
		"non-numeric":     {"x,y\n1,abc\n", DefaultOptions(), ErrNotNumeric},
		"unknown column":  {"x,y\n1,2\n", Options{Header: true, XCol: "x", YCol: "z"}, ErrColumn},
		"index past end":  {"x,y\n1,2\n", Options{Header: true, XCol: "0", YCol: "5"}, ErrColumn},
		"short row":       {"x,y\n1,2\n3\n", DefaultOptions(), ErrColumn},
		"header only":     {"x,y\n", DefaultOptions(), ErrEmpty},
		"bad delimiter":   {"x y\n1 2\n", Options{Delimiter: ' ', Header: true}, ErrDelimiter},
		"negative column": {"1,2\n", Options{XCol: "-1", YCol: "1"}, ErrColumn},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Read(strings.NewReader(c.src), c.opts)
			assert.ErrorIs(t, err, c.want)
		})
	}
}

func TestReadReportsLine(t *testing.T) {
	_, err := Read(strings.NewReader("x,y\n1,2\n3,oops\n"), DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestParseDelimiter(t *testing.T) {
	for in, want := range map[string]rune{
		",": ',', "comma": ',', "": ',',
		";": ';', "Semicolon": ';',
		"\t": '\t', `\t`: '\t', "tab": '\t',
		"|": '|', "pipe": '|',
	} {
		got, err := ParseDelimiter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDelimiter(":")
	assert.ErrorIs(t, err, ErrDelimiter)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.tsv")
	require.NoError(t, os.WriteFile(path, []byte("x\ty\n1\t2\n"), 0o644))

	tab, err := Load(path, Options{Delimiter: '\t', Header: true})
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, tab.X)
	assert.Equal(t, []float64{2}, tab.Y)

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"), DefaultOptions())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
