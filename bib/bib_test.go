package bib

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBib = `% references for the decomposition report
@article{Smith2020,
  author  = {Smith, John and Doe, Jane},
  title   = {Multi-echo denoising at scale},
  journal = {NeuroImage},
  year    = {2020},
  doi     = {10.1000/smith.2020}
}

@inproceedings{Jones2019,
  author    = {Alice Jones and Bob Brown},
  title     = {Elbow selection for {ICA} metrics},
  booktitle = {Proc. OHBM},
  year      = "2019"
}
`

func writeBib(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "references.bib")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParse(t *testing.T) {
	bibliography, err := Parse(writeBib(t, sampleBib))
	require.NoError(t, err)
	require.Equal(t, 2, bibliography.Len())

	smith, ok := bibliography.Entry("Smith2020")
	require.True(t, ok)
	assert.Equal(t, "article", smith.Type)
	assert.Equal(t, "2020", smith.Year)
	require.Len(t, smith.Authors, 2)
	assert.Equal(t, "Smith", smith.Authors[0].Surname)
	assert.Equal(t, "Doe", smith.Authors[1].Surname)
	assert.Equal(t, "Multi-echo denoising at scale", smith.Fields["title"])

	jones, ok := bibliography.Entry("Jones2019")
	require.True(t, ok)
	// "Given Surname" form: surname is the last token.
	assert.Equal(t, "Jones", jones.Authors[0].Surname)
	assert.Equal(t, "2019", jones.Year)
	assert.Equal(t, "Elbow selection for ICA metrics", jones.Fields["title"])

	assert.Equal(t, []string{"Jones2019", "Smith2020"}, bibliography.Keys())
}

func TestParse_SkipsNonCitationBlocks(t *testing.T) {
	src := `@comment{ignore all of this}
@string{ohbm = "Proc. OHBM"}
@article{Only2021,
  author = {Only, One},
  year = {2021}
}
`
	bibliography, err := Parse(writeBib(t, src))
	require.NoError(t, err)
	assert.Equal(t, []string{"Only2021"}, bibliography.Keys())
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unterminated entry", "@article{Broken2020,\n  author = {A, B}"},
		{"missing equals", "@article{Broken2020,\n  author {A, B}\n}"},
		{"unterminated value", "@article{Broken2020,\n  author = {A, B\n}"},
		{"missing key", "@article{,\n  author = {A, B}\n}"},
		{"duplicate key", "@article{Dup, year={2020}}\n@misc{Dup, year={2021}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(writeBib(t, tt.src))
			require.Error(t, err)
			var parseErr *ParseError
			assert.True(t, errors.As(err, &parseErr), "want *ParseError, got %T", err)
		})
	}
}

func TestParse_MissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.bib"))
	require.Error(t, err)
}

func TestFormatter_InlineCitation(t *testing.T) {
	f := NewAPAFormatter()

	got, err := f.InlineCitation(Entry{
		Key:     "Smith2020",
		Authors: []Author{{Full: "Smith, John", Surname: "Smith"}},
		Year:    "2020",
	})
	require.NoError(t, err)
	assert.Equal(t, "Smith et al. 2020", got)

	_, err = f.InlineCitation(Entry{Key: "NoAuthor", Year: "2020"})
	assert.Error(t, err)

	_, err = f.InlineCitation(Entry{
		Key:     "NoYear",
		Authors: []Author{{Full: "Smith", Surname: "Smith"}},
	})
	assert.Error(t, err)
}

func TestBibliography_RenderHTML(t *testing.T) {
	bibliography, err := Parse(writeBib(t, sampleBib))
	require.NoError(t, err)

	html := bibliography.RenderHTML(NewAPAFormatter())

	// Key order: Jones2019 before Smith2020.
	jonesIdx := indexOf(t, html, "Alice Jones")
	smithIdx := indexOf(t, html, "Smith, John")
	assert.Less(t, jonesIdx, smithIdx)

	assert.Contains(t, html, "<li>")
	assert.Contains(t, html, "(2020).")
	assert.Contains(t, html, "<i>NeuroImage</i>.")
	assert.Contains(t, html, "doi:10.1000/smith.2020")
}

func TestBibliography_RenderHTML_Deterministic(t *testing.T) {
	path := writeBib(t, sampleBib)
	first, err := Parse(path)
	require.NoError(t, err)
	second, err := Parse(path)
	require.NoError(t, err)

	f := NewAPAFormatter()
	assert.Equal(t, first.RenderHTML(f), second.RenderHTML(f))
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()
	idx := strings.Index(haystack, needle)
	require.GreaterOrEqual(t, idx, 0, "%q not found", needle)
	return idx
}
