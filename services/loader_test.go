package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadPlainText(t *testing.T) {
	loader := NewDocumentLoader()
	path := writeTempFile(t, "notes.txt", "line one\nline two")

	units, err := loader.Load(path, "txt")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "line one\nline two", units[0].Text)
	assert.Equal(t, 1, units[0].Page)
}

func TestLoadMarkdown(t *testing.T) {
	loader := NewDocumentLoader()
	path := writeTempFile(t, "readme.md", "# Title\n\nBody text")

	units, err := loader.Load(path, "md")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Contains(t, units[0].Text, "Body text")
}

func TestLoadHTMLStripsMarkup(t *testing.T) {
	loader := NewDocumentLoader()
	html := `<html><head><script>var x = 1;</script></head>
<body><h1>Heading</h1><p>Paragraph text.</p></body></html>`
	path := writeTempFile(t, "page.html", html)

	units, err := loader.Load(path, "html")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Contains(t, units[0].Text, "Heading")
	assert.Contains(t, units[0].Text, "Paragraph text.")
	assert.NotContains(t, units[0].Text, "var x")
}

func TestLoadUnsupportedExtension(t *testing.T) {
	loader := NewDocumentLoader()
	path := writeTempFile(t, "data.csv", "a,b,c")

	_, err := loader.Load(path, "csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedType))
	assert.Contains(t, err.Error(), "csv")
}

func TestLoadMissingFile(t *testing.T) {
	loader := NewDocumentLoader()

	_, err := loader.Load(filepath.Join(t.TempDir(), "absent.txt"), "txt")
	require.Error(t, err)
}

func TestSupported(t *testing.T) {
	loader := NewDocumentLoader()

	assert.True(t, loader.Supported("pdf"))
	assert.True(t, loader.Supported("xlsx"))
	assert.False(t, loader.Supported("csv"))
	assert.False(t, loader.Supported("exe"))
}
