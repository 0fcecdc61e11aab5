package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "report.pdf", SanitizeFilename("report.pdf"))
	assert.Equal(t, "passwd", SanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "my_file__1_.txt", SanitizeFilename("my file (1).txt"))
	assert.Equal(t, "file", SanitizeFilename(""))
	assert.Equal(t, "file", SanitizeFilename(".."))
}

func TestStorageNameIsUnique(t *testing.T) {
	a := StorageName("report.pdf")
	b := StorageName("report.pdf")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, "_report.pdf"))
}

func TestFileExt(t *testing.T) {
	assert.Equal(t, "pdf", FileExt("Report.PDF"))
	assert.Equal(t, "xlsx", FileExt("/tmp/data.xlsx"))
	assert.Equal(t, "", FileExt("noextension"))
}
