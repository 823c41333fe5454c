package tabular

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVSource_Table(t *testing.T) {
	dir := t.TempDir()
	content := "\ufeff\"Fetal Sex (Male, Female or Unknown)\",Birthweight (grams),Gestation (days)\n" +
		"Male,3200,280\n" +
		",,\n" +
		"Female, 2900,\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Calculator.csv"), []byte(content), 0o600))

	src := NewCSVSource(dir)
	tbl, err := src.Table(context.Background(), "Calculator")
	require.NoError(t, err)

	assert.Equal(t, []string{"Fetal Sex (Male, Female or Unknown)", "Birthweight (grams)", "Gestation (days)"}, tbl.Columns)
	require.Len(t, tbl.Records, 2)
	assert.Equal(t, "Male", tbl.Records[0]["Fetal Sex (Male, Female or Unknown)"])
	assert.Equal(t, "3200", tbl.Records[0]["Birthweight (grams)"])
	assert.Equal(t, "2900", tbl.Records[1]["Birthweight (grams)"])
	assert.Equal(t, "", tbl.Records[1]["Gestation (days)"])
}

func TestCSVSource_ApostropheInName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Boy's Centile.csv"), []byte("Gestational Age,50th\n40,3500\n"), 0o600))

	tbl, err := NewCSVSource(dir).Table(context.Background(), "Boy's Centile")
	require.NoError(t, err)
	assert.Equal(t, []string{"Gestational Age", "50th"}, tbl.Columns)
}

func TestCSVSource_NotFound(t *testing.T) {
	_, err := NewCSVSource(t.TempDir()).Table(context.Background(), "Calculator")
	assert.True(t, errors.Is(err, ErrTableNotFound))
}

func TestCSVSource_RejectsPaths(t *testing.T) {
	_, err := NewCSVSource(t.TempDir()).Table(context.Background(), "../secrets")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrTableNotFound))
}

func TestReadCSV_Malformed(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,\"b\n"))
	assert.Error(t, err)
}
