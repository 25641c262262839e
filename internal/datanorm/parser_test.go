package datanorm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParse_CSVSemicolonWithBOM(t *testing.T) {
	data := "\xEF\xBB\xBFNombre;Localidad;Monto\n\nAna;Pocitos;1.250,50\n;;\nLuis;Shangrilá;300\n"

	sheet, err := Parse(strings.NewReader(data), "envios.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"Nombre", "Localidad", "Monto"}, sheet.Headers)
	assert.Equal(t, 2, sheet.TotalRows())
	assert.Equal(t, "Shangrilá", sheet.Rows[1]["Localidad"])
	assert.Len(t, sheet.Sample(SampleSize), 2)
}

func TestParse_CSVHeadersMadeUnique(t *testing.T) {
	data := "Obs,Obs,\nuno,dos,tres\n"

	sheet, err := Parse(strings.NewReader(data), "x.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"Obs", "Obs (2)", "Column 3"}, sheet.Headers)
	assert.Equal(t, "dos", sheet.Rows[0]["Obs (2)"])
}

func TestParse_ShortRowsLeaveCellsAbsent(t *testing.T) {
	sheet, err := Parse(strings.NewReader("a,b,c\n1\n"), "x.csv")
	require.NoError(t, err)
	_, ok := sheet.Rows[0]["c"]
	assert.False(t, ok)
}

func TestParse_XLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Destinatario"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Departamento"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Ana"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "Canelones"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	sheet, err := Parse(bytes.NewReader(buf.Bytes()), "envios.XLSX")
	require.NoError(t, err)
	assert.Equal(t, []string{"Destinatario", "Departamento"}, sheet.Headers)
	require.Equal(t, 1, sheet.TotalRows())
	assert.Equal(t, "Canelones", sheet.Rows[0]["Departamento"])
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(strings.NewReader(""), "empty.csv")
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = Parse(strings.NewReader("x"), "file.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
