package sites

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gridFixture = `
<table class="gvRow">
  <tr><td colspan="10">REGISTRO INTEGRAL</td></tr>
  <tr><td colspan="10">Resultados</td></tr>
  <tr>
    <th>Sel</th><th>Item</th><th>RUC</th><th>Nombre</th><th>Derecho</th>
    <th>Codigo</th><th>Dpto</th><th>Prov</th><th>Dist</th><th>Estado</th>
  </tr>
  <tr>
    <td><input type="radio"/></td>
    <td>1</td><td>20100047218</td><td>MINERA UNO S.A.C.</td>
    <td>DERECHO UNO</td><td>010000123</td>
    <td>AREQUIPA</td><td>CARAVELI</td><td>CHALA</td><td>VIGENTE</td>
  </tr>
  <tr>
    <td><input type="radio"/></td>
    <td>2</td><td> 20100047219 </td><td>MINERA DOS E.I.R.L.</td>
    <td>DERECHO DOS</td><td>010000456</td>
    <td>PUNO</td><td>SANDIA</td><td>PHARA</td><td>SUSPENDIDO</td>
  </tr>
</table>`

func TestParseGridRows(t *testing.T) {
	rows, err := parseGridRows(gridFixture)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Decoration rows and the leading selector cell are dropped; cell
	// text is trimmed.
	assert.Equal(t, []string{
		"1", "20100047218", "MINERA UNO S.A.C.", "DERECHO UNO",
		"010000123", "AREQUIPA", "CARAVELI", "CHALA", "VIGENTE",
	}, rows[0])
	assert.Equal(t, "20100047219", rows[1][1])
	assert.Len(t, rows[0], len(ReinfoColumns))
}

func TestParseGridRowsEmptyGrid(t *testing.T) {
	rows, err := parseGridRows(`<table class="gvRow">
		<tr><td>title</td></tr><tr><td>sub</td></tr><tr><th>h</th></tr>
	</table>`)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
