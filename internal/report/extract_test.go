package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const basicTable = `<table>` +
	`<tr><th>TOTAL</th><th>PASSED</th><th>FAILED</th><th>SKIPPED</th></tr>` +
	`<tr><td>10</td><td>8</td><td>2</td><td>0</td></tr>` +
	`</table>`

func TestExtract_BasicTable(t *testing.T) {
	res, err := Extract(basicTable)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	assert.Equal(t, 10, rec.Total)
	assert.Equal(t, 8, rec.Passed)
	assert.Equal(t, 2, rec.Failed)
	assert.Equal(t, 0, rec.Skipped)
	assert.Equal(t, 80.0, rec.PassPercent)
	assert.True(t, rec.Consistent())
	assert.Empty(t, res.UnknownColumns)
}

func TestExtract_MalformedCountBecomesZero(t *testing.T) {
	html := `<table>` +
		`<tr><th>TOTAL</th><th>PASSED</th><th>FAILED</th><th>SKIPPED</th></tr>` +
		`<tr><td>10</td><td>N/A</td><td>2</td><td>0</td></tr>` +
		`</table>`

	res, err := Extract(html)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	// Coercion to zero, not row rejection.
	rec := res.Records[0]
	assert.Equal(t, 10, rec.Total)
	assert.Equal(t, 0, rec.Passed)
	assert.Equal(t, 2, rec.Failed)
	assert.Equal(t, 0, rec.Skipped)
	assert.Equal(t, 0.0, rec.PassPercent)
	assert.False(t, rec.Consistent())
}

func TestExtract_NoTableReturnsNil(t *testing.T) {
	res, err := Extract(`<html><body><p>deployment finished</p></body></html>`)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestExtract_EmptyBody(t *testing.T) {
	res, err := Extract("")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestExtract_HeaderPermutation(t *testing.T) {
	// Mapping is by column name, not position.
	html := `<table>` +
		`<tr><th>SKIPPED</th><th>FAILED</th><th>TOTAL</th><th>PASSED</th></tr>` +
		`<tr><td>1</td><td>2</td><td>10</td><td>7</td></tr>` +
		`</table>`

	res, err := Extract(html)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	assert.Equal(t, 10, rec.Total)
	assert.Equal(t, 7, rec.Passed)
	assert.Equal(t, 2, rec.Failed)
	assert.Equal(t, 1, rec.Skipped)
}

func TestExtract_LowercaseColumnNamesNotRecognized(t *testing.T) {
	html := `<table>` +
		`<tr><th>total</th><th>passed</th></tr>` +
		`<tr><td>10</td><td>8</td></tr>` +
		`</table>`

	res, err := Extract(html)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	// Unrecognized headers are reported, counts default to 0.
	assert.Equal(t, 0, res.Records[0].Total)
	assert.ElementsMatch(t, []string{"total", "passed"}, res.UnknownColumns)
}

func TestExtract_SpacerRowsDropped(t *testing.T) {
	html := `<table>` +
		`<tr><th>TOTAL</th><th>PASSED</th><th>FAILED</th><th>SKIPPED</th></tr>` +
		`<tr></tr>` +
		`<tr><td>5</td><td>5</td><td>0</td><td>0</td></tr>` +
		`<tr></tr>` +
		`</table>`

	res, err := Extract(html)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 5, res.Records[0].Total)
}

func TestExtract_MultiSuiteTable(t *testing.T) {
	html := `<table>` +
		`<tr><th>SUITE</th><th>TOTAL</th><th>PASSED</th><th>FAILED</th><th>SKIPPED</th></tr>` +
		`<tr><td>login</td><td>4</td><td>4</td><td>0</td><td>0</td></tr>` +
		`<tr><td>checkout</td><td>6</td><td>3</td><td>2</td><td>1</td></tr>` +
		`</table>`

	res, err := Extract(html)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)

	assert.Equal(t, "login", res.Records[0].SuiteName)
	assert.Equal(t, 100.0, res.Records[0].PassPercent)
	assert.Equal(t, "checkout", res.Records[1].SuiteName)
	assert.Equal(t, 50.0, res.Records[1].PassPercent)
}

func TestExtract_DateColumn(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want time.Time
	}{
		{
			name: "rfc3339",
			cell: "2026-08-01T06:30:00Z",
			want: time.Date(2026, 8, 1, 6, 30, 0, 0, time.UTC),
		},
		{
			name: "datetime",
			cell: "2026-08-01 06:30:00",
			want: time.Date(2026, 8, 1, 6, 30, 0, 0, time.UTC),
		},
		{
			name: "date only",
			cell: "2026-08-01",
			want: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "unparseable falls back to zero",
			cell: "yesterday",
			want: time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := `<table>` +
				`<tr><th>DATE</th><th>TOTAL</th><th>PASSED</th><th>FAILED</th><th>SKIPPED</th></tr>` +
				`<tr><td>` + tt.cell + `</td><td>1</td><td>1</td><td>0</td><td>0</td></tr>` +
				`</table>`

			res, err := Extract(html)
			require.NoError(t, err)
			require.Len(t, res.Records, 1)
			assert.True(t, res.Records[0].ExecutedAt.Equal(tt.want),
				"got %v, want %v", res.Records[0].ExecutedAt, tt.want)
		})
	}
}

func TestExtract_PercentColumnPreferred(t *testing.T) {
	html := `<table>` +
		`<tr><th>TOTAL</th><th>PASSED</th><th>FAILED</th><th>SKIPPED</th><th>PASS %</th></tr>` +
		`<tr><td>10</td><td>8</td><td>2</td><td>0</td><td>80.5%</td></tr>` +
		`</table>`

	res, err := Extract(html)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 80.5, res.Records[0].PassPercent)
}

func TestExtract_MalformedPercentDerivedInstead(t *testing.T) {
	html := `<table>` +
		`<tr><th>TOTAL</th><th>PASSED</th><th>FAILED</th><th>SKIPPED</th><th>PASS %</th></tr>` +
		`<tr><td>10</td><td>8</td><td>2</td><td>0</td><td>n/a</td></tr>` +
		`</table>`

	res, err := Extract(html)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 80.0, res.Records[0].PassPercent)
}

func TestExtract_DoesNotFixInconsistentTotal(t *testing.T) {
	// The source says TOTAL=12 while the outcomes add to 10; the
	// record keeps the source's numbers and flags the mismatch.
	html := `<table>` +
		`<tr><th>TOTAL</th><th>PASSED</th><th>FAILED</th><th>SKIPPED</th></tr>` +
		`<tr><td>12</td><td>8</td><td>2</td><td>0</td></tr>` +
		`</table>`

	res, err := Extract(html)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 12, res.Records[0].Total)
	assert.False(t, res.Records[0].Consistent())
}

func TestExtract_ZeroTotalZeroPercent(t *testing.T) {
	html := `<table>` +
		`<tr><th>TOTAL</th><th>PASSED</th><th>FAILED</th><th>SKIPPED</th></tr>` +
		`<tr><td>0</td><td>0</td><td>0</td><td>0</td></tr>` +
		`</table>`

	res, err := Extract(html)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 0.0, res.Records[0].PassPercent)
}

func TestExtract_TableWithOnlyHeaderReturnsNil(t *testing.T) {
	html := `<table>` +
		`<tr><th>TOTAL</th><th>PASSED</th><th>FAILED</th><th>SKIPPED</th></tr>` +
		`</table>`

	res, err := Extract(html)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestExtract_SurroundingMarkupAndWhitespace(t *testing.T) {
	html := `<html><body><p>Nightly results attached.</p>` +
		`<table><thead><tr><th> TOTAL </th><th> PASSED </th><th>FAILED</th><th>SKIPPED</th></tr></thead>` +
		`<tbody><tr><td> 3 </td><td>3</td><td> 0</td><td>0 </td></tr></tbody></table>` +
		`<table><tr><th>TOTAL</th></tr><tr><td>999</td></tr></table>` +
		`</body></html>`

	res, err := Extract(html)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	// Only the first table counts, and cell text is trimmed.
	assert.Equal(t, 3, res.Records[0].Total)
	assert.Equal(t, 3, res.Records[0].Passed)
}
