package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	report := Collect(testEntries(), standardKeys, nil)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, report))

	expected := "Marathon: root, instances\n" +
		"1,10,100\n" +
		"2,4,60\n" +
		"\n" +
		"Marathon: root, count\n" +
		"10\n" +
		"0\n" +
		"\n" +
		"Marathon: root, group\n" +
		"\n" +
		"\n" +
		"\n"
	assert.Equal(t, expected, buf.String())
}

func TestCSVRoundTrip(t *testing.T) {
	entries := testEntries()
	entries[0].DeployTime = 1234567891
	report := Collect(entries, standardKeys, nil)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, report))
	blocks, err := ReadCSV(&buf)
	require.NoError(t, err)

	expected := make([]*Block, 0, len(report.Series))
	for _, series := range report.Series {
		target, observed := series.Rows()
		expected = append(expected, &Block{Key: series.Key, Target: target, Observed: observed})
	}
	if diff := cmp.Diff(expected, blocks, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("blocks read back differ (-written +read):\n%s", diff)
	}
	assert.Equal(t, []string{"1.234567891", "4", "60"}, blocks[0].Observed)
}

func TestReadCSV_Malformed(t *testing.T) {
	tests := map[string]string{
		"missing header":       "1,2,3\n4,5,6\n",
		"truncated block":      "Marathon: root, instances\n1,2,3\n",
		"header without shape": "Marathon: root\n1\n2\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestReadCSV_CRLF(t *testing.T) {
	blocks, err := ReadCSV(strings.NewReader("Marathon: root, count\r\n1,10\r\n0.5,1.5\r\n\r\n"))
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, []string{"1", "10"}, blocks[0].Target)
	assert.Equal(t, []string{"0.5", "1.5"}, blocks[0].Observed)
}
