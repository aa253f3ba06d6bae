package sarif

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeReport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.sarif")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSummarizeSingleMessage(t *testing.T) {
	path := writeReport(t, `{"runs":[{"results":[{"message":{"text":"A"}}]}]}`)
	assert.Equal(t, "A", NewParser().Summarize(path))
}

func TestSummarizeJoinsWithSeparator(t *testing.T) {
	path := writeReport(t, `{"runs":[{"results":[{"message":{"text":"A"}},{"message":{"text":"B"}}]}]}`)
	assert.Equal(t, "A \n ----------------- \n B", NewParser().Summarize(path))
}

func TestSummarizeAcrossRuns(t *testing.T) {
	path := writeReport(t, `{"runs":[{"results":[{"message":{"text":"A"}}]},{"results":[{"message":{"text":"B"}}]}]}`)
	assert.Equal(t, "A \n ----------------- \n B", NewParser().Summarize(path))
}

func TestSummarizeMalformedDocument(t *testing.T) {
	path := writeReport(t, `{"runs": not json`)
	assert.Equal(t, "", NewParser().Summarize(path))
}

func TestSummarizeMissingFile(t *testing.T) {
	assert.Equal(t, "", NewParser().Summarize(filepath.Join(t.TempDir(), "nope.sarif")))
}
