package labels

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRules = `
vocabulary:
  - All
  - Economically Disadvantaged
  - Non-Economically Disadvantaged
  - English Learners
mappings:
  - raw: Econ Disadv
    canonical: Economically Disadvantaged
  - raw: EL
    canonical: English Learners
  - raw: Non Economically Disadvantaged
    canonical: All
  - raw: Non Economically Disadvantaged
    canonical: Non-Economically Disadvantaged
    period: "2024"
expectations:
  "2024":
    required:
      - All
      - Economically Disadvantaged
    allowed_missing:
      - Non-Economically Disadvantaged
`

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labels.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	rs, err := Load(writeRules(t, testRules))
	require.NoError(t, err)

	assert.Len(t, rs.Vocabulary(), 4)

	exp, ok := rs.Expectation(2024)
	require.True(t, ok)
	assert.Equal(t, []string{"All", "Economically Disadvantaged"}, exp.Required)

	_, ok = rs.Expectation(2019)
	assert.False(t, ok)
}

func TestLoadMissingFileIsFatalConfigError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRuleFileNotFound)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	_, err := Load(writeRules(t, "vocabulary: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoadRejectsEmptyVocabulary(t *testing.T) {
	_, err := Load(writeRules(t, "mappings:\n  - raw: a\n    canonical: b\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestLoadRejectsMappingOutsideVocabulary(t *testing.T) {
	content := `
vocabulary:
  - All
mappings:
  - raw: Something
    canonical: Not In Vocabulary
`
	_, err := Load(writeRules(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the vocabulary")
}

func TestLoadRejectsBadPeriodScope(t *testing.T) {
	content := `
vocabulary:
  - All
mappings:
  - raw: Something
    canonical: All
    period: twenty-twenty
`
	_, err := Load(writeRules(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid period scope")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "econ disadv", Normalize("  Econ   Disadv "))
	assert.Equal(t, "all", Normalize("ALL"))
	assert.Equal(t, "", Normalize("   "))
}
