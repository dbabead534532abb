package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/itsmeakapa/secref/cmd/secref/cli/options"
)

func Test_rootConfig_unmarshalFromApplicationConfig(t *testing.T) {
	contents := `
dataset:
  data-dir: /srv/secref/data
  log-dir: /srv/secref/logs
vulnrichment:
  branch: main
cpes:
  api-key: super-secret
  test-mode: true
epss:
  date: 2024-03-15
`

	cfg := rootConfig{
		Dataset:      options.DefaultDataset(),
		Vulnrichment: options.DefaultVulnrichment(),
		CPEs:         options.DefaultCPEs(),
		EPSS:         options.DefaultEPSS(),
	}
	require.NoError(t, yaml.Unmarshal([]byte(contents), &cfg))

	assert.Equal(t, "/srv/secref/data", cfg.Dataset.DataDir)
	assert.Equal(t, "/srv/secref/logs", cfg.Dataset.LogDir)
	assert.Equal(t, "main", cfg.Vulnrichment.Branch)
	assert.Equal(t, "super-secret", cfg.CPEs.APIKey)
	assert.True(t, cfg.CPEs.TestMode)
	assert.Equal(t, "2024-03-15", cfg.EPSS.Date)

	// values not named in the file keep their defaults
	assert.Equal(t, "tar.gz", cfg.Dataset.ArchiveExtension)
	assert.Equal(t, 1, cfg.Vulnrichment.CloneDepth)
}
