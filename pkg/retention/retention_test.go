package retention

import (
	"sort"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFiles(t *testing.T, fs afero.Fs, dir string, names ...string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(dir, 0o755))
	for _, name := range names {
		require.NoError(t, afero.WriteFile(fs, dir+"/"+name, []byte(name), 0o644))
	}
}

func listFiles(t *testing.T, fs afero.Fs, dir string) []string {
	t.Helper()
	infos, err := afero.ReadDir(fs, dir)
	require.NoError(t, err)
	var names []string
	for _, info := range infos {
		names = append(names, info.Name())
	}
	sort.Strings(names)
	return names
}

func TestPrune(t *testing.T) {
	tests := []struct {
		name   string
		files  []string
		policy Policy
		want   []string
	}{
		{
			name: "keeps newest logs",
			files: []string{
				"cpes_download_2024-03-10_090000.log",
				"cpes_download_2024-03-12_090000.log",
				"cpes_download_2024-03-14_090000.log",
				"cpes_download_2024-03-15_090000.log",
			},
			policy: Policy{Glob: "cpes_download_*.log", Keep: 3},
			want: []string{
				"cpes_download_2024-03-12_090000.log",
				"cpes_download_2024-03-14_090000.log",
				"cpes_download_2024-03-15_090000.log",
			},
		},
		{
			name: "keep zero removes every match",
			files: []string{
				"cpes_2024-03-14_090000.csv",
				"cpes_2024-03-15_090000.csv",
			},
			policy: Policy{Glob: "cpes_*.csv", Keep: 0},
			want:   nil,
		},
		{
			name: "fewer matches than keep is a no-op",
			files: []string{
				"epss_download_2024-03-15_090000.log",
			},
			policy: Policy{Glob: "epss_download_*.log", Keep: 3},
			want: []string{
				"epss_download_2024-03-15_090000.log",
			},
		},
		{
			name: "non-matching files survive",
			files: []string{
				"cpes.csv.tar.gz",
				"cpes_2024-03-14_090000.csv",
			},
			policy: Policy{Glob: "cpes_*.csv", Keep: 0},
			want: []string{
				"cpes.csv.tar.gz",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			seedFiles(t, fs, "data", tt.files...)

			require.NoError(t, Prune(fs, "data", tt.policy))
			assert.Equal(t, tt.want, listFiles(t, fs, "data"))
		})
	}
}

func TestPrune_removalFailuresAreCollected(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedFiles(t, fs, "data",
		"cpes_2024-03-14_090000.csv",
		"cpes_2024-03-15_090000.csv",
	)

	err := Prune(afero.NewReadOnlyFs(fs), "data", Policy{Glob: "cpes_*.csv", Keep: 0})
	require.Error(t, err)
	assert.ErrorContains(t, err, "cpes_2024-03-14_090000.csv")
	assert.ErrorContains(t, err, "cpes_2024-03-15_090000.csv")
}

func TestPruneAll(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedFiles(t, fs, "data",
		"cpes_2024-03-14_090000.csv",
		"cpes_download_2024-03-10_090000.log",
		"cpes_download_2024-03-15_090000.log",
	)

	err := PruneAll(fs, "data",
		Policy{Glob: "cpes_*.csv", Keep: 0},
		Policy{Glob: "cpes_download_*.log", Keep: 1},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"cpes_download_2024-03-15_090000.log"}, listFiles(t, fs, "data"))
}
