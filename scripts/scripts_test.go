package scripts

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecks(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"name_consistency", "roma_duplicates"}, Checks())
}

func TestFS_ScriptsReadable(t *testing.T) {
	t.Parallel()
	for _, name := range Checks() {
		data, err := fs.ReadFile(FS, "check/"+name+".risor")
		require.NoError(t, err)
		assert.Contains(t, string(data), "report(", "check %s should report findings", name)
	}
}
