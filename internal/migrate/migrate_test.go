package migrate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersions_Embedded(t *testing.T) {
	v, err := Versions()
	require.NoError(t, err)
	require.Equal(t, []int64{1}, v)
}
