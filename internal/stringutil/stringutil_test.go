package stringutil_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fclairamb/objectstored/internal/stringutil"
)

func TestSplitPreserveEmpty(t *testing.T) {
	require.Nil(t, stringutil.SplitPreserveEmpty("", ","))
	require.Equal(t, []string{"abc"}, stringutil.SplitPreserveEmpty("abc", ","))
	require.Equal(t, []string{"a", "b", "c"}, stringutil.SplitPreserveEmpty("a,b,c", ","))
	require.Equal(t, []string{"", "a", "", "b", ""}, stringutil.SplitPreserveEmpty(",a,,b,", ","))
}
