package contracts

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionInfo(t *testing.T) {
	info := GetVersionInfo()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, "tokenauth v"+Version, GetVersionString())
	assert.True(t, strings.HasPrefix(GetFullVersionString(), GetVersionString()+" (built: "))
}
