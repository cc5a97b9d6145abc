package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullInfo(t *testing.T) {
	info := FullInfo()
	assert.True(t, strings.HasPrefix(info, "fuzzyhash "+Version))
	assert.Contains(t, info, "commit: "+GitCommit)
	assert.Equal(t, Version, Info())
}

func TestBuildID_Stable(t *testing.T) {
	a := BuildID()
	b := BuildID()
	assert.NotEmpty(t, a)
	assert.Equal(t, a, b)
}
