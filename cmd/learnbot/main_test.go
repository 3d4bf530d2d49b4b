package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogsToFileOnlyForChatSurface(t *testing.T) {
	assert.True(t, logsToFile(rootCmd))
	assert.False(t, logsToFile(askCmd))
	assert.False(t, logsToFile(teachCmd))
	assert.False(t, logsToFile(importCmd))
}
