package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaitForEnter(t *testing.T) {
	var out bytes.Buffer
	waitForEnter(strings.NewReader("\n"), &out)
	assert.Equal(t, "Press Enter to exit...", out.String())

	out.Reset()
	waitForEnter(strings.NewReader(""), &out)
	assert.Equal(t, "Press Enter to exit...", out.String())
}
