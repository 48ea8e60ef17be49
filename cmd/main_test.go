package main

import (
	"testing"

	"github.com/richinsley/feedbacktoy/headless"
	"github.com/stretchr/testify/assert"
)

func TestRequestCloseEndsHeadlessLoop(t *testing.T) {
	surface := headless.New(2, 2, 0)
	assert.False(t, surface.ShouldClose())
	requestClose(surface)
	assert.True(t, surface.ShouldClose())
}
