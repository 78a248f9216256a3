package feed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOnlineCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A dead context means no dial can succeed; the probe must come back
	// false instead of hanging.
	assert.False(t, Online(ctx))
}
