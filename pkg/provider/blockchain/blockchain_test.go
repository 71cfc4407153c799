package blockchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTxStatus(t *testing.T) {
	assert.True(t, StatusAcceptedOnL2.Confirmed())
	assert.True(t, StatusAcceptedOnL1.Confirmed())
	assert.False(t, StatusReceived.Confirmed())
	assert.False(t, StatusReceived.Failed())
	assert.True(t, StatusRejected.Failed())
	assert.False(t, StatusRejected.Confirmed())
}
