package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectedIsFalseForZeroValue(t *testing.T) {
	var c EVMChain
	assert.False(t, c.Connected())
}

func TestDialRejectsMalformedURL(t *testing.T) {
	_, err := Dial("not a url at all", 1.1, nil)
	assert.Error(t, err)
}
