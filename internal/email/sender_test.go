package email

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliveryErrorCarriesCause(t *testing.T) {
	cause := errors.New("invalid address")
	err := &DeliveryError{Cause: cause}

	assert.Equal(t, "invalid address", err.Error())
	require.ErrorIs(t, err, cause)
}

func TestSenderImplementsTransport(t *testing.T) {
	var _ Transport = (*Sender)(nil)
}
