package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExponentialBackoff(t *testing.T) {
	backoff := ExponentialBackoff(500*time.Millisecond, 10*time.Second)

	require.Equal(t, 500*time.Millisecond, backoff(1))
	require.Equal(t, 1*time.Second, backoff(2))
	require.Equal(t, 2*time.Second, backoff(3))
	require.Equal(t, 4*time.Second, backoff(4))
	require.Equal(t, 8*time.Second, backoff(5))

	// Capped past the fifth attempt.
	require.Equal(t, 10*time.Second, backoff(6))
	require.Equal(t, 10*time.Second, backoff(20))

	// Defensive clamp for nonsense attempt numbers.
	require.Equal(t, 500*time.Millisecond, backoff(0))
}

func TestConstantBackoff(t *testing.T) {
	backoff := ConstantBackoff(5 * time.Second)
	require.Equal(t, 5*time.Second, backoff(1))
	require.Equal(t, 5*time.Second, backoff(100))
}

func TestAckPolicyString(t *testing.T) {
	require.Equal(t, "ack-and-drop", AckOnError.String())
	require.Equal(t, "nack-and-requeue-once", NackRequeueOnce.String())
	require.Equal(t, "dead-letter", DeadLetter.String())
}
