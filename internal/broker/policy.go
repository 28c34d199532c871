package broker

import (
	"math"
	"time"
)

// AckPolicy controls what happens to a message whose handler returned an
// error. Parse failures are not covered: malformed payloads are always
// acknowledged and dropped.
type AckPolicy int

// Acknowledgment policies
const (
	// AckOnError acknowledges and drops the message. This is the poison
	// message defense: a processing error must not cause infinite redelivery.
	AckOnError AckPolicy = iota
	// NackRequeueOnce requeues the message once; a second failure drops it.
	NackRequeueOnce
	// DeadLetter rejects the message without requeueing so the queue's
	// dead-letter exchange receives it.
	DeadLetter
)

func (p AckPolicy) String() string {
	switch p {
	case NackRequeueOnce:
		return "nack-and-requeue-once"
	case DeadLetter:
		return "dead-letter"
	default:
		return "ack-and-drop"
	}
}

// BackoffPolicy returns the delay before the given 1-based connect attempt's
// retry.
type BackoffPolicy func(attempt int) time.Duration

// ExponentialBackoff doubles the base delay per attempt, capped at max.
func ExponentialBackoff(base, max time.Duration) BackoffPolicy {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		d := time.Duration(float64(base) * math.Pow(2, float64(attempt-1)))
		if d > max || d < 0 {
			return max
		}
		return d
	}
}

// ConstantBackoff waits the same delay between every attempt.
func ConstantBackoff(delay time.Duration) BackoffPolicy {
	return func(int) time.Duration { return delay }
}
