package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSignature(t *testing.T) {
	sig := ComputeSignature("secret", []byte("payload"))

	assert.True(t, strings.HasPrefix(sig, "sha256="))
	// Deterministic for the same inputs
	assert.Equal(t, sig, ComputeSignature("secret", []byte("payload")))
	// Different secret or payload changes the signature
	assert.NotEqual(t, sig, ComputeSignature("other", []byte("payload")))
	assert.NotEqual(t, sig, ComputeSignature("secret", []byte("other")))
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"hello":"world"}`)
	good := ComputeSignature("secret", payload)

	assert.True(t, VerifySignature("secret", payload, good))
	assert.False(t, VerifySignature("secret", payload, "sha256=deadbeef"))
	assert.False(t, VerifySignature("secret", payload, ""))
	assert.False(t, VerifySignature("wrong-secret", payload, good))

	// An empty secret disables verification.
	assert.True(t, VerifySignature("", payload, ""))
	assert.True(t, VerifySignature("", payload, "anything"))
}
