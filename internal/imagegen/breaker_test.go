package imagegen

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/pkg/platform/circuit"
)

type scriptedProvider struct {
	errs  []error
	calls int
}

func (s *scriptedProvider) Generate(context.Context, Request) (*Image, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return &Image{Data: "ok", MimeType: "image/png"}, nil
}

func TestBreakerProvider_OpensAndFailsFast(t *testing.T) {
	outage := newError(KindProviderOutage, 503, "down", nil)
	inner := &scriptedProvider{errs: []error{outage, outage}}
	var transitions []bool
	p := NewBreakerProvider(inner, circuit.New("imagegen", circuit.WithFailureThreshold(2)), nil,
		func(_ string, open bool) { transitions = append(transitions, open) })

	_, err := p.Generate(context.Background(), Request{})
	require.Error(t, err)
	_, err = p.Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.Equal(t, []bool{true}, transitions)

	_, err = p.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, inner.calls, "open circuit must not reach the provider")
	assert.ErrorIs(t, p.Health(context.Background()), ErrCircuitOpen)
}

func TestBreakerProvider_ContentErrorsDoNotTrip(t *testing.T) {
	blocked := newError(KindContentBlocked, 200, "nope", nil)
	inner := &scriptedProvider{errs: []error{blocked, blocked, blocked}}
	b := circuit.New("imagegen", circuit.WithFailureThreshold(2))
	p := NewBreakerProvider(inner, b, nil, nil)

	for range 3 {
		_, err := p.Generate(context.Background(), Request{})
		require.Error(t, err)
	}
	assert.False(t, b.IsOpen())
	assert.NoError(t, p.Health(context.Background()))
}

func TestMockProvider_DeterministicPNG(t *testing.T) {
	m := NewMockProvider(0)
	a, err := m.Generate(context.Background(), Request{Prompt: "x", AspectRatio: "16:9"})
	require.NoError(t, err)
	b, err := m.Generate(context.Background(), Request{Prompt: "x", AspectRatio: "16:9"})
	require.NoError(t, err)

	assert.Equal(t, a.Data, b.Data)
	assert.Equal(t, "image/png", a.MimeType)
	raw, err := base64.StdEncoding.DecodeString(a.Data)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), raw[:4])
}
