// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	buf      []float32
	fill     float32
	readErrs []error
	startErr error

	reads, starts, stops, closes int
}

func (f *fakeStream) Start() error { f.starts++; return f.startErr }
func (f *fakeStream) Stop() error  { f.stops++; return nil }
func (f *fakeStream) Close() error { f.closes++; return nil }

func (f *fakeStream) Read() error {
	f.reads++
	for i := range f.buf {
		f.buf[i] = f.fill
	}
	if i := f.reads - 1; i < len(f.readErrs) {
		return f.readErrs[i]
	}
	return nil
}

// fakeOpenStream installs an opener that records the parameters and returns
// the given stream bound to the source's buffer.
func fakeOpenStream(t *testing.T, stream *fakeStream, openErr error) *portaudio.StreamParameters {
	t.Helper()
	orig := paLibOpenStream
	t.Cleanup(func() { paLibOpenStream = orig })

	params := new(portaudio.StreamParameters)
	paLibOpenStream = func(p portaudio.StreamParameters, buf []float32) (paStream, error) {
		*params = p
		if openErr != nil {
			return nil, openErr
		}
		stream.buf = buf
		return stream, nil
	}
	return params
}

func newTestStreamSource(t *testing.T, lowLatency bool) *StreamSource {
	t.Helper()
	fakePortAudio(t, testDevices, testDevices[0])
	s, err := NewStreamSource(-1, 8000, 256, lowLatency)
	require.NoError(t, err)
	return s
}

func TestNewStreamSourceLatency(t *testing.T) {
	assert.Equal(t, 3*time.Millisecond, newTestStreamSource(t, true).latency)
	assert.Equal(t, 12*time.Millisecond, newTestStreamSource(t, false).latency)
}

func TestNewStreamSourceErrors(t *testing.T) {
	fakePortAudio(t, testDevices, testDevices[0])

	_, err := NewStreamSource(1, 8000, 256, false)
	assert.ErrorContains(t, err, "does not support input")

	_, err = NewStreamSource(-1, 8000, 0, false)
	assert.Error(t, err)
}

func TestStreamSourceStartParameters(t *testing.T) {
	s := newTestStreamSource(t, true)
	stream := &fakeStream{}
	params := fakeOpenStream(t, stream, nil)

	require.NoError(t, s.Start())
	assert.Equal(t, "Built-in Microphone", s.Name())
	assert.Equal(t, 1, params.Input.Channels)
	assert.Equal(t, testDevices[0], params.Input.Device)
	assert.Equal(t, 3*time.Millisecond, params.Input.Latency)
	assert.Equal(t, 0, params.Output.Channels)
	assert.Equal(t, 256, params.FramesPerBuffer)
	assert.Equal(t, 8000.0, params.SampleRate)
	assert.Equal(t, 1, stream.starts)
}

func TestStreamSourceRead(t *testing.T) {
	s := newTestStreamSource(t, false)
	stream := &fakeStream{fill: 0.25}
	fakeOpenStream(t, stream, nil)

	block := make([]float32, 256)
	assert.Error(t, s.Read(block), "read before start")

	require.NoError(t, s.Start())
	require.NoError(t, s.Read(block))
	for i, v := range block {
		if v != 0.25 {
			t.Fatalf("block[%d] = %f, want 0.25", i, v)
		}
	}

	assert.Error(t, s.Read(make([]float32, 128)), "block size mismatch")
}

func TestStreamSourceReadErrors(t *testing.T) {
	s := newTestStreamSource(t, false)
	hostErr := errors.New("host error")
	stream := &fakeStream{fill: 0.25, readErrs: []error{portaudio.InputOverflowed, hostErr}}
	fakeOpenStream(t, stream, nil)
	require.NoError(t, s.Start())

	block := make([]float32, 256)
	assert.ErrorIs(t, s.Read(block), ErrInputOverflowed)
	assert.Equal(t, float32(0.25), block[0], "overflowed block is still delivered")
	assert.Equal(t, float32(0.25), block[255])

	err := s.Read(block)
	assert.ErrorIs(t, err, hostErr)
	assert.NotErrorIs(t, err, ErrInputOverflowed)

	assert.NoError(t, s.Read(block))
}

func TestStreamSourceStartFailures(t *testing.T) {
	t.Run("open", func(t *testing.T) {
		s := newTestStreamSource(t, false)
		fakeOpenStream(t, &fakeStream{}, fmt.Errorf("invalid sample rate"))
		assert.ErrorContains(t, s.Start(), "invalid sample rate")
		assert.NoError(t, s.Close())
	})

	t.Run("start", func(t *testing.T) {
		s := newTestStreamSource(t, false)
		stream := &fakeStream{startErr: fmt.Errorf("device unavailable")}
		fakeOpenStream(t, stream, nil)

		assert.ErrorContains(t, s.Start(), "device unavailable")
		assert.Equal(t, 1, stream.closes, "stream closed after failed start")
		assert.NoError(t, s.Close())
		assert.Equal(t, 1, stream.closes)
	})
}

func TestStreamSourceCloseOnce(t *testing.T) {
	s := newTestStreamSource(t, false)
	stream := &fakeStream{}
	fakeOpenStream(t, stream, nil)
	require.NoError(t, s.Start())

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.Equal(t, 1, stream.stops)
	assert.Equal(t, 1, stream.closes)
}
