package voice

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeTranscriber struct {
	utterances []string
	err        error
}

func (f *fakeTranscriber) Run(ctx context.Context, out chan<- string) error {
	for _, u := range f.utterances {
		select {
		case out <- u:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestToggle(t *testing.T) {
	l := NewListener(t.TempDir(), &fakeTranscriber{utterances: []string{"list files"}})

	on, err := l.Toggle(context.Background())
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, l.Active())

	select {
	case got := <-l.Transcripts():
		assert.Equal(t, "list files", got)
	case <-time.After(2 * time.Second):
		t.Fatal("no transcript")
	}

	on, err = l.Toggle(context.Background())
	require.NoError(t, err)
	assert.False(t, on)
	assert.False(t, l.Active())
	assert.NoError(t, l.Err())
}

func TestStartTwice(t *testing.T) {
	l := NewListener(t.TempDir(), &fakeTranscriber{})
	require.NoError(t, l.Start(context.Background()))
	defer l.Stop()

	assert.ErrorIs(t, l.Start(context.Background()), ErrAlreadyListening)
}

func TestConcurrentToggleKeepsOneLoop(t *testing.T) {
	l := NewListener(t.TempDir(), &fakeTranscriber{})

	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Start(context.Background()); err == nil {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, started)
	l.Stop()
	l.Stop()
}

func TestStartErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "vosk-model")
	l := NewListener(missing, &fakeTranscriber{})
	assert.ErrorIs(t, l.Start(context.Background()), ErrModelMissing)
	assert.False(t, l.Active())

	assert.ErrorIs(t, NewListener(t.TempDir(), nil).Start(context.Background()), ErrNotConfigured)
}

func TestLoopEndsOnTranscriberError(t *testing.T) {
	boom := errors.New("microphone unplugged")
	l := NewListener(t.TempDir(), &fakeTranscriber{err: boom})
	require.NoError(t, l.Start(context.Background()))

	require.Eventually(t, func() bool { return !l.Active() }, 2*time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, l.Err(), boom)
	l.Stop()
}

func TestExecTranscriber(t *testing.T) {
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not installed")
	}
	model := t.TempDir()
	tr := &ExecTranscriber{Command: `printf 'hello\n\n%s\n' "$TERMAGENT_VOICE_MODEL"`, ModelPath: model}

	out := make(chan string, 4)
	require.NoError(t, tr.Run(context.Background(), out))
	close(out)

	var got []string
	for s := range out {
		got = append(got, s)
	}
	assert.Equal(t, []string{"hello", model}, got)
}
