package transcriber

import "context"

// Fake returns canned transcripts without touching a model. Used by tests
// and the stdin-driven test mode.
type Fake struct {
	Text  string
	Err   error
	Delay chan struct{} // when set, Transcribe blocks until closed or ctx ends

	Calls int
}

func (f *Fake) Transcribe(ctx context.Context, pcm []byte, sampleRate, channels int) (string, error) {
	f.Calls++
	if len(pcm) == 0 {
		return "", ErrEmptyAudio
	}
	if f.Delay != nil {
		select {
		case <-f.Delay:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.Text, nil
}
