package speech

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Vovarama1992/voice_cascade/internal/audio"
	"github.com/Vovarama1992/voice_cascade/internal/capability"
)

type fakeProvider struct {
	name  string
	reply *Reply
	err   error
	panic bool

	mu    sync.Mutex
	calls int
	last  Request
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Synthesize(_ context.Context, req Request) (*Reply, error) {
	p.mu.Lock()
	p.calls++
	p.last = req
	p.mu.Unlock()
	if p.panic {
		panic("boom")
	}
	return p.reply, p.err
}

func (p *fakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type fakeCapturer struct {
	res   audio.Result
	err   error
	calls int
	text  string
}

func (c *fakeCapturer) Capture(_ context.Context, text string) (audio.Result, error) {
	c.calls++
	c.text = text
	return c.res, c.err
}

type panickingCapturer struct{}

func (panickingCapturer) Capture(context.Context, string) (audio.Result, error) {
	panic("audio device vanished")
}

type fakeJournal struct {
	outs []Outcome
	err  error
}

func (j *fakeJournal) Record(_ context.Context, _ Request, out Outcome) error {
	j.outs = append(j.outs, out)
	return j.err
}

type blockingJournal struct {
	release  chan struct{}
	recorded chan Outcome
}

func (j *blockingJournal) Record(ctx context.Context, _ Request, out Outcome) error {
	select {
	case <-j.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	j.recorded <- out
	return nil
}

type fakeAlerter struct {
	errs    []error
	details []string
}

func (a *fakeAlerter) Notify(_ context.Context, err error, details string) error {
	a.errs = append(a.errs, err)
	a.details = append(a.details, details)
	return nil
}

type fakeStore struct {
	url string
	err error
	ids []string
}

func (s *fakeStore) SaveAudio(_ context.Context, id string, _ audio.Result) (string, error) {
	s.ids = append(s.ids, id)
	return s.url, s.err
}

func ok(payload string) *fakeProvider {
	return &fakeProvider{name: "ok", reply: &Reply{Success: true, Audio: payload}}
}

func capturedWAV() audio.Result {
	return audio.FromBytes(audio.MIMEWAV, []byte("RIFF"))
}

func TestSynthesize_PrimarySuccess(t *testing.T) {
	primary := ok("QUJD")
	secondary := ok("REVG")
	capt := &fakeCapturer{res: capturedWAV()}
	svc := NewService(primary, secondary, capt, zaptest.NewLogger(t))

	res, err := svc.Synthesize(context.Background(), Request{Text: "Hello world"})
	require.NoError(t, err)
	assert.Equal(t, "data:audio/mpeg;base64,QUJD", res.String())
	assert.Equal(t, 1, primary.Calls())
	assert.Equal(t, 0, secondary.Calls())
	assert.Equal(t, 0, capt.calls)
}

func TestSynthesize_PrimaryDataURLKept(t *testing.T) {
	primary := ok("data:audio/ogg;base64,T2dn")
	svc := NewService(primary, nil, nil, zaptest.NewLogger(t))

	res, err := svc.Synthesize(context.Background(), Request{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "data:audio/ogg;base64,T2dn", res.String())
}

func TestSynthesize_PassesVoiceAndShaping(t *testing.T) {
	primary := ok("QUJD")
	svc := NewService(primary, nil, nil, nil)

	sh := &Shaping{Stability: 0.4, SimilarityBoost: 0.7, Style: 0.1, SpeakerBoost: true}
	_, err := svc.Synthesize(context.Background(), Request{Text: "hi", VoiceID: "EXAVITQu4vr4xnSDxMaL", Shaping: sh})
	require.NoError(t, err)
	assert.Equal(t, "EXAVITQu4vr4xnSDxMaL", primary.last.VoiceID)
	assert.Equal(t, sh, primary.last.Shaping)
}

func TestSynthesize_SecondaryAfterPrimaryFails(t *testing.T) {
	primary := &fakeProvider{name: "edge", err: errors.New("connection refused")}
	secondary := ok("REVG")
	capt := &fakeCapturer{res: capturedWAV()}
	svc := NewService(primary, secondary, capt, zaptest.NewLogger(t))

	out, err := svc.SynthesizeDetailed(context.Background(), Request{Text: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, TierSecondary, out.Tier)
	assert.Equal(t, "data:audio/mpeg;base64,REVG", out.Result.String())
	require.Len(t, out.Failures, 1)
	assert.ErrorIs(t, out.Failures[0].Err, ErrProviderUnavailable)
	assert.Equal(t, 0, capt.calls)
}

func TestSynthesize_NoSecondaryGoesToCapture(t *testing.T) {
	primary := &fakeProvider{name: "edge", reply: &Reply{Success: false, Error: "quota exceeded"}}
	capt := &fakeCapturer{res: capturedWAV()}
	svc := NewService(primary, nil, capt, zaptest.NewLogger(t))

	out, err := svc.SynthesizeDetailed(context.Background(), Request{Text: "Hi", VoiceID: "v1"})
	require.NoError(t, err)
	assert.Equal(t, TierCapture, out.Tier)
	assert.Equal(t, capturedWAV().String(), out.Result.String())
	assert.Equal(t, 1, capt.calls)
	assert.Equal(t, "Hi", capt.text)
	require.Len(t, out.Failures, 1)
	assert.ErrorIs(t, out.Failures[0].Err, ErrProviderEmptyResponse)
}

func TestSynthesize_SoftFailuresFallThrough(t *testing.T) {
	cases := map[string]*fakeProvider{
		"success false":   {name: "p", reply: &Reply{Success: false, Audio: "QUJD"}},
		"missing audio":   {name: "p", reply: &Reply{Success: true}},
		"blank audio":     {name: "p", reply: &Reply{Success: true, Audio: "   "}},
		"nil reply":       {name: "p"},
		"bad data url":    {name: "p", reply: &Reply{Success: true, Audio: "data:audio/mpeg,plain"}},
		"provider panics": {name: "p", panic: true},
	}

	for name, primary := range cases {
		t.Run(name, func(t *testing.T) {
			capt := &fakeCapturer{res: capturedWAV()}
			svc := NewService(primary, nil, capt, zaptest.NewLogger(t))

			out, err := svc.SynthesizeDetailed(context.Background(), Request{Text: "Hi"})
			require.NoError(t, err)
			assert.Equal(t, TierCapture, out.Tier)
			assert.Equal(t, 1, capt.calls)
		})
	}
}

func TestSynthesize_BothRemoteFail(t *testing.T) {
	primary := &fakeProvider{name: "edge", err: errors.New("timeout")}
	secondary := &fakeProvider{name: "backend", err: errors.New("502")}
	capt := &fakeCapturer{res: capturedWAV()}
	svc := NewService(primary, secondary, capt, zaptest.NewLogger(t))

	out, err := svc.SynthesizeDetailed(context.Background(), Request{Text: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, TierCapture, out.Tier)
	assert.Equal(t, 1, primary.Calls())
	assert.Equal(t, 1, secondary.Calls())
	assert.Len(t, out.Failures, 2)
}

func TestSynthesize_CaptureUnsupported(t *testing.T) {
	primary := &fakeProvider{name: "edge", err: errors.New("down")}
	capt := &fakeCapturer{err: capability.ErrUnsupportedEnvironment}
	svc := NewService(primary, nil, capt, zaptest.NewLogger(t))

	res, err := svc.Synthesize(context.Background(), Request{Text: "Hi"})
	assert.ErrorIs(t, err, capability.ErrUnsupportedEnvironment)
	assert.True(t, res.IsZero())
}

func TestSynthesize_CapturePanicIsUnsupported(t *testing.T) {
	primary := &fakeProvider{name: "edge", err: errors.New("down")}
	svc := NewService(primary, nil, panickingCapturer{}, zaptest.NewLogger(t))

	res, err := svc.Synthesize(context.Background(), Request{Text: "Hi"})
	assert.ErrorIs(t, err, capability.ErrUnsupportedEnvironment)
	assert.True(t, res.IsZero())
}

func TestSynthesize_NilCapturerIsUnsupported(t *testing.T) {
	primary := &fakeProvider{name: "edge", err: errors.New("down")}
	svc := NewService(primary, nil, nil, zaptest.NewLogger(t))

	_, err := svc.Synthesize(context.Background(), Request{Text: "Hi"})
	assert.ErrorIs(t, err, capability.ErrUnsupportedEnvironment)
}

func TestSynthesize_SideEffects(t *testing.T) {
	t.Run("primary success is journaled and stored, not alerted", func(t *testing.T) {
		j, a, st := &fakeJournal{}, &fakeAlerter{}, &fakeStore{url: "https://s3/x.mp3"}
		svc := NewService(ok("QUJD"), nil, nil, zaptest.NewLogger(t),
			WithJournal(j), WithAlerter(a), WithArtifactStore(st))

		out, err := svc.SynthesizeDetailed(context.Background(), Request{Text: "Hi"})
		require.NoError(t, err)
		svc.Wait()
		assert.Equal(t, "https://s3/x.mp3", out.ArtifactURL)
		assert.Equal(t, []string{out.ID}, st.ids)
		require.Len(t, j.outs, 1)
		assert.Equal(t, TierPrimary, j.outs[0].Tier)
		assert.Empty(t, a.errs)
	})

	t.Run("capture fallback alerts", func(t *testing.T) {
		j, a := &fakeJournal{}, &fakeAlerter{}
		primary := &fakeProvider{name: "edge", err: errors.New("down")}
		svc := NewService(primary, nil, &fakeCapturer{res: capturedWAV()}, zaptest.NewLogger(t),
			WithJournal(j), WithAlerter(a))

		_, err := svc.Synthesize(context.Background(), Request{Text: "Hi"})
		require.NoError(t, err)
		svc.Wait()
		require.Len(t, a.errs, 1)
		assert.ErrorIs(t, a.errs[0], ErrProviderUnavailable)
		assert.Contains(t, a.details[0], "served_by=capture")
		require.Len(t, j.outs, 1)
	})

	t.Run("side effect failures do not change the result", func(t *testing.T) {
		j := &fakeJournal{err: errors.New("db down")}
		st := &fakeStore{err: errors.New("s3 down")}
		svc := NewService(ok("QUJD"), nil, nil, zaptest.NewLogger(t),
			WithJournal(j), WithArtifactStore(st))

		out, err := svc.SynthesizeDetailed(context.Background(), Request{Text: "Hi"})
		require.NoError(t, err)
		svc.Wait()
		assert.Equal(t, "data:audio/mpeg;base64,QUJD", out.Result.String())
		assert.Empty(t, out.ArtifactURL)
		assert.Len(t, j.outs, 1)
	})

	t.Run("journal does not hold the response", func(t *testing.T) {
		j := &blockingJournal{release: make(chan struct{}), recorded: make(chan Outcome, 1)}
		svc := NewService(ok("QUJD"), nil, nil, zaptest.NewLogger(t), WithJournal(j))

		res, err := svc.Synthesize(context.Background(), Request{Text: "Hi"})
		require.NoError(t, err)
		assert.Equal(t, "data:audio/mpeg;base64,QUJD", res.String())

		close(j.release)
		svc.Wait()
		out := <-j.recorded
		assert.Equal(t, TierPrimary, out.Tier)
	})

	t.Run("nothing stored when no audio", func(t *testing.T) {
		st := &fakeStore{}
		svc := NewService(nil, nil, nil, zaptest.NewLogger(t), WithArtifactStore(st))

		_, err := svc.Synthesize(context.Background(), Request{Text: "Hi"})
		assert.Error(t, err)
		assert.Empty(t, st.ids)
	})
}

func TestShaping_Validate(t *testing.T) {
	assert.NoError(t, Shaping{Stability: 0, SimilarityBoost: 1, Style: 0.5}.Validate())
	assert.Error(t, Shaping{Stability: 1.2}.Validate())
	assert.Error(t, Shaping{Style: -0.1}.Validate())
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration([]byte("1.250000\n"))
	require.NoError(t, err)
	assert.InDelta(t, 1.25, d, 1e-9)

	_, err = parseDuration([]byte("N/A"))
	assert.Error(t, err)
}
