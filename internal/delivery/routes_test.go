package delivery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Vovarama1992/go-utils/logger"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Vovarama1992/voice_cascade/internal/audio"
	"github.com/Vovarama1992/voice_cascade/internal/capability"
	"github.com/Vovarama1992/voice_cascade/internal/catalog"
	"github.com/Vovarama1992/voice_cascade/internal/domain"
	"github.com/Vovarama1992/voice_cascade/internal/ports"
	"github.com/Vovarama1992/voice_cascade/internal/recognition"
	"github.com/Vovarama1992/voice_cascade/internal/speech"
)

const testToken = "good-token"

type fakeAuth struct{}

func (fakeAuth) Login(_ context.Context, password string) (string, error) {
	if password != "pw" {
		return "", domain.ErrInvalidPassword
	}
	return testToken, nil
}

func (fakeAuth) ValidateToken(_ context.Context, token string) (bool, error) {
	return token == testToken, nil
}

type fakeSynth struct {
	out  speech.Outcome
	err  error
	last speech.Request
}

func (f *fakeSynth) SynthesizeDetailed(_ context.Context, req speech.Request) (speech.Outcome, error) {
	f.last = req
	return f.out, f.err
}

type fakeVoices struct{}

func (fakeVoices) List(context.Context) []catalog.Voice { return catalog.Builtin() }

type fakeRecognizer struct {
	text string
	err  error
}

func (f fakeRecognizer) Recognize(context.Context) (string, error) { return f.text, f.err }

type fakeHistory struct {
	limit int
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]ports.SynthesisRecord, error) {
	f.limit = limit
	return []ports.SynthesisRecord{{ID: 1, RequestID: "r", Tier: "primary"}}, nil
}

func (f *fakeHistory) TierStats(context.Context) (map[string]int, error) {
	return map[string]int{"primary": 3}, nil
}

type env struct {
	synth   *fakeSynth
	history *fakeHistory
	router  http.Handler
}

func newEnv(t *testing.T, rec fakeRecognizer) *env {
	t.Helper()
	zl := logger.NewZapLogger(zap.NewNop().Sugar())
	e := &env{
		synth: &fakeSynth{out: speech.Outcome{
			Result: audio.FromBytes(audio.MIMEMPEG, []byte("ABC")),
			Tier:   speech.TierPrimary,
		}},
		history: &fakeHistory{},
	}
	caps := capability.NewDetector(func() bool { return true }, nil)
	e.router = NewRouter(Handlers{
		Auth:        NewAuthHandler(fakeAuth{}, zl),
		TTS:         NewTTSHandler(e.synth, zl),
		Voices:      NewVoiceHandler(fakeVoices{}, caps),
		Recognition: NewRecognitionHandler(rec, zl),
		History:     NewHistoryHandler(e.history, zl),
	}, fakeAuth{}, 1000)
	return e
}

func (e *env) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	return m
}

func TestPing(t *testing.T) {
	rr := newEnv(t, fakeRecognizer{}).do(http.MethodGet, "/ping", "", false)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pong", rr.Body.String())
}

func TestLogin(t *testing.T) {
	e := newEnv(t, fakeRecognizer{})

	rr := e.do(http.MethodPost, "/auth/login", `{"password":"pw"}`, false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, testToken, decode(t, rr)["token"])

	rr = e.do(http.MethodPost, "/auth/login", `{"password":"bad"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = e.do(http.MethodPost, "/auth/login", `{`, false)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	e := newEnv(t, fakeRecognizer{})
	for _, path := range []string{"/voices", "/capabilities", "/synthesis/history"} {
		rr := e.do(http.MethodGet, path, "", false)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
}

func TestTTS_Success(t *testing.T) {
	e := newEnv(t, fakeRecognizer{})

	rr := e.do(http.MethodPost, "/tts", `{"text":"Hello","voice_id":"EXAVITQu4vr4xnSDxMaL","stability":0.3}`, true)
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "data:audio/mpeg;base64,QUJD", body["audio"])
	assert.Equal(t, "primary", body["tier"])

	assert.Equal(t, "EXAVITQu4vr4xnSDxMaL", e.synth.last.VoiceID)
	require.NotNil(t, e.synth.last.Shaping)
	assert.Equal(t, 0.3, e.synth.last.Shaping.Stability)
	assert.Equal(t, defaultSimilarityBoost, e.synth.last.Shaping.SimilarityBoost)
	assert.True(t, e.synth.last.Shaping.SpeakerBoost)
}

func TestTTS_NoShapingWhenOmitted(t *testing.T) {
	e := newEnv(t, fakeRecognizer{})
	rr := e.do(http.MethodPost, "/tts", `{"text":"Hello"}`, true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, e.synth.last.Shaping)
}

func TestTTS_BadRequests(t *testing.T) {
	e := newEnv(t, fakeRecognizer{})

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/tts", `{"text":"   "}`, true).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/tts", `not json`, true).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/tts", `{"text":"hi","style":2}`, true).Code)
}

func TestTTS_Unsupported(t *testing.T) {
	e := newEnv(t, fakeRecognizer{})
	e.synth.err = capability.ErrUnsupportedEnvironment

	rr := e.do(http.MethodPost, "/tts", `{"text":"Hello"}`, true)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, false, decode(t, rr)["success"])
}

func TestVoicesAndCapabilities(t *testing.T) {
	e := newEnv(t, fakeRecognizer{})

	rr := e.do(http.MethodGet, "/voices", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	voices, ok := decode(t, rr)["voices"].([]any)
	require.True(t, ok)
	assert.Len(t, voices, 4)

	rr = e.do(http.MethodGet, "/capabilities", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	caps := decode(t, rr)
	assert.Equal(t, true, caps["synthesis"])
	assert.Equal(t, false, caps["recognition"])
}

func TestRecognize(t *testing.T) {
	rr := newEnv(t, fakeRecognizer{text: "hello there"}).do(http.MethodPost, "/recognize", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "hello there", decode(t, rr)["text"])

	rr = newEnv(t, fakeRecognizer{err: capability.ErrUnsupportedEnvironment}).do(http.MethodPost, "/recognize", "", true)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	recErr := &recognition.RecognitionError{Code: recognition.CodeNoSpeech}
	rr = newEnv(t, fakeRecognizer{err: recErr}).do(http.MethodPost, "/recognize", "", true)
	require.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, recognition.CodeNoSpeech, decode(t, rr)["code"])

	rr = newEnv(t, fakeRecognizer{err: errors.New("boom")}).do(http.MethodPost, "/recognize", "", true)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestHistory(t *testing.T) {
	e := newEnv(t, fakeRecognizer{})

	rr := e.do(http.MethodGet, "/synthesis/history?limit=5", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 5, e.history.limit)
	records, ok := decode(t, rr)["records"].([]any)
	require.True(t, ok)
	assert.Len(t, records, 1)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/synthesis/history?limit=x", "", true).Code)

	rr = e.do(http.MethodGet, "/synthesis/stats", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
}
