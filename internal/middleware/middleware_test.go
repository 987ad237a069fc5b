package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/fish-shop-bot/internal/i18n"
	"github.com/Proton-105/fish-shop-bot/internal/ratelimit"
	"github.com/Proton-105/fish-shop-bot/pkg/config"
)

// fakeContext overrides the parts of telebot.Context the middlewares touch.
type fakeContext struct {
	telebot.Context
	chat      *telebot.Chat
	sender    *telebot.User
	callback  *telebot.Callback
	message   *telebot.Message
	sent      []interface{}
	responses []*telebot.CallbackResponse
}

func (c *fakeContext) Chat() *telebot.Chat         { return c.chat }
func (c *fakeContext) Sender() *telebot.User       { return c.sender }
func (c *fakeContext) Callback() *telebot.Callback { return c.callback }
func (c *fakeContext) Message() *telebot.Message   { return c.message }

func (c *fakeContext) Send(what interface{}, _ ...interface{}) error {
	c.sent = append(c.sent, what)
	return nil
}

func (c *fakeContext) Respond(resp ...*telebot.CallbackResponse) error {
	c.responses = append(c.responses, resp...)
	return nil
}

func textContext(chatID int64) *fakeContext {
	return &fakeContext{
		chat:    &telebot.Chat{ID: chatID},
		sender:  &telebot.User{ID: chatID, LanguageCode: "en"},
		message: &telebot.Message{Text: "hi"},
	}
}

type failingLimiter struct{}

func (failingLimiter) Check(context.Context, string, int, time.Duration) (*ratelimit.Result, error) {
	return nil, errors.New("redis: connection refused")
}

func newRateLimit(t *testing.T, limiter ratelimit.Limiter, cfg config.RateLimitConfig) *RateLimitMiddleware {
	t.Helper()

	translations, err := i18n.Load("en")
	require.NoError(t, err)

	return NewRateLimitMiddleware(limiter, ratelimit.NewRules(cfg), translations, nil)
}

func TestRateLimitMiddleware_RejectsOverLimit(t *testing.T) {
	mw := newRateLimit(t, ratelimit.NewMemoryLimiter(nil), config.RateLimitConfig{
		Enabled: true, Limit: 2, Window: time.Minute,
	})

	calls := 0
	h := mw.Handle(func(telebot.Context) error {
		calls++
		return nil
	})

	c := textContext(42)
	for i := 0; i < 3; i++ {
		require.NoError(t, h(c))
	}

	assert.Equal(t, 2, calls)
	require.Len(t, c.sent, 1)
	assert.Equal(t, "Too many requests. Please slow down.", c.sent[0])
}

func TestRateLimitMiddleware_AnswersCallbacks(t *testing.T) {
	mw := newRateLimit(t, ratelimit.NewMemoryLimiter(nil), config.RateLimitConfig{
		Enabled: true, Limit: 1, Window: time.Minute,
	})
	h := mw.Handle(func(telebot.Context) error { return nil })

	c := textContext(7)
	c.callback = &telebot.Callback{ID: "cb", Data: "cart"}

	require.NoError(t, h(c))
	require.NoError(t, h(c))

	assert.Empty(t, c.sent)
	require.Len(t, c.responses, 1)
	assert.NotEmpty(t, c.responses[0].Text)
}

func TestRateLimitMiddleware_Bypass(t *testing.T) {
	tests := []struct {
		name    string
		limiter ratelimit.Limiter
		cfg     config.RateLimitConfig
	}{
		{
			name:    "disabled",
			limiter: ratelimit.NewMemoryLimiter(nil),
			cfg:     config.RateLimitConfig{Limit: 1, Window: time.Minute},
		},
		{
			name:    "whitelisted",
			limiter: ratelimit.NewMemoryLimiter(nil),
			cfg:     config.RateLimitConfig{Enabled: true, Limit: 1, Window: time.Minute, Whitelist: []int64{42}},
		},
		{
			name:    "limiter failure",
			limiter: failingLimiter{},
			cfg:     config.RateLimitConfig{Enabled: true, Limit: 1, Window: time.Minute},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			h := newRateLimit(t, tt.limiter, tt.cfg).Handle(func(telebot.Context) error {
				calls++
				return nil
			})

			c := textContext(42)
			for i := 0; i < 3; i++ {
				require.NoError(t, h(c))
			}

			assert.Equal(t, 3, calls)
			assert.Empty(t, c.sent)
		})
	}
}

func TestMetrics_PassesThroughErrors(t *testing.T) {
	failure := errors.New("queue closed")
	h := Metrics(func(telebot.Context) error { return failure })

	assert.ErrorIs(t, h(textContext(1)), failure)
	assert.Equal(t, "text", updateKind(textContext(1)))
	assert.Equal(t, "callback", updateKind(&fakeContext{callback: &telebot.Callback{}}))
	assert.Equal(t, "other", updateKind(&fakeContext{}))
}

func TestLoggingMiddleware_KeepsStatusAndBody(t *testing.T) {
	h := New(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Check", "redis")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "redis", rec.Header().Get("X-Check"))
	assert.Equal(t, "not ready", rec.Body.String())
}
