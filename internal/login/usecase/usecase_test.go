package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	auditentity "github.com/shandysiswandi/ktvs/internal/audit/entity"
	credentialentity "github.com/shandysiswandi/ktvs/internal/credential/entity"
	credentialusecase "github.com/shandysiswandi/ktvs/internal/credential/usecase"
	"github.com/shandysiswandi/ktvs/internal/login/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/clock"
	"github.com/shandysiswandi/ktvs/internal/pkg/envelope"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/pkg/hash"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/jwt"
	"github.com/shandysiswandi/ktvs/internal/pkg/otp"
	"github.com/shandysiswandi/ktvs/internal/pkg/uid"
	"github.com/shandysiswandi/ktvs/internal/pkg/validator"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
	"github.com/shandysiswandi/ktvs/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seed = "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"

type memSessions struct {
	mu   sync.Mutex
	data map[string]entity.PendingSession
}

func (m *memSessions) Create(_ context.Context, key string, sess entity.PendingSession, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return goerror.ErrConflict
	}
	m.data[key] = sess
	return nil
}

func (m *memSessions) Get(_ context.Context, key string) (*entity.PendingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.data[key]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &sess, nil
}

func (m *memSessions) Transition(_ context.Context, key string, fn func(*entity.PendingSession) entity.Write) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.data[key]
	if !ok {
		return goerror.ErrNotFound
	}
	switch fn(&sess) {
	case entity.WriteSave:
		m.data[key] = sess
	case entity.WriteDelete:
		delete(m.data, key)
	}
	return nil
}

type stubCredentials map[string]*credentialentity.Credential

func (s stubCredentials) GetBySubject(_ context.Context, in credentialusecase.GetBySubjectInput) (*credentialentity.Credential, error) {
	c, ok := s[in.SubjectID]
	if !ok {
		return nil, goerror.NewBusiness("credential not found", goerror.CodeNotFound)
	}
	return c, nil
}

type recorder struct {
	mu     sync.Mutex
	events []auditentity.Event
}

func (r *recorder) Record(_ context.Context, t auditentity.EventType, act actor.Actor, target string, payload map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, auditentity.Event{Type: t, Actor: act, Target: target, Payload: payload})
	return nil
}

func (r *recorder) count(t auditentity.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

type fakeJWT struct{}

func (fakeJWT) Generate(subjectID string, methods ...string) (string, error) {
	return subjectID + "|" + strings.Join(methods, ","), nil
}

func (fakeJWT) Verify(string) (jwt.Claims, error) { return jwt.Claims{}, errors.New("not used") }

type fakePublisher struct {
	err  error
	sent []event.NotificationIntentMessage
}

func (p *fakePublisher) PublishNotificationIntent(_ context.Context, msg event.NotificationIntentMessage) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, msg)
	return nil
}

type fixture struct {
	uc       *Usecase
	sessions *memSessions
	audit    *recorder
	pub      *fakePublisher
	clock    *clock.Fake
	totp     *otp.TOTP
	creds    stubCredentials
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	key, err := envelope.NewKey([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	enc, err := envelope.NewAESGCM(key)
	require.NoError(t, err)
	blob, err := enc.Encrypt([]byte(seed))
	require.NoError(t, err)
	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	clk := clock.NewFake(time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC))
	totp := otp.NewTOTP("KTVS", 30, 1, 6)
	creds := stubCredentials{
		"alice": {
			ID:              "cred-alice",
			SubjectID:       "alice",
			EncryptedSecret: blob,
			Metadata:        credentialentity.Metadata{DigitCount: 6, PeriodSeconds: 30},
			SecurityFlags:   credentialentity.DefaultSecurityFlags(),
			Is2FARequired:   true,
		},
		"bob": {
			ID:            "cred-bob",
			SubjectID:     "bob",
			Metadata:      credentialentity.Metadata{DigitCount: 6},
			SecurityFlags: credentialentity.DefaultSecurityFlags(),
		},
	}

	f := &fixture{
		sessions: &memSessions{data: map[string]entity.PendingSession{}},
		audit:    &recorder{},
		pub:      &fakePublisher{},
		clock:    clk,
		totp:     totp,
		creds:    creds,
	}
	f.uc = New(Dependency{
		RepoSession:   f.sessions,
		RepoMessaging: f.pub,
		Credentials:   creds,
		Verifier:      otp.NewVerifier(totp, enc, clk),
		Audit:         f.audit,
		HMAC:          hash.NewHMACSHA256("session-key"),
		Token:         uid.NewURLToken(32),
		JWT:           fakeJWT{},
		Clock:         clk,
		Validator:     v,
		Instrument:    instrument.NewNoop(),
	})
	return f
}

func (f *fixture) goodCode(t *testing.T) string {
	t.Helper()
	code, err := f.totp.GenerateCode(seed, f.clock.Now())
	require.NoError(t, err)
	return code
}

// badCode is well formed but outside the accepted window.
func (f *fixture) badCode(t *testing.T) string {
	t.Helper()
	accepted := map[string]bool{}
	for _, d := range []time.Duration{-30 * time.Second, 0, 30 * time.Second} {
		c, err := f.totp.GenerateCode(seed, f.clock.Now().Add(d))
		require.NoError(t, err)
		accepted[c] = true
	}
	for i := 0; ; i++ {
		c := fmt.Sprintf("%06d", i)
		if !accepted[c] {
			return c
		}
	}
}

func (f *fixture) begin(t *testing.T, subject string) *BeginOutput {
	t.Helper()
	out, err := f.uc.Begin(context.Background(), BeginInput{SubjectID: subject, Actor: actor.New(subject, "10.0.0.9", "test")})
	require.NoError(t, err)
	return out
}

func (f *fixture) verify(token, code string) (*VerifyOutput, error) {
	return f.uc.Verify(context.Background(), VerifyInput{SessionToken: token, Code: code, Actor: actor.New("", "10.0.0.9", "test")})
}

func TestBegin_WithoutSecondFactor(t *testing.T) {
	f := newFixture(t)

	out := f.begin(t, "carol")
	assert.Equal(t, StatusAuthenticated, out.Status)
	assert.Equal(t, "carol|pwd", out.AccessToken)

	out = f.begin(t, "bob")
	assert.Equal(t, StatusAuthenticated, out.Status)
	assert.Empty(t, f.sessions.data)
}

func TestBegin_RevokedCredential(t *testing.T) {
	f := newFixture(t)
	f.creds["alice"].SecurityFlags.RevocationState = credentialentity.RevocationSuspended

	_, err := f.uc.Begin(context.Background(), BeginInput{SubjectID: "alice"})
	assert.True(t, goerror.IsCode(err, goerror.CodeForbidden))
}

func TestLogin_EndToEnd(t *testing.T) {
	f := newFixture(t)

	out := f.begin(t, "alice")
	require.Equal(t, StatusPending2FA, out.Status)
	assert.Empty(t, out.AccessToken)
	assert.Equal(t, 6, out.Digits)
	assert.Equal(t, f.clock.Now().Add(5*time.Minute), out.ExpiresAt)

	for k := range f.sessions.data {
		assert.NotEqual(t, out.SessionToken, k, "raw token must not be the store key")
	}

	res, err := f.verify(out.SessionToken, f.goodCode(t))
	require.NoError(t, err)
	assert.Equal(t, "alice|pwd,otp", res.AccessToken)
	assert.Equal(t, 1, f.audit.count(auditentity.Event2FASuccess))
	assert.Equal(t, 0, f.audit.count(auditentity.Event2FAFailed))
	assert.Equal(t, "alice", f.audit.events[0].Actor.SubjectID)

	_, err = f.verify(out.SessionToken, f.goodCode(t))
	assert.True(t, goerror.IsCode(err, goerror.CodeUnauthorized))
	assert.Equal(t, 1, f.audit.count(auditentity.Event2FASuccess))
}

func TestLogin_Lockout(t *testing.T) {
	f := newFixture(t)
	token := f.begin(t, "alice").SessionToken

	for i := 1; i <= 4; i++ {
		_, err := f.verify(token, f.badCode(t))
		require.True(t, goerror.IsCode(err, goerror.CodeUnauthorized))
		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, fmt.Sprint(5-i), gerr.Fields()["attempts_remaining"])
	}

	_, err := f.verify(token, f.badCode(t))
	require.True(t, goerror.IsCode(err, goerror.CodeTooManyRequest))
	assert.Equal(t, 5, f.audit.count(auditentity.Event2FAFailed))
	assert.Equal(t, 1, f.audit.count(auditentity.Event2FALockout))

	// locked: a correct code is refused, no audit, no counter change
	f.clock.Advance(10 * time.Second)
	before := len(f.audit.events)
	_, err = f.verify(token, f.goodCode(t))
	require.True(t, goerror.IsCode(err, goerror.CodeTooManyRequest))
	assert.Contains(t, err.(*goerror.Error).Msg(), "20 seconds")
	assert.Len(t, f.audit.events, before)
	for _, sess := range f.sessions.data {
		assert.Equal(t, 5, sess.FailedAttempts)
	}

	f.clock.Advance(20 * time.Second)
	res, err := f.verify(token, f.goodCode(t))
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, 1, f.audit.count(auditentity.Event2FASuccess))
}

func TestLogin_MalformedCodeDoesNotCount(t *testing.T) {
	f := newFixture(t)
	token := f.begin(t, "alice").SessionToken

	for _, code := range []string{"12345", "1234567", "12a456", "１２３４５６"} {
		_, err := f.verify(token, code)
		assert.True(t, goerror.IsCode(err, goerror.CodeInvalidInput), code)
	}

	assert.Empty(t, f.audit.events)
	for _, sess := range f.sessions.data {
		assert.Zero(t, sess.FailedAttempts)
	}
}

func TestLogin_Expired(t *testing.T) {
	f := newFixture(t)
	token := f.begin(t, "alice").SessionToken

	f.clock.Advance(5 * time.Minute)
	_, err := f.verify(token, f.goodCode(t))
	assert.True(t, goerror.IsCode(err, goerror.CodeExpired))
	assert.Empty(t, f.sessions.data)
	assert.Empty(t, f.audit.events)
}

func TestLogin_ExpiredMalformedCode(t *testing.T) {
	f := newFixture(t)
	token := f.begin(t, "alice").SessionToken

	f.clock.Advance(5 * time.Minute)
	_, err := f.verify(token, "12a")
	require.Error(t, err)
	assert.True(t, goerror.IsCode(err, goerror.CodeExpired))
	assert.Empty(t, f.sessions.data)

	_, err = f.verify(token, f.goodCode(t))
	assert.True(t, goerror.IsCode(err, goerror.CodeUnauthorized))
}

func TestRequestRecovery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.uc.RequestRecovery(ctx, RecoveryInput{Username: "alice", Reason: "lost phone", Actor: actor.New("", "10.1.1.1", "")})
	require.NoError(t, err)
	assert.True(t, res.OK())
	require.Len(t, f.pub.sent, 1)
	assert.Equal(t, event.RecipientAdministrators, f.pub.sent[0].Recipient)
	assert.Equal(t, auditentity.TargetSystem, f.audit.events[0].Target)

	f.pub.err = errors.New("broker down")
	res, err = f.uc.RequestRecovery(ctx, RecoveryInput{Username: "nobody", Actor: actor.New("", "10.1.1.1", "")})
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, 2, f.audit.count(auditentity.EventAccountRecoveryRequest))

	_, err = f.uc.RequestRecovery(ctx, RecoveryInput{Email: "not-an-email"})
	assert.True(t, goerror.IsCode(err, goerror.CodeInvalidInput))
}
