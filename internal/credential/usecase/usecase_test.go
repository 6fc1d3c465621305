package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	auditentity "github.com/shandysiswandi/ktvs/internal/audit/entity"
	"github.com/shandysiswandi/ktvs/internal/credential/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/clock"
	"github.com/shandysiswandi/ktvs/internal/pkg/envelope"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/otp"
	"github.com/shandysiswandi/ktvs/internal/pkg/validator"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
	"github.com/shandysiswandi/ktvs/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore keeps credentials and the audit rows written alongside them.
type fakeStore struct {
	mu     sync.Mutex
	byID   map[string]entity.Credential
	events []auditentity.Event
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[string]entity.Credential{}}
}

func (f *fakeStore) Create(_ context.Context, cred entity.Credential, ev auditentity.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if c.SubjectID == cred.SubjectID {
			return goerror.ErrConflict
		}
	}
	f.byID[cred.ID] = cred
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeStore) GetBySubject(_ context.Context, subjectID string) (*entity.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if c.SubjectID == subjectID {
			return &c, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*entity.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &c, nil
}

func (f *fakeStore) Update(_ context.Context, id string, fn Mutator) (*entity.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	c.KelleyAttributes = cloneMap(c.KelleyAttributes)
	events, err := fn(&c)
	if err != nil {
		return nil, err
	}
	if len(events) > 0 {
		f.byID[id] = c
		f.events = append(f.events, events...)
	}
	return &c, nil
}

func (f *fakeStore) Delete(_ context.Context, id string, ev auditentity.Event) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return false, nil
	}
	delete(f.byID, id)
	f.events = append(f.events, ev)
	return true, nil
}

func (f *fakeStore) Replace(_ context.Context, oldID string, cred entity.Credential, events []auditentity.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, oldID)
	f.byID[cred.ID] = cred
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeStore) eventTypes() []auditentity.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]auditentity.EventType, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Type)
	}
	return out
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// fakeAudit builds events and records standalone ones into the store's log.
type fakeAudit struct {
	store *fakeStore
	n     int64
	err   error
}

func (a *fakeAudit) NewEvent(t auditentity.EventType, target string, act actor.Actor, payload map[string]any) auditentity.Event {
	a.n++
	return auditentity.Event{ID: a.n, Type: t, Target: target, Actor: act, Payload: payload}
}

func (a *fakeAudit) Record(_ context.Context, t auditentity.EventType, act actor.Actor, target string, payload map[string]any) error {
	if a.err != nil {
		return a.err
	}
	ev := a.NewEvent(t, target, act, payload)
	a.store.mu.Lock()
	a.store.events = append(a.store.events, ev)
	a.store.mu.Unlock()
	return nil
}

type admins map[string]bool

func (a admins) IsPrivileged(_ context.Context, subjectID string) (bool, error) {
	return a[subjectID], nil
}

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

type seqUUID struct{ n int }

func (s *seqUUID) Generate() string {
	s.n++
	return fmt.Sprintf("0196a4f0-0000-7000-8000-%012d", s.n)
}

type fixture struct {
	uc    *Usecase
	store *fakeStore
	audit *fakeAudit
	pub   *fakePublisher
	enc   envelope.Encryptor
	totp  *otp.TOTP
	clock *clock.Fake
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	key, err := envelope.NewKey([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	enc, err := envelope.NewAESGCM(key)
	require.NoError(t, err)
	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	store := newFakeStore()
	aud := &fakeAudit{store: store}
	pub := &fakePublisher{}
	clk := clock.NewFake(time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC))
	totp := otp.NewTOTP("KTVS", 30, 1, 6)

	uc := New(Dependency{
		RepoDB:        store,
		RepoMessaging: pub,
		Audit:         aud,
		Authorizer:    admins{"root": true},
		Encryptor:     enc,
		Totp:          totp,
		Verifier:      otp.NewVerifier(totp, enc, clk),
		UUID:          &seqUUID{},
		Clock:         clk,
		Validator:     v,
		Instrument:    instrument.NewNoop(),
	})

	return &fixture{uc: uc, store: store, audit: aud, pub: pub, enc: enc, totp: totp, clock: clk}
}

func (f *fixture) provision(t *testing.T, subject, label string) *ProvisionOutput {
	t.Helper()
	out, err := f.uc.Provision(context.Background(), ProvisionInput{
		SubjectID: subject,
		Label:     label,
		Actor:     actor.New(subject, "10.0.0.1", "test"),
	})
	require.NoError(t, err)
	return out
}

func TestProvision(t *testing.T) {
	f := newFixture(t)

	out := f.provision(t, "alice", "")
	cred := out.Credential

	assert.Contains(t, out.URI, "otpauth://totp/KTVS:alice")
	assert.Equal(t, entity.Metadata{Label: "", DigitCount: 6, PeriodSeconds: 30, Algorithm: "SHA1"}, cred.Metadata)
	assert.Equal(t, map[string]any{"role": "User", "function": "General"}, cred.KelleyAttributes)
	assert.Equal(t, entity.RevocationActive, cred.SecurityFlags.RevocationState)
	assert.False(t, cred.SecurityFlags.IsHighPrivilege)

	plain, err := f.enc.Decrypt(cred.EncryptedSecret)
	require.NoError(t, err)
	assert.Len(t, plain, 32)
	assert.NotContains(t, string(cred.EncryptedSecret), string(plain))

	assert.Equal(t, []auditentity.EventType{auditentity.EventCredentialCreated}, f.store.eventTypes())

	_, err = f.uc.Provision(context.Background(), ProvisionInput{SubjectID: "alice", Actor: actor.New("alice", "", "")})
	assert.True(t, goerror.IsCode(err, goerror.CodeConflict))
}

func TestProvision_Seal(t *testing.T) {
	f := newFixture(t)

	cred := f.provision(t, "ops", "break glass KELLEY-SEAL:K42").Credential

	assert.True(t, cred.SecurityFlags.IsHighPrivilege)
	assert.Equal(t, "K42", cred.KelleyAttributes["seal_id"])
}

func TestCreate_CodeParameters(t *testing.T) {
	ctx := context.Background()
	const seed = "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"

	rejected := []struct {
		name  string
		md    entity.Metadata
		field string
	}{
		{name: "eight digits", md: entity.Metadata{DigitCount: 8}, field: "digit_count"},
		{name: "sixty second period", md: entity.Metadata{PeriodSeconds: 60}, field: "period_seconds"},
		{name: "sha256", md: entity.Metadata{Algorithm: "SHA256"}, field: "algorithm"},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.uc.Create(ctx, CreateInput{
				SubjectID: "alice",
				Secret:    seed,
				Metadata:  tt.md,
				Actor:     actor.New("alice", "", ""),
			})
			require.True(t, goerror.IsCode(err, goerror.CodeInvalidInput))

			var gerr *goerror.Error
			require.True(t, errors.As(err, &gerr))
			assert.Contains(t, gerr.Fields(), tt.field)
			assert.Empty(t, f.store.events)
		})
	}

	t.Run("matching parameters verify", func(t *testing.T) {
		f := newFixture(t)
		cred, err := f.uc.Create(ctx, CreateInput{
			SubjectID: "alice",
			Secret:    seed,
			Metadata:  entity.Metadata{DigitCount: 6, PeriodSeconds: 30, Algorithm: "sha1"},
			Actor:     actor.New("alice", "", ""),
		})
		require.NoError(t, err)
		assert.Equal(t, 6, cred.Metadata.DigitCount)

		code, err := f.totp.GenerateCode(seed, f.clock.Now())
		require.NoError(t, err)
		assert.Len(t, code, cred.Metadata.DigitCount)
		assert.True(t, otp.NewVerifier(f.totp, f.enc, f.clock).Verify(cred.EncryptedSecret, code))
	})
}

func TestRegisterSubject(t *testing.T) {
	f := newFixture(t)

	out, res := f.uc.RegisterSubject(context.Background(), ProvisionInput{SubjectID: "bob", Actor: actor.System()})
	require.True(t, res.OK())
	assert.NotEmpty(t, out.URI)

	out, res = f.uc.RegisterSubject(context.Background(), ProvisionInput{SubjectID: "bob", Actor: actor.System()})
	assert.Nil(t, out)
	assert.False(t, res.OK())
	assert.NotEmpty(t, res.Reason())
}

func TestDecryptSecret(t *testing.T) {
	t.Run("audits before decrypting", func(t *testing.T) {
		f := newFixture(t)
		cred := f.provision(t, "alice", "").Credential

		plain, err := f.uc.DecryptSecret(context.Background(), cred, actor.New("alice", "", ""))
		require.NoError(t, err)
		assert.Len(t, plain, 32)
		assert.Equal(t, []auditentity.EventType{auditentity.EventCredentialCreated, auditentity.EventSecretViewed}, f.store.eventTypes())
	})

	t.Run("no plaintext when the audit write fails", func(t *testing.T) {
		f := newFixture(t)
		cred := f.provision(t, "alice", "").Credential
		f.audit.err = errors.New("audit store down")

		plain, err := f.uc.DecryptSecret(context.Background(), cred, actor.New("alice", "", ""))
		assert.Nil(t, plain)
		assert.True(t, goerror.IsCode(err, goerror.CodeInternal))
	})

	t.Run("tampered blob", func(t *testing.T) {
		f := newFixture(t)
		cred := f.provision(t, "alice", "").Credential
		cred.EncryptedSecret[len(cred.EncryptedSecret)-1] ^= 0x01

		_, err := f.uc.DecryptSecret(context.Background(), cred, actor.New("alice", "", ""))
		assert.ErrorIs(t, err, envelope.ErrDecryptionFailure)
	})
}

func TestPatch(t *testing.T) {
	ctx := context.Background()

	t.Run("owner updates label and history grows", func(t *testing.T) {
		f := newFixture(t)
		f.provision(t, "alice", "phone")

		cred, err := f.uc.Patch(ctx, PatchInput{
			SubjectID: "alice",
			Fields:    map[string]any{"metadata.label": "tablet"},
			Actor:     actor.New("alice", "", ""),
		})
		require.NoError(t, err)
		assert.Equal(t, "tablet", cred.Metadata.Label)
		require.Len(t, cred.ChangeHistory, 1)
		assert.Equal(t, "alice", cred.ChangeHistory[0].Actor)
		assert.Equal(t, entity.Change{Old: "phone", New: "tablet"}, cred.ChangeHistory[0].Changes["metadata.label"])
		assert.Contains(t, f.store.eventTypes(), auditentity.EventCredentialModified)
	})

	t.Run("owner cannot raise own privilege", func(t *testing.T) {
		f := newFixture(t)
		f.provision(t, "alice", "")

		_, err := f.uc.Patch(ctx, PatchInput{
			SubjectID: "alice",
			Fields:    map[string]any{"security_flags.is_high_privilege": true},
			Actor:     actor.New("alice", "", ""),
		})
		assert.True(t, goerror.IsCode(err, goerror.CodeForbidden))
	})

	t.Run("administrator revokes", func(t *testing.T) {
		f := newFixture(t)
		f.provision(t, "alice", "")

		cred, err := f.uc.Patch(ctx, PatchInput{
			SubjectID: "alice",
			Fields:    map[string]any{"security_flags.revocation_state": "Revoked"},
			Actor:     actor.New("root", "", ""),
		})
		require.NoError(t, err)
		assert.Equal(t, entity.RevocationRevoked, cred.SecurityFlags.RevocationState)
	})

	t.Run("unknown path is invalid input", func(t *testing.T) {
		f := newFixture(t)
		f.provision(t, "alice", "")

		_, err := f.uc.Patch(ctx, PatchInput{
			SubjectID: "alice",
			Fields:    map[string]any{"encrypted_secret": "AAAA"},
			Actor:     actor.New("root", "", ""),
		})
		assert.True(t, goerror.IsCode(err, goerror.CodeInvalidInput))
	})

	t.Run("no-op writes nothing", func(t *testing.T) {
		f := newFixture(t)
		f.provision(t, "alice", "same")

		cred, err := f.uc.Patch(ctx, PatchInput{
			SubjectID: "alice",
			Fields:    map[string]any{"metadata.label": "same"},
			Actor:     actor.New("alice", "", ""),
		})
		require.NoError(t, err)
		assert.Empty(t, cred.ChangeHistory)
		assert.Equal(t, []auditentity.EventType{auditentity.EventCredentialCreated}, f.store.eventTypes())
	})
}

func TestToggle2FA(t *testing.T) {
	f := newFixture(t)
	f.provision(t, "alice", "")
	act := actor.New("alice", "", "")

	on, err := f.uc.Toggle2FA(context.Background(), Toggle2FAInput{Actor: act})
	require.NoError(t, err)
	assert.True(t, on)

	off, err := f.uc.Toggle2FA(context.Background(), Toggle2FAInput{Actor: act})
	require.NoError(t, err)
	assert.False(t, off)

	assert.Equal(t, []auditentity.EventType{
		auditentity.EventCredentialCreated,
		auditentity.EventCredentialModified, auditentity.Event2FAStatusChanged,
		auditentity.EventCredentialModified, auditentity.Event2FAStatusChanged,
	}, f.store.eventTypes())

	history, err := f.uc.ListHistory(context.Background(), GetBySubjectInput{SubjectID: "alice"})
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cred := f.provision(t, "alice", "").Credential

	_, err := f.uc.Delete(ctx, DeleteInput{ID: cred.ID, Actor: actor.New("mallory", "", "")})
	assert.True(t, goerror.IsCode(err, goerror.CodeForbidden))

	ok, err := f.uc.Delete(ctx, DeleteInput{ID: cred.ID, Actor: actor.New("alice", "", "")})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.uc.Delete(ctx, DeleteInput{ID: cred.ID, Actor: actor.New("alice", "", "")})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.uc.GetBySubject(ctx, GetBySubjectInput{SubjectID: "alice"})
	assert.True(t, goerror.IsCode(err, goerror.CodeNotFound))
}

func TestAdminReset2FA(t *testing.T) {
	ctx := context.Background()

	t.Run("requires privilege", func(t *testing.T) {
		f := newFixture(t)
		f.provision(t, "alice", "")

		_, err := f.uc.AdminReset2FA(ctx, AdminResetInput{SubjectID: "alice", Actor: actor.New("alice", "", "")})
		assert.True(t, goerror.IsCode(err, goerror.CodeForbidden))
	})

	t.Run("replaces the credential and notifies", func(t *testing.T) {
		f := newFixture(t)
		old := f.provision(t, "alice", "phone").Credential
		_, err := f.uc.Patch(ctx, PatchInput{
			SubjectID: "alice",
			Fields:    map[string]any{"kelley_attributes.role": "Operator"},
			Actor:     actor.New("root", "", ""),
		})
		require.NoError(t, err)

		out, err := f.uc.AdminReset2FA(ctx, AdminResetInput{SubjectID: "alice", Actor: actor.New("root", "", "")})
		require.NoError(t, err)
		assert.True(t, out.Result.OK())
		assert.NotEqual(t, old.ID, out.Credential.ID)
		assert.Equal(t, "User", out.Credential.KelleyAttributes["role"])
		assert.NotEqual(t, old.EncryptedSecret, out.Credential.EncryptedSecret)

		require.Len(t, f.pub.sent, 1)
		assert.Equal(t, "alice", f.pub.sent[0].Recipient)
		assert.Equal(t, "ADMIN_2FA_RESET", f.pub.sent[0].EventType)

		last := f.store.events[len(f.store.events)-1]
		assert.Equal(t, auditentity.EventAdmin2FAReset, last.Type)
		assert.Equal(t, "alice", last.Payload["reset_for_user"])
	})

	t.Run("publish failure is a side effect failure", func(t *testing.T) {
		f := newFixture(t)
		f.provision(t, "alice", "")
		f.pub.err = errors.New("broker down")

		out, err := f.uc.AdminReset2FA(ctx, AdminResetInput{SubjectID: "alice", Actor: actor.New("root", "", "")})
		require.NoError(t, err)
		assert.False(t, out.Result.OK())
		assert.Contains(t, out.Result.Reason(), "broker down")
	})
}

func TestExportSeedAndCurrentCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.provision(t, "alice", "phone")

	seed, err := f.uc.ExportSeed(ctx, ExportSeedInput{Actor: actor.New("alice", "", "")})
	require.NoError(t, err)
	assert.Len(t, seed.Seed, 32)
	assert.Contains(t, seed.URI, "secret="+seed.Seed)

	_, err = f.uc.CurrentCode(ctx, CurrentCodeInput{SubjectID: "alice", Actor: actor.New("alice", "", "")})
	assert.True(t, goerror.IsCode(err, goerror.CodeForbidden))

	code, err := f.uc.CurrentCode(ctx, CurrentCodeInput{SubjectID: "alice", Actor: actor.New("root", "", "")})
	require.NoError(t, err)
	want, err := f.totp.GenerateCode(seed.Seed, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, want, code)

	views := 0
	for _, ev := range f.store.events {
		if ev.Type == auditentity.EventSecretViewed {
			views++
		}
	}
	assert.Equal(t, 2, views)
}
