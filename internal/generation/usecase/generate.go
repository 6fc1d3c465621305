package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/ktvs/internal/generation/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/pkg/idempotency"
	"github.com/shandysiswandi/ktvs/internal/pkg/qrcode"
	"github.com/shandysiswandi/ktvs/internal/pkg/storage"
)

type (
	GenerateInput struct {
		SubjectID      string      `validate:"required,max=255"`
		Kind           entity.Kind `validate:"required"`
		Content        string      `validate:"required,max=2048"`
		Size           string      `validate:"max=16"`
		BoxSize        *int        `validate:"omitempty,gte=1,lte=40"`
		Border         *int        `validate:"omitempty,gte=0,lte=20"`
		Foreground     string      `validate:"omitempty,rgbhex"`
		Background     string      `validate:"omitempty,rgbhex"`
		Preview        bool
		IdempotencyKey string `validate:"max=128"`
	}

	GenerateOutput struct {
		PNG       []byte
		HistoryID string
		URL       string
		Preset    string
		BoxSize   int
		Border    int
	}

	// receipt is what a completed idempotent generation remembers.
	receipt struct {
		HistoryID string `json:"history_id"`
		ObjectKey string `json:"object_key"`
	}

	plan struct {
		preset  string
		fg, bg  string
		box     int
		border  int
		options qrcode.Options
	}
)

func (s *Usecase) plan(in GenerateInput) (plan, error) {
	preset, err := entity.LookupPreset(in.Size)
	if err != nil {
		return plan{}, goerror.NewInvalidInput(nil, "size", "unknown size preset")
	}

	p := plan{preset: preset.Name, box: preset.BoxSize, border: preset.Border, fg: "000000", bg: "ffffff"}
	if in.BoxSize != nil {
		p.box, p.preset = *in.BoxSize, "custom"
	}
	if in.Border != nil {
		p.border, p.preset = *in.Border, "custom"
	}
	if in.Foreground != "" {
		p.fg = in.Foreground
	}
	if in.Background != "" {
		p.bg = in.Background
	}

	fg, err := qrcode.ParseHex(p.fg)
	if err != nil {
		return plan{}, goerror.NewInvalidInput(nil, "fg", "must be 6 hex digits")
	}
	bg, err := qrcode.ParseHex(p.bg)
	if err != nil {
		return plan{}, goerror.NewInvalidInput(nil, "bg", "must be 6 hex digits")
	}

	p.options = qrcode.Options{BoxSize: p.box, Border: p.border, Foreground: fg, Background: bg}
	return p, nil
}

func render(content string, p plan) ([]byte, error) {
	png, err := qrcode.Render(content, p.options)
	if errors.Is(err, qrcode.ErrRender) {
		return nil, goerror.NewInvalidInput(nil, "content", "content cannot be encoded as a QR code")
	}
	if err != nil {
		return nil, goerror.NewServer(err)
	}
	return png, nil
}

// Generate renders a QR code. Unless previewing it takes one generation from
// the subject's quota first, then stores the image and records history; a
// failure after the reservation gives the generation back.
func (s *Usecase) Generate(ctx context.Context, in GenerateInput) (*GenerateOutput, error) {
	ctx, span := s.startSpan(ctx, "Generate")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if !in.Kind.Valid() {
		return nil, goerror.NewInvalidInput(nil, "kind", "unknown kind")
	}

	p, err := s.plan(in)
	if err != nil {
		return nil, err
	}

	if in.Preview {
		png, err := render(in.Content, p)
		if err != nil {
			return nil, err
		}
		return &GenerateOutput{PNG: png, Preset: p.preset, BoxSize: p.box, Border: p.border}, nil
	}

	if in.IdempotencyKey == "" {
		return s.generate(ctx, in, p)
	}

	var out *GenerateOutput
	raw, err := s.idem.Exec(ctx, "qrcodes:"+in.SubjectID+":"+in.IdempotencyKey, func(ctx context.Context) (string, error) {
		res, err := s.generate(ctx, in, p)
		if err != nil {
			return "", err
		}
		out = res

		b, err := json.Marshal(receipt{HistoryID: res.HistoryID, ObjectKey: entity.ObjectKey(in.SubjectID, res.HistoryID)})
		return string(b), err
	})
	if errors.Is(err, idempotency.ErrAlreadyInProgress) {
		return nil, goerror.NewBusiness("A request with this idempotency key is in progress", goerror.CodeConflict)
	}
	if err != nil {
		var gerr *goerror.Error
		if errors.As(err, &gerr) {
			return nil, err
		}
		slog.ErrorContext(ctx, "failed to run idempotent generation", "subject_id", in.SubjectID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if out != nil {
		return out, nil
	}

	// replay: rendering is deterministic, so the stored image need not be fetched
	var rc receipt
	if err := json.Unmarshal([]byte(raw), &rc); err != nil {
		slog.ErrorContext(ctx, "failed to decode idempotency receipt", "error", err)
		return nil, goerror.NewServer(err)
	}

	png, err := render(in.Content, p)
	if err != nil {
		return nil, err
	}

	return &GenerateOutput{
		PNG:       png,
		HistoryID: rc.HistoryID,
		URL:       s.signedURL(ctx, rc.ObjectKey),
		Preset:    p.preset,
		BoxSize:   p.box,
		Border:    p.border,
	}, nil
}

func (s *Usecase) generate(ctx context.Context, in GenerateInput, p plan) (_ *GenerateOutput, err error) {
	if err := s.quota.IncrementUsage(ctx, in.SubjectID); err != nil {
		return nil, err
	}

	var reservedBytes int64
	defer func() {
		if err == nil {
			return
		}
		// the caller may have gone away; the release must still land
		rctx := context.WithoutCancel(ctx)
		if reservedBytes > 0 {
			if rErr := s.quota.ReleaseStorage(rctx, in.SubjectID, reservedBytes); rErr != nil {
				slog.ErrorContext(ctx, "failed to release storage reservation", "subject_id", in.SubjectID, "error", rErr)
			}
		}
		if rErr := s.quota.DecrementUsage(rctx, in.SubjectID); rErr != nil {
			slog.ErrorContext(ctx, "failed to release generation reservation", "subject_id", in.SubjectID, "error", rErr)
		}
	}()

	png, err := render(in.Content, p)
	if err != nil {
		return nil, err
	}

	size := int64(len(png))
	if err := s.quota.ReserveStorage(ctx, in.SubjectID, size); err != nil {
		return nil, err
	}
	reservedBytes = size

	id := s.repoDB.NewID()
	key := entity.ObjectKey(in.SubjectID, id)

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	if _, err := s.objects.Put(sctx, key, bytes.NewReader(png), storage.PutOptions{
		Size:        size,
		ContentType: "image/png",
		Metadata:    map[string]string{"subject-id": in.SubjectID, "kind": string(in.Kind)},
	}); err != nil {
		slog.ErrorContext(ctx, "failed to upload qr image", "subject_id", in.SubjectID, "object_key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	err = s.repoDB.Insert(sctx, entity.History{
		ID:         id,
		SubjectID:  in.SubjectID,
		Kind:       in.Kind,
		Content:    in.Content,
		Foreground: p.fg,
		Background: p.bg,
		Preset:     p.preset,
		BoxSize:    p.box,
		Border:     p.border,
		ObjectKey:  key,
		SizeBytes:  size,
		CreatedAt:  s.clock.Now().UTC(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo insert history", "subject_id", in.SubjectID, "error", err)
		s.removeObject(ctx, key)
		return nil, goerror.NewServer(err)
	}

	return &GenerateOutput{
		PNG:       png,
		HistoryID: id,
		URL:       s.signedURL(ctx, key),
		Preset:    p.preset,
		BoxSize:   p.box,
		Border:    p.border,
	}, nil
}

// signedURL is best effort; backends without signing support yield "".
func (s *Usecase) signedURL(ctx context.Context, key string) string {
	u, err := s.objects.SignedURL(ctx, key, s.urlExpiry)
	if err != nil {
		slog.WarnContext(ctx, "failed to sign object url", "object_key", key, "error", err)
		return ""
	}
	return u
}

// removeObject deletes key off the request path.
func (s *Usecase) removeObject(ctx context.Context, key string) {
	ok := s.bg.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		ctx, cancel := s.storeContext(ctx)
		defer cancel()

		if err := s.objects.Delete(ctx, key); err != nil {
			slog.ErrorContext(ctx, "failed to delete qr image", "object_key", key, "error", err)
			return err
		}
		return nil
	})
	if !ok {
		slog.WarnContext(ctx, "qr image left behind", "object_key", key)
	}
}
