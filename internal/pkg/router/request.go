package router

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/pkg/jwt"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
)

// maxBodyBytes bounds JSON request bodies; QR content is capped far below it.
const maxBodyBytes = 1 << 20

// Request is what handlers receive.
type Request struct {
	*http.Request
}

func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

func (r *Request) GetQuery(key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// GetQueryInt32 returns 0 for an absent key.
func (r *Request) GetQueryInt32(key string) (int32, error) {
	raw := r.GetQuery(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, goerror.NewInvalidFormat("Invalid query " + key)
	}
	return int32(v), nil
}

// GetQueryBool returns false for an absent key.
func (r *Request) GetQueryBool(key string) (bool, error) {
	raw := r.GetQuery(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, goerror.NewInvalidFormat("Invalid query " + key)
	}
	return v, nil
}

// DecodeBody strictly decodes exactly one JSON value into dst. Unknown fields,
// trailing data and bodies over 1 MiB are format errors.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes+1))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return goerror.NewInvalidFormat("Request body is empty")
		}
		return goerror.NewInvalidFormat()
	}
	if dec.InputOffset() > maxBodyBytes {
		return goerror.NewInvalidFormat("Request body too large")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}
	return nil
}

// ClientIP is the address resolved by middlewareRequestContext.
func (r *Request) ClientIP() string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// SubjectID returns the authenticated subject, or "" on public routes.
func (r *Request) SubjectID() string {
	if clm := jwt.GetAuth(r.Context()); clm != nil {
		return clm.SubjectID()
	}
	return ""
}

// Actor describes the caller for audit records.
func (r *Request) Actor() actor.Actor {
	return actor.New(r.SubjectID(), r.ClientIP(), r.UserAgent())
}
