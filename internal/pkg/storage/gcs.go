package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

type GCS struct {
	bucket *gcs.BucketHandle
	name   string
	client *gcs.Client
	signer *gcsSigner
}

type GCSOptions struct {
	// CredentialsFile points at a service account key; empty uses ADC.
	CredentialsFile string
	// CredentialsJSON is an inline service account key and wins over CredentialsFile.
	CredentialsJSON []byte
	Endpoint        string
	// GoogleAccessID and PrivateKey enable signed URLs.
	GoogleAccessID string
	PrivateKey     []byte
}

type gcsSigner struct {
	accessID   string
	privateKey []byte
}

// NewGCS can only sign URLs when both GoogleAccessID and PrivateKey are set.
func NewGCS(ctx context.Context, bucket string, opts GCSOptions) (*GCS, error) {
	var clientOpts []option.ClientOption
	switch {
	case len(opts.CredentialsJSON) > 0:
		creds, err := google.CredentialsFromJSON(ctx, opts.CredentialsJSON, gcs.ScopeFullControl)
		if err != nil {
			return nil, fmt.Errorf("storage: gcs credentials: %w", err)
		}
		clientOpts = append(clientOpts, option.WithCredentials(creds))
	case opts.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	client, err := gcs.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: gcs client: %w", err)
	}

	g := &GCS{bucket: client.Bucket(bucket), name: bucket, client: client}
	if opts.GoogleAccessID != "" && len(opts.PrivateKey) > 0 {
		g.signer = &gcsSigner{accessID: opts.GoogleAccessID, privateKey: opts.PrivateKey}
	}
	return g, nil
}

func (g *GCS) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	w := g.bucket.Object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType
	if len(opts.Metadata) > 0 {
		w.Metadata = opts.Metadata
	}

	if _, err := io.Copy(w, r); err != nil {
		return ObjectInfo{}, fmt.Errorf("storage: gcs put %s: %w", key, errors.Join(err, w.Close()))
	}
	if err := w.Close(); err != nil {
		return ObjectInfo{}, fmt.Errorf("storage: gcs put %s: %w", key, err)
	}

	info := ObjectInfo{Bucket: g.name, Key: key, Size: opts.Size, ContentType: opts.ContentType}
	if attrs := w.Attrs(); attrs != nil {
		info.Size = attrs.Size
		info.ETag = attrs.Etag
	}
	return info, nil
}

func (g *GCS) Delete(ctx context.Context, key string) error {
	err := g.bucket.Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("storage: gcs delete %s: %w", key, err)
	}
	return nil
}

func (g *GCS) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if g.signer == nil {
		return "", ErrMissingSigner
	}
	if _, err := g.bucket.Object(key).Attrs(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("storage: gcs attrs %s: %w", key, err)
	}

	return g.bucket.SignedURL(key, &gcs.SignedURLOptions{
		Scheme:         gcs.SigningSchemeV4,
		Method:         http.MethodGet,
		Expires:        time.Now().Add(expiry),
		GoogleAccessID: g.signer.accessID,
		PrivateKey:     g.signer.privateKey,
	})
}

func (g *GCS) Close() error { return g.client.Close() }
