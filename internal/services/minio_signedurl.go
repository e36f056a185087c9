package services

import (
	"context"
	"net/url"
	"time"
)

const ProofURLTTL = 15 * time.Minute

// PresignedURL génère une URL temporaire de lecture pour l'écran de vérification admin.
func (s *ProofStore) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s == nil || s.client == nil {
		return "", ErrProofStorageDisabled
	}
	reqParams := make(url.Values)
	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, reqParams)
	if err != nil {
		return "", err
	}
	return presignedURL.String(), nil
}
