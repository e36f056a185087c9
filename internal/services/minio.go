package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"ghee_back_end/internal/models"
)

// MaxProofSize limite la taille d'une preuve de paiement (5 MB).
const MaxProofSize = 5 << 20

var ErrProofStorageDisabled = errors.New("stockage des preuves de paiement non configuré")

// ProofUpload est le fichier reçu avec une commande ONLINE.
type ProofUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ProofStore range les preuves de paiement dans MinIO sous
// payment-proofs/<orderNumber>/<uuid><ext>.
type ProofStore struct {
	client *minio.Client
	bucket string
}

func NewProofStore(client *minio.Client, bucket string) *ProofStore {
	return &ProofStore{client: client, bucket: bucket}
}

func (s *ProofStore) Put(ctx context.Context, orderNumber string, upload ProofUpload) (*models.PaymentProof, error) {
	if s == nil || s.client == nil {
		return nil, ErrProofStorageDisabled
	}

	key := path.Join("payment-proofs", orderNumber, uuid.NewString()+strings.ToLower(path.Ext(upload.Filename)))
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, upload.Body, upload.Size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("upload preuve %s: %w", key, err)
	}

	log.Printf("🧾 Preuve de paiement stockée: %s (%d octets)", key, info.Size)
	return &models.PaymentProof{
		ObjectKey:   key,
		ContentType: contentType,
		Size:        info.Size,
		UploadedAt:  time.Now(),
	}, nil
}

// Delete retire une preuve, utilisé quand la commande n'a pas pu être enregistrée.
func (s *ProofStore) Delete(ctx context.Context, key string) error {
	if s == nil || s.client == nil {
		return ErrProofStorageDisabled
	}
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}
