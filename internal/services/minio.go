package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

const maxImageSize = 5 << 20

var ErrInvalidImage = errors.New("image invalide (jpeg, png ou webp, 5 Mo maximum)")

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ImageStorage - images produit dans un bucket MinIO, servies par URL présignée
type ImageStorage struct {
	client     *minio.Client
	bucket     string
	presignTTL time.Duration
}

func NewImageStorage(client *minio.Client, bucket string, presignTTL time.Duration) *ImageStorage {
	if presignTTL <= 0 {
		presignTTL = time.Hour
	}
	return &ImageStorage{client: client, bucket: bucket, presignTTL: presignTTL}
}

// ImageKey - clé objet unique pour une image produit
func ImageKey(productID, contentType string) (string, error) {
	ext, ok := imageExtensions[strings.ToLower(contentType)]
	if !ok {
		return "", ErrInvalidImage
	}
	return path.Join("products", productID, uuid.NewString()+ext), nil
}

// Upload envoie le fichier et retourne sa clé objet
func (s *ImageStorage) Upload(ctx context.Context, productID string, file *multipart.FileHeader) (string, error) {
	if file.Size <= 0 || file.Size > maxImageSize {
		return "", ErrInvalidImage
	}
	contentType := file.Header.Get("Content-Type")
	key, err := ImageKey(productID, contentType)
	if err != nil {
		return "", err
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, s.bucket, key, f, file.Size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("envoi MinIO: %w", err)
	}
	return key, nil
}

// PresignedURL génère une URL de lecture temporaire pour la clé
func (s *ImageStorage) PresignedURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presignTTL, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
