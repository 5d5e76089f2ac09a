package minio

import (
	"bytes"
	"context"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/cfg"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

// ReportRepo хранит XLSX-отчёты в бакете MinIO.
type ReportRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewReportRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *ReportRepo {
	return &ReportRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Upload загружает отчёт под указанным ключом.
func (r *ReportRepo) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	reader := bytes.NewReader(data)

	_, err := r.mc.PutObject(ctx, r.cfg.BucketName, key, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return e.WrapStore(whereami.WhereAmI(), err)
	}

	return nil
}

// Delete удаляет объект из MinIO по указанному ключу.
func (r *ReportRepo) Delete(ctx context.Context, key string) error {
	if err := r.mc.RemoveObject(ctx, r.cfg.BucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return e.WrapStore(whereami.WhereAmI(), err)
	}

	return nil
}

// PresignedURL выдаёт временную ссылку на скачивание отчёта.
func (r *ReportRepo) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := r.mc.PresignedGetObject(ctx, r.cfg.BucketName, key, ttl, nil)
	if err != nil {
		return "", e.WrapStore(whereami.WhereAmI(), err)
	}

	return u.String(), nil
}
