package minio

import (
	"Parley/internal/api/config"
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// AvatarResolver 把资料中的头像对象 key 转成可访问地址，完整 URL 原样返回
type AvatarResolver struct {
	client    *minio.Client
	bucket    string
	publicURL string
	expire    time.Duration
}

func NewAvatarResolver(client *minio.Client, cfg config.MinIOConfig) *AvatarResolver {
	r := &AvatarResolver{
		client: client,
		bucket: cfg.AvatarBucket,
		expire: time.Duration(cfg.PresignExpire) * time.Second,
	}
	if r.expire <= 0 {
		r.expire = time.Hour
	}
	if cfg.UsePublicLink {
		r.publicURL = fmt.Sprintf("%s/%s", strings.TrimRight(client.EndpointURL().String(), "/"), r.bucket)
	}
	return r
}

func (r *AvatarResolver) Resolve(ctx context.Context, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	key := strings.TrimPrefix(strings.TrimPrefix(ref, "/"), r.bucket+"/")
	if r.publicURL != "" {
		return r.publicURL + "/" + key
	}

	u, err := r.client.PresignedGetObject(ctx, r.bucket, key, r.expire, nil)
	if err != nil {
		log.WarnContext(ctx, "Failed to presign avatar", "key", key, "err", err)
		return ""
	}
	return u.String()
}
