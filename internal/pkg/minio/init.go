package minio

import (
	"Parley/internal/api/config"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// defaultRegion 固定 region，预签名时不再请求桶位置
const defaultRegion = "us-east-1"

// NewClient 创建用于签发头像地址的客户端
// 签名中包含 host，所以优先使用对外地址
func NewClient(cfg config.MinIOConfig) (*minio.Client, error) {
	endpoint := cfg.ExternalEndpoint
	useSSL := true
	if endpoint == "" {
		endpoint = cfg.InternalEndpoint
		useSSL = cfg.InternalUseSSL
	}
	if endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is not configured")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: defaultRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}
	return client, nil
}
