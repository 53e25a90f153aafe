package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"journey_backend/internal/config"
	"journey_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const rawHTMLTTL = 7 * 24 * time.Hour

// RawHTMLStore 抓取原文的落盘层。redis 做短期缓存（回填接口重解析用），
// minio 配置存在时归档一份长期副本。归档失败只记日志不影响管线。
type RawHTMLStore struct {
	Redis  *redis.Client
	Minio  *minio.Client
	Bucket string
}

func NewRawHTMLStore(cfg *config.Config, rdb *redis.Client) *RawHTMLStore {
	store := &RawHTMLStore{Redis: rdb}

	if cfg.Storage.Type == "minio" && cfg.Storage.MinioEndpoint != "" {
		client, err := minio.New(cfg.Storage.MinioEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.Storage.MinioAccessID, cfg.Storage.MinioSecret, ""),
			Secure: false,
		})
		if err != nil {
			logger.Log.Warn("minio client init failed, raw html archive disabled", zap.Error(err))
		} else {
			store.Minio = client
			store.Bucket = cfg.Storage.MinioBucket
		}
	}

	return store
}

func rawHTMLKey(resourceID string) string {
	return "resource:rawhtml:" + resourceID
}

func (s *RawHTMLStore) Save(ctx context.Context, resourceID string, html string) error {
	if err := s.Redis.Set(ctx, rawHTMLKey(resourceID), html, rawHTMLTTL).Err(); err != nil {
		return err
	}

	if s.Minio != nil {
		object := fmt.Sprintf("rawhtml/%s.html", resourceID)
		_, err := s.Minio.PutObject(ctx, s.Bucket, object,
			bytes.NewReader([]byte(html)), int64(len(html)),
			minio.PutObjectOptions{ContentType: "text/html; charset=utf-8"})
		if err != nil {
			logger.Log.Warn("raw html archive upload failed",
				zap.String("resource_id", resourceID), zap.Error(err))
		}
	}
	return nil
}

// Get 先查 redis 缓存，miss 时回源 minio 归档
func (s *RawHTMLStore) Get(ctx context.Context, resourceID string) (string, error) {
	html, err := s.Redis.Get(ctx, rawHTMLKey(resourceID)).Result()
	if err == nil {
		return html, nil
	}
	if err != redis.Nil {
		return "", err
	}

	if s.Minio == nil {
		return "", redis.Nil
	}

	object := fmt.Sprintf("rawhtml/%s.html", resourceID)
	obj, err := s.Minio.GetObject(ctx, s.Bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return "", err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
