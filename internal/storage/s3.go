package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config はS3バックエンドの接続情報。
type S3Config struct {
	Endpoint string
	Region   string
	Bucket   string
	KeyID    string
	Secret   string
}

// S3Store はS3互換オブジェクトストレージにアーティファクトを保存するStore実装。
// MinIO等のセルフホスト環境を想定し、path-styleアドレッシングを使用する。
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store はS3Storeを生成する。
func NewS3Store(cfg S3Config) *S3Store {
	client := s3.New(s3.Options{
		UsePathStyle: true,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Region:       cfg.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.KeyID, cfg.Secret, ""),
		),
	})
	return &S3Store{client: client, bucket: cfg.Bucket}
}

// Save は内容をオブジェクトとして保存する。
// S3のPutObjectは完了するまでオブジェクトが可視にならないため、
// 部分書き込み状態が観測されることはない。
func (s *S3Store) Save(ctx context.Context, name string, content []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
		Body:   bytes.NewReader(content),
	})
	if err != nil {
		return fmt.Errorf("failed to put artifact to s3: %w", err)
	}
	return nil
}

// Open は指定名のオブジェクトの内容を返す。
func (s *S3Store) Open(ctx context.Context, name string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		var notFound *types.NotFound
		if errors.As(err, &noKey) || errors.As(err, &notFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get artifact from s3: %w", err)
	}
	defer object.Body.Close()

	content, err := io.ReadAll(object.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact body: %w", err)
	}
	return content, nil
}

// Delete は指定名のオブジェクトを削除する。
func (s *S3Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		return fmt.Errorf("failed to delete artifact from s3: %w", err)
	}
	return nil
}

// compile-time interface check
var _ Store = (*S3Store)(nil)
