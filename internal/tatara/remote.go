package tatara

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// RemoteStore wraps an S3-compatible bucket (AWS, Cloudflare R2, MinIO)
// that receives finished artifacts.
type RemoteStore struct {
	Client     *s3.Client
	BucketName string
}

// newRemoteStore initializes the artifact store from configuration values.
// Returns (nil, nil) when no bucket is configured, which disables uploads.
func newRemoteStore(cfg *Config) (*RemoteStore, error) {
	bucketName := cfg.Values["TATARA_S3_BUCKET"]
	if bucketName == "" {
		return nil, nil
	}

	accessKey := cfg.Values["TATARA_S3_ACCESS_KEY"]
	secretKey := cfg.Values["TATARA_S3_SECRET_KEY"]
	endpoint := cfg.Values["TATARA_S3_ENDPOINT"]
	region := cfg.Values["TATARA_S3_REGION"]
	if region == "" {
		region = "auto"
	}

	if accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("S3 credentials missing in configuration (TATARA_S3_ACCESS_KEY, TATARA_S3_SECRET_KEY)")
	}

	options := []func(*config.LoadOptions) error{
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		config.WithRegion(region),
	}

	if Debug {
		options = append(options, config.WithClientLogMode(aws.LogSigning|aws.LogRetries|aws.LogRequest|aws.LogResponse))
	}

	awsCfg, err := config.LoadDefaultConfig(context.TODO(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &RemoteStore{
		Client:     client,
		BucketName: bucketName,
	}, nil
}

// UploadLocalFile uploads a file from disk to the bucket under key.
func (r *RemoteStore) UploadLocalFile(ctx context.Context, key, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return err
	}

	_, err = r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.BucketName),
		Key:           aws.String(key),
		Body:          file,
		ContentLength: aws.Int64(stat.Size()),
		ContentType:   aws.String("application/vnd.debian.binary-package"),
	})
	return err
}
