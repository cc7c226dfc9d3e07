package publisher

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/nguyentantai21042004/announce-flow/internal/config"
	"github.com/nguyentantai21042004/announce-flow/internal/logger"
)

const httpTimeout = 2 * time.Minute

type implHTTP struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  logger.Logger
}

// NewHTTP creates an Archive that posts to the transcription archive API
func NewHTTP(baseURL, apiKey string, client *http.Client, log logger.Logger) Archive {
	if client == nil {
		client = &http.Client{Timeout: httpTimeout}
	}
	return &implHTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		logger:  log,
	}
}

type implS3 struct {
	client S3Client
	bucket string
	prefix string
	logger logger.Logger
}

// NewS3 creates an Archive that stores objects in a bucket.
// Any type satisfying S3Client is accepted; typically an s3.Client.
func NewS3(client S3Client, bucket, prefix string, log logger.Logger) Archive {
	return &implS3{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: log,
	}
}

// New builds the archive named by cfg. It returns nil for kind "none".
func New(ctx context.Context, cfg config.PublisherConfig, log logger.Logger) (Archive, error) {
	switch cfg.Kind {
	case "none":
		return nil, nil
	case "http":
		return NewHTTP(cfg.HTTP.URL, cfg.HTTP.APIKey, nil, log), nil
	case "s3":
		opts := []func(*awsconfig.LoadOptions) error{}
		if cfg.S3.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.S3.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return NewS3(s3.NewFromConfig(awsCfg), cfg.S3.Bucket, cfg.S3.Prefix, log), nil
	}
	return nil, fmt.Errorf("unknown publisher kind %q", cfg.Kind)
}
