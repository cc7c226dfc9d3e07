package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client abstracts the S3 API operations used by the S3 archive.
// The s3.Client type satisfies this interface.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type s3Metadata struct {
	ID            string        `json:"id"`
	Transcription Transcription `json:"transcription"`
}

func (a *implS3) PutRecording(ctx context.Context, id string, audio []byte) error {
	return a.put(ctx, id+".mp3", "audio/mpeg", audio)
}

func (a *implS3) PutTranscription(ctx context.Context, id string, t Transcription) error {
	body, err := json.Marshal(s3Metadata{ID: id, Transcription: t})
	if err != nil {
		return fmt.Errorf("marshal transcription: %w", err)
	}
	return a.put(ctx, id+".json", "application/json", body)
}

func (a *implS3) key(name string) string {
	if a.prefix == "" {
		return name
	}
	return a.prefix + "/" + name
}

func (a *implS3) put(ctx context.Context, name, contentType string, body []byte) error {
	key := a.key(name)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("put s3://%s/%s: %s: %w", a.bucket, key, apiErr.ErrorCode(), err)
		}
		return fmt.Errorf("put s3://%s/%s: %w", a.bucket, key, err)
	}
	a.logger.Debug(ctx, "Stored s3://%s/%s (%d bytes)", a.bucket, key, len(body))
	return nil
}
