package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Gateway talks to Amazon S3 (or compatible APIs) for one bucket.
type S3Gateway struct {
	client    *s3.Client
	presigner *s3.PresignClient
	uploader  *manager.Uploader
	bucket    string
}

func NewS3Gateway(client *s3.Client, bucket string) *S3Gateway {
	return &S3Gateway{
		client:    client,
		presigner: s3.NewPresignClient(client),
		uploader:  manager.NewUploader(client),
		bucket:    bucket,
	}
}

func (g *S3Gateway) ListPrefix(ctx context.Context, prefix, delimiter string) (ListResult, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(g.bucket),
		MaxKeys: aws.Int32(1000),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}
	if delimiter != "" {
		input.Delimiter = aws.String(delimiter)
	}

	var result ListResult
	for {
		output, err := g.client.ListObjectsV2(ctx, input)
		if err != nil {
			return ListResult{}, classify("list objects", err)
		}

		for _, cp := range output.CommonPrefixes {
			if cp.Prefix != nil && *cp.Prefix != "" {
				result.CommonPrefixes = append(result.CommonPrefixes, *cp.Prefix)
			}
		}
		for _, obj := range output.Contents {
			info := ObjectInfo{
				Key:  aws.ToString(obj.Key),
				Size: aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			result.Objects = append(result.Objects, info)
		}

		if !aws.ToBool(output.IsTruncated) || output.NextContinuationToken == nil {
			break
		}
		input.ContinuationToken = output.NextContinuationToken
	}

	return result, nil
}

func (g *S3Gateway) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := g.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", classify("presign get", err)
	}
	return req.URL, nil
}

func (g *S3Gateway) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	req, err := g.presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", classify("presign put", err)
	}
	return req.URL, nil
}

func (g *S3Gateway) Copy(ctx context.Context, fromKey, toKey string) error {
	source := url.PathEscape(fmt.Sprintf("%s/%s", g.bucket, fromKey))
	_, err := g.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(g.bucket),
		Key:        aws.String(toKey),
		CopySource: aws.String(source),
	})
	if err != nil {
		return classify("copy object", err)
	}
	return nil
}

func (g *S3Gateway) Delete(ctx context.Context, key string) error {
	_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		// S3 deletes of absent keys already succeed; a tagged NotFound from a
		// stricter backend keeps the operation idempotent anyway.
		tagged := classify("delete object", err)
		if errors.Is(tagged, ErrNotFound) {
			return nil
		}
		return tagged
	}
	return nil
}

func (g *S3Gateway) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		tagged := classify("head object", err)
		if errors.Is(tagged, ErrNotFound) {
			return false, nil
		}
		return false, tagged
	}
	return true, nil
}

func (g *S3Gateway) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
		Body:   body,
		ACL:    types.ObjectCannedACLPrivate,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := g.uploader.Upload(ctx, input); err != nil {
		return classify("upload object", err)
	}
	return nil
}

var _ Gateway = (*S3Gateway)(nil)

// classify maps backend failures onto the tagged gateway errors so raw
// transport errors never cross this boundary.
func classify(op string, err error) error {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket", "404":
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return fmt.Errorf("%s: %s: %w", op, apiErr.ErrorCode(), ErrAccessDenied)
		}
		return fmt.Errorf("%s: %s: %w", op, apiErr.ErrorCode(), ErrTransient)
	}

	return fmt.Errorf("%s: %v: %w", op, err, ErrTransient)
}
