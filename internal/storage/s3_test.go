package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, handler http.Handler) (*S3Gateway, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
		Region:       "us-east-1",
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "test", SecretAccessKey: "test"}, nil
		}),
	})
	return NewS3Gateway(client, "test-bucket"), srv
}

func TestListPrefixFollowsContinuationTokens(t *testing.T) {
	var calls int
	gateway, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/xml")
		if r.URL.Query().Get("continuation-token") == "" {
			fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult>
	<Name>test-bucket</Name>
	<IsTruncated>true</IsTruncated>
	<NextContinuationToken>page2</NextContinuationToken>
	<Contents>
		<Key>pdfs/1700000000000-a.pdf</Key>
		<Size>10</Size>
		<LastModified>2024-01-01T00:00:00Z</LastModified>
	</Contents>
	<CommonPrefixes><Prefix>pdfs/sub/</Prefix></CommonPrefixes>
</ListBucketResult>`)
			return
		}
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult>
	<Name>test-bucket</Name>
	<IsTruncated>false</IsTruncated>
	<Contents>
		<Key>pdfs/1700000050000-b.pdf</Key>
		<Size>20</Size>
		<LastModified>2024-01-02T00:00:00Z</LastModified>
	</Contents>
</ListBucketResult>`)
	}))

	result, err := gateway.ListPrefix(context.Background(), "pdfs/", "/")
	require.NoError(t, err)

	assert.Equal(t, 2, calls, "both pages must be fetched")
	require.Len(t, result.Objects, 2)
	assert.Equal(t, "pdfs/1700000000000-a.pdf", result.Objects[0].Key)
	assert.Equal(t, "pdfs/1700000050000-b.pdf", result.Objects[1].Key)
	assert.Equal(t, []string{"pdfs/sub/"}, result.CommonPrefixes)
}

func TestExistsReportsMissingKeyAsFalse(t *testing.T) {
	gateway, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	exists, err := gateway.Exists(context.Background(), "pdfs/gone.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPresignGetEmbedsKeyAndExpiry(t *testing.T) {
	gateway, _ := newTestGateway(t, http.NotFoundHandler())

	url, err := gateway.PresignGet(context.Background(), "pdfs/a.pdf", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, url, "pdfs/a.pdf")
}

func TestClassifyNotFound(t *testing.T) {
	cases := []error{
		&types.NoSuchKey{},
		&types.NotFound{},
		&smithy.GenericAPIError{Code: "NoSuchKey", Message: "key absent"},
		&smithy.GenericAPIError{Code: "NotFound", Message: "404"},
	}
	for _, cause := range cases {
		err := classify("head object", cause)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NotErrorIs(t, err, ErrTransient)
	}
}

func TestClassifyAccessDenied(t *testing.T) {
	err := classify("copy object", &smithy.GenericAPIError{Code: "AccessDenied", Message: "no"})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestClassifyUnknownAPIErrorIsTransient(t *testing.T) {
	err := classify("list objects", &smithy.GenericAPIError{Code: "SlowDown", Message: "throttled"})
	assert.ErrorIs(t, err, ErrTransient)
}

func TestClassifyTransportErrorIsTransient(t *testing.T) {
	err := classify("list objects", errors.New("dial tcp: connection refused"))
	assert.ErrorIs(t, err, ErrTransient)
	assert.Contains(t, err.Error(), "connection refused")
}
