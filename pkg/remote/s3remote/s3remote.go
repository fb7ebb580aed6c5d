/*
Copyright 2024 The Pipelime Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package s3remote implements the "s3" scheme remote backend (spec
// §4.2/§6) using the classic AWS SDK, the same dependency perkeep's
// pkg/blobserver/s3 storage type is built on. The per-bucket hash
// algorithm is persisted as the bucket tag "__HASH_FN__" instead of the
// fileremote package's sidecar JSON file.
package s3remote

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/eyecan-ai/pipelime-sub000/pkg/blob"
	"github.com/eyecan-ai/pipelime-sub000/pkg/remote"
)

const hashTagKey = "__HASH_FN__"

// Backend is the "s3" scheme Remote implementation. base_path is
// interpreted as "<bucket>[/<prefix>]", matching perkeep's s3Storage
// dirPrefix convention (pkg/blobserver/s3/s3.go).
type Backend struct {
	client *s3.S3
	region string
}

// New returns a Backend using an AWS session built from opts, which may
// set "region", "endpoint", "access_key", "secret_key" (decoded from the
// remote URL's query options, spec §6).
func New(opts map[string]interface{}) (*Backend, error) {
	cfg := aws.NewConfig()
	if region, ok := opts["region"].(string); ok && region != "" {
		cfg = cfg.WithRegion(region)
	}
	if endpoint, ok := opts["endpoint"].(string); ok && endpoint != "" {
		cfg = cfg.WithEndpoint(endpoint).WithS3ForcePathStyle(true)
	}
	if accessKey, ok := opts["access_key"].(string); ok && accessKey != "" {
		secretKey, _ := opts["secret_key"].(string)
		cfg = cfg.WithCredentials(credentials.NewStaticCredentials(accessKey, secretKey, ""))
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("s3remote: creating session: %w", err)
	}
	region, _ := opts["region"].(string)
	return &Backend{client: s3.New(sess), region: region}, nil
}

// Factory adapts New to remote.Factory for registration under the "s3" scheme.
func Factory(_ string, opts map[string]interface{}) (remote.Remote, error) {
	return New(opts)
}

func splitBucket(basePath string) (bucket, prefix string) {
	for i := 0; i < len(basePath); i++ {
		if basePath[i] == '/' {
			return basePath[:i], basePath[i+1:]
		}
	}
	return basePath, ""
}

func key(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// BucketHashAlgorithm implements remote.HashAlgorithm via S3 bucket tags
// (spec §4.2/§6's "__HASH_FN__" bucket tag). Tolerates a concurrent
// first-uploader by retrying the read on a conflicting PutBucketTagging.
func (b *Backend) BucketHashAlgorithm(ctx context.Context, basePath string) (blob.Algorithm, error) {
	bucket, _ := splitBucket(basePath)

	out, err := b.client.GetBucketTaggingWithContext(ctx, &s3.GetBucketTaggingInput{Bucket: aws.String(bucket)})
	if err == nil {
		for _, t := range out.TagSet {
			if aws.StringValue(t.Key) == hashTagKey {
				return blob.Algorithm(aws.StringValue(t.Value)), nil
			}
		}
	}

	algo := blob.DefaultAlgorithm
	_, putErr := b.client.PutBucketTaggingWithContext(ctx, &s3.PutBucketTaggingInput{
		Bucket: aws.String(bucket),
		Tagging: &s3.Tagging{
			TagSet: []*s3.Tag{{Key: aws.String(hashTagKey), Value: aws.String(string(algo))}},
		},
	})
	if putErr != nil {
		// Someone else may have set it first; re-read rather than fail.
		out, rerr := b.client.GetBucketTaggingWithContext(ctx, &s3.GetBucketTaggingInput{Bucket: aws.String(bucket)})
		if rerr != nil {
			return "", fmt.Errorf("s3remote: setting bucket hash tag on %q: %w", bucket, putErr)
		}
		for _, t := range out.TagSet {
			if aws.StringValue(t.Key) == hashTagKey {
				return blob.Algorithm(aws.StringValue(t.Value)), nil
			}
		}
	}
	return algo, nil
}

// UploadStream implements remote.Remote.
func (b *Backend) UploadStream(ctx context.Context, r io.Reader, _ int64, basePath, suffix string) (remote.URL, error) {
	bucket, prefix := splitBucket(basePath)

	algo, err := b.BucketHashAlgorithm(ctx, basePath)
	if err != nil {
		return remote.URL{}, err
	}

	staged, ref, err := remote.Stage(r, algo)
	if err != nil {
		return remote.URL{}, fmt.Errorf("s3remote: staging upload: %w", err)
	}
	defer remote.CleanupStaged(staged)

	name := ref.Digest + suffix
	_, err = b.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key(prefix, name)),
		Body:   staged,
	})
	if err != nil {
		return remote.URL{}, fmt.Errorf("s3remote: PutObject %s/%s: %w", bucket, name, err)
	}

	return remote.URL{Scheme: "s3", Netloc: b.region, BasePath: basePath + "/" + name}, nil
}

// DownloadStream implements remote.Remote, using an HTTP Range request for
// resumable downloads (spec §4.2's offset-based resume).
func (b *Backend) DownloadStream(ctx context.Context, w io.Writer, basePath, name string, offset int64) (bool, error) {
	bucket, prefix := splitBucket(basePath)
	in := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key(prefix, name)),
	}
	if offset > 0 {
		in.Range = aws.String(fmt.Sprintf("bytes=%d-", offset))
	}
	out, err := b.client.GetObjectWithContext(ctx, in)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("s3remote: GetObject %s/%s: %w", bucket, name, err)
	}
	defer out.Body.Close()
	if _, err := io.Copy(w, out.Body); err != nil {
		return false, fmt.Errorf("s3remote: reading object body: %w", err)
	}
	return true, nil
}

func isNotFound(err error) bool {
	return bytes.Contains([]byte(err.Error()), []byte("NoSuchKey")) ||
		bytes.Contains([]byte(err.Error()), []byte("NotFound"))
}

// IsValid implements remote.Remote.
func (b *Backend) IsValid() bool {
	return b.client != nil
}

var _ remote.Remote = (*Backend)(nil)
var _ remote.HashAlgorithm = (*Backend)(nil)
