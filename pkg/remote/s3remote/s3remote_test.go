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

package s3remote

import (
	"flag"
	"strings"
	"testing"

	"github.com/eyecan-ai/pipelime-sub000/internal/remotetest"
	"github.com/eyecan-ai/pipelime-sub000/pkg/remote"
)

// Flag-gated against a live bucket, the same discipline perkeep's
// pkg/blobserver/s3 test uses: skip unless real credentials and a
// disposable bucket are supplied, never hit AWS by default.
var (
	s3Key    = flag.String("s3_key", "", "AWS access Key ID")
	s3Secret = flag.String("s3_secret", "", "AWS access secret")
	s3Bucket = flag.String("s3_bucket", "", "bucket name to use for testing; must begin with 'pipelime-' and end in '-test'; skipped if empty")
)

func TestS3remoteConformance(t *testing.T) {
	if *s3Bucket == "" || *s3Key == "" || *s3Secret == "" {
		t.Skip("skipping: -s3_key, -s3_secret, and -s3_bucket were not all provided")
	}
	if !strings.HasPrefix(*s3Bucket, "pipelime-") || !strings.HasSuffix(*s3Bucket, "-test") {
		t.Fatalf("bogus bucket name %q; must begin with 'pipelime-' and end in '-test'", *s3Bucket)
	}

	remotetest.TestOpts(t, remotetest.Opts{
		BasePath: *s3Bucket,
		New: func(t *testing.T) (remote.Remote, func()) {
			b, err := New(map[string]interface{}{
				"access_key": *s3Key,
				"secret_key": *s3Secret,
			})
			if err != nil {
				t.Fatal(err)
			}
			return b, nil
		},
	})
}
