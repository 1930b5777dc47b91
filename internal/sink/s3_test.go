package sink

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"countries-go/internal/directory"
)

// fakeS3 stores objects in memory and pages listings two keys at a time.
type fakeS3 struct {
	bucket  string
	objects map[string][]byte
}

func newFakeS3(bucket string) *fakeS3 {
	return &fakeS3{bucket: bucket, objects: make(map[string][]byte)}
}

func (f *fakeS3) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if aws.ToString(in.Bucket) != f.bucket {
		return nil, errors.New("no such bucket")
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != aws.ToInt64(in.ContentLength) {
		return nil, errors.New("content length mismatch")
	}
	f.objects[aws.ToString(in.Key)] = data
	return &manager.UploadOutput{Key: in.Key}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if aws.ToString(in.Bucket) != f.bucket {
		return nil, &types.NotFound{}
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	start := 0
	if in.ContinuationToken != nil {
		start = slices.Index(keys, aws.ToString(in.ContinuationToken))
	}
	end := min(start+2, len(keys))

	out := &s3.ListObjectsV2Output{}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	if end < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[end])
	}
	return out, nil
}

func TestS3Sink(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3("bucket")
	s := newS3Sink("remote", "bucket", "/team/countries/", fake, fake)

	for _, key := range []string{"exports/c.json", "exports/a.json", "exports/b.json.age"} {
		if err := s.Put(ctx, key, strings.NewReader(key), int64(len(key))); err != nil {
			t.Fatalf("Put(%s) error = %v", key, err)
		}
	}

	t.Run("objects live under the prefix", func(t *testing.T) {
		if _, ok := fake.objects["team/countries/exports/a.json"]; !ok {
			t.Errorf("object keys = %v, want team/countries/ prefix", fake.objects)
		}
	})

	t.Run("get round trips", func(t *testing.T) {
		var buf bytes.Buffer
		if err := s.Get(ctx, "exports/b.json.age", &buf); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if buf.String() != "exports/b.json.age" {
			t.Errorf("Get() = %q", buf.String())
		}
	})

	t.Run("missing key is ErrNotFound", func(t *testing.T) {
		err := s.Get(ctx, "exports/zzz.json", io.Discard)
		if !errors.Is(err, directory.ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("list pages and strips prefix", func(t *testing.T) {
		keys, err := s.List(ctx, "exports/")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		want := []string{"exports/a.json", "exports/b.json.age", "exports/c.json"}
		if !slices.Equal(keys, want) {
			t.Errorf("List() = %v, want %v", keys, want)
		}
	})

	t.Run("validate checks bucket", func(t *testing.T) {
		if err := s.ValidateSetup(ctx); err != nil {
			t.Errorf("ValidateSetup() error = %v", err)
		}
		other := newS3Sink("remote", "missing", "", fake, fake)
		if err := other.ValidateSetup(ctx); err == nil {
			t.Error("ValidateSetup() expected error for missing bucket")
		}
	})
}

func TestS3Sink_objectKey(t *testing.T) {
	tests := []struct {
		prefix string
		key    string
		want   string
	}{
		{prefix: "", key: "exports/a.json", want: "exports/a.json"},
		{prefix: "p", key: "exports/a.json", want: "p/exports/a.json"},
		{prefix: "p/", key: "exports/", want: "p/exports/"},
		{prefix: "p", key: "", want: "p/"},
	}

	for _, tt := range tests {
		s := newS3Sink("n", "b", tt.prefix, nil, nil)
		if got := s.objectKey(tt.key); got != tt.want {
			t.Errorf("objectKey(%q) with prefix %q = %q, want %q", tt.key, tt.prefix, got, tt.want)
		}
	}
}
