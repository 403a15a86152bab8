package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "datasets/events.json", want: "datasets/events.json"},
		{name: "simple prefix", prefix: "root", key: "datasets/events.json", want: "root/datasets/events.json"},
		{name: "prefix trailing slash", prefix: "root/", key: "datasets/events.json", want: "root/datasets/events.json"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/datasets/events.json", want: "root/datasets/events.json"},
		{name: "nested prefix", prefix: "root/sub", key: "datasets/events.json", want: "root/sub/datasets/events.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestParseURL(t *testing.T) {
	bucket, key, err := ParseURL("s3://venue-data/history/events.json")
	if err != nil || bucket != "venue-data" || key != "history/events.json" {
		t.Fatalf("unexpected parse %q %q %v", bucket, key, err)
	}
	for _, bad := range []string{"s3://", "s3://bucket", "s3://bucket/", "s3:///key"} {
		if _, _, err := ParseURL(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

type fakeGetter struct {
	bucket, key string
	err         error
}

func (f *fakeGetter) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket, f.key = aws.ToString(in.Bucket), aws.ToString(in.Key)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("[]"))}, nil
}

func TestOpenResolvesKeys(t *testing.T) {
	fake := &fakeGetter{}
	store := &Store{client: fake, bucket: "default", prefix: "datasets"}

	rc, err := store.Open(context.Background(), "events.json")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = rc.Close()
	if fake.bucket != "default" || fake.key != "datasets/events.json" {
		t.Fatalf("unexpected target %s/%s", fake.bucket, fake.key)
	}

	if _, err := store.Open(context.Background(), "s3://other/venues.json"); err != nil {
		t.Fatalf("Open url: %v", err)
	}
	if fake.bucket != "other" || fake.key != "venues.json" {
		t.Fatalf("unexpected url target %s/%s", fake.bucket, fake.key)
	}

	fake.err = errors.New("access denied")
	if _, err := store.Open(context.Background(), "events.json"); err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Fatalf("expected wrapped error, got %v", err)
	}

	if _, err := (&Store{client: fake}).Open(context.Background(), "events.json"); err == nil {
		t.Fatalf("expected error without a bucket")
	}
}
