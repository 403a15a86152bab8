package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"venue-recommender/internal/index"
	"venue-recommender/internal/shared/telemetry"
)

type fakeIndexer struct {
	path      string
	requestID string
	err       error
}

func (f *fakeIndexer) IndexDataset(ctx context.Context, path string) (index.Result, error) {
	f.path = path
	f.requestID = telemetry.RequestIDFromContext(ctx)
	if f.err != nil {
		return index.Result{}, f.err
	}
	return index.Result{Success: true, TotalDocuments: 490, Skipped: 10}, nil
}

func TestParseMessage(t *testing.T) {
	body, _ := EncodeMessage(Message{JobID: "job-1", Path: "events_history.json", RequestID: "req-1", Version: MessageVersion})

	msg, meta, err := ParseMessage(string(body))
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if msg.Path != "events_history.json" || meta.BodyLen != len(body) || len(meta.BodySHA) != 64 {
		t.Fatalf("unexpected parse %+v %+v", msg, meta)
	}

	if _, _, err := ParseMessage("  "); !errors.As(err, new(ErrEmptyBody)) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
	if _, _, err := ParseMessage("{bad-json"); !errors.As(err, new(ErrDecode)) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	var missing ErrMissingPath
	if _, _, err := ParseMessage(`{"jobId":"job-2","requestId":"req-2"}`); !errors.As(err, &missing) || missing.JobID != "job-2" {
		t.Fatalf("expected ErrMissingPath for job-2, got %v", err)
	}
}

func TestHandleMessage(t *testing.T) {
	body, _ := EncodeMessage(Message{JobID: "job-1", Path: "s3://venue-data/events.json", RequestID: "req-1"})
	idx := &fakeIndexer{}

	res, err := HandleMessage(context.Background(), idx, string(body))
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if res.TotalDocuments != 490 || idx.path != "s3://venue-data/events.json" || idx.requestID != "req-1" {
		t.Fatalf("unexpected handling %+v path=%s req=%s", res, idx.path, idx.requestID)
	}

	parsed := Message{JobID: "job-3", Path: "from-context.json"}
	if _, err := HandleMessage(WithParsedMessage(context.Background(), parsed), idx, "ignored"); err != nil {
		t.Fatalf("HandleMessage with parsed message: %v", err)
	}
	if idx.path != "from-context.json" {
		t.Fatalf("expected parsed message reuse, got %s", idx.path)
	}

	boom := errors.New("index unavailable")
	_, err = HandleMessage(context.Background(), &fakeIndexer{err: boom}, string(body))
	var procErr ErrProcess
	if !errors.As(err, &procErr) || procErr.JobID != "job-1" || !errors.Is(err, boom) {
		t.Fatalf("expected ErrProcess wrapping the cause, got %v", err)
	}

	if _, err := HandleMessage(context.Background(), nil, string(body)); err == nil {
		t.Fatalf("expected error without an indexer")
	}
}

type fakeSender struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSender) SendMessage(ctx context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = in
	return &sqs.SendMessageOutput{}, f.err
}

func TestSQSClientSend(t *testing.T) {
	fake := &fakeSender{}
	c := &SQSClient{client: fake, queueURL: "https://sqs.us-east-1.amazonaws.com/123/index-jobs"}

	if err := c.Send(context.Background(), Message{JobID: "job-1", Path: "events.json"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if aws.ToString(fake.input.QueueUrl) != c.queueURL {
		t.Fatalf("unexpected queue url %s", aws.ToString(fake.input.QueueUrl))
	}
	msg, err := DecodeMessage([]byte(aws.ToString(fake.input.MessageBody)))
	if err != nil || msg.JobID != "job-1" {
		t.Fatalf("unexpected body %q: %v", aws.ToString(fake.input.MessageBody), err)
	}

	fake.err = errors.New("throttled")
	if err := c.Send(context.Background(), Message{JobID: "job-2"}); err == nil {
		t.Fatalf("expected send error")
	}
}
