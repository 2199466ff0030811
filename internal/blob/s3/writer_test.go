package s3blob

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
)

func TestWriterPut(t *testing.T) {
	up := &fakeUploader{}
	w := &Writer{up: up, bucket: "archive"}

	if err := w.Put(context.Background(), "archive/audit/x.jsonl", strings.NewReader("{}\n"), "application/x-ndjson"); err != nil {
		t.Fatal(err)
	}
	in := up.inputs[0]
	if aws.ToString(in.Bucket) != "archive" || aws.ToString(in.Key) != "archive/audit/x.jsonl" || aws.ToString(in.ContentType) != "application/x-ndjson" {
		t.Fatalf("input = %+v", in)
	}
	if string(up.bodies[0]) != "{}\n" {
		t.Fatalf("body = %q", up.bodies[0])
	}

	up.err = errors.New("slow down")
	if err := w.Put(context.Background(), "k", strings.NewReader(""), "text/plain"); err == nil || !strings.Contains(err.Error(), "put k") {
		t.Fatalf("err = %v", err)
	}
}
