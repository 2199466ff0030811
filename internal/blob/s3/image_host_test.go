package s3blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/timedrop/tdadmin/internal/domain"
)

type fakeUploader struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeUploader) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	b, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, b)
	if f.err != nil {
		return nil, f.err
	}
	return &manager.UploadOutput{}, nil
}

func newTestHost(up uploader) *ImageHost {
	return &ImageHost{
		up:         up,
		bucket:     "images",
		publicBase: "https://cdn.example.com",
		newID:      func() string { return "fixed-id" },
	}
}

func TestUploadReturnsPublicURL(t *testing.T) {
	up := &fakeUploader{}
	h := newTestHost(up)

	url, err := h.Upload(context.Background(), "Rain.PNG", strings.NewReader("pngdata"), "image/png")
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://cdn.example.com/markets/fixed-id.png" {
		t.Fatalf("url = %s", url)
	}
	in := up.inputs[0]
	if aws.ToString(in.Bucket) != "images" || aws.ToString(in.Key) != "markets/fixed-id.png" || aws.ToString(in.ContentType) != "image/png" {
		t.Fatalf("input = %+v", in)
	}
	if string(up.bodies[0]) != "pngdata" {
		t.Fatalf("body = %q", up.bodies[0])
	}
}

func TestUploadRejectsInvalidImages(t *testing.T) {
	tests := []struct {
		name        string
		body        []byte
		contentType string
	}{
		{"not an image", []byte("x"), "application/pdf"},
		{"garbage type", []byte("x"), ";;"},
		{"too large", bytes.Repeat([]byte{1}, int(domain.MaxImageSize)+1), "image/jpeg"},
		{"empty", nil, "image/jpeg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &fakeUploader{}
			_, err := newTestHost(up).Upload(context.Background(), "a.jpg", bytes.NewReader(tt.body), tt.contentType)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("err = %v", err)
			}
			if len(up.inputs) != 0 {
				t.Fatal("invalid image was uploaded")
			}
		})
	}
}

func TestUploadExactlyMaxSize(t *testing.T) {
	up := &fakeUploader{}
	body := bytes.Repeat([]byte{1}, int(domain.MaxImageSize))
	if _, err := newTestHost(up).Upload(context.Background(), "a.jpg", bytes.NewReader(body), "image/jpeg"); err != nil {
		t.Fatal(err)
	}
}

func TestUploadError(t *testing.T) {
	up := &fakeUploader{err: errors.New("access denied")}
	_, err := newTestHost(up).Upload(context.Background(), "a.gif", strings.NewReader("g"), "image/gif")
	if err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Fatalf("err = %v", err)
	}
}

func TestObjectKeyExtensionFallback(t *testing.T) {
	if got := ObjectKey("id", "photo", "image/png"); got != "markets/id.png" {
		t.Fatalf("key = %s", got)
	}
	if got := ObjectKey("id", "photo", "image/x-unknown-kind"); got != "markets/id" {
		t.Fatalf("key = %s", got)
	}
}

func TestNormaliseEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		ssl  bool
		want string
	}{
		{"https://e2.example.com", false, "https://e2.example.com"},
		{"e2.example.com", false, "http://e2.example.com"},
		{"r2.example.com", true, "https://r2.example.com"},
	}
	for _, tt := range tests {
		if got := normaliseEndpoint(tt.in, tt.ssl); got != tt.want {
			t.Errorf("normaliseEndpoint(%q, %v) = %q, want %q", tt.in, tt.ssl, got, tt.want)
		}
	}
}
