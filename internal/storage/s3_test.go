package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// fakeS3 is an in-memory S3Client.
type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*params.Key] = data
	f.types[*params.Key] = aws.ToString(params.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*params.Key]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "key not found"}
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: aws.String(f.types[*params.Key]),
	}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3PutGetRoundTrip(t *testing.T) {
	store := NewS3WithClient(newFakeS3(), "bucket")
	ctx := context.Background()

	if err := store.Put(ctx, "uploads/u/a.png", []byte("png"), "image/png"); err != nil {
		t.Fatal(err)
	}
	rc, contentType, err := store.Get(ctx, "uploads/u/a.png")
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "png" {
		t.Fatalf("expected 'png', got %q", data)
	}
	if contentType != "image/png" {
		t.Fatalf("expected image/png, got %q", contentType)
	}
}

func TestS3GetMissingKey(t *testing.T) {
	store := NewS3WithClient(newFakeS3(), "bucket")

	_, _, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestS3Remove(t *testing.T) {
	client := newFakeS3()
	store := NewS3WithClient(client, "bucket")
	ctx := context.Background()

	if err := store.Put(ctx, "a", []byte("x"), "text/plain"); err != nil {
		t.Fatal(err)
	}
	if err := store.Remove(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, ok := client.objects["a"]; ok {
		t.Fatal("object should be gone")
	}

	// Removing a missing key is not an error.
	if err := store.Remove(ctx, "a"); err != nil {
		t.Fatal(err)
	}
}

func TestFileURL(t *testing.T) {
	if got := FileURL("uploads/u/a.png"); got != "/api/files/uploads/u/a.png" {
		t.Fatalf("unexpected url %q", got)
	}
}
