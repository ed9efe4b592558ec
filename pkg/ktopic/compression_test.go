package ktopic

import (
	"bytes"
	"io"
	"testing"
)

func TestResolveCompression(t *testing.T) {
	cases := []struct {
		topic, client, want CompressionCodec
	}{
		{CompressionGzip, CompressionSnappy, CompressionGzip},
		{CompressionInherit, CompressionSnappy, CompressionSnappy},
		{CompressionInherit, CompressionInherit, CompressionNone},
	}
	for _, c := range cases {
		if got := ResolveCompression(c.topic, c.client); got != c.want {
			t.Errorf("ResolveCompression(%v, %v) = %v, want %v", c.topic, c.client, got, c.want)
		}
	}
}

func TestCompressionRoundTrip(t *testing.T) {
	for _, codec := range []CompressionCodec{CompressionNone, CompressionGzip, CompressionSnappy, CompressionLz4} {
		var buf bytes.Buffer
		w, err := NewCompressionWriter(&buf, codec)
		if err != nil {
			t.Fatalf("%v: NewCompressionWriter: %v", codec, err)
		}
		payload := []byte("the quick brown fox jumps over the lazy dog")
		if _, err := w.Write(payload); err != nil {
			t.Fatalf("%v: Write: %v", codec, err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("%v: Close: %v", codec, err)
		}

		r, err := NewCompressionReader(&buf, codec)
		if err != nil {
			t.Fatalf("%v: NewCompressionReader: %v", codec, err)
		}
		got, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("%v: ReadAll: %v", codec, err)
		}
		r.Close()
		if !bytes.Equal(got, payload) {
			t.Errorf("%v: round trip got %q, want %q", codec, got, payload)
		}
	}
}

func TestCompressionUnknownCodec(t *testing.T) {
	if _, err := NewCompressionWriter(&bytes.Buffer{}, CompressionCodec(99)); err == nil {
		t.Fatal("expected error for unknown compression codec")
	}
}
