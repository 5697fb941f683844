package generate

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Sunset Over Mountains", "sunset-over-mountains"},
		{"  Hello, World!  ", "hello-world"},
		{"already-slugged", "already-slugged"},
		{"MiXeD CaSe 123", "mixed-case-123"},
		{"!!!", "untitled"},
		{"", "untitled"},
	}
	for _, c := range cases {
		if got := slugify(c.in); got != c.want {
			t.Errorf("slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestExtensionFor(t *testing.T) {
	cases := map[string]string{
		"image/png":  ".png",
		"image/jpeg": ".jpg",
		"audio/mpeg": ".mp3",
		"audio/wav":  ".wav",
	}
	for mediaType, want := range cases {
		if got := extensionFor(mediaType); got != want {
			t.Errorf("extensionFor(%q) = %q, want %q", mediaType, got, want)
		}
	}
}
