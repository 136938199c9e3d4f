package keys

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "Intro Lesson.mp3", want: "Intro Lesson.mp3"},
		{in: "  padded.pdf  ", want: "padded.pdf"},
		{in: "a/b\\c.pdf", want: "abc.pdf"},
		{in: `bad<>:"\|?*name.mp3`, want: "badname.mp3"},
		{in: "tabs\tand\n newlines", want: "tabs and newlines"},
		{in: "double  spaced   name", want: "double spaced name"},
		{in: "Ύμνος Κυριακής.mp3", want: "Ύμνος Κυριακής.mp3"},
		{in: "ctrl\x00\x1fchars.m4a", want: "ctrlchars.m4a"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeFilename(tc.in), "input %q", tc.in)
	}
}

func TestSanitizeFilenameNeverEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "///", `<>:"\|?*`, "\x00\x01"} {
		got := SanitizeFilename(in)
		assert.True(t, strings.HasPrefix(got, "file-"), "input %q produced %q", in, got)
		assert.Greater(t, len(got), len("file-"))
	}
}

func TestBuildKeyDecodeRoundTrip(t *testing.T) {
	parts := []string{"lessons", "2025", "Lesson 01", "podcasts"}
	const ts = int64(1700000000000)

	key := BuildKey(parts, ts, "Intro Lesson.mp3")
	require.Equal(t, "lessons/2025/Lesson 01/podcasts/1700000000000-Intro Lesson.mp3", key)

	gotParts, gotTS, gotName := Decode(key)
	assert.Equal(t, parts, gotParts)
	assert.Equal(t, ts, gotTS)
	assert.Equal(t, "Intro Lesson.mp3", gotName)
}

func TestBuildKeyDropsEmptySegments(t *testing.T) {
	key := BuildKey([]string{"", "pdfs", " ", "..", "2025"}, 1, "x.pdf")
	assert.Equal(t, "pdfs/2025/1-x.pdf", key)
}

func TestBuildKeySanitizesSegments(t *testing.T) {
	key := BuildKey([]string{"les/sons", "20 25"}, 42, "a.pdf")
	assert.Equal(t, "lessons/20 25/42-a.pdf", key)
}

func TestDecodeWithoutTimestampPrefix(t *testing.T) {
	parts, ts, name := Decode("pdfs/plain.pdf")
	assert.Equal(t, []string{"pdfs"}, parts)
	assert.Zero(t, ts)
	assert.Equal(t, "plain.pdf", name)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		key  string
		want Category
	}{
		{key: "podcasts/2024-01-01/x.mp3", want: Audio},
		{key: "pdfs/x.pdf", want: Document},
		{key: "notes/x.txt", want: Unknown},
		{key: "anything/else.m4a", want: Audio},
		{key: "anything/else.aac", want: Audio},
		{key: "Podcasts/legacy-format", want: Audio},
		{key: "audio/old upload", want: Audio},
		{key: "documents/scan", want: Document},
		{key: "PDFS/UPPER.PDF", want: Document},
		{key: "lessons/2025/x", want: Unknown},
		{key: "", want: Unknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.key), "key %q", tc.key)
	}
}

func TestCategoryRoot(t *testing.T) {
	root, ok := CategoryRoot(Audio)
	require.True(t, ok)
	assert.Equal(t, "podcasts", root)

	root, ok = CategoryRoot(Document)
	require.True(t, ok)
	assert.Equal(t, "pdfs", root)

	_, ok = CategoryRoot(Unknown)
	assert.False(t, ok)
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		key  string
		want string
	}{
		{key: "pdfs/1700000000000-old.pdf", want: "old.pdf"},
		{key: "podcasts/1700000050000-a b.m4a", want: "a b.m4a"},
		{key: "pdfs/no-timestamp.pdf", want: "no-timestamp.pdf"},
		{key: "plain.mp3", want: "plain.mp3"},
		{key: "pdfs/1700000000000-", want: "1700000000000-"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DisplayName(tc.key), "key %q", tc.key)
	}
}

func TestFolderOf(t *testing.T) {
	assert.Equal(t, "lessons/2025", FolderOf("lessons/2025/1-x.pdf"))
	assert.Equal(t, "", FolderOf("x.pdf"))
}
