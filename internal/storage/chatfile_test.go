package storage

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewChatFile(t *testing.T) {
	t.Parallel()

	f := NewChatFile(1, "test.txt", []byte("hello"))
	require.Equal(t, "txt", f.Ext)
	require.Equal(t, "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d", f.Hash)
	require.Equal(t, HashContent([]byte("hello")), f.Hash)
}

func TestFileExt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
	}{
		{"photo.png", "png"},
		{"archive.tar.gz", "gz"},
		{"noext", "txt"},
		{"trailing.", ""},
		{".bashrc", "bashrc"},
		{"dir.d/readme", "txt"},
		{`C:\Users\me\cat.jpeg`, "jpeg"},
		{"notes.md?x", "txt"},
		{"a.50%", "txt"},
		{"a.#frag", "txt"},
		{"report.tar gz", "txt"},
		{"clip.mp4-hd_2", "mp4-hd_2"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, FileExt(tc.name), tc.name)
	}
}

func TestChatFile_URL(t *testing.T) {
	t.Parallel()

	f := NewChatFile(7, "a.png", []byte("hello"))
	require.Equal(t, "7/aaf4c6/1ddcc5/e8a2dabede0f3b482cd9aea9434d.png", f.PathSegments())
	require.Equal(t, "/files/7/aaf4c6/1ddcc5/e8a2dabede0f3b482cd9aea9434d.png", f.URL())
}

func TestParseURL_RoundTrip(t *testing.T) {
	t.Parallel()

	files := []ChatFile{
		NewChatFile(1, "hello.txt", []byte("hello")),
		NewChatFile(42, "noext", []byte("")),
		NewChatFile(9_000_000_000, "trailing.", []byte{0, 1, 2}),
		NewChatFile(0, "x.JPEG", []byte("upper ext")),
	}
	for _, f := range files {
		got, err := ParseURL(f.URL())
		require.NoError(t, err, f.URL())
		require.Equal(t, f, got)
	}
}

func TestParseURL_Malformed(t *testing.T) {
	t.Parallel()

	urls := []string{
		"/files/1/ab",
		"/static/1/aaf4c6/1ddcc5/e8a2dabede0f3b482cd9aea9434d.txt",
		"files/1/aaf4c6/1ddcc5/e8a2dabede0f3b482cd9aea9434d.txt",
		"/files/-1/aaf4c6/1ddcc5/e8a2dabede0f3b482cd9aea9434d.txt",
		"/files/ws/aaf4c6/1ddcc5/e8a2dabede0f3b482cd9aea9434d.txt",
		"/files/1/aaf4c6/1ddcc5/e8a2dabede0f3b482cd9aea9434d",
		"/files/1/aaf4c6/1ddcc5/e8a2dabede0f3b482cd9aea9434d.tar.gz",
		"/files/1/aaf4c6/1ddcc5/e8a2dabede0f3b482cd9aea9434d.txt/extra",
		"/files/1/aaf4/c61ddcc5/e8a2dabede0f3b482cd9aea9434d.txt",
		"/files/1/AAF4C6/1ddcc5/e8a2dabede0f3b482cd9aea9434d.txt",
		"/files/1/../../etc/passwd.txt",
	}
	for _, u := range urls {
		_, err := ParseURL(u)
		var cfe *ChatFileError
		require.True(t, errors.As(err, &cfe), "want ChatFileError for %q, got %v", u, err)
	}
}

func TestParseURL_RejectsUnsafeExt(t *testing.T) {
	t.Parallel()

	base := "/files/1/aaf4c6/1ddcc5/e8a2dabede0f3b482cd9aea9434d."
	for _, ext := range []string{"md?x", "50%", "a b", "x#y"} {
		_, err := ParseURL(base + ext)
		var cfErr *ChatFileError
		require.ErrorAs(t, err, &cfErr, ext)
	}
}

func TestChatFileValidate(t *testing.T) {
	require.NoError(t, NewChatFile(3, "a.png", []byte("x")).Validate())
	require.NoError(t, NewChatFile(3, "noext.", []byte("x")).Validate())

	good := NewChatFile(3, "a.png", []byte("x"))
	for _, f := range []ChatFile{
		{WorkspaceID: 3, Ext: "png", Hash: "../../etc"},
		{WorkspaceID: 3, Ext: "png", Hash: strings.ToUpper(good.Hash)},
		{WorkspaceID: 3, Ext: "../png", Hash: good.Hash},
		{WorkspaceID: -1, Ext: "png", Hash: good.Hash},
	} {
		var cfErr *ChatFileError
		require.ErrorAs(t, f.Validate(), &cfErr, "%+v", f)
	}
}
