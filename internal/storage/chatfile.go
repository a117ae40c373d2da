package storage

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultExt is used for filenames without a dot.
	DefaultExt = "txt"
	URLPrefix  = "/files/"

	hashLen = 40
	seg1Len = 6
	seg2Len = 6
)

// ChatFile addresses an uploaded attachment by workspace, content hash and
// extension. Hash is the lowercase hex SHA-1 of the bytes.
type ChatFile struct {
	WorkspaceID int64  `json:"ws_id"`
	Ext         string `json:"ext"`
	Hash        string `json:"hash"`
}

// ChatFileError reports a file URL that does not decode to a ChatFile.
type ChatFileError struct {
	URL    string
	Reason string
}

func (e *ChatFileError) Error() string {
	return fmt.Sprintf("chat file error: %s: %q", e.Reason, e.URL)
}

func HashContent(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// FileExt returns what follows the last dot of the base name, DefaultExt when
// there is no dot, and "" for a name ending in a dot. Extensions with
// characters outside [A-Za-z0-9_-] also become DefaultExt, so every URL is
// servable without escaping.
func FileExt(filename string) string {
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		filename = filename[i+1:]
	}
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return DefaultExt
	}
	ext := filename[i+1:]
	if !isSafeExt(ext) {
		return DefaultExt
	}
	return ext
}

func isSafeExt(ext string) bool {
	for i := 0; i < len(ext); i++ {
		c := ext[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

func NewChatFile(wsID int64, filename string, data []byte) ChatFile {
	return ChatFile{
		WorkspaceID: wsID,
		Ext:         FileExt(filename),
		Hash:        HashContent(data),
	}
}

// PathSegments is {ws}/{hash[0:6]}/{hash[6:12]}/{hash[12:]}.{ext}. It is both
// the storage key and the URL path below URLPrefix.
func (f ChatFile) PathSegments() string {
	a, rest := f.Hash[:seg1Len], f.Hash[seg1Len:]
	b, c := rest[:seg2Len], rest[seg2Len:]
	return fmt.Sprintf("%d/%s/%s/%s.%s", f.WorkspaceID, a, b, c, f.Ext)
}

func (f ChatFile) URL() string {
	return URLPrefix + f.PathSegments()
}

// Validate checks a ChatFile built from untrusted fields, such as a queued
// task payload, before it is turned into a storage key.
func (f ChatFile) Validate() error {
	if f.WorkspaceID < 0 || !isLowerHex(f.Hash) || !isSafeExt(f.Ext) {
		return &ChatFileError{URL: fmt.Sprintf("%d/%s.%s", f.WorkspaceID, f.Hash, f.Ext), Reason: "invalid file address"}
	}
	return nil
}

// ParseURL is the inverse of ChatFile.URL.
func ParseURL(s string) (ChatFile, error) {
	rest, ok := strings.CutPrefix(s, URLPrefix)
	if !ok {
		return ChatFile{}, &ChatFileError{URL: s, Reason: "missing " + URLPrefix + " prefix"}
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 4 {
		return ChatFile{}, &ChatFileError{URL: s, Reason: "want 4 path segments"}
	}

	wsID, err := strconv.ParseUint(parts[0], 10, 63)
	if err != nil {
		return ChatFile{}, &ChatFileError{URL: s, Reason: "invalid workspace id"}
	}

	name := strings.Split(parts[3], ".")
	if len(name) != 2 {
		return ChatFile{}, &ChatFileError{URL: s, Reason: "invalid file name"}
	}

	if !isSafeExt(name[1]) {
		return ChatFile{}, &ChatFileError{URL: s, Reason: "invalid extension"}
	}

	if len(parts[1]) != seg1Len || len(parts[2]) != seg2Len {
		return ChatFile{}, &ChatFileError{URL: s, Reason: "invalid hash segments"}
	}
	hash := parts[1] + parts[2] + name[0]
	if !isLowerHex(hash) {
		return ChatFile{}, &ChatFileError{URL: s, Reason: "invalid hash"}
	}

	return ChatFile{WorkspaceID: int64(wsID), Ext: name[1], Hash: hash}, nil
}

func isLowerHex(s string) bool {
	if len(s) != hashLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
