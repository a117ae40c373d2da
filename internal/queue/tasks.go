package queue

import "github.com/nikhilbhutani/chatserver/internal/storage"

const (
	TypeFileVerify = "file:verify"
)

// FileVerifyPayload names a stored attachment to re-hash.
type FileVerifyPayload struct {
	WorkspaceID int64  `json:"ws_id"`
	Ext         string `json:"ext"`
	Hash        string `json:"hash"`
}

func NewFileVerifyPayload(f storage.ChatFile) FileVerifyPayload {
	return FileVerifyPayload{WorkspaceID: f.WorkspaceID, Ext: f.Ext, Hash: f.Hash}
}

func (p FileVerifyPayload) ChatFile() storage.ChatFile {
	return storage.ChatFile{WorkspaceID: p.WorkspaceID, Ext: p.Ext, Hash: p.Hash}
}
