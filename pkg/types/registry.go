package types

// Document represents a registered health document. The document bytes live
// in off-core encrypted storage; the registry only holds the opaque content
// reference and the encryption hash.
type Document struct {
	DocumentID     int64    `json:"document_id"`
	ContentID      string   `json:"content_id"`
	DocumentType   string   `json:"document_type"`
	Owner          Identity `json:"owner"`
	EncryptionHash string   `json:"encryption_hash"`
	Timestamp      int64    `json:"timestamp"`
	IsActive       bool     `json:"is_active"`
}

// AccessGrant records a facility's standing permission on one document.
type AccessGrant struct {
	DocumentID int64    `json:"document_id"`
	Facility   Identity `json:"facility"`
	Granted    bool     `json:"granted"`
	GrantedAt  int64    `json:"granted_at"`
}

// TransactionResult is the durable receipt of a mutating registry
// operation. SubjectID carries the registry-assigned identifier when the
// operation created one (document registration) and is absent otherwise.
type TransactionResult struct {
	TransactionHash string `json:"transaction_hash"`
	SubjectID       *int64 `json:"subject_id,omitempty"`
}

// OperationKind identifies a mutating registry operation for logging and
// per-operation confirmation timing.
type OperationKind string

const (
	OpRegisterDocument OperationKind = "register_document"
	OpGrantAccess      OperationKind = "grant_access"
	OpRevokeAccess     OperationKind = "revoke_access"
)
