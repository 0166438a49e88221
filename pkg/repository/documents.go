package repository

import (
	"database/sql"
	"fmt"

	"github.com/diptomoy-das/vital-docs-share/pkg/logger"
	"github.com/diptomoy-das/vital-docs-share/pkg/types"
)

// IndexedDocument is one row in the owner's persisted document list,
// written after a registration transaction resolves.
type IndexedDocument struct {
	Document types.Document `json:"document"`
	TxHash   string         `json:"tx_hash"`
}

// DocumentIndex persists the caller-side document list. The registry on
// chain stays the source of truth; this index exists so the presentation
// layer can list an owner's documents without a chain round-trip.
type DocumentIndex struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewDocumentIndex creates a document index over the given database
func NewDocumentIndex(db *sql.DB, log *logger.Logger) *DocumentIndex {
	return &DocumentIndex{
		db:     db,
		logger: log,
	}
}

// Save records a registered document and its transaction hash
func (r *DocumentIndex) Save(doc *types.Document, txHash string) error {
	query := `
		INSERT INTO documents (
			document_id, owner, content_id, document_type, encryption_hash, registered_at, tx_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (document_id) DO NOTHING`

	_, err := r.db.Exec(query,
		doc.DocumentID,
		string(doc.Owner),
		doc.ContentID,
		doc.DocumentType,
		doc.EncryptionHash,
		doc.Timestamp,
		txHash,
	)

	if err != nil {
		r.logger.WithError(err).Error("Failed to index document")
		return fmt.Errorf("failed to index document %d: %w", doc.DocumentID, err)
	}

	r.logger.WithFields(map[string]interface{}{
		"document_id": doc.DocumentID,
		"owner":       doc.Owner,
	}).Info("Indexed registered document")
	return nil
}

// GetByID retrieves one indexed document
func (r *DocumentIndex) GetByID(documentID int64) (*IndexedDocument, error) {
	query := `
		SELECT document_id, owner, content_id, document_type, encryption_hash, registered_at, tx_hash
		FROM documents
		WHERE document_id = $1`

	var row IndexedDocument
	var owner string
	err := r.db.QueryRow(query, documentID).Scan(
		&row.Document.DocumentID,
		&owner,
		&row.Document.ContentID,
		&row.Document.DocumentType,
		&row.Document.EncryptionHash,
		&row.Document.Timestamp,
		&row.TxHash,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(fmt.Sprintf("document %d is not indexed", documentID))
		}
		return nil, fmt.Errorf("failed to get indexed document %d: %w", documentID, err)
	}

	row.Document.Owner = types.Identity(owner)
	row.Document.IsActive = true
	return &row, nil
}

// ListByOwner retrieves an owner's indexed documents in registration order
func (r *DocumentIndex) ListByOwner(owner types.Identity) ([]*IndexedDocument, error) {
	query := `
		SELECT document_id, owner, content_id, document_type, encryption_hash, registered_at, tx_hash
		FROM documents
		WHERE owner = $1
		ORDER BY registered_at, document_id`

	rows, err := r.db.Query(query, string(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents for %s: %w", owner, err)
	}
	defer rows.Close()

	var out []*IndexedDocument
	for rows.Next() {
		var row IndexedDocument
		var ownerCol string
		if err := rows.Scan(
			&row.Document.DocumentID,
			&ownerCol,
			&row.Document.ContentID,
			&row.Document.DocumentType,
			&row.Document.EncryptionHash,
			&row.Document.Timestamp,
			&row.TxHash,
		); err != nil {
			return nil, fmt.Errorf("failed to scan indexed document: %w", err)
		}
		row.Document.Owner = types.Identity(ownerCol)
		row.Document.IsActive = true
		out = append(out, &row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate indexed documents: %w", err)
	}

	return out, nil
}
