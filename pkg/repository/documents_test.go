package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diptomoy-das/vital-docs-share/pkg/logger"
	"github.com/diptomoy-das/vital-docs-share/pkg/types"
)

func setupTestIndex(t *testing.T) (*DocumentIndex, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewDocumentIndex(db, logger.New("error")), mock
}

func indexColumns() []string {
	return []string{"document_id", "owner", "content_id", "document_type", "encryption_hash", "registered_at", "tx_hash"}
}

func TestDocumentIndex_Save(t *testing.T) {
	index, mock := setupTestIndex(t)

	doc := &types.Document{
		DocumentID:     42,
		ContentID:      "bafy123",
		DocumentType:   "insurance_card",
		Owner:          "0xa1000000000000000000000000000000000000a1",
		EncryptionHash: "enc-hash",
		Timestamp:      1700000000,
		IsActive:       true,
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(doc.DocumentID, string(doc.Owner), doc.ContentID, doc.DocumentType, doc.EncryptionHash, doc.Timestamp, "0xabc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := index.Save(doc, "0xabc")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentIndex_Save_DuplicateIsNoop(t *testing.T) {
	index, mock := setupTestIndex(t)

	doc := &types.Document{DocumentID: 42, Owner: "0xa1", ContentID: "c", DocumentType: "report"}

	mock.ExpectExec("INSERT INTO documents").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := index.Save(doc, "0xabc")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentIndex_GetByID(t *testing.T) {
	index, mock := setupTestIndex(t)

	rows := sqlmock.NewRows(indexColumns()).
		AddRow(int64(42), "0xa1000000000000000000000000000000000000a1", "bafy123", "insurance_card", "enc-hash", int64(1700000000), "0xabc")

	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs(int64(42)).
		WillReturnRows(rows)

	got, err := index.GetByID(42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Document.DocumentID)
	assert.Equal(t, "bafy123", got.Document.ContentID)
	assert.Equal(t, types.Identity("0xa1000000000000000000000000000000000000a1"), got.Document.Owner)
	assert.Equal(t, "0xabc", got.TxHash)
	assert.True(t, got.Document.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentIndex_GetByID_NotFound(t *testing.T) {
	index, mock := setupTestIndex(t)

	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(indexColumns()))

	_, err := index.GetByID(99)
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.ErrCodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentIndex_ListByOwner(t *testing.T) {
	index, mock := setupTestIndex(t)

	owner := "0xa1000000000000000000000000000000000000a1"
	rows := sqlmock.NewRows(indexColumns()).
		AddRow(int64(1), owner, "c1", "report", "h1", int64(1700000000), "0xaaa").
		AddRow(int64(2), owner, "c2", "insurance_card", "h2", int64(1700000100), "0xbbb")

	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs(owner).
		WillReturnRows(rows)

	docs, err := index.ListByOwner(types.Identity(owner))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, int64(1), docs[0].Document.DocumentID)
	assert.Equal(t, int64(2), docs[1].Document.DocumentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentIndex_ListByOwner_Empty(t *testing.T) {
	index, mock := setupTestIndex(t)

	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("0xnobody").
		WillReturnRows(sqlmock.NewRows(indexColumns()))

	docs, err := index.ListByOwner("0xnobody")
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
