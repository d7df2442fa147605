// Package store persists a chunked corpus and its embeddings so the
// expensive chunking and embedding passes are not repeated across processes.
// The store is a build-time cache; queries run against an in-memory snapshot.
package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"docsearch/internal/domain"
)

var (
	bucketDocs       = []byte("docs")
	bucketChunks     = []byte("chunks")
	bucketDocChunks  = []byte("doc_chunks")
	bucketEmbeddings = []byte("embeddings")
	bucketMeta       = []byte("meta")
)

// Meta keys.
const (
	MetaEmbeddingModel = "embedding_model"
	MetaChunkConfig    = "chunk_config"
)

type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketDocs, bucketChunks, bucketDocChunks, bucketEmbeddings, bucketMeta}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

type docRecord struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type chunkRecord struct {
	DocID       int               `json:"doc_id"`
	Ordinal     int               `json:"ordinal"`
	Content     string            `json:"content"`
	Type        string            `json:"type"`
	Level       int               `json:"level"`
	StartOffset int               `json:"start_offset"`
	EndOffset   int               `json:"end_offset"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// SaveCorpus replaces the stored documents and chunks in one transaction.
// Stale embeddings for chunk IDs that no longer exist are dropped.
func (s *BoltStore) SaveCorpus(docs []domain.Document, chunks []domain.Chunk) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketDocs, bucketChunks, bucketDocChunks} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}

		docsBucket := tx.Bucket(bucketDocs)
		for _, doc := range docs {
			data, err := json.Marshal(docRecord{Filename: doc.Filename, Content: doc.Content})
			if err != nil {
				return err
			}
			if err := docsBucket.Put(docKey(doc.ID), data); err != nil {
				return err
			}
		}

		chunksBucket := tx.Bucket(bucketChunks)
		keep := make(map[string]struct{}, len(chunks))
		docChunkIDs := make(map[int][]string)
		for _, chunk := range chunks {
			data, err := json.Marshal(chunkRecord{
				DocID:       chunk.DocID,
				Ordinal:     chunk.Ordinal,
				Content:     chunk.Content,
				Type:        string(chunk.Type),
				Level:       chunk.Level,
				StartOffset: chunk.StartOffset,
				EndOffset:   chunk.EndOffset,
				Metadata:    chunk.Metadata,
			})
			if err != nil {
				return err
			}
			if err := chunksBucket.Put([]byte(chunk.ID), data); err != nil {
				return err
			}
			keep[chunk.ID] = struct{}{}
			docChunkIDs[chunk.DocID] = append(docChunkIDs[chunk.DocID], chunk.ID)
		}

		docChunksBucket := tx.Bucket(bucketDocChunks)
		for docID, ids := range docChunkIDs {
			data, err := json.Marshal(ids)
			if err != nil {
				return err
			}
			if err := docChunksBucket.Put(docKey(docID), data); err != nil {
				return err
			}
		}

		// Drop embeddings for vanished chunks.
		embBucket := tx.Bucket(bucketEmbeddings)
		var stale [][]byte
		if err := embBucket.ForEach(func(k, _ []byte) error {
			if _, ok := keep[string(k)]; !ok {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range stale {
			if err := embBucket.Delete(k); err != nil {
				return err
			}
		}

		return nil
	})
}

// LoadCorpus returns the stored documents and chunks. Documents come back
// sorted by ID and chunks by (doc ID, ordinal), matching build order.
func (s *BoltStore) LoadCorpus() ([]domain.Document, []domain.Chunk, error) {
	var docs []domain.Document
	var chunks []domain.Chunk

	err := s.db.View(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			var rec docRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			docs = append(docs, domain.Document{
				ID:       docIDFromKey(k),
				Filename: rec.Filename,
				Content:  rec.Content,
			})
			return nil
		}); err != nil {
			return err
		}

		return tx.Bucket(bucketChunks).ForEach(func(k, v []byte) error {
			var rec chunkRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			chunks = append(chunks, domain.Chunk{
				ID:          string(k),
				DocID:       rec.DocID,
				Ordinal:     rec.Ordinal,
				Content:     rec.Content,
				Type:        domain.ChunkType(rec.Type),
				Level:       rec.Level,
				StartOffset: rec.StartOffset,
				EndOffset:   rec.EndOffset,
				Metadata:    rec.Metadata,
			})
			return nil
		})
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].DocID != chunks[j].DocID {
			return chunks[i].DocID < chunks[j].DocID
		}
		return chunks[i].Ordinal < chunks[j].Ordinal
	})

	return docs, chunks, nil
}

// SaveEmbeddings stores chunk embeddings keyed by chunk ID.
func (s *BoltStore) SaveEmbeddings(vectors map[string][]float32) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		for id, vec := range vectors {
			data, err := json.Marshal(vec)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(id), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadEmbeddings returns all stored chunk embeddings.
func (s *BoltStore) LoadEmbeddings() (map[string][]float32, error) {
	vectors := make(map[string][]float32)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEmbeddings).ForEach(func(k, v []byte) error {
			var vec []float32
			if err := json.Unmarshal(v, &vec); err != nil {
				return nil // skip corrupted entries
			}
			vectors[string(k)] = vec
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

// PutMeta stores one metadata value (embedding model, chunking fingerprint).
func (s *BoltStore) PutMeta(key, value string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put([]byte(key), []byte(value))
	})
}

// GetMeta returns one metadata value, or "" when absent.
func (s *BoltStore) GetMeta(key string) (string, error) {
	var value string
	err := s.db.View(func(tx *bbolt.Tx) error {
		value = string(tx.Bucket(bucketMeta).Get([]byte(key)))
		return nil
	})
	return value, err
}

func docKey(id int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}

func docIDFromKey(key []byte) int {
	return int(binary.BigEndian.Uint64(key))
}
