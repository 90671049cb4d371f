package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/brightpath-housing/intake/internal/models"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
// It centralizes client creation for all services.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// Caps the number of documents scanned by the fuzzy name lookup.
const nameScanLimit = 1000

// FirestoreStore is the durable entity and file-asset store, one Firestore
// collection per entity type.
type FirestoreStore struct {
	client           *firestore.Client
	collections      map[models.EntityType]string
	assetsCollection string
}

// NewFirestoreStore wires a store over an existing client. collections maps
// each entity type to its collection name; assetsCollection holds FileAsset
// records.
func NewFirestoreStore(client *firestore.Client, collections map[models.EntityType]string, assetsCollection string) *FirestoreStore {
	return &FirestoreStore{
		client:           client,
		collections:      collections,
		assetsCollection: assetsCollection,
	}
}

func (s *FirestoreStore) collection(et models.EntityType) (*firestore.CollectionRef, error) {
	name, ok := s.collections[et]
	if !ok {
		return nil, fmt.Errorf("no collection configured for entity type %q", et)
	}
	return s.client.Collection(name), nil
}

// FindByField looks up one entity by an exact field match.
func (s *FirestoreStore) FindByField(ctx context.Context, et models.EntityType, field, value string) (string, bool, error) {
	return s.FindByFields(ctx, et, map[string]string{field: value})
}

// FindByFields looks up one entity where every given field matches exactly.
func (s *FirestoreStore) FindByFields(ctx context.Context, et models.EntityType, fields map[string]string) (string, bool, error) {
	col, err := s.collection(et)
	if err != nil {
		return "", false, err
	}
	q := col.Query
	for field, value := range fields {
		q = q.Where(field, "==", value)
	}
	docs, err := q.Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return "", false, fmt.Errorf("failed to query %s: %w", et, err)
	}
	if len(docs) == 0 {
		return "", false, nil
	}
	return docs[0].Ref.ID, true, nil
}

// FindByNameContains scans the collection for a record whose lowercased name
// contains the given name, case-insensitively. Firestore has no substring
// operator, so the scan happens client-side with a hard cap.
func (s *FirestoreStore) FindByNameContains(ctx context.Context, et models.EntityType, name string) (string, bool, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return "", false, nil
	}
	col, err := s.collection(et)
	if err != nil {
		return "", false, err
	}
	it := col.Limit(nameScanLimit).Documents(ctx)
	defer it.Stop()
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			return "", false, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("failed to scan %s for name match: %w", et, err)
		}
		haystack, _ := doc.Data()["nameLower"].(string)
		if haystack == "" {
			continue
		}
		if strings.Contains(haystack, needle) || strings.Contains(needle, haystack) {
			return doc.Ref.ID, true, nil
		}
	}
}

// Insert creates a new entity document and returns its generated ID.
func (s *FirestoreStore) Insert(ctx context.Context, et models.EntityType, rec map[string]interface{}) (string, error) {
	col, err := s.collection(et)
	if err != nil {
		return "", err
	}
	withNameLower(rec)
	id := uuid.NewString()
	if _, err := col.Doc(id).Create(ctx, rec); err != nil {
		return "", fmt.Errorf("failed to insert %s: %w", et, err)
	}
	return id, nil
}

// Update merges a partial record into an existing document. The write runs
// in a transaction so a concurrent update never drops the fields this one
// leaves untouched.
func (s *FirestoreStore) Update(ctx context.Context, et models.EntityType, id string, partial map[string]interface{}) error {
	col, err := s.collection(et)
	if err != nil {
		return err
	}
	withNameLower(partial)
	updates := make([]firestore.Update, 0, len(partial))
	for field, value := range partial {
		updates = append(updates, firestore.Update{Path: field, Value: value})
	}
	docRef := col.Doc(id)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(docRef); err != nil {
			return fmt.Errorf("failed to read %s/%s for update: %w", et, id, err)
		}
		return tx.Update(docRef, updates)
	})
}

// withNameLower derives the lowercase lookup field backing the fuzzy name
// match strategy.
func withNameLower(rec map[string]interface{}) {
	for _, field := range []string{"name", "fullName"} {
		if v, ok := rec[field].(string); ok && v != "" {
			rec["nameLower"] = strings.ToLower(v)
			return
		}
	}
}

// InsertAsset writes one FileAsset metadata record.
func (s *FirestoreStore) InsertAsset(ctx context.Context, asset models.FileAsset) (string, error) {
	id := uuid.NewString()
	if _, err := s.client.Collection(s.assetsCollection).Doc(id).Create(ctx, asset); err != nil {
		return "", fmt.Errorf("failed to insert file asset: %w", err)
	}
	return id, nil
}

// HasAssetForPath reports whether a FileAsset record exists for a storage
// path. The reconciler uses it to detect orphaned blobs.
func (s *FirestoreStore) HasAssetForPath(ctx context.Context, storagePath string) (bool, error) {
	docs, err := s.client.Collection(s.assetsCollection).
		Where("storagePath", "==", storagePath).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return false, fmt.Errorf("failed to query file assets: %w", err)
	}
	return len(docs) > 0, nil
}
