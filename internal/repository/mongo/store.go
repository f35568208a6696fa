package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rrens/movie-catalog/internal/store"
)

const (
	idField          = "_id"
	defaultScanLimit = 100
)

// Store implements store.Gateway on MongoDB. Documents written here mirror
// their key into _id; documents loaded by other tools may carry any _id type
// and are addressed through their id attribute.
type Store struct {
	client *Client
}

// NewStore creates a new MongoDB store gateway
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.client.db.Collection(name)
}

func (s *Store) Get(ctx context.Context, collection, key string) (store.Document, error) {
	var raw bson.M
	err := s.collection(collection).FindOne(ctx, keyFilter(key)).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return toDocument(raw), nil
}

func (s *Store) Put(ctx context.Context, collection string, doc store.Document) error {
	key := store.Key(doc)
	if key == "" {
		return errors.New("document has no id")
	}

	body := bson.M{}
	for k, v := range doc {
		body[k] = v
	}
	body[idField] = key

	_, err := s.collection(collection).ReplaceOne(ctx, bson.M{idField: key}, body, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to put document: %w", err)
	}
	return nil
}

func (s *Store) Scan(ctx context.Context, in store.ScanInput) (*store.ScanOutput, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultScanLimit
	}

	filter, err := buildScanFilter(in)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: idField, Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := s.collection(in.Collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to scan collection: %w", err)
	}
	defer cursor.Close(ctx)

	out := &store.ScanOutput{Items: []store.Document{}}
	var lastID any
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		lastID = raw[idField]
		out.Items = append(out.Items, toDocument(raw))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scan: %w", err)
	}

	out.Count = len(out.Items)
	out.ScannedCount = out.Count
	if out.Count == limit && lastID != nil {
		out.NextCursor, err = encodeCursor(lastID)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

// keyFilter matches a document by mirrored _id, by its id attribute, or by
// the hex form of an ObjectID _id as rendered by toDocument
func keyFilter(key string) bson.M {
	or := bson.A{
		bson.M{idField: key},
		bson.M{store.KeyAttribute: key},
	}
	if oid, err := primitive.ObjectIDFromHex(key); err == nil {
		or = append(or, bson.M{idField: oid})
	}
	return bson.M{"$or": or}
}

func buildScanFilter(in store.ScanInput) (bson.M, error) {
	var clauses bson.A
	if in.Cursor != "" {
		after, err := decodeCursor(in.Cursor)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, bson.M{idField: bson.M{"$gt": after}})
	}
	if in.Filter != nil {
		clauses = append(clauses, containsFilter(in.Filter))
	}

	switch len(clauses) {
	case 0:
		return bson.M{}, nil
	case 1:
		return clauses[0].(bson.M), nil
	}
	return bson.M{"$and": clauses}, nil
}

// containsFilter matches array attributes by membership and string
// attributes by substring
func containsFilter(f *store.Filter) bson.M {
	field := "$" + f.Attribute
	return bson.M{"$or": bson.A{
		bson.M{f.Attribute: f.Contains},
		bson.M{"$expr": bson.M{"$and": bson.A{
			bson.M{"$eq": bson.A{bson.M{"$type": field}, "string"}},
			bson.M{"$regexMatch": bson.M{"input": field, "regex": regexp.QuoteMeta(f.Contains)}},
		}}},
	}}
}

// encodeCursor wraps the raw _id in extended JSON so its BSON type survives
// the round trip through an opaque string
func encodeCursor(id any) (string, error) {
	data, err := bson.MarshalExtJSON(bson.D{{Key: "after", Value: id}}, true, false)
	if err != nil {
		return "", fmt.Errorf("failed to encode scan cursor: %w", err)
	}
	return string(data), nil
}

func decodeCursor(cursor string) (any, error) {
	var wrapped bson.M
	if err := bson.UnmarshalExtJSON([]byte(cursor), true, &wrapped); err != nil {
		return nil, fmt.Errorf("invalid scan cursor: %w", err)
	}
	after, ok := wrapped["after"]
	if !ok {
		return nil, errors.New("invalid scan cursor: missing position")
	}
	return after, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.client.Ping(ctx, nil)
}

// toDocument converts driver types into plain Go values
func toDocument(raw bson.M) store.Document {
	doc := make(store.Document, len(raw))
	for k, v := range raw {
		if k == idField {
			continue
		}
		doc[k] = normalize(v)
	}
	if _, ok := doc[store.KeyAttribute]; !ok {
		doc[store.KeyAttribute] = normalize(raw[idField])
	}
	return doc
}

func normalize(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	case primitive.Decimal128:
		return t.String()
	default:
		return v
	}
}
