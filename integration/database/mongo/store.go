package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/sessionkit/core/session"
)

const (
	sessionsCollection  = "sessions"
	variablesCollection = "session_variables"
)

type sessionDoc struct {
	ID          string    `bson:"_id"`
	UserID      int64     `bson:"user_id"`
	UserEmail   string    `bson:"user_email"`
	SecureToken string    `bson:"secure_token"`
	IP          string    `bson:"ip"`
	CreatedAt   time.Time `bson:"created_at"`
	ActiveAt    time.Time `bson:"active_at"`
}

func (d sessionDoc) row() session.Row {
	return session.Row{
		ID:          d.ID,
		UserID:      d.UserID,
		UserEmail:   d.UserEmail,
		SecureToken: d.SecureToken,
		IP:          d.IP,
		CreatedAt:   d.CreatedAt.UTC(),
		ActiveAt:    d.ActiveAt.UTC(),
	}
}

func docFromRow(row session.Row) sessionDoc {
	return sessionDoc{
		ID:          row.ID,
		UserID:      row.UserID,
		UserEmail:   row.UserEmail,
		SecureToken: row.SecureToken,
		IP:          row.IP,
		CreatedAt:   row.CreatedAt,
		ActiveAt:    row.ActiveAt,
	}
}

// Store persists session rows and variables in MongoDB collections. It
// implements both session.Store and session.VariableStore.
type Store struct {
	sessions  *mongo.Collection
	variables *mongo.Collection
}

// NewStore wraps the database handle in a session store.
func NewStore(db *mongo.Database) *Store {
	return &Store{
		sessions:  db.Collection(sessionsCollection),
		variables: db.Collection(variablesCollection),
	}
}

// EnsureIndexes creates the indexes the store queries rely on: the per-user
// session lookup and the unique (session_id, name) variable key.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.sessions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}},
	})
	if err != nil {
		return err
	}

	_, err = s.variables.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *Store) FetchByID(ctx context.Context, id string) (session.Row, error) {
	var doc sessionDoc
	err := s.sessions.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return session.Row{}, session.ErrRowNotFound
	}
	if err != nil {
		return session.Row{}, err
	}
	return doc.row(), nil
}

func (s *Store) GetLastActive(ctx context.Context, id string) (time.Time, error) {
	var doc struct {
		ActiveAt time.Time `bson:"active_at"`
	}
	err := s.sessions.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"active_at": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return time.Time{}, session.ErrRowNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return doc.ActiveAt.UTC(), nil
}

func (s *Store) UpdateLastActive(ctx context.Context, id string, ts time.Time) (int64, error) {
	res, err := s.sessions.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"active_at": ts}})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (s *Store) UpsertSession(ctx context.Context, row session.Row) (int64, error) {
	_, err := s.sessions.ReplaceOne(ctx,
		bson.M{"_id": row.ID},
		docFromRow(row),
		options.Replace().SetUpsert(true))
	if err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) (session.Row, error) {
	var doc sessionDoc
	err := s.sessions.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return session.Row{}, session.ErrRowNotFound
	}
	if err != nil {
		return session.Row{}, err
	}
	return doc.row(), nil
}

func (s *Store) DeleteSessionsByUser(ctx context.Context, userID int64) ([]session.Row, error) {
	cursor, err := s.sessions.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}

	var docs []sessionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	if _, err := s.sessions.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return nil, err
	}

	rows := make([]session.Row, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, doc.row())
	}
	return rows, nil
}

func (s *Store) GetVariable(ctx context.Context, sessionID, name string) (string, error) {
	var doc struct {
		Value string `bson:"value"`
	}
	err := s.variables.FindOne(ctx,
		bson.M{"session_id": sessionID, "name": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", session.ErrVariableNotFound
	}
	if err != nil {
		return "", err
	}
	return doc.Value, nil
}

func (s *Store) SetVariable(ctx context.Context, sessionID, name, value string) error {
	_, err := s.variables.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "name": name},
		bson.M{"$set": bson.M{"value": value}},
		options.UpdateOne().SetUpsert(true))
	return err
}

func (s *Store) DeleteVariable(ctx context.Context, sessionID, name string) error {
	_, err := s.variables.DeleteOne(ctx, bson.M{"session_id": sessionID, "name": name})
	return err
}

func (s *Store) DeleteVariablesBySession(ctx context.Context, sessionID string) error {
	_, err := s.variables.DeleteMany(ctx, bson.M{"session_id": sessionID})
	return err
}

// DeleteVariablesByUser removes every variable owned by the user's sessions.
// Variables carry no user field, so the session ids are resolved first, which
// is why variables are always removed before their owning documents.
func (s *Store) DeleteVariablesByUser(ctx context.Context, userID int64) error {
	cursor, err := s.sessions.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return err
	}

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	_, err = s.variables.DeleteMany(ctx, bson.M{"session_id": bson.M{"$in": ids}})
	return err
}

var (
	_ session.Store         = (*Store)(nil)
	_ session.VariableStore = (*Store)(nil)
)
