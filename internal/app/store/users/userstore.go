package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/standupconnect/internal/app/system/normalize"
	"github.com/dalemusser/standupconnect/internal/app/system/paging"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no user matches.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when attempting to store an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "COMEDIAN"|"ORGANIZER"|"ADMIN"|"SUPER_ADMIN"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetByEmail looks up a user by email, ignoring case.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// EmailTaken reports whether another user (not exceptID) already uses email.
func (s *Store) EmailTaken(ctx context.Context, email string, exceptID primitive.ObjectID) (bool, error) {
	filter := bson.M{"email": normalize.Email(email)}
	if !exceptID.IsZero() {
		filter["_id"] = bson.M{"$ne": exceptID}
	}
	n, err := s.c.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	return n > 0, err
}

// Create inserts a new user after normalizing fields. Stats start at zero
// and role-specific profiles are initialised empty.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Email = normalize.Email(u.Email)
	u.EmailCI = text.Fold(u.Email)
	u.FirstName = normalize.Name(u.FirstName)
	u.LastName = normalize.Name(u.LastName)
	u.Role = normalize.Role(u.Role)

	switch u.Role {
	case models.RoleComedian:
		if u.Profile == nil {
			u.Profile = &models.ComedianProfile{}
		}
	case models.RoleOrganizer:
		if u.OrganizerProfile == nil {
			u.OrganizerProfile = &models.OrganizerProfile{}
		}
	case models.RoleAdmin, models.RoleSuperAdmin:
	default:
		return models.User{}, errBadRole
	}

	u.Stats = models.UserStats{ProcessedEvents: []primitive.ObjectID{}}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// TouchLogin records a successful login.
func (s *Store) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"last_login_at": at.UTC()}})
	return err
}

// SetRole changes a user's role.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"role":       normalize.Role(role),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Update applies a $set of whitelisted fields and returns the updated user.
// The caller builds set with bson paths; email changes are normalized here.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	if e, ok := set["email"].(string); ok {
		set["email"] = normalize.Email(e)
		set["email_ci"] = text.Fold(normalize.Email(e))
	}
	set["updated_at"] = time.Now().UTC()

	var u models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&u)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, notFound(err)
	}
	return &u, nil
}

// ListMembers returns COMEDIAN and ORGANIZER users, newest first.
func (s *Store) ListMembers(ctx context.Context, page paging.Page) ([]models.User, error) {
	filter := bson.M{"role": bson.M{"$in": bson.A{models.RoleComedian, models.RoleOrganizer}}}
	find := page.Apply(options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))

	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Recipient is the name and address used for notification emails.
type Recipient struct {
	ID        primitive.ObjectID `bson:"_id"`
	Email     string             `bson:"email"`
	FirstName string             `bson:"first_name"`
	LastName  string             `bson:"last_name"`
}

// ComedianRecipients returns every comedian's contact details.
func (s *Store) ComedianRecipients(ctx context.Context) ([]Recipient, error) {
	proj := options.Find().SetProjection(bson.M{"email": 1, "first_name": 1, "last_name": 1})
	cur, err := s.c.Find(ctx, bson.M{"role": models.RoleComedian}, proj)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Recipient{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Summaries loads the public reference form for each id.
// Missing users are omitted from the map.
func (s *Store) Summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error) {
	out := make(map[primitive.ObjectID]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	proj := options.Find().SetProjection(bson.M{
		"email": 1, "first_name": 1, "last_name": 1, "role": 1, "profile": 1,
	})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, proj)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var u models.UserSummary
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, cur.Err()
}
