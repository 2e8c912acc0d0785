package mongo

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bakeryflow/identity/internal/core/domain"
	"github.com/bakeryflow/identity/internal/core/ports"
)

const usersCollection = "users"

// UserRepository is the MongoDB-backed credential store.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	FirstName    string             `bson:"first_name"`
	LastName     string             `bson:"last_name"`
	PhoneNumber  string             `bson:"phone_number,omitempty"`
	EmployeeID   string             `bson:"employee_id,omitempty"`
	Enabled      bool               `bson:"enabled"`
	Roles        []string           `bson:"roles"`
	CreatedAt    int64              `bson:"created_at"`
	UpdatedAt    int64              `bson:"updated_at"`
	LastLogin    int64              `bson:"last_login,omitempty"`
}

// sortFields whitelists the user attributes a listing may sort by.
var sortFields = map[string]string{
	"username":   "username",
	"email":      "email",
	"firstName":  "first_name",
	"lastName":   "last_name",
	"employeeId": "employee_id",
	"createdAt":  "created_at",
	"lastLogin":  "last_login",
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, bson.M{"username": username})
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, bson.M{"email": email})
}

func (r *UserRepository) ExistsByEmployeeID(ctx context.Context, employeeID string) (bool, error) {
	return r.exists(ctx, bson.M{"employee_id": employeeID})
}

func (r *UserRepository) List(ctx context.Context, opts ports.ListOptions) (*ports.UserPage, error) {
	return r.page(ctx, bson.M{}, opts)
}

// Search matches a case-insensitive fragment against username, email, and
// both name fields.
func (r *UserRepository) Search(ctx context.Context, query string, opts ports.ListOptions) (*ports.UserPage, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"username": pattern},
		bson.M{"email": pattern},
		bson.M{"first_name": pattern},
		bson.M{"last_name": pattern},
	}}
	return r.page(ctx, filter, opts)
}

func (r *UserRepository) CountByRole(ctx context.Context, role domain.RoleName) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"roles": string(role)})
	if err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return n, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	doc := toDoc(user)
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.NewConflict(conflictField(err))
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid.Hex()
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	doc := toDoc(user)
	doc.ID = oid
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.NewConflict(conflictField(err))
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return fromDoc(&doc), nil
}

func (r *UserRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check user existence: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepository) page(ctx context.Context, filter bson.M, opts ports.ListOptions) (*ports.UserPage, error) {
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	sortField, ok := sortFields[opts.SortBy]
	if !ok {
		sortField = "username"
	}
	order := 1
	if opts.SortDesc {
		order = -1
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: order}}).
		SetSkip(int64(opts.Page) * int64(opts.Size)).
		SetLimit(int64(opts.Size))

	cursor, err := r.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*domain.User, len(docs))
	for i := range docs {
		users[i] = fromDoc(&docs[i])
	}
	return &ports.UserPage{Users: users, Total: total}, nil
}

func toDoc(user *domain.User) userDoc {
	doc := userDoc{
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		PhoneNumber:  user.PhoneNumber,
		EmployeeID:   user.EmployeeID,
		Enabled:      user.Enabled,
		Roles:        user.RoleStrings(),
		CreatedAt:    user.CreatedAt.Unix(),
		UpdatedAt:    user.UpdatedAt.Unix(),
	}
	if user.LastLogin != nil {
		doc.LastLogin = user.LastLogin.Unix()
	}
	return doc
}

func fromDoc(doc *userDoc) *domain.User {
	roles := make([]domain.RoleName, len(doc.Roles))
	for i, r := range doc.Roles {
		roles[i] = domain.RoleName(r)
	}

	user := &domain.User{
		ID:           doc.ID.Hex(),
		Username:     doc.Username,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		FirstName:    doc.FirstName,
		LastName:     doc.LastName,
		PhoneNumber:  doc.PhoneNumber,
		EmployeeID:   doc.EmployeeID,
		Enabled:      doc.Enabled,
		Roles:        roles,
		CreatedAt:    unixToTime(doc.CreatedAt),
		UpdatedAt:    unixToTime(doc.UpdatedAt),
	}
	if doc.LastLogin != 0 {
		t := unixToTime(doc.LastLogin)
		user.LastLogin = &t
	}
	return user
}

// conflictField maps a duplicate-key error back to the colliding attribute
// by the unique index named in the error message.
func conflictField(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "email_1"):
		return "email"
	case strings.Contains(msg, "employee_id_1"):
		return "employeeId"
	default:
		return "username"
	}
}
