package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bakeryflow/identity/internal/core/domain"
)

const rolesCollection = "roles"

// RoleRepository persists the role reference records.
type RoleRepository struct {
	coll *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{coll: db.Collection(rolesCollection)}
}

type roleDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
}

func (r *RoleRepository) FindAll(ctx context.Context) ([]*domain.Role, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []roleDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}

	roles := make([]*domain.Role, len(docs))
	for i := range docs {
		roles[i] = fromRoleDoc(&docs[i])
	}
	return roles, nil
}

func (r *RoleRepository) FindByID(ctx context.Context, id string) (*domain.Role, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrRoleNotFound
	}

	var doc roleDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return fromRoleDoc(&doc), nil
}

func (r *RoleRepository) FindByName(ctx context.Context, name domain.RoleName) (*domain.Role, error) {
	var doc roleDoc
	if err := r.coll.FindOne(ctx, bson.M{"name": string(name)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return fromRoleDoc(&doc), nil
}

// Save upserts the role keyed by its enumeration name.
func (r *RoleRepository) Save(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	update := bson.M{"$set": bson.M{"description": role.Description}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc roleDoc
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"name": string(role.Name)}, update, opts).Decode(&doc); err != nil {
		return nil, fmt.Errorf("save role: %w", err)
	}
	return fromRoleDoc(&doc), nil
}

func fromRoleDoc(doc *roleDoc) *domain.Role {
	return &domain.Role{
		ID:          doc.ID.Hex(),
		Name:        domain.RoleName(doc.Name),
		Description: doc.Description,
	}
}
