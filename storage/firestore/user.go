package firestorerepos

import (
	"context"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/user"
)

type userDoc struct {
	Name         string    `firestore:"name"`
	Email        string    `firestore:"email"`
	Role         string    `firestore:"role"`
	ClassLabel   string    `firestore:"classLabel"`
	IsActive     bool      `firestore:"isActive"`
	PasswordHash []byte    `firestore:"passwordHash"`
	CreatedAt    time.Time `firestore:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
	LastLogin    time.Time `firestore:"lastLogin"`
}

func toUserDoc(usr user.User) userDoc {
	return userDoc{
		Name:         usr.Name,
		Email:        usr.Email,
		Role:         usr.Role,
		ClassLabel:   usr.ClassLabel,
		IsActive:     usr.IsActive,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    usr.LastLogin.UTC(),
	}
}

func (d userDoc) user(id string) user.User {
	return user.User{
		ID:           id,
		Name:         d.Name,
		Email:        d.Email,
		Role:         d.Role,
		ClassLabel:   d.ClassLabel,
		IsActive:     d.IsActive,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
		LastLogin:    d.LastLogin.UTC(),
	}
}

type userRepository struct {
	client *firestore.Client
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(client *firestore.Client) user.Repository {
	return &userRepository{client: client}
}

func (repo *userRepository) users() *firestore.CollectionRef {
	return repo.client.Collection(usersCollection)
}

func (repo *userRepository) query(ctx context.Context, q firestore.Query) ([]user.User, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	users := make([]user.User, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, core.NewStoreError(err, "querying users")
		}
		var doc userDoc
		if err = snap.DataTo(&doc); err != nil {
			return nil, core.NewStoreError(err, "decoding user")
		}
		users = append(users, doc.user(snap.Ref.ID))
	}
	return users, nil
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	users, err := repo.query(ctx, repo.users().Where("email", "==", email))
	if err != nil {
		return err
	}
	for _, usr := range users {
		excluded := false
		for _, excl := range excludedUsers {
			if excl.ID == usr.ID {
				excluded = true
				break
			}
		}
		if !excluded {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if err := repo.CheckEmailUniqueness(ctx, usr.Email); err != nil {
		return user.User{}, err
	}
	usr.ID = uuid.NewString()
	if _, err := repo.users().Doc(usr.ID).Create(ctx, toUserDoc(usr)); err != nil {
		return user.User{}, core.NewStoreError(err, "creating user")
	}
	return usr, nil
}

// QueryUsers runs the equality filters on firestore; the search and the ordering are applied here.
func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	q := repo.users().Query
	if filter != nil {
		if filter.Role != "" {
			q = q.Where("role", "==", filter.Role)
		}
		if filter.ClassLabel != "" {
			q = q.Where("classLabel", "==", filter.ClassLabel)
		}
		if filter.IsActive != nil {
			q = q.Where("isActive", "==", *filter.IsActive)
		}
	}
	users, err := repo.query(ctx, q)
	if err != nil {
		return nil, err
	}

	if filter != nil && filter.Search != "" {
		s := strings.ToLower(filter.Search)
		found := users[:0]
		for _, usr := range users {
			if strings.Contains(strings.ToLower(usr.Name), s) || strings.Contains(usr.Email, s) {
				found = append(found, usr)
			}
		}
		users = found
	}

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range ordering {
			a, b := sortKey(users[i], ord.Field), sortKey(users[j], ord.Field)
			if a == b {
				continue
			}
			if ord.Ascending {
				return a < b
			}
			return a > b
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func sortKey(usr user.User, field string) string {
	switch field {
	case "name":
		return usr.Name
	case "email":
		return usr.Email
	case "role":
		return usr.Role
	case "is_active":
		if usr.IsActive {
			return "1"
		}
		return "0"
	case "created_at":
		return usr.CreatedAt.UTC().Format(time.RFC3339Nano)
	case "last_login":
		return usr.LastLogin.UTC().Format(time.RFC3339Nano)
	}
	return ""
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if id == "" {
		return user.User{}, user.ErrNotFound
	}
	snap, err := repo.users().Doc(id).Get(ctx)
	if err != nil {
		return user.User{}, trapErr(err, user.ErrNotFound, "getting user")
	}
	var doc userDoc
	if err = snap.DataTo(&doc); err != nil {
		return user.User{}, core.NewStoreError(err, "decoding user")
	}
	return doc.user(snap.Ref.ID), nil
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	users, err := repo.query(ctx, repo.users().Where("email", "==", email).Limit(1))
	if err != nil {
		return user.User{}, err
	}
	if len(users) == 0 {
		return user.User{}, user.ErrNotFound
	}
	return users[0], nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	ref := repo.users().Doc(usr.ID)
	if _, err := ref.Get(ctx); err != nil {
		return user.User{}, trapErr(err, user.ErrNotFound, "getting user")
	}
	if _, err := ref.Set(ctx, toUserDoc(usr)); err != nil {
		return user.User{}, core.NewStoreError(err, "updating user")
	}
	return usr, nil
}
