// Package firestorerepos implements the repositories on Cloud Firestore.
package firestorerepos

import (
	"context"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/trezcool/rollcall/core"
)

// Collections
const (
	usersCollection      = "users"
	studentsCollection   = "students"
	attendanceCollection = "attendance"
	aggregatesCollection = "dailyAggregates"
)

// Open returns a firestore client of the firebase app.
func Open(ctx context.Context, app *firebase.App) (*firestore.Client, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting firestore client")
	}
	return client, nil
}

// compositeID is the document ID of an entity keyed by two fields, eg. `<studentID>_<date>`.
func compositeID(a, b string) string {
	return a + "_" + b
}

func isCode(err error, code codes.Code) bool {
	return status.Code(errors.Cause(err)) == code
}

// trapErr maps codes.NotFound to notFound and wraps any other error as a store error.
func trapErr(err error, notFound error, op string) error {
	if err == nil {
		return nil
	}
	if notFound != nil && isCode(err, codes.NotFound) {
		return notFound
	}
	return core.NewStoreError(err, op)
}
