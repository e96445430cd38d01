// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the MongoDB handles and the services built on them.
//
// WAFFLE passes DBDeps by value to each hook, so the services live behind a
// pointer that ConnectDB allocates and Startup fills.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	svc *services
}
