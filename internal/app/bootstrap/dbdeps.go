// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the backends and the services built on them. Runtime is
// allocated by ConnectDB and filled in by Startup; the hooks receive DBDeps
// by value, so it is shared through the pointer.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Runtime       *Runtime
}
