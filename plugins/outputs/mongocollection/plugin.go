/*
 * MongoDB output.
 *
 * Stores every event as a document of the collection
 */

package mongocollection

import (
	"github.com/cert-lv/abusefinder/pdk"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	Name    = "mongodb"
	Version = "1.0.0"
)

type Plugin struct {

	// Inherit default configuration fields
	output *pdk.Output

	// Custom fields
	client     *mongo.Client
	collection *mongo.Collection
}

func New() *Plugin {
	return &Plugin{}
}
