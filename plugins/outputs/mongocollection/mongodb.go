package mongocollection

import (
	"context"
	"fmt"

	"github.com/cert-lv/abusefinder/pdk"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

/*
 * Check "pdk/plugin.go" for the built-in plugin functions description
 */

func (p *Plugin) Conf() *pdk.Output {
	return p.output
}

func (p *Plugin) Setup(output *pdk.Output) error {

	opts, err := parse(output)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), output.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("Can't connect to the database: %s", err.Error())
	}

	// Check the connection
	err = client.Ping(ctx, nil)
	if err != nil {
		client.Disconnect(context.Background())
		return fmt.Errorf("Can't ping the database: %s", err.Error())
	}

	// Store settings
	p.output = output
	p.client = client
	p.collection = client.Database(output.Access["database"]).Collection(output.Access["collection"])

	return nil
}

/*
 * Validate necessary parameters
 */
func parse(output *pdk.Output) (*options.ClientOptions, error) {
	if output.Access["url"] == "" {
		return nil, fmt.Errorf("'access.url' is not defined")
	} else if output.Access["database"] == "" {
		return nil, fmt.Errorf("'access.database' is not defined")
	} else if output.Access["collection"] == "" {
		return nil, fmt.Errorf("'access.collection' is not defined")
	}

	opts := options.Client().
		ApplyURI(output.Access["url"]).
		SetTimeout(output.Timeout)

	// Database log in credentials
	if output.Access["user"] != "" {
		opts.SetAuth(options.Credential{
			AuthSource: output.Access["database"],
			Username:   output.Access["user"],
			Password:   output.Access["password"],
		})
	}

	return opts, nil
}

func (p *Plugin) Publish(ctx context.Context, event *pdk.Event) error {
	_, err := p.collection.InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("Can't insert an event: %s", err.Error())
	}

	return nil
}

func (p *Plugin) Stop() error {
	if p.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.output.Timeout)
	defer cancel()

	return p.client.Disconnect(ctx)
}
