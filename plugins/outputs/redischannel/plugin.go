/*
 * Redis output.
 *
 * Publishes events to the channel and optionally keeps
 * the latest ones in a capped list
 */

package redischannel

import (
	"github.com/cert-lv/abusefinder/pdk"
	"github.com/redis/go-redis/v9"
)

const (
	Name    = "redis"
	Version = "1.0.0"
)

type Plugin struct {

	// Inherit default configuration fields
	output *pdk.Output

	// Custom fields
	client  *redis.Client
	channel string
	list    string
	maxLen  int64
}

func New() *Plugin {
	return &Plugin{}
}
