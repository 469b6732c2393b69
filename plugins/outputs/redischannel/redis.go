package redischannel

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cert-lv/abusefinder/pdk"
	"github.com/redis/go-redis/v9"
)

/*
 * Check "pdk/plugin.go" for the built-in plugin functions description
 */

func (p *Plugin) Conf() *pdk.Output {
	return p.output
}

func (p *Plugin) Setup(output *pdk.Output) error {

	options, err := p.parse(output)
	if err != nil {
		return err
	}

	client := redis.NewClient(options)

	// Be able to cancel too long execution
	ctx, cancel := context.WithTimeout(context.Background(), output.Timeout)
	defer cancel()

	// Check the connection
	err = client.Ping(ctx).Err()
	if err != nil {
		client.Close()
		return fmt.Errorf("Can't ping Redis: %s", err.Error())
	}

	p.client = client

	return nil
}

/*
 * Validate necessary parameters and store settings
 */
func (p *Plugin) parse(output *pdk.Output) (*redis.Options, error) {
	if output.Access["addr"] == "" {
		return nil, fmt.Errorf("'access.addr' is not defined")
	} else if output.Access["channel"] == "" {
		return nil, fmt.Errorf("'access.channel' is not defined")
	}

	db := 0
	if output.Access["db"] != "" {
		var err error
		db, err = strconv.Atoi(output.Access["db"])
		if err != nil {
			return nil, fmt.Errorf("'access.db' is not defined as an integer")
		}
	}

	p.maxLen = 1000
	if output.Access["maxLen"] != "" {
		n, err := strconv.ParseInt(output.Access["maxLen"], 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("'access.maxLen' must be a positive integer")
		}
		p.maxLen = n
	}

	p.output = output
	p.channel = output.Access["channel"]
	p.list = output.Access["list"]

	return &redis.Options{
		Addr:     output.Access["addr"],
		Username: output.Access["user"],
		Password: output.Access["password"],
		DB:       db,
	}, nil
}

func (p *Plugin) Publish(ctx context.Context, event *pdk.Event) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("Can't encode an event: %s", err.Error())
	}

	// Channel subscribers get the event immediately,
	// the list is for the consumers that come later
	pipe := p.client.TxPipeline()
	pipe.Publish(ctx, p.channel, b)

	if p.list != "" {
		pipe.LPush(ctx, p.list, b)
		pipe.LTrim(ctx, p.list, 0, p.maxLen-1)
	}

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("Can't publish to Redis: %s", err.Error())
	}

	return nil
}

func (p *Plugin) Stop() error {
	if p.client != nil {
		return p.client.Close()
	}

	return nil
}
