package console

import (
	"context"
	"fmt"
	"os"

	"github.com/cert-lv/abusefinder/pdk"
	"github.com/rs/zerolog"
)

/*
 * Check "pdk/plugin.go" for the built-in plugin functions description
 */

func (p *Plugin) Conf() *pdk.Output {
	return p.output
}

func (p *Plugin) Setup(output *pdk.Output) error {

	if p.writer == nil {
		if output.Access["file"] == "" {
			p.writer = os.Stdout
		} else {
			fp, err := os.OpenFile(output.Access["file"], os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
			if err != nil {
				return fmt.Errorf("Can't open '%s': %s", output.Access["file"], err.Error())
			}

			p.writer = fp
			p.closer = fp
		}
	}

	// Store settings
	p.output = output
	p.logger = zerolog.New(p.writer).With().Timestamp().Logger()

	return nil
}

func (p *Plugin) Publish(ctx context.Context, event *pdk.Event) error {
	p.logger.Log().
		Str("id", event.ID).
		Str("agent", event.Agent).
		Time("createdAt", event.CreatedAt).
		Interface("payload", event.Payload).
		Msg("Event")

	return nil
}

func (p *Plugin) Stop() error {
	if p.closer != nil {
		return p.closer.Close()
	}

	return nil
}
