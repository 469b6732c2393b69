package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cert-lv/abusefinder/pdk"
)

/*
 * Run the agent.
 *
 * Without events the agent is checked once,
 * otherwise it receives every event separately.
 * Events are handled concurrently, the order of the results is not defined.
 *
 * Dry run returns the events without publishing them
 * and doesn't touch the agent's state & stats.
 *
 * Returns all the created events and the first error
 */
func (a *agent) run(ctx context.Context, events []*pdk.Event, dryRun bool) ([]*pdk.Event, error) {
	if len(events) == 0 {
		return a.invoke(ctx, nil, dryRun)
	}

	created := []*pdk.Event{}
	mx := sync.Mutex{}

	// A failure of a single event doesn't stop the others
	group := errgroup.Group{}
	group.SetLimit(config.Workers)

	for _, event := range events {
		event := event
		group.Go(func() error {
			result, err := a.invoke(ctx, event, dryRun)

			mx.Lock()
			created = append(created, result...)
			mx.Unlock()

			return err
		})
	}

	err := group.Wait()

	return created, err
}

/*
 * Single agent invocation, checks the agent when event is nil
 */
func (a *agent) invoke(ctx context.Context, event *pdk.Event, dryRun bool) ([]*pdk.Event, error) {
	conf := a.plugin.Conf()

	// Be able to cancel too long lookup,
	// outputs use their own timeouts
	lookupCtx, cancel := context.WithTimeout(ctx, conf.Timeout)
	defer cancel()

	var payloads []map[string]interface{}
	var debug map[string]interface{}
	var err error

	start := time.Now()

	if event == nil {
		payloads, debug, err = a.plugin.Check(lookupCtx)
	} else {
		payloads, debug, err = a.plugin.Receive(lookupCtx, event)
	}

	invocationDuration.WithLabelValues(conf.Name).Observe(time.Since(start).Seconds())
	a.logDebug(debug)

	if err != nil {
		invocationsTotal.WithLabelValues(conf.Name, "error").Inc()
		if !dryRun {
			a.state.ErrorLogged(time.Now(), err.Error())
		}

		log.Error().
			Str("agent", conf.Name).
			Msg("Can't run: " + err.Error())

		return nil, fmt.Errorf("%s - %w", conf.Name, err)
	}

	invocationsTotal.WithLabelValues(conf.Name, "ok").Inc()

	created := make([]*pdk.Event, 0, len(payloads))
	var publishErr error

	for _, payload := range payloads {
		e := pdk.NewEvent(conf.Name, payload)
		created = append(created, e)

		if dryRun {
			log.Info().
				Str("agent", conf.Name).
				Str("event", e.ID).
				Msg("Dry run event, not published")
			continue
		}

		a.state.EventCreated(e.CreatedAt)
		a.stats.Collect(payload)
		eventsTotal.WithLabelValues(conf.Name).Inc()

		log.Info().
			Str("agent", conf.Name).
			Str("event", e.ID).
			Msg("Event created")

		for _, output := range a.outputs {
			err := publish(ctx, output, e)
			if err != nil {
				publishErrorsTotal.WithLabelValues(output.Conf().Name).Inc()
				a.state.ErrorLogged(time.Now(), err.Error())

				log.Error().
					Str("agent", conf.Name).
					Str("output", output.Conf().Name).
					Str("event", e.ID).
					Msg("Can't publish an event: " + err.Error())

				if publishErr == nil {
					publishErr = fmt.Errorf("%s - %s - %w", conf.Name, output.Conf().Name, err)
				}
			}
		}
	}

	return created, publishErr
}

/*
 * Deliver a single event within the output's own timeout
 */
func publish(ctx context.Context, output pdk.OutputPlugin, e *pdk.Event) error {
	timeout := output.Conf().Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return output.Publish(ctx, e)
}

/*
 * Log debug info returned by the agent plugin
 */
func (a *agent) logDebug(debug map[string]interface{}) {
	if len(debug) == 0 {
		return
	}

	name := a.plugin.Conf().Name

	if status, ok := debug["status"]; ok {
		log.Info().
			Str("agent", name).
			Interface("status", status).
			Msg("Request status")
	}

	if response, ok := debug["response"]; ok {
		log.Info().
			Str("agent", name).
			Interface("response", response).
			Msg("Response body")
	}

	log.Debug().
		Str("agent", name).
		Interface("debug", debug).
		Msg("Debug info")
}

/*
 * Tell whether the agent works as expected
 */
func (a *agent) working() bool {
	ok := a.plugin.Working(a.state)

	gauge := 0.0
	if ok {
		gauge = 1
	}
	agentsWorking.WithLabelValues(a.plugin.Conf().Name).Set(gauge)

	return ok
}
