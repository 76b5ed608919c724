// Package roundtable provides a top-level convenience entry point for running
// round-robin group chats with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/roundtable"
//
//	cfg, _ := config.NewLoader().WithConfigPath("roundtable.yaml").Load()
//	team, err := roundtable.New(cfg.Chat, roundtable.WithLogger(logger))
//	res, err := team.Run(ctx, cfg.Chat.Task)
//
// This is a thin wrapper around [quick.New]; both produce identical results.
// Use [groupchat.New] directly to assemble participants and conditions in code.
package roundtable

import (
	"github.com/BaSui01/roundtable/config"
	"github.com/BaSui01/roundtable/groupchat"
	"github.com/BaSui01/roundtable/quick"
)

// Team is a configured scheduler plus its external stop switch.
type Team = quick.Team

// Option configures the team created by [New].
type Option = quick.Option

// New builds a [Team] from the chat section of the configuration.
func New(cfg config.ChatConfig, opts ...Option) (*Team, error) {
	return quick.New(cfg, opts...)
}

// Re-export option shortcuts so callers never need to import quick/.

// WithLogger sets a custom zap logger.
var WithLogger = quick.WithLogger

// WithSinks adds message sinks.
var WithSinks = quick.WithSinks

// WithParticipants appends participants built in code.
var WithParticipants = quick.WithParticipants

// WithTracer overrides the OpenTelemetry tracer.
var WithTracer = quick.WithTracer

// WithMeter overrides the OpenTelemetry meter.
var WithMeter = quick.WithMeter

// NewRoundRobin is [groupchat.New].
var NewRoundRobin = groupchat.New
