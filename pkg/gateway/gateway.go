// Package gateway provides the public API for embedding the chat gateway.
package gateway

import (
	"github.com/tracedchat/chat-gateway/internal/runtime"
)

// Gateway is the main entry point for running the chat gateway.
// See internal/runtime.Gateway for full documentation.
type Gateway = runtime.Gateway

// Option is a functional option for configuring a Gateway.
type Option = runtime.Option

// New creates a new Gateway with the given options.
// Example:
//
//	gw, err := gateway.New(
//	    gateway.WithConfigFile("config.yaml"),
//	    gateway.WithLogger(logger),
//	)
var New = runtime.New

// Configuration options
var (
	// Config sources
	WithConfig     = runtime.WithConfig
	WithConfigFile = runtime.WithConfigFile

	// Collaborators
	WithProvider = runtime.WithProvider
	WithRecorder = runtime.WithRecorder

	WithLogger = runtime.WithLogger
)
