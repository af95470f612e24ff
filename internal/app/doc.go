// Package app wires the Flow Pulse service together and manages its lifecycle.
//
// # Initialization Flow
//
//  1. Initialize OpenTelemetry from the telemetry configuration
//  2. Open the configured storage backend and wrap it in the retention store
//  3. Create the websocket hub and the equipment and health services
//  4. Assemble the chi router and its middleware chain
//  5. Create the HTTP server
//
// # Middleware Order
//
//	RequestID → RealIP → Recovery → OTel → StructuredLogger → SecurityHeaders
//	→ CORS → RateLimit → Timeout → routes
//
// /metrics and /ws are registered before the group so neither is subject to
// the request timeout. Dataset routes and /ws additionally require the owner
// header.
//
// # Usage
//
//	cfg, _ := config.Load()
//	logger, _ := infrastructure.InitializeLogger(cfg.Logging)
//	application, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run()
package app
