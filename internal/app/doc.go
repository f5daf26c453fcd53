// Package app wires the lobstats HTTP service together and manages its
// lifecycle.
//
// # Initialization Flow
//
//	1. Initialize OpenTelemetry and the business metrics
//	2. Build the dataset cache, facade and optional result cache
//	3. Create the stats and health services
//	4. Set up middleware and routes
//	5. Configure the HTTP server
//
// Start optionally preloads the dataset before serving. Stop shuts the server
// down, stops the result cache sweeper and flushes telemetry.
//
// # Usage
//
//	application, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run()
package app
