// Package instrument provides reactive.Spy implementations that export
// runtime activity: Metrics records Prometheus counters and histograms, and
// Tracing emits OpenTelemetry spans. Combine them with reactive.MultiSpy:
//
//	rt := reactive.NewRuntime(reactive.WithSpy(reactive.MultiSpy(
//	    instrument.NewMetrics(instrument.WithRegistry(reg)),
//	    instrument.NewTracing(),
//	)))
package instrument
