// Package instrumentation provides OpenTelemetry instrumentation for calchat.
//
// Metrics:
//   - http_requests_total, http_request_duration_seconds: web surface requests
//   - active_sessions: conversations held by the session store
//   - chat_turns_total, chat_turn_duration_seconds: agent runs by status
//   - llm_requests_total: chat completion round trips by model and status
//   - tool_invocations_total, tool_duration_seconds: calendar tool calls
//   - calendar_operations_total, calendar_operation_duration_seconds: Google Calendar API calls
//   - credential_obtain_total: credential acquisitions by outcome (valid, refreshed, consent, failure)
//
// Spans are created for agent turns (agent.run), tool invocations
// (tool.<name>) and calendar API calls (calendar.<operation>).
//
// Configuration comes from the environment:
//   - INSTRUMENTATION_ENABLED: enable/disable instrumentation (default: false)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces and metrics
//   - OTEL_TRACES_SAMPLER_ARG: sampling rate between 0.0 and 1.0 (default: 0.1)
//   - OTEL_SERVICE_NAME: service name (default: calchat)
//
// A disabled provider hands out a Metrics value whose recorders are no-ops,
// so callers never need to check whether instrumentation is on. A nil
// *Metrics is also safe to record on.
package instrumentation
