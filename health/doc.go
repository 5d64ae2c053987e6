// Package health reports whether the bridge can serve tool calls.
//
// Checkers report a Status (Healthy, Degraded or Unhealthy). An Aggregator
// runs them together, and the HTTP handlers expose the result on the admin
// address:
//
//	/healthz  liveness, always OK while the process runs
//	/readyz   OK, DEGRADED or UNHEALTHY from all checks
//	/health   JSON detail per check
//
// UpstreamChecker derives TaoStats reachability from recent fetch outcomes
// instead of probing the API, so health checks never spend request budget.
package health
