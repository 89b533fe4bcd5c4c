// Package httpclient provides an HTTP client with built-in resilience.
//
// Responses are classified into guardkit remote errors, so 429s carry the
// server's Retry-After hint into the retry backoff, 5xx and connection
// failures count against the circuit breaker, and 4xx client errors are
// never retried. An adaptive rate limiter, when configured, contracts on
// throttling feedback and expands on sustained success.
//
//	client, err := httpclient.New(httpclient.Config{
//		Name:    "github",
//		BaseURL: "https://api.github.com",
//		Retry:   &retryCfg,
//	})
//
//	var repo Repo
//	resp, err := client.Get(ctx, "/repos/guardkit", nil)
//	if err == nil {
//		err = resp.JSON(&repo)
//	}
package httpclient
