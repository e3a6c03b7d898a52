// Package resilience groups the fault tolerance helpers used around outbound calls.
//
// The parser makes two kinds of outbound calls that can fail transiently: page fetches
// and LLM completions. Both go through a circuit breaker and a retry loop:
//
//	cb := circuitbreaker.New(circuitbreaker.PageFetchConfig())
//	err := retry.WithBackoff(ctx, retry.PageFetchConfig(), func() error {
//	    _, err := cb.Execute(func() (interface{}, error) {
//	        return fetchOnce(ctx, url)
//	    })
//	    return err
//	})
//
// The optional history store uses the database breaker from circuitbreaker.DBConfig.
package resilience
