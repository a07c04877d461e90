// Package httputil holds the retry policy shared by the storage client and the
// relay's persistence path.
//
// # Retry
//
// [Retry] re-runs an operation while it fails with a [RetryableError], backing
// off exponentially between attempts:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := http.Get(url)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// Any other error ends the loop at once. Wrap network failures and 5xx
// responses; leave 4xx answers and decoding errors unwrapped.
package httputil
