package feed

import (
	"context"
	"sync"
)

// Result is the outcome of fetching one target. FetchAll produces exactly
// one Result per URL it was given, success or failure.
type Result struct {
	URL string
	Doc *Document
	Err error
}

// FetchAll fans urls out to at most limit concurrent fetches and streams the
// results back in completion order. The channel closes once every target has
// produced its Result; callers that care which target a result belongs to
// must key on Result.URL, not arrival order. Failures surface as Result.Err
// and never stop the rest of the batch.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string, limit int) <-chan Result {
	results := make(chan Result)

	if len(urls) == 0 {
		close(results)
		return results
	}

	if limit < 1 {
		limit = 1
	}
	if limit > len(urls) {
		limit = len(urls)
	}

	tasks := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < limit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for url := range tasks {
				doc, err := f.Fetch(ctx, url)
				results <- Result{URL: url, Doc: doc, Err: err}
			}
		}()
	}

	go func() {
		for _, url := range urls {
			tasks <- url
		}
		close(tasks)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}
