// Package crawler collects messages from a public channel web preview.
//
// # Components
//
//   - ParsePage: turns one channel page into normalized messages and a cursor
//   - Fetcher / HTTPFetcher: retrieves a page body, mapping failures to TransportError
//   - Crawler: walks older pages with the "before" cursor until a stop condition fires
//
// # Pagination
//
// The crawler fetches the channel index first and then older pages by passing
// the oldest message identifier of the previous page as "before". It stops when
// the requested number of messages is collected, a page is empty, the cursor
// does not move, or MaxPages pages have been fetched. Messages are deduplicated
// by exact text across pages.
//
// Pages are fetched one at a time. A rate limiter enforces the politeness delay
// between requests.
//
// # Usage
//
//	fetcher := crawler.NewHTTPFetcher(httpClient)
//	c := crawler.New(fetcher, "https://t.me/s/v2ray_dalghak", crawler.WithDelay(time.Second))
//	result, err := c.Crawl(ctx, 100)
package crawler
