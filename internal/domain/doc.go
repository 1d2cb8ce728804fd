// Package domain models insurance news items and the heuristics that turn them
// into map-ready records.
//
// # Data Sources
//
// Items arrive from two kinds of source adapters:
//
//	Feed sources     syndicated RSS/Atom search feeds (e.g. Google News queries).
//	                 Each feed is bound to one query, so its items carry a forced
//	                 category and skip the classifier.
//	Scrape sources   HTML listing pages without syndication. Press-release links
//	                 are harvested from the markup and go through the classifier.
//
// # Classification
//
// Two independent keyword sets are matched case-insensitively against
// "<title> <snippet>":
//
//	merger/acquisition: merger, acquisition, takeover, acquires, acquired, to acquire, buyout
//	major loss:         major loss, large loss, catastrophe, wildfire, flood, hurricane,
//	                    earthquake, typhoon, storm, explosion, fire, collapse, cyber
//
// Decision table:
//
//	MA  Loss  Result
//	yes no    M&A
//	no  yes   Major Loss
//	yes yes   Major Loss   (see [TieBreak])
//	no  no    rejected     ([ErrNoCategory])
//
// # Location Resolution
//
// A [LocationChain] tries each [LocationStrategy] in order and returns the first
// hit. The default chain is place-name recognition ([PlacesStrategy]) followed by
// the "City, Region" capitalized phrase fallback ([CommaPhraseStrategy]). The
// extracted string is geocoded verbatim; it is never normalized, so "London,
// England" and "London, UK" are distinct lookups.
//
// # Rejection
//
// An item that yields no category, no location, or no coordinates is rejected.
// Rejection is the expected steady state for most items and is never surfaced
// as a failure. See [EnrichItem].
package domain
