// Package domain models incident reports flowing through the correlation
// pipeline.
//
// # Data Source
//
// Reports originate from external fetcher services (RSS/Atom news feeds,
// flight-tracking feeds, construction permit records). Fetchers normalize
// each report into a flat JSON item and publish it to the Kafka source topic;
// the pipeline never talks to a feed directly.
//
// # Fingerprinting
//
// Near-duplicate suppression uses a 64-bit simhash over the concatenated
// title and summary. Text is lowercased, reduced to letter/digit runs, and
// shingled into overlapping 4-character features; each feature is hashed with
// FNV-1a and votes on every output bit. Two reports of the same incident with
// minor wording differences land on identical or nearby fingerprints, while
// unrelated texts almost never collide. Duplicate detection compares
// fingerprints for exact equality within a sliding time window; see the dedup
// package. The fingerprint is computed once from the immutable input text and
// never recomputed.
//
// # Categories
//
// A derived event category is assigned from a fixed keyword list (robbery,
// assault, burglary, shooting, fire, crash, arrest). Reports matching no
// keyword are categorized "other". Flight and permit feeds keep their source
// kind as the category since their payloads carry no prose to classify.
//
// # Flagged Zones
//
// The flagging engine buckets geocoded events by latitude and longitude
// independently rounded to 3 decimal places (roughly a 110 m grid cell) and
// flags a bucket only when strictly more than two distinct source identifiers
// contribute to it inside the rolling temporal window. A single source
// repeating itself can never raise a flag. A second artifact narrows the
// flagged set to zones whose earliest contributing event is at most 7 days
// old. Zones are derived aggregates, recomputed on every pass, never stored.
package domain
