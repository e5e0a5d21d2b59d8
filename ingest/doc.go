// Package ingest implements chunked parallel bulk loading of delimited-text
// records into a sink index.
//
// The Pipeline type splits the incoming byte stream into fixed-size chunks
// and parses them concurrently on a worker pool. Records that straddle a
// chunk boundary are reconstructed exactly once by a per-boundary rendezvous
// between neighboring chunk jobs. A counting permit pool bounds the number
// of in-flight chunks, and a completion barrier gates the final result until
// every chunk and every boundary stitch has finished.
//
// A bulk load produces either a Result with the committed sink sequence and
// the number of records indexed, or the first error any chunk encountered,
// never both.
package ingest
