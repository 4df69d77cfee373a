// Package compress implements the codec set Parquet segment and data
// files use (spec §4.6): LZ4 raw (the default write codec), a
// Hadoop-framed LZ4 variant, and read-only Snappy/Gzip/Zstd. Writers
// always fall back to storing the block uncompressed when compression
// would not shrink it, so Decompress must dispatch on a codec tag
// rather than assume every block is compressed.
package compress
