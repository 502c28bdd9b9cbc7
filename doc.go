// Package ecomp implements the core codec of a lossless multiple sequence
// alignment compressor: column-consensus modelling with sparse deviation
// capture, run-length aggregation, per-consensus fixed-width/Huffman symbol
// models, a deviation-pattern dictionary, and a bounded container format
// with optional outer entropy coding and a gzip-of-FASTA fallback.
//
// Encode and Decode are the two entry points; everything else is exported
// subpackage machinery (profile, block, model, bitmask, container) that a
// caller assembling a custom pipeline stage can use directly.
package ecomp
