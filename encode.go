package ecomp

import (
	"github.com/pkg/errors"

	"github.com/jlsteenwyk/ecomp/block"
	"github.com/jlsteenwyk/ecomp/container"
	"github.com/jlsteenwyk/ecomp/model"
	"github.com/jlsteenwyk/ecomp/profile"
)

// Encode runs the five-stage pipeline (profile, aggregate, model, dictionary,
// frame) over frame and returns
// an archive (20-byte header plus payload) and its accompanying metadata
// document. A zero Config runs with DefaultConfig's settings.
func Encode(frame Frame, opts EncodeOptions, cfg Config) (archive []byte, metadata []byte, err error) {
	cfg = cfg.withDefaults()
	log := cfg.logger().With("op", "encode")

	if err := frame.validate(); err != nil {
		return nil, nil, newErr(MalformedInput, "validate", err)
	}
	numRows := len(frame.Sequences)
	if err := opts.validate(numRows); err != nil {
		return nil, nil, newErr(MalformedInput, "validate", err)
	}
	orderingStrategy := opts.OrderingStrategy
	if orderingStrategy == "" {
		orderingStrategy = "given"
	}

	storageIDs, storageRows := frame.Identifiers, frame.Sequences
	if opts.Permutation != nil {
		storageIDs = make([]string, numRows)
		storageRows = make([][]byte, numRows)
		for i, orig := range opts.Permutation {
			storageIDs[i] = frame.Identifiers[orig]
			storageRows[i] = frame.Sequences[orig]
		}
	}

	log.Debug("profiling columns", "rows", numRows)
	cols, err := profile.Columns(storageRows)
	if err != nil {
		return nil, nil, newErr(MalformedInput, "profiler", err)
	}
	alignmentLength := len(cols)

	log.Debug("aggregating runs", "columns", alignmentLength)
	blocks := block.Aggregate(cols)

	residuesByConsensus := map[byte][]byte{}
	for _, b := range blocks {
		for _, d := range b.Pattern.Deviations {
			residuesByConsensus[b.Pattern.Consensus] = append(residuesByConsensus[b.Pattern.Consensus], d.Residue)
		}
	}
	models := make(map[byte]*model.Model, len(residuesByConsensus))
	for consensus, residues := range residuesByConsensus {
		models[consensus] = model.Build(consensus, residues, cfg.HuffmanMaxCodeLength)
	}
	log.Debug("built consensus models", "count", len(models))

	dict := block.Build(blocks, models, numRows, cfg.DictionaryCap)
	log.Debug("built dictionary", "entries", len(dict.Entries), "blocks", len(blocks))

	structuralPayload, err := encodePayload(numRows, models, dict, blocks)
	if err != nil {
		return nil, nil, err
	}

	var chunkPayload []byte
	if opts.Permutation != nil {
		permChunk, err := container.EncodePermutation(opts.Permutation)
		if err != nil {
			return nil, nil, newErr(MalformedInput, "container", errors.WithStack(err))
		}
		chunkPayload = append(chunkPayload, permChunk...)
	}
	idChunk, err := container.EncodeIdentifiers(storageIDs)
	if err != nil {
		return nil, nil, newErr(MalformedInput, "container", errors.WithStack(err))
	}
	chunkPayload = append(chunkPayload, idChunk...)
	chunkPayload = append(chunkPayload, structuralPayload...)

	encoding, encodedPayload, err := container.EncodeOuter(chunkPayload)
	if err != nil {
		return nil, nil, newErr(MalformedInput, "outer-coding", errors.WithStack(err))
	}
	log.Debug("outer coded", "encoding", encoding, "raw_bytes", len(chunkPayload), "encoded_bytes", len(encodedPayload))

	fastaStream := fastaBytes(frame.Identifiers, frame.Sequences)
	gzipStream, err := gzipCompress(fastaStream)
	if err != nil {
		return nil, nil, newErr(MalformedInput, "fallback", err)
	}

	meta := Metadata{
		"format_version":    1,
		"codec":             "ecomp",
		"num_sequences":     numRows,
		"alignment_length":  alignmentLength,
		"alphabet":          alphabetOf(frame.Sequences),
		"sequence_id_codec": "inline",
		"ordering_strategy": orderingStrategy,
		"checksum_sha256":   checksumSHA256(frame.Sequences),
	}

	var chosenPayload []byte
	if len(gzipStream) < len(encodedPayload) {
		log.Debug("fallback wins", "gzip_bytes", len(gzipStream), "structural_bytes", len(encodedPayload))
		chosenPayload = gzipStream
		meta["payload_encoding"] = string(container.EncodingGzip)
		meta["bits_per_symbol"] = 8
		meta["bitmask_bytes"] = 0
		meta["fallback"] = Metadata{"type": "gzip", "format": "fasta"}
	} else {
		chosenPayload = encodedPayload
		meta["payload_encoding"] = string(encoding)
		meta["bits_per_symbol"] = maxBitsPerSymbol(models)
		meta["bitmask_bytes"] = (numRows + 7) / 8
		meta["payload_raw_bytes"] = len(chunkPayload)
		meta["payload_encoded_bytes"] = len(encodedPayload)
		stats := computeStats(cols, blocks, len(chunkPayload), len(encodedPayload))
		meta["run_length_blocks"] = stats.RunLengthBlocks
		meta["max_run_length"] = stats.MaxRunLength
		meta["columns_with_deviations"] = stats.ColumnsWithDeviations
		if opts.Permutation != nil {
			meta["sequence_permutation"] = Metadata{"encoding": "payload"}
		}
	}

	h := header{Major: VersionMajor, Minor: VersionMinor, Patch: VersionPatch, PayloadLength: uint64(len(chosenPayload))}
	archive = append(encodeHeader(h), chosenPayload...)

	metadata, err = MarshalMetadata(meta)
	if err != nil {
		return nil, nil, err
	}
	return archive, metadata, nil
}

func alphabetOf(sequences [][]byte) []string {
	var seen [256]bool
	for _, seq := range sequences {
		for _, b := range seq {
			seen[b] = true
		}
	}
	var alphabet []string
	for b := 0; b < 256; b++ {
		if seen[b] {
			alphabet = append(alphabet, string([]byte{byte(b)}))
		}
	}
	return alphabet
}

func maxBitsPerSymbol(models map[byte]*model.Model) int {
	max := 0
	for _, m := range models {
		if m.Mode == model.ModeFixed && int(m.BitsPerSymbol) > max {
			max = int(m.BitsPerSymbol)
		}
	}
	return max
}
