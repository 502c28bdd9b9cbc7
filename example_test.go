package ecomp_test

import (
	"fmt"

	"github.com/jlsteenwyk/ecomp"
)

func Example() {
	frame := ecomp.Frame{
		Identifiers: []string{"human", "chimp", "gorilla"},
		Sequences: [][]byte{
			[]byte("ACGTACGT"),
			[]byte("ACGTACGT"),
			[]byte("ACGTACGA"),
		},
	}

	archive, metadata, err := ecomp.Encode(frame, ecomp.EncodeOptions{}, ecomp.DefaultConfig())
	if err != nil {
		panic(err)
	}

	decoded, _, err := ecomp.Decode(archive, metadata, ecomp.DefaultConfig())
	if err != nil {
		panic(err)
	}

	fmt.Println(len(decoded.Sequences) == len(frame.Sequences))
}
