package model

import "github.com/bsv-blockchain/go-bt/v2/chainhash"

// CoinbaseWitnessPlaceholder stands in for the coinbase wtxid when computing the witness commitment.
var CoinbaseWitnessPlaceholder chainhash.Hash
