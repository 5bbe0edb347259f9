// Copyright 2018 MPI-SWS, Valentin Wuestholz, and ConsenSys AG

// This file is part of Bran.
//
// Bran is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Bran is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Bran.  If not, see <https://www.gnu.org/licenses/>.

package analysis

import (
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Config tunes a JumpdestAnalyzer.
type Config struct {
	// CacheSize is the number of verified dictionaries kept, keyed by code hash.
	CacheSize int
}

// DefaultConfig is the analyzer configuration used by the CLI.
var DefaultConfig = Config{
	CacheSize: 1024,
}

// JumpdestAnalyzer verifies witnesses against code and keeps the resulting
// dictionaries around, so each piece of code is proven at most once while it
// stays cached. It is safe for concurrent use.
type JumpdestAnalyzer struct {
	dicts *lru.Cache[common.Hash, *Dictionary]
	log   log.Logger

	mu            sync.Mutex
	numSuccess    uint64
	numFail       uint64
	numCacheHits  uint64
	failureCauses map[string]uint64
	time          time.Duration
}

func NewJumpdestAnalyzer(cfg Config) (*JumpdestAnalyzer, error) {
	if cfg.CacheSize <= 0 {
		return nil, fmt.Errorf("invalid cache size %d", cfg.CacheSize)
	}
	dicts, err := lru.New[common.Hash, *Dictionary](cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return &JumpdestAnalyzer{
		dicts:         dicts,
		log:           log.New("module", "jumpdest"),
		failureCauses: map[string]uint64{},
	}, nil
}

// Verify canonicalizes the witness and checks it against code.
func (a *JumpdestAnalyzer) Verify(code []byte, w Witness) (*Dictionary, error) {
	start := time.Now()
	defer a.stopTimer(start)

	codeHash := crypto.Keccak256Hash(code)
	sorted, err := Canonicalize(w)
	if err != nil {
		a.recordFailure(codeHash, err)
		return nil, err
	}
	if dict, ok := a.dicts.Get(codeHash); ok && dict.matches(sorted) {
		a.recordCacheHit()
		return dict, nil
	}
	// A cached dictionary that disagrees with the witness still needs the
	// full walk to report which entry is wrong.
	dict, err := Finalize(code, sorted)
	if err != nil {
		a.recordFailure(codeHash, err)
		return nil, err
	}
	a.dicts.Add(codeHash, dict)
	a.recordSuccess(dict)
	return dict, nil
}

// Analyze derives the witness from code itself and verifies it.
func (a *JumpdestAnalyzer) Analyze(code []byte) (*Dictionary, error) {
	return a.Verify(code, WitnessFromPositions(Scan(code)))
}

// Lookup returns the cached dictionary for a code hash, if any.
func (a *JumpdestAnalyzer) Lookup(codeHash common.Hash) (*Dictionary, bool) {
	return a.dicts.Peek(codeHash)
}

func (a *JumpdestAnalyzer) stopTimer(start time.Time) {
	a.mu.Lock()
	a.time += time.Since(start)
	a.mu.Unlock()
}

func (a *JumpdestAnalyzer) recordSuccess(dict *Dictionary) {
	a.mu.Lock()
	a.numSuccess++
	a.mu.Unlock()
	a.log.Debug("Verified jump destinations", "codehash", dict.CodeHash(), "size", dict.Len(), "codelen", dict.CodeLen())
}

func (a *JumpdestAnalyzer) recordCacheHit() {
	a.mu.Lock()
	a.numSuccess++
	a.numCacheHits++
	a.mu.Unlock()
}

func (a *JumpdestAnalyzer) recordFailure(codeHash common.Hash, err error) {
	cause := FailureCause(err)
	a.mu.Lock()
	a.numFail++
	a.failureCauses[cause]++
	a.mu.Unlock()
	a.log.Warn("Rejected jump destination witness", "codehash", codeHash, "cause", cause, "err", err)
}

func (a *JumpdestAnalyzer) NumSuccess() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.numSuccess
}

func (a *JumpdestAnalyzer) NumFail() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.numFail
}

func (a *JumpdestAnalyzer) NumCacheHits() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.numCacheHits
}

func (a *JumpdestAnalyzer) Time() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.time
}

func (a *JumpdestAnalyzer) FailureCauses() map[string]uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	fcs := map[string]uint64{}
	for cause, cnt := range a.failureCauses {
		fcs[cause] = cnt
	}
	return fcs
}
