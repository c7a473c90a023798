// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reputation

import (
	"github.com/pkg/errors"

	"github.com/vechain/mutual/mutual"
	"github.com/vechain/mutual/state"
)

// Service stores validator records in state.
type Service struct {
	records *state.Mapping[mutual.Bytes32, Record]
}

func New(st *state.State) *Service {
	return &Service{records: state.NewMapping[mutual.Bytes32, Record](st, "validator-records")}
}

func recordKey(pool, validator mutual.Address) mutual.Bytes32 {
	return mutual.Blake2b(pool.Bytes(), validator.Bytes())
}

// Get returns the record of validator in pool, nil if never staked.
func (s *Service) Get(pool, validator mutual.Address) (*Record, error) {
	rec, exist, err := s.records.Get(recordKey(pool, validator))
	if err != nil {
		return nil, errors.Wrap(err, "get validator record")
	}
	if !exist {
		return nil, nil
	}
	return &rec, nil
}

// Set stores the record.
func (s *Service) Set(rec *Record) error {
	if err := s.records.Set(recordKey(rec.Pool, rec.Validator), *rec); err != nil {
		return errors.Wrap(err, "set validator record")
	}
	return nil
}
