// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vrf implements a randomness oracle producing ECVRF proofs over secp256k1.
package vrf

import (
	"crypto/ecdsa"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	"github.com/qianbin/drlp"
	"github.com/vechain/go-ecvrf"

	"github.com/vechain/mutual/co"
	"github.com/vechain/mutual/log"
	"github.com/vechain/mutual/metrics"
	"github.com/vechain/mutual/mutual"
	"github.com/vechain/mutual/randomness"
)

var (
	logger = log.WithContext("pkg", "vrf")

	metricFulfilled = metrics.LazyLoadCounterVec("vrf_fulfilled_count", []string{"purpose", "result"})
)

// FulfillFunc delivers randomness for a request.
type FulfillFunc func(id, randomness mutual.Bytes32) error

// Output is the proof produced for a request.
type Output struct {
	Alpha []byte
	Beta  []byte
	Proof []byte
}

type job struct {
	id      mutual.Bytes32
	purpose randomness.Purpose
	alpha   []byte
}

// Oracle proves every requested alpha with its key on a background worker
// and hands the resulting beta to the fulfill callback.
type Oracle struct {
	key     *ecdsa.PrivateKey
	session []byte // keeps ids of a restarted oracle apart from earlier ones

	lock    sync.Mutex
	nonce   uint64
	queue   []job
	outputs map[mutual.Bytes32]*Output

	wakeup co.Wakeup
	goes   co.Goes
	done   chan struct{}
}

var _ randomness.Oracle = (*Oracle)(nil)

// New creates an oracle with the given secp256k1 key.
func New(key *ecdsa.PrivateKey) *Oracle {
	return &Oracle{
		key:     key,
		session: uuid.NewRandom(),
		outputs: make(map[mutual.Bytes32]*Output),
		done:    make(chan struct{}),
	}
}

// PublicKey returns the key proofs can be verified against.
func (o *Oracle) PublicKey() *ecdsa.PublicKey {
	return &o.key.PublicKey
}

// Request queues alpha for proving and returns the request id immediately.
func (o *Oracle) Request(purpose randomness.Purpose, alpha []byte) (mutual.Bytes32, error) {
	o.lock.Lock()
	o.nonce++
	id := mutual.Blake2b(crypto.CompressPubkey(&o.key.PublicKey), o.session, drlp.AppendUint(nil, o.nonce), alpha)
	o.queue = append(o.queue, job{id: id, purpose: purpose, alpha: append([]byte(nil), alpha...)})
	o.lock.Unlock()

	o.wakeup.Notify()
	return id, nil
}

// Output returns the proof produced for request id.
func (o *Oracle) Output(id mutual.Bytes32) (*Output, bool) {
	o.lock.Lock()
	defer o.lock.Unlock()

	out, ok := o.outputs[id]
	return out, ok
}

// Pending returns the number of requests not yet delivered.
func (o *Oracle) Pending() int {
	o.lock.Lock()
	defer o.lock.Unlock()

	return len(o.queue)
}

// Start runs the worker delivering results to fulfill until Stop is called.
func (o *Oracle) Start(fulfill FulfillFunc) {
	o.goes.Go(func() { o.loop(fulfill) })
}

// Stop stops the worker and waits for it to exit.
func (o *Oracle) Stop() {
	close(o.done)
	o.goes.Wait()
}

func (o *Oracle) loop(fulfill FulfillFunc) {
	for {
		for {
			j, ok := o.next()
			if !ok {
				break
			}
			o.process(j, fulfill)
			select {
			case <-o.done:
				return
			default:
			}
		}

		select {
		case <-o.done:
			return
		case <-o.wakeup.C():
		}
	}
}

func (o *Oracle) next() (job, bool) {
	o.lock.Lock()
	defer o.lock.Unlock()

	if len(o.queue) == 0 {
		return job{}, false
	}
	j := o.queue[0]
	o.queue = o.queue[1:]
	return j, true
}

func (o *Oracle) process(j job, fulfill FulfillFunc) {
	beta, proof, err := ecvrf.Secp256k1Sha256Tai.Prove(o.key, j.alpha)
	if err != nil {
		logger.Error("failed to prove", "id", j.id, "err", err)
		metricFulfilled().AddWithLabel(1, map[string]string{"purpose": j.purpose.String(), "result": "prove-error"})
		return
	}

	o.lock.Lock()
	o.outputs[j.id] = &Output{Alpha: j.alpha, Beta: beta, Proof: proof}
	o.lock.Unlock()

	if err := fulfill(j.id, mutual.BytesToBytes32(beta)); err != nil {
		logger.Warn("randomness not accepted", "id", j.id, "purpose", j.purpose, "err", err)
		metricFulfilled().AddWithLabel(1, map[string]string{"purpose": j.purpose.String(), "result": "rejected"})
		return
	}
	logger.Debug("randomness delivered", "id", j.id, "purpose", j.purpose)
	metricFulfilled().AddWithLabel(1, map[string]string{"purpose": j.purpose.String(), "result": "ok"})
}

// Verify checks proof of alpha against pub and returns the randomness it commits to.
func Verify(pub *ecdsa.PublicKey, alpha, proof []byte) (mutual.Bytes32, error) {
	beta, err := ecvrf.Secp256k1Sha256Tai.Verify(pub, alpha, proof)
	if err != nil {
		return mutual.Bytes32{}, errors.Wrap(err, "verify vrf proof")
	}
	return mutual.BytesToBytes32(beta), nil
}
