// Package circuitsetup provides the shared compile/setup/prove/verify
// plumbing every circuit package in zklocus-core builds on, following
// the teacher's own save/load-artifact pattern (kamalakar45-ZKP-LR's
// saveCircuitData/loadCircuitData) but adapted to gnark's Groth16
// backend instead of PLONK, since the recursion gadgets this module
// relies on (std/recursion/groth16) target Groth16 specifically.
//
// Compiled constraint systems and their proving/verification keys are
// process-wide immutable singletons (spec.md §5): Compile compiles and
// sets up each circuit name at most once and caches the result for the
// lifetime of the process.
package circuitsetup

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	gnarklog "github.com/consensys/gnark/logger"

	"github.com/zklocus/zklocus-core/zkerr"
)

// Compiled is the process-wide artifact bundle for one circuit: its
// constraint system plus its Groth16 proving and verification keys.
// Once produced by Compile, a Compiled value is read-only.
type Compiled struct {
	Name  string
	Curve ecc.ID
	CCS   constraint.ConstraintSystem
	PK    groth16.ProvingKey
	VK    groth16.VerifyingKey
}

var (
	registryMu sync.Mutex
	registry   = map[string]*Compiled{}
)

// Compile builds (or returns the cached) constraint system, proving
// key and verification key for a named circuit over a given curve.
// The circuit argument only needs its shape populated (frontend
// fields), matching frontend.Compile's own contract.
func Compile(name string, curve ecc.ID, circuit frontend.Circuit) (*Compiled, error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if c, ok := registry[name]; ok {
		return c, nil
	}

	log := gnarklog.Logger()
	log.Info().Str("circuit", name).Str("curve", curve.String()).Msg("compiling circuit")

	ccs, err := frontend.Compile(curve.ScalarField(), r1cs.NewBuilder, circuit)
	if err != nil {
		return nil, fmt.Errorf("%w: compile %s: %v", zkerr.ProverFailure, name, err)
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("%w: setup %s: %v", zkerr.ProverFailure, name, err)
	}

	log.Info().Str("circuit", name).Int("constraints", ccs.GetNbConstraints()).Msg("circuit compiled")

	c := &Compiled{Name: name, Curve: curve, CCS: ccs, PK: pk, VK: vk}
	registry[name] = c
	return c, nil
}

// Get returns a previously compiled circuit's artifacts, if any.
func Get(name string) (*Compiled, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	c, ok := registry[name]
	return c, ok
}

// SaveToFile persists a compiled circuit's constraint system and keys
// to a single file, in the same sequential-WriteTo style the teacher
// uses for its PLONK cache file.
func (c *Compiled) SaveToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("circuitsetup: create cache file: %w", err)
	}
	defer f.Close()

	for _, w := range []io.WriterTo{c.CCS, c.PK, c.VK} {
		if _, err := w.WriteTo(f); err != nil {
			return fmt.Errorf("circuitsetup: write cache file: %w", err)
		}
	}
	return nil
}

// LoadFromFile reads back a cache file written by SaveToFile, and
// registers it under name for future Compile calls to reuse.
func LoadFromFile(name string, curve ecc.ID, path string) (*Compiled, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("circuitsetup: open cache file: %w", err)
	}
	defer f.Close()

	ccs := groth16.NewCS(curve)
	if _, err := ccs.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("circuitsetup: read constraint system: %w", err)
	}
	pk := groth16.NewProvingKey(curve)
	if _, err := pk.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("circuitsetup: read proving key: %w", err)
	}
	vk := groth16.NewVerifyingKey(curve)
	if _, err := vk.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("circuitsetup: read verifying key: %w", err)
	}

	c := &Compiled{Name: name, Curve: curve, CCS: ccs, PK: pk, VK: vk}

	registryMu.Lock()
	registry[name] = c
	registryMu.Unlock()

	return c, nil
}

// Prove solves the witness for assignment and produces a Groth16
// proof plus the public-only witness a verifier needs. opts is
// forwarded to groth16.Prove verbatim; a circuit recursively verified
// by an outer circuit (see circuits/oracle) passes
// std/recursion/groth16.GetNativeProverOptions here so its Fiat-Shamir
// hash-to-field matches what the outer in-circuit verifier expects.
func (c *Compiled) Prove(assignment frontend.Circuit, opts ...backend.ProverOption) (groth16.Proof, witness.Witness, error) {
	full, err := frontend.NewWitness(assignment, c.Curve.ScalarField())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: witness %s: %v", zkerr.ProverFailure, c.Name, err)
	}

	public, err := full.Public()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: public witness %s: %v", zkerr.ProverFailure, c.Name, err)
	}

	proof, err := groth16.Prove(c.CCS, c.PK, full, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: prove %s: %v", zkerr.ProverFailure, c.Name, err)
	}

	return proof, public, nil
}

// Verify checks a proof against this circuit's verification key.
func (c *Compiled) Verify(proof groth16.Proof, public witness.Witness) error {
	if err := groth16.Verify(proof, c.VK, public); err != nil {
		return fmt.Errorf("%w: verify %s: %v", zkerr.ProverFailure, c.Name, err)
	}
	return nil
}
