package common

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
)

// CheckOwnerWitness checks witness of the stored owner of some asset.
// It panics with the given message on fail.
func CheckOwnerWitness(owner interop.Hash160, panicMsg string) {
	if !runtime.CheckWitness(owner) {
		panic(panicMsg)
	}
}
