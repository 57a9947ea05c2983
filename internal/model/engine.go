// Package model invokes the externally supplied computation model that turns
// a raw sensor reading into agronomic state.
//
// The model is hot-loadable JavaScript evaluated by an embedded interpreter
// (goja). Only the calling contract is owned here: the script must define
//
//	Physics.processSensorReading(rawReading, temperatureC, timestampSeconds)
//
// returning an object with at least theta, status, psi_kpa, aw_mm and
// confidence. Any embedded interpreter, subprocess, or statically linked
// plugin satisfying the Engine interface is substitutable.
package model

import (
	"github.com/agriscan/agriscan/internal/logging"
)

var log = logging.Component("model")

// Result is the structured output of one model evaluation.
//
// Theta through Confidence are required by the contract; the remaining fields
// are captured when the model supplies them and left at their zero value
// otherwise.
type Result struct {
	Theta      float64
	Status     string
	PsiKPa     float64
	AwMM       float64
	Confidence float64

	ThetaFC          float64
	ThetaRefill      float64
	FractionDepleted float64
	DryingRate       float64
	Regime           string
	Urgency          string
	QCValid          bool
}

// Engine evaluates the computation model for one reading.
//
// Evaluate must be called from a single goroutine: the acquisition path is
// single-threaded by design and engine implementations are not required to
// be concurrency-safe.
type Engine interface {
	Evaluate(rawReading int, temperatureC float64, timestamp int64) (*Result, error)
}
