package model

import (
	apperrors "github.com/agriscan/agriscan/internal/errors"
	"github.com/agriscan/agriscan/internal/metrics"
	"github.com/agriscan/agriscan/internal/store"
)

// Bridge converts raw readings into Samples via the computation model.
//
// A nil or failing engine never stops the acquisition loop: the bridge then
// returns a sample carrying only the raw reading, temperature and timestamp,
// with every derived field unset and QCValid false. Quality, not presence,
// signals failure; downstream consumers always get one well-formed record
// per tick.
type Bridge struct {
	engine Engine
}

// NewBridge creates a Bridge. engine may be nil when the model failed to
// load; the bridge then always takes the fallback path.
func NewBridge(engine Engine) *Bridge {
	return &Bridge{engine: engine}
}

// Available reports whether a model engine is loaded.
func (b *Bridge) Available() bool {
	return b.engine != nil
}

// Process evaluates the model for one reading and assembles the sample.
func (b *Bridge) Process(rawReading int, temperatureC float64, timestamp int64) store.Sample {
	sm := store.Sample{
		Timestamp: timestamp,
		RawADC:    rawReading,
		TempC:     temperatureC,
	}

	if b.engine == nil {
		metrics.ModelErrors.Inc()
		log.Warn("model unavailable, sample flagged invalid",
			"timestamp", timestamp, "error", apperrors.ErrModelUnavailable)
		return sm
	}

	res, err := b.engine.Evaluate(rawReading, temperatureC, timestamp)
	if err != nil {
		metrics.ModelErrors.Inc()
		log.Warn("model evaluation failed, sample flagged invalid",
			"timestamp", timestamp, "error", err)
		return sm
	}

	sm.Theta = res.Theta
	sm.ThetaFC = res.ThetaFC
	sm.ThetaRefill = res.ThetaRefill
	sm.PsiKPa = res.PsiKPa
	sm.AwMM = res.AwMM
	sm.FractionDepleted = res.FractionDepleted
	sm.DryingRate = res.DryingRate
	sm.Regime = res.Regime
	sm.Status = res.Status
	sm.Urgency = res.Urgency
	sm.Confidence = res.Confidence
	sm.QCValid = res.QCValid
	return sm
}
