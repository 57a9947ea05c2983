package model

import (
	"fmt"
	"os"

	"github.com/dop251/goja"

	apperrors "github.com/agriscan/agriscan/internal/errors"
)

// JSEngine evaluates the physics model with an embedded JavaScript
// interpreter. The script is loaded once at startup; a load failure leaves
// the node running with the fallback path (every sample flagged qc_valid
// false) rather than halting acquisition.
//
// JSEngine is not safe for concurrent use. The acquisition loop is its only
// caller.
type JSEngine struct {
	vm      *goja.Runtime
	process goja.Callable
	physics *goja.Object
}

// LoadScript reads the model script from path and compiles it.
func LoadScript(path string) (*JSEngine, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, "read model script %s", path)
	}
	return NewJSEngine(string(code))
}

// NewJSEngine compiles the given script source and resolves the
// Physics.processSensorReading entry point.
func NewJSEngine(src string) (*JSEngine, error) {
	vm := goja.New()

	if _, err := vm.RunString(src); err != nil {
		return nil, apperrors.Wrap(err, "evaluate model script")
	}

	physicsVal := vm.Get("Physics")
	if physicsVal == nil || goja.IsUndefined(physicsVal) || goja.IsNull(physicsVal) {
		return nil, fmt.Errorf("script does not define Physics: %w", apperrors.ErrModelUnavailable)
	}
	physics := physicsVal.ToObject(vm)

	process, ok := goja.AssertFunction(physics.Get("processSensorReading"))
	if !ok {
		return nil, fmt.Errorf("Physics.processSensorReading is not a function: %w", apperrors.ErrModelUnavailable)
	}

	log.Info("physics model loaded")

	return &JSEngine{
		vm:      vm,
		process: process,
		physics: physics,
	}, nil
}

// Evaluate calls Physics.processSensorReading(raw, temp, ts) and decodes the
// returned object.
func (e *JSEngine) Evaluate(rawReading int, temperatureC float64, timestamp int64) (*Result, error) {
	ret, err := e.process(e.physics,
		e.vm.ToValue(rawReading),
		e.vm.ToValue(temperatureC),
		e.vm.ToValue(timestamp))
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrModelEval, "%v", err)
	}

	if ret == nil || goja.IsUndefined(ret) || goja.IsNull(ret) {
		return nil, apperrors.Wrap(apperrors.ErrModelResult, "model returned no object")
	}

	return e.decode(ret.ToObject(e.vm))
}

// decode extracts the result contract from the returned object. Required
// fields left undefined decode to their zero value; qc_valid defaults to
// true on a successful evaluation unless the model says otherwise.
func (e *JSEngine) decode(obj *goja.Object) (*Result, error) {
	res := &Result{QCValid: true}

	res.Theta = e.num(obj, "theta")
	res.Status = e.str(obj, "status")
	res.PsiKPa = e.num(obj, "psi_kpa")
	res.AwMM = e.num(obj, "aw_mm")
	res.Confidence = e.num(obj, "confidence")

	res.ThetaFC = e.num(obj, "theta_fc")
	res.ThetaRefill = e.num(obj, "theta_refill")
	res.FractionDepleted = e.num(obj, "fraction_depleted")
	res.DryingRate = e.num(obj, "drying_rate")
	res.Regime = e.str(obj, "regime")
	res.Urgency = e.str(obj, "urgency")

	if v := obj.Get("qc_valid"); defined(v) {
		res.QCValid = v.ToBoolean()
	}

	return res, nil
}

func (e *JSEngine) num(obj *goja.Object, key string) float64 {
	if v := obj.Get(key); defined(v) {
		return v.ToFloat()
	}
	return 0
}

func (e *JSEngine) str(obj *goja.Object, key string) string {
	if v := obj.Get(key); defined(v) {
		return v.String()
	}
	return ""
}

func defined(v goja.Value) bool {
	return v != nil && !goja.IsUndefined(v) && !goja.IsNull(v)
}
