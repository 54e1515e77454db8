package nebula

import (
	"time"

	"github.com/san-kum/nebula/internal/grid"
)

// Observer is notified by the engine from the goroutine driving it.
type Observer interface {
	OnReset(shape grid.Shape)
	OnStep(gen uint64, dt float64, took time.Duration)
	OnRejectedDelta(delta float64)
}

type observers []Observer

func (o observers) OnReset(shape grid.Shape) {
	for _, obs := range o {
		obs.OnReset(shape)
	}
}

func (o observers) OnStep(gen uint64, dt float64, took time.Duration) {
	for _, obs := range o {
		obs.OnStep(gen, dt, took)
	}
}

func (o observers) OnRejectedDelta(delta float64) {
	for _, obs := range o {
		obs.OnRejectedDelta(delta)
	}
}
