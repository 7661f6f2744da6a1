package window

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"spl/lib/component/operator/tengo"
	"spl/lib/properties"
	win "spl/lib/window"
	"spl/spl"
)

const (
	SlidingWindow  = "sliding"
	IntervalWindow = "interval"
)

var (
	WindowTypeProperty = properties.NewProperty[string]("window", "window type, sliding or interval.", SlidingWindow)

	EvictionProperty          = properties.NewProperty[string]("eviction", "eviction policy, count, delta, time or event-time.", "count")
	EvictionSizeProperty      = properties.NewProperty[int]("eviction-size", "tuples kept by a count eviction.", 1)
	EvictionDeltaProperty     = properties.NewProperty[float64]("eviction-delta", "bound of a delta eviction.", 0.0)
	EvictionDurationProperty  = properties.NewProperty[time.Duration]("eviction-duration", "age bound of a time or event-time eviction.", time.Second)
	EvictionAttributeProperty = properties.NewProperty[string]("eviction-attribute", "tengo expression returning the delta attribute of an event.", "")

	TriggerProperty          = properties.NewProperty[string]("trigger", "trigger policy, count, delta, time or event-time.", "count")
	TriggerSizeProperty      = properties.NewProperty[int]("trigger-size", "tuples between two count triggers.", 1)
	TriggerDeltaProperty     = properties.NewProperty[float64]("trigger-delta", "bound of a delta trigger.", 0.0)
	TriggerDurationProperty  = properties.NewProperty[time.Duration]("trigger-duration", "period of a time or event-time trigger.", time.Second)
	TriggerAttributeProperty = properties.NewProperty[string]("trigger-attribute", "tengo expression returning the delta attribute of an event.", "")

	PartitionProperty              = properties.NewProperty[string]("partition", "tengo expression returning the partition key, empty for one partition.", "")
	PartitionEvictionProperty      = properties.NewProperty[string]("partition-eviction", "partition eviction, none, age, count or tuple-count.", "none")
	PartitionEvictionBoundProperty = properties.NewProperty[int]("partition-eviction-bound", "bound of a count or tuple-count partition eviction.", 0)
	PartitionEvictionAgeProperty   = properties.NewProperty[time.Duration]("partition-eviction-age", "idle age of an age partition eviction.", time.Duration(0))

	ReduceProperty     = properties.NewProperty[string]("reduce", "tengo script folding the `events` of a trigger into `result`, empty emits the events.", "")
	ResolutionProperty = properties.NewProperty[time.Duration]("resolution", "tick interval of time based eviction and trigger.", 100*time.Millisecond)

	IntervalDurationProperty = properties.NewProperty[time.Duration]("interval-duration", "event time length of an interval pane.", time.Minute)
	IntervalPeriodProperty   = properties.NewProperty[time.Duration]("interval-period", "distance between two pane starts, zero for tumbling panes.", time.Duration(0))
	IntervalOffsetProperty   = properties.NewProperty[time.Duration]("interval-offset", "offset of pane starts from the epoch.", time.Duration(0))
	IntervalDiscardProperty  = properties.NewProperty[time.Duration]("interval-discard", "how long a pane accepts late events after it completed.", time.Duration(0))

	propertiesDef = spl.PropertiesDef{
		WindowTypeProperty,
		EvictionProperty, EvictionSizeProperty, EvictionDeltaProperty, EvictionDurationProperty, EvictionAttributeProperty,
		TriggerProperty, TriggerSizeProperty, TriggerDeltaProperty, TriggerDurationProperty, TriggerAttributeProperty,
		PartitionProperty, PartitionEvictionProperty, PartitionEvictionBoundProperty, PartitionEvictionAgeProperty,
		ReduceProperty, ResolutionProperty,
		IntervalDurationProperty, IntervalPeriodProperty, IntervalOffsetProperty, IntervalDiscardProperty,
	}
)

type policyProperties struct {
	kind, size, delta, duration, attribute spl.Property
}

var (
	evictionProperties = policyProperties{EvictionProperty, EvictionSizeProperty, EvictionDeltaProperty, EvictionDurationProperty, EvictionAttributeProperty}
	triggerProperties  = policyProperties{TriggerProperty, TriggerSizeProperty, TriggerDeltaProperty, TriggerDurationProperty, TriggerAttributeProperty}
)

func (o *operator) policy(p spl.Properties, def policyProperties) (win.Policy, error) {
	switch kind := p.GetString(def.kind); kind {
	case win.KindCount.String():
		return win.Count{Size: p.GetInt(def.size)}, nil
	case win.KindDelta.String():
		expression, err := tengo.CompileExpression(p.GetString(def.attribute))
		if err != nil {
			return nil, errors.WithMessage(err, def.attribute.Name())
		}
		return win.Delta[*spl.Event]{Bound: p.GetFloat64(def.delta), Extract: o.attribute(expression)}, nil
	case win.KindTime.String():
		return win.Time{Duration: p.GetDuration(def.duration)}, nil
	case win.KindEventTime.String():
		return win.EventTime{Duration: p.GetDuration(def.duration)}, nil
	default:
		return nil, errors.WithMessagef(win.ErrInvalidPolicy, "unknown %s %q", def.kind.Name(), kind)
	}
}

func (o *operator) attribute(expression *tengo.Expression) win.Extractor[*spl.Event] {
	return func(event *spl.Event) (float64, error) {
		value, err := expression.Eval(o.ctx.Ctx(), event)
		if err != nil {
			return 0, err
		}
		return cast.ToFloat64E(value)
	}
}

func partitionPolicy(p spl.Properties) (win.PartitionPolicy, error) {
	switch kind := p.GetString(PartitionEvictionProperty); kind {
	case "none":
		return nil, nil
	case "age":
		return win.PartitionAge{Age: p.GetDuration(PartitionEvictionAgeProperty)}, nil
	case "count":
		return win.PartitionCount{Count: p.GetInt(PartitionEvictionBoundProperty)}, nil
	case "tuple-count":
		return win.TupleCount{Count: p.GetInt(PartitionEvictionBoundProperty)}, nil
	default:
		return nil, errors.WithMessagef(win.ErrInvalidPolicy, "unknown %s %q", PartitionEvictionProperty.Name(), kind)
	}
}
